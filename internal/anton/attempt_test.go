package anton

import (
	"context"
	"testing"

	"github.com/anton-run/anton/internal/agentsession"
	"github.com/anton-run/anton/internal/config"
	"github.com/anton-run/anton/internal/toolloop"
	"github.com/anton-run/anton/internal/verify"
)

func newTestDeps(session *fakeSession, git *fakeGit) AttemptDeps {
	return AttemptDeps{
		Session:  session,
		Verifier: verify.New(verify.Config{WorkDir: "/tmp"}),
		Git:      git,
		Detector: toolloop.New(toolloop.Config{}),
		WorkDir:  "/tmp",
	}
}

func TestRunAttemptPassed(t *testing.T) {
	session := &fakeSession{responses: []agentsession.AskResult{
		{Kind: agentsession.ResultOK, Text: "<anton-result>\nstatus: done\n</anton-result>"},
	}}
	git := &fakeGit{commitSHA: "abc123"}
	deps := newTestDeps(session, git)

	outcome, err := RunAttempt(context.Background(), deps, AttemptInput{
		TaskKey: "tk_1", TaskText: "do it", AttemptNumber: 1,
		Cfg: config.RunConfig{AutoCommit: true},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Record.Status != AttemptPassed {
		t.Fatalf("expected passed, got %s: %s", outcome.Record.Status, outcome.Record.Summary)
	}
	if outcome.Record.CommitSHA != "abc123" {
		t.Fatalf("expected commit sha recorded, got %q", outcome.Record.CommitSHA)
	}
}

func TestRunAttemptDoesNotCommitWhenAutoCommitDisabled(t *testing.T) {
	session := &fakeSession{responses: []agentsession.AskResult{
		{Kind: agentsession.ResultOK, Text: "<anton-result>\nstatus: done\n</anton-result>"},
	}}
	git := &fakeGit{commitSHA: "abc123"}
	deps := newTestDeps(session, git)

	outcome, err := RunAttempt(context.Background(), deps, AttemptInput{
		TaskKey: "tk_1", TaskText: "do it", AttemptNumber: 1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Record.CommitSHA != "" {
		t.Fatalf("expected no commit sha, got %q", outcome.Record.CommitSHA)
	}
}

func TestRunAttemptBlocked(t *testing.T) {
	session := &fakeSession{responses: []agentsession.AskResult{
		{Kind: agentsession.ResultOK, Text: "<anton-result>\nstatus: blocked\nreason: need credentials\n</anton-result>"},
	}}
	deps := newTestDeps(session, &fakeGit{})

	outcome, err := RunAttempt(context.Background(), deps, AttemptInput{TaskKey: "tk_1", TaskText: "do it", AttemptNumber: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Record.Status != AttemptBlocked {
		t.Fatalf("expected blocked, got %s", outcome.Record.Status)
	}
	if outcome.Contract.Reason != "need credentials" {
		t.Fatalf("expected reason propagated, got %q", outcome.Contract.Reason)
	}
}

func TestRunAttemptDecomposed(t *testing.T) {
	session := &fakeSession{responses: []agentsession.AskResult{
		{Kind: agentsession.ResultOK, Text: "<anton-result>\nstatus: decompose\nsubtasks:\n- step one\n- step two\n</anton-result>"},
	}}
	deps := newTestDeps(session, &fakeGit{})

	outcome, err := RunAttempt(context.Background(), deps, AttemptInput{TaskKey: "tk_1", TaskText: "do it", AttemptNumber: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Record.Status != AttemptDecomposed {
		t.Fatalf("expected decomposed, got %s", outcome.Record.Status)
	}
	if len(outcome.Contract.Subtasks) != 2 {
		t.Fatalf("expected 2 subtasks, got %v", outcome.Contract.Subtasks)
	}
}

func TestRunAttemptToolLoopBreak(t *testing.T) {
	session := &fakeSession{responses: []agentsession.AskResult{
		{Kind: agentsession.ResultToolLoopBreak},
	}}
	deps := newTestDeps(session, &fakeGit{})

	outcome, err := RunAttempt(context.Background(), deps, AttemptInput{TaskKey: "tk_1", TaskText: "do it", AttemptNumber: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Record.Status != AttemptFailed {
		t.Fatalf("expected failed status on tool loop break, got %s", outcome.Record.Status)
	}
}

func TestRunAttemptMissingContractTriesRepairOnce(t *testing.T) {
	session := &fakeSession{responses: []agentsession.AskResult{
		{Kind: agentsession.ResultOK, Text: "no contract block here"},
		{Kind: agentsession.ResultOK, Text: "<anton-result>\nstatus: failed\nreason: couldn't finish\n</anton-result>"},
	}}
	deps := newTestDeps(session, &fakeGit{})

	outcome, err := RunAttempt(context.Background(), deps, AttemptInput{TaskKey: "tk_1", TaskText: "do it", AttemptNumber: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Record.Status != AttemptFailed {
		t.Fatalf("expected failed status after repair, got %s", outcome.Record.Status)
	}
	if session.calls != 2 {
		t.Fatalf("expected repair prompt to be sent once, calls=%d", session.calls)
	}
}
