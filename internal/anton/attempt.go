package anton

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/anton-run/anton/internal/agentsession"
	"github.com/anton-run/anton/internal/config"
	"github.com/anton-run/anton/internal/contextbudget"
	"github.com/anton-run/anton/internal/gitwrap"
	"github.com/anton-run/anton/internal/toolloop"
	"github.com/anton-run/anton/internal/verify"
)

// AttemptDeps bundles the collaborators one implementation attempt needs.
// The controller creates Session and Summarize per attempt; the verifier,
// git, detector and compactor are shared across the run.
type AttemptDeps struct {
	Session   agentsession.Session
	Verifier  *verify.Verifier
	Git       gitwrap.Git
	Detector  *toolloop.Detector
	Compactor *contextbudget.Compactor
	Summarize contextbudget.SummarizeFunc
	WorkDir   string
}

// AttemptInput is everything one call to RunAttempt needs to know about
// the task and its history.
type AttemptInput struct {
	TaskKey          string
	TaskText         string
	AttemptNumber    int
	PlanFilename     string
	PreviousAttempt  *AttemptRecord
	PreviousVerify   *verify.Result
	L2FailCount      int
	CandidateFiles   []string
	Cfg              config.RunConfig
	RepairPromptOnce bool
}

// AttemptOutcome is what RunAttempt reports back to the controller.
type AttemptOutcome struct {
	Record       AttemptRecord
	Contract     agentsession.Contract
	VerifyResult *verify.Result
}

const repairContractPrompt = `Your response did not include a valid <anton-result> block. Re-send your final answer ending with exactly one <anton-result> block as instructed.`

// RunAttempt drives one implementation attempt end to end (spec §4.2.3):
// compose the prompt, install hooks wired to the shared loop detector, ask
// the session, parse the output contract with a one-shot repair retry,
// and on a "done" claim run verification and an optional commit.
func RunAttempt(ctx context.Context, deps AttemptDeps, in AttemptInput) (AttemptOutcome, error) {
	start := time.Now()
	deps.Detector.Reset()

	prompt := composeAttemptPrompt(in)

	hooks := agentsession.Hooks{
		OnToolLoop: func(ev agentsession.ToolLoopEvent) bool {
			verdict := deps.Detector.Observe(toolloop.Call{Name: ev.ToolName, Args: ev.Args}, true)
			return verdict.Tripped
		},
		OnCompaction: compactionHook(ctx, deps.Compactor, deps.Summarize),
	}

	askRes, err := deps.Session.Ask(ctx, prompt, hooks)
	if err != nil {
		return errorOutcome(in, start, err), nil
	}

	switch askRes.Kind {
	case agentsession.ResultToolLoopBreak:
		return AttemptOutcome{Record: AttemptRecord{
			TaskKey: in.TaskKey, Attempt: in.AttemptNumber, Status: AttemptFailed,
			Duration: time.Since(start), Tokens: deps.Session.Usage().Total(),
			Error: "tool loop detected", Summary: "aborted: repeated tool call signature",
		}}, nil
	case agentsession.ResultInfraError:
		return errorOutcome(in, start, askRes.Err), nil
	}

	contract, ok := agentsession.ParseContract(askRes.Text)
	if !ok && !in.RepairPromptOnce {
		askRes, err = deps.Session.Ask(ctx, repairContractPrompt, agentsession.Hooks{})
		if err != nil {
			return errorOutcome(in, start, err), nil
		}
		contract, ok = agentsession.ParseContract(askRes.Text)
	}
	if !ok {
		return AttemptOutcome{Record: AttemptRecord{
			TaskKey: in.TaskKey, Attempt: in.AttemptNumber, Status: AttemptError,
			Duration: time.Since(start), Tokens: deps.Session.Usage().Total(),
			Error: "no valid output contract", Summary: "agent response missing <anton-result> block",
		}}, nil
	}

	tokens := deps.Session.Usage().Total()

	switch contract.Status {
	case agentsession.StatusBlocked:
		return AttemptOutcome{Contract: contract, Record: AttemptRecord{
			TaskKey: in.TaskKey, Attempt: in.AttemptNumber, Status: AttemptBlocked,
			Duration: time.Since(start), Tokens: tokens, Summary: contract.Reason,
		}}, nil

	case agentsession.StatusDecompose:
		return AttemptOutcome{Contract: contract, Record: AttemptRecord{
			TaskKey: in.TaskKey, Attempt: in.AttemptNumber, Status: AttemptDecomposed,
			Duration: time.Since(start), Tokens: tokens, Summary: contract.Reason,
		}}, nil

	case agentsession.StatusFailed:
		return AttemptOutcome{Contract: contract, Record: AttemptRecord{
			TaskKey: in.TaskKey, Attempt: in.AttemptNumber, Status: AttemptFailed,
			Duration: time.Since(start), Tokens: tokens, Summary: contract.Reason,
		}}, nil
	}

	// StatusDone: run verification before accepting the claim.
	diff, err := deps.Git.GetWorkingDiff(deps.WorkDir)
	if err != nil {
		return errorOutcome(in, start, fmt.Errorf("get working diff: %w", err)), nil
	}

	verifyResult, err := deps.Verifier.Verify(ctx, in.TaskText, diff)
	if err != nil {
		return errorOutcome(in, start, fmt.Errorf("verify: %w", err)), nil
	}

	if !verifyResult.Passed {
		return AttemptOutcome{Contract: contract, VerifyResult: &verifyResult, Record: AttemptRecord{
			TaskKey: in.TaskKey, Attempt: in.AttemptNumber, Status: AttemptFailed,
			Duration: time.Since(start), Tokens: tokens, Summary: verifyResult.Summary,
		}}, nil
	}

	record := AttemptRecord{
		TaskKey: in.TaskKey, Attempt: in.AttemptNumber, Status: AttemptPassed,
		Duration: time.Since(start), Tokens: tokens, Summary: verifyResult.Summary,
	}

	if in.Cfg.AutoCommit {
		sha, err := deps.Git.CommitAll(deps.WorkDir, commitMessage(in.TaskKey, in.TaskText))
		if err != nil {
			return errorOutcome(in, start, fmt.Errorf("commit: %w", err)), nil
		}
		record.CommitSHA = sha
	}

	return AttemptOutcome{Contract: contract, VerifyResult: &verifyResult, Record: record}, nil
}

// compactionHook adapts a contextbudget.Compactor into the session-level
// OnCompaction callback. A nil Compactor (context window unknown, or the
// caller opted out) makes this a no-op pass-through.
func compactionHook(ctx context.Context, compactor *contextbudget.Compactor, summarize contextbudget.SummarizeFunc) func(agentsession.CompactionEvent) []*schema.Message {
	if compactor == nil {
		return nil
	}
	return func(ev agentsession.CompactionEvent) []*schema.Message {
		result, err := compactor.Compact(ctx, ev.Messages, ev.SystemPromptTokens, summarize)
		if err != nil {
			return ev.Messages
		}
		return result.Messages
	}
}

func errorOutcome(in AttemptInput, start time.Time, err error) AttemptOutcome {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return AttemptOutcome{Record: AttemptRecord{
		TaskKey: in.TaskKey, Attempt: in.AttemptNumber, Status: AttemptError,
		Duration: time.Since(start), Error: msg, Summary: "attempt errored: " + msg,
	}}
}

func commitMessage(taskKey, taskText string) string {
	summary := taskText
	if len(summary) > 72 {
		summary = summary[:72]
	}
	return fmt.Sprintf("anton: %s\n\n%s", summary, taskKey)
}

// composeAttemptPrompt builds the implementation prompt for one attempt,
// including the plan file reference and, for attempt>1, the retry context
// block built from the previous attempt's outcome.
func composeAttemptPrompt(in AttemptInput) string {
	prompt := fmt.Sprintf("Task: %s\n\nPlan file: %s\n", in.TaskText, in.PlanFilename)
	if content, ok := readSmallFile("", in.PlanFilename); ok {
		prompt += "\nPlan steps:\n" + FormatPlanSummary(content) + "\n"
	}
	if in.AttemptNumber > 1 && in.PreviousAttempt != nil {
		prompt += buildRetryContext("", *in.PreviousAttempt, in.PreviousVerify, in.L2FailCount, verify.DefaultRelatedFileMatcher, in.CandidateFiles, in.TaskText)
	}
	return prompt
}
