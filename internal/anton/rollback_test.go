package anton

import (
	"testing"

	"github.com/anton-run/anton/internal/config"
)

func TestRollbackNoOpWhenDisabled(t *testing.T) {
	git := &fakeGit{}
	err := rollback("/tmp/work", git, config.RunConfig{RollbackOnFail: false}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if git.restoreTrackedCalled {
		t.Fatalf("expected no git calls when rollback disabled")
	}
}

func TestRollbackAggressiveCleansAllUntracked(t *testing.T) {
	git := &fakeGit{untracked: []string{"a.txt", "b.txt"}}
	cfg := config.RunConfig{RollbackOnFail: true, AggressiveCleanOnFail: true}
	if err := rollback("/tmp/work", git, cfg, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !git.restoreTrackedCalled || !git.cleanUntrackedCalled {
		t.Fatalf("expected both restore and clean to be called")
	}
}

func TestRollbackNonAggressiveOnlyRemovesNewlyUntracked(t *testing.T) {
	git := &fakeGit{untracked: []string{"pre-existing.txt", "new.txt"}}
	cfg := config.RunConfig{RollbackOnFail: true, AggressiveCleanOnFail: false}
	if err := rollback("/tmp/work", git, cfg, []string{"pre-existing.txt"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if git.cleanUntrackedCalled {
		t.Fatalf("did not expect aggressive clean")
	}
	if len(git.removedUntracked) != 1 || git.removedUntracked[0] != "new.txt" {
		t.Fatalf("expected only new.txt removed, got %v", git.removedUntracked)
	}
}

func TestRollbackNonAggressiveNoNewFilesIsNoOp(t *testing.T) {
	git := &fakeGit{untracked: []string{"pre-existing.txt"}}
	cfg := config.RunConfig{RollbackOnFail: true}
	if err := rollback("/tmp/work", git, cfg, []string{"pre-existing.txt"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(git.removedUntracked) != 0 {
		t.Fatalf("expected no files removed, got %v", git.removedUntracked)
	}
}
