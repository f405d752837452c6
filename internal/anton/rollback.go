package anton

import (
	"fmt"

	"github.com/anton-run/anton/internal/config"
	"github.com/anton-run/anton/internal/gitwrap"
)

// rollback reverts the working tree after a failed/blocked/error attempt,
// per the policy in spec §4.2.5. preAttemptUntracked is the set of
// untracked files captured at attempt start, used to compute which files
// became untracked during this attempt.
func rollback(dir string, git gitwrap.Git, cfg config.RunConfig, preAttemptUntracked []string) error {
	if !cfg.RollbackOnFail {
		return nil
	}

	if err := git.RestoreTrackedChanges(dir); err != nil {
		return fmt.Errorf("restore tracked changes: %w", err)
	}

	if cfg.AggressiveCleanOnFail {
		if err := git.CleanUntracked(dir); err != nil {
			return fmt.Errorf("clean untracked: %w", err)
		}
		return nil
	}

	current, err := git.GetUntrackedFiles(dir)
	if err != nil {
		return fmt.Errorf("list untracked files: %w", err)
	}

	before := make(map[string]bool, len(preAttemptUntracked))
	for _, f := range preAttemptUntracked {
		before[f] = true
	}

	var newlyUntracked []string
	for _, f := range current {
		if !before[f] {
			newlyUntracked = append(newlyUntracked, f)
		}
	}
	if len(newlyUntracked) == 0 {
		return nil
	}
	if err := git.RemoveUntrackedFiles(dir, newlyUntracked); err != nil {
		return fmt.Errorf("remove untracked files: %w", err)
	}
	return nil
}
