package anton

import (
	"time"

	"github.com/anton-run/anton/internal/config"
)

// CheckBudgets evaluates every run-level budget in priority order and
// returns the first one that has tripped, or StopNone if the run may
// continue (spec §4.2.1 step 4).
func CheckBudgets(state *RunState, cfg config.RunConfig) StopReason {
	if state.Aborted {
		return StopAbort
	}
	if cfg.MaxIterations > 0 && state.TotalIterations >= cfg.MaxIterations {
		return StopMaxIterations
	}
	if cfg.TotalTimeout.Duration() > 0 && time.Since(state.StartedAt) >= cfg.TotalTimeout.Duration() {
		return StopTotalTimeout
	}
	if cfg.TotalTokenBudget > 0 && state.TotalTokens >= cfg.TotalTokenBudget {
		return StopTokenBudget
	}
	if cfg.MaxTasks > 0 && len(state.Attempts) >= cfg.MaxTasks {
		return StopMaxTasksExceeded
	}
	return StopNone
}

// ShouldSkipOrStop decides, for the task about to be attempted, whether it
// must be skipped (if skipOnFail is set) or the run must stop fatally
// (spec §4.2.1 steps 6-7).
func ShouldSkipOrStop(retry *TaskRetryState, cfg config.RunConfig) (skip bool, fatal bool) {
	if retry.ConsecutiveIdenticalFailures >= cfg.MaxIdenticalFailures {
		if cfg.SkipOnFail {
			return true, false
		}
		return false, true
	}
	if retry.RetryCount >= cfg.MaxRetriesPerTask {
		if cfg.SkipOnFail {
			return true, false
		}
		return false, true
	}
	return false, false
}
