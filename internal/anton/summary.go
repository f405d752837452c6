package anton

import "fmt"

// Summary is the end-of-run report (spec §4.2.6): exactly one StopReason,
// plus counts computed over the last attempt per task rather than over
// every attempt, so a task that failed twice and then passed counts once
// as a pass.
type Summary struct {
	Reason       StopReason
	TotalTasks   int
	Passed       int
	Failed       int
	Blocked      int
	Skipped      int
	Decomposed   int
	TotalTokens  int
	TotalCommits int
	Iterations   int
}

// Summarize reduces a RunState and its terminal StopReason into a Summary.
func Summarize(state *RunState, reason StopReason) Summary {
	s := Summary{
		Reason:       reason,
		TotalTokens:  state.TotalTokens,
		TotalCommits: state.TotalCommits,
		Iterations:   state.TotalIterations,
	}
	last := state.LastAttemptPerTask()
	s.TotalTasks = len(last)
	for _, a := range last {
		switch a.Status {
		case AttemptPassed:
			s.Passed++
		case AttemptBlocked:
			s.Blocked++
		case AttemptSkipped:
			s.Skipped++
		case AttemptDecomposed:
			s.Decomposed++
		default:
			s.Failed++
		}
	}
	return s
}

// String renders a one-paragraph human-readable summary for CLI output.
func (s Summary) String() string {
	return fmt.Sprintf(
		"stop reason: %s | tasks: %d (passed %d, failed %d, blocked %d, skipped %d, decomposed %d) | tokens: %d | commits: %d | iterations: %d",
		s.Reason, s.TotalTasks, s.Passed, s.Failed, s.Blocked, s.Skipped, s.Decomposed, s.TotalTokens, s.TotalCommits, s.Iterations,
	)
}
