package anton

import "time"

// AttemptStatus is the outcome of a single implementation attempt.
type AttemptStatus string

const (
	AttemptPassed    AttemptStatus = "passed"
	AttemptFailed    AttemptStatus = "failed"
	AttemptError     AttemptStatus = "error"
	AttemptTimeout   AttemptStatus = "timeout"
	AttemptBlocked   AttemptStatus = "blocked"
	AttemptDecomposed AttemptStatus = "decomposed"
	AttemptSkipped   AttemptStatus = "skipped"
)

// AttemptRecord is an immutable record of one (task, attempt#) cycle.
type AttemptRecord struct {
	TaskKey    string
	Attempt    int
	Status     AttemptStatus
	Duration   time.Duration
	Tokens     int
	Summary    string
	CommitSHA  string
	Error      string
}

// PreflightStage identifies a preflight pipeline stage.
type PreflightStage string

const (
	StageDiscovery         PreflightStage = "discovery"
	StageRequirementsReview PreflightStage = "requirements-review"
)

// PreflightStatus is the outcome of one preflight stage.
type PreflightStatus string

const (
	PreflightComplete  PreflightStatus = "complete"
	PreflightIncomplete PreflightStatus = "incomplete"
	PreflightReady     PreflightStatus = "ready"
	PreflightTimeout   PreflightStatus = "timeout"
	PreflightError     PreflightStatus = "error"
)

// PreflightRecord is an immutable record of one (task, stage) cycle.
type PreflightRecord struct {
	TaskKey      string
	Stage        PreflightStage
	Status       PreflightStatus
	PlanFilename string
	Tokens       int
	Duration     time.Duration
}

// TaskRetryState tracks per-task retry bookkeeping across the run.
type TaskRetryState struct {
	RetryCount                 int
	LastFailureSignature       string
	ConsecutiveIdenticalFailures int
	ConsecutiveL2Failures       int
	PlanFilePath                string
}

// StopReason is exactly one of the terminal states a run can end in.
type StopReason string

const (
	StopNone              StopReason = ""
	StopAbort             StopReason = "abort"
	StopMaxIterations     StopReason = "max_iterations"
	StopTotalTimeout      StopReason = "total_timeout"
	StopTokenBudget       StopReason = "token_budget"
	StopMaxTasksExceeded  StopReason = "max_tasks_exceeded"
	StopFatalError        StopReason = "fatal_error"
	StopAllDone           StopReason = "all_done"
)

// RunState is the in-memory state of one run, owned exclusively by the
// Controller.
type RunState struct {
	StartedAt time.Time

	TaskRetries  map[string]*TaskRetryState
	SkippedTasks map[string]bool
	Attempts     []AttemptRecord
	Preflights   []PreflightRecord

	TotalTokens      int
	TotalCommits     int
	TotalIterations  int
	AutoCompleted    int

	Aborted bool

	CurrentTaskKey string
	Phase          string
}

// NewRunState creates an empty RunState with the start time set to now.
func NewRunState(now time.Time) *RunState {
	return &RunState{
		StartedAt:    now,
		TaskRetries:  make(map[string]*TaskRetryState),
		SkippedTasks: make(map[string]bool),
		Phase:        "idle",
	}
}

// MarkSkipped records that taskKey has exhausted its retry budget (or was
// blocked while SkipOnBlocked is set) and should be excluded from the
// runnable set, without touching the task
// file — the checklist only ever reflects work actually done (spec.md
// §4.1: "the file is the source of truth").
func (s *RunState) MarkSkipped(taskKey string) {
	s.SkippedTasks[taskKey] = true
}

// IsSkipped reports whether taskKey was previously skipped this run.
func (s *RunState) IsSkipped(taskKey string) bool {
	return s.SkippedTasks[taskKey]
}

func (s *RunState) retryState(taskKey string) *TaskRetryState {
	rs, ok := s.TaskRetries[taskKey]
	if !ok {
		rs = &TaskRetryState{}
		s.TaskRetries[taskKey] = rs
	}
	return rs
}

// LastAttemptPerTask returns the most recent AttemptRecord for each task
// key, used to compute failure counts over last-attempt-per-task outcomes
// rather than per-attempt (spec §4.2.6).
func (s *RunState) LastAttemptPerTask() map[string]AttemptRecord {
	out := make(map[string]AttemptRecord)
	for _, a := range s.Attempts {
		out[a.TaskKey] = a
	}
	return out
}
