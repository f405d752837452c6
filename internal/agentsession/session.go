// Package agentsession defines the narrow interface the run controller
// uses to drive a conversational agent through one attempt, plus the
// default adapter over Eino's ADK runner.
package agentsession

import (
	"context"

	"github.com/cloudwego/eino/schema"
)

// Usage tracks token consumption for a session's lifetime.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
}

// Total returns the sum of prompt and completion tokens.
func (u Usage) Total() int {
	return u.PromptTokens + u.CompletionTokens
}

// ToolLoopEvent is raised once per observed tool call so the controller can
// feed its own loop detector. OnToolLoop returning true tells the session
// to stop iterating and surface an AgentLoopBreak result.
type ToolLoopEvent struct {
	ToolName string
	Args     map[string]any
}

// CompactionEvent is raised before the conversation history is submitted to
// the model, giving the controller a chance to run its context-budget
// compactor. OnCompaction returns the (possibly unchanged) message list to
// actually send.
type CompactionEvent struct {
	Messages           []*schema.Message
	SystemPromptTokens int
}

// TurnEndStats is raised once after Ask completes.
type TurnEndStats struct {
	ToolCalls int
	Tokens    int
}

// Hooks are the capability callbacks the controller installs on a session
// before each attempt, per spec's Design Note: an explicit struct rather
// than ad hoc event subscriptions.
type Hooks struct {
	OnToolLoop   func(ToolLoopEvent) (abort bool)
	OnCompaction func(CompactionEvent) []*schema.Message
	OnTurnEnd    func(TurnEndStats)
}

// ResultKind distinguishes the ways Ask can conclude, surfaced as a typed
// variant rather than sentinel error strings (Design Note, spec §9).
type ResultKind string

const (
	ResultOK            ResultKind = "ok"
	ResultToolLoopBreak ResultKind = "tool_loop_break"
	ResultInfraError    ResultKind = "infra_error"
)

// AskResult is what one Ask call produces.
type AskResult struct {
	Kind      ResultKind
	Text      string
	Turns     int
	ToolCalls int
	Err       error // populated when Kind != ResultOK
}

// Session is the controller-facing contract for a single conversational
// agent run. Implementations own their own conversation history.
type Session interface {
	Ask(ctx context.Context, prompt string, hooks Hooks) (AskResult, error)
	Cancel()
	Close() error
	Usage() Usage
	GetSystemPrompt() string
	SetSystemPrompt(string)
}
