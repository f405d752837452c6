package agentsession

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"sync"

	"github.com/cloudwego/eino/adk"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
)

// EinoSessionConfig configures a new EinoSession.
type EinoSessionConfig struct {
	ChatModel     model.ToolCallingChatModel
	Tools         []tool.InvokableTool
	SystemPrompt  string
	MaxIterations int
}

// EinoSession drives an eino ADK runner for a single task attempt,
// adapted from the teacher's agent.NewAgentBuffered and
// TaskRunner.consumeRunnerOutput event-draining loop.
type EinoSession struct {
	mu           sync.Mutex
	chatModel    model.ToolCallingChatModel
	tools        []tool.InvokableTool
	systemPrompt string
	maxIters     int

	usage      Usage
	cancelFunc context.CancelFunc
}

// NewEinoSession creates a session bound to a configured chat model.
func NewEinoSession(cfg EinoSessionConfig) *EinoSession {
	return &EinoSession{
		chatModel:    cfg.ChatModel,
		tools:        cfg.Tools,
		systemPrompt: InjectContractInstructions(cfg.SystemPrompt),
		maxIters:     cfg.MaxIterations,
	}
}

func (s *EinoSession) GetSystemPrompt() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.systemPrompt
}

func (s *EinoSession) SetSystemPrompt(p string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.systemPrompt = InjectContractInstructions(p)
}

func (s *EinoSession) Usage() Usage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.usage
}

func (s *EinoSession) Cancel() {
	s.mu.Lock()
	cancel := s.cancelFunc
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (s *EinoSession) Close() error {
	s.Cancel()
	return nil
}

// Ask submits prompt as a fresh user turn, draining the ADK runner's event
// stream and applying hooks as tool calls and completion are observed.
func (s *EinoSession) Ask(ctx context.Context, prompt string, hooks Hooks) (AskResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancelFunc = cancel
	systemPrompt := s.systemPrompt
	maxIters := s.maxIters
	s.mu.Unlock()
	defer cancel()

	cfg := &adk.ChatModelAgentConfig{
		Name:          "anton",
		Description:   "Anton task attempt agent",
		Instruction:   systemPrompt,
		Model:         s.chatModel,
		MaxIterations: maxIters,
	}
	if len(s.tools) > 0 {
		baseTools := make([]tool.BaseTool, len(s.tools))
		for i, t := range s.tools {
			baseTools[i] = t
		}
		cfg.ToolsConfig.Tools = baseTools
	}

	chatAgent, err := adk.NewChatModelAgent(ctx, cfg)
	if err != nil {
		return AskResult{Kind: ResultInfraError, Err: err}, nil
	}

	runner := adk.NewRunner(ctx, adk.RunnerConfig{
		Agent:           chatAgent,
		EnableStreaming: false,
	})

	messages := []*schema.Message{
		{Role: schema.User, Content: prompt},
	}
	if hooks.OnCompaction != nil {
		messages = hooks.OnCompaction(CompactionEvent{Messages: messages})
	}

	checkpointID := uuid.New().String()
	iter := runner.Run(ctx, messages, adk.WithCheckPointID(checkpointID))

	var content string
	toolCallCount := 0
	turns := 0

	for {
		if err := ctx.Err(); err != nil {
			return AskResult{Kind: ResultInfraError, Err: err}, nil
		}

		event, ok := iter.Next()
		if !ok {
			break
		}
		if event.Err != nil {
			if isInfraError(event.Err) {
				return AskResult{Kind: ResultInfraError, Err: event.Err}, nil
			}
			return AskResult{}, event.Err
		}
		if event.Output == nil || event.Output.MessageOutput == nil {
			continue
		}
		mv := event.Output.MessageOutput

		if mv.Role == schema.Tool {
			if mv.IsStreaming && mv.MessageStream != nil {
				mv.MessageStream.Close()
			}
			continue
		}

		turns++

		var msg *schema.Message
		if mv.IsStreaming && mv.MessageStream != nil {
			msg = drainStream(mv.MessageStream)
		} else {
			msg = mv.Message
		}
		if msg == nil {
			continue
		}
		if msg.ResponseMeta != nil && msg.ResponseMeta.Usage != nil {
			s.mu.Lock()
			s.usage.PromptTokens += msg.ResponseMeta.Usage.PromptTokens
			s.usage.CompletionTokens += msg.ResponseMeta.Usage.CompletionTokens
			s.mu.Unlock()
		}

		if len(msg.ToolCalls) > 0 {
			toolCallCount += len(msg.ToolCalls)
			if hooks.OnToolLoop != nil {
				for _, tc := range msg.ToolCalls {
					ev := ToolLoopEvent{ToolName: tc.Function.Name, Args: decodeArgs(tc.Function.Arguments)}
					if hooks.OnToolLoop(ev) {
						if hooks.OnTurnEnd != nil {
							hooks.OnTurnEnd(TurnEndStats{ToolCalls: toolCallCount, Tokens: s.Usage().Total()})
						}
						return AskResult{Kind: ResultToolLoopBreak, Text: content, Turns: turns, ToolCalls: toolCallCount}, nil
					}
				}
			}
			continue
		}

		if msg.Content != "" {
			content = msg.Content
		}
	}

	if hooks.OnTurnEnd != nil {
		hooks.OnTurnEnd(TurnEndStats{ToolCalls: toolCallCount, Tokens: s.Usage().Total()})
	}

	return AskResult{Kind: ResultOK, Text: content, Turns: turns, ToolCalls: toolCallCount}, nil
}

func drainStream(stream *schema.StreamReader[*schema.Message]) *schema.Message {
	var full strings.Builder
	var last *schema.Message
	for {
		chunk, err := stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}
		if chunk == nil {
			continue
		}
		last = chunk
		full.WriteString(chunk.Content)
	}
	if last == nil {
		return nil
	}
	merged := *last
	merged.Content = full.String()
	return &merged
}

func decodeArgs(raw string) map[string]any {
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return map[string]any{"_raw": raw}
	}
	return args
}

func isInfraError(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, needle := range []string{"connection refused", "503", "model loading", "timeout", "eof"} {
		if strings.Contains(msg, needle) {
			return true
		}
	}
	return false
}
