package contextbudget

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"
)

func longMessages(n int, role schema.RoleType, body string) []*schema.Message {
	out := make([]*schema.Message, n)
	for i := range out {
		out[i] = &schema.Message{Role: role, Content: body}
	}
	return out
}

func TestNeedsCompaction(t *testing.T) {
	c := New(Config{ContextWindow: 1000, CharsPerToken: 4})

	small := longMessages(2, schema.User, "hi")
	if c.NeedsCompaction(0, small) {
		t.Error("small history should not need compaction")
	}

	big := longMessages(50, schema.User, strings.Repeat("x", 200))
	if !c.NeedsCompaction(0, big) {
		t.Error("large history should need compaction")
	}
}

func TestCompactSummarizes(t *testing.T) {
	c := New(Config{ContextWindow: 500, CharsPerToken: 4, PreserveRatio: 0.25})

	messages := longMessages(40, schema.User, "touched file src/main.go because it had a bug. "+strings.Repeat("y", 50))

	called := false
	result, err := c.Compact(context.Background(), messages, 0, func(ctx context.Context, prompt string) (string, error) {
		called = true
		if !strings.Contains(prompt, "src/main.go") {
			t.Error("expected summary prompt to include extracted file path")
		}
		return "condensed summary", nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if !called {
		t.Fatal("expected summarize to be called")
	}
	if !result.Compressed {
		t.Error("expected Compressed=true")
	}
	if result.Messages[0].Content == "" || !strings.Contains(result.Messages[0].Content, "condensed summary") {
		t.Errorf("expected summary message to be prepended, got %+v", result.Messages[0])
	}
}

func TestCompactFallsBackOnSummarizeError(t *testing.T) {
	c := New(Config{ContextWindow: 500, CharsPerToken: 4, PreserveRatio: 0.25})
	messages := longMessages(40, schema.User, strings.Repeat("z", 80))

	result, err := c.Compact(context.Background(), messages, 0, func(ctx context.Context, prompt string) (string, error) {
		return "", errors.New("model unavailable")
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.Compressed {
		t.Error("fallback path should not report Compressed=true")
	}
	if len(result.Messages) == 0 {
		t.Error("expected fallback to still return some messages")
	}
}

func TestCompactToolResultsDedup(t *testing.T) {
	dup := &schema.Message{Role: schema.Tool, Content: "same output"}
	messages := []*schema.Message{dup, dup, dup}

	out := CompactToolResults(messages, RollingConfig{})
	if out[0].Content != "same output" {
		t.Errorf("expected first occurrence untouched, got %q", out[0].Content)
	}
	if !strings.Contains(out[1].Content, "identical to tool result") {
		t.Errorf("expected duplicate to be rewritten, got %q", out[1].Content)
	}
}

func TestCompactToolResultsSqueeze(t *testing.T) {
	big := &schema.Message{Role: schema.Tool, Content: strings.Repeat("a", 5000)}
	out := CompactToolResults([]*schema.Message{big}, RollingConfig{MaxResultChars: 1000, KeepHeadChars: 100, KeepTailChars: 100})

	if len(out[0].Content) >= len(big.Content) {
		t.Error("expected squeezed content to be shorter than original")
	}
	if !strings.Contains(out[0].Content, "bytes omitted") {
		t.Errorf("expected squeeze marker, got %q", out[0].Content)
	}
}

func TestBuildChunksKeepsToolGroupAtomic(t *testing.T) {
	call := &schema.Message{
		Role:      schema.Assistant,
		ToolCalls: []schema.ToolCall{{ID: "1", Function: schema.FunctionCall{Name: "read_file"}}},
	}
	result := &schema.Message{Role: schema.Tool, Content: "ok"}
	messages := []*schema.Message{call, result}

	chunks := BuildChunks(messages)
	if len(chunks) != 1 {
		t.Fatalf("expected tool call + result to form one chunk, got %d", len(chunks))
	}
	if len(chunks[0].Messages) != 2 {
		t.Fatalf("expected chunk to contain both messages, got %d", len(chunks[0].Messages))
	}
}

func TestBuildChunksGroupsByUserTurn(t *testing.T) {
	sys := &schema.Message{Role: schema.System, Content: "you are an agent"}
	user1 := &schema.Message{Role: schema.User, Content: "do thing one"}
	call := &schema.Message{Role: schema.Assistant, ToolCalls: []schema.ToolCall{{ID: "1"}}}
	result := &schema.Message{Role: schema.Tool, Content: "done"}
	reply := &schema.Message{Role: schema.Assistant, Content: "finished thing one"}
	user2 := &schema.Message{Role: schema.User, Content: "do thing two"}

	chunks := BuildChunks([]*schema.Message{sys, user1, call, result, reply, user2})
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks (leading system, turn one, turn two), got %d", len(chunks))
	}
	if len(chunks[0].Messages) != 1 || chunks[0].Messages[0] != sys {
		t.Errorf("expected leading chunk to hold only the system message, got %+v", chunks[0].Messages)
	}
	if len(chunks[1].Messages) != 4 {
		t.Fatalf("expected the whole first exchange (user, call, result, reply) in one chunk, got %d", len(chunks[1].Messages))
	}
	if len(chunks[2].Messages) != 1 || chunks[2].Messages[0] != user2 {
		t.Errorf("expected trailing chunk to hold only the second user turn, got %+v", chunks[2].Messages)
	}
}

func TestScoreChunksIsAverageNotMax(t *testing.T) {
	high := &schema.Message{Role: schema.System, Content: "plan: use postgres because it fits"}
	low := &schema.Message{Role: schema.Tool, Content: "ok"}
	chunks := []Chunk{{Messages: []*schema.Message{high, low}, Start: 0}}

	chunks = ScoreChunks(chunks, 2)

	highScore := Score(high, 0, 2)
	lowScore := Score(low, 1, 2)
	want := Importance((int(highScore) + int(lowScore)) / 2)
	if chunks[0].Score != want {
		t.Errorf("expected average score %d, got %d (max would be %d)", want, chunks[0].Score, highScore)
	}
}

func TestSelectByScorePrefersHighScoreOverRecency(t *testing.T) {
	important := Chunk{Messages: []*schema.Message{{Role: schema.System, Content: "x"}}, Score: 150}
	filler1 := Chunk{Messages: []*schema.Message{{Role: schema.Tool, Content: "noise"}}, Score: 10}
	filler2 := Chunk{Messages: []*schema.Message{{Role: schema.Tool, Content: "more noise"}}, Score: 5}
	chunks := []Chunk{important, filler1, filler2}

	tokenCost := EstimateTotal(important.Messages, DefaultCharsPerToken)
	keep := selectByScore(chunks, tokenCost, DefaultCharsPerToken)

	if !keep[0] {
		t.Error("expected the high-scoring older chunk to be kept over low-scoring filler")
	}
	if keep[1] || keep[2] {
		t.Error("expected the budget to be exhausted by the high-score chunk alone")
	}
}
