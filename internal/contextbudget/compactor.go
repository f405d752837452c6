package contextbudget

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/cloudwego/eino/schema"
)

// SummarizeFunc performs a non-streaming model call that condenses a block
// of conversation text into prose. Anton supplies this from whichever chat
// model the run is configured with; the compactor has no model dependency
// of its own.
type SummarizeFunc func(ctx context.Context, prompt string) (string, error)

// Config configures a Compactor.
type Config struct {
	ContextWindow int     // total token budget for the model in use
	Threshold     float64 // trigger ratio of ContextWindow, default 0.80
	PreserveRatio float64 // fraction of ContextWindow reserved for recent chunks, default 0.25
	CharsPerToken int     // default DefaultCharsPerToken
	Rolling       RollingConfig
}

func (c Config) withDefaults() Config {
	if c.Threshold == 0 {
		c.Threshold = 0.80
	}
	if c.PreserveRatio == 0 {
		c.PreserveRatio = 0.25
	}
	if c.CharsPerToken == 0 {
		c.CharsPerToken = DefaultCharsPerToken
	}
	return c
}

// Result is the outcome of a compaction pass.
type Result struct {
	Messages   []*schema.Message
	Summary    string
	Compressed bool
	Dropped    int
}

// Compactor keeps a running conversation within a model's context window.
type Compactor struct {
	cfg Config
}

// New creates a Compactor. A zero-value Config uses package defaults.
func New(cfg Config) *Compactor {
	return &Compactor{cfg: cfg.withDefaults()}
}

// NeedsCompaction reports whether the message history has crossed the
// configured trigger ratio of the context window.
func (c *Compactor) NeedsCompaction(systemPromptTokens int, messages []*schema.Message) bool {
	if c.cfg.ContextWindow <= 0 {
		return false
	}
	used := systemPromptTokens + EstimateTotal(messages, c.cfg.CharsPerToken)
	limit := int(float64(c.cfg.ContextWindow) * c.cfg.Threshold)
	return used > limit
}

// Compact runs rolling tool-result compression first (cheap, always safe),
// then — only if still over budget — semantic chunking, importance
// scoring, and a summarization call over the lowest-scoring chunks.
// Summarization failures fall back to dropping the worst chunks outright
// rather than blocking the attempt.
func (c *Compactor) Compact(ctx context.Context, messages []*schema.Message, systemPromptTokens int, summarize SummarizeFunc) (*Result, error) {
	rolled := CompactToolResults(messages, c.cfg.Rolling)

	if !c.NeedsCompaction(systemPromptTokens, rolled) {
		return &Result{Messages: rolled}, nil
	}

	chunks := BuildChunks(rolled)
	chunks = ScoreChunks(chunks, len(rolled))

	preserveBudget := int(float64(c.cfg.ContextWindow) * c.cfg.PreserveRatio)
	keep := selectByScore(chunks, preserveBudget, c.cfg.CharsPerToken)

	var oldChunks, recentChunks []Chunk
	for i, ch := range chunks {
		if keep[i] {
			recentChunks = append(recentChunks, ch)
		} else {
			oldChunks = append(oldChunks, ch)
		}
	}
	if len(oldChunks) == 0 {
		return &Result{Messages: rolled}, nil
	}

	oldMessages := Flatten(oldChunks)
	facts := Extract(oldMessages)

	slog.Info("context compaction triggered",
		"messages", len(rolled),
		"chunks_dropped_or_summarized", len(oldChunks),
		"chunks_kept", len(recentChunks),
	)

	summary, err := summarize(ctx, buildSummaryPrompt(oldMessages, facts))
	if err != nil {
		slog.Warn("compaction summarization failed, falling back to truncation", "error", err)
		kept := fallbackTruncate(oldChunks, c.cfg.CharsPerToken, preserveBudget/4)
		fallbackMsg := fallbackSummaryMessage(facts, len(oldMessages)-len(kept))
		return &Result{
			Messages: append(append([]*schema.Message{fallbackMsg}, kept...), Flatten(recentChunks)...),
			Dropped:  len(oldMessages) - len(kept),
		}, nil
	}

	summaryMsg := &schema.Message{
		Role:    schema.User,
		Content: fmt.Sprintf("[Previous conversation summary]\n\n%s\n\n%s", summary, facts.Render()),
	}

	return &Result{
		Messages:   append([]*schema.Message{summaryMsg}, Flatten(recentChunks)...),
		Summary:    summary,
		Compressed: true,
		Dropped:    len(oldMessages),
	}, nil
}

// selectByScore greedily keeps chunks in descending importance order until
// the next chunk would exceed preserveBudget, returning the set of kept
// chunk indices.
func selectByScore(chunks []Chunk, preserveBudget, charsPerToken int) map[int]bool {
	if len(chunks) == 0 {
		return nil
	}

	order := make([]int, len(chunks))
	for i := range chunks {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return chunks[order[a]].Score > chunks[order[b]].Score
	})

	keep := make(map[int]bool, len(chunks))
	budget := preserveBudget
	for _, idx := range order {
		t := EstimateTotal(chunks[idx].Messages, charsPerToken)
		if t > budget {
			break
		}
		keep[idx] = true
		budget -= t
	}
	return keep
}

func buildSummaryPrompt(messages []*schema.Message, facts KeyFacts) string {
	prompt := "Summarize the following agent conversation segment.\n" +
		"Preserve: key decisions, technical details, file paths, task state.\n" +
		"Keep under 1500 words.\n\n## Messages\n\n"
	for _, m := range messages {
		prompt += fmt.Sprintf("[%s]: %s\n\n", m.Role, m.Content)
	}
	if rendered := facts.Render(); rendered != "" {
		prompt += "## Extracted facts (ensure these are reflected)\n\n" + rendered
	}
	return prompt
}
