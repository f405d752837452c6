package contextbudget

import (
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
)

// compactedSentinel marks a tool-result message this package has already
// rewritten, so a second compaction pass over the same history doesn't
// re-compress an already-compressed result or double-count its savings.
const compactedSentinel = "[anton:compacted]"

// RollingConfig tunes how aggressively old tool output is squeezed before
// a chunk is considered for summarization or outright dropping.
type RollingConfig struct {
	// MaxResultChars caps an individual tool-result message's length
	// before it's compacted. Zero uses DefaultMaxResultChars.
	MaxResultChars int
	// KeepHeadChars and KeepTailChars bound how much of a long result
	// survives compaction, head and tail usually containing the summary
	// line and the final error respectively.
	KeepHeadChars int
	KeepTailChars int
}

const (
	DefaultMaxResultChars = 2000
	DefaultKeepHeadChars  = 400
	DefaultKeepTailChars  = 800
)

func (c RollingConfig) withDefaults() RollingConfig {
	if c.MaxResultChars <= 0 {
		c.MaxResultChars = DefaultMaxResultChars
	}
	if c.KeepHeadChars <= 0 {
		c.KeepHeadChars = DefaultKeepHeadChars
	}
	if c.KeepTailChars <= 0 {
		c.KeepTailChars = DefaultKeepTailChars
	}
	return c
}

// CompactToolResults rewrites long/duplicate tool-result messages in place,
// returning a new slice (inputs are never mutated). Two passes run:
// duplicate detection (an identical result body seen earlier is replaced
// with a pointer back to the first occurrence) and oversized-result
// squeezing (head/tail kept, middle elided).
func CompactToolResults(messages []*schema.Message, cfg RollingConfig) []*schema.Message {
	cfg = cfg.withDefaults()
	seen := map[string]int{} // content -> first occurrence index

	out := make([]*schema.Message, len(messages))
	for i, m := range messages {
		if m.Role != schema.Tool || strings.Contains(m.Content, compactedSentinel) {
			out[i] = m
			continue
		}

		if firstIdx, ok := seen[m.Content]; ok {
			out[i] = dedupMessage(m, firstIdx)
			continue
		}
		seen[m.Content] = i

		if len(m.Content) > cfg.MaxResultChars {
			out[i] = squeezeMessage(m, cfg)
			continue
		}

		out[i] = m
	}
	return out
}

func dedupMessage(m *schema.Message, firstIdx int) *schema.Message {
	clone := *m
	clone.Content = fmt.Sprintf("%s identical to tool result at message #%d (%d bytes omitted)",
		compactedSentinel, firstIdx, len(m.Content))
	return &clone
}

func squeezeMessage(m *schema.Message, cfg RollingConfig) *schema.Message {
	content := m.Content
	head := content[:min(cfg.KeepHeadChars, len(content))]
	tailStart := len(content) - cfg.KeepTailChars
	if tailStart < len(head) {
		tailStart = len(head)
	}
	tail := content[tailStart:]
	omitted := len(content) - len(head) - len(tail)

	clone := *m
	clone.Content = fmt.Sprintf("%s\n%s\n... [%d bytes omitted] ...\n%s", compactedSentinel, head, omitted, tail)
	return &clone
}
