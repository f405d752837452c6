package contextbudget

import (
	"fmt"

	"github.com/cloudwego/eino/schema"
)

// fallbackTruncate drops the lowest-scored chunks until the remaining
// messages fit the budget, used when the summarization call itself fails —
// mirroring the teacher's "degrade to truncation rather than block the
// attempt" behavior.
func fallbackTruncate(chunks []Chunk, charsPerToken, budgetTokens int) []*schema.Message {
	kept := make([]Chunk, len(chunks))
	copy(kept, chunks)

	for len(kept) > 1 {
		total := 0
		for _, c := range kept {
			total += EstimateTotal(c.Messages, charsPerToken)
		}
		if total <= budgetTokens {
			break
		}

		worst := 0
		for i, c := range kept[1:] {
			if c.Score < kept[worst+1].Score {
				worst = i + 1
			}
		}
		kept = append(kept[:worst], kept[worst+1:]...)
	}

	return Flatten(kept)
}

// fallbackSummaryMessage builds a placeholder summary message for when an
// LLM summarization call errors out, so the dropped chunks' key facts
// aren't silently lost even though no prose summary was produced.
func fallbackSummaryMessage(facts KeyFacts, droppedCount int) *schema.Message {
	body := fmt.Sprintf("[Context compacted without summarization: %d older messages dropped]\n", droppedCount)
	if rendered := facts.Render(); rendered != "" {
		body += "\n" + rendered
	}
	return &schema.Message{Role: schema.User, Content: body}
}
