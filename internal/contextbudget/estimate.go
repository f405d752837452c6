// Package contextbudget keeps an Anton attempt's conversation history
// inside its model's context window: it scores messages by importance,
// groups them into semantically coherent chunks, and rolls older tool
// output through increasingly aggressive compression before falling back to
// a flat truncation.
package contextbudget

import "github.com/cloudwego/eino/schema"

// DefaultCharsPerToken is the fallback heuristic when no tokenizer is wired
// in: English-ish source and prose average under 4 characters per token.
const DefaultCharsPerToken = 4

// messageOverheadTokens approximates the per-message formatting cost (role
// marker, separators) that a raw character count misses.
const messageOverheadTokens = 4

// EstimateTokens returns a heuristic token count for a single message.
func EstimateTokens(msg *schema.Message, charsPerToken int) int {
	if charsPerToken <= 0 {
		charsPerToken = DefaultCharsPerToken
	}
	total := len(msg.Content)/charsPerToken + messageOverheadTokens
	for _, tc := range msg.ToolCalls {
		total += len(tc.Function.Arguments)/charsPerToken + messageOverheadTokens
	}
	return total
}

// EstimateTotal returns the summed heuristic token count across messages.
func EstimateTotal(messages []*schema.Message, charsPerToken int) int {
	total := 0
	for _, m := range messages {
		total += EstimateTokens(m, charsPerToken)
	}
	return total
}
