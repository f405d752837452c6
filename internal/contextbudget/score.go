package contextbudget

import (
	"strings"

	"github.com/cloudwego/eino/schema"
)

// Importance is a 0-180 score: higher means "compress or drop this last".
// The rubric mirrors the preservation instructions Anton's own
// summarization prompt gives an LLM ("preserve key decisions, technical
// details, file paths, task state, user preferences") but applies them
// mechanically so compaction decisions don't depend on a model call.
type Importance int

const (
	maxImportance = 180

	baseSystem    = 150
	baseUser      = 60
	baseAssistant = 40
	baseTool      = 20

	recencyBonusMax = 40

	bonusToolCall      = 15
	bonusFilePath      = 10
	bonusErrorOrFail   = 12
	bonusDecisionWord  = 10
	bonusShortAck      = -20
)

var decisionWords = []string{
	"decided", "decision", "will use", "instead of", "chose", "plan:",
	"approach:", "because",
}

var filePathHint = []string{"/", ".go", ".md", ".json", ".yaml", ".yml", ".ts", ".py"}

// Score computes the importance of message at position i among total
// messages, where position 0 is the oldest. Messages closer to the end of
// the conversation get a recency bonus since they're most likely to still
// be relevant to what the agent is doing right now.
func Score(msg *schema.Message, i, total int) Importance {
	score := 0

	switch msg.Role {
	case schema.System:
		score = baseSystem
	case schema.User:
		score = baseUser
	case schema.Assistant:
		score = baseAssistant
	case schema.Tool:
		score = baseTool
	default:
		score = baseTool
	}

	if total > 1 {
		recency := float64(i) / float64(total-1)
		score += int(recency * recencyBonusMax)
	}

	if len(msg.ToolCalls) > 0 {
		score += bonusToolCall
	}

	lower := strings.ToLower(msg.Content)

	for _, hint := range filePathHint {
		if strings.Contains(msg.Content, hint) {
			score += bonusFilePath
			break
		}
	}

	if strings.Contains(lower, "error") || strings.Contains(lower, "fail") || strings.Contains(lower, "panic") {
		score += bonusErrorOrFail
	}

	for _, w := range decisionWords {
		if strings.Contains(lower, w) {
			score += bonusDecisionWord
			break
		}
	}

	if len(strings.TrimSpace(msg.Content)) < 12 && len(msg.ToolCalls) == 0 {
		score += bonusShortAck
	}

	if score > maxImportance {
		score = maxImportance
	}
	if score < 0 {
		score = 0
	}
	return Importance(score)
}
