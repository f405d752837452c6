package contextbudget

import (
	"regexp"
	"strings"

	"github.com/cloudwego/eino/schema"
)

// filePathRe pulls out path-shaped tokens from free text: a run of
// non-whitespace containing at least one slash or a known extension.
var filePathRe = regexp.MustCompile(`[^\s"'` + "`" + `]+\.(go|ts|tsx|js|py|md|json|yaml|yml|sql)\b|(?:[\w.-]+/)+[\w.-]+`)

// KeyFacts are details extracted from messages being summarized away that
// must survive compaction verbatim rather than through a lossy LLM
// rewrite: file paths the agent has already touched, and sentences that
// read as an explicit decision.
type KeyFacts struct {
	FilePaths []string
	Decisions []string
}

// Extract scans a run of messages slated for summarization and pulls out
// the facts worth preserving verbatim.
func Extract(messages []*schema.Message) KeyFacts {
	seenPaths := map[string]bool{}
	var facts KeyFacts

	for _, m := range messages {
		for _, p := range filePathRe.FindAllString(m.Content, -1) {
			if !seenPaths[p] {
				seenPaths[p] = true
				facts.FilePaths = append(facts.FilePaths, p)
			}
		}
		for _, sentence := range splitSentences(m.Content) {
			lower := strings.ToLower(sentence)
			for _, w := range decisionWords {
				if strings.Contains(lower, w) {
					facts.Decisions = append(facts.Decisions, strings.TrimSpace(sentence))
					break
				}
			}
		}
	}

	return facts
}

func splitSentences(text string) []string {
	raw := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '\n'
	})
	var out []string
	for _, s := range raw {
		if trimmed := strings.TrimSpace(s); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// Render formats extracted facts as a short block that is appended after a
// compaction summary, so they read naturally alongside it instead of
// looking like a separate machine-generated appendix.
func (f KeyFacts) Render() string {
	if len(f.FilePaths) == 0 && len(f.Decisions) == 0 {
		return ""
	}
	var sb strings.Builder
	if len(f.FilePaths) > 0 {
		sb.WriteString("Files touched: ")
		sb.WriteString(strings.Join(f.FilePaths, ", "))
		sb.WriteString("\n")
	}
	if len(f.Decisions) > 0 {
		sb.WriteString("Decisions made:\n")
		for _, d := range f.Decisions {
			sb.WriteString("- ")
			sb.WriteString(d)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
