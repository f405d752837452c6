package anton

import (
	"fmt"
	"regexp"
	"strings"
)

const minPlanSteps = 2

var numberedItemRe = regexp.MustCompile(`(?m)^(\d+)[.)]\s+(.+)`)
var headerStepRe = regexp.MustCompile(`(?m)^###\s+(?:Step\s+)?(\d+)[.:]?\s*(.+)`)

// PlanStep is one extracted step of a discovery-stage plan file.
type PlanStep struct {
	Title       string
	Description string
}

// ParsePlanSteps extracts a structured step list from a plan file's
// markdown content, for summarizing the plan into the attempt prompt.
// Returns nil when fewer than minPlanSteps recognizable steps are found,
// in which case callers should fall back to inlining the raw plan text.
func ParsePlanSteps(markdown string) []PlanStep {
	if steps := parseHeaderSteps(markdown); steps != nil {
		return steps
	}
	return parseNumberedSteps(markdown)
}

func parseHeaderSteps(markdown string) []PlanStep {
	matches := headerStepRe.FindAllStringSubmatchIndex(markdown, -1)
	if len(matches) < minPlanSteps {
		return nil
	}
	return extractSteps(markdown, matches)
}

func parseNumberedSteps(markdown string) []PlanStep {
	matches := numberedItemRe.FindAllStringSubmatchIndex(markdown, -1)
	if len(matches) < minPlanSteps {
		return nil
	}
	return extractSteps(markdown, matches)
}

func extractSteps(markdown string, matches [][]int) []PlanStep {
	steps := make([]PlanStep, 0, len(matches))
	for i, m := range matches {
		title := strings.TrimSpace(markdown[m[4]:m[5]])
		descStart := m[1]
		descEnd := len(markdown)
		if i+1 < len(matches) {
			descEnd = matches[i+1][0]
		}
		desc := strings.TrimSpace(markdown[descStart:descEnd])
		steps = append(steps, PlanStep{Title: title, Description: desc})
	}
	return steps
}

// FormatPlanSummary renders extracted steps (or, if none were recognized,
// the raw plan content) as a short block for inclusion in a prompt.
func FormatPlanSummary(planContent string) string {
	steps := ParsePlanSteps(planContent)
	if len(steps) == 0 {
		return planContent
	}
	var b strings.Builder
	for i, s := range steps {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s.Title)
	}
	return b.String()
}
