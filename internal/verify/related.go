package verify

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// RelatedFileMatcher decides which of candidatePaths are plausibly related
// to taskText, for the scope-guard heuristic used when assembling retry
// context (Open Question, spec §9 — resolved as a pluggable field on
// Config rather than a fixed rule, see DESIGN.md).
type RelatedFileMatcher func(taskText string, candidatePaths []string) []string

// DefaultRelatedFileMatcher matches candidates whose path contains a
// keyword extracted from taskText, or whose path matches a glob pattern
// that appears literally in taskText (e.g. "update internal/**/*.go").
func DefaultRelatedFileMatcher(taskText string, candidatePaths []string) []string {
	keywords := extractKeywords(taskText)
	globs := extractGlobs(taskText)

	var out []string
	for _, path := range candidatePaths {
		if matchesKeyword(path, keywords) || matchesGlob(path, globs) {
			out = append(out, path)
		}
	}
	return out
}

func extractKeywords(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_' || r == '/' || r == '.' || r == '-')
	})
	var out []string
	for _, f := range fields {
		if len(f) >= 4 {
			out = append(out, f)
		}
	}
	return out
}

func extractGlobs(text string) []string {
	var out []string
	for _, word := range strings.Fields(text) {
		if strings.Contains(word, "*") || strings.Contains(word, "/") {
			out = append(out, strings.Trim(word, ".,;:()"))
		}
	}
	return out
}

func matchesKeyword(path string, keywords []string) bool {
	lower := strings.ToLower(path)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func matchesGlob(path string, globs []string) bool {
	for _, g := range globs {
		if ok, err := doublestar.Match(g, path); err == nil && ok {
			return true
		}
	}
	return false
}
