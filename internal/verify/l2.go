package verify

import (
	"encoding/json"
	"regexp"
	"strings"
)

// L2Verdict is the parsed result of an AI review response.
type L2Verdict struct {
	Pass   bool
	Reason string
}

var fencedJSONRe = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")
var bareJSONRe = regexp.MustCompile(`(?s)\{[^{}]*"pass"[^{}]*\}`)

type l2Payload struct {
	Pass   bool   `json:"pass"`
	Reason string `json:"reason"`
}

// ParseL2Response extracts {pass, reason} from an AI reviewer's free-text
// response. It tries, in order: a plain JSON object, a fenced ```json
// block, a bare JSON object embedded in prose, and finally keyword
// inference. When nothing is recognizable it defaults to pass=true,
// because L1 gates have already validated the change by the time L2 runs.
func ParseL2Response(text string) L2Verdict {
	trimmed := strings.TrimSpace(text)

	if v, ok := tryUnmarshalL2(trimmed); ok {
		return v
	}

	if m := fencedJSONRe.FindStringSubmatch(trimmed); m != nil {
		if v, ok := tryUnmarshalL2(m[1]); ok {
			return v
		}
	}

	if m := bareJSONRe.FindString(trimmed); m != "" {
		if v, ok := tryUnmarshalL2(m); ok {
			return v
		}
	}

	return inferL2FromProse(trimmed)
}

func tryUnmarshalL2(s string) (L2Verdict, bool) {
	var p l2Payload
	if err := json.Unmarshal([]byte(s), &p); err != nil {
		return L2Verdict{}, false
	}
	return L2Verdict{Pass: p.Pass, Reason: p.Reason}, true
}

var (
	proseFailRe = regexp.MustCompile(`(?i)\b(fail|failed|failing|missing implementation|not implemented|incomplete|does not work|doesn't work)\b`)
	prosePassRe = regexp.MustCompile(`(?i)\b(pass|passed|passing|looks good|correctly implement|works as expected)\b`)
)

func inferL2FromProse(text string) L2Verdict {
	if proseFailRe.MatchString(text) && !prosePassRe.MatchString(text) {
		return L2Verdict{Pass: false, Reason: firstLine(text)}
	}
	return L2Verdict{Pass: true, Reason: firstLine(text)}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}

// missingImplementationRe recognizes the specific L2 failure pattern that
// triggers file-path extraction and retry-context file injection (spec
// §4.2.4).
var missingImplementationRe = regexp.MustCompile(`(?i)(missing implementation|not implemented|no changes (?:were )?(?:made|found) (?:in|to) ([\w./-]+\.\w+)|TODO left in ([\w./-]+\.\w+))`)

// IsMissingImplementation reports whether reason matches the L2
// "missing implementation" failure pattern.
func IsMissingImplementation(reason string) bool {
	return missingImplementationRe.MatchString(reason)
}

var filePathInReasonRe = regexp.MustCompile(`\b[\w./-]+\.[a-zA-Z0-9]{1,8}\b`)

// ExtractFilePaths pulls likely file paths referenced in an L2 failure
// reason, for retry-context file injection.
func ExtractFilePaths(reason string) []string {
	matches := filePathInReasonRe.FindAllString(reason, -1)
	seen := make(map[string]bool, len(matches))
	var out []string
	for _, m := range matches {
		if seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}
