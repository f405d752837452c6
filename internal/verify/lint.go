package verify

import (
	"regexp"
	"sync"
)

var lintErrorLineRe = regexp.MustCompile(`(?im)^.*\berror\b.*$`)

// CountLintErrors returns the number of lines in lint output that look
// like error-level findings (as opposed to warnings).
func CountLintErrors(output string) int {
	return len(lintErrorLineRe.FindAllString(output, -1))
}

// LintBaseline freezes the lint error count passed to its first Observe
// call, which is the Verifier's first lint run (after the first attempt's
// edits, whether or not the other L1 gates pass), so only errors beyond
// that count are "new" failures. Open Question decision (see DESIGN.md): when no
// stable baseline has been recorded yet, the current output itself
// becomes the baseline rather than failing the gate.
type LintBaseline struct {
	mu     sync.Mutex
	frozen bool
	count  int
}

// Observe records output as the baseline if none has been frozen yet, and
// returns the number of errors beyond the baseline ("new" errors).
func (b *LintBaseline) Observe(output string) (newErrors int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	current := CountLintErrors(output)
	if !b.frozen {
		b.count = current
		b.frozen = true
		return 0
	}
	if current > b.count {
		return current - b.count
	}
	return 0
}

// Reset clears the frozen baseline, e.g. when starting a new run.
func (b *LintBaseline) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frozen = false
	b.count = 0
}
