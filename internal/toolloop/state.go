package toolloop

// history is a fixed-capacity ring buffer of recent call signatures, plus a
// running frequency count used by the generic-repeat detector without
// rescanning the buffer on every call.
type history struct {
	sigs     []string
	cap      int
	freq     map[string]int
	toolFreq map[string]int

	// lifetimeFreq counts each signature's occurrences across the whole
	// attempt, never evicted — the circuit breaker needs a signature's true
	// lifetime repeat count, not just how often it shows up in the trailing
	// Window the other detectors use.
	lifetimeFreq map[string]int
}

func newHistory(cap int) *history {
	if cap <= 0 {
		cap = 50
	}
	return &history{
		cap:          cap,
		freq:         make(map[string]int),
		toolFreq:     make(map[string]int),
		lifetimeFreq: make(map[string]int),
	}
}

// push appends a new call and evicts the oldest entry once the buffer is
// full, keeping the frequency maps in sync with what's still in the window.
func (h *history) push(toolName, sig string) {
	h.sigs = append(h.sigs, sig)
	h.freq[sig]++
	h.toolFreq[toolName]++
	h.lifetimeFreq[sig]++

	if len(h.sigs) > h.cap {
		evicted := h.sigs[0]
		h.sigs = h.sigs[1:]
		h.freq[evicted]--
		if h.freq[evicted] <= 0 {
			delete(h.freq, evicted)
		}
	}
}

// maxLifetimeRepeat returns the highest lifetime occurrence count among all
// signatures observed so far, the value the circuit breaker compares
// against its threshold.
func (h *history) maxLifetimeRepeat() (sig string, count int) {
	for s, n := range h.lifetimeFreq {
		if n > count {
			sig, count = s, n
		}
	}
	return sig, count
}

// tail returns the n most recent signatures, oldest first, for window-based
// pattern checks like ping-pong detection.
func (h *history) tail(n int) []string {
	if n > len(h.sigs) {
		n = len(h.sigs)
	}
	return h.sigs[len(h.sigs)-n:]
}

func (h *history) total() int {
	return len(h.sigs)
}
