package toolloop

import "fmt"

// Kind identifies which detector produced a Verdict, so callers (and logs)
// can distinguish "the agent is stuck polling" from "the agent is stuck in
// a two-step cycle" — they warrant different recovery messages.
type Kind string

const (
	KindNone            Kind = ""
	KindCircuitBreaker  Kind = "circuit_breaker"
	KindNoProgressPoll  Kind = "no_progress_poll"
	KindPingPong        Kind = "ping_pong"
	KindIdenticalRepeat Kind = "identical_repeat"
)

// Verdict is what a detector concluded after observing a call.
type Verdict struct {
	Kind    Kind
	Tripped bool
	Reason  string
}

// Detector tracks tool-call signatures across an attempt and flags the four
// repetition patterns a runaway agent tends to fall into.
type Detector struct {
	cfg Config
	hist *history

	consecutiveNoProgress map[string]int
	lastSignature         string
}

// New creates a Detector with the given configuration. A zero-value Config
// is valid and uses the package defaults.
func New(cfg Config) *Detector {
	cfg = cfg.withDefaults()
	return &Detector{
		cfg:                   cfg,
		hist:                  newHistory(cfg.Window),
		consecutiveNoProgress: make(map[string]int),
	}
}

// Observe records a tool call and returns the first tripped verdict, in
// priority order: circuit breaker, identical repeat, ping-pong, no-progress
// poll. progressed should be true when the caller can tell the tool
// produced new information (e.g. a file listing changed since last call);
// pass true when that signal isn't available, since the poll detector is
// the only one that depends on it.
func (d *Detector) Observe(call Call, progressed bool) Verdict {
	sig := Signature(call)
	d.hist.push(call.Name, sig)

	if v := d.checkCircuitBreaker(); v.Tripped {
		return v
	}
	if v := d.checkIdenticalRepeat(sig); v.Tripped {
		return v
	}
	if v := d.checkPingPong(); v.Tripped {
		return v
	}
	if v := d.checkNoProgressPoll(call.Name, progressed); v.Tripped {
		return v
	}

	d.lastSignature = sig
	return Verdict{Kind: KindNone}
}

// checkCircuitBreaker is the global backstop above checkIdenticalRepeat: it
// counts a signature's repeats across the whole attempt, not just the
// trailing Window, and trips at a higher threshold. A signature that
// persists long enough to outlast the window but never quite hits the
// windowed repeat threshold on any single pass still gets caught here.
func (d *Detector) checkCircuitBreaker() Verdict {
	sig, count := d.hist.maxLifetimeRepeat()
	if count >= d.cfg.GlobalCircuitBreakerThreshold {
		return Verdict{
			Kind:    KindCircuitBreaker,
			Tripped: true,
			Reason:  fmt.Sprintf("tool call signature %s repeated %d times over the life of the attempt, exceeding the global circuit breaker threshold of %d", sig[:12], count, d.cfg.GlobalCircuitBreakerThreshold),
		}
	}
	return Verdict{}
}

func (d *Detector) checkIdenticalRepeat(sig string) Verdict {
	if count := d.hist.freq[sig]; count >= d.cfg.IdenticalRepeatThreshold {
		return Verdict{
			Kind:    KindIdenticalRepeat,
			Tripped: true,
			Reason:  fmt.Sprintf("identical tool call repeated %d times within the last %d calls", count, d.cfg.Window),
		}
	}
	return Verdict{}
}

// checkPingPong looks for an A,B,A,B,... alternation of exactly two
// distinct signatures spanning at least cfg.PingPongCycles full cycles.
func (d *Detector) checkPingPong() Verdict {
	need := d.cfg.PingPongCycles * 2
	tail := d.hist.tail(need)
	if len(tail) < need {
		return Verdict{}
	}

	a, b := tail[0], tail[1]
	if a == b {
		return Verdict{}
	}
	for i, s := range tail {
		want := a
		if i%2 == 1 {
			want = b
		}
		if s != want {
			return Verdict{}
		}
	}
	return Verdict{
		Kind:    KindPingPong,
		Tripped: true,
		Reason:  fmt.Sprintf("two calls alternating for %d cycles with no other activity", d.cfg.PingPongCycles),
	}
}

func (d *Detector) checkNoProgressPoll(toolName string, progressed bool) Verdict {
	if !d.cfg.PollTools[toolName] {
		return Verdict{}
	}
	if progressed {
		d.consecutiveNoProgress[toolName] = 0
		return Verdict{}
	}
	d.consecutiveNoProgress[toolName]++
	if d.consecutiveNoProgress[toolName] >= d.cfg.PollMaxNoProgress {
		return Verdict{
			Kind:    KindNoProgressPoll,
			Tripped: true,
			Reason:  fmt.Sprintf("polling tool %q called %d times with no new information", toolName, d.consecutiveNoProgress[toolName]),
		}
	}
	return Verdict{}
}

// Reset clears all accumulated state, used when a new attempt starts and
// the previous attempt's call history should not bleed into the next.
func (d *Detector) Reset() {
	d.hist = newHistory(d.cfg.Window)
	d.consecutiveNoProgress = make(map[string]int)
	d.lastSignature = ""
}
