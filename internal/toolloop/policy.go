package toolloop

// Config tunes how aggressively the detector flags a tool-call stream as
// looping. The identical-repeat and ping-pong checks count within the
// trailing Window calls, so a loop that happened early and then genuinely
// recovered doesn't keep tripping them; the global circuit breaker counts
// over the whole attempt, and the no-progress poll check counts consecutive
// calls.
type Config struct {
	// Window is how many recent calls the detectors consider. Zero uses
	// DefaultWindow.
	Window int

	// GlobalCircuitBreakerThreshold trips the circuit breaker once a single
	// call signature has recurred this many times across the whole attempt
	// — not just within Window, the scope checkIdenticalRepeat uses. It is
	// the same shape as checkIdenticalRepeat but unbounded in time and set
	// higher, so it only fires on repetition checkIdenticalRepeat's window
	// was too short to catch. Zero uses DefaultGlobalCircuitBreakerThreshold.
	GlobalCircuitBreakerThreshold int

	// IdenticalRepeatThreshold is how many times the exact same
	// (name, args) signature may recur inside Window before it's flagged.
	// Zero uses DefaultIdenticalRepeatThreshold.
	IdenticalRepeatThreshold int

	// PingPongCycles is how many full A,B,A,B alternations between two
	// distinct signatures trigger the ping-pong detector. Zero uses
	// DefaultPingPongCycles.
	PingPongCycles int

	// PollTools names tools whose repeated use is expected (status checks,
	// directory listings) and should only be flagged when it produces no
	// new information — the caller reports that via Observe's progressed
	// argument rather than the detector inferring it from arguments alone.
	PollTools map[string]bool

	// PollMaxNoProgress is how many consecutive no-progress calls to a
	// poll tool are tolerated before flagging. Zero uses
	// DefaultPollMaxNoProgress.
	PollMaxNoProgress int
}

const (
	DefaultWindow                   = 20
	DefaultIdenticalRepeatThreshold = 4
	// DefaultGlobalCircuitBreakerThreshold is DefaultIdenticalRepeatThreshold
	// plus two: the circuit breaker is the same shape as the windowed
	// identical-repeat check, just scoped to the whole attempt and tripped
	// two calls later so it only catches what the window missed.
	DefaultGlobalCircuitBreakerThreshold = DefaultIdenticalRepeatThreshold + 2
	DefaultPingPongCycles                = 3
	DefaultPollMaxNoProgress             = 6
)

func (c Config) withDefaults() Config {
	if c.Window <= 0 {
		c.Window = DefaultWindow
	}
	if c.IdenticalRepeatThreshold <= 0 {
		c.IdenticalRepeatThreshold = DefaultIdenticalRepeatThreshold
	}
	if c.GlobalCircuitBreakerThreshold <= 0 {
		c.GlobalCircuitBreakerThreshold = c.IdenticalRepeatThreshold + 2
	}
	if c.PingPongCycles <= 0 {
		c.PingPongCycles = DefaultPingPongCycles
	}
	if c.PollMaxNoProgress <= 0 {
		c.PollMaxNoProgress = DefaultPollMaxNoProgress
	}
	if c.PollTools == nil {
		c.PollTools = map[string]bool{}
	}
	return c
}
