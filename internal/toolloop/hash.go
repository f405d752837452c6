// Package toolloop detects runaway tool-call repetition within a single
// agent attempt: the same call (or a short alternating cycle of calls)
// issued over and over without the underlying task state changing.
package toolloop

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
)

// Call is one observed tool invocation, reduced to the fields that matter
// for loop detection — the tool name and its arguments. The result is
// deliberately excluded from the signature: a call that keeps failing with
// the same error is still the same call.
type Call struct {
	Name string
	Args map[string]any
}

// Signature returns a stable content hash for a call, identical across two
// calls with the same name and arguments regardless of Go map iteration
// order or key ordering in whatever produced Args.
func Signature(c Call) string {
	canon := canonicalize(c.Args)
	data, err := json.Marshal(struct {
		Name string `json:"name"`
		Args any    `json:"args"`
	}{Name: c.Name, Args: canon})
	if err != nil {
		// Marshal only fails on unsupported types (channels, funcs); tool
		// arguments are always JSON-serializable, so fall back to the name
		// alone rather than panicking a control loop over malformed input.
		data = []byte(c.Name)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// canonicalize produces a value with deterministic key ordering for maps so
// that json.Marshal emits the same bytes regardless of insertion order.
// encoding/json already sorts map[string]any keys, so this mainly documents
// the invariant and recurses into nested maps/slices defensively.
func canonicalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			out[k] = canonicalize(val[k])
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = canonicalize(e)
		}
		return out
	default:
		return val
	}
}
