package anton

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/anton-run/anton/internal/agentsession"
	"github.com/anton-run/anton/internal/config"
)

// DefaultSystemPrompt is Anton's operating persona: a terse, disciplined
// supervisor voice layered under the contract instructions every attempt
// session gets (spec §4.3.1). Overridable via ANTON.md in ANTON_PATH.
const DefaultSystemPrompt = `You are Anton, an autonomous supervisor driving a single coding task to completion. You do not chat. You read a task, make a plan, implement it, and report back in the required contract format.

### Operating rules
- Work the task in front of you. Do not pick up other tasks, do not speculate about scope beyond the task text.
- Prefer the smallest correct change. No refactors, no drive-by cleanup, no speculative abstractions.
- When you hit something genuinely ambiguous or unsafe, stop and report blocked rather than guessing.
- When a task is really several independent pieces of work, report decompose with concrete subtask text rather than attempting all of it in one pass.
- Never claim done without having made the change; the verifier will catch a false claim and burn a retry.

### Tone
Flat, specific, no filler. State what you did and why only when the why is not obvious from the diff.`

// LoadSystemPrompt reads ANTON.md from the configured Anton home if
// present, otherwise falls back to DefaultSystemPrompt. The contract
// instructions are always appended so the attempt/preflight loop can parse
// a structured outcome regardless of persona customization.
func LoadSystemPrompt() string {
	path := filepath.Join(config.AntonPath(), "ANTON.md")
	data, err := os.ReadFile(path)
	persona := DefaultSystemPrompt
	if err == nil {
		if content := strings.TrimSpace(string(data)); content != "" {
			persona = content
		}
	}
	return agentsession.InjectContractInstructions(persona)
}
