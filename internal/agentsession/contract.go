package agentsession

import (
	"regexp"
	"strings"
)

// ContractStatus is the status reported inside an <anton-result> block.
type ContractStatus string

const (
	StatusDone      ContractStatus = "done"
	StatusFailed    ContractStatus = "failed"
	StatusBlocked   ContractStatus = "blocked"
	StatusDecompose ContractStatus = "decompose"
)

// Contract is the parsed content of one <anton-result> block.
type Contract struct {
	Status   ContractStatus
	Reason   string
	Subtasks []string
}

var contractBlockRe = regexp.MustCompile(`(?s)<anton-result>\s*(.*?)\s*</anton-result>`)
var statusLineRe = regexp.MustCompile(`(?m)^\s*status:\s*(\S+)\s*$`)
var reasonLineRe = regexp.MustCompile(`(?m)^\s*reason:\s*(.+)$`)
var subtaskLineRe = regexp.MustCompile(`(?m)^\s*-\s+(.+)$`)

// ContractInstructions is the fixed text injected into a session's system
// prompt so the agent knows to emit the output contract.
const ContractInstructions = `
## Output Contract

Every final answer for a task must end with exactly one block of this form:

<anton-result>
status: done|failed|blocked|decompose
reason: <optional one line>
subtasks:
- <only when status=decompose>
</anton-result>
`

// ParseContract extracts the last <anton-result> block from text. It
// returns ok=false when no block is found or the status line is missing
// or unrecognized.
func ParseContract(text string) (Contract, bool) {
	matches := contractBlockRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return Contract{}, false
	}
	body := matches[len(matches)-1][1]

	statusMatch := statusLineRe.FindStringSubmatch(body)
	if statusMatch == nil {
		return Contract{}, false
	}
	status := ContractStatus(strings.ToLower(strings.TrimSpace(statusMatch[1])))
	switch status {
	case StatusDone, StatusFailed, StatusBlocked, StatusDecompose:
	default:
		return Contract{}, false
	}

	c := Contract{Status: status}
	if m := reasonLineRe.FindStringSubmatch(body); m != nil {
		c.Reason = strings.TrimSpace(m[1])
	}

	if subtasksIdx := strings.Index(body, "subtasks:"); subtasksIdx >= 0 {
		tail := body[subtasksIdx+len("subtasks:"):]
		for _, m := range subtaskLineRe.FindAllStringSubmatch(tail, -1) {
			item := strings.TrimSpace(m[1])
			if item != "" {
				c.Subtasks = append(c.Subtasks, item)
			}
		}
	}

	return c, true
}

// InjectContractInstructions appends the output contract to a system
// prompt, unless it is already present (idempotent across retries).
func InjectContractInstructions(systemPrompt string) string {
	if strings.Contains(systemPrompt, "<anton-result>") {
		return systemPrompt
	}
	return strings.TrimRight(systemPrompt, "\n") + "\n" + ContractInstructions
}
