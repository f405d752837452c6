package agentsession

import "testing"

func TestParseContractDone(t *testing.T) {
	text := "I finished the task.\n\n<anton-result>\nstatus: done\nreason: added the missing handler\n</anton-result>"
	c, ok := ParseContract(text)
	if !ok {
		t.Fatal("expected contract to parse")
	}
	if c.Status != StatusDone {
		t.Fatalf("expected done, got %q", c.Status)
	}
	if c.Reason != "added the missing handler" {
		t.Fatalf("unexpected reason: %q", c.Reason)
	}
}

func TestParseContractDecomposeWithSubtasks(t *testing.T) {
	text := `<anton-result>
status: decompose
reason: too large for one attempt
subtasks:
- implement parser
- implement mutator
</anton-result>`
	c, ok := ParseContract(text)
	if !ok {
		t.Fatal("expected contract to parse")
	}
	if c.Status != StatusDecompose {
		t.Fatalf("expected decompose, got %q", c.Status)
	}
	if len(c.Subtasks) != 2 || c.Subtasks[0] != "implement parser" {
		t.Fatalf("unexpected subtasks: %v", c.Subtasks)
	}
}

func TestParseContractMissingBlock(t *testing.T) {
	_, ok := ParseContract("I did the thing, no block here.")
	if ok {
		t.Fatal("expected no contract")
	}
}

func TestParseContractUnknownStatus(t *testing.T) {
	text := "<anton-result>\nstatus: maybe\n</anton-result>"
	_, ok := ParseContract(text)
	if ok {
		t.Fatal("expected unknown status to fail parsing")
	}
}

func TestParseContractUsesLastBlock(t *testing.T) {
	text := "<anton-result>\nstatus: failed\n</anton-result>\nActually wait.\n<anton-result>\nstatus: done\n</anton-result>"
	c, ok := ParseContract(text)
	if !ok || c.Status != StatusDone {
		t.Fatalf("expected the last block to win, got %+v ok=%v", c, ok)
	}
}

func TestInjectContractInstructionsIdempotent(t *testing.T) {
	base := "You are a helpful agent."
	once := InjectContractInstructions(base)
	twice := InjectContractInstructions(once)
	if once != twice {
		t.Fatal("expected injection to be idempotent")
	}
}
