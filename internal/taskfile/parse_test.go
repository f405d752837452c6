package taskfile

import "testing"

const sample = `# Plan

- [x] set up project
- [ ] implement feature
  - [ ] write parser
  - [x] write tests
- [ ] ship it
`

func TestParseBytes(t *testing.T) {
	f := ParseBytes("plan.md", []byte(sample))

	if len(f.Tasks) != 5 {
		t.Fatalf("expected 5 tasks, got %d", len(f.Tasks))
	}

	if f.Tasks[0].Text != "set up project" || !f.Tasks[0].Done() {
		t.Errorf("task 0 mismatch: %+v", f.Tasks[0])
	}
	if f.Tasks[1].Text != "implement feature" || f.Tasks[1].Done() {
		t.Errorf("task 1 mismatch: %+v", f.Tasks[1])
	}
	if f.Tasks[2].Depth != 1 || f.Tasks[2].ParentKey != f.Tasks[1].Key {
		t.Errorf("task 2 should be a child of task 1: %+v", f.Tasks[2])
	}
}

func TestNextPending(t *testing.T) {
	f := ParseBytes("plan.md", []byte(sample))

	next, ok := f.NextPending()
	if !ok {
		t.Fatal("expected a pending leaf task")
	}
	if next.Text != "write parser" {
		t.Errorf("expected 'write parser' as next pending leaf, got %q", next.Text)
	}
}

func TestRunnablePendingExcludesSkipped(t *testing.T) {
	f := ParseBytes("plan.md", []byte(sample))

	writeParser, ok := f.NextPending()
	if !ok {
		t.Fatal("expected a pending leaf task")
	}

	runnable := f.RunnablePending(map[string]bool{writeParser.Key: true})
	for _, r := range runnable {
		if r.Key == writeParser.Key {
			t.Errorf("expected skipped task %q to be excluded from runnable list", writeParser.Key)
		}
	}
	if len(runnable) != 1 || runnable[0].Text != "ship it" {
		t.Errorf("expected only 'ship it' runnable after skipping 'write parser', got %+v", runnable)
	}

	unchanged, ok := f.ByKey(writeParser.Key)
	if !ok || unchanged.Done() {
		t.Errorf("RunnablePending must not mutate the task file; write parser should remain unchecked, got %+v", unchanged)
	}
}

func TestAllDone(t *testing.T) {
	f := ParseBytes("plan.md", []byte("- [x] a\n- [x] b\n"))
	if !f.AllDone() {
		t.Error("expected AllDone to be true")
	}

	f2 := ParseBytes("plan.md", []byte("- [x] a\n- [ ] b\n"))
	if f2.AllDone() {
		t.Error("expected AllDone to be false")
	}
}
