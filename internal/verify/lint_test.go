package verify

import "testing"

func TestLintBaselineFreezesFirstObservation(t *testing.T) {
	b := &LintBaseline{}

	output1 := "file.go:1: error: unused variable\nfile.go:2: error: undefined foo"
	if n := b.Observe(output1); n != 0 {
		t.Fatalf("expected 0 new errors on first observation, got %d", n)
	}

	if n := b.Observe(output1); n != 0 {
		t.Fatalf("expected 0 new errors when unchanged, got %d", n)
	}

	output2 := output1 + "\nfile.go:3: error: new problem"
	if n := b.Observe(output2); n != 1 {
		t.Fatalf("expected 1 new error, got %d", n)
	}
}

func TestLintBaselineReset(t *testing.T) {
	b := &LintBaseline{}
	b.Observe("file.go:1: error: a\nfile.go:2: error: b")
	b.Reset()
	if n := b.Observe("file.go:1: error: a"); n != 0 {
		t.Fatalf("expected fresh baseline after reset, got %d new", n)
	}
}

func TestCountLintErrors(t *testing.T) {
	out := "a.go:1: error: bad\nb.go:2: warning: ignore\nc.go:3: error: also bad"
	if got := CountLintErrors(out); got != 2 {
		t.Fatalf("expected 2, got %d", got)
	}
}
