package anton

import "testing"

func TestParsePlanStepsNumbered(t *testing.T) {
	md := "1. Add parser\nSome detail.\n2. Wire controller\nMore detail.\n"
	steps := ParsePlanSteps(md)
	if len(steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(steps))
	}
	if steps[0].Title != "Add parser" {
		t.Fatalf("unexpected title: %q", steps[0].Title)
	}
}

func TestParsePlanStepsHeaders(t *testing.T) {
	md := "### Step 1: Add parser\ndetail one\n### Step 2: Wire controller\ndetail two\n"
	steps := ParsePlanSteps(md)
	if len(steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(steps))
	}
	if steps[1].Title != "Wire controller" {
		t.Fatalf("unexpected title: %q", steps[1].Title)
	}
}

func TestParsePlanStepsTooFew(t *testing.T) {
	md := "Just a single paragraph with no structure."
	if steps := ParsePlanSteps(md); steps != nil {
		t.Fatalf("expected nil for unstructured content, got %v", steps)
	}
}

func TestFormatPlanSummaryFallsBackToRawContent(t *testing.T) {
	md := "no structure here"
	if got := FormatPlanSummary(md); got != md {
		t.Fatalf("expected raw content passthrough, got %q", got)
	}
}

func TestFormatPlanSummaryNumbersSteps(t *testing.T) {
	md := "### Step 1: First\nbody\n### Step 2: Second\nbody\n"
	got := FormatPlanSummary(md)
	if got != "1. First\n2. Second\n" {
		t.Fatalf("unexpected summary: %q", got)
	}
}
