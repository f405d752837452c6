// Package verify implements the level-1 (build/test/lint) and level-2
// (AI-review) verification gates run after an agent reports a task done.
package verify

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const maxCommandOutputChars = 4000

// AskFunc spawns a distinct review session and returns its raw response
// text. The verifier never constructs an AgentSession itself — it is
// handed one capability, matching spec §4.5's "spawn a separate session
// with a distinct config" without coupling this package to agentsession.
type AskFunc func(ctx context.Context, prompt string) (string, error)

// Config configures a Verifier.
type Config struct {
	Commands           Commands
	WorkDir            string
	Timeout            time.Duration
	EnableL2           bool
	L2Ask              AskFunc
	RelatedFileMatcher RelatedFileMatcher
}

// GateResult is the outcome of a single L1 gate.
type GateResult struct {
	Ran    bool
	Passed bool
	Output string
}

// Result is the full verification record for one attempt.
type Result struct {
	Passed        bool
	Build         GateResult
	Test          GateResult
	Lint          GateResult
	L2Ran         bool
	L2Passed      bool
	L2Reason      string
	CommandOutput string
	Summary       string
}

// Verifier runs the configured gates against a working tree.
type Verifier struct {
	cfg      Config
	baseline *LintBaseline
}

// New creates a Verifier. cfg.RelatedFileMatcher defaults to
// DefaultRelatedFileMatcher when nil.
func New(cfg Config) *Verifier {
	if cfg.RelatedFileMatcher == nil {
		cfg.RelatedFileMatcher = DefaultRelatedFileMatcher
	}
	return &Verifier{cfg: cfg, baseline: &LintBaseline{}}
}

// Verify runs build, test, and lint (whichever are configured), and on L1
// pass optionally runs the L2 AI review over diff.
func (v *Verifier) Verify(ctx context.Context, taskText, diff string) (Result, error) {
	var res Result
	var outputs []string

	if v.cfg.Commands.Build != "" {
		res.Build = v.runGate(ctx, v.cfg.Commands.Build)
		if !res.Build.Passed {
			outputs = append(outputs, "build:\n"+res.Build.Output)
		}
	}
	if v.cfg.Commands.Test != "" {
		res.Test = v.runGate(ctx, v.cfg.Commands.Test)
		if !res.Test.Passed {
			outputs = append(outputs, "test:\n"+res.Test.Output)
		}
	}
	if v.cfg.Commands.Lint != "" {
		res.Lint = v.runLintGate(ctx, v.cfg.Commands.Lint)
		if !res.Lint.Passed {
			outputs = append(outputs, "lint:\n"+res.Lint.Output)
		}
	}

	l1Passed := (!res.Build.Ran || res.Build.Passed) &&
		(!res.Test.Ran || res.Test.Passed) &&
		(!res.Lint.Ran || res.Lint.Passed)

	res.CommandOutput = truncate(strings.Join(outputs, "\n\n"), maxCommandOutputChars)

	if !l1Passed {
		res.Passed = false
		res.Summary = "L1 verification failed: " + summarizeGates(res)
		return res, nil
	}

	if v.cfg.EnableL2 && v.cfg.L2Ask != nil {
		verdict, err := v.runL2(ctx, taskText, diff)
		if err != nil {
			return res, fmt.Errorf("l2 review: %w", err)
		}
		res.L2Ran = true
		res.L2Passed = verdict.Pass
		res.L2Reason = verdict.Reason
		res.Passed = verdict.Pass
		if verdict.Pass {
			res.Summary = "all gates passed"
		} else {
			res.Summary = "L2 review failed: " + verdict.Reason
		}
		return res, nil
	}

	res.Passed = true
	res.Summary = "L1 gates passed"
	return res, nil
}

func (v *Verifier) runGate(ctx context.Context, command string) GateResult {
	out, err := RunCommand(ctx, v.cfg.WorkDir, command, v.cfg.Timeout)
	if err != nil {
		return GateResult{Ran: true, Passed: false, Output: err.Error()}
	}
	if out.TimedOut {
		return GateResult{Ran: true, Passed: false, Output: "command timed out: " + command}
	}
	if out.ExitCode != 0 {
		return GateResult{Ran: true, Passed: false, Output: filterErrorsOnly(out.Combined)}
	}
	return GateResult{Ran: true, Passed: true}
}

func (v *Verifier) runLintGate(ctx context.Context, command string) GateResult {
	out, err := RunCommand(ctx, v.cfg.WorkDir, command, v.cfg.Timeout)
	if err != nil {
		return GateResult{Ran: true, Passed: false, Output: err.Error()}
	}
	if out.TimedOut {
		return GateResult{Ran: true, Passed: false, Output: "lint timed out"}
	}
	newErrors := v.baseline.Observe(out.Combined)
	if newErrors > 0 {
		return GateResult{Ran: true, Passed: false, Output: filterErrorsOnly(out.Combined)}
	}
	return GateResult{Ran: true, Passed: true}
}

func (v *Verifier) runL2(ctx context.Context, taskText, diff string) (L2Verdict, error) {
	prompt := fmt.Sprintf(
		"Review the following change against the task description. Respond with a JSON object {\"pass\": bool, \"reason\": string}.\n\nTask:\n%s\n\nDiff:\n%s",
		taskText, truncate(diff, 8000),
	)
	resp, err := v.cfg.L2Ask(ctx, prompt)
	if err != nil {
		return L2Verdict{}, err
	}
	return ParseL2Response(resp), nil
}

var warningLineSkip = []string{"warning", "warn:", "note:"}

// filterErrorsOnly strips warning-level lines from command output, keeping
// only lines that plausibly indicate a hard failure.
func filterErrorsOnly(output string) string {
	lines := strings.Split(output, "\n")
	var kept []string
	for _, line := range lines {
		lower := strings.ToLower(line)
		skip := false
		for _, w := range warningLineSkip {
			if strings.Contains(lower, w) {
				skip = true
				break
			}
		}
		if !skip {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

func summarizeGates(res Result) string {
	var parts []string
	if res.Build.Ran && !res.Build.Passed {
		parts = append(parts, "build")
	}
	if res.Test.Ran && !res.Test.Passed {
		parts = append(parts, "test")
	}
	if res.Lint.Ran && !res.Lint.Passed {
		parts = append(parts, "lint")
	}
	return strings.Join(parts, ", ")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "\n... (truncated)"
}
