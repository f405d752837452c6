package anton

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/anton-run/anton/internal/agentsession"
)

// discoveryPayload is the structured result the discovery prompt demands.
type discoveryPayload struct {
	Status   string `json:"status"`
	Filename string `json:"filename"`
}

var jsonObjectRe = regexp.MustCompile(`(?s)\{.*\}`)

func parseDiscoveryJSON(text string) (discoveryPayload, bool) {
	var p discoveryPayload
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &p); err == nil && p.Status != "" {
		return p, true
	}
	if m := jsonObjectRe.FindString(text); m != "" {
		if err := json.Unmarshal([]byte(m), &p); err == nil && p.Status != "" {
			return p, true
		}
	}
	return discoveryPayload{}, false
}

const discoveryPromptTemplate = `Determine whether the following task is already fully implemented in the current working tree.

Task: %s

Respond with exactly one JSON object: {"status": "complete"|"incomplete", "filename": "<plan file path under %s>"}.
If incomplete, write a plan file at that path describing the implementation steps before responding.`

const forceDecisionPrompt = `Your previous response could not be parsed. Respond with exactly one JSON object of the form {"status": "complete"|"incomplete", "filename": "..."} and nothing else.`

const rewritePlanPrompt = `The plan file you named does not exist or is empty. Write a non-empty plan file at the path you named, then respond again with the same JSON object.`

// PreflightResult is what the discovery/review pipeline hands back to the
// controller for one task.
type PreflightResult struct {
	AlreadyComplete bool
	PlanFilename    string
	Records         []PreflightRecord
}

// RunPreflight drives the discovery stage for one task, following the
// recovery ladder in spec §4.2.2; there is no requirements-review stage.
// session is a per-task preflight session that the controller creates
// before the call and closes when preflight finishes.
func RunPreflight(ctx context.Context, session agentsession.Session, taskKey, taskText, agentsTasksDir string, maxRetries int) (PreflightResult, error) {
	result := PreflightResult{}
	start := time.Now()

	prompt := fmt.Sprintf(discoveryPromptTemplate, taskText, agentsTasksDir)

	var payload discoveryPayload
	ok := false
	toolCallsSeen := 0

	for attempt := 0; attempt <= maxRetries; attempt++ {
		askRes, err := session.Ask(ctx, prompt, agentsession.Hooks{})
		if err != nil {
			return result, fmt.Errorf("preflight discovery ask: %w", err)
		}
		toolCallsSeen = askRes.ToolCalls

		payload, ok = parseDiscoveryJSON(askRes.Text)
		if ok {
			break
		}
		prompt = forceDecisionPrompt
	}

	if !ok {
		return bootstrapFallback(taskKey, taskText, agentsTasksDir, start)
	}

	if payload.Status == "complete" {
		result.AlreadyComplete = true
		result.Records = append(result.Records, PreflightRecord{
			TaskKey: taskKey, Stage: StageDiscovery, Status: PreflightComplete,
			Duration: time.Since(start),
		})
		return result, nil
	}

	if payload.Filename == "" {
		return bootstrapFallback(taskKey, taskText, agentsTasksDir, start)
	}

	planPath := resolvePlanPath(agentsTasksDir, payload.Filename)

	if toolCallsSeen == 0 {
		// Claimed a filename but made no tool calls: almost certainly didn't
		// actually write the file. Give one explicit rewrite instruction.
		askRes, err := session.Ask(ctx, rewritePlanPrompt, agentsession.Hooks{})
		if err == nil {
			if p, ok2 := parseDiscoveryJSON(askRes.Text); ok2 && p.Filename != "" {
				planPath = resolvePlanPath(agentsTasksDir, p.Filename)
			}
		}
	}

	if !validPlanFile(planPath) {
		askRes, err := session.Ask(ctx, rewritePlanPrompt, agentsession.Hooks{})
		if err == nil {
			if p, ok2 := parseDiscoveryJSON(askRes.Text); ok2 && p.Filename != "" {
				planPath = resolvePlanPath(agentsTasksDir, p.Filename)
			}
		}
	}

	if !validPlanFile(planPath) {
		return bootstrapFallback(taskKey, taskText, agentsTasksDir, start)
	}

	result.PlanFilename = planPath
	result.Records = append(result.Records, PreflightRecord{
		TaskKey: taskKey, Stage: StageDiscovery, Status: PreflightIncomplete,
		PlanFilename: planPath, Duration: time.Since(start),
	})
	return result, nil
}

func bootstrapFallback(taskKey, taskText, agentsTasksDir string, start time.Time) (PreflightResult, error) {
	filename, err := bootstrapFallbackPlan(agentsTasksDir, taskKey, taskText)
	if err != nil {
		return PreflightResult{}, fmt.Errorf("bootstrap fallback plan: %w", err)
	}
	return PreflightResult{
		PlanFilename: filename,
		Records: []PreflightRecord{{
			TaskKey: taskKey, Stage: StageDiscovery, Status: PreflightError,
			PlanFilename: filename, Duration: time.Since(start),
		}},
	}, nil
}

// bootstrapFallbackPlan writes a minimal plan file containing the task text
// when preflight cannot produce one, so implementation can still proceed.
func bootstrapFallbackPlan(agentsTasksDir, taskKey, taskText string) (string, error) {
	dir := filepath.Join(agentsTasksDir, sanitizeDirName(taskKey))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	filename := filepath.Join(dir, fmt.Sprintf("%s.md", uuid.NewString()[:8]))
	content := fmt.Sprintf("# Fallback plan\n\n%s\n", taskText)
	if err := os.WriteFile(filename, []byte(content), 0o644); err != nil {
		return "", err
	}
	return filename, nil
}

func resolvePlanPath(agentsTasksDir, filename string) string {
	if filepath.IsAbs(filename) {
		return filename
	}
	if strings.HasPrefix(filename, agentsTasksDir) {
		return filename
	}
	return filepath.Join(agentsTasksDir, filename)
}

func validPlanFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() || info.Size() == 0 {
		return false
	}
	return true
}

var nonAlnumRe = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

func sanitizeDirName(s string) string {
	return nonAlnumRe.ReplaceAllString(s, "-")
}
