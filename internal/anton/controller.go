// Package anton implements the run controller: the state machine that
// drives a task file through preflight, implementation, verification, and
// commit cycles under the configured retry and budget policy.
package anton

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cloudwego/eino/components/tool"

	"github.com/anton-run/anton/internal/agentsession"
	"github.com/anton-run/anton/internal/config"
	"github.com/anton-run/anton/internal/contextbudget"
	"github.com/anton-run/anton/internal/gitwrap"
	"github.com/anton-run/anton/internal/models"
	"github.com/anton-run/anton/internal/statusapi"
	"github.com/anton-run/anton/internal/taskfile"
	"github.com/anton-run/anton/internal/toolloop"
	"github.com/anton-run/anton/internal/vaultstore"
	"github.com/anton-run/anton/internal/verify"
)

// Controller drives one run of a task file to completion or a stop
// condition (spec §4.2.1). It owns the RunState exclusively; external
// readers (the status server) only ever see a snapshot.
type Controller struct {
	cfg          config.Config
	workDir      string
	taskFilePath string
	systemPrompt string
	tools        []tool.InvokableTool

	git       gitwrap.Git
	vault     vaultstore.Vault
	models    *models.Registry
	compactor *contextbudget.Compactor
	lock      *Lock

	mu       sync.Mutex
	state    *RunState
	taskFile *taskfile.TaskFile
}

// NewController wires the collaborators a run needs. tools and
// systemPrompt are supplied by the caller (the CLI entry point) since tool
// implementations and persona content are out of scope for this package.
func NewController(cfg config.Config, workDir, taskFilePath, lockPath, systemPrompt string, git gitwrap.Git, vault vaultstore.Vault, registry *models.Registry, tools []tool.InvokableTool) *Controller {
	return &Controller{
		cfg:          cfg,
		workDir:      workDir,
		taskFilePath: taskFilePath,
		systemPrompt: systemPrompt,
		tools:        tools,
		git:          git,
		vault:        vault,
		models:       registry,
		compactor:    contextbudget.New(contextbudget.Config{ContextWindow: registry.DefaultContextWindow()}),
		lock:         NewLock(lockPath, taskFilePath),
		state:        NewRunState(time.Now()),
	}
}

// RunSnapshot implements statusapi.StateProvider.
func (c *Controller) RunSnapshot() statusapi.RunSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return statusapi.RunSnapshot{
		Phase:           c.state.Phase,
		CurrentTaskKey:  c.state.CurrentTaskKey,
		TokensUsed:      c.state.TotalTokens,
		Commits:         c.state.TotalCommits,
		Iterations:      c.state.TotalIterations,
		AutoCompleted:   c.state.AutoCompleted,
		Aborted:         c.state.Aborted,
		StartedAt:       c.state.StartedAt,
		LastHeartbeatAt: time.Now(),
	}
}

// TaskSnapshots implements statusapi.StateProvider.
func (c *Controller) TaskSnapshots() []statusapi.TaskSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.taskFile == nil {
		return nil
	}
	out := make([]statusapi.TaskSnapshot, 0, len(c.taskFile.Tasks))
	for _, t := range c.taskFile.Tasks {
		retry := 0
		if rs, ok := c.state.TaskRetries[t.Key]; ok {
			retry = rs.RetryCount
		}
		out = append(out, statusapi.TaskSnapshot{Key: t.Key, Text: t.Text, Done: t.Done(), RetryCount: retry})
	}
	return out
}

// RunStateForSummary returns a snapshot of the run state suitable for
// Summarize. Safe to call after Run has returned.
func (c *Controller) RunStateForSummary() *RunState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Abort requests the run stop at the next safe point.
func (c *Controller) Abort() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Aborted = true
}

func (c *Controller) setPhase(phase string) {
	c.mu.Lock()
	c.state.Phase = phase
	c.mu.Unlock()
}

// Run executes the full controller loop against the task file at path and
// returns exactly one StopReason (spec §4.2.1, §4.2.6).
func (c *Controller) Run(ctx context.Context) (StopReason, error) {
	if err := c.lock.Acquire(); err != nil {
		return StopFatalError, fmt.Errorf("acquire lock: %w", err)
	}
	defer c.lock.Release()

	tf, err := taskfile.Parse(c.taskFilePath)
	if err != nil {
		return StopFatalError, fmt.Errorf("parse task file: %w", err)
	}
	c.mu.Lock()
	c.taskFile = tf
	c.mu.Unlock()

	if !c.cfg.Run.AllowDirty {
		if err := c.git.EnsureCleanWorkingTree(c.workDir); err != nil {
			return StopFatalError, fmt.Errorf("working tree not clean: %w", err)
		}
	}

	if c.cfg.Run.CreateBranch != "" {
		if err := c.git.CreateBranch(c.workDir, c.cfg.Run.CreateBranch); err != nil {
			return StopFatalError, fmt.Errorf("create branch: %w", err)
		}
	}

	commands := verify.DetectCommands(c.workDir)
	verifier := verify.New(verify.Config{
		Commands: commands,
		WorkDir:  c.workDir,
		Timeout:  c.cfg.Run.TaskTimeout.Duration(),
		EnableL2: c.cfg.Run.EnableL2,
		L2Ask:    c.newL2Ask(ctx),
	})

	if c.cfg.Run.DryRun {
		c.setPhase("dry_run_complete")
		return StopAllDone, nil
	}

	detector := toolloop.New(toolloop.Config{})

	c.setPhase("running")
	for {
		c.mu.Lock()
		c.state.TotalIterations++
		c.mu.Unlock()

		if reason := CheckBudgets(c.state, c.cfg.Run); reason != StopNone {
			return reason, nil
		}

		c.mu.Lock()
		tf := c.taskFile
		skipped := c.state.SkippedTasks
		c.mu.Unlock()

		runnable := tf.RunnablePending(skipped)
		if len(runnable) == 0 {
			return StopAllDone, nil
		}
		task := runnable[0]

		c.mu.Lock()
		c.state.CurrentTaskKey = task.Key
		retry := c.state.retryState(task.Key)
		c.mu.Unlock()

		if skip, fatal := ShouldSkipOrStop(retry, c.cfg.Run); fatal {
			return StopFatalError, fmt.Errorf("task %s exceeded retry budget", task.Key)
		} else if skip {
			c.mu.Lock()
			c.state.MarkSkipped(task.Key)
			c.mu.Unlock()
			c.recordAttempt(AttemptRecord{TaskKey: task.Key, Status: AttemptSkipped, Summary: "skipped after exceeding retry budget"})
			continue
		}

		preAttemptUntracked, _ := c.git.GetUntrackedFiles(c.workDir)

		c.setPhase("preflight")
		preflightSession, err := c.newSession(ctx, "preflight")
		if err != nil {
			return StopFatalError, fmt.Errorf("create preflight session: %w", err)
		}
		preflightResult, err := RunPreflight(ctx, preflightSession, task.Key, task.Text, c.cfg.Run.AgentsTasksDir, c.cfg.Run.PreflightMaxRetries)
		preflightSession.Close()
		if err != nil {
			return StopFatalError, fmt.Errorf("preflight: %w", err)
		}
		c.mu.Lock()
		c.state.Preflights = append(c.state.Preflights, preflightResult.Records...)
		c.mu.Unlock()

		if preflightResult.AlreadyComplete {
			if _, err := tf.MarkDone(task.Key); err != nil {
				return StopFatalError, fmt.Errorf("mark preflight-complete task done: %w", err)
			}
			if err := tf.Save(); err != nil {
				return StopFatalError, fmt.Errorf("save task file: %w", err)
			}
			c.mu.Lock()
			c.state.AutoCompleted++
			c.mu.Unlock()
			c.recordAttempt(AttemptRecord{TaskKey: task.Key, Status: AttemptPassed, Summary: "already implemented"})
			continue
		}

		c.setPhase("implement")
		attemptSession, err := c.newSession(ctx, "implement")
		if err != nil {
			return StopFatalError, fmt.Errorf("create attempt session: %w", err)
		}

		lastAttempts := c.state.LastAttemptPerTask()
		prev, hasPrev := lastAttempts[task.Key]
		var prevPtr *AttemptRecord
		if hasPrev {
			prevPtr = &prev
		}

		outcome, err := RunAttempt(ctx, AttemptDeps{
			Session:   attemptSession,
			Verifier:  verifier,
			Git:       c.git,
			Detector:  detector,
			Compactor: c.compactor,
			Summarize: c.newSummarize(ctx),
			WorkDir:   c.workDir,
		}, AttemptInput{
			TaskKey:         task.Key,
			TaskText:        task.Text,
			AttemptNumber:   retry.RetryCount + 1,
			PlanFilename:    preflightResult.PlanFilename,
			PreviousAttempt: prevPtr,
			L2FailCount:     retry.ConsecutiveL2Failures,
			Cfg:             c.cfg.Run,
		})
		attemptSession.Close()
		if err != nil {
			return StopFatalError, fmt.Errorf("attempt: %w", err)
		}

		c.dispatchOutcome(tf, task, retry, outcome, preAttemptUntracked)

		if err := tf.Save(); err != nil {
			return StopFatalError, fmt.Errorf("save task file: %w", err)
		}
	}
}

func (c *Controller) dispatchOutcome(tf *taskfile.TaskFile, task taskfile.Task, retry *TaskRetryState, outcome AttemptOutcome, preAttemptUntracked []string) {
	c.recordAttempt(outcome.Record)

	switch outcome.Record.Status {
	case AttemptPassed:
		if _, err := tf.MarkDone(task.Key); err == nil {
			retry.RetryCount = 0
			retry.ConsecutiveIdenticalFailures = 0
			retry.ConsecutiveL2Failures = 0
			if outcome.Record.CommitSHA != "" {
				c.mu.Lock()
				c.state.TotalCommits++
				c.mu.Unlock()
			}
		}

	case AttemptDecomposed:
		for _, sub := range outcome.Contract.Subtasks {
			if _, err := tf.InsertSubtask(task.Key, sub); err != nil {
				c.vaultNote(task.Key+":decompose-error", err.Error(), vaultstore.KindFailure)
			}
		}
		retry.RetryCount = 0

	case AttemptBlocked:
		rollback(c.workDir, c.git, c.cfg.Run, preAttemptUntracked)
		if c.cfg.Run.SkipOnBlocked {
			c.mu.Lock()
			c.state.MarkSkipped(task.Key)
			c.mu.Unlock()
		}
		c.vaultNote(task.Key+":blocked", outcome.Record.Summary, vaultstore.KindNote)

	default: // failed or error
		sig := outcome.Record.Summary
		if sig == retry.LastFailureSignature {
			retry.ConsecutiveIdenticalFailures++
		} else {
			retry.ConsecutiveIdenticalFailures = 1
			retry.LastFailureSignature = sig
		}
		if outcome.VerifyResult != nil && outcome.VerifyResult.L2Ran && !outcome.VerifyResult.L2Passed {
			retry.ConsecutiveL2Failures++
		} else {
			retry.ConsecutiveL2Failures = 0
		}
		retry.RetryCount++
		rollback(c.workDir, c.git, c.cfg.Run, preAttemptUntracked)
		c.vaultNote(task.Key+":failure", sig, vaultstore.KindFailure)
	}
}

func (c *Controller) recordAttempt(rec AttemptRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Attempts = append(c.state.Attempts, rec)
	c.state.TotalTokens += rec.Tokens
}

func (c *Controller) vaultNote(key, value string, kind vaultstore.Kind) {
	if c.vault == nil {
		return
	}
	_ = c.vault.UpsertNote(key, value, kind)
}

func (c *Controller) newSession(ctx context.Context, role string) (agentsession.Session, error) {
	chatModel, err := c.models.Default(ctx)
	if err != nil {
		return nil, err
	}
	return agentsession.NewEinoSession(agentsession.EinoSessionConfig{
		ChatModel:     chatModel,
		Tools:         c.tools,
		SystemPrompt:  c.systemPrompt,
		MaxIterations: c.cfg.Run.MaxIterations,
	}), nil
}

// newSummarize returns a SummarizeFunc backed by a fresh, single-turn
// session — the compactor never reuses the attempt's own conversation for
// its own summarization call.
func (c *Controller) newSummarize(ctx context.Context) contextbudget.SummarizeFunc {
	return func(summarizeCtx context.Context, prompt string) (string, error) {
		session, err := c.newSession(ctx, "compaction")
		if err != nil {
			return "", err
		}
		defer session.Close()
		res, err := session.Ask(summarizeCtx, prompt, agentsession.Hooks{})
		if err != nil {
			return "", err
		}
		return res.Text, nil
	}
}

func (c *Controller) newL2Ask(ctx context.Context) verify.AskFunc {
	return func(askCtx context.Context, prompt string) (string, error) {
		session, err := c.newSession(ctx, "l2-review")
		if err != nil {
			return "", err
		}
		defer session.Close()
		res, err := session.Ask(askCtx, prompt, agentsession.Hooks{})
		if err != nil {
			return "", err
		}
		return res.Text, nil
	}
}
