package verify

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// CommandResult captures the outcome of a single shell command execution.
type CommandResult struct {
	ExitCode int
	Stdout   string
	Combined string
	TimedOut bool
}

// RunCommand parses and executes a shell command string inside workDir,
// using mvdan.cc/sh's interpreter rather than os/exec so gates behave the
// same way regardless of the host's installed /bin/sh.
func RunCommand(ctx context.Context, workDir, command string, timeout time.Duration) (CommandResult, error) {
	file, err := syntax.NewParser().Parse(bytes.NewReader([]byte(command)), "")
	if err != nil {
		return CommandResult{}, fmt.Errorf("parse command %q: %w", command, err)
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var out bytes.Buffer
	runner, err := interp.New(
		interp.Dir(workDir),
		interp.StdIO(nil, &out, &out),
	)
	if err != nil {
		return CommandResult{}, fmt.Errorf("create interpreter: %w", err)
	}

	runErr := runner.Run(ctx, file)

	result := CommandResult{Stdout: out.String(), Combined: out.String()}
	if ctx.Err() == context.DeadlineExceeded {
		result.TimedOut = true
		result.ExitCode = -1
		return result, nil
	}
	if runErr == nil {
		result.ExitCode = 0
		return result, nil
	}
	if status, ok := interp.IsExitStatus(runErr); ok {
		result.ExitCode = int(status)
		return result, nil
	}
	return result, fmt.Errorf("run command %q: %w", command, runErr)
}
