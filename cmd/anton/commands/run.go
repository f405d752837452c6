package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/anton-run/anton/internal/anton"
	"github.com/anton-run/anton/internal/config"
	"github.com/anton-run/anton/internal/gitwrap"
	"github.com/anton-run/anton/internal/models"
	"github.com/anton-run/anton/internal/statusapi"
	"github.com/anton-run/anton/internal/vaultstore"
)

// exit codes, per the run-controller's stop-reason contract.
const (
	exitAllDone          = 0
	exitFatalError       = 1
	exitAbort            = 2
	exitBudgetExceeded   = 3
	exitMaxTasksExceeded = 4
)

// NewRunCommand returns the run subcommand: drive a task file to
// completion or a stop condition.
func NewRunCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "Drive a task file through preflight/implement/verify/commit cycles",
		ArgsUsage: "<task-file>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "work-dir",
				Usage: "Working directory for the run",
				Value: ".",
			},
			&cli.BoolFlag{
				Name:  "allow-dirty",
				Usage: "Skip the clean working tree precondition",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Validate configuration and task file without driving any attempts",
			},
		},
		Action: runAnton,
	}
}

func runAnton(ctx context.Context, cmd *cli.Command) error {
	taskFilePath := cmd.Args().First()
	if taskFilePath == "" {
		return fmt.Errorf("usage: anton run <task-file>")
	}

	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if cmd.Bool("allow-dirty") {
		cfg.Run.AllowDirty = true
	}
	if cmd.Bool("dry-run") {
		cfg.Run.DryRun = true
	}

	workDir := cmd.String("work-dir")

	git := gitwrap.NewExecGit(cfg.Git.Binary)

	vaultDir := config.VaultDir(cfg.Vault)
	vault, err := vaultstore.NewFileVault(vaultDir)
	if err != nil {
		return fmt.Errorf("open vault: %w", err)
	}

	registry := models.NewRegistry(cfg.Models)

	controller := anton.NewController(*cfg, workDir, taskFilePath, config.LockPath(), anton.LoadSystemPrompt(), git, vault, registry, nil)

	server := statusapi.NewServer(controller, cfg.StatusAPI.Host, cfg.StatusAPI.Port)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "status API stopped: %v\n", err)
		}
	}()

	go func() {
		<-ctx.Done()
		controller.Abort()
	}()

	reason, runErr := controller.Run(ctx)
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "anton run: %v\n", runErr)
	}

	summary := anton.Summarize(controller.RunStateForSummary(), reason)
	fmt.Println(summary.String())

	server.Shutdown(ctx)

	os.Exit(exitCodeForStopReason(reason))
	return nil
}

func exitCodeForStopReason(reason anton.StopReason) int {
	switch reason {
	case anton.StopAllDone:
		return exitAllDone
	case anton.StopAbort:
		return exitAbort
	case anton.StopTokenBudget, anton.StopMaxIterations, anton.StopTotalTimeout:
		return exitBudgetExceeded
	case anton.StopMaxTasksExceeded:
		return exitMaxTasksExceeded
	default:
		return exitFatalError
	}
}
