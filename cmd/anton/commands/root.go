// Package commands wires Anton's CLI surface: a single "run" entry point
// that drives a task file to completion, plus a read-only "status" view of
// a running instance's state.
package commands

import (
	"github.com/urfave/cli/v3"

	"github.com/anton-run/anton/internal/config"
)

// NewRootCommand returns the top-level CLI command.
func NewRootCommand(version, commit string) *cli.Command {
	return &cli.Command{
		Name:    "anton",
		Usage:   "Autonomous coding-task supervisor",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file",
				Value:   config.ConfigPath(),
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
		},
		Commands: []*cli.Command{
			NewRunCommand(),
			NewStatusCommand(),
		},
	}
}
