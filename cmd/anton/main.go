package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"github.com/anton-run/anton/cmd/anton/commands"
	"github.com/anton-run/anton/internal/config"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := config.LoadDotenv(config.DotenvPath()); err != nil {
		slog.Debug("no .env loaded", "error", err)
	}

	cmd := commands.NewRootCommand(version, commit)
	if err := cmd.Run(ctx, os.Args); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}
