package config

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/tailscale/hujson"
)

var envTemplateRe = regexp.MustCompile(`\$\{\{\s*\.Env\.(\w+)\s*\}\}`)

// Load reads a JSONC config file, standardizes it to plain JSON, expands
// ${{ .Env.VAR }} templates, unmarshals it into Config, and applies
// defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := expandEnvTemplates(string(data))

	standardized, err := hujson.Standardize([]byte(expanded))
	if err != nil {
		return nil, fmt.Errorf("standardize jsonc: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// expandEnvTemplates replaces ${{ .Env.VAR }} with the env var value.
func expandEnvTemplates(s string) string {
	return envTemplateRe.ReplaceAllStringFunc(s, func(match string) string {
		parts := envTemplateRe.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		return os.Getenv(parts[1])
	})
}

// applyDefaults fills in zero-value fields with sensible defaults. The run
// controller's own defaults are documented in detail where they're
// consumed, but a bare config file should still produce a runnable system.
func applyDefaults(cfg *Config) {
	if cfg.StatusAPI.Host == "" {
		cfg.StatusAPI.Host = "127.0.0.1"
	}
	if cfg.StatusAPI.Port == 0 {
		cfg.StatusAPI.Port = 18421
	}
	if cfg.Events.LogLevel == "" {
		cfg.Events.LogLevel = "info"
	}
	if cfg.Git.Binary == "" {
		cfg.Git.Binary = "git"
	}

	if cfg.Run.MaxRetriesPerTask == 0 {
		cfg.Run.MaxRetriesPerTask = 3
	}
	if cfg.Run.PreflightMaxRetries == 0 {
		cfg.Run.PreflightMaxRetries = 2
	}
	if cfg.Run.ToolLoopMaxRetries == 0 {
		cfg.Run.ToolLoopMaxRetries = 2
	}
	if cfg.Run.MaxIdenticalFailures == 0 {
		cfg.Run.MaxIdenticalFailures = 2
	}
	if cfg.Run.MaxDecomposeDepth == 0 {
		cfg.Run.MaxDecomposeDepth = 3
	}
	if cfg.Run.MaxIterations == 0 {
		cfg.Run.MaxIterations = 500
	}
	if cfg.Run.MaxTasks == 0 {
		cfg.Run.MaxTasks = 200
	}
	if cfg.Run.TaskTimeout == 0 {
		cfg.Run.TaskTimeout = Duration(30 * time.Minute)
	}
	if cfg.Run.MaxPromptTokensPerAttempt == 0 {
		cfg.Run.MaxPromptTokensPerAttempt = 60000
	}
	if cfg.Run.AgentsTasksDir == "" {
		cfg.Run.AgentsTasksDir = "agents/tasks"
	}
}
