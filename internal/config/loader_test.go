package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	content := `{
	// This is a JSONC comment
	"status_api": {
		"host": "0.0.0.0",
		"port": 9999
	},
	"models": {
		"default": "claude",
		"providers": {
			"claude": {
				"driver": "anthropic",
				"model": "claude-sonnet-4-6",
				"auth": {
					"api_key": "${{ .Env.ANTHROPIC_API_KEY }}"
				},
				"max_tokens": 4096
			}
		}
	}
}`

	dir := t.TempDir()
	path := filepath.Join(dir, "config.jsonc")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("ANTHROPIC_API_KEY", "test-key-123")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.StatusAPI.Host != "0.0.0.0" {
		t.Errorf("expected host 0.0.0.0, got %s", cfg.StatusAPI.Host)
	}
	if cfg.StatusAPI.Port != 9999 {
		t.Errorf("expected port 9999, got %d", cfg.StatusAPI.Port)
	}
	if cfg.Models.Default != "claude" {
		t.Errorf("expected default claude, got %s", cfg.Models.Default)
	}

	p, ok := cfg.Models.Providers["claude"]
	if !ok {
		t.Fatal("expected claude provider")
	}
	if p.Auth.APIKey != "test-key-123" {
		t.Errorf("expected api_key test-key-123, got %s", p.Auth.APIKey)
	}
	if p.MaxTokens != 4096 {
		t.Errorf("expected max_tokens 4096, got %d", p.MaxTokens)
	}
}

func TestLoadDefaults(t *testing.T) {
	content := `{}`
	dir := t.TempDir()
	path := filepath.Join(dir, "config.jsonc")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.StatusAPI.Host != "127.0.0.1" {
		t.Errorf("expected default host 127.0.0.1, got %s", cfg.StatusAPI.Host)
	}
	if cfg.StatusAPI.Port != 18421 {
		t.Errorf("expected default port 18421, got %d", cfg.StatusAPI.Port)
	}
	if cfg.Git.Binary != "git" {
		t.Errorf("expected default git binary 'git', got %q", cfg.Git.Binary)
	}
}

func TestLoadDefaults_RunBudgets(t *testing.T) {
	content := `{}`
	dir := t.TempDir()
	path := filepath.Join(dir, "config.jsonc")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Run.MaxRetriesPerTask != 3 {
		t.Errorf("expected default max_retries_per_task 3, got %d", cfg.Run.MaxRetriesPerTask)
	}
	if cfg.Run.PreflightMaxRetries != 2 {
		t.Errorf("expected default preflight_max_retries 2, got %d", cfg.Run.PreflightMaxRetries)
	}
	if cfg.Run.ToolLoopMaxRetries != 2 {
		t.Errorf("expected default tool_loop_max_retries 2, got %d", cfg.Run.ToolLoopMaxRetries)
	}
	if cfg.Run.SkipOnFail {
		t.Error("expected SkipOnFail to default false")
	}
}

func TestLoadDefaults_RunTaskBudgets(t *testing.T) {
	content := `{}`
	dir := t.TempDir()
	path := filepath.Join(dir, "config.jsonc")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Run.MaxDecomposeDepth != 3 {
		t.Errorf("expected default max_decompose_depth 3, got %d", cfg.Run.MaxDecomposeDepth)
	}
	if cfg.Run.MaxTasks != 200 {
		t.Errorf("expected default max_tasks 200, got %d", cfg.Run.MaxTasks)
	}
	if cfg.Run.AgentsTasksDir != "agents/tasks" {
		t.Errorf("expected default agents_tasks_dir 'agents/tasks', got %q", cfg.Run.AgentsTasksDir)
	}
}

func TestExpandEnvTemplates(t *testing.T) {
	t.Setenv("TEST_KEY", "my-secret")
	result := expandEnvTemplates(`{"key": "${{ .Env.TEST_KEY }}"}`)
	expected := `{"key": "my-secret"}`
	if result != expected {
		t.Errorf("expected %s, got %s", expected, result)
	}
}
