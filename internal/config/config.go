package config

import "time"

// Config is the root configuration for an Anton run.
type Config struct {
	StatusAPI StatusAPIConfig `json:"status_api"`
	Models    ModelsConfig    `json:"models"`
	Run       RunConfig       `json:"run"`
	Vault     VaultConfig     `json:"vault"`
	Git       GitConfig       `json:"git"`
	Events    EventsConfig    `json:"events"`
}

// StatusAPIConfig holds the read-only status server settings.
type StatusAPIConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// ModelsConfig holds model provider configuration.
type ModelsConfig struct {
	Default   string                    `json:"default"`
	Providers map[string]ProviderConfig `json:"providers"`
}

// ProviderConfig configures a single LLM provider.
type ProviderConfig struct {
	Driver        string         `json:"driver"` // "anthropic" | "openai"
	Model         string         `json:"model"`
	BaseURL       string         `json:"base_url,omitempty"`
	Auth          AuthConfig     `json:"auth"`
	MaxTokens     int            `json:"max_tokens,omitempty"`
	ContextWindow int            `json:"context_window,omitempty"`
	Timeout       Duration       `json:"timeout,omitempty"`
	Options       map[string]any `json:"options,omitempty"`
}

// AuthConfig configures API key resolution.
type AuthConfig struct {
	APIKey string `json:"api_key,omitempty"`
	Token  string `json:"token,omitempty"`
}

// RunConfig holds the run controller's retry and budget defaults (see
// the open-question decisions this package's tests exercise).
type RunConfig struct {
	SkipOnFail           bool `json:"skip_on_fail"`
	SkipOnBlocked        bool `json:"skip_on_blocked"`
	MaxIdenticalFailures int  `json:"max_identical_failures"`
	MaxRetriesPerTask    int  `json:"max_retries_per_task"`
	PreflightMaxRetries  int  `json:"preflight_max_retries"`
	ToolLoopMaxRetries   int  `json:"tool_loop_max_retries"`

	AllowDirty            bool     `json:"allow_dirty"`
	AutoCommit            bool     `json:"auto_commit"`
	RollbackOnFail        bool     `json:"rollback_on_fail"`
	AggressiveCleanOnFail bool     `json:"aggressive_clean_on_fail"`
	CreateBranch          string   `json:"create_branch,omitempty"`
	DryRun                bool     `json:"dry_run"`
	EnableL2              bool     `json:"enable_l2"`
	MaxDecomposeDepth     int      `json:"max_decompose_depth"`
	MaxIterations         int      `json:"max_iterations"`
	MaxTasks              int      `json:"max_tasks"`
	TotalTimeout          Duration `json:"total_timeout,omitempty"`
	TaskTimeout           Duration `json:"task_timeout,omitempty"`
	TotalTokenBudget      int      `json:"total_token_budget,omitempty"`
	MaxPromptTokensPerAttempt int  `json:"max_prompt_tokens_per_attempt,omitempty"`
	AgentsTasksDir        string   `json:"agents_tasks_dir,omitempty"`
}

// VaultConfig holds the persistent-notes vault settings.
type VaultConfig struct {
	Dir string `json:"dir,omitempty"`
}

// GitConfig holds the git adapter's settings.
type GitConfig struct {
	Binary string `json:"binary,omitempty"`
}

// EventsConfig holds logging settings.
type EventsConfig struct {
	LogLevel string `json:"log_level"`
}

// Duration wraps time.Duration for JSON unmarshaling.
type Duration time.Duration

func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Duration(d).String() + `"`), nil
}
