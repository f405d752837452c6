package models

import (
	"context"
	"time"

	einoopenai "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/anton-run/anton/internal/config"
)

// NewOpenAI creates a new OpenAI ChatModel, wrapped so transient failures
// (rate limiting, dropped connections) are retried without charging the
// run controller's task-level retry budget.
func NewOpenAI(ctx context.Context, cfg config.ProviderConfig, auth ResolvedAuth) (model.ToolCallingChatModel, error) {
	modelConfig := &einoopenai.ChatModelConfig{
		APIKey: auth.Value,
		Model:  cfg.Model,
	}

	if cfg.BaseURL != "" {
		modelConfig.BaseURL = cfg.BaseURL
	}

	if cfg.MaxTokens > 0 {
		maxTokens := cfg.MaxTokens
		modelConfig.MaxCompletionTokens = &maxTokens
	}

	if cfg.Timeout.Duration() > 0 {
		modelConfig.Timeout = cfg.Timeout.Duration()
	} else {
		modelConfig.Timeout = 60 * time.Second
	}

	if cfg.Options != nil {
		if temp, ok := cfg.Options["temperature"].(float64); ok {
			t := float32(temp)
			modelConfig.Temperature = &t
		}
	}

	cm, err := einoopenai.NewChatModel(ctx, modelConfig)
	if err != nil {
		return nil, err
	}
	return &retryingChatModel{inner: cm}, nil
}

// retryingChatModel wraps a model.ToolCallingChatModel and retries Generate
// and the initial Stream call across transient failures, the same policy
// AnthropicChatModel.callWithRetry applies directly — factored out here
// since the OpenAI adapter doesn't implement the interface itself.
type retryingChatModel struct {
	inner model.ToolCallingChatModel
}

func (m *retryingChatModel) Generate(ctx context.Context, messages []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	var lastErr error
	for attempt := 0; attempt <= maxTransientRetries; attempt++ {
		msg, err := m.inner.Generate(ctx, messages, opts...)
		if err == nil {
			return msg, nil
		}
		lastErr = HandleError(err)
		if !IsTransient(lastErr) || attempt == maxTransientRetries {
			return nil, lastErr
		}
		if sleepErr := sleepWithContext(ctx, backoff(attempt)); sleepErr != nil {
			return nil, sleepErr
		}
	}
	return nil, lastErr
}

func (m *retryingChatModel) Stream(ctx context.Context, messages []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	var lastErr error
	for attempt := 0; attempt <= maxTransientRetries; attempt++ {
		sr, err := m.inner.Stream(ctx, messages, opts...)
		if err == nil {
			return sr, nil
		}
		lastErr = HandleError(err)
		if !IsTransient(lastErr) || attempt == maxTransientRetries {
			return nil, lastErr
		}
		if sleepErr := sleepWithContext(ctx, backoff(attempt)); sleepErr != nil {
			return nil, sleepErr
		}
	}
	return nil, lastErr
}

func (m *retryingChatModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	withTools, err := m.inner.WithTools(tools)
	if err != nil {
		return nil, err
	}
	return &retryingChatModel{inner: withTools}, nil
}

var _ model.ToolCallingChatModel = (*retryingChatModel)(nil)
