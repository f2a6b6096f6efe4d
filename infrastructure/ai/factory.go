package ai

import (
	"browser_agent/domain/interfaces"
	"browser_agent/infrastructure/config"
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// DefaultModel returns the model used when none is configured
func DefaultModel(provider string) string {
	if provider == config.ProviderGemini {
		return DefaultGeminiModel
	}
	return DefaultOpenAIModel
}

// New builds the configured provider, throttled when a request rate is set
func New(ctx context.Context, cfg config.LLMConfig, logger *logrus.Logger) (interfaces.ChatModel, error) {
	opts := []ClientOption{
		WithBaseURL(cfg.BaseURL),
		WithMaxRetries(cfg.MaxRetries),
		WithTimeout(cfg.Timeout),
		WithLogger(logger),
	}

	var (
		model interfaces.ChatModel
		err   error
	)
	switch cfg.Provider {
	case config.ProviderOpenAI, "":
		model, err = NewOpenAIClient(cfg.APIKey, opts...)
	case config.ProviderGemini:
		model, err = NewGeminiClient(ctx, cfg.APIKey, opts...)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	if cfg.RequestsPerMinute > 0 {
		model = NewThrottled(model, cfg.RequestsPerMinute)
	}
	return model, nil
}
