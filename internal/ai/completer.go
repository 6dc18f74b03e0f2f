package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bilgisen/newsflow/internal/config"
)

var (
	ErrNotConfigured = errors.New("llm provider is not configured")
	ErrEmptyResponse = errors.New("llm returned an empty response")
)

// Completer sends one system + user prompt pair to a chat model
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
	Name() string
}

// NewCompleter builds the provider selected by AI_PROVIDER.
func NewCompleter(cfg *config.Config) (Completer, error) {
	if !cfg.AIEnabled() {
		return nil, ErrNotConfigured
	}
	timeout := time.Duration(cfg.AITimeout) * time.Second

	switch cfg.AIProvider {
	case "azure":
		return NewAzureClient(cfg.AIEndpoint, cfg.AIApiKey, cfg.AIModel, cfg.AIAPIVersion, cfg.AIMaxTokens, timeout), nil
	case "openai":
		return NewOpenAIClient(cfg.AIApiKey, cfg.AIEndpoint, cfg.AIModel, cfg.AIMaxTokens, timeout), nil
	case "gemini":
		return NewGeminiClient(cfg.AIApiKey, cfg.AIModel, cfg.AIMaxTokens, timeout), nil
	default:
		return nil, fmt.Errorf("unknown ai provider %q", cfg.AIProvider)
	}
}
