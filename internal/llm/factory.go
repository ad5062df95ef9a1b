package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrMissingAPIKey is returned by NewGenerator when the selected provider has no key.
var ErrMissingAPIKey = errors.New("missing API key")

// FactoryConfig holds the parameters needed to create a Generator.
// This is defined in the llm package to avoid importing the config package,
// keeping the llm package free of infrastructure dependencies.
type FactoryConfig struct {
	// Provider is the LLM provider name ("gemini", "openai" or "anthropic").
	Provider string
	// Timeout is the timeout for HTTP-based providers.
	Timeout time.Duration
	// MaxRetries is the maximum number of retries for failed calls.
	MaxRetries int
	// Gemini contains Gemini-specific settings.
	Gemini GeminiConfig
	// OpenAI contains OpenAI-specific settings.
	OpenAI OpenAIConfig
	// Anthropic contains Anthropic-specific settings.
	Anthropic AnthropicConfig
}

// NewGenerator creates a Generator based on the configuration. It returns an
// error wrapping ErrMissingAPIKey when the provider's key is blank, and an
// error for unsupported or empty provider values.
func NewGenerator(ctx context.Context, cfg FactoryConfig) (Generator, error) {
	switch strings.ToLower(cfg.Provider) {
	case "gemini":
		if strings.TrimSpace(cfg.Gemini.APIKey) == "" {
			return nil, fmt.Errorf("gemini: %w", ErrMissingAPIKey)
		}
		return NewGeminiProvider(ctx, cfg.Gemini)
	case "openai":
		if strings.TrimSpace(cfg.OpenAI.APIKey) == "" {
			return nil, fmt.Errorf("openai: %w", ErrMissingAPIKey)
		}
		return NewOpenAIProvider(cfg.OpenAI, cfg.Timeout, cfg.MaxRetries), nil
	case "anthropic":
		if strings.TrimSpace(cfg.Anthropic.APIKey) == "" {
			return nil, fmt.Errorf("anthropic: %w", ErrMissingAPIKey)
		}
		return NewAnthropicProvider(cfg.Anthropic, cfg.Timeout, cfg.MaxRetries), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %q", cfg.Provider)
	}
}
