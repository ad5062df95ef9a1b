package assistant

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/olasis/olasis-service/internal/llm"
)

// Backend is either Unavailable or Ready. It is decided once, at construction.
type Backend interface {
	backend()
}

// Unavailable means no generator could be built. Every turn answers with the
// pack's unavailable text.
type Unavailable struct {
	Reason string
}

// Ready carries a working generator.
type Ready struct {
	Generator llm.Generator
}

func (Unavailable) backend() {}
func (Ready) backend()       {}

// NewBackend builds the configured generator, or Unavailable with the reason
// when that fails.
func NewBackend(ctx context.Context, cfg llm.FactoryConfig, logger zerolog.Logger) Backend {
	gen, err := llm.NewGenerator(ctx, cfg)
	if err != nil {
		logger.Warn().
			Err(err).
			Str("provider", cfg.Provider).
			Msg("assistant backend unavailable; OLABOT will answer with the unavailable message")
		return Unavailable{Reason: err.Error()}
	}

	logger.Info().
		Str("provider", gen.Provider()).
		Str("model", gen.Model()).
		Msg("assistant backend ready")
	return Ready{Generator: gen}
}
