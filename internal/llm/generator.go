// Package llm provides the generative text backends behind the OLASIS assistant.
//
// Each provider (Google Gemini, OpenAI, Anthropic) implements Generator: a
// single-shot completion of a fully rendered prompt with explicit sampling
// parameters. Conversation state, language handling and post-processing live
// in the assistant package; providers only move text over the wire.
//
// Example usage:
//
//	gen, err := llm.NewGenerator(ctx, llm.FactoryConfig{
//		Provider: "gemini",
//		Gemini:   llm.GeminiConfig{APIKey: key, Model: "gemini-2.5-flash"},
//	})
//	text, err := gen.Generate(ctx, llm.Prompt{
//		Text:            rendered,
//		Temperature:     0.6,
//		TopP:            0.9,
//		MaxOutputTokens: 2000,
//	})
package llm

import (
	"context"
	"errors"
)

// ErrEmptyResponse is returned when a provider answers without any text.
var ErrEmptyResponse = errors.New("empty response from model")

// Prompt is a fully rendered prompt plus sampling parameters.
type Prompt struct {
	// Text is the complete prompt, including instructions and history.
	Text string
	// Temperature is the sampling temperature.
	Temperature float64
	// TopP is the nucleus sampling parameter. Zero leaves the provider default.
	TopP float64
	// MaxOutputTokens caps the response length. Zero uses the provider default.
	MaxOutputTokens int
}

// Generator produces text for a prompt.
type Generator interface {
	// Generate returns the model's text for the prompt.
	Generate(ctx context.Context, prompt Prompt) (string, error)

	// Provider returns the name of the LLM provider (e.g., "gemini").
	Provider() string

	// Model returns the model identifier being used.
	Model() string
}
