package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// defaultGeminiModel is used when no model is configured.
const defaultGeminiModel = "gemini-2.5-flash"

// GeminiConfig holds the parameters needed to create a Gemini provider.
// This is defined in the llm package to avoid importing the config package.
type GeminiConfig struct {
	// APIKey is the Google AI Studio API key.
	APIKey string
	// Model is the model identifier (e.g., "gemini-2.5-flash").
	Model string
	// BaseURL overrides the API endpoint. Empty uses the SDK default.
	BaseURL string
}

// GeminiProvider implements Generator using the Gemini API via google.golang.org/genai.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

var _ Generator = (*GeminiProvider)(nil)

// NewGeminiProvider creates a Gemini generator. It fails when the SDK client
// cannot be built, e.g. for an empty API key.
func NewGeminiProvider(ctx context.Context, cfg GeminiConfig) (*GeminiProvider, error) {
	model := cfg.Model
	if model == "" {
		model = defaultGeminiModel
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	return &GeminiProvider{client: client, model: model}, nil
}

// Generate calls Models.GenerateContent with the prompt as a single user turn.
func (p *GeminiProvider) Generate(ctx context.Context, prompt Prompt) (string, error) {
	genCfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(prompt.Temperature)),
	}
	if prompt.TopP > 0 {
		genCfg.TopP = genai.Ptr(float32(prompt.TopP))
	}
	if prompt.MaxOutputTokens > 0 {
		genCfg.MaxOutputTokens = int32(prompt.MaxOutputTokens)
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(prompt.Text), genCfg)
	if err != nil {
		return "", classifyGeminiError(err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("gemini: %w", ErrEmptyResponse)
	}
	return text, nil
}

// Provider returns the provider name.
func (p *GeminiProvider) Provider() string {
	return "gemini"
}

// Model returns the model identifier being used.
func (p *GeminiProvider) Model() string {
	return p.model
}

// classifyGeminiError converts SDK API errors into *APIError so callers can
// apply IsTransient uniformly.
func classifyGeminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &APIError{
			Provider:   "gemini",
			StatusCode: apiErr.Code,
			Message:    apiErr.Message,
			Type:       apiErr.Status,
		}
	}
	return fmt.Errorf("gemini: generate content: %w", err)
}
