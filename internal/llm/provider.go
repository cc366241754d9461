// Package llm abstracts the generative model behind the correction pipeline.
// Providers are interchangeable: OpenAI-compatible APIs, Anthropic, or a
// local Ollama daemon. Responses are raw text; structured decoding lives in
// parse.go.
package llm

import (
	"context"

	"github.com/UdonsiKalu/denialguard/internal/model"
)

// Provider defines the interface for generative model backends.
type Provider interface {
	// Name returns the provider name.
	Name() string

	// Generate produces a completion for the request. Implementations
	// enforce the configured timeout; callers get exactly one attempt.
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)

	// IsAvailable checks if the provider is properly configured and
	// reachable.
	IsAvailable(ctx context.Context) bool
}

// GenerateRequest contains the input for a single generation call.
type GenerateRequest struct {
	// System primes the model's role (e.g. Medicare compliance expert).
	System string

	// Prompt is the full user prompt including evidence and policy context.
	Prompt string

	// Model overrides the configured model for this call.
	Model string

	// MaxTokens limits the response length.
	MaxTokens int
}

// GenerateResponse contains the model's raw output.
type GenerateResponse struct {
	// Text is the generated response, whitespace-trimmed.
	Text string

	// Model is the model that generated the response.
	Model string

	// TokensUsed tracks token consumption across prompt and completion.
	TokensUsed int
}

// Config holds LLM provider configuration.
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama, vLLM)
	BaseURL string

	// Timeout for API requests, seconds. A hung generation call must not
	// stall the whole claim.
	Timeout int

	// MaxTokens for response generation
	MaxTokens int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Provider:  "",
		Model:     "",
		Timeout:   60,
		MaxTokens: 2000,
	}
}

// ConfigFromModel converts the application config into provider config.
func ConfigFromModel(c model.LLMConfig) Config {
	return Config{
		Provider:  c.Provider,
		Model:     c.Model,
		APIKey:    c.APIKey,
		BaseURL:   c.BaseURL,
		Timeout:   c.Timeout,
		MaxTokens: c.MaxTokens,
	}
}
