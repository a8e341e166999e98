// Package provider constructs the chat model backing the assistant. The
// default backend is DashScope's OpenAI-compatible endpoint serving Qwen
// models; OpenAI, Ollama, and Ark are supported for portability.
package provider

import "fmt"

// Backend identifies a chat model provider.
type Backend string

// Supported backends.
const (
	BackendDashScope Backend = "dashscope"
	BackendOpenAI    Backend = "openai"
	BackendOllama    Backend = "ollama"
	BackendArk       Backend = "ark"
)

// Config holds the resolved settings for constructing a chat model.
type Config struct {
	// Backend selects the provider implementation.
	Backend Backend

	// Model is the model name (e.g. "qwen-plus").
	Model string

	// BaseURL overrides the provider's default endpoint.
	BaseURL string

	// APIKey is the provider credential.
	APIKey string

	// MaxTokens caps the response length.
	MaxTokens int

	// Temperature controls sampling randomness.
	Temperature float32
}

// Validate checks the config for per-backend required fields.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendDashScope:
		if c.APIKey == "" {
			return fmt.Errorf("provider: DASHSCOPE_API_KEY is required for dashscope backend")
		}
	case BackendOpenAI:
		if c.APIKey == "" {
			return fmt.Errorf("provider: MODEL_API_KEY is required for openai backend")
		}
	case BackendOllama:
		if c.Model == "" {
			return fmt.Errorf("provider: MODEL_NAME is required for ollama backend")
		}
	case BackendArk:
		if c.APIKey == "" {
			return fmt.Errorf("provider: MODEL_API_KEY is required for ark backend")
		}
	default:
		return fmt.Errorf("provider: unknown backend %q — valid values: dashscope, openai, ollama, ark", c.Backend)
	}
	return nil
}
