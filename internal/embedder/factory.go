package embedder

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/finkb/finkb-go/internal/rag"
)

// Default embedding models per backend.
const (
	// defaultDashScopeModel is the Qwen embedding model used unless
	// EMBEDDING_MODEL overrides it.
	defaultDashScopeModel = "text-embedding-v4"

	// defaultDashScopeDimensions is the default output dimension of
	// text-embedding-v4. Other dimensions (512, 768, ...) are supported —
	// override with EMBEDDING_DIMENSIONS, but never mix dimensions within
	// one collection.
	defaultDashScopeDimensions = 1024

	// dashScopeCompatBaseURL is DashScope's OpenAI-compatible endpoint,
	// used by the "openai" backend when no EMBEDDING_ENDPOINT is set.
	dashScopeCompatBaseURL = "https://dashscope.aliyuncs.com/compatible-mode/v1"
)

// DefaultDimensions returns the embedding vector size for the given backend
// name. Callers that pre-configure the vector store (Qdrant collection
// creation) should use this rather than hardcoding a value.
// EMBEDDING_DIMENSIONS always takes precedence when set.
func DefaultDimensions(backend string) int {
	if v := getEnvInt("EMBEDDING_DIMENSIONS", 0); v > 0 {
		return v
	}
	_ = backend // every supported backend serves text-embedding-v4-class models
	return defaultDashScopeDimensions
}

// NewFromEnv constructs a rag.Embedder from environment variables.
//
// Resolution order:
//
//  1. EMBEDDING_PROVIDER — dashscope (default) or openai
//  2. dashscope: DASHSCOPE_API_KEY (required), EMBEDDING_MODEL
//  3. openai: EMBEDDING_API_KEY, falling back to DASHSCOPE_API_KEY then
//     OPENAI_API_KEY; EMBEDDING_ENDPOINT (default: DashScope
//     compatible-mode)
//  4. EMBEDDING_DIMENSIONS — overrides the default vector size
//
// A missing credential for the resolved backend is returned as an error
// before any network call is attempted.
func NewFromEnv(ctx context.Context) (rag.Embedder, error) {
	backend := getEnvOrDefault("EMBEDDING_PROVIDER", "dashscope")
	dims := DefaultDimensions(backend)
	model := getEnvOrDefault("EMBEDDING_MODEL", defaultDashScopeModel)

	switch backend {
	case "dashscope":
		apiKey := os.Getenv("DASHSCOPE_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("embedder: dashscope requires DASHSCOPE_API_KEY")
		}
		return NewDashScopeEmbedder(ctx, &DashScopeConfig{
			APIKey:     apiKey,
			Model:      model,
			Dimensions: dims,
		})

	case "openai":
		apiKey := getEnv("EMBEDDING_API_KEY")
		if apiKey == "" {
			apiKey = getEnv("DASHSCOPE_API_KEY")
		}
		if apiKey == "" {
			apiKey = getEnv("OPENAI_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("embedder: openai backend requires EMBEDDING_API_KEY, DASHSCOPE_API_KEY, or OPENAI_API_KEY")
		}
		baseURL := getEnvOrDefault("EMBEDDING_ENDPOINT", dashScopeCompatBaseURL)
		return NewOpenAIEmbedder(&OpenAIConfig{
			BaseURL:    baseURL,
			APIKey:     apiKey,
			Model:      model,
			Dimensions: dims,
		}), nil

	default:
		return nil, fmt.Errorf("embedder: unknown backend %q — valid values: dashscope, openai", backend)
	}
}

// getEnv returns the value of the named environment variable, or empty string.
func getEnv(key string) string {
	return os.Getenv(key)
}

// getEnvOrDefault returns the value of the named environment variable, or
// fallback if the variable is unset or empty.
func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvInt returns the integer value of the named environment variable, or
// fallback if the variable is unset, empty, or not parseable.
func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
