package embedder

import (
	"context"
	"fmt"
	"time"

	dashscope "github.com/cloudwego/eino-ext/components/embedding/dashscope"
	"github.com/cloudwego/eino/components/embedding"
)

// DashScopeEmbedder implements rag.Embedder on top of the eino-ext
// DashScope embedding component. It is the default backend: the knowledge
// base is built for Qwen text-embedding models.
type DashScopeEmbedder struct {
	inner   embedding.Embedder
	timeout time.Duration
}

// DashScopeConfig holds the settings for constructing a DashScopeEmbedder.
type DashScopeConfig struct {
	// APIKey is the DashScope API key. Required.
	APIKey string
	// Model is the embedding model name (e.g. "text-embedding-v4").
	Model string
	// Dimensions is the desired vector length.
	Dimensions int
	// Timeout bounds each embedding call (default: 30s). DashScope calls
	// otherwise block the calling turn indefinitely on a hung connection.
	Timeout time.Duration
}

// NewDashScopeEmbedder constructs a DashScopeEmbedder from the given config.
// A missing API key is a configuration error surfaced here, before any
// network call is attempted.
func NewDashScopeEmbedder(ctx context.Context, cfg *DashScopeConfig) (*DashScopeEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("embedder: dashscope requires DASHSCOPE_API_KEY")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("embedder: dashscope requires an embedding model name")
	}

	dims := cfg.Dimensions
	inner, err := dashscope.NewEmbedder(ctx, &dashscope.EmbeddingConfig{
		APIKey:     cfg.APIKey,
		Model:      cfg.Model,
		Dimensions: &dims,
	})
	if err != nil {
		return nil, fmt.Errorf("embedder: failed to create dashscope embedder: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &DashScopeEmbedder{inner: inner, timeout: timeout}, nil
}

// Embed converts a batch of texts into their corresponding embeddings.
// The returned slice is parallel to the input slice.
func (e *DashScopeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	vectors, err := e.inner.EmbedStrings(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("dashscope embedder: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("dashscope embedder: expected %d embeddings, got %d", len(texts), len(vectors))
	}

	out := make([][]float32, len(vectors))
	for i, vec := range vectors {
		v := make([]float32, len(vec))
		for j, f := range vec {
			v[j] = float32(f)
		}
		out[i] = v
	}

	return out, nil
}
