package embedder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/finkb/finkb-go/internal/rag"
)

// chatModelPrefixes are model-name prefixes that identify chat models.
// Pointing EMBEDDING_MODEL at one of these is a common misconfiguration:
// the request may even succeed on some gateways but the vectors are useless
// for retrieval.
var chatModelPrefixes = []string{
	"qwen-",
	"qwen2",
	"qwen3",
	"gpt-",
	"deepseek",
	"llama",
	"glm-",
}

// Validate performs a pre-flight check of the embedder: it embeds a short
// probe string and verifies a non-empty vector comes back. Run this before
// bulk ingestion so a bad credential or model name fails in seconds rather
// than partway through a corpus.
func Validate(ctx context.Context, e rag.Embedder, log *slog.Logger) error {
	if model := os.Getenv("EMBEDDING_MODEL"); model != "" {
		for _, prefix := range chatModelPrefixes {
			if strings.HasPrefix(strings.ToLower(model), prefix) {
				log.Warn("EMBEDDING_MODEL looks like a chat model, not an embedding model",
					"model", model,
					"hint", "use an embedding model such as text-embedding-v4")
				break
			}
		}
	}

	vectors, err := e.Embed(ctx, []string{"embedding pre-flight check"})
	if err != nil {
		return fmt.Errorf("embedder: pre-flight check failed: %w", err)
	}
	if len(vectors) != 1 || len(vectors[0]) == 0 {
		return fmt.Errorf("embedder: pre-flight check returned an empty vector")
	}

	log.Debug("embedder pre-flight check passed", "dimensions", len(vectors[0]))
	return nil
}
