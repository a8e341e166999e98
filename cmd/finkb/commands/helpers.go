package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/cloudwego/eino/components/tool"

	"github.com/finkb/finkb-go/internal/agent"
	"github.com/finkb/finkb-go/internal/catalog"
	"github.com/finkb/finkb-go/internal/embedder"
	"github.com/finkb/finkb-go/internal/provider"
	"github.com/finkb/finkb-go/internal/rag"
	"github.com/finkb/finkb-go/internal/tools"
)

// buildStore constructs the embedder and the Qdrant-backed knowledge store
// from environment variables. The embedder is returned alongside the store
// so callers can pre-flight it. The caller owns the store and must Close it.
func buildStore(ctx context.Context, log *slog.Logger) (*rag.KnowledgeStore, rag.Embedder, error) {
	emb, err := embedder.NewFromEnv(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialise embedder: %w", err)
	}

	host := getEnvOrDefault("QDRANT_HOST", "localhost")
	port := getEnvInt("QDRANT_PORT", 6334)
	collection := getEnvOrDefault("QDRANT_COLLECTION", "product")
	backend := getEnvOrDefault("EMBEDDING_PROVIDER", "dashscope")
	vectorSize := uint64(embedder.DefaultDimensions(backend)) //nolint:gosec // dimensions are bounded

	store, err := rag.NewKnowledgeStore(ctx, emb, &rag.QdrantConfig{
		Host:       host,
		Port:       port,
		Collection: collection,
		VectorSize: vectorSize,
		APIKey:     os.Getenv("QDRANT_API_KEY"),
		UseTLS:     os.Getenv("QDRANT_TLS") == "true",
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to Qdrant at %s:%d: %w", host, port, err)
	}

	log.Info("knowledge store ready",
		slog.String("host", host), slog.Int("port", port),
		slog.String("collection", collection))
	return store, emb, nil
}

// buildAssistant constructs the chat model, the tool set, and the assistant.
// Web search is attached when BOCHA_API_KEY is configured.
func buildAssistant(ctx context.Context, store *rag.KnowledgeStore, log *slog.Logger) (*agent.Assistant, error) {
	chatModel, err := provider.NewFromEnv(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialise model provider: %w", err)
	}

	toolList := []tool.BaseTool{tools.NewSearchTool(store, 0)}

	webTools, err := tools.NewWebSearchTools(ctx, log)
	if err != nil {
		// A broken web search connector degrades the assistant but should
		// not prevent knowledge base answers.
		log.Warn("web search unavailable", "error", err)
	}
	toolList = append(toolList, webTools...)

	assistant, err := agent.New(ctx, &agent.Config{
		ChatModel: chatModel,
		Tools:     toolList,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialise agent: %w", err)
	}
	return assistant, nil
}

// openCatalog opens the ingestion run ledger. FINKB_CATALOG_DB overrides the
// default path (~/.finkb/catalog.db); "disabled" turns the ledger off and
// returns (nil, nil).
func openCatalog(log *slog.Logger) (*catalog.Catalog, error) {
	path := getEnvOrDefault("FINKB_CATALOG_DB", catalog.DefaultDBPath())
	if path == "disabled" {
		log.Info("ingestion catalog disabled")
		return nil, nil
	}
	c, err := catalog.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog at %s: %w", path, err)
	}
	return c, nil
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
