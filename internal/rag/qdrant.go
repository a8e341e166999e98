package rag

import (
	"context"
	"crypto/sha256"
	"fmt"

	"github.com/qdrant/go-client/qdrant"
)

// Payload keys reserved by the store. Everything else in a point payload is
// document metadata.
const (
	payloadContent = "content"
	payloadDocID   = "doc_id"
)

// QdrantConfig holds connection parameters for the Qdrant-backed knowledge
// store.
type QdrantConfig struct {
	// Host is the Qdrant server hostname (default: localhost).
	Host string

	// Port is the Qdrant gRPC port (default: 6334).
	Port int

	// Collection is the collection name (default: "product"). Created on
	// first use if absent.
	Collection string

	// VectorSize is the dimensionality of the embeddings stored in this
	// collection. Must match the embedding model — mixing dimensions is a
	// consistency violation Qdrant rejects at upsert time.
	VectorSize uint64

	// APIKey is the optional Qdrant API key for authenticated clusters.
	APIKey string

	// UseTLS enables TLS for the gRPC connection.
	UseTLS bool
}

// KnowledgeStore implements VectorStore backed by a Qdrant collection.
// It owns the embedder: documents and queries are embedded inside the store
// so the upsert-replaces-by-ID and query-by-text contracts hold regardless
// of the caller.
type KnowledgeStore struct {
	client   *qdrant.Client
	embedder Embedder
	cfg      *QdrantConfig
}

// NewKnowledgeStore connects to Qdrant, ensures the target collection exists
// (creating it with cosine distance if necessary), and returns a ready
// store. The caller owns the store lifecycle and must Close it.
func NewKnowledgeStore(ctx context.Context, embedder Embedder, cfg *QdrantConfig) (*KnowledgeStore, error) {
	if embedder == nil {
		return nil, fmt.Errorf("rag: embedder must not be nil")
	}
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 6334
	}
	if cfg.Collection == "" {
		cfg.Collection = "product"
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("rag: failed to create qdrant client: %w", err)
	}

	store := &KnowledgeStore{client: client, embedder: embedder, cfg: cfg}
	if err := store.ensureCollection(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}

	return store, nil
}

// ensureCollection creates the collection if it does not already exist.
// Creation is idempotent across process restarts.
func (s *KnowledgeStore) ensureCollection(ctx context.Context) error {
	exists, err := s.client.CollectionExists(ctx, s.cfg.Collection)
	if err != nil {
		return fmt.Errorf("rag: failed to check collection existence: %w", err)
	}
	if exists {
		return nil
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.cfg.Collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     s.cfg.VectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("rag: failed to create collection %q: %w", s.cfg.Collection, err)
	}

	return nil
}

// Upsert embeds and writes docs, replacing entries whose IDs already exist.
// Embedding calls are split into BatchSize slices to honour the provider
// quota, and each batch is written with wait=true so a subsequent Count
// observes it.
func (s *KnowledgeStore) Upsert(ctx context.Context, docs []Document) error {
	for _, batch := range Chunk(docs, BatchSize) {
		texts := make([]string, len(batch))
		for i, doc := range batch {
			texts[i] = doc.Content
		}

		vectors, err := s.embedder.Embed(ctx, texts)
		if err != nil {
			return fmt.Errorf("rag: embedding batch failed: %w", err)
		}
		if len(vectors) != len(batch) {
			return fmt.Errorf("rag: embedder returned %d vectors for %d documents", len(vectors), len(batch))
		}

		points := make([]*qdrant.PointStruct, 0, len(batch))
		for i, doc := range batch {
			payload := map[string]any{
				payloadContent: doc.Content,
				payloadDocID:   doc.ID,
			}
			for k, v := range doc.Metadata {
				payload[k] = v
			}

			points = append(points, &qdrant.PointStruct{
				Id:      pointID(doc.ID),
				Vectors: qdrant.NewVectors(vectors[i]...),
				Payload: qdrant.NewValueMap(payload),
			})
		}

		_, err = s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: s.cfg.Collection,
			Points:         points,
			Wait:           qdrant.PtrOf(true),
		})
		if err != nil {
			return fmt.Errorf("rag: upsert failed: %w", err)
		}
	}

	return nil
}

// Query embeds text and performs a cosine similarity search, returning up
// to k documents best match first. An empty collection or a query with no
// valid neighbours yields an empty slice.
func (s *KnowledgeStore) Query(ctx context.Context, text string, k int) ([]Document, error) {
	if k <= 0 {
		k = 3
	}

	vectors, err := s.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("rag: embedding query failed: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("rag: embedder returned no vector for query")
	}

	limit := uint64(k) //nolint:gosec // k is validated positive above
	results, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.cfg.Collection,
		Query:          qdrant.NewQuery(vectors[0]...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("rag: query failed: %w", err)
	}

	docs := make([]Document, 0, len(results))
	for _, r := range results {
		doc := Document{
			Score:    r.Score,
			Metadata: make(map[string]string),
		}
		if p := r.Payload; p != nil {
			if v, ok := p[payloadContent]; ok {
				doc.Content = v.GetStringValue()
			}
			if v, ok := p[payloadDocID]; ok {
				doc.ID = v.GetStringValue()
			}
			for k, v := range p {
				if k != payloadContent && k != payloadDocID {
					doc.Metadata[k] = v.GetStringValue()
				}
			}
		}
		docs = append(docs, doc)
	}

	return docs, nil
}

// Count returns the exact number of points in the collection.
func (s *KnowledgeStore) Count(ctx context.Context) (uint64, error) {
	count, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: s.cfg.Collection,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("rag: count failed: %w", err)
	}
	return count, nil
}

// Ping checks that the Qdrant instance is reachable. Used by readiness
// probes.
func (s *KnowledgeStore) Ping(ctx context.Context) error {
	if _, err := s.client.HealthCheck(ctx); err != nil {
		return fmt.Errorf("rag: qdrant health check failed: %w", err)
	}
	return nil
}

// Close closes the underlying Qdrant gRPC connection.
func (s *KnowledgeStore) Close() error {
	return s.client.Close()
}

// pointID maps an arbitrary document ID string onto a deterministic UUID so
// that re-ingesting the same derivation inputs replaces the existing point.
// Qdrant accepts only UUIDs or unsigned integers as point IDs; the original
// string ID travels in the payload.
func pointID(docID string) *qdrant.PointId {
	h := sha256.Sum256([]byte(docID))
	uuid := fmt.Sprintf("%x-%x-%x-%x-%x", h[0:4], h[4:6], h[6:8], h[8:10], h[10:16])
	return qdrant.NewIDUUID(uuid)
}
