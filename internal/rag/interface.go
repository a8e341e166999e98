// Package rag defines the contracts of the retrieval subsystem: documents,
// embedding, and vector storage. Concrete implementations (Qdrant store,
// DashScope embedder, etc.) satisfy these interfaces so the ingestion
// pipeline and the agent-facing search tool never depend on a specific
// backend.
package rag

import (
	"context"
)

// BatchSize is the maximum number of texts that may be submitted to the
// embedding API in a single call. This is a quota imposed by the DashScope
// embedding endpoint, not a tuning knob — exceeding it fails at the remote
// boundary.
const BatchSize = 10

// Document is one unit of knowledge stored in or retrieved from the
// collection.
type Document struct {
	// ID is the unique identifier of the document within the collection.
	// Re-upserting the same ID replaces the previous entry.
	ID string

	// Content is the rendered text of the document. Never empty for a
	// stored document.
	Content string

	// Metadata holds flat string key-value pairs. Every stored document
	// carries a "type" key ("product" or "qa").
	Metadata map[string]string

	// Score is the similarity score assigned at query time (higher is
	// more similar). Zero for documents that were not retrieved.
	Score float32
}

// Embedder converts text into dense vector embeddings.
// Implementations must be safe to call from multiple goroutines and must
// never be handed more than BatchSize texts per call.
type Embedder interface {
	// Embed converts a batch of texts into their corresponding embeddings.
	// The returned slice is parallel to the input slice.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorStore persists documents with their embeddings and answers
// similarity queries. Implementations embed internally on both the write
// and the read path, so callers deal only in text.
// Implementations must be safe to call from multiple goroutines.
type VectorStore interface {
	// Upsert stores or replaces the given documents by ID. The store
	// computes embeddings itself, splitting into BatchSize slices when
	// the caller did not. For each document, vector, content, and
	// metadata are written together — a partially written entry is
	// never observable.
	Upsert(ctx context.Context, docs []Document) error

	// Query embeds text and returns up to k documents ordered best match
	// first. An empty result is returned as an empty slice, not an error.
	Query(ctx context.Context, text string, k int) ([]Document, error)

	// Count returns the total number of entries in the collection.
	Count(ctx context.Context) (uint64, error)

	// Close releases any resources held by the store.
	Close() error
}
