package server

import (
	"context"
	"fmt"
)

// pingable is any dependency exposing a Ping method; *rag.KnowledgeStore and
// *catalog.Catalog both satisfy it.
type pingable interface {
	Ping(ctx context.Context) error
}

// StorePinger probes the Qdrant-backed knowledge store. It satisfies the
// Pinger interface and is used by GET /api/ready.
type StorePinger struct {
	store pingable
}

// NewStorePinger constructs a StorePinger for the given knowledge store.
func NewStorePinger(store pingable) *StorePinger {
	return &StorePinger{store: store}
}

// Name returns the dependency label used in readiness responses.
func (p *StorePinger) Name() string { return "qdrant" }

// Ping delegates to the store's health check.
func (p *StorePinger) Ping(ctx context.Context) error {
	if err := p.store.Ping(ctx); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}

// CatalogPinger probes the SQLite ingestion catalog. It satisfies the Pinger
// interface and is used by GET /api/ready.
type CatalogPinger struct {
	catalog pingable
}

// NewCatalogPinger constructs a CatalogPinger for the given catalog.
func NewCatalogPinger(c pingable) *CatalogPinger {
	return &CatalogPinger{catalog: c}
}

// Name returns the dependency label used in readiness responses.
func (p *CatalogPinger) Name() string { return "catalog" }

// Ping delegates to the catalog's database ping.
func (p *CatalogPinger) Ping(ctx context.Context) error {
	if err := p.catalog.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}
