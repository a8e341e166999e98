// Package ingestion loads product and QA knowledge files from disk and
// writes them into the vector store. Each JSON file becomes one or more
// documents with deterministic IDs, so running the pipeline twice over the
// same corpus replaces rather than duplicates.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/finkb/finkb-go/internal/rag"
)

// ErrEmptyDocument marks a file that parsed as valid JSON but produced no
// embeddable text. Such files are skipped, not ingested as empty points.
var ErrEmptyDocument = errors.New("document has no content")

// File statuses recorded per ingested path.
const (
	StatusIngested = "ingested"
	StatusSkipped  = "skipped"
)

// Recorder receives a per-file audit trail of the run. Implementations must
// tolerate being called once per discovered file.
type Recorder interface {
	RecordFile(ctx context.Context, category, path, status, detail string) error
}

// Config holds pipeline settings.
type Config struct {
	// ProductsDir is the directory scanned for product *.json files.
	ProductsDir string

	// QADir is the directory scanned for QA *.json files.
	QADir string

	// BatchSize caps how many documents are handed to the store per upsert
	// call (default: rag.BatchSize). The store enforces the embedding quota
	// again internally; the pipeline batches too so one failed batch loses
	// at most BatchSize documents of progress.
	BatchSize int
}

// Report summarises an ingestion run.
type Report struct {
	// Products is the number of product documents written.
	Products int
	// QAs is the number of question/answer documents written.
	QAs int
	// Skipped is the number of files skipped due to per-file errors.
	Skipped int
}

// Pipeline ingests knowledge files into a vector store.
type Pipeline struct {
	store rag.VectorStore
	cfg   Config
	log   *slog.Logger
	rec   Recorder
}

// New constructs a Pipeline. rec may be nil when no per-file audit trail is
// wanted.
func New(store rag.VectorStore, cfg Config, log *slog.Logger, rec Recorder) *Pipeline {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = rag.BatchSize
	}
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{store: store, cfg: cfg, log: log, rec: rec}
}

// IngestAll runs the product and QA pipelines in order and merges their
// reports. Each category runs to completion even if the other fails; errors
// are joined.
func (p *Pipeline) IngestAll(ctx context.Context) (Report, error) {
	var report Report

	prodReport, prodErr := p.IngestProducts(ctx)
	report.Products = prodReport.Products
	report.Skipped += prodReport.Skipped

	qaReport, qaErr := p.IngestQA(ctx)
	report.QAs = qaReport.QAs
	report.Skipped += qaReport.Skipped

	return report, errors.Join(prodErr, qaErr)
}

// IngestProducts scans the products directory and upserts one document per
// parseable file. Files that fail to parse or carry no content are logged,
// counted as skipped, and do not stop the run. A store or embedding failure
// does stop the run: it affects every remaining document equally.
func (p *Pipeline) IngestProducts(ctx context.Context) (Report, error) {
	var report Report

	paths, err := p.discover(p.cfg.ProductsDir, "products")
	if err != nil {
		return report, err
	}

	var docs []rag.Document
	for _, path := range paths {
		doc, err := loadProduct(path)
		if err != nil {
			p.skipFile(ctx, "products", path, err)
			report.Skipped++
			continue
		}
		docs = append(docs, doc)
		p.recordFile(ctx, "products", path, StatusIngested, doc.ID)
	}

	if err := p.upsert(ctx, docs); err != nil {
		return report, fmt.Errorf("ingest products: %w", err)
	}

	report.Products = len(docs)
	p.log.Info("product ingestion complete",
		"ingested", report.Products, "skipped", report.Skipped)
	return report, nil
}

// IngestQA scans the QA directory and upserts the documents of every
// parseable file. Per-file errors skip the file; store failures abort.
func (p *Pipeline) IngestQA(ctx context.Context) (Report, error) {
	var report Report

	paths, err := p.discover(p.cfg.QADir, "qa")
	if err != nil {
		return report, err
	}

	var docs []rag.Document
	for _, path := range paths {
		fileDocs, err := loadQA(path)
		if err != nil {
			p.skipFile(ctx, "qa", path, err)
			report.Skipped++
			continue
		}
		docs = append(docs, fileDocs...)
		p.recordFile(ctx, "qa", path, StatusIngested, fmt.Sprintf("%d entries", len(fileDocs)))
	}

	if err := p.upsert(ctx, docs); err != nil {
		return report, fmt.Errorf("ingest qa: %w", err)
	}

	report.QAs = len(docs)
	p.log.Info("qa ingestion complete",
		"ingested", report.QAs, "skipped", report.Skipped)
	return report, nil
}

// discover lists the *.json files of dir in sorted order. A missing
// directory is not an error: the category is simply empty.
func (p *Pipeline) discover(dir, category string) ([]string, error) {
	if dir == "" {
		return nil, nil
	}
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		p.log.Warn("knowledge directory does not exist, skipping",
			"category", category, "dir", dir)
		return nil, nil
	}

	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	sort.Strings(paths)

	p.log.Debug("discovered knowledge files",
		"category", category, "dir", dir, "count", len(paths))
	return paths, nil
}

// upsert writes docs to the store in BatchSize slices, preserving
// discovery order across batch boundaries.
func (p *Pipeline) upsert(ctx context.Context, docs []rag.Document) error {
	for _, batch := range rag.Chunk(docs, p.cfg.BatchSize) {
		if err := p.store.Upsert(ctx, batch); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) skipFile(ctx context.Context, category, path string, err error) {
	p.log.Warn("skipping file", "category", category, "path", path, "error", err)
	p.recordFile(ctx, category, path, StatusSkipped, err.Error())
}

func (p *Pipeline) recordFile(ctx context.Context, category, path, status, detail string) {
	if p.rec == nil {
		return
	}
	if err := p.rec.RecordFile(ctx, category, path, status, detail); err != nil {
		p.log.Warn("failed to record file in catalog", "path", path, "error", err)
	}
}
