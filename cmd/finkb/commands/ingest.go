package commands

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/finkb/finkb-go/internal/embedder"
	"github.com/finkb/finkb-go/internal/ingestion"
	"github.com/finkb/finkb-go/internal/logging"
)

// NewIngestCmd constructs the `finkb ingest` command, which loads product
// and QA JSON files into the Qdrant vector store.
func NewIngestCmd() *cobra.Command {
	var productsDir string
	var qaDir string
	var verify bool

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Ingest product and QA files into the knowledge base",
		Long: `Load product sheets and FAQ entries from JSON files into the Qdrant
vector store.

Document IDs are derived deterministically from file names and content, so
re-running ingest over the same corpus replaces existing entries rather
than duplicating them. Files that fail to parse are logged and skipped;
the rest of the run continues.

Each run is recorded in the ingestion catalog (~/.finkb/catalog.db) with a
per-file audit trail. Set FINKB_CATALOG_DB=disabled to turn this off.

Required environment variables:
  DASHSCOPE_API_KEY    Embedding provider credential
  QDRANT_HOST          Qdrant server hostname (default: localhost)
  QDRANT_PORT          Qdrant gRPC port (default: 6334)
  QDRANT_COLLECTION    Collection name (default: product)

Examples:
  finkb ingest
  finkb ingest --products-dir ./data/products --qa-dir ./data/qa
  finkb ingest --verify`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			if verify {
				return verifyLastRun(ctx, log)
			}

			if productsDir == "" {
				productsDir = getEnvOrDefault("FINKB_PRODUCTS_DIR", "data/products")
			}
			if qaDir == "" {
				qaDir = getEnvOrDefault("FINKB_QA_DIR", "data/qa")
			}

			store, emb, err := buildStore(ctx, log)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}
			defer store.Close()

			// Pre-flight the embedder so a bad credential fails in seconds,
			// not partway through the corpus.
			if err := embedder.Validate(ctx, emb, log); err != nil {
				return fmt.Errorf("ingest: %w", err)
			}

			cat, err := openCatalog(log)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}

			var rec ingestion.Recorder
			var finish func(products, qas, skipped int, failed bool)
			if cat != nil {
				defer cat.Close()
				run, err := cat.StartRun(ctx)
				if err != nil {
					return fmt.Errorf("ingest: %w", err)
				}
				rec = run
				finish = func(products, qas, skipped int, failed bool) {
					if err := run.Finish(ctx, products, qas, skipped, failed); err != nil {
						log.Warn("failed to finalise catalog run", "error", err)
					}
				}
			}

			pipeline := ingestion.New(store, ingestion.Config{
				ProductsDir: productsDir,
				QADir:       qaDir,
			}, log, rec)

			log.Info("starting ingestion",
				slog.String("products_dir", productsDir),
				slog.String("qa_dir", qaDir))

			report, runErr := pipeline.IngestAll(ctx)
			if finish != nil {
				finish(report.Products, report.QAs, report.Skipped, runErr != nil)
			}
			if runErr != nil {
				return fmt.Errorf("ingest: %w", runErr)
			}

			total, err := store.Count(ctx)
			if err != nil {
				log.Warn("failed to count collection", "error", err)
			}

			fmt.Printf("Ingested %d product documents and %d QA documents (%d files skipped).\n",
				report.Products, report.QAs, report.Skipped)
			if err == nil {
				fmt.Printf("Collection now holds %d documents.\n", total)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&productsDir, "products-dir", "", "Directory of product JSON files (default: data/products)")
	cmd.Flags().StringVar(&qaDir, "qa-dir", "", "Directory of QA JSON files (default: data/qa)")
	cmd.Flags().BoolVar(&verify, "verify", false, "Print the last recorded ingestion run instead of ingesting")

	return cmd
}

// verifyLastRun prints the most recent run from the ingestion catalog,
// including its per-file audit trail. It touches neither the embedder nor
// the vector store.
func verifyLastRun(ctx context.Context, log *slog.Logger) error {
	cat, err := openCatalog(log)
	if err != nil {
		return fmt.Errorf("ingest --verify: %w", err)
	}
	if cat == nil {
		return fmt.Errorf("ingest --verify: catalog is disabled (FINKB_CATALOG_DB=disabled)")
	}
	defer cat.Close()

	run, err := cat.LastRun(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		fmt.Println("No ingestion runs recorded yet.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("ingest --verify: %w", err)
	}

	fmt.Printf("Run %d: %s (started %s)\n", run.ID, run.Status, run.StartedAt.Format(time.RFC3339))
	fmt.Printf("  products: %d  qa: %d  skipped: %d\n", run.Products, run.QAs, run.Skipped)

	files, err := cat.Files(ctx, run.ID)
	if err != nil {
		return fmt.Errorf("ingest --verify: %w", err)
	}
	for _, f := range files {
		fmt.Printf("  [%s] %-8s %s", f.Category, f.Status, f.Path)
		if f.Status == ingestion.StatusSkipped && f.Detail != "" {
			fmt.Printf(" (%s)", f.Detail)
		}
		fmt.Println()
	}
	return nil
}
