package commands

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cloudwego/eino/callbacks"
	"github.com/spf13/cobra"

	"github.com/finkb/finkb-go/internal/logging"
	"github.com/finkb/finkb-go/internal/server"
	"github.com/finkb/finkb-go/internal/tracing"
)

// NewServeCmd constructs the `finkb serve` command, which starts the HTTP
// server exposing the assistant and the knowledge base.
func NewServeCmd() *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the FinKB HTTP server",
		Long: `Start the FinKB HTTP server on localhost.

The server exposes:
  POST /api/chat    — streaming assistant responses (SSE)
  POST /api/search  — direct knowledge base lookups
  GET  /api/health  — liveness
  GET  /api/ready   — readiness (probes Qdrant and the catalog)
  GET  /metrics     — Prometheus metrics

Set FINKB_API_KEY to require Bearer authentication on /api/chat and
/api/search.

Examples:
  finkb serve
  finkb serve --port 9090`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			log.Info("serve starting", slog.String("provider", os.Getenv("MODEL_PROVIDER")))

			// Langfuse tracing is opt-in; no-op when keys are absent.
			handler, flush, ok := tracing.Setup()
			if ok {
				callbacks.AppendGlobalHandlers(handler)
				defer flush()
				log.Info("langfuse tracing enabled")
			} else {
				log.Info("langfuse tracing disabled", slog.String("reason", "LANGFUSE_PUBLIC_KEY not set"))
			}

			store, _, err := buildStore(ctx, log)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			defer store.Close()

			pingers := []server.Pinger{server.NewStorePinger(store)}

			cat, err := openCatalog(log)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			if cat != nil {
				defer cat.Close()
				pingers = append(pingers, server.NewCatalogPinger(cat))
			}

			assistant, err := buildAssistant(ctx, store, log)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}

			srv, err := server.New(assistant, store, &server.Config{
				Host:    host,
				Port:    port,
				Logger:  log,
				Pingers: pingers,
				APIKey:  os.Getenv("FINKB_API_KEY"),
			})
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}

			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "Address to bind to")
	cmd.Flags().IntVarP(&port, "port", "p", 8080, "TCP port to listen on")

	return cmd
}
