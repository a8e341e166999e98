package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/finkb/finkb-go/internal/rag"
)

// Config holds the HTTP server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1).
	Host string
	// Port is the TCP port to listen on (default: 8080).
	Port int
	// ReadTimeout is the maximum duration for reading the request.
	ReadTimeout time.Duration
	// WriteTimeout is the maximum duration for writing the response.
	WriteTimeout time.Duration
	// ShutdownTimeout is the maximum duration for a graceful shutdown.
	ShutdownTimeout time.Duration
	// Logger is the structured logger used by the server and its handlers.
	// If nil, [logging.New] is used.
	Logger *slog.Logger
	// Pingers is the ordered list of dependency probes run by GET /api/ready.
	// If empty, /api/ready returns 200 with no checks (liveness-only mode).
	Pingers []Pinger
	// RateLimit is the sustained request rate allowed per IP on rate-limited
	// endpoints (requests/second). Defaults to 10 if zero.
	RateLimit float64
	// RateBurst is the maximum instantaneous burst per IP. Defaults to 20 if zero.
	RateBurst int
	// APIKey is the Bearer token required on all protected /api/* routes.
	// If empty, authentication is disabled (development mode).
	APIKey string
	// Registry receives the server's Prometheus metrics. If nil, a fresh
	// registry is created; /metrics serves whichever registry is in use.
	Registry registerGatherer
}

// querier is the interface handleChat calls to stream a response.
// *agent.Assistant satisfies it; tests inject a fake.
type querier interface {
	// Query streams the agent response for userMessage to w.
	Query(ctx context.Context, userMessage string, w io.Writer) error
}

// searcher is the interface handleSearch uses for direct knowledge base
// queries. *rag.KnowledgeStore satisfies it; tests inject a fake.
type searcher interface {
	Query(ctx context.Context, text string, k int) ([]rag.Document, error)
	Count(ctx context.Context) (uint64, error)
}

// Server is the HTTP server exposing the assistant and the knowledge base.
type Server struct {
	// querier streams chat responses; nil disables POST /api/chat.
	querier querier
	// searcher serves direct knowledge base lookups.
	searcher searcher
	// cfg holds the resolved server configuration.
	cfg *Config
	// httpServer is the underlying net/http server.
	httpServer *http.Server
	// log is the structured logger for this server instance.
	log *slog.Logger
	// pingers is the ordered list of dependency probes for GET /api/ready.
	pingers []Pinger
	// metrics holds the server's Prometheus instruments.
	metrics *serverMetrics
	// stopRL stops the rate limiter's background eviction goroutine on shutdown.
	stopRL func()
}

// chatRequest is the JSON body for POST /api/chat.
type chatRequest struct {
	// Message is the user's natural language query.
	Message string `json:"message"`
}

// searchRequest is the JSON body for POST /api/search.
type searchRequest struct {
	// Query is the natural-language search text.
	Query string `json:"query"`
	// NResults is how many documents to retrieve (default: 3).
	NResults int `json:"n_results"`
}

// searchResult is one document in a search response.
type searchResult struct {
	// ID is the document's stable identifier.
	ID string `json:"id"`
	// Content is the document text.
	Content string `json:"content"`
	// Score is the cosine similarity score.
	Score float32 `json:"score"`
	// Metadata holds the document's metadata fields.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// searchResponse is the JSON body for POST /api/search responses.
type searchResponse struct {
	// Results holds the retrieved documents, best match first.
	Results []searchResult `json:"results"`
}
