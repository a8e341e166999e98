package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/finkb/finkb-go/internal/rag"
)

// ---------------------------------------------------------------------------
// Fakes
// ---------------------------------------------------------------------------

// fakeQuerier implements the querier interface for tests.
type fakeQuerier struct {
	// response is written verbatim to the writer on each Query call.
	response string
	// err is returned as the error value.
	err error
}

func (f *fakeQuerier) Query(_ context.Context, _ string, w io.Writer) error {
	if f.err != nil {
		return f.err
	}
	_, _ = fmt.Fprint(w, f.response)
	return nil
}

// fakeSearcher implements the searcher interface for tests.
type fakeSearcher struct {
	docs []rag.Document
	err  error
	gotK int
}

func (f *fakeSearcher) Query(_ context.Context, _ string, k int) ([]rag.Document, error) {
	f.gotK = k
	return f.docs, f.err
}

func (f *fakeSearcher) Count(_ context.Context) (uint64, error) {
	return uint64(len(f.docs)), nil
}

// newTestServer builds a *Server with fakes and a hermetic metrics registry.
func newTestServer(t *testing.T, q querier, s searcher) *Server {
	t.Helper()
	if s == nil {
		s = &fakeSearcher{}
	}
	srv, err := New(q, s, &Config{
		Logger:   slog.Default(),
		Registry: prometheus.NewRegistry(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(srv.stopRL)
	return srv
}

// ---------------------------------------------------------------------------
// POST /api/chat
// ---------------------------------------------------------------------------

func TestHandleChat_MissingMessage(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakeQuerier{}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{}`))
	w := httptest.NewRecorder()

	s.handleChat(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestHandleChat_InvalidJSON(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakeQuerier{}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`not-json`))
	w := httptest.NewRecorder()

	s.handleChat(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestHandleChat_NoModel(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/chat",
		strings.NewReader(`{"message":"hi"}`))
	w := httptest.NewRecorder()

	s.handleChat(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 when no chat model is wired, got %d", w.Code)
	}
}

func TestHandleChat_StreamsSSE(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakeQuerier{response: "The rate is 4.5%"}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/chat",
		strings.NewReader(`{"message":"what is the personal loan rate"}`))
	w := httptest.NewRecorder()

	s.handleChat(w, req)

	body := w.Body.String()
	if got := w.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Errorf("Content-Type = %q", got)
	}
	if !strings.Contains(body, "data: The rate is 4.5%") {
		t.Errorf("body missing SSE data frame:\n%s", body)
	}
	if !strings.Contains(body, "event: done") {
		t.Errorf("body missing done event:\n%s", body)
	}
}

func TestHandleChat_AgentError(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakeQuerier{err: fmt.Errorf("model unavailable")}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/chat",
		strings.NewReader(`{"message":"hi"}`))
	w := httptest.NewRecorder()

	s.handleChat(w, req)

	if !strings.Contains(w.Body.String(), "event: error") {
		t.Errorf("body missing error event:\n%s", w.Body.String())
	}
}

// ---------------------------------------------------------------------------
// POST /api/search
// ---------------------------------------------------------------------------

func TestHandleSearch_ReturnsDocuments(t *testing.T) {
	t.Parallel()

	fs := &fakeSearcher{docs: []rag.Document{
		{ID: "loan1", Content: "Product name: Personal Loan", Score: 0.92,
			Metadata: map[string]string{"type": "product"}},
	}}
	s := newTestServer(t, nil, fs)

	req := httptest.NewRequest(http.MethodPost, "/api/search",
		strings.NewReader(`{"query":"personal loan","n_results":5}`))
	w := httptest.NewRecorder()

	s.handleSearch(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if fs.gotK != 5 {
		t.Errorf("k = %d, want 5", fs.gotK)
	}

	var resp searchResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Results) != 1 {
		t.Fatalf("got %d results, want 1", len(resp.Results))
	}
	if resp.Results[0].ID != "loan1" || resp.Results[0].Score != 0.92 {
		t.Errorf("result = %+v", resp.Results[0])
	}
	if resp.Results[0].Metadata["type"] != "product" {
		t.Errorf("metadata = %v", resp.Results[0].Metadata)
	}
}

func TestHandleSearch_MissingQuery(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/search", strings.NewReader(`{}`))
	w := httptest.NewRecorder()

	s.handleSearch(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestHandleSearch_StoreError(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil, &fakeSearcher{err: fmt.Errorf("qdrant down")})
	req := httptest.NewRequest(http.MethodPost, "/api/search",
		strings.NewReader(`{"query":"q"}`))
	w := httptest.NewRecorder()

	s.handleSearch(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
}

// ---------------------------------------------------------------------------
// GET /api/health
// ---------------------------------------------------------------------------

func TestHandleHealth(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()

	s.handleHealth(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Errorf("body = %s", w.Body.String())
	}
}
