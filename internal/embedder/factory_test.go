package embedder

import (
	"context"
	"strings"
	"testing"
)

func TestNewFromEnv_DashScopeRequiresKey(t *testing.T) {
	t.Setenv("EMBEDDING_PROVIDER", "dashscope")
	t.Setenv("DASHSCOPE_API_KEY", "")

	_, err := NewFromEnv(context.Background())
	if err == nil {
		t.Fatal("expected error when DASHSCOPE_API_KEY is unset")
	}
	if !strings.Contains(err.Error(), "DASHSCOPE_API_KEY") {
		t.Errorf("error %q does not name the missing variable", err)
	}
}

func TestNewFromEnv_OpenAIFallsBackToDashScopeKey(t *testing.T) {
	t.Setenv("EMBEDDING_PROVIDER", "openai")
	t.Setenv("EMBEDDING_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("DASHSCOPE_API_KEY", "ds-key")

	e, err := NewFromEnv(context.Background())
	if err != nil {
		t.Fatalf("NewFromEnv: %v", err)
	}
	oe, ok := e.(*OpenAIEmbedder)
	if !ok {
		t.Fatalf("got %T, want *OpenAIEmbedder", e)
	}
	if oe.apiKey != "ds-key" {
		t.Errorf("apiKey = %q, want fallback to DASHSCOPE_API_KEY", oe.apiKey)
	}
	if oe.baseURL != dashScopeCompatBaseURL {
		t.Errorf("baseURL = %q, want DashScope compatible-mode default", oe.baseURL)
	}
}

func TestNewFromEnv_UnknownBackend(t *testing.T) {
	t.Setenv("EMBEDDING_PROVIDER", "chromadb")

	_, err := NewFromEnv(context.Background())
	if err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestDefaultDimensions(t *testing.T) {
	t.Setenv("EMBEDDING_DIMENSIONS", "")
	if got := DefaultDimensions("dashscope"); got != 1024 {
		t.Errorf("DefaultDimensions = %d, want 1024", got)
	}

	t.Setenv("EMBEDDING_DIMENSIONS", "768")
	if got := DefaultDimensions("openai"); got != 768 {
		t.Errorf("DefaultDimensions with override = %d, want 768", got)
	}
}
