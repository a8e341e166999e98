package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/finkb/finkb-go/internal/rag"
)

// fakeStore records every upsert batch it receives.
type fakeStore struct {
	batches [][]rag.Document
	failAt  int // fail on the Nth call (1-based); 0 = never
	calls   int
}

func (f *fakeStore) Upsert(ctx context.Context, docs []rag.Document) error {
	f.calls++
	if f.failAt > 0 && f.calls == f.failAt {
		return fmt.Errorf("store unavailable")
	}
	batch := make([]rag.Document, len(docs))
	copy(batch, docs)
	f.batches = append(f.batches, batch)
	return nil
}

func (f *fakeStore) Query(ctx context.Context, text string, k int) ([]rag.Document, error) {
	return nil, nil
}

func (f *fakeStore) Count(ctx context.Context) (uint64, error) {
	var n uint64
	for _, b := range f.batches {
		n += uint64(len(b))
	}
	return n, nil
}

func (f *fakeStore) Close() error { return nil }

func (f *fakeStore) all() []rag.Document {
	var docs []rag.Document
	for _, b := range f.batches {
		docs = append(docs, b...)
	}
	return docs
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestIngestProducts_BatchesOfTen(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for i := 0; i < 25; i++ {
		writeFile(t, dir, fmt.Sprintf("p%02d.json", i),
			fmt.Sprintf(`{"id":"p%02d","name":"Product %d","description":"A loan product"}`, i, i))
	}

	store := &fakeStore{}
	p := New(store, Config{ProductsDir: dir}, testLogger(), nil)

	report, err := p.IngestProducts(context.Background())
	if err != nil {
		t.Fatalf("IngestProducts: %v", err)
	}
	if report.Products != 25 {
		t.Errorf("Products = %d, want 25", report.Products)
	}

	sizes := make([]int, len(store.batches))
	for i, b := range store.batches {
		sizes[i] = len(b)
	}
	want := []int{10, 10, 5}
	if len(sizes) != len(want) {
		t.Fatalf("got %d batches %v, want %v", len(sizes), sizes, want)
	}
	for i := range want {
		if sizes[i] != want[i] {
			t.Errorf("batch %d has %d docs, want %d", i, sizes[i], want[i])
		}
	}

	// Discovery order (sorted file names) must survive batch boundaries.
	docs := store.all()
	for i, doc := range docs {
		if want := fmt.Sprintf("p%02d", i); doc.ID != want {
			t.Fatalf("docs[%d].ID = %q, want %q", i, doc.ID, want)
		}
	}
}

func TestIngestProducts_SkipsMalformedFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for i := 0; i < 9; i++ {
		writeFile(t, dir, fmt.Sprintf("ok%d.json", i),
			fmt.Sprintf(`{"name":"Product %d"}`, i))
	}
	writeFile(t, dir, "broken.json", `{"name": "unterminated`)

	store := &fakeStore{}
	p := New(store, Config{ProductsDir: dir}, testLogger(), nil)

	report, err := p.IngestProducts(context.Background())
	if err != nil {
		t.Fatalf("IngestProducts: %v", err)
	}
	if report.Products != 9 {
		t.Errorf("Products = %d, want 9", report.Products)
	}
	if report.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", report.Skipped)
	}
}

func TestIngestProducts_SkipsEmptyDocument(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "empty.json", `{}`)
	writeFile(t, dir, "good.json", `{"name":"Savings Account"}`)

	store := &fakeStore{}
	p := New(store, Config{ProductsDir: dir}, testLogger(), nil)

	report, err := p.IngestProducts(context.Background())
	if err != nil {
		t.Fatalf("IngestProducts: %v", err)
	}
	if report.Products != 1 || report.Skipped != 1 {
		t.Errorf("report = %+v, want 1 ingested, 1 skipped", report)
	}
}

func TestIngestProducts_RenderedContent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "loan1.json",
		`{"name":"Personal Loan","category":"loan","description":"Unsecured consumer credit","interest_rate":"4.5%","max_amount":"200000","max_term":"5 years"}`)

	store := &fakeStore{}
	p := New(store, Config{ProductsDir: dir}, testLogger(), nil)

	if _, err := p.IngestProducts(context.Background()); err != nil {
		t.Fatalf("IngestProducts: %v", err)
	}

	docs := store.all()
	if len(docs) != 1 {
		t.Fatalf("got %d docs, want 1", len(docs))
	}
	doc := docs[0]

	if doc.ID != "loan1" {
		t.Errorf("ID = %q, want file stem fallback %q", doc.ID, "loan1")
	}
	if !strings.Contains(doc.Content, "Personal Loan") {
		t.Errorf("content missing product name:\n%s", doc.Content)
	}
	if !strings.Contains(doc.Content, "4.5%") {
		t.Errorf("content missing interest rate:\n%s", doc.Content)
	}
	if doc.Metadata["type"] != "product" {
		t.Errorf("metadata type = %q, want product", doc.Metadata["type"])
	}
	if doc.Metadata["name"] != "Personal Loan" {
		t.Errorf("metadata name = %q", doc.Metadata["name"])
	}
}

func TestIngestProducts_BlankFieldsRenderEmptySegments(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "sparse.json", `{"name":"Personal Loan"}`)

	store := &fakeStore{}
	p := New(store, Config{ProductsDir: dir}, testLogger(), nil)

	if _, err := p.IngestProducts(context.Background()); err != nil {
		t.Fatalf("IngestProducts: %v", err)
	}

	docs := store.all()
	if len(docs) != 1 {
		t.Fatalf("got %d docs, want 1", len(docs))
	}

	// The template shape is fixed: every label appears even when its value
	// is blank, so sparse and complete records embed consistently.
	want := "Product name: Personal Loan\n" +
		"Category: \n" +
		"Description: \n" +
		"Interest rate: \n" +
		"Maximum amount: \n" +
		"Maximum term: "
	if docs[0].Content != want {
		t.Errorf("content = %q, want %q", docs[0].Content, want)
	}
}

func TestIngestProducts_MissingDirIsEmpty(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	p := New(store, Config{ProductsDir: filepath.Join(t.TempDir(), "nope")}, testLogger(), nil)

	report, err := p.IngestProducts(context.Background())
	if err != nil {
		t.Fatalf("IngestProducts: %v", err)
	}
	if report.Products != 0 || report.Skipped != 0 {
		t.Errorf("report = %+v, want empty", report)
	}
	if len(store.batches) != 0 {
		t.Errorf("expected no upserts, got %d", len(store.batches))
	}
}

func TestIngestProducts_StoreFailureAborts(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for i := 0; i < 15; i++ {
		writeFile(t, dir, fmt.Sprintf("p%02d.json", i), fmt.Sprintf(`{"name":"P%d"}`, i))
	}

	store := &fakeStore{failAt: 2}
	p := New(store, Config{ProductsDir: dir}, testLogger(), nil)

	_, err := p.IngestProducts(context.Background())
	if err == nil {
		t.Fatal("expected error when the store fails")
	}
	if len(store.batches) != 1 {
		t.Errorf("got %d successful batches, want 1", len(store.batches))
	}
}

func TestIngestQA_NestedAndFlat(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "faq.json", `{
		"loans": [
			{"question":"What is the maximum loan term?","answer":"5 years"},
			{"question":"Is early repayment allowed?","answer":"Yes, without penalty"}
		],
		"accounts": [
			{"question":"How do I open an account?","answer":"Visit any branch"}
		]
	}`)
	writeFile(t, dir, "single.json",
		`{"question":"What are the opening hours?","answer":"9am to 5pm"}`)

	store := &fakeStore{}
	p := New(store, Config{QADir: dir}, testLogger(), nil)

	report, err := p.IngestQA(context.Background())
	if err != nil {
		t.Fatalf("IngestQA: %v", err)
	}
	if report.QAs != 4 {
		t.Errorf("QAs = %d, want 4", report.QAs)
	}

	ids := make(map[string]bool)
	for _, doc := range store.all() {
		if ids[doc.ID] {
			t.Errorf("duplicate document ID %q", doc.ID)
		}
		ids[doc.ID] = true
	}
	for _, want := range []string{"faq_accounts_0", "faq_loans_0", "faq_loans_1", "single"} {
		if !ids[want] {
			t.Errorf("missing document ID %q, got %v", want, ids)
		}
	}

	// Nested entries inherit their category key into the rendered content,
	// so queries naming the category match on the vector.
	for _, doc := range store.all() {
		switch doc.ID {
		case "faq_loans_0", "faq_loans_1":
			if !strings.Contains(doc.Content, "Category: loans") {
				t.Errorf("%s content missing category:\n%s", doc.ID, doc.Content)
			}
		case "faq_accounts_0":
			if !strings.Contains(doc.Content, "Category: accounts") {
				t.Errorf("%s content missing category:\n%s", doc.ID, doc.Content)
			}
		}
	}
}

func TestIngestQA_MetadataAndContent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "hours.json",
		`{"question":"When are you open?","answer":"Weekdays","category":"general"}`)

	store := &fakeStore{}
	p := New(store, Config{QADir: dir}, testLogger(), nil)

	if _, err := p.IngestQA(context.Background()); err != nil {
		t.Fatalf("IngestQA: %v", err)
	}

	docs := store.all()
	if len(docs) != 1 {
		t.Fatalf("got %d docs, want 1", len(docs))
	}
	doc := docs[0]

	if !strings.Contains(doc.Content, "Category: general") {
		t.Errorf("content missing category:\n%s", doc.Content)
	}
	if !strings.Contains(doc.Content, "Question: When are you open?") {
		t.Errorf("content missing question:\n%s", doc.Content)
	}
	if !strings.Contains(doc.Content, "Answer: Weekdays") {
		t.Errorf("content missing answer:\n%s", doc.Content)
	}
	if doc.Metadata["type"] != "qa" {
		t.Errorf("metadata type = %q", doc.Metadata["type"])
	}
	if doc.Metadata["category"] != "general" {
		t.Errorf("metadata category = %q", doc.Metadata["category"])
	}
}

func TestIngestAll_MergesReports(t *testing.T) {
	t.Parallel()

	prodDir := t.TempDir()
	qaDir := t.TempDir()
	writeFile(t, prodDir, "p.json", `{"name":"Deposit"}`)
	writeFile(t, prodDir, "bad.json", `not json`)
	writeFile(t, qaDir, "q.json", `{"question":"Q","answer":"A"}`)

	store := &fakeStore{}
	p := New(store, Config{ProductsDir: prodDir, QADir: qaDir}, testLogger(), nil)

	report, err := p.IngestAll(context.Background())
	if err != nil {
		t.Fatalf("IngestAll: %v", err)
	}
	if report.Products != 1 || report.QAs != 1 || report.Skipped != 1 {
		t.Errorf("report = %+v, want {Products:1 QAs:1 Skipped:1}", report)
	}
}

// recorderFunc adapts a function to the Recorder interface.
type recorderFunc func(ctx context.Context, category, path, status, detail string) error

func (f recorderFunc) RecordFile(ctx context.Context, category, path, status, detail string) error {
	return f(ctx, category, path, status, detail)
}

func TestIngestProducts_RecordsFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "ok.json", `{"name":"Card"}`)
	writeFile(t, dir, "bad.json", `{`)

	statuses := make(map[string]string)
	rec := recorderFunc(func(ctx context.Context, category, path, status, detail string) error {
		statuses[filepath.Base(path)] = status
		return nil
	})

	store := &fakeStore{}
	p := New(store, Config{ProductsDir: dir}, testLogger(), rec)

	if _, err := p.IngestProducts(context.Background()); err != nil {
		t.Fatalf("IngestProducts: %v", err)
	}

	if statuses["ok.json"] != StatusIngested {
		t.Errorf("ok.json status = %q", statuses["ok.json"])
	}
	if statuses["bad.json"] != StatusSkipped {
		t.Errorf("bad.json status = %q", statuses["bad.json"])
	}
}
