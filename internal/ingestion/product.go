package ingestion

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/finkb/finkb-go/internal/rag"
)

// productRecord is the JSON shape of a product file. Every field is
// optional; a file where all of them are blank yields ErrEmptyDocument.
type productRecord struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Category     string `json:"category"`
	Description  string `json:"description"`
	InterestRate string `json:"interest_rate"`
	MaxAmount    string `json:"max_amount"`
	MaxTerm      string `json:"max_term"`
}

// loadProduct parses one product JSON file into a single document. The
// document ID is the product's "id" field when present, otherwise the file
// name without extension, so re-ingesting a file replaces its previous
// entry.
func loadProduct(path string) (rag.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return rag.Document{}, fmt.Errorf("read %s: %w", path, err)
	}

	var rec productRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return rag.Document{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if rec.blank() {
		return rag.Document{}, fmt.Errorf("%s: %w", path, ErrEmptyDocument)
	}

	content := renderProduct(&rec)

	id := rec.ID
	if id == "" {
		id = fileStem(path)
	}

	return rag.Document{
		ID:      id,
		Content: content,
		Metadata: map[string]string{
			"name":     rec.Name,
			"category": rec.Category,
			"type":     "product",
		},
	}, nil
}

// blank reports whether the record carries no content at all. The ID does
// not count: an ID with nothing behind it is still an empty document.
func (r *productRecord) blank() bool {
	return r.Name == "" && r.Category == "" && r.Description == "" &&
		r.InterestRate == "" && r.MaxAmount == "" && r.MaxTerm == ""
}

// renderProduct flattens a product record into the labelled text that gets
// embedded. Every label renders even when its value is blank, so the
// template shape is identical across the corpus; a record with no content
// at all is rejected before rendering.
func renderProduct(rec *productRecord) string {
	var b strings.Builder
	appendField(&b, "Product name", rec.Name)
	appendField(&b, "Category", rec.Category)
	appendField(&b, "Description", rec.Description)
	appendField(&b, "Interest rate", rec.InterestRate)
	appendField(&b, "Maximum amount", rec.MaxAmount)
	appendField(&b, "Maximum term", rec.MaxTerm)
	return strings.TrimSuffix(b.String(), "\n")
}

func appendField(b *strings.Builder, label, value string) {
	b.WriteString(label)
	b.WriteString(": ")
	b.WriteString(value)
	b.WriteString("\n")
}

// fileStem returns the file name without directory or extension.
func fileStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
