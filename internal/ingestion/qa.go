package ingestion

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/finkb/finkb-go/internal/rag"
)

// qaPair is one question/answer entry. Used both as an element of a nested
// category array and as the body of a flat QA file.
type qaPair struct {
	ID       string `json:"id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Category string `json:"category"`
}

// qaShape is the classification of a QA file's top-level JSON structure.
type qaShape int

const (
	// qaFlat is a single top-level object holding one question/answer pair.
	qaFlat qaShape = iota
	// qaNested is an object whose values are arrays of question/answer
	// pairs keyed by category name.
	qaNested
)

// classifyQA decides between the two supported QA file shapes. A file is
// nested if any top-level value is a JSON array; otherwise it is flat.
// The raw top-level fields are returned for further decoding.
func classifyQA(data []byte) (qaShape, map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return qaFlat, nil, err
	}

	for _, raw := range fields {
		trimmed := strings.TrimSpace(string(raw))
		if strings.HasPrefix(trimmed, "[") {
			return qaNested, fields, nil
		}
	}
	return qaFlat, fields, nil
}

// loadQA parses one QA JSON file into one or more documents.
//
// Nested files yield one document per entry with IDs of the form
// "<stem>_<category>_<index>", where index is the entry's position within
// its category array. The derivation is deterministic, so re-ingesting a
// file replaces its previous entries. Categories are visited in sorted key
// order to keep upsert batches stable across runs.
//
// Flat files yield a single document whose ID is the "id" field when
// present, otherwise the file stem.
func loadQA(path string) ([]rag.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	shape, fields, err := classifyQA(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	stem := fileStem(path)

	if shape == qaFlat {
		var pair qaPair
		if err := json.Unmarshal(data, &pair); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}

		doc, err := qaDocument(&pair, pair.ID, stem)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return []rag.Document{doc}, nil
	}

	categories := make([]string, 0, len(fields))
	for name, raw := range fields {
		if strings.HasPrefix(strings.TrimSpace(string(raw)), "[") {
			categories = append(categories, name)
		}
	}
	sort.Strings(categories)

	var docs []rag.Document
	for _, category := range categories {
		var pairs []qaPair
		if err := json.Unmarshal(fields[category], &pairs); err != nil {
			return nil, fmt.Errorf("parse %s category %q: %w", path, category, err)
		}

		for i := range pairs {
			if pairs[i].Category == "" {
				pairs[i].Category = category
			}
			id := fmt.Sprintf("%s_%s_%d", stem, category, i)
			doc, err := qaDocument(&pairs[i], id, "")
			if err != nil {
				return nil, fmt.Errorf("%s category %q entry %d: %w", path, category, i, err)
			}
			docs = append(docs, doc)
		}
	}

	return docs, nil
}

// qaDocument renders a question/answer pair into an embeddable document.
// The category label is part of the content: nested category keys are often
// product-line names, and queries that use them should match on the vector,
// not only via metadata. Every label renders even when its value is blank.
// id wins over fallbackID when both are set.
func qaDocument(pair *qaPair, id, fallbackID string) (rag.Document, error) {
	if pair.Question == "" && pair.Answer == "" {
		return rag.Document{}, ErrEmptyDocument
	}

	var b strings.Builder
	appendField(&b, "Category", pair.Category)
	appendField(&b, "Question", pair.Question)
	appendField(&b, "Answer", pair.Answer)
	content := strings.TrimSuffix(b.String(), "\n")

	if id == "" {
		id = fallbackID
	}

	return rag.Document{
		ID:      id,
		Content: content,
		Metadata: map[string]string{
			"question": pair.Question,
			"category": pair.Category,
			"type":     "qa",
		},
	}, nil
}
