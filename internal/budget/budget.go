// Package budget provides rough token accounting for retrieved evidence.
// Estimates use a characters-per-token heuristic; this keeps prompts inside
// model context windows without shipping a tokenizer per provider.
package budget

import "github.com/finkb/finkb-go/internal/rag"

// charsPerToken is the average characters-per-token ratio. Conservative for
// English prose; CJK text runs denser but stays within the same order of
// magnitude.
const charsPerToken = 4

// DefaultEvidenceTokens is the default budget for retrieved documents
// injected into a prompt.
const DefaultEvidenceTokens = 1500

// Estimate returns the approximate token count of text.
func Estimate(text string) int {
	if text == "" {
		return 0
	}
	return (len(text) + charsPerToken - 1) / charsPerToken
}

// TrimDocuments returns the longest ranked prefix of docs whose combined
// content fits within maxTokens. The first document is always kept, even
// when it alone exceeds the budget: returning no evidence at all is worse
// than returning one oversized document.
func TrimDocuments(docs []rag.Document, maxTokens int) []rag.Document {
	if len(docs) == 0 || maxTokens <= 0 {
		return docs
	}

	total := 0
	for i, doc := range docs {
		total += Estimate(doc.Content)
		if total > maxTokens && i > 0 {
			return docs[:i]
		}
	}
	return docs
}
