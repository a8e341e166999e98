package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	"github.com/finkb/finkb-go/internal/budget"
	"github.com/finkb/finkb-go/internal/rag"
)

// NotFoundMessage is returned to the model when retrieval yields nothing.
// The wording deliberately steers the model toward the web_search tool
// instead of answering from stale parametric knowledge.
const NotFoundMessage = "No relevant information found in the knowledge base. " +
	"Consider using the web_search tool for up-to-date information."

// defaultTopK is the number of documents retrieved when the model does not
// specify n_results.
const defaultTopK = 3

// SearchTool retrieves documents from the knowledge base. Retrieval
// failures are reported to the model as descriptive strings rather than
// errors: an error return would abort the agent turn, whereas a string lets
// the model fall back to another tool.
type SearchTool struct {
	store             rag.VectorStore
	maxEvidenceTokens int
}

// searchInput is the JSON-serialisable input schema for SearchTool.
type searchInput struct {
	// Query is the natural-language search text.
	Query string `json:"query"`

	// NResults is how many documents to retrieve (default: 3).
	NResults int `json:"n_results"`
}

// NewSearchTool constructs a SearchTool over the given store.
// maxEvidenceTokens caps the combined size of returned documents
// (0 = budget.DefaultEvidenceTokens).
func NewSearchTool(store rag.VectorStore, maxEvidenceTokens int) *SearchTool {
	if maxEvidenceTokens <= 0 {
		maxEvidenceTokens = budget.DefaultEvidenceTokens
	}
	return &SearchTool{store: store, maxEvidenceTokens: maxEvidenceTokens}
}

// Name returns the tool name registered with the agent.
func (t *SearchTool) Name() string { return "search_knowledge_base" }

// Description returns the LLM-facing description of this tool.
func (t *SearchTool) Description() string {
	return "Searches the bank's internal knowledge base of financial products and FAQ entries. " +
		"Use this first for any question about products, rates, terms, or account services. " +
		"Returns the most relevant documents, or a notice when nothing matches."
}

// Info returns the Eino tool metadata including the JSON input schema.
func (t *SearchTool) Info(ctx context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: t.Name(),
		Desc: t.Description(),
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"query": {
				Type:     schema.String,
				Desc:     "Natural-language search query describing what to look up.",
				Required: true,
			},
			"n_results": {
				Type: schema.Integer,
				Desc: "Number of documents to retrieve (default: 3).",
			},
		}),
	}, nil
}

// InvokableRun executes the search and renders the results for the model.
func (t *SearchTool) InvokableRun(ctx context.Context, argumentsInJSON string, opts ...tool.Option) (string, error) {
	var input searchInput
	if err := json.Unmarshal([]byte(argumentsInJSON), &input); err != nil {
		return "", fmt.Errorf("search_knowledge_base: invalid input: %w", err)
	}

	// A blank query can never match anything; report not-found without
	// spending an embedding call the provider would reject anyway.
	if strings.TrimSpace(input.Query) == "" {
		return NotFoundMessage, nil
	}

	k := input.NResults
	if k <= 0 {
		k = defaultTopK
	}

	docs, err := t.store.Query(ctx, input.Query, k)
	if err != nil {
		return fmt.Sprintf("knowledge base search failed: %v", err), nil
	}
	if len(docs) == 0 {
		return NotFoundMessage, nil
	}

	docs = budget.TrimDocuments(docs, t.maxEvidenceTokens)

	blocks := make([]string, len(docs))
	for i, doc := range docs {
		blocks[i] = fmt.Sprintf("[Relevant document %d]\n%s", i+1, doc.Content)
	}
	return strings.Join(blocks, "\n\n"), nil
}
