package tools

// knowledge.go defines the semantic search tool over the swimming knowledge base.
//
// The knowledge base holds chunked documents (time standards, records, articles)
// embedded in pgvector. Searches go through the Genkit retriever so the query is
// embedded with the same model the documents were indexed with.

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/postgresql"

	"github.com/swimbench/swimbench/internal/knowledge"
)

// SearchKnowledgeName is the Genkit tool name for searching the knowledge base.
const SearchKnowledgeName = "searchKnowledge"

// Default and maximum TopK values for knowledge searches.
const (
	DefaultSearchTopK = 5
	MaxTopK           = 10
)

// KnowledgeSearchInput defines input for the searchKnowledge tool.
type KnowledgeSearchInput struct {
	Query       string `json:"query" jsonschema_description:"The search query string"`
	TopK        int    `json:"topK,omitempty" jsonschema_description:"Maximum results to return (1-10, default 5)"`
	ContentType string `json:"contentType,omitempty" jsonschema_description:"Optional filter: 'standards', 'records', or 'articles'"`
}

// Knowledge holds dependencies for the knowledge search handler.
type Knowledge struct {
	retriever ai.Retriever
	logger    *slog.Logger
}

// NewKnowledge creates a Knowledge instance.
func NewKnowledge(retriever ai.Retriever, logger *slog.Logger) (*Knowledge, error) {
	if retriever == nil {
		return nil, fmt.Errorf("retriever is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Knowledge{retriever: retriever, logger: logger}, nil
}

// RegisterKnowledge registers the knowledge search tool with Genkit.
// The tool is registered with an event emission wrapper for streaming support.
func RegisterKnowledge(g *genkit.Genkit, kt *Knowledge) ([]ai.Tool, error) {
	if g == nil {
		return nil, fmt.Errorf("genkit instance is required")
	}
	if kt == nil {
		return nil, fmt.Errorf("Knowledge is required")
	}

	return []ai.Tool{
		genkit.DefineTool(g, SearchKnowledgeName,
			"Search the swimming knowledge base using semantic similarity. "+
				"Finds document chunks (time standards, records, articles) related to the query. "+
				"Returns: content excerpts with their source metadata. "+
				"Use this to: find qualifying times, explain standards, research swimming topics. "+
				"Default topK: 5. Maximum topK: 10. "+
				"Optional contentType filter: 'standards', 'records', 'articles'.",
			WithEvents(SearchKnowledgeName, kt.SearchKnowledge)),
	}, nil
}

// clampTopK validates topK and returns a value within [1, MaxTopK].
// If topK <= 0, returns defaultVal.
func clampTopK(topK, defaultVal int) int {
	if topK <= 0 {
		return defaultVal
	}
	if topK > MaxTopK {
		return MaxTopK
	}
	return topK
}

// contentTypeFilters maps validated content types to pre-computed SQL filter
// strings. The map is both the whitelist and the filter source: no string
// interpolation with model-influenced values ever reaches the SQL path.
var contentTypeFilters = map[string]string{
	knowledge.ContentTypeStandards: "source_type = 'standards'",
	knowledge.ContentTypeRecords:   "source_type = 'records'",
	knowledge.ContentTypeArticles:  "source_type = 'articles'",
}

// contentTypeFilter resolves an optional content type to its SQL filter.
// An empty content type means no filtering.
func contentTypeFilter(contentType string) (string, error) {
	if contentType == "" {
		return "", nil
	}
	filter, ok := contentTypeFilters[contentType]
	if !ok {
		return "", fmt.Errorf("invalid content type %q (allowed: standards, records, articles)", contentType)
	}
	return filter, nil
}

// search embeds the query and retrieves the topK nearest chunks, optionally
// restricted by the pre-computed content type filter.
func (k *Knowledge) search(ctx context.Context, query string, topK int, filter string) ([]*ai.Document, error) {
	req := &ai.RetrieverRequest{
		Query: ai.DocumentFromText(query, nil),
		Options: &postgresql.RetrieverOptions{
			Filter: filter,
			K:      topK,
		},
	}

	resp, err := k.retriever.Retrieve(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}
	return resp.Documents, nil
}

// flattenDocument reduces a retrieved document to the text and metadata the
// model actually needs, instead of the raw multi-part document structure.
func flattenDocument(doc *ai.Document) map[string]any {
	var sb strings.Builder
	for _, part := range doc.Content {
		if part.IsText() {
			sb.WriteString(part.Text)
		}
	}
	return map[string]any{
		"content":  sb.String(),
		"metadata": doc.Metadata,
	}
}

// SearchKnowledge searches the knowledge base using semantic similarity.
func (k *Knowledge) SearchKnowledge(ctx *ai.ToolContext, input KnowledgeSearchInput) (Result, error) {
	k.logger.Info("SearchKnowledge called", "query", input.Query, "topK", input.TopK, "content_type", input.ContentType)

	if strings.TrimSpace(input.Query) == "" {
		return Result{
			Status: StatusError,
			Error: &Error{
				Code:    ErrCodeValidation,
				Message: "query is required",
			},
		}, nil
	}

	filter, err := contentTypeFilter(input.ContentType)
	if err != nil {
		return Result{
			Status: StatusError,
			Error: &Error{
				Code:    ErrCodeValidation,
				Message: err.Error(),
			},
		}, nil
	}

	topK := clampTopK(input.TopK, DefaultSearchTopK)

	docs, err := k.search(ctx, input.Query, topK, filter)
	if err != nil {
		k.logger.Warn("SearchKnowledge failed", "query", input.Query, "error", err)
		return Result{
			Status: StatusError,
			Error: &Error{
				Code:    ErrCodeExecution,
				Message: fmt.Sprintf("searching knowledge: %v", err),
			},
		}, nil
	}

	results := make([]map[string]any, 0, len(docs))
	for _, doc := range docs {
		results = append(results, flattenDocument(doc))
	}

	k.logger.Info("SearchKnowledge succeeded", "query", input.Query, "result_count", len(results))
	return Result{
		Status: StatusSuccess,
		Data: map[string]any{
			"query":        input.Query,
			"result_count": len(results),
			"results":      results,
		},
	}, nil
}
