// Package search provides shared search types and logic for semantic search
// over the document store. It is used by both the REST API endpoint and
// the MCP server tool.
package search

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/papercomputeco/semsearch/pkg/rank"
)

// Searcher ranks stored documents against query text.
type Searcher interface {
	Query(ctx context.Context, text string, k int) ([]rank.Result, error)
}

// Input represents the input arguments for a search request.
type Input struct {
	Query string `json:"query" jsonschema:"the search query text"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"number of results to return (default: 4)"`
}

// Result represents a single ranked document.
type Result struct {
	ID      int64   `json:"id"`
	Score   float32 `json:"score"`
	Content string  `json:"content"`
}

// Output represents the output of a search operation.
type Output struct {
	Query   string   `json:"query"`
	Results []Result `json:"results"`
	Count   int      `json:"count"`
}

// Search ranks the stored documents against input.Query. A zero TopK uses
// the searcher's default.
func Search(ctx context.Context, searcher Searcher, input Input, logger *slog.Logger) (*Output, error) {
	logger.Debug("search request",
		"query", input.Query,
		"top_k", input.TopK,
	)

	ranked, err := searcher.Query(ctx, input.Query, input.TopK)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	return BuildOutput(input.Query, ranked), nil
}

// BuildOutput converts ranked results into an Output.
func BuildOutput(query string, ranked []rank.Result) *Output {
	results := make([]Result, 0, len(ranked))
	for _, r := range ranked {
		results = append(results, Result{
			ID:      r.ID,
			Score:   r.Score,
			Content: r.Content,
		})
	}

	return &Output{
		Query:   query,
		Results: results,
		Count:   len(results),
	}
}
