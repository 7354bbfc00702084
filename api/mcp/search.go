package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/semsearch/api/search"
)

var (
	searchToolName    = "search"
	searchDescription = "Semantic search over the ingested documents. Returns the most similar documents to the query text, best match first, with cosine similarity scores."
)

// handleSearch processes a search tool call. Failures are reported as tool
// errors so the calling model sees the reason.
func (s *Server) handleSearch(ctx context.Context, _ *mcp.CallToolRequest, input search.Input) (*mcp.CallToolResult, search.Output, error) {
	logger := s.config.Logger

	if strings.TrimSpace(input.Query) == "" {
		return toolError("query is required"), emptyOutput(input), nil
	}

	output, err := search.Search(ctx, s.config.Searcher, input, logger)
	if err != nil {
		logger.Error("MCP search failed", "error", err)
		return toolError(fmt.Sprintf("Search failed: %v", err)), emptyOutput(input), nil
	}

	text, err := json.Marshal(output)
	if err != nil {
		return nil, search.Output{}, fmt.Errorf("marshaling search output: %w", err)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(text)},
		},
	}, *output, nil
}

func toolError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
	}
}

// emptyOutput satisfies the tool's output schema, which requires results to
// be an array even when the call failed.
func emptyOutput(input search.Input) search.Output {
	return search.Output{Query: input.Query, Results: []search.Result{}}
}
