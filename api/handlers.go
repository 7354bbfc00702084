package api

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	apisearch "github.com/papercomputeco/semsearch/api/search"
)

// DocumentResponse is a stored document without its embedding.
type DocumentResponse struct {
	ID      int64  `json:"id"`
	Content string `json:"content"`
}

// DocumentsResponse lists the stored documents in ID order.
type DocumentsResponse struct {
	Documents []DocumentResponse `json:"documents"`
	Count     int                `json:"count"`
}

// ReplaceRequest is the body of PUT /v1/documents.
type ReplaceRequest struct {
	Texts []string `json:"texts"`
}

// ReplaceResponse reports a completed ingest run.
type ReplaceResponse struct {
	RunID      string `json:"run_id"`
	Documents  int    `json:"documents"`
	Dimensions int    `json:"dimensions"`
	DurationMs int64  `json:"duration_ms"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleSearchEndpoint handles GET /v1/search requests.
// Query parameters:
//   - query (required): the search query text
//   - top_k (optional, default 4): number of results to return
func (s *Server) handleSearchEndpoint(c *fiber.Ctx) error {
	query := c.Query("query")
	if strings.TrimSpace(query) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "query parameter is required",
		})
	}

	topK := 0
	if topKStr := c.Query("top_k"); topKStr != "" {
		parsed, err := strconv.Atoi(topKStr)
		if err != nil || parsed <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Error: "top_k must be a positive integer",
			})
		}
		topK = parsed
	}

	output, err := apisearch.Search(c.UserContext(), s.pipeline, apisearch.Input{Query: query, TopK: topK}, s.logger)
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(output)
}

// handleListDocuments handles GET /v1/documents.
func (s *Server) handleListDocuments(c *fiber.Ctx) error {
	docs, err := s.pipeline.Documents(c.UserContext())
	if err != nil {
		return s.fail(c, err)
	}

	out := DocumentsResponse{Documents: make([]DocumentResponse, 0, len(docs))}
	for _, d := range docs {
		out.Documents = append(out.Documents, DocumentResponse{ID: d.ID, Content: d.Content})
	}
	out.Count = len(out.Documents)

	return c.JSON(out)
}

// handleReplaceDocuments handles PUT /v1/documents, replacing the whole
// store with the given texts.
func (s *Server) handleReplaceDocuments(c *fiber.Ctx) error {
	var req ReplaceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "invalid request body",
		})
	}
	if req.Texts == nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "texts is required",
		})
	}

	res, err := s.pipeline.Ingest(c.UserContext(), req.Texts)
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(ReplaceResponse{
		RunID:      res.RunID,
		Documents:  res.Documents,
		Dimensions: res.Dimensions,
		DurationMs: res.Duration.Milliseconds(),
	})
}
