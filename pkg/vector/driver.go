// Package vector provides interfaces and implementations for vector storage.
package vector

import (
	"context"
	"fmt"
	"strings"
)

// Document represents a stored item with its embedding.
type Document struct {
	// ID is the stable identity assigned by the store, starting at 1 in
	// insertion order for every full replace.
	ID int64

	// Content is the source text the embedding was generated from.
	Content string

	// Embedding is the vector representation of Content. Nil when the row
	// has not been embedded yet.
	Embedding []float32
}

// NewDocument is a document that has not been assigned an identity yet.
type NewDocument struct {
	Content   string
	Embedding []float32
}

// QueryResult represents a search result with similarity score.
type QueryResult struct {
	Document

	// Score is the cosine similarity between the query and the document
	// (higher = more similar).
	Score float32
}

// Driver handles storage and retrieval of documents and their embeddings.
type Driver interface {
	// ReplaceAll atomically discards every stored document and inserts docs
	// with fresh sequential identities starting at 1. Either every document
	// lands or none do; concurrent readers never observe a partial set.
	ReplaceAll(ctx context.Context, docs []NewDocument) error

	// ScanAll returns every stored document ordered by ID.
	ScanAll(ctx context.Context) ([]Document, error)

	// Count returns the number of stored documents.
	Count(ctx context.Context) (int, error)

	// Close releases any resources held by the driver.
	Close() error
}

// Querier is implemented by drivers whose backing index can order documents
// by cosine distance server side.
type Querier interface {
	// Query finds the topK most similar documents to the given embedding.
	Query(ctx context.Context, embedding []float32, topK int) ([]QueryResult, error)
}

// ValidateDocuments checks that every document has content and an embedding
// of exactly dimensions components. A dimensions value of 0 skips the length
// check.
func ValidateDocuments(docs []NewDocument, dimensions uint) error {
	for i, doc := range docs {
		if strings.TrimSpace(doc.Content) == "" {
			return fmt.Errorf("document %d: %w", i+1, ErrEmptyContent)
		}
		if doc.Embedding == nil {
			continue
		}
		if dimensions != 0 && len(doc.Embedding) != int(dimensions) {
			return fmt.Errorf("document %d: got %d components, want %d: %w",
				i+1, len(doc.Embedding), dimensions, ErrDimensionMismatch)
		}
	}
	return nil
}
