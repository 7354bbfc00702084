// Package embeddings defines the text embedding contract used by the
// ingestion and query pipelines, plus the prefix policy required by
// asymmetric embedding models.
package embeddings

import "context"

// Embedder provides batched text embedding capabilities.
type Embedder interface {
	// Embed converts texts into vector embeddings. The result has exactly one
	// vector per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Close releases any resources held by the embedder.
	Close() error
}
