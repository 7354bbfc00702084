// Package openai implements pkg/embeddings' Embedder for OpenAI-compatible
// embedding APIs (OpenAI, vLLM, text-embeddings-inference, LM Studio, ...).
package openai

import (
	"context"
	"errors"
	"fmt"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/papercomputeco/semsearch/pkg/embeddings"
	"github.com/papercomputeco/semsearch/pkg/metrics"
	"github.com/papercomputeco/semsearch/pkg/vector"
)

const (
	// DefaultBaseURL is the OpenAI API URL.
	DefaultBaseURL = "https://api.openai.com/v1"

	providerName = "openai"
)

// Config holds the embedding provider settings.
type Config struct {
	// APIKey is sent as a bearer token. Local servers usually accept any value.
	APIKey string

	// BaseURL is the API root including the version segment.
	// Defaults to DefaultBaseURL if empty.
	BaseURL string

	// Model is the embedding model name. Required.
	Model string

	// Dimensions requests reduced-size vectors from models that support it.
	// Zero leaves the model default.
	Dimensions int
}

// Embedder is an embedding provider using the OpenAI-compatible API.
type Embedder struct {
	client     *goopenai.Client
	model      goopenai.EmbeddingModel
	dimensions int
}

// NewEmbedder creates an OpenAI-compatible embedding provider.
func NewEmbedder(cfg Config) (*Embedder, error) {
	if cfg.Model == "" {
		return nil, errors.New("openai embedding model is required")
	}

	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = DefaultBaseURL
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Embedder{
		client:     goopenai.NewClientWithConfig(clientCfg),
		model:      goopenai.EmbeddingModel(cfg.Model),
		dimensions: cfg.Dimensions,
	}, nil
}

// Embed converts texts into vector embeddings with a single API call.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	req := goopenai.EmbeddingRequest{
		Input:          texts,
		Model:          e.model,
		EncodingFormat: goopenai.EmbeddingEncodingFormatFloat,
	}
	if e.dimensions > 0 {
		req.Dimensions = e.dimensions
	}

	model := string(e.model)
	start := time.Now()
	resp, err := e.client.CreateEmbeddings(ctx, req)
	metrics.EmbeddingRequestDuration.WithLabelValues(providerName, model).Observe(time.Since(start).Seconds())
	metrics.EmbeddingTextsTotal.WithLabelValues(providerName, model).Add(float64(len(texts)))

	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(providerName, model, "error").Inc()
		return nil, parseAPIError(err)
	}

	out, err := collect(resp.Data, len(texts))
	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(providerName, model, "error").Inc()
		return nil, err
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(providerName, model, "success").Inc()
	return out, nil
}

// collect orders response items by their index field; servers are not
// required to return them in request order.
func collect(data []goopenai.Embedding, n int) ([][]float32, error) {
	if len(data) != n {
		return nil, fmt.Errorf("%w: got %d embeddings for %d inputs", vector.ErrEmbedding, len(data), n)
	}

	out := make([][]float32, n)
	for _, d := range data {
		if d.Index < 0 || d.Index >= n || out[d.Index] != nil {
			return nil, fmt.Errorf("%w: invalid embedding index %d", vector.ErrEmbedding, d.Index)
		}
		out[d.Index] = d.Embedding
	}
	return out, nil
}

// parseAPIError maps go-openai errors onto vector.ErrEmbedding.
func parseAPIError(err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%w: api error %d: %s", vector.ErrEmbedding, apiErr.HTTPStatusCode, apiErr.Message)
	}

	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("%w: request error %d: %s", vector.ErrEmbedding, reqErr.HTTPStatusCode, string(reqErr.Body))
	}

	return fmt.Errorf("%w: %v", vector.ErrEmbedding, err)
}

// Close releases resources held by the embedder.
func (e *Embedder) Close() error {
	return nil
}

var _ embeddings.Embedder = (*Embedder)(nil)
