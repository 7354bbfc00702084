// Package pipeline composes prefixing, embedding, normalization, storage and
// ranking into the ingest and query flows.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/semsearch/pkg/embeddings"
	"github.com/papercomputeco/semsearch/pkg/eventstream"
	"github.com/papercomputeco/semsearch/pkg/eventstream/nop"
	"github.com/papercomputeco/semsearch/pkg/logger"
	"github.com/papercomputeco/semsearch/pkg/metrics"
	"github.com/papercomputeco/semsearch/pkg/rank"
	"github.com/papercomputeco/semsearch/pkg/utils"
	"github.com/papercomputeco/semsearch/pkg/vector"
)

const (
	// DefaultBatchSize is the number of texts sent per embedding call.
	DefaultBatchSize = 32

	// DefaultTopK is the result count used when a query does not ask for one.
	DefaultTopK = 4
)

// Config wires a Pipeline.
type Config struct {
	Embedder embeddings.Embedder
	Driver   vector.Driver
	Ranker   *rank.Ranker

	// Prefixes defaults to embeddings.DefaultPrefixes.
	Prefixes *embeddings.Prefixes

	// Dimensions is the expected embedding length. Zero accepts whatever
	// length the first vector of a run has, as long as the run agrees.
	Dimensions uint

	BatchSize   int
	DefaultTopK int

	// Publisher receives an event after every committed ingest.
	// Defaults to a no-op publisher.
	Publisher eventstream.Publisher
	Source    eventstream.EventSource

	Logger *slog.Logger
}

// Pipeline runs ingestion and queries. Each call is independent; the store
// is the only state shared between calls.
type Pipeline struct {
	embedder   embeddings.Embedder
	driver     vector.Driver
	ranker     *rank.Ranker
	prefixes   embeddings.Prefixes
	dimensions uint
	batchSize  int
	topK       int
	publisher  eventstream.Publisher
	source     eventstream.EventSource
	logger     *slog.Logger
}

// IngestResult describes a committed ingestion run.
type IngestResult struct {
	RunID      string
	Documents  int
	Dimensions int
	StartedAt  time.Time
	Duration   time.Duration
}

// New validates c and builds a Pipeline.
func New(c Config) (*Pipeline, error) {
	if c.Embedder == nil {
		return nil, errors.New("embedder is required")
	}
	if c.Driver == nil {
		return nil, errors.New("vector driver is required")
	}

	prefixes := embeddings.DefaultPrefixes()
	if c.Prefixes != nil {
		prefixes = *c.Prefixes
	}
	if err := prefixes.Validate(); err != nil {
		return nil, err
	}

	log := c.Logger
	if log == nil {
		log = logger.Nop()
	}

	ranker := c.Ranker
	if ranker == nil {
		var err error
		ranker, err = rank.New(c.Driver, rank.WithLogger(log))
		if err != nil {
			return nil, err
		}
	}

	batchSize := c.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	topK := c.DefaultTopK
	if topK <= 0 {
		topK = DefaultTopK
	}

	publisher := c.Publisher
	if publisher == nil {
		publisher = nop.NewPublisher()
	}

	return &Pipeline{
		embedder:   c.Embedder,
		driver:     c.Driver,
		ranker:     ranker,
		prefixes:   prefixes,
		dimensions: c.Dimensions,
		batchSize:  batchSize,
		topK:       topK,
		publisher:  publisher,
		source:     c.Source,
		logger:     log,
	}, nil
}

// Ingest replaces the store contents with texts. Every text is embedded and
// normalized before the store is touched, so any failure leaves the
// previous documents queryable.
func (p *Pipeline) Ingest(ctx context.Context, texts []string) (*IngestResult, error) {
	start := time.Now()
	runID := uuid.NewString()
	log := p.logger.With("run_id", runID)

	docs, dims, err := p.prepare(ctx, texts)
	if err == nil {
		err = p.driver.ReplaceAll(ctx, docs)
	}
	if err != nil {
		metrics.IngestRunsTotal.WithLabelValues("error").Inc()
		log.Error("ingest failed", "documents", len(texts), "error", err)
		return nil, err
	}

	metrics.IngestRunsTotal.WithLabelValues("success").Inc()
	metrics.StoredDocuments.Set(float64(len(docs)))

	result := &IngestResult{
		RunID:      runID,
		Documents:  len(docs),
		Dimensions: dims,
		StartedAt:  start,
		Duration:   time.Since(start),
	}

	log.Info("ingest complete",
		"documents", result.Documents,
		"dimensions", result.Dimensions,
		"duration", result.Duration,
	)

	p.publish(ctx, result)

	return result, nil
}

func (p *Pipeline) prepare(ctx context.Context, texts []string) ([]vector.NewDocument, int, error) {
	for i, t := range texts {
		if strings.TrimSpace(t) == "" {
			return nil, 0, fmt.Errorf("text %d: %w", i+1, vector.ErrEmptyContent)
		}
	}

	prefixed := p.prefixes.ApplyAll(texts, embeddings.RoleDocument)
	vecs, err := p.embedBatches(ctx, prefixed)
	if err != nil {
		return nil, 0, err
	}

	dims := int(p.dimensions)
	docs := make([]vector.NewDocument, len(texts))
	for i, v := range vecs {
		if dims == 0 {
			dims = len(v)
		}
		if len(v) != dims {
			return nil, 0, fmt.Errorf("text %d: embedding has %d components, want %d: %w",
				i+1, len(v), dims, vector.ErrDimensionMismatch)
		}

		unit, err := vector.Normalize(v)
		if err != nil {
			return nil, 0, fmt.Errorf("text %d: %w", i+1, err)
		}

		p.logger.Debug("embedded document",
			"index", i+1,
			"preview", utils.Truncate(texts[i], 20),
			"raw_norm", vector.Norm(v),
		)

		docs[i] = vector.NewDocument{
			Content:   texts[i],
			Embedding: unit,
		}
	}

	return docs, dims, nil
}

func (p *Pipeline) embedBatches(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += p.batchSize {
		end := min(start+p.batchSize, len(texts))

		vecs, err := p.embedder.Embed(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		if len(vecs) != end-start {
			return nil, fmt.Errorf("%w: got %d vectors for %d texts",
				vector.ErrEmbedding, len(vecs), end-start)
		}
		out = append(out, vecs...)
	}
	return out, nil
}

// publish reports a committed run. The store already holds the new set, so
// a publish failure is logged rather than returned.
func (p *Pipeline) publish(ctx context.Context, r *IngestResult) {
	event := eventstream.NewIngestCompletedEvent(p.source, eventstream.IngestRun{
		RunID:       r.RunID,
		Documents:   r.Documents,
		Dimensions:  r.Dimensions,
		StartedAt:   r.StartedAt.UTC(),
		CompletedAt: r.StartedAt.Add(r.Duration).UTC(),
		DurationMs:  r.Duration.Milliseconds(),
	})

	if err := p.publisher.PublishIngest(ctx, event); err != nil {
		p.logger.Warn("failed to publish ingest event",
			"run_id", r.RunID,
			"error", err,
		)
	}
}

// Query ranks stored documents against text. A k of 0 uses the configured
// default; negative values fail with rank.ErrInvalidK.
func (p *Pipeline) Query(ctx context.Context, text string, k int) ([]rank.Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("query: %w", vector.ErrEmptyContent)
	}
	if k == 0 {
		k = p.topK
	}
	if k < 0 {
		return nil, fmt.Errorf("%w: got %d", rank.ErrInvalidK, k)
	}

	vecs, err := p.embedder.Embed(ctx, []string{p.prefixes.Apply(text, embeddings.RoleQuery)})
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("%w: got %d vectors for 1 query", vector.ErrEmbedding, len(vecs))
	}

	q, err := vector.Normalize(vecs[0])
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	return p.ranker.Rank(ctx, q, k)
}

// Documents returns every stored document ordered by ID.
func (p *Pipeline) Documents(ctx context.Context) ([]vector.Document, error) {
	return p.driver.ScanAll(ctx)
}

// Count returns the number of stored documents.
func (p *Pipeline) Count(ctx context.Context) (int, error) {
	return p.driver.Count(ctx)
}
