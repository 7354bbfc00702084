// Package rank orders stored documents by cosine similarity to a query
// vector.
package rank

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"time"

	"github.com/papercomputeco/semsearch/pkg/logger"
	"github.com/papercomputeco/semsearch/pkg/metrics"
	"github.com/papercomputeco/semsearch/pkg/vector"
)

// Mode selects where similarity is computed.
type Mode string

const (
	// ModeAuto uses the driver's index when it has one.
	ModeAuto Mode = "auto"

	// ModeNative requires the driver to rank server side.
	ModeNative Mode = "native"

	// ModeClient scans every document and computes cosine in process.
	ModeClient Mode = "client"
)

// DefaultTolerance is how far from 1 a norm may drift in strict mode.
// float32 round-off on 768 components lands well inside it.
const DefaultTolerance = 1e-4

var (
	// ErrInvalidK is returned when the requested result count is not positive.
	ErrInvalidK = errors.New("k must be positive")

	// ErrUnsupportedMode is returned for unknown modes or native mode on a
	// driver that cannot rank.
	ErrUnsupportedMode = errors.New("unsupported ranking mode")
)

// Result is a document with its cosine similarity to the query.
type Result struct {
	vector.Document

	// Score is in [-1, 1]; higher is more similar.
	Score float32
}

// ParseMode converts a configuration string into a Mode. Empty means auto.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeAuto:
		return ModeAuto, nil
	case ModeNative, ModeClient:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedMode, s)
	}
}

// Ranker reads from a driver and never writes to it.
type Ranker struct {
	driver    vector.Driver
	querier   vector.Querier
	mode      Mode
	strict    bool
	tolerance float64
	logger    *slog.Logger
}

// Option configures a Ranker.
type Option func(*Ranker)

// WithMode sets the ranking mode. Defaults to ModeAuto.
func WithMode(m Mode) Option {
	return func(r *Ranker) { r.mode = m }
}

// WithStrict makes Rank fail with vector.ErrUnnormalizedInput when the query
// or a stored vector is not unit length.
func WithStrict(strict bool) Option {
	return func(r *Ranker) { r.strict = strict }
}

// WithTolerance overrides DefaultTolerance for strict mode.
func WithTolerance(tol float64) Option {
	return func(r *Ranker) { r.tolerance = tol }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Ranker) { r.logger = l }
}

// New creates a Ranker over driver. ModeAuto resolves to native ranking
// when driver implements vector.Querier.
func New(driver vector.Driver, opts ...Option) (*Ranker, error) {
	r := &Ranker{
		driver:    driver,
		mode:      ModeAuto,
		tolerance: DefaultTolerance,
		logger:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}

	q, canQuery := driver.(vector.Querier)

	switch r.mode {
	case ModeAuto:
		if canQuery {
			r.mode = ModeNative
		} else {
			r.mode = ModeClient
		}
	case ModeNative:
		if !canQuery {
			return nil, fmt.Errorf("%w: driver %T cannot rank natively", ErrUnsupportedMode, driver)
		}
	case ModeClient:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMode, r.mode)
	}

	if r.mode == ModeNative {
		r.querier = q
	}

	return r, nil
}

// Mode returns the resolved ranking mode.
func (r *Ranker) Mode() Mode {
	return r.mode
}

// Rank returns at most k documents most similar to q, sorted by score
// descending with ties broken by ascending ID. An empty store yields an
// empty slice.
func (r *Ranker) Rank(ctx context.Context, q []float32, k int) ([]Result, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidK, k)
	}
	if len(q) == 0 {
		return nil, fmt.Errorf("empty query vector: %w", vector.ErrDegenerateVector)
	}
	if r.strict && !vector.IsNormalized(q, r.tolerance) {
		return nil, fmt.Errorf("query norm is %v: %w", vector.Norm(q), vector.ErrUnnormalizedInput)
	}

	start := time.Now()
	defer func() {
		metrics.RankDuration.WithLabelValues(string(r.mode)).Observe(time.Since(start).Seconds())
	}()

	var (
		results []Result
		err     error
	)
	if r.mode == ModeNative {
		results, err = r.rankNative(ctx, q, k)
	} else {
		results, err = r.rankClient(ctx, q)
	}
	if err != nil {
		return nil, err
	}

	sortResults(results)
	if len(results) > k {
		results = results[:k]
	}

	r.logger.Debug("ranked documents",
		"mode", r.mode,
		"k", k,
		"results", len(results),
	)

	return results, nil
}

func (r *Ranker) rankNative(ctx context.Context, q []float32, k int) ([]Result, error) {
	found, err := r.querier.Query(ctx, q, k)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(found))
	for _, f := range found {
		if math.IsNaN(float64(f.Score)) {
			r.logger.Debug("skipping document with undefined similarity", "id", f.ID)
			continue
		}
		if err := r.checkStored(f.Document); err != nil {
			return nil, err
		}
		results = append(results, Result{Document: f.Document, Score: f.Score})
	}
	return results, nil
}

func (r *Ranker) rankClient(ctx context.Context, q []float32) ([]Result, error) {
	docs, err := r.driver.ScanAll(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(docs))
	for _, doc := range docs {
		if doc.Embedding == nil {
			r.logger.Debug("skipping document without embedding", "id", doc.ID)
			continue
		}
		if len(doc.Embedding) != len(q) {
			return nil, fmt.Errorf("document %d has %d components, query has %d: %w",
				doc.ID, len(doc.Embedding), len(q), vector.ErrDimensionMismatch)
		}
		if err := r.checkStored(doc); err != nil {
			return nil, err
		}

		score, ok := vector.Cosine(q, doc.Embedding)
		if !ok {
			r.logger.Debug("skipping document with zero norm embedding", "id", doc.ID)
			continue
		}
		results = append(results, Result{Document: doc, Score: float32(score)})
	}
	return results, nil
}

func (r *Ranker) checkStored(doc vector.Document) error {
	if !r.strict || doc.Embedding == nil {
		return nil
	}
	if !vector.IsNormalized(doc.Embedding, r.tolerance) {
		return fmt.Errorf("document %d norm is %v: %w",
			doc.ID, vector.Norm(doc.Embedding), vector.ErrUnnormalizedInput)
	}
	return nil
}

func sortResults(results []Result) {
	slices.SortFunc(results, func(a, b Result) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
