// Package cache provides an embedding cache decorator. Full-replace ingestion
// re-embeds the whole corpus every run; the cache lets unchanged texts skip
// the model entirely.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/papercomputeco/semsearch/pkg/embeddings"
	"github.com/papercomputeco/semsearch/pkg/metrics"
)

const keyPrefix = "semsearch:emb:"

// ErrMiss is returned by a Store when the key is absent.
var ErrMiss = errors.New("cache miss")

// Store is a byte key-value store.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

// Embedder caches embeddings of the inner embedder in a Store. Keys include
// the model name so switching models never serves stale vectors. Store
// failures are logged and treated as misses.
type Embedder struct {
	inner  embeddings.Embedder
	store  Store
	model  string
	logger *slog.Logger
}

// New creates a caching decorator around inner.
func New(inner embeddings.Embedder, store Store, model string, logger *slog.Logger) *Embedder {
	return &Embedder{
		inner:  inner,
		store:  store,
		model:  model,
		logger: logger,
	}
}

// Embed serves cached vectors and sends only the misses to the inner
// embedder, in a single call.
func (c *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	keys := make([]string, len(texts))

	var missIdx []int
	var missTexts []string
	for i, text := range texts {
		keys[i] = c.key(text)
		if vec, ok := c.get(ctx, keys[i]); ok {
			out[i] = vec
			metrics.EmbeddingCacheTotal.WithLabelValues("hit").Inc()
			continue
		}
		metrics.EmbeddingCacheTotal.WithLabelValues("miss").Inc()
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}

	if len(missTexts) == 0 {
		return out, nil
	}

	embedded, err := c.inner.Embed(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(embedded) != len(missTexts) {
		return nil, fmt.Errorf("inner embedder returned %d vectors for %d texts", len(embedded), len(missTexts))
	}

	for j, i := range missIdx {
		out[i] = embedded[j]
		if err := c.store.Set(ctx, keys[i], encode(embedded[j])); err != nil {
			c.logger.Warn("failed to cache embedding", "error", err)
		}
	}

	c.logger.Debug("embedding cache",
		"hits", len(texts)-len(missTexts),
		"misses", len(missTexts),
	)

	return out, nil
}

// Close closes the store and the inner embedder.
func (c *Embedder) Close() error {
	return errors.Join(c.store.Close(), c.inner.Close())
}

func (c *Embedder) key(text string) string {
	h := sha256.New()
	h.Write([]byte(c.model))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return keyPrefix + hex.EncodeToString(h.Sum(nil))
}

func (c *Embedder) get(ctx context.Context, key string) ([]float32, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrMiss) {
			c.logger.Warn("failed to read cached embedding", "key", key, "error", err)
		}
		return nil, false
	}

	vec, err := decode(data)
	if err != nil {
		c.logger.Warn("failed to decode cached embedding", "key", key, "error", err)
		return nil, false
	}
	return vec, true
}

// encode serializes v as little-endian float32s.
func encode(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decode(b []byte) ([]float32, error) {
	if len(b) == 0 || len(b)%4 != 0 {
		return nil, fmt.Errorf("invalid embedding blob length %d", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}

var _ embeddings.Embedder = (*Embedder)(nil)
