package embeddings

import (
	"context"
	"fmt"
	"sync"

	"github.com/papercomputeco/semsearch/pkg/vector"
)

var errClosedBeforeUse = fmt.Errorf("%w: embedder closed before first use", vector.ErrEmbedding)

// Lazy is a process-wide embedder handle that constructs its underlying
// provider on first use and reuses it for every later call. The provider
// is never rebuilt, including after a failed construction: the error is
// returned from every Embed.
type Lazy struct {
	init func() (Embedder, error)

	once sync.Once
	emb  Embedder
	err  error
}

// NewLazy returns a handle that calls init at most once.
func NewLazy(init func() (Embedder, error)) *Lazy {
	return &Lazy{init: init}
}

func (l *Lazy) load() (Embedder, error) {
	l.once.Do(func() {
		l.emb, l.err = l.init()
	})
	return l.emb, l.err
}

// Embed initializes the provider if needed and delegates to it.
func (l *Lazy) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	emb, err := l.load()
	if err != nil {
		return nil, err
	}
	return emb.Embed(ctx, texts)
}

// Close closes the provider if it was ever constructed.
func (l *Lazy) Close() error {
	l.once.Do(func() {
		l.err = errClosedBeforeUse
	})
	if l.emb == nil {
		return nil
	}
	return l.emb.Close()
}

var _ Embedder = (*Lazy)(nil)
