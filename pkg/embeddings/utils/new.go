// Package embeddingutils is the embeddings utility package
package embeddingutils

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/papercomputeco/semsearch/pkg/embeddings"
	"github.com/papercomputeco/semsearch/pkg/embeddings/cache"
	"github.com/papercomputeco/semsearch/pkg/embeddings/ollama"
	"github.com/papercomputeco/semsearch/pkg/embeddings/openai"
	"github.com/papercomputeco/semsearch/pkg/logger"
)

// Embedding provider names accepted in embedding.provider.
const (
	// ProviderOllama selects a local Ollama server.
	ProviderOllama = "ollama"

	// ProviderOpenAI selects the OpenAI embeddings API or a compatible server.
	ProviderOpenAI = "openai"
)

// NewEmbedderOpts selects and configures an embedding provider.
type NewEmbedderOpts struct {
	ProviderType string

	// TargetURL is the provider base URL. Empty uses the provider default.
	TargetURL string
	Model     string
	APIKey    string

	// Dimensions is passed through to providers that can shorten vectors.
	Dimensions uint

	// RedisTarget enables the embedding cache when set.
	RedisTarget string

	Logger *slog.Logger
}

// NewEmbedder constructs the provider named by o.ProviderType, wrapped in
// the Redis cache when o.RedisTarget is set.
func NewEmbedder(o *NewEmbedderOpts) (embeddings.Embedder, error) {
	var (
		emb embeddings.Embedder
		err error
	)

	switch o.ProviderType {
	case ProviderOllama:
		emb, err = ollama.NewEmbedder(ollama.EmbedderConfig{
			BaseURL: o.TargetURL,
			Model:   o.Model,
		})
	case ProviderOpenAI:
		emb, err = openai.NewEmbedder(openai.Config{
			APIKey:     o.APIKey,
			BaseURL:    o.TargetURL,
			Model:      o.Model,
			Dimensions: int(o.Dimensions),
		})
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", o.ProviderType)
	}
	if err != nil {
		return nil, err
	}

	if o.RedisTarget == "" {
		return emb, nil
	}

	store, err := cache.NewRedisStore(context.Background(), o.RedisTarget, cache.DefaultTTL)
	if err != nil {
		emb.Close()
		return nil, fmt.Errorf("creating embedding cache: %w", err)
	}

	log := o.Logger
	if log == nil {
		log = logger.Nop()
	}
	return cache.New(emb, store, o.Model, log.With("component", "embedding_cache")), nil
}

var (
	sharedMu sync.Mutex
	shared   = map[string]*embeddings.Lazy{}
)

// Shared returns the process-wide handle for the options in o. The provider
// is constructed on first Embed and reused by every caller asking for the
// same options. Callers must not close the handle; CloseShared releases
// every handle at process exit.
func Shared(o *NewEmbedderOpts) *embeddings.Lazy {
	key := sharedKey(o)

	sharedMu.Lock()
	defer sharedMu.Unlock()

	if h, ok := shared[key]; ok {
		return h
	}

	opts := *o
	h := embeddings.NewLazy(func() (embeddings.Embedder, error) {
		return NewEmbedder(&opts)
	})
	shared[key] = h
	return h
}

// CloseShared closes every shared handle and forgets them, so a later Shared
// call constructs a fresh provider.
func CloseShared() error {
	sharedMu.Lock()
	handles := shared
	shared = map[string]*embeddings.Lazy{}
	sharedMu.Unlock()

	var errs []error
	for _, h := range handles {
		if err := h.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// sharedKey covers every option that changes the constructed provider.
func sharedKey(o *NewEmbedderOpts) string {
	return strings.Join([]string{
		o.ProviderType,
		o.TargetURL,
		o.Model,
		o.APIKey,
		strconv.FormatUint(uint64(o.Dimensions), 10),
		o.RedisTarget,
	}, "\x00")
}
