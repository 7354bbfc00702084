// Package pipelineutils assembles a pipeline from configuration.
package pipelineutils

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/papercomputeco/semsearch/pkg/config"
	"github.com/papercomputeco/semsearch/pkg/embeddings"
	embeddingutils "github.com/papercomputeco/semsearch/pkg/embeddings/utils"
	"github.com/papercomputeco/semsearch/pkg/eventstream"
	"github.com/papercomputeco/semsearch/pkg/eventstream/kafka"
	"github.com/papercomputeco/semsearch/pkg/eventstream/nop"
	"github.com/papercomputeco/semsearch/pkg/eventstream/worker"
	"github.com/papercomputeco/semsearch/pkg/pipeline"
	"github.com/papercomputeco/semsearch/pkg/rank"
	"github.com/papercomputeco/semsearch/pkg/vector"
	vectorutils "github.com/papercomputeco/semsearch/pkg/vector/utils"
)

// NewPipelineOpts selects the components of a pipeline.
type NewPipelineOpts struct {
	Config *config.Config

	// StorageTarget overrides the target derived from Config.Storage, such
	// as a resolved SQLite path.
	StorageTarget string

	// Embedder overrides the configured provider.
	Embedder embeddings.Embedder

	Logger *slog.Logger
}

// Built is a pipeline together with the resources it owns.
type Built struct {
	*pipeline.Pipeline

	Driver    vector.Driver
	Embedder  embeddings.Embedder
	Publisher eventstream.Publisher
	Ranker    *rank.Ranker

	// ownsEmbedder is false for the process-wide shared provider, which
	// outlives any single pipeline.
	ownsEmbedder bool
}

// Close releases the driver and publisher, and the embedder when it was
// passed in through NewPipelineOpts.Embedder.
func (b *Built) Close() error {
	closers := []io.Closer{b.Publisher, b.Driver}
	if b.ownsEmbedder {
		closers = append(closers, b.Embedder)
	}

	var errs []error
	for _, c := range closers {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// StorageTarget returns the connection target for the configured provider.
func StorageTarget(c *config.Config) string {
	switch c.Storage.Provider {
	case vectorutils.ProviderSQLite:
		return c.Storage.SQLitePath
	case vectorutils.ProviderPostgres:
		return c.Storage.PostgresDSN
	case vectorutils.ProviderQdrant:
		return c.Storage.QdrantTarget
	default:
		return ""
	}
}

// NewPipeline opens the configured store, embedding provider and event
// publisher and wires them into a pipeline. The embedding provider is shared
// per process, only initialized on first use and left open by Built.Close.
func NewPipeline(ctx context.Context, o *NewPipelineOpts) (*Built, error) {
	if o.Config == nil {
		return nil, errors.New("config is required")
	}
	cfg := o.Config
	log := o.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	mode, err := rank.ParseMode(cfg.Search.Mode)
	if err != nil {
		return nil, err
	}

	target := o.StorageTarget
	if target == "" {
		target = StorageTarget(cfg)
	}

	b := &Built{}

	b.Driver, err = vectorutils.NewVectorDriver(ctx, &vectorutils.NewVectorDriverOpts{
		ProviderType: cfg.Storage.Provider,
		Target:       target,
		Collection:   cfg.Storage.Collection,
		Dimensions:   cfg.Embedding.Dimensions,
		Logger:       log.With("component", "vector"),
	})
	if err != nil {
		return nil, fmt.Errorf("opening vector store: %w", err)
	}

	b.Ranker, err = rank.New(b.Driver,
		rank.WithMode(mode),
		rank.WithStrict(cfg.Search.Strict),
		rank.WithLogger(log.With("component", "rank")),
	)
	if err != nil {
		_ = b.Close()
		return nil, err
	}

	b.Embedder = o.Embedder
	b.ownsEmbedder = o.Embedder != nil
	if b.Embedder == nil {
		b.Embedder = embeddingutils.Shared(&embeddingutils.NewEmbedderOpts{
			ProviderType: cfg.Embedding.Provider,
			TargetURL:    cfg.Embedding.Target,
			Model:        cfg.Embedding.Model,
			APIKey:       cfg.Embedding.APIKey,
			Dimensions:   cfg.Embedding.Dimensions,
			RedisTarget:  cfg.Cache.RedisTarget,
			Logger:       log,
		})
	}

	if brokers := cfg.KafkaBrokerList(); len(brokers) > 0 {
		publisher, err := kafka.NewPublisher(kafka.Config{
			Brokers: brokers,
			Topic:   cfg.Events.KafkaTopic,
		})
		if err != nil {
			_ = b.Close()
			return nil, fmt.Errorf("creating kafka publisher: %w", err)
		}

		// Delivery happens off the ingest path; Close drains the queue.
		b.Publisher, err = worker.NewPool(&worker.Config{
			Publisher: publisher,
			Logger:    log.With("component", "events"),
		})
		if err != nil {
			_ = publisher.Close()
			_ = b.Close()
			return nil, err
		}
	} else {
		b.Publisher = nop.NewPublisher()
	}

	b.Pipeline, err = pipeline.New(pipeline.Config{
		Embedder: b.Embedder,
		Driver:   b.Driver,
		Ranker:   b.Ranker,
		Prefixes: &embeddings.Prefixes{
			Document: cfg.Embedding.DocumentPrefix,
			Query:    cfg.Embedding.QueryPrefix,
		},
		Dimensions:  cfg.Embedding.Dimensions,
		BatchSize:   cfg.Embedding.BatchSize,
		DefaultTopK: cfg.Search.TopK,
		Publisher:   b.Publisher,
		Source: eventstream.EventSource{
			StorageProvider:   cfg.Storage.Provider,
			EmbeddingProvider: cfg.Embedding.Provider,
			Model:             cfg.Embedding.Model,
		},
		Logger: log,
	})
	if err != nil {
		_ = b.Close()
		return nil, err
	}

	return b, nil
}
