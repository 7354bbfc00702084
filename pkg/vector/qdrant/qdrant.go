// Package qdrant provides a vector driver backed by a Qdrant server.
//
// Readers address the store through an alias. A full replace builds a fresh
// collection next to the live one, then repoints the alias in a single
// UpdateAliases call so queries move from the old complete set to the new
// complete set with nothing in between.
package qdrant

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"slices"
	"strconv"
	"time"

	"github.com/qdrant/go-client/qdrant"

	"github.com/papercomputeco/semsearch/pkg/vector"
)

const (
	// DefaultCollection is the alias queries are served from.
	DefaultCollection = "semsearch"

	// DefaultPort is the Qdrant gRPC port.
	DefaultPort = 6334

	contentKey     = "content"
	upsertSize     = 256
	scrollPageSize = 256
	scanAttempts   = 3
)

// Config holds configuration for the Qdrant driver.
type Config struct {
	// Target is the gRPC address, "host" or "host:port".
	Target string

	// Collection is the alias name readers query. Defaults to DefaultCollection.
	Collection string

	// Dimensions is the embedding length. Required.
	Dimensions uint
}

// Driver implements vector.Driver and vector.Querier on Qdrant.
type Driver struct {
	client     *qdrant.Client
	alias      string
	dimensions uint
	logger     *slog.Logger
}

// NewDriver connects to Qdrant and makes sure the alias points at a
// collection, creating an empty one on first use.
func NewDriver(ctx context.Context, c Config, logger *slog.Logger) (*Driver, error) {
	if c.Target == "" {
		return nil, errors.New("qdrant target is required")
	}
	if c.Dimensions == 0 {
		return nil, errors.New("qdrant embedding dimensions cannot be 0, must be configured")
	}

	host, port, err := splitTarget(c.Target)
	if err != nil {
		return nil, err
	}

	alias := c.Collection
	if alias == "" {
		alias = DefaultCollection
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: creating qdrant client: %v", vector.ErrStorageUnavailable, err)
	}

	if _, err := client.HealthCheck(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: qdrant health check: %v", vector.ErrStorageUnavailable, err)
	}

	d := &Driver{
		client:     client,
		alias:      alias,
		dimensions: c.Dimensions,
		logger:     logger,
	}

	current, err := d.aliasTarget(ctx)
	if err != nil {
		client.Close()
		return nil, err
	}
	if current == "" {
		if err := d.ReplaceAll(ctx, nil); err != nil {
			client.Close()
			return nil, fmt.Errorf("initializing collection: %w", err)
		}
	}

	logger.Info("qdrant vector driver initialized",
		"target", c.Target,
		"collection", alias,
		"dimensions", c.Dimensions,
	)

	return d, nil
}

func splitTarget(target string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(target)
	if err != nil {
		// No port given.
		return target, DefaultPort, nil
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid qdrant port %q: %w", portStr, err)
	}
	return host, port, nil
}

// aliasTarget returns the collection the alias points at, or "".
func (d *Driver) aliasTarget(ctx context.Context) (string, error) {
	aliases, err := d.client.ListAliases(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: listing aliases: %v", vector.ErrStorageUnavailable, err)
	}
	for _, a := range aliases {
		if a.GetAliasName() == d.alias {
			return a.GetCollectionName(), nil
		}
	}
	return "", nil
}

// ReplaceAll fills a new collection, swaps the alias onto it and drops the
// previous collection. A failure before the swap deletes the new collection
// and leaves the alias untouched.
func (d *Driver) ReplaceAll(ctx context.Context, docs []vector.NewDocument) error {
	if err := vector.ValidateDocuments(docs, d.dimensions); err != nil {
		return err
	}
	for i, doc := range docs {
		if doc.Embedding == nil {
			return fmt.Errorf("document %d: qdrant requires an embedding", i+1)
		}
	}

	previous, err := d.aliasTarget(ctx)
	if err != nil {
		return err
	}

	next := fmt.Sprintf("%s_%d", d.alias, time.Now().UnixNano())
	if err := d.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: next,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(d.dimensions),
			Distance: qdrant.Distance_Cosine,
		}),
	}); err != nil {
		return fmt.Errorf("%w: creating collection %s: %v", vector.ErrStorageUnavailable, next, err)
	}

	if err := d.fill(ctx, next, docs); err != nil {
		d.drop(next)
		return err
	}

	ops := []*qdrant.AliasOperations{}
	if previous != "" {
		ops = append(ops, qdrant.NewAliasDelete(d.alias))
	}
	ops = append(ops, qdrant.NewAliasCreate(d.alias, next))

	if err := d.client.UpdateAliases(ctx, ops); err != nil {
		d.drop(next)
		return fmt.Errorf("%w: swapping alias %s: %v", vector.ErrStorageUnavailable, d.alias, err)
	}

	if previous != "" {
		d.drop(previous)
	}

	d.logger.Debug("replaced documents in qdrant",
		"collection", next,
		"count", len(docs),
	)

	return nil
}

func (d *Driver) fill(ctx context.Context, collection string, docs []vector.NewDocument) error {
	for start := 0; start < len(docs); start += upsertSize {
		end := min(start+upsertSize, len(docs))

		points := make([]*qdrant.PointStruct, 0, end-start)
		for i := start; i < end; i++ {
			points = append(points, &qdrant.PointStruct{
				Id:      qdrant.NewIDNum(uint64(i + 1)),
				Vectors: qdrant.NewVectors(docs[i].Embedding...),
				Payload: qdrant.NewValueMap(map[string]any{
					contentKey: docs[i].Content,
				}),
			})
		}

		if _, err := d.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: collection,
			Wait:           qdrant.PtrOf(true),
			Points:         points,
		}); err != nil {
			return fmt.Errorf("%w: upserting points %d-%d: %v", vector.ErrStorageUnavailable, start+1, end, err)
		}
	}
	return nil
}

// drop deletes a collection on a fresh context so cleanup still runs after
// the caller's context is cancelled.
func (d *Driver) drop(collection string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := d.client.DeleteCollection(ctx, collection); err != nil {
		d.logger.Warn("failed to delete qdrant collection",
			"collection", collection,
			"error", err,
		)
	}
}

// ScanAll returns every stored document ordered by ID.
//
// The alias is resolved to its collection once and that collection is paged
// to the end, so a concurrent ReplaceAll never mixes two sets. If the swap
// drops the collection mid-scan the scan restarts on the new one.
func (d *Driver) ScanAll(ctx context.Context) ([]vector.Document, error) {
	var lastErr error
	for range scanAttempts {
		collection, err := d.aliasTarget(ctx)
		if err != nil {
			return nil, err
		}
		if collection == "" {
			return []vector.Document{}, nil
		}

		docs, err := d.scanCollection(ctx, collection)
		if err == nil {
			return docs, nil
		}
		lastErr = err

		current, aerr := d.aliasTarget(ctx)
		if aerr != nil || current == collection {
			break
		}
		d.logger.Debug("qdrant alias moved during scan, restarting",
			"from", collection,
			"to", current,
		)
	}
	return nil, lastErr
}

func (d *Driver) scanCollection(ctx context.Context, collection string) ([]vector.Document, error) {
	docs := []vector.Document{}

	var offset *qdrant.PointId
	for {
		points, next, err := d.client.ScrollAndOffset(ctx, &qdrant.ScrollPoints{
			CollectionName: collection,
			Offset:         offset,
			Limit:          qdrant.PtrOf(uint32(scrollPageSize)),
			WithPayload:    qdrant.NewWithPayload(true),
			WithVectors:    qdrant.NewWithVectors(true),
		})
		if err != nil {
			return nil, fmt.Errorf("%w: scrolling %s: %v", vector.ErrStorageUnavailable, collection, err)
		}

		for _, p := range points {
			docs = append(docs, vector.Document{
				ID:        int64(p.GetId().GetNum()),
				Content:   p.GetPayload()[contentKey].GetStringValue(),
				Embedding: denseVector(p.GetVectors()),
			})
		}

		if next == nil {
			break
		}
		offset = next
	}

	slices.SortFunc(docs, func(a, b vector.Document) int {
		return cmp.Compare(a.ID, b.ID)
	})

	return docs, nil
}

// Count returns the number of stored documents.
func (d *Driver) Count(ctx context.Context) (int, error) {
	n, err := d.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: d.alias,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("%w: counting %s: %v", vector.ErrStorageUnavailable, d.alias, err)
	}
	return int(n), nil
}

// Query runs a nearest-neighbour search with cosine distance. Qdrant
// reports cosine similarity directly as the score.
func (d *Driver) Query(ctx context.Context, embedding []float32, topK int) ([]vector.QueryResult, error) {
	if len(embedding) != int(d.dimensions) {
		return nil, fmt.Errorf("query has %d components, want %d: %w",
			len(embedding), d.dimensions, vector.ErrDimensionMismatch)
	}
	if topK <= 0 {
		return []vector.QueryResult{}, nil
	}

	points, err := d.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: d.alias,
		Query:          qdrant.NewQuery(embedding...),
		Limit:          qdrant.PtrOf(uint64(topK)),
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(true),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: querying %s: %v", vector.ErrStorageUnavailable, d.alias, err)
	}

	results := make([]vector.QueryResult, 0, len(points))
	for _, p := range points {
		results = append(results, vector.QueryResult{
			Document: vector.Document{
				ID:        int64(p.GetId().GetNum()),
				Content:   p.GetPayload()[contentKey].GetStringValue(),
				Embedding: denseVector(p.GetVectors()),
			},
			Score: p.GetScore(),
		})
	}

	return results, nil
}

func denseVector(v *qdrant.VectorsOutput) []float32 {
	out := v.GetVector()
	if out == nil {
		return nil
	}
	if dense := out.GetDense(); dense != nil {
		return dense.GetData()
	}
	return out.GetData()
}

// Close closes the gRPC connection.
func (d *Driver) Close() error {
	return d.client.Close()
}

var (
	_ vector.Driver  = (*Driver)(nil)
	_ vector.Querier = (*Driver)(nil)
)
