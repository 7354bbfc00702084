// Package vectorutils constructs vector drivers by provider name.
package vectorutils

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/papercomputeco/semsearch/pkg/vector"
	"github.com/papercomputeco/semsearch/pkg/vector/inmemory"
	"github.com/papercomputeco/semsearch/pkg/vector/postgres"
	"github.com/papercomputeco/semsearch/pkg/vector/qdrant"
	"github.com/papercomputeco/semsearch/pkg/vector/sqlitevec"
)

const (
	ProviderMemory   = "memory"
	ProviderSQLite   = "sqlite"
	ProviderPostgres = "postgres"
	ProviderQdrant   = "qdrant"
)

type NewVectorDriverOpts struct {
	ProviderType string

	// Target is the SQLite path, PostgreSQL connection string or Qdrant
	// address depending on ProviderType. Unused for memory.
	Target string

	// Collection names the PostgreSQL table or Qdrant alias.
	Collection string

	Dimensions uint
	Logger     *slog.Logger
}

func NewVectorDriver(ctx context.Context, o *NewVectorDriverOpts) (vector.Driver, error) {
	switch o.ProviderType {
	case ProviderMemory:
		return inmemory.NewDriver(o.Dimensions), nil
	case ProviderSQLite:
		return sqlitevec.NewSQLiteVecDriver(sqlitevec.Config{
			DBPath:     o.Target,
			Dimensions: o.Dimensions,
		}, o.Logger)
	case ProviderPostgres:
		return postgres.NewDriver(ctx, postgres.Config{
			ConnString: o.Target,
			Table:      o.Collection,
			Dimensions: o.Dimensions,
		}, o.Logger)
	case ProviderQdrant:
		return qdrant.NewDriver(ctx, qdrant.Config{
			Target:     o.Target,
			Collection: o.Collection,
			Dimensions: o.Dimensions,
		}, o.Logger)
	default:
		return nil, fmt.Errorf("unsupported vector store provider: %s", o.ProviderType)
	}
}
