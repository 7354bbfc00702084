// Package setup resolves configuration and opens the pipeline for commands
// that touch the document store.
package setup

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/semsearch/cmd/semsearch/sqlitepath"
	"github.com/papercomputeco/semsearch/pkg/config"
	"github.com/papercomputeco/semsearch/pkg/dotdir"
	"github.com/papercomputeco/semsearch/pkg/embeddings"
	"github.com/papercomputeco/semsearch/pkg/logger"
	pipelineutils "github.com/papercomputeco/semsearch/pkg/pipeline/utils"
	vectorutils "github.com/papercomputeco/semsearch/pkg/vector/utils"
)

// Env is everything a store command needs.
type Env struct {
	Config *config.Config

	// Dir is the resolved .semsearch/ directory.
	Dir string

	// StorageTarget is the connection target with SQLite paths resolved.
	StorageTarget string

	Logger *slog.Logger
	Dotdir *dotdir.Manager

	// Debug reports whether --debug was given.
	Debug bool
}

// Load resolves configuration for cmd. Flags named by registryKeys must
// already be registered on cmd.
func Load(cmd *cobra.Command, registryKeys []string) (*Env, error) {
	cfg, dir, err := config.LoadForCommand(cmd, registryKeys)
	if err != nil {
		return nil, err
	}

	debug, _ := cmd.Flags().GetBool("debug")

	target := pipelineutils.StorageTarget(cfg)
	if cfg.Storage.Provider == vectorutils.ProviderSQLite {
		target = sqlitepath.ResolveSQLitePath(target, dir)
	}

	return &Env{
		Config:        cfg,
		Dir:           dir,
		StorageTarget: target,
		Logger:        logger.ForCLI(cmd.ErrOrStderr(), debug),
		Dotdir:        dotdir.NewManager(),
		Debug:         debug,
	}, nil
}

// Open builds the pipeline described by e. A nil embedder uses the
// configured provider.
func (e *Env) Open(ctx context.Context, embedder embeddings.Embedder) (*pipelineutils.Built, error) {
	built, err := pipelineutils.NewPipeline(ctx, &pipelineutils.NewPipelineOpts{
		Config:        e.Config,
		StorageTarget: e.StorageTarget,
		Embedder:      embedder,
		Logger:        e.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("opening pipeline: %w", err)
	}
	return built, nil
}

// CheckModel warns when the store was last built with a different
// embedding model than the one now configured.
func (e *Env) CheckModel() {
	state, err := e.Dotdir.LoadIngestState(e.Dir)
	if err != nil {
		e.Logger.Warn("could not read ingest state", "error", err)
		return
	}
	if state == nil {
		return
	}
	if !state.MatchesModel(e.Config.Embedding.Provider, e.Config.Embedding.Model) {
		e.Logger.Warn("store was built with a different embedding model; re-run ingest",
			"ingested_provider", state.EmbeddingProvider,
			"ingested_model", state.Model,
			"configured_provider", e.Config.Embedding.Provider,
			"configured_model", e.Config.Embedding.Model,
		)
	}
}
