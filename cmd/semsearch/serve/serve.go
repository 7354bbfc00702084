// Package servecmder provides the serve command, which runs the HTTP and MCP
// API over the configured store.
package servecmder

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/semsearch/api"
	"github.com/papercomputeco/semsearch/cmd/semsearch/setup"
	"github.com/papercomputeco/semsearch/pkg/config"
	"github.com/papercomputeco/semsearch/pkg/embeddings"
	"github.com/papercomputeco/semsearch/pkg/logger"
)

const serveLongDesc string = `Run the semsearch API server.

Endpoints:
  GET  /ping              Health check
  GET  /v1/search         Rank documents (?query=...&top_k=N)
  GET  /v1/documents      List stored documents
  PUT  /v1/documents      Replace the corpus ({"texts": [...]})
  GET  /metrics           Prometheus metrics
  POST /mcp               MCP streamable HTTP endpoint with a "search" tool

Examples:
  semsearch serve
  semsearch serve --listen :9090 --storage postgres --postgres-dsn postgres://localhost/semsearch
  semsearch serve --log-file semsearch.log`

const serveShortDesc string = "Run the HTTP and MCP API"

type serveCommander struct {
	disableMCP bool

	// logFile additionally receives JSON log records when set.
	logFile string

	// embedder overrides the configured provider.
	embedder embeddings.Embedder

	// listener overrides the configured listen address.
	listener net.Listener

	env *setup.Env
}

var serveFlags = append(append([]string{}, config.StoreFlags...),
	config.FlagAPIListen,
	config.FlagTopK,
	config.FlagSearchMode,
	config.FlagStrict,
	config.FlagBatchSize,
	config.FlagKafkaBrokers,
)

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := setup.Load(cmd, serveFlags)
			if err != nil {
				return err
			}
			cmder.env = env

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return cmder.run(ctx)
		},
	}

	cmd.Flags().BoolVar(&cmder.disableMCP, "no-mcp", false, "Disable the /mcp endpoint")
	cmd.Flags().StringVar(&cmder.logFile, "log-file", "", "Also append JSON log records to this file")
	config.AddRegisteredFlags(cmd, config.Flags, serveFlags)

	return cmd
}

// run serves until ctx is cancelled or the server fails.
func (c *serveCommander) run(ctx context.Context) error {
	if c.logFile != "" {
		f, err := os.OpenFile(c.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer f.Close()
		c.env.Logger = logger.TeeJSON(c.env.Logger, f, c.env.Debug)
	}

	log := c.env.Logger
	c.env.CheckModel()

	built, err := c.env.Open(ctx, c.embedder)
	if err != nil {
		return err
	}
	defer built.Close()

	server, err := api.NewServer(api.Config{
		ListenAddr: c.env.Config.API.Listen,
		DisableMCP: c.disableMCP,
	}, built, log)
	if err != nil {
		return fmt.Errorf("could not build API server: %w", err)
	}

	ln := c.listener
	if ln == nil {
		ln, err = net.Listen("tcp", c.env.Config.API.Listen)
		if err != nil {
			return fmt.Errorf("listening on %s: %w", c.env.Config.API.Listen, err)
		}
	}

	log.Info("serving documents",
		"storage", c.env.Config.Storage.Provider,
		"embedding_provider", c.env.Config.Embedding.Provider,
		"model", c.env.Config.Embedding.Model,
		"ranking", built.Ranker.Mode(),
	)

	errChan := make(chan error, 1)
	go func() {
		if err := server.Serve(ln); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
		close(errChan)
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		log.Info("shutting down")
		if err := server.Shutdown(); err != nil {
			return fmt.Errorf("shutting down API server: %w", err)
		}
		return nil
	}
}
