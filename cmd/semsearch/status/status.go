// Package statuscmder provides the status command for displaying the
// configured store and the last completed ingest.
package statuscmder

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/semsearch/cmd/semsearch/setup"
	"github.com/papercomputeco/semsearch/pkg/cliui"
	"github.com/papercomputeco/semsearch/pkg/config"
	vectorutils "github.com/papercomputeco/semsearch/pkg/vector/utils"
)

const statusLongDesc string = `Show the configured store and the last completed ingest.

Reads the local .semsearch/ directory (or ~/.semsearch/) for configuration
and the record of the last ingest, then connects to the store to count the
documents it currently holds.

A warning is shown when the configured embedding model differs from the one
the store was built with, since queries would compare incompatible vectors.

Examples:
  semsearch status
  semsearch status --storage postgres --postgres-dsn postgres://localhost/semsearch`

const statusShortDesc string = "Show store and ingest state"

type statusCommander struct {
	out io.Writer
	env *setup.Env
}

func NewStatusCmd() *cobra.Command {
	cmder := &statusCommander{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: statusShortDesc,
		Long:  statusLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmder.out = cmd.OutOrStdout()

			env, err := setup.Load(cmd, config.StoreFlags)
			if err != nil {
				return err
			}
			cmder.env = env

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return cmder.run(ctx)
		},
	}

	config.AddRegisteredFlags(cmd, config.Flags, config.StoreFlags)

	return cmd
}

func (c *statusCommander) run(ctx context.Context) error {
	cfg := c.env.Config

	state, err := c.env.Dotdir.LoadIngestState(c.env.Dir)
	if err != nil {
		return fmt.Errorf("loading ingest state: %w", err)
	}

	fmt.Fprintln(c.out)
	c.row("Config dir:", c.env.Dir)
	c.row("Storage:   ", fmt.Sprintf("%s %s", cfg.Storage.Provider, cliui.DimStyle.Render(c.env.StorageTarget)))
	c.row("Embedding: ", fmt.Sprintf("%s/%s %s", cfg.Embedding.Provider, cfg.Embedding.Model,
		cliui.DimStyle.Render(fmt.Sprintf("(%d dimensions)", cfg.Embedding.Dimensions))))
	c.row("Documents: ", c.countDocuments(ctx))
	fmt.Fprintln(c.out)

	if state == nil {
		fmt.Fprintf(c.out, "  %s Nothing ingested yet. Run \"semsearch ingest\" to build the store.\n\n",
			cliui.DimStyle.Render("●"))
		return nil
	}

	c.row("Last ingest:", state.CompletedAt.Local().Format(time.RFC3339))
	c.row("Run:        ", state.RunID)
	c.row("Ingested:   ", fmt.Sprintf("%s documents, %d dimensions", strconv.Itoa(state.Documents), state.Dimensions))
	c.row("Built with: ", fmt.Sprintf("%s/%s on %s", state.EmbeddingProvider, state.Model, state.StorageProvider))

	if !state.MatchesModel(cfg.Embedding.Provider, cfg.Embedding.Model) {
		fmt.Fprintf(c.out, "\n  %s\n", cliui.WarnStyle.Render(
			"The configured embedding model differs from the one the store was built with. Re-run \"semsearch ingest\"."))
	}
	fmt.Fprintln(c.out)

	return nil
}

// countDocuments asks the store for its size. Connection problems are shown
// in place of the count so the rest of the status still prints.
func (c *statusCommander) countDocuments(ctx context.Context) string {
	cfg := c.env.Config
	driver, err := vectorutils.NewVectorDriver(ctx, &vectorutils.NewVectorDriverOpts{
		ProviderType: cfg.Storage.Provider,
		Target:       c.env.StorageTarget,
		Collection:   cfg.Storage.Collection,
		Dimensions:   cfg.Embedding.Dimensions,
		Logger:       c.env.Logger,
	})
	if err != nil {
		return cliui.FailMark + " " + cliui.WarnStyle.Render(err.Error())
	}
	defer driver.Close()

	n, err := driver.Count(ctx)
	if err != nil {
		return cliui.FailMark + " " + cliui.WarnStyle.Render(err.Error())
	}
	return strconv.Itoa(n)
}

func (c *statusCommander) row(key, value string) {
	fmt.Fprintf(c.out, "  %s  %s\n", cliui.KeyStyle.Render(key), cliui.ValueStyle.Render(value))
}
