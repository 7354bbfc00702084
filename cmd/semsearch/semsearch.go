// Package semsearchcmder
package semsearchcmder

import (
	"github.com/spf13/cobra"

	configcmder "github.com/papercomputeco/semsearch/cmd/semsearch/config"
	ingestcmder "github.com/papercomputeco/semsearch/cmd/semsearch/ingest"
	initcmder "github.com/papercomputeco/semsearch/cmd/semsearch/init"
	querycmder "github.com/papercomputeco/semsearch/cmd/semsearch/query"
	servecmder "github.com/papercomputeco/semsearch/cmd/semsearch/serve"
	statuscmder "github.com/papercomputeco/semsearch/cmd/semsearch/status"
	versioncmder "github.com/papercomputeco/semsearch/cmd/version"
)

const semsearchLongDesc string = `semsearch is dense-vector semantic retrieval over a small document corpus.

Documents are embedded with a document prefix, normalized to unit length and
stored alongside their text. Queries are embedded with a query prefix and
ranked by cosine similarity, best match first.

Get started:
  semsearch init                         Create a local .semsearch/ directory
  semsearch ingest --sample              Store the sample corpus
  semsearch query "capital of Japan"     Rank stored documents
  semsearch serve                        Run the HTTP and MCP API`

const semsearchShortDesc string = "semsearch - semantic retrieval"

func NewSemsearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "semsearch",
		Short:         semsearchShortDesc,
		Long:          semsearchLongDesc,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .semsearch/ directory")

	// Add subcommands
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(ingestcmder.NewIngestCmd())
	cmd.AddCommand(querycmder.NewQueryCmd())
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(statuscmder.NewStatusCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
