// Package configcmder provides the config command for managing persistent
// semsearch configuration stored in the .semsearch/ directory.
package configcmder

import (
	"github.com/spf13/cobra"

	"github.com/papercomputeco/semsearch/pkg/config"
)

const configLongDesc string = `Manage persistent semsearch configuration.

Configuration is stored as config.toml in the .semsearch/ directory and provides
default values for command flags. CLI flags and SEMSEARCH_* environment
variables take precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  storage.provider, storage.sqlite_path, storage.postgres_dsn,
  storage.qdrant_target, storage.collection,
  embedding.provider, embedding.target, embedding.model, embedding.dimensions,
  embedding.api_key, embedding.batch_size,
  embedding.document_prefix, embedding.query_prefix,
  cache.redis_target,
  search.top_k, search.mode, search.strict,
  api.listen,
  events.kafka_brokers, events.kafka_topic

Use subcommands to get, set, or list configuration values:
  semsearch config set <key> <value>    Set a configuration value
  semsearch config get <key>            Get a configuration value
  semsearch config list                 List all configuration values

Examples:
  semsearch config set storage.provider postgres
  semsearch config set embedding.model nomic-embed-text
  semsearch config get search.top_k
  semsearch config list`

const configShortDesc string = "Manage persistent semsearch configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

// validKeysCompletion completes the first positional argument with config keys.
func validKeysCompletion(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}
