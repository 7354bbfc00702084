package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papercomputeco/semsearch/pkg/dotdir"
)

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the SEMSEARCH_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (SEMSEARCH_STORAGE_PROVIDER, SEMSEARCH_API_LISTEN, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	// 1. Register all defaults from NewDefaultConfig().
	setViperDefaults(v)

	// 2. Config file discovery via dotdir resolution.
	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// 3. Environment variables: SEMSEARCH_EMBEDDING_MODEL, SEMSEARCH_STORAGE_SQLITE_PATH, etc.
	v.SetEnvPrefix("SEMSEARCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// FromViper reads every registered key out of v into a Config, so callers
// get a single struct with the full precedence chain applied.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Version: v.GetInt("version"),
		Storage: StorageConfig{
			Provider:     v.GetString("storage.provider"),
			SQLitePath:   v.GetString("storage.sqlite_path"),
			PostgresDSN:  v.GetString("storage.postgres_dsn"),
			QdrantTarget: v.GetString("storage.qdrant_target"),
			Collection:   v.GetString("storage.collection"),
		},
		Embedding: EmbeddingConfig{
			Provider:       v.GetString("embedding.provider"),
			Target:         v.GetString("embedding.target"),
			Model:          v.GetString("embedding.model"),
			Dimensions:     v.GetUint("embedding.dimensions"),
			APIKey:         v.GetString("embedding.api_key"),
			BatchSize:      v.GetInt("embedding.batch_size"),
			DocumentPrefix: v.GetString("embedding.document_prefix"),
			QueryPrefix:    v.GetString("embedding.query_prefix"),
		},
		Cache: CacheConfig{
			RedisTarget: v.GetString("cache.redis_target"),
		},
		Search: SearchConfig{
			TopK:   v.GetInt("search.top_k"),
			Mode:   v.GetString("search.mode"),
			Strict: v.GetBool("search.strict"),
		},
		API: APIConfig{
			Listen: v.GetString("api.listen"),
		},
		Events: EventsConfig{
			KafkaBrokers: v.GetString("events.kafka_brokers"),
			KafkaTopic:   v.GetString("events.kafka_topic"),
		},
	}
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
// Keys without a default are still registered so AutomaticEnv can find them.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// Storage
	v.SetDefault("storage.provider", d.Storage.Provider)
	v.SetDefault("storage.sqlite_path", d.Storage.SQLitePath)
	v.SetDefault("storage.postgres_dsn", d.Storage.PostgresDSN)
	v.SetDefault("storage.qdrant_target", d.Storage.QdrantTarget)
	v.SetDefault("storage.collection", d.Storage.Collection)

	// Embedding
	v.SetDefault("embedding.provider", d.Embedding.Provider)
	v.SetDefault("embedding.target", d.Embedding.Target)
	v.SetDefault("embedding.model", d.Embedding.Model)
	v.SetDefault("embedding.dimensions", d.Embedding.Dimensions)
	v.SetDefault("embedding.api_key", d.Embedding.APIKey)
	v.SetDefault("embedding.batch_size", d.Embedding.BatchSize)
	v.SetDefault("embedding.document_prefix", d.Embedding.DocumentPrefix)
	v.SetDefault("embedding.query_prefix", d.Embedding.QueryPrefix)

	// Cache
	v.SetDefault("cache.redis_target", d.Cache.RedisTarget)

	// Search
	v.SetDefault("search.top_k", d.Search.TopK)
	v.SetDefault("search.mode", d.Search.Mode)
	v.SetDefault("search.strict", d.Search.Strict)

	// API
	v.SetDefault("api.listen", d.API.Listen)

	// Events
	v.SetDefault("events.kafka_brokers", d.Events.KafkaBrokers)
	v.SetDefault("events.kafka_topic", d.Events.KafkaTopic)
}

// LoadForCommand resolves the .semsearch/ directory from the --config-dir
// flag, builds the viper precedence chain, binds the registry flags named by
// registryKeys and returns the merged Config with the resolved directory.
func LoadForCommand(cmd *cobra.Command, registryKeys []string) (*Config, string, error) {
	configDir, _ := cmd.Flags().GetString("config-dir")

	target, err := dotdir.NewManager().Target(configDir)
	if err != nil {
		return nil, "", fmt.Errorf("resolving config dir: %w", err)
	}

	v, err := InitViper(target)
	if err != nil {
		return nil, "", err
	}

	BindRegisteredFlags(v, cmd, Flags, registryKeys)

	return FromViper(v), target, nil
}
