package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline. This prevents flag drift
// when the same logical flag appears on multiple commands (e.g., --storage
// on "semsearch ingest", "semsearch query" and "semsearch serve").
type Flag struct {
	// Name is the long flag name (e.g. "storage").
	Name string

	// Shorthand is the one-letter short flag (e.g. "s"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "storage.provider").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag names to Flag structs that hold their name,
// shorthand, viper key, etc.
type FlagSet map[string]Flag

// Flag registry keys.
// Use these constants when calling AddStringFlag, AddUintFlag,
// and BindRegisteredFlags to avoid typos or drift from one command to another.
const (
	FlagStorageProvider = "storage"
	FlagSQLitePath      = "sqlite"
	FlagPostgresDSN     = "postgres-dsn"
	FlagQdrantTarget    = "qdrant-target"
	FlagCollection      = "collection"
	FlagEmbeddingProv   = "embedding-provider"
	FlagEmbeddingTgt    = "embedding-target"
	FlagEmbeddingModel  = "embedding-model"
	FlagEmbeddingDims   = "embedding-dimensions"
	FlagBatchSize       = "batch-size"
	FlagRedisTarget     = "redis"
	FlagTopK            = "top"
	FlagSearchMode      = "mode"
	FlagStrict          = "strict"
	FlagAPIListen       = "listen"
	FlagKafkaBrokers    = "kafka-brokers"
)

// Flags is the registry shared by every semsearch command.
var Flags = FlagSet{
	FlagStorageProvider: {Name: "storage", ViperKey: "storage.provider", Description: "Document store (memory, sqlite, postgres, qdrant)"},
	FlagSQLitePath:      {Name: "sqlite", Shorthand: "s", ViperKey: "storage.sqlite_path", Description: "Path to SQLite database"},
	FlagPostgresDSN:     {Name: "postgres-dsn", ViperKey: "storage.postgres_dsn", Description: "PostgreSQL connection string"},
	FlagQdrantTarget:    {Name: "qdrant-target", ViperKey: "storage.qdrant_target", Description: "Qdrant gRPC address (host:port)"},
	FlagCollection:      {Name: "collection", ViperKey: "storage.collection", Description: "PostgreSQL table or Qdrant alias"},
	FlagEmbeddingProv:   {Name: "embedding-provider", ViperKey: "embedding.provider", Description: "Embedding provider (ollama, openai)"},
	FlagEmbeddingTgt:    {Name: "embedding-target", ViperKey: "embedding.target", Description: "Embedding provider URL"},
	FlagEmbeddingModel:  {Name: "embedding-model", ViperKey: "embedding.model", Description: "Embedding model name"},
	FlagEmbeddingDims:   {Name: "embedding-dimensions", ViperKey: "embedding.dimensions", Description: "Embedding dimensions"},
	FlagBatchSize:       {Name: "batch-size", ViperKey: "embedding.batch_size", Description: "Texts per embedding call"},
	FlagRedisTarget:     {Name: "redis", ViperKey: "cache.redis_target", Description: "Redis address for the embedding cache (empty disables)"},
	FlagTopK:            {Name: "top", Shorthand: "k", ViperKey: "search.top_k", Description: "Number of results to return"},
	FlagSearchMode:      {Name: "mode", ViperKey: "search.mode", Description: "Ranking mode (auto, native, client)"},
	FlagStrict:          {Name: "strict", ViperKey: "search.strict", Description: "Fail on vectors that are not unit length"},
	FlagAPIListen:       {Name: "listen", Shorthand: "l", ViperKey: "api.listen", Description: "Address for the API server to listen on"},
	FlagKafkaBrokers:    {Name: "kafka-brokers", ViperKey: "events.kafka_brokers", Description: "Comma separated Kafka brokers for ingest events"},
}

// StoreFlags are the registry keys every command touching the store binds.
var StoreFlags = []string{
	FlagStorageProvider,
	FlagSQLitePath,
	FlagPostgresDSN,
	FlagQdrantTarget,
	FlagCollection,
	FlagEmbeddingProv,
	FlagEmbeddingTgt,
	FlagEmbeddingModel,
	FlagEmbeddingDims,
	FlagRedisTarget,
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultString(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddUintFlag registers a uint flag on cmd from the given FlagSet.
func AddUintFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *uint) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultUint(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().UintVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().UintVar(target, def.Name, defaultVal, def.Description)
	}
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

// defaultString returns the default string value for a viper key from NewDefaultConfig.
func defaultString(viperKey string) string {
	v := viper.New()
	setViperDefaults(v)
	return v.GetString(viperKey)
}

// defaultUint returns the default uint value for a viper key from NewDefaultConfig.
func defaultUint(viperKey string) uint {
	v := viper.New()
	setViperDefaults(v)
	return v.GetUint(viperKey)
}

// AddIntFlag registers an int flag on cmd from the given FlagSet.
func AddIntFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *int) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultInt(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().IntVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().IntVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddBoolFlag registers a bool flag on cmd from the given FlagSet.
func AddBoolFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *bool) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultBool(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().BoolVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().BoolVar(target, def.Name, defaultVal, def.Description)
	}
}

// defaultInt returns the default int value for a viper key from NewDefaultConfig.
func defaultInt(viperKey string) int {
	v := viper.New()
	setViperDefaults(v)
	return v.GetInt(viperKey)
}

// defaultBool returns the default bool value for a viper key from NewDefaultConfig.
func defaultBool(viperKey string) bool {
	v := viper.New()
	setViperDefaults(v)
	return v.GetBool(viperKey)
}

// AddRegisteredFlags registers every named registry flag on cmd, choosing the
// flag type from the key's default. The flag targets are discarded; values
// are read back through viper once BindRegisteredFlags has run.
func AddRegisteredFlags(cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	v := viper.New()
	setViperDefaults(v)

	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok || cmd.Flags().Lookup(def.Name) != nil {
			continue
		}

		switch v.Get(def.ViperKey).(type) {
		case uint:
			AddUintFlag(cmd, fs, registryKey, new(uint))
		case int:
			AddIntFlag(cmd, fs, registryKey, new(int))
		case bool:
			AddBoolFlag(cmd, fs, registryKey, new(bool))
		default:
			AddStringFlag(cmd, fs, registryKey, new(string))
		}
	}
}
