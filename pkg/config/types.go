package config

import (
	"fmt"
	"strconv"
)

// Config represents the persistent semsearch configuration stored as
// config.toml in the .semsearch/ directory. The TOML layout uses sections
// for logical grouping.
type Config struct {
	Version   int             `toml:"version"`
	Storage   StorageConfig   `toml:"storage"`
	Embedding EmbeddingConfig `toml:"embedding"`
	Cache     CacheConfig     `toml:"cache"`
	Search    SearchConfig    `toml:"search"`
	API       APIConfig       `toml:"api"`
	Events    EventsConfig    `toml:"events"`
}

// StorageConfig selects and addresses the document store.
type StorageConfig struct {
	Provider     string `toml:"provider,omitempty"`
	SQLitePath   string `toml:"sqlite_path,omitempty"`
	PostgresDSN  string `toml:"postgres_dsn,omitempty"`
	QdrantTarget string `toml:"qdrant_target,omitempty"`

	// Collection is the PostgreSQL table or Qdrant alias.
	Collection string `toml:"collection,omitempty"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider       string `toml:"provider,omitempty"`
	Target         string `toml:"target,omitempty"`
	Model          string `toml:"model,omitempty"`
	Dimensions     uint   `toml:"dimensions,omitempty"`
	APIKey         string `toml:"api_key,omitempty"`
	BatchSize      int    `toml:"batch_size,omitempty"`
	DocumentPrefix string `toml:"document_prefix,omitempty"`
	QueryPrefix    string `toml:"query_prefix,omitempty"`
}

// CacheConfig holds embedding cache settings. An empty target disables
// caching.
type CacheConfig struct {
	RedisTarget string `toml:"redis_target,omitempty"`
}

// SearchConfig holds ranking settings.
type SearchConfig struct {
	TopK   int    `toml:"top_k,omitempty"`
	Mode   string `toml:"mode,omitempty"`
	Strict bool   `toml:"strict,omitempty"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// EventsConfig holds ingest event publishing settings. No brokers disables
// publishing.
type EventsConfig struct {
	KafkaBrokers string `toml:"kafka_brokers,omitempty"`
	KafkaTopic   string `toml:"kafka_topic,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func stringKey(field func(c *Config) *string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error { *field(c) = v; return nil },
	}
}

func intKey(name string, field func(c *Config) *int) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			if *field(c) == 0 {
				return ""
			}
			return strconv.Itoa(*field(c))
		},
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			if n < 0 {
				return fmt.Errorf("invalid value for %s: must not be negative", name)
			}
			*field(c) = n
			return nil
		},
	}
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"storage.provider":      stringKey(func(c *Config) *string { return &c.Storage.Provider }),
	"storage.sqlite_path":   stringKey(func(c *Config) *string { return &c.Storage.SQLitePath }),
	"storage.postgres_dsn":  stringKey(func(c *Config) *string { return &c.Storage.PostgresDSN }),
	"storage.qdrant_target": stringKey(func(c *Config) *string { return &c.Storage.QdrantTarget }),
	"storage.collection":    stringKey(func(c *Config) *string { return &c.Storage.Collection }),

	"embedding.provider": stringKey(func(c *Config) *string { return &c.Embedding.Provider }),
	"embedding.target":   stringKey(func(c *Config) *string { return &c.Embedding.Target }),
	"embedding.model":    stringKey(func(c *Config) *string { return &c.Embedding.Model }),
	"embedding.dimensions": {
		get: func(c *Config) string {
			if c.Embedding.Dimensions == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Embedding.Dimensions), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for embedding.dimensions: %w", err)
			}
			c.Embedding.Dimensions = uint(n)
			return nil
		},
	},
	"embedding.api_key":         stringKey(func(c *Config) *string { return &c.Embedding.APIKey }),
	"embedding.batch_size":      intKey("embedding.batch_size", func(c *Config) *int { return &c.Embedding.BatchSize }),
	"embedding.document_prefix": stringKey(func(c *Config) *string { return &c.Embedding.DocumentPrefix }),
	"embedding.query_prefix":    stringKey(func(c *Config) *string { return &c.Embedding.QueryPrefix }),

	"cache.redis_target": stringKey(func(c *Config) *string { return &c.Cache.RedisTarget }),

	"search.top_k": intKey("search.top_k", func(c *Config) *int { return &c.Search.TopK }),
	"search.mode":  stringKey(func(c *Config) *string { return &c.Search.Mode }),
	"search.strict": {
		get: func(c *Config) string { return strconv.FormatBool(c.Search.Strict) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for search.strict: %w", err)
			}
			c.Search.Strict = b
			return nil
		},
	},

	"api.listen": stringKey(func(c *Config) *string { return &c.API.Listen }),

	"events.kafka_brokers": stringKey(func(c *Config) *string { return &c.Events.KafkaBrokers }),
	"events.kafka_topic":   stringKey(func(c *Config) *string { return &c.Events.KafkaTopic }),
}
