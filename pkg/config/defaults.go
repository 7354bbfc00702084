package config

const (
	defaultStorageProvider = "sqlite"
	defaultSQLitePath      = "semsearch.db"
	defaultCollection      = "documents"

	defaultEmbeddingProvider   = "ollama"
	defaultEmbeddingTarget     = "http://localhost:11434"
	defaultEmbeddingModel      = "nomic-embed-text"
	defaultEmbeddingDimensions = 768
	defaultBatchSize           = 32
	defaultDocumentPrefix      = "search_document: "
	defaultQueryPrefix         = "search_query: "

	defaultTopK       = 4
	defaultSearchMode = "auto"

	defaultAPIListen = ":8081"

	defaultKafkaTopic = "semsearch.ingest"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Storage: StorageConfig{
			Provider:   defaultStorageProvider,
			SQLitePath: defaultSQLitePath,
			Collection: defaultCollection,
		},
		Embedding: EmbeddingConfig{
			Provider:       defaultEmbeddingProvider,
			Target:         defaultEmbeddingTarget,
			Model:          defaultEmbeddingModel,
			Dimensions:     defaultEmbeddingDimensions,
			BatchSize:      defaultBatchSize,
			DocumentPrefix: defaultDocumentPrefix,
			QueryPrefix:    defaultQueryPrefix,
		},
		Search: SearchConfig{
			TopK: defaultTopK,
			Mode: defaultSearchMode,
		},
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		Events: EventsConfig{
			KafkaTopic: defaultKafkaTopic,
		},
	}
}
