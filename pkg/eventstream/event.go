package eventstream

import (
	"time"

	"github.com/google/uuid"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeIngestCompleted is emitted after a full replace commits.
	EventTypeIngestCompleted = "semsearch.ingest.completed"
)

// IngestCompletedEvent is a transport-neutral event payload for a finished
// ingestion run.
type IngestCompletedEvent struct {
	SchemaVersion int         `json:"schema_version"`
	EventType     string      `json:"event_type"`
	EventID       string      `json:"event_id"`
	EmittedAt     time.Time   `json:"emitted_at"`
	Source        EventSource `json:"source"`
	Run           IngestRun   `json:"run"`
}

// EventSource identifies the store and model the run wrote with.
type EventSource struct {
	StorageProvider   string `json:"storage_provider"`
	EmbeddingProvider string `json:"embedding_provider,omitempty"`
	Model             string `json:"model,omitempty"`
}

// IngestRun captures the outcome of the run.
type IngestRun struct {
	RunID       string    `json:"run_id"`
	Documents   int       `json:"documents"`
	Dimensions  int       `json:"dimensions"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	DurationMs  int64     `json:"duration_ms"`
}

// NewIngestCompletedEvent stamps run with a fresh event ID and the current
// time.
func NewIngestCompletedEvent(source EventSource, run IngestRun) *IngestCompletedEvent {
	return &IngestCompletedEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeIngestCompleted,
		EventID:       "evt_" + uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Source:        source,
		Run:           run,
	}
}
