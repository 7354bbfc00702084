package dotdir

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	ingestFile = "last_ingest.json"
)

// IngestState records the last ingest that completed against the configured
// store. Queries compare it against the active embedding settings, since
// vectors from different models are not comparable.
type IngestState struct {
	RunID             string    `json:"run_id"`
	Documents         int       `json:"documents"`
	Dimensions        uint      `json:"dimensions"`
	StorageProvider   string    `json:"storage_provider"`
	EmbeddingProvider string    `json:"embedding_provider"`
	Model             string    `json:"model"`
	CompletedAt       time.Time `json:"completed_at"`
}

// MatchesModel reports whether the state was produced by the given embedding
// provider and model.
func (s *IngestState) MatchesModel(provider, model string) bool {
	return s.EmbeddingProvider == provider && s.Model == model
}

// LoadIngestState loads the state from a target .semsearch/last_ingest.json.
// Returns nil, nil if nothing has been ingested yet.
func (m *Manager) LoadIngestState(overrideDir string) (*IngestState, error) {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(dir, ingestFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading ingest state: %w", err)
	}

	state := &IngestState{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("parsing ingest state: %w", err)
	}

	return state, nil
}

// SaveIngestState persists the state to a target .semsearch/last_ingest.json.
func (m *Manager) SaveIngestState(state *IngestState, overrideDir string) error {
	if state == nil {
		return errors.New("cannot save nil ingest state")
	}

	dir, err := m.Target(overrideDir)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling ingest state: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, ingestFile), data, 0o600); err != nil {
		return fmt.Errorf("writing ingest state: %w", err)
	}

	return nil
}

// ClearIngestState removes the state file. Returns nil if it does not exist.
func (m *Manager) ClearIngestState(overrideDir string) error {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return err
	}

	if err := os.Remove(filepath.Join(dir, ingestFile)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("removing ingest state: %w", err)
	}

	return nil
}
