package testutils

import (
	"context"
	"sync"

	"github.com/papercomputeco/semsearch/pkg/vector"
)

// MockVectorDriver is a test vector driver that keeps documents in memory
// and can be told to fail.
type MockVectorDriver struct {
	// FailReplace is returned from ReplaceAll when set. Stored documents are
	// left untouched.
	FailReplace error

	// FailScan is returned from ScanAll and Count when set.
	FailScan error

	mu           sync.Mutex
	documents    []vector.Document
	replaceCalls int
}

func NewMockVectorDriver() *MockVectorDriver {
	return &MockVectorDriver{
		documents: make([]vector.Document, 0),
	}
}

func (m *MockVectorDriver) ReplaceAll(_ context.Context, docs []vector.NewDocument) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.replaceCalls++
	if m.FailReplace != nil {
		return m.FailReplace
	}

	next := make([]vector.Document, len(docs))
	for i, d := range docs {
		next[i] = vector.Document{
			ID:        int64(i + 1),
			Content:   d.Content,
			Embedding: d.Embedding,
		}
	}
	m.documents = next
	return nil
}

func (m *MockVectorDriver) ScanAll(_ context.Context) ([]vector.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailScan != nil {
		return nil, m.FailScan
	}
	return append([]vector.Document(nil), m.documents...), nil
}

func (m *MockVectorDriver) Count(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailScan != nil {
		return 0, m.FailScan
	}
	return len(m.documents), nil
}

// Seed replaces the stored documents verbatim, keeping their IDs.
func (m *MockVectorDriver) Seed(docs ...vector.Document) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.documents = append([]vector.Document(nil), docs...)
}

// ReplaceCalls returns how many times ReplaceAll was called.
func (m *MockVectorDriver) ReplaceCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.replaceCalls
}

func (m *MockVectorDriver) Close() error {
	return nil
}
