// Package inmemory provides a process-local vector driver. Contents are lost
// when the process exits.
package inmemory

import (
	"context"
	"slices"
	"sync"

	"github.com/papercomputeco/semsearch/pkg/vector"
)

// Driver keeps documents in a slice that is swapped wholesale on replace.
type Driver struct {
	dimensions uint

	mu   sync.RWMutex
	docs []vector.Document
}

// NewDriver creates an empty driver. A dimensions value of 0 accepts
// embeddings of any length.
func NewDriver(dimensions uint) *Driver {
	return &Driver{
		dimensions: dimensions,
		docs:       []vector.Document{},
	}
}

// ReplaceAll builds the new set off to the side and swaps it in under the
// write lock.
func (d *Driver) ReplaceAll(_ context.Context, docs []vector.NewDocument) error {
	if err := vector.ValidateDocuments(docs, d.dimensions); err != nil {
		return err
	}

	next := make([]vector.Document, len(docs))
	for i, doc := range docs {
		next[i] = vector.Document{
			ID:        int64(i + 1),
			Content:   doc.Content,
			Embedding: slices.Clone(doc.Embedding),
		}
	}

	d.mu.Lock()
	d.docs = next
	d.mu.Unlock()
	return nil
}

// ScanAll returns a copy of every document ordered by ID.
func (d *Driver) ScanAll(_ context.Context) ([]vector.Document, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]vector.Document, len(d.docs))
	for i, doc := range d.docs {
		out[i] = doc
		out[i].Embedding = slices.Clone(doc.Embedding)
	}
	return out, nil
}

// Count returns the number of stored documents.
func (d *Driver) Count(_ context.Context) (int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.docs), nil
}

// Close is a no-op.
func (d *Driver) Close() error {
	return nil
}

var _ vector.Driver = (*Driver)(nil)
