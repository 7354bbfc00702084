package testutils

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"github.com/papercomputeco/semsearch/pkg/vector"
)

// MockEmbedder is a test embedder that returns predictable embeddings
type MockEmbedder struct {
	// Embeddings maps exact input text to a fixed vector.
	Embeddings map[string][]float32

	// Vocabulary switches unmatched texts to bag-of-words vectors: component
	// i counts occurrences of Vocabulary[i] among the lowercased words of
	// the text. Words outside the vocabulary are ignored.
	Vocabulary []string

	// FailOn causes Embed to return an error when an input text matches
	FailOn string

	mu     sync.Mutex
	calls  [][]string
	closed bool
}

func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{
		Embeddings: make(map[string][]float32),
	}
}

// NewVocabularyEmbedder creates a MockEmbedder producing bag-of-words vectors.
func NewVocabularyEmbedder(words ...string) *MockEmbedder {
	m := NewMockEmbedder()
	m.Vocabulary = words
	return m
}

func (m *MockEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.calls = append(m.calls, append([]string(nil), texts...))
	m.mu.Unlock()

	out := make([][]float32, len(texts))
	for i, text := range texts {
		if m.FailOn != "" && text == m.FailOn {
			return nil, fmt.Errorf("%w: mock embedding failure for: %s", vector.ErrEmbedding, text)
		}
		out[i] = m.embedOne(text)
	}
	return out, nil
}

func (m *MockEmbedder) embedOne(text string) []float32 {
	if emb, ok := m.Embeddings[text]; ok {
		return emb
	}

	if len(m.Vocabulary) > 0 {
		vec := make([]float32, len(m.Vocabulary))
		words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		for _, w := range words {
			for i, v := range m.Vocabulary {
				if w == v {
					vec[i]++
				}
			}
		}
		return vec
	}

	// Return a default embedding for any text
	return []float32{0.1, 0.2, 0.3}
}

// Calls returns the batches passed to Embed so far.
func (m *MockEmbedder) Calls() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]string(nil), m.calls...)
}

// Closed reports whether Close was called.
func (m *MockEmbedder) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *MockEmbedder) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}
