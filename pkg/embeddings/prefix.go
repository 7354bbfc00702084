package embeddings

import (
	"errors"
	"fmt"
)

// Role selects which side of an asymmetric embedding model a text is for.
type Role int

const (
	// RoleDocument marks text being indexed.
	RoleDocument Role = iota

	// RoleQuery marks text being searched for.
	RoleQuery
)

const (
	// DefaultDocumentPrefix is the nomic-embed-text marker for indexed text.
	DefaultDocumentPrefix = "search_document: "

	// DefaultQueryPrefix is the nomic-embed-text marker for query text.
	DefaultQueryPrefix = "search_query: "
)

// ErrPrefixCollision is returned when the document and query markers are
// identical, which would make query and document vectors indistinguishable.
var ErrPrefixCollision = errors.New("document and query prefixes must differ")

func (r Role) String() string {
	switch r {
	case RoleDocument:
		return "document"
	case RoleQuery:
		return "query"
	default:
		return fmt.Sprintf("Role(%d)", int(r))
	}
}

// Prefixes holds the marker strings prepended per role.
type Prefixes struct {
	Document string
	Query    string
}

// DefaultPrefixes returns the nomic-embed-text prefix pair.
func DefaultPrefixes() Prefixes {
	return Prefixes{
		Document: DefaultDocumentPrefix,
		Query:    DefaultQueryPrefix,
	}
}

// Validate checks that the two markers differ.
func (p Prefixes) Validate() error {
	if p.Document == p.Query {
		return fmt.Errorf("%w: both are %q", ErrPrefixCollision, p.Document)
	}
	return nil
}

// Apply prepends the marker for role to text.
func (p Prefixes) Apply(text string, role Role) string {
	if role == RoleQuery {
		return p.Query + text
	}
	return p.Document + text
}

// ApplyAll prepends the marker for role to every text, returning a new slice.
func (p Prefixes) ApplyAll(texts []string, role Role) []string {
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = p.Apply(t, role)
	}
	return out
}

// ApplyPrefix prepends the default marker for role to text.
func ApplyPrefix(text string, role Role) string {
	return DefaultPrefixes().Apply(text, role)
}
