package vector

import "errors"

var (
	// ErrEmbedding is returned when embedding generation fails.
	ErrEmbedding = errors.New("embedding failed")

	// ErrDegenerateVector is returned when a vector has a zero, NaN or infinite
	// norm and therefore cannot be normalized.
	ErrDegenerateVector = errors.New("degenerate vector")

	// ErrStorageUnavailable is returned when the vector store connection fails.
	ErrStorageUnavailable = errors.New("vector store unavailable")

	// ErrUnnormalizedInput is returned by strict ranking when a vector is not
	// unit length.
	ErrUnnormalizedInput = errors.New("unnormalized input vector")

	// ErrDimensionMismatch is returned when a vector's length does not match
	// the configured embedding dimensions.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrEmptyContent is returned when a document has no text content.
	ErrEmptyContent = errors.New("document content is empty")
)
