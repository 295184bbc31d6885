package reembed

import "errors"

var (
	// ErrModelRequired is returned when the source or target model is empty.
	ErrModelRequired = errors.New("source and target models are required")

	// ErrEmbeddingCountMismatch is returned when the embedding service returns
	// a different number of vectors than texts it was given.
	ErrEmbeddingCountMismatch = errors.New("embedding count mismatch")
)
