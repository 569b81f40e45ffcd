package embcache

import "errors"

var (
	// ErrStoreRequired is returned when an entry store is not provided.
	ErrStoreRequired = errors.New("entry store required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrInvalidMaxAttempts is returned for a retry policy with no attempts.
	ErrInvalidMaxAttempts = errors.New("max attempts must be positive")
)
