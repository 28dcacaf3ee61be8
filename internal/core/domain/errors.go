package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrConfiguration indicates a fatal startup problem: an embedding
	// dimension mismatch between the loaded index and the configured
	// embedding service, missing or corrupt persisted artifacts, or
	// corpus metadata referencing an unknown category. It aborts startup
	// and is never produced per query.
	ErrConfiguration = errors.New("configuration error")

	// ErrEmbeddingUnavailable indicates the embedding model could not be
	// reached or timed out. Per query this triggers the lexical-only
	// fallback rather than failing the request.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrIndexUnavailable indicates a sub-index failed to respond.
	// Per query this triggers the complementary single-method fallback.
	ErrIndexUnavailable = errors.New("index unavailable")

	// ErrUnknownCategory indicates a category outside the closed set.
	ErrUnknownCategory = errors.New("unknown category")

	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")
)
