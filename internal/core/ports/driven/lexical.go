package driven

import "context"

// LexicalIndex provides sparse term-weight (TF-IDF) retrieval over the
// same chunk corpus as the vector index. The vocabulary is frozen at
// build time; queries are projected into it and out-of-vocabulary terms
// contribute zero weight.
type LexicalIndex interface {
	// Search projects the query into the fixed vocabulary and returns
	// the top k chunks by cosine similarity. When allowed is non-nil,
	// ineligible chunks are excluded before top-k selection.
	Search(ctx context.Context, query string, k int, allowed IDSet) ([]LexicalHit, error)

	// Len returns the number of indexed chunk rows.
	Len() int

	// Close releases resources.
	Close() error
}

// LexicalHit is a lexical search result.
type LexicalHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Score is the cosine similarity (0-1, higher is better).
	Score float64
}
