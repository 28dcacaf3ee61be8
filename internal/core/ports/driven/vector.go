package driven

import "context"

// IDSet restricts a search to an allowed subset of chunk ids.
// A nil IDSet means no restriction.
type IDSet map[string]struct{}

// Contains reports whether the id is allowed. A nil set allows all ids.
func (s IDSet) Contains(id string) bool {
	if s == nil {
		return true
	}
	_, ok := s[id]
	return ok
}

// VectorIndex provides semantic similarity search over the corpus chunk
// embeddings. The index is built once offline and is read-only for the
// lifetime of a serving process, so concurrent searches need no
// synchronization.
type VectorIndex interface {
	// Search finds the k nearest chunks to the normalized query vector.
	// When allowed is non-nil, ineligible chunks are excluded before
	// top-k selection, so filtering never reduces the result count below
	// what the eligible subset can supply.
	Search(ctx context.Context, query []float32, k int, allowed IDSet) ([]VectorHit, error)

	// Dimensions returns the embedding dimension recorded at build time.
	Dimensions() int

	// Len returns the number of indexed vectors.
	Len() int

	// Close releases resources.
	Close() error
}

// VectorHit is a similarity search result.
type VectorHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Similarity is the distance converted to a 0-1 "higher is better"
	// score via 1/(1+distance).
	Similarity float64
}
