package driven

import (
	"context"

	"github.com/ArabianCowboy/SFDA-copilot/internal/core/domain"
)

// ChunkStore provides access to the chunk metadata table: one row per
// chunk with text and provenance. Rows are written once by the offline
// build and read-only during serving.
type ChunkStore interface {
	// GetChunk returns the chunk with the given id, or a wrapped
	// domain.ErrNotFound.
	GetChunk(ctx context.Context, id string) (*domain.Chunk, error)

	// IDsByCategory returns the set of chunk ids belonging to the
	// category. Used to pre-filter both retrieval paths.
	IDsByCategory(ctx context.Context, category domain.Category) (IDSet, error)

	// Count returns the number of stored chunks.
	Count(ctx context.Context) (int, error)

	// Categories returns the distinct categories present in the corpus,
	// as stored. The loader validates them against the closed set.
	Categories(ctx context.Context) ([]string, error)

	// SaveChunks persists chunks in order. Build-time only.
	SaveChunks(ctx context.Context, chunks []domain.Chunk) error

	// Close releases resources.
	Close() error
}
