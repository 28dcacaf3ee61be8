package driven

import "context"

// EmbeddingService generates dense vector embeddings from text.
//
// Normalization is part of the contract: every returned vector has unit
// L2 norm (a zero vector is returned unchanged). Failing to normalize
// both corpus and query vectors consistently silently corrupts
// distance-based ranking, so it is not left to callers.
//
// Implementations may include:
//   - Ollama (nomic-embed-text, all-minilm)
//   - Local sentence-transformer inference servers
type EmbeddingService interface {
	// Embed generates a normalized embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates normalized embeddings for multiple texts.
	// It fails with a wrapped domain.ErrInvalidInput for an empty batch.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g. 384, 768).
	// This is fixed per model and must match the loaded vector index;
	// the mismatch check happens once at facade construction.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
