// Package memory provides in-memory store implementations used by tests
// and the offline build pipeline before artifacts are persisted.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/ArabianCowboy/SFDA-copilot/internal/core/domain"
	"github.com/ArabianCowboy/SFDA-copilot/internal/core/ports/driven"
)

// Ensure ChunkStore implements the interface.
var _ driven.ChunkStore = (*ChunkStore)(nil)

// ChunkStore is an in-memory implementation of driven.ChunkStore.
type ChunkStore struct {
	mu     sync.RWMutex
	chunks map[string]domain.Chunk
	order  []string
}

// NewChunkStore creates a new in-memory chunk store.
func NewChunkStore() *ChunkStore {
	return &ChunkStore{
		chunks: make(map[string]domain.Chunk),
	}
}

// SaveChunks stores chunks, preserving insertion order for new ids.
func (s *ChunkStore) SaveChunks(_ context.Context, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, chunk := range chunks {
		if _, exists := s.chunks[chunk.ID]; !exists {
			s.order = append(s.order, chunk.ID)
		}
		s.chunks[chunk.ID] = chunk
	}
	return nil
}

// GetChunk retrieves a chunk by ID.
func (s *ChunkStore) GetChunk(_ context.Context, id string) (*domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chunk, ok := s.chunks[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &chunk, nil
}

// IDsByCategory returns the set of chunk ids in the category.
func (s *ChunkStore) IDsByCategory(_ context.Context, category domain.Category) (driven.IDSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make(driven.IDSet)
	for id, chunk := range s.chunks {
		if chunk.Category == category {
			ids[id] = struct{}{}
		}
	}
	return ids, nil
}

// Count returns the number of stored chunks.
func (s *ChunkStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks), nil
}

// Categories returns the distinct categories present, sorted.
func (s *ChunkStore) Categories(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]struct{})
	for _, chunk := range s.chunks {
		seen[chunk.Category.String()] = struct{}{}
	}
	categories := make([]string, 0, len(seen))
	for cat := range seen {
		categories = append(categories, cat)
	}
	sort.Strings(categories)
	return categories, nil
}

// allChunks returns every chunk in insertion order, for the package
// tests.
func (s *ChunkStore) allChunks(_ context.Context) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chunks := make([]domain.Chunk, 0, len(s.order))
	for _, id := range s.order {
		chunks = append(chunks, s.chunks[id])
	}
	return chunks, nil
}

// Close releases resources. No-op for the in-memory store.
func (s *ChunkStore) Close() error {
	return nil
}
