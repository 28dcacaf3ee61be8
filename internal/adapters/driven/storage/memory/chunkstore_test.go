package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArabianCowboy/SFDA-copilot/internal/core/domain"
)

func seedChunks(t *testing.T, store *ChunkStore) {
	t.Helper()
	err := store.SaveChunks(context.Background(), []domain.Chunk{
		{ID: "a_p1_0", Text: "stability data", Category: domain.CategoryRegulatory, ChunkType: domain.ChunkTypeText},
		{ID: "a_p1_1", Text: "assay limits", Category: domain.CategoryRegulatory, ChunkType: domain.ChunkTypeTable},
		{ID: "b_p1_0", Text: "adverse reactions", Category: domain.CategoryPharmacovigilance, ChunkType: domain.ChunkTypeText},
	})
	require.NoError(t, err)
}

func TestChunkStore_GetChunk(t *testing.T) {
	store := NewChunkStore()
	seedChunks(t, store)

	chunk, err := store.GetChunk(context.Background(), "a_p1_1")
	require.NoError(t, err)
	assert.Equal(t, domain.ChunkTypeTable, chunk.ChunkType)

	_, err = store.GetChunk(context.Background(), "missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestChunkStore_IDsByCategory(t *testing.T) {
	store := NewChunkStore()
	seedChunks(t, store)

	ids, err := store.IDsByCategory(context.Background(), domain.CategoryRegulatory)
	require.NoError(t, err)
	assert.Len(t, ids, 2)
	assert.True(t, ids.Contains("a_p1_0"))
	assert.False(t, ids.Contains("b_p1_0"))
}

func TestChunkStore_CountAndCategories(t *testing.T) {
	store := NewChunkStore()
	seedChunks(t, store)

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	categories, err := store.Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"pharmacovigilance", "regulatory"}, categories)
}

func TestChunkStore_AllChunks_Order(t *testing.T) {
	store := NewChunkStore()
	seedChunks(t, store)

	chunks, err := store.allChunks(context.Background())
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, "a_p1_0", chunks[0].ID)
	assert.Equal(t, "b_p1_0", chunks[2].ID)
}
