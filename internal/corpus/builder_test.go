package corpus

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArabianCowboy/SFDA-copilot/internal/chunker"
	"github.com/ArabianCowboy/SFDA-copilot/internal/core/domain"
	"github.com/ArabianCowboy/SFDA-copilot/internal/core/ports/driving"
)

// stubEmbedder produces deterministic unit vectors without a model
// server.
type stubEmbedder struct {
	embedErr error
}

func (s *stubEmbedder) embed(text string) []float32 {
	// Cheap deterministic direction derived from the text length.
	switch len(text) % 3 {
	case 0:
		return []float32{1, 0, 0}
	case 1:
		return []float32{0, 1, 0}
	default:
		return []float32{0, 0, 1}
	}
}

func (s *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if s.embedErr != nil {
		return nil, s.embedErr
	}
	return s.embed(text), nil
}

func (s *stubEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if s.embedErr != nil {
		return nil, s.embedErr
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = s.embed(text)
	}
	return out, nil
}

func (s *stubEmbedder) Dimensions() int { return 3 }

func (s *stubEmbedder) ModelName() string { return "stub-embed" }

func (s *stubEmbedder) Ping(_ context.Context) error { return nil }

func (s *stubEmbedder) Close() error { return nil }

func testPages() []driving.Page {
	one := 1
	two := 2
	return []driving.Page{
		{
			Text:           "Registration applications for human medicinal products must include complete stability data covering the proposed shelf life.",
			SourceDocument: "registration.pdf",
			Category:       "Regulatory",
			Page:           &one,
		},
		{
			Text:           "Adverse drug reaction reports must reach the authority within fifteen calendar days of first awareness.",
			SourceDocument: "safety.pdf",
			Category:       "pharmacovigilance",
			Page:           &two,
		},
		{
			Text:           "| Species | Withdrawal period |\n| Cattle  | 28 days           |\n| Sheep   | 21 days           |",
			SourceDocument: "residues.pdf",
			Category:       "veterinary",
			Page:           nil,
		},
	}
}

func newTestBuilder(t *testing.T, embedder *stubEmbedder) (*Builder, *Layout) {
	t.Helper()
	layout, err := NewLayout(t.TempDir())
	require.NoError(t, err)
	params := DefaultBuildParams()
	params.BatchSize = 2
	params.Workers = 2
	builder := NewBuilder(layout, embedder, chunker.New(), params)
	return builder, layout
}

func TestBuilder_BuildAndLoad(t *testing.T) {
	builder, layout := newTestBuilder(t, &stubEmbedder{})

	stats, err := builder.Build(context.Background(), testPages())
	require.NoError(t, err)
	assert.NotEmpty(t, stats.Version)
	assert.Equal(t, 3, stats.Chunks)
	assert.Equal(t, 1, stats.TableChunks)
	assert.Equal(t, 3, stats.Dimension)

	current, err := layout.Current()
	require.NoError(t, err)
	assert.Equal(t, stats.Version, current)

	corpus, err := Load(context.Background(), layout, 3)
	require.NoError(t, err)
	defer corpus.Close()

	assert.Equal(t, stats.Chunks, corpus.Vector.Len())
	assert.Equal(t, stats.Chunks, corpus.Lexical.Len())

	chunk, err := corpus.Store.GetChunk(context.Background(), "registration.pdf_p1_0")
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryRegulatory, chunk.Category)
	require.NotNil(t, chunk.Page)
	assert.Equal(t, 1, *chunk.Page)
	assert.Len(t, chunk.Embedding, 3)
}

func TestBuilder_MissingPageNumberUsesZero(t *testing.T) {
	builder, layout := newTestBuilder(t, &stubEmbedder{})

	_, err := builder.Build(context.Background(), testPages())
	require.NoError(t, err)

	corpus, err := Load(context.Background(), layout, 3)
	require.NoError(t, err)
	defer corpus.Close()

	chunk, err := corpus.Store.GetChunk(context.Background(), "residues.pdf_p0_0")
	require.NoError(t, err)
	assert.Nil(t, chunk.Page)
	assert.Equal(t, domain.ChunkTypeTable, chunk.ChunkType)
}

func TestBuilder_RepeatedPageNumbersKeepIDsUnique(t *testing.T) {
	builder, layout := newTestBuilder(t, &stubEmbedder{})

	// Two pages of one document with no page metadata both coerce to
	// page 0. The chunk counter runs per document, so the ids stay
	// distinct and the published version loads.
	pages := []driving.Page{
		{
			Text:           "Annex I lists the documentation required for a marketing authorisation application.",
			SourceDocument: "guideline.pdf",
			Category:       "regulatory",
			Page:           nil,
		},
		{
			Text:           "Annex II describes the labelling particulars for the outer packaging.",
			SourceDocument: "guideline.pdf",
			Category:       "regulatory",
			Page:           nil,
		},
	}

	stats, err := builder.Build(context.Background(), pages)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Chunks)

	corpus, err := Load(context.Background(), layout, 3)
	require.NoError(t, err)
	defer corpus.Close()

	count, err := corpus.Store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, 2, corpus.Vector.Len())
	assert.Equal(t, 2, corpus.Lexical.Len())

	first, err := corpus.Store.GetChunk(context.Background(), "guideline.pdf_p0_0")
	require.NoError(t, err)
	second, err := corpus.Store.GetChunk(context.Background(), "guideline.pdf_p0_1")
	require.NoError(t, err)
	assert.NotEqual(t, first.Text, second.Text)
}

func TestBuilder_NoPages(t *testing.T) {
	builder, _ := newTestBuilder(t, &stubEmbedder{})

	_, err := builder.Build(context.Background(), nil)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestBuilder_UnknownCategory(t *testing.T) {
	builder, _ := newTestBuilder(t, &stubEmbedder{})

	pages := testPages()
	pages[0].Category = "homeopathy"
	_, err := builder.Build(context.Background(), pages)
	assert.True(t, errors.Is(err, domain.ErrUnknownCategory))
}

func TestBuilder_EmbeddingFailureLeavesNoVersion(t *testing.T) {
	builder, layout := newTestBuilder(t, &stubEmbedder{embedErr: errors.New("model offline")})

	_, err := builder.Build(context.Background(), testPages())
	require.Error(t, err)

	_, err = layout.Current()
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	versions, err := layout.Versions()
	require.NoError(t, err)
	assert.Empty(t, versions)
}

func TestBuilder_RebuildReplacesCurrent(t *testing.T) {
	builder, layout := newTestBuilder(t, &stubEmbedder{})

	first, err := builder.Build(context.Background(), testPages())
	require.NoError(t, err)

	second, err := builder.Build(context.Background(), testPages()[:1])
	require.NoError(t, err)
	assert.NotEqual(t, first.Version, second.Version)

	current, err := layout.Current()
	require.NoError(t, err)
	assert.Equal(t, second.Version, current)
}
