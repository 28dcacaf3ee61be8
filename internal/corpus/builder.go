package corpus

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/ArabianCowboy/SFDA-copilot/internal/adapters/driven/index/flat"
	"github.com/ArabianCowboy/SFDA-copilot/internal/adapters/driven/index/tfidf"
	"github.com/ArabianCowboy/SFDA-copilot/internal/adapters/driven/storage/sqlite"
	"github.com/ArabianCowboy/SFDA-copilot/internal/chunker"
	"github.com/ArabianCowboy/SFDA-copilot/internal/core/domain"
	"github.com/ArabianCowboy/SFDA-copilot/internal/core/ports/driven"
	"github.com/ArabianCowboy/SFDA-copilot/internal/core/ports/driving"
	"github.com/ArabianCowboy/SFDA-copilot/internal/logger"
)

// Ensure Builder implements the interface.
var _ driving.IndexBuilder = (*Builder)(nil)

// BuildParams tunes the offline build.
type BuildParams struct {
	// BatchSize is the number of chunk texts per embedding request.
	BatchSize int

	// Workers is the number of concurrent embedding batches.
	Workers int

	// MaxFeatures caps the TF-IDF vocabulary size.
	MaxFeatures int
}

// DefaultBuildParams returns the standard build tuning.
func DefaultBuildParams() BuildParams {
	return BuildParams{
		BatchSize:   100,
		Workers:     4,
		MaxFeatures: tfidf.DefaultMaxFeatures,
	}
}

// Builder runs the offline batch build: chunk the pages, embed every
// chunk, fit both indices, persist the artifacts into a staging
// directory, and atomically promote it as the current corpus version.
// Builds are single-writer; queries never see a half-built version.
type Builder struct {
	layout   *Layout
	embedder driven.EmbeddingService
	chunker  *chunker.Chunker
	params   BuildParams
}

// NewBuilder creates a builder.
func NewBuilder(layout *Layout, embedder driven.EmbeddingService, ch *chunker.Chunker, params BuildParams) *Builder {
	if params.BatchSize <= 0 {
		params.BatchSize = 100
	}
	if params.Workers <= 0 {
		params.Workers = 4
	}
	if params.MaxFeatures <= 0 {
		params.MaxFeatures = tfidf.DefaultMaxFeatures
	}
	return &Builder{layout: layout, embedder: embedder, chunker: ch, params: params}
}

// Build processes the pages into a complete corpus version and swaps it
// in as current.
func (b *Builder) Build(ctx context.Context, pages []driving.Page) (*driving.BuildStats, error) {
	logger.Section("Corpus Build")

	if len(pages) == 0 {
		return nil, fmt.Errorf("%w: no pages to build from", domain.ErrInvalidInput)
	}

	chunks, err := b.chunkPages(pages)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: pages produced no chunks", domain.ErrInvalidInput)
	}
	logger.Info("build: %d chunks from %d pages", len(chunks), len(pages))

	if err := b.embedChunks(ctx, chunks); err != nil {
		return nil, err
	}

	version, staging, err := b.layout.Begin()
	if err != nil {
		return nil, err
	}
	if err := b.writeArtifacts(ctx, staging, chunks); err != nil {
		if abortErr := b.layout.Abort(version); abortErr != nil {
			logger.Warn("build: cleaning up staging for version %s: %v", version, abortErr)
		}
		return nil, err
	}
	if err := b.layout.Promote(version); err != nil {
		return nil, err
	}

	stats := &driving.BuildStats{
		Version:   version,
		Chunks:    len(chunks),
		Dimension: b.embedder.Dimensions(),
	}
	for _, chunk := range chunks {
		if chunk.ChunkType == domain.ChunkTypeTable {
			stats.TableChunks++
		}
	}
	logger.Info("build: version %s promoted (%d chunks, %d tables)",
		version, stats.Chunks, stats.TableChunks)
	return stats, nil
}

// chunkPages splits every page and assigns deterministic ids of the form
// <document>_p<page>_<n>, where n enumerates a document's chunks across
// all of its pages. A per-page counter would collide when two pages of
// one document map to the same page number, which the nil-page coercion
// makes routine.
func (b *Builder) chunkPages(pages []driving.Page) ([]domain.Chunk, error) {
	var chunks []domain.Chunk
	seq := make(map[string]int)
	for _, page := range pages {
		category, err := domain.ParseCategory(page.Category)
		if err != nil {
			return nil, fmt.Errorf("%w: page from %q has category %q",
				domain.ErrUnknownCategory, page.SourceDocument, page.Category)
		}

		pageNum := 0
		if page.Page != nil {
			pageNum = *page.Page
		}

		for _, piece := range b.chunker.Split(page.Text) {
			n := seq[page.SourceDocument]
			seq[page.SourceDocument] = n + 1
			chunks = append(chunks, domain.Chunk{
				ID:             fmt.Sprintf("%s_p%d_%d", page.SourceDocument, pageNum, n),
				Text:           piece.Text,
				SourceDocument: page.SourceDocument,
				Category:       category,
				Page:           page.Page,
				ChunkType:      piece.Type,
			})
		}
	}
	return chunks, nil
}

// embedChunks fills in the embedding of every chunk, batching requests
// and running batches on a bounded worker pool. Any batch failure fails
// the build: a corpus with missing vectors would rank wrongly forever.
func (b *Builder) embedChunks(ctx context.Context, chunks []domain.Chunk) error {
	pool, err := ants.NewPool(b.params.Workers)
	if err != nil {
		return fmt.Errorf("creating embedding worker pool: %w", err)
	}
	defer pool.Release()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	for start := 0; start < len(chunks); start += b.params.BatchSize {
		end := start + b.params.BatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()

			texts := make([]string, len(batch))
			for i := range batch {
				texts[i] = batch[i].Text
			}

			embeddings, err := b.embedder.EmbedBatch(ctx, texts)
			if err == nil && len(embeddings) != len(batch) {
				err = fmt.Errorf("embedding batch returned %d vectors for %d texts",
					len(embeddings), len(batch))
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			for i := range batch {
				batch[i].Embedding = embeddings[i]
			}
		})
		if submitErr != nil {
			wg.Done()
			mu.Lock()
			if firstErr == nil {
				firstErr = submitErr
			}
			mu.Unlock()
			break
		}
	}

	wg.Wait()
	if firstErr != nil {
		return fmt.Errorf("embedding corpus: %w", firstErr)
	}
	return nil
}

// writeArtifacts persists the metadata table and both indices into the
// staging directory.
func (b *Builder) writeArtifacts(ctx context.Context, staging string, chunks []domain.Chunk) error {
	store, err := sqlite.NewStore(filepath.Join(staging, sqlite.MetadataFile))
	if err != nil {
		return fmt.Errorf("creating metadata store: %w", err)
	}
	if err := store.SaveChunks(ctx, chunks); err != nil {
		store.Close()
		return fmt.Errorf("saving chunk metadata: %w", err)
	}
	if err := store.Close(); err != nil {
		return fmt.Errorf("closing metadata store: %w", err)
	}

	vector, err := flat.New(b.embedder.Dimensions())
	if err != nil {
		return fmt.Errorf("creating vector index: %w", err)
	}
	for _, chunk := range chunks {
		if err := vector.Add(chunk.ID, chunk.Embedding); err != nil {
			return fmt.Errorf("indexing chunk %s: %w", chunk.ID, err)
		}
	}
	if err := vector.Save(filepath.Join(staging, flat.IndexFile)); err != nil {
		return fmt.Errorf("saving vector index: %w", err)
	}

	ids := make([]string, len(chunks))
	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		ids[i] = chunk.ID
		texts[i] = chunk.Text
	}
	lexical, err := tfidf.Fit(ids, texts, b.params.MaxFeatures)
	if err != nil {
		return fmt.Errorf("fitting lexical index: %w", err)
	}
	if err := lexical.Save(staging); err != nil {
		return fmt.Errorf("saving lexical index: %w", err)
	}

	return nil
}
