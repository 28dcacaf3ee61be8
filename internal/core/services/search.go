package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ArabianCowboy/SFDA-copilot/internal/core/domain"
	"github.com/ArabianCowboy/SFDA-copilot/internal/core/ports/driven"
	"github.com/ArabianCowboy/SFDA-copilot/internal/core/ports/driving"
	"github.com/ArabianCowboy/SFDA-copilot/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// SearchParams tunes the query path of the facade.
type SearchParams struct {
	// DefaultK is used when a request does not specify k.
	DefaultK int

	// SemanticWeight and LexicalWeight blend the two sub-scores.
	SemanticWeight float64
	LexicalWeight  float64

	// SemanticMultiplier and LexicalMultiplier size the candidate
	// pools: each sub-search fetches k * multiplier candidates.
	SemanticMultiplier int
	LexicalMultiplier  int

	// EmbedTimeout bounds the query embedding call. Zero disables the
	// bound.
	EmbedTimeout time.Duration
}

// DefaultSearchParams returns the standard tuning.
func DefaultSearchParams() SearchParams {
	return SearchParams{
		DefaultK:           3,
		SemanticWeight:     0.7,
		LexicalWeight:      0.3,
		SemanticMultiplier: 2,
		LexicalMultiplier:  2,
		EmbedTimeout:       10 * time.Second,
	}
}

// SearchService is the hybrid retrieval facade: it embeds the query,
// runs the semantic and lexical sub-searches concurrently, merges their
// candidates into one ranked list, and hydrates results from the chunk
// store. The indices are read-only after build, so the facade is safe
// for concurrent use.
type SearchService struct {
	store    driven.ChunkStore
	vector   driven.VectorIndex
	lexical  driven.LexicalIndex
	embedder driven.EmbeddingService
	combiner *Combiner
	params   SearchParams
}

// NewSearchService creates the facade. The embedding dimension check
// against the loaded vector index happens here, once, so a mismatched
// deployment fails loudly at startup instead of returning nonsense
// rankings per query.
func NewSearchService(
	store driven.ChunkStore,
	vector driven.VectorIndex,
	lexical driven.LexicalIndex,
	embedder driven.EmbeddingService,
	params SearchParams,
) (*SearchService, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: chunk store is required", domain.ErrConfiguration)
	}
	if vector != nil && embedder != nil && embedder.Dimensions() != vector.Dimensions() {
		return nil, fmt.Errorf("%w: embedding model %q produces %d dimensions but the vector index holds %d",
			domain.ErrConfiguration, embedder.ModelName(), embedder.Dimensions(), vector.Dimensions())
	}
	if params.DefaultK <= 0 {
		params.DefaultK = 3
	}
	if params.SemanticMultiplier < 1 {
		params.SemanticMultiplier = 2
	}
	if params.LexicalMultiplier < 1 {
		params.LexicalMultiplier = 2
	}

	return &SearchService{
		store:    store,
		vector:   vector,
		lexical:  lexical,
		embedder: embedder,
		combiner: NewCombiner(params.SemanticWeight, params.LexicalWeight),
		params:   params,
	}, nil
}

// Categories returns the closed category set.
func (s *SearchService) Categories() []domain.Category {
	return domain.Categories()
}

// Search runs one hybrid retrieval request. Sub-path failures degrade to
// single-method results with a logged warning; only cancellation and
// metadata store failures surface as errors. An empty corpus or a query
// matching nothing yields an empty slice.
func (s *SearchService) Search(
	ctx context.Context, query string, opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	logger.Section("Hybrid Search")

	query = strings.TrimSpace(query)
	if query == "" {
		logger.Debug("empty query, returning no results")
		return []domain.SearchResult{}, nil
	}

	k := opts.K
	if k <= 0 {
		k = s.params.DefaultK
	}
	logger.Debug("query=%q k=%d", query, k)

	allowed, err := s.resolveFilter(ctx, opts.Category)
	if err != nil {
		return nil, err
	}
	if allowed != nil && len(allowed) == 0 {
		logger.Debug("category filter matches no chunks")
		return []domain.SearchResult{}, nil
	}

	semantic, lexical := s.runSubSearches(ctx, query, k, allowed)

	// Cancellation returns no partial results.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ranked := s.combiner.Combine(semantic, lexical, k)
	logger.Debug("combined %d semantic + %d lexical candidates into %d ranked",
		len(semantic.Candidates), len(lexical.Candidates), len(ranked))

	results, err := s.hydrate(ctx, ranked)
	if err != nil {
		return nil, fmt.Errorf("hydrating results: %w", err)
	}

	logger.Info("search: %d results for %q", len(results), query)
	return results, nil
}

// resolveFilter maps the requested category to the eligible chunk id
// set. Both sub-indices apply the same set before top-k selection, so
// filtering can never starve the result count below what the eligible
// subset supplies.
func (s *SearchService) resolveFilter(ctx context.Context, category *domain.Category) (driven.IDSet, error) {
	if category == nil {
		return nil, nil
	}
	if !category.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownCategory, *category)
	}

	allowed, err := s.store.IDsByCategory(ctx, *category)
	if err != nil {
		return nil, fmt.Errorf("resolving category %s: %w", *category, err)
	}
	logger.Debug("category %s: %d eligible chunks", *category, len(allowed))
	return allowed, nil
}

// runSubSearches executes the two retrieval paths concurrently. Both are
// pure reads of immutable indices, so no synchronization beyond the join
// is needed.
func (s *SearchService) runSubSearches(
	ctx context.Context, query string, k int, allowed driven.IDSet,
) (semantic, lexical domain.CandidateSet) {
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		semantic = s.semanticSearch(ctx, query, k*s.params.SemanticMultiplier, allowed)
	}()
	go func() {
		defer wg.Done()
		lexical = s.lexicalSearch(ctx, query, k*s.params.LexicalMultiplier, allowed)
	}()

	wg.Wait()
	return semantic, lexical
}

// semanticSearch embeds the query and searches the vector index. The
// returned CandidateSet carries the failure instead of an error return
// so the combiner's fallback stays a plain branch.
func (s *SearchService) semanticSearch(
	ctx context.Context, query string, k int, allowed driven.IDSet,
) domain.CandidateSet {
	set := domain.CandidateSet{Method: domain.MethodSemantic}

	if s.vector == nil || s.embedder == nil {
		set.Unavailable = domain.ErrIndexUnavailable
		return set
	}

	embedCtx := ctx
	if s.params.EmbedTimeout > 0 {
		var cancel context.CancelFunc
		embedCtx, cancel = context.WithTimeout(ctx, s.params.EmbedTimeout)
		defer cancel()
	}

	embedding, err := s.embedder.Embed(embedCtx, query)
	if err != nil {
		set.Unavailable = fmt.Errorf("%w: %v", domain.ErrEmbeddingUnavailable, err)
		return set
	}

	hits, err := s.vector.Search(ctx, embedding, k, allowed)
	if err != nil {
		set.Unavailable = fmt.Errorf("%w: %v", domain.ErrIndexUnavailable, err)
		return set
	}

	set.Candidates = make([]domain.Candidate, len(hits))
	for i, hit := range hits {
		set.Candidates[i] = domain.Candidate{ChunkID: hit.ChunkID, Score: hit.Similarity}
	}
	return set
}

// lexicalSearch searches the TF-IDF index.
func (s *SearchService) lexicalSearch(
	ctx context.Context, query string, k int, allowed driven.IDSet,
) domain.CandidateSet {
	set := domain.CandidateSet{Method: domain.MethodLexical}

	if s.lexical == nil {
		set.Unavailable = domain.ErrIndexUnavailable
		return set
	}

	hits, err := s.lexical.Search(ctx, query, k, allowed)
	if err != nil {
		set.Unavailable = fmt.Errorf("%w: %v", domain.ErrIndexUnavailable, err)
		return set
	}

	set.Candidates = make([]domain.Candidate, len(hits))
	for i, hit := range hits {
		set.Candidates[i] = domain.Candidate{ChunkID: hit.ChunkID, Score: hit.Score}
	}
	return set
}

// hydrate joins ranked candidates with chunk metadata. A candidate whose
// metadata row vanished is skipped, not fatal.
func (s *SearchService) hydrate(ctx context.Context, ranked []RankedCandidate) ([]domain.SearchResult, error) {
	results := make([]domain.SearchResult, 0, len(ranked))
	for _, rc := range ranked {
		chunk, err := s.store.GetChunk(ctx, rc.ChunkID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				logger.Warn("chunk %s ranked but missing from metadata, skipping", rc.ChunkID)
				continue
			}
			return nil, fmt.Errorf("get chunk %s: %w", rc.ChunkID, err)
		}

		results = append(results, domain.SearchResult{
			ChunkID:        chunk.ID,
			Text:           chunk.Text,
			Score:          rc.Score,
			SourceDocument: chunk.SourceDocument,
			Category:       chunk.Category,
			Page:           chunk.Page,
			ChunkType:      chunk.ChunkType,
			SemanticScore:  rc.SemanticScore,
			LexicalScore:   rc.LexicalScore,
		})
	}
	return results, nil
}
