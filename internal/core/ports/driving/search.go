package driving

import (
	"context"

	"github.com/ArabianCowboy/SFDA-copilot/internal/core/domain"
)

// SearchService is the single entry point consumed by the chat
// orchestration layer. Per-query failures inside the engine degrade to
// single-method results; they never surface as errors here. An empty
// corpus or a query matching nothing yields an empty slice, not an
// error.
type SearchService interface {
	// Search returns up to opts.K results ranked by descending
	// composite score, optionally filtered to one category.
	Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error)

	// Categories returns the closed category set served by this corpus.
	Categories() []domain.Category
}
