package corpus

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/ArabianCowboy/SFDA-copilot/internal/adapters/driven/index/flat"
	"github.com/ArabianCowboy/SFDA-copilot/internal/adapters/driven/index/tfidf"
	"github.com/ArabianCowboy/SFDA-copilot/internal/adapters/driven/storage/sqlite"
	"github.com/ArabianCowboy/SFDA-copilot/internal/core/domain"
	"github.com/ArabianCowboy/SFDA-copilot/internal/logger"
)

// Corpus is a loaded, validated corpus version ready to serve queries.
type Corpus struct {
	Version string
	Store   *sqlite.Store
	Vector  *flat.Index
	Lexical *tfidf.Index
}

// Close releases all corpus resources.
func (c *Corpus) Close() error {
	var firstErr error
	for _, closer := range []interface{ Close() error }{c.Vector, c.Lexical, c.Store} {
		if closer == nil {
			continue
		}
		if err := closer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Load opens the active corpus version under the layout and runs the
// startup invariant checks. Any violation is domain.ErrConfiguration:
// serving a corpus that fails its checks would silently return wrong
// results, so the caller must treat this as fatal.
func Load(ctx context.Context, layout *Layout, expectedDimension int) (*Corpus, error) {
	version, err := layout.Current()
	if err != nil {
		return nil, err
	}
	return LoadVersion(ctx, layout, version, expectedDimension)
}

// LoadVersion opens a specific corpus version and validates it.
func LoadVersion(ctx context.Context, layout *Layout, version string, expectedDimension int) (*Corpus, error) {
	dir := layout.VersionDir(version)
	logger.Debug("corpus: loading version %s from %s", version, dir)

	store, err := sqlite.NewStore(filepath.Join(dir, sqlite.MetadataFile))
	if err != nil {
		return nil, fmt.Errorf("%w: opening metadata for version %s: %v", domain.ErrConfiguration, version, err)
	}

	vector, err := flat.Load(filepath.Join(dir, flat.IndexFile))
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("%w: opening vector index for version %s: %v", domain.ErrConfiguration, version, err)
	}

	lexical, err := tfidf.Load(dir)
	if err != nil {
		store.Close()
		vector.Close()
		return nil, fmt.Errorf("%w: opening lexical index for version %s: %v", domain.ErrConfiguration, version, err)
	}

	c := &Corpus{Version: version, Store: store, Vector: vector, Lexical: lexical}
	if err := c.validate(ctx, expectedDimension); err != nil {
		c.Close()
		return nil, err
	}

	logger.Info("corpus: version %s loaded, %d chunks, dimension %d",
		version, vector.Len(), vector.Dimensions())
	return c, nil
}

// validate runs the startup consistency checks.
func (c *Corpus) validate(ctx context.Context, expectedDimension int) error {
	fail := func(format string, args ...any) error {
		return fmt.Errorf("%w: corpus %s: %s", domain.ErrConfiguration, c.Version, fmt.Sprintf(format, args...))
	}

	if expectedDimension > 0 && c.Vector.Dimensions() != expectedDimension {
		return fail("vector index dimension %d does not match configured embedding dimension %d",
			c.Vector.Dimensions(), expectedDimension)
	}

	count, err := c.Store.Count(ctx)
	if err != nil {
		return fail("counting metadata rows: %v", err)
	}
	if count != c.Vector.Len() || count != c.Lexical.Len() {
		return fail("artifact row counts disagree: metadata=%d vector=%d lexical=%d",
			count, c.Vector.Len(), c.Lexical.Len())
	}

	stored, err := c.Store.Categories(ctx)
	if err != nil {
		return fail("reading categories: %v", err)
	}
	for _, cat := range stored {
		if !domain.Category(cat).Valid() {
			return fail("unknown category %q in metadata", cat)
		}
	}

	return nil
}
