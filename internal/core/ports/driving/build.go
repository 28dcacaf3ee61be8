package driving

import "context"

// Page is one unit of extracted document text handed over by the
// document processing pipeline (an external collaborator).
type Page struct {
	// Text is the extracted page text.
	Text string

	// SourceDocument is the originating document name.
	SourceDocument string

	// Category is the document collection name; validated against the
	// closed category set before chunking.
	Category string

	// Page is the 1-based page number, nil when missing or malformed in
	// the source metadata.
	Page *int
}

// BuildStats summarizes one completed corpus build.
type BuildStats struct {
	// Version identifies the newly built corpus version.
	Version string

	// Chunks is the number of chunks produced.
	Chunks int

	// TableChunks is the number of chunks classified as tables.
	TableChunks int

	// Dimension is the embedding dimension recorded in the artifacts.
	Dimension int
}

// IndexBuilder runs the offline batch build: chunk, embed, index, and
// atomically publish a new corpus version. Builds never run concurrently
// with queries against the same version.
type IndexBuilder interface {
	// Build processes the pages into a complete corpus version and
	// swaps it in as current.
	Build(ctx context.Context, pages []Page) (*BuildStats, error)
}
