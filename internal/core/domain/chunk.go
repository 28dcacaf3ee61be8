package domain

import "strings"

// ChunkType classifies the content shape of a chunk, decided at chunking
// time. Tables are chunked with larger windows than prose.
type ChunkType string

const (
	// ChunkTypeText is regular prose content.
	ChunkTypeText ChunkType = "text"

	// ChunkTypeTable is content that matched the table heuristics.
	ChunkTypeTable ChunkType = "table"
)

// Category identifies which regulatory document collection a chunk
// belongs to. The set is closed: corpora are validated against it at
// load time and unknown values are rejected.
type Category string

const (
	// CategoryRegulatory covers drug registration and regulatory guidance.
	CategoryRegulatory Category = "regulatory"

	// CategoryPharmacovigilance covers drug safety monitoring documents.
	CategoryPharmacovigilance Category = "pharmacovigilance"

	// CategoryVeterinary covers veterinary medicine documents.
	CategoryVeterinary Category = "veterinary_medicines"

	// CategoryBiological covers biological products and quality control.
	CategoryBiological Category = "biological_products_and_quality_control"
)

// Categories returns all valid categories in a fixed order.
func Categories() []Category {
	return []Category{
		CategoryRegulatory,
		CategoryPharmacovigilance,
		CategoryVeterinary,
		CategoryBiological,
	}
}

// String returns the category as a string.
func (c Category) String() string {
	return string(c)
}

// Valid reports whether the category is a member of the closed set.
func (c Category) Valid() bool {
	switch c {
	case CategoryRegulatory, CategoryPharmacovigilance, CategoryVeterinary, CategoryBiological:
		return true
	}
	return false
}

// normalizeCategory lowercases and strips underscores and spaces so that
// "Veterinary_Medicines" and "veterinary medicines" compare equal.
func normalizeCategory(name string) string {
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, "_", "")
	return strings.ReplaceAll(name, " ", "")
}

// categoryAliases maps short names accepted from callers to the full
// category value used in corpus metadata.
var categoryAliases = map[string]Category{
	"biological": CategoryBiological,
	"veterinary": CategoryVeterinary,
}

// ParseCategory resolves a caller-supplied category name against the
// closed set. Matching ignores case, underscores, and spaces, and accepts
// the short aliases "biological" and "veterinary". Returns
// ErrUnknownCategory for anything else.
func ParseCategory(name string) (Category, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", ErrUnknownCategory
	}

	if cat, ok := categoryAliases[strings.ToLower(trimmed)]; ok {
		return cat, nil
	}

	norm := normalizeCategory(trimmed)
	for _, cat := range Categories() {
		if normalizeCategory(cat.String()) == norm {
			return cat, nil
		}
	}

	return "", ErrUnknownCategory
}

// Chunk is the atomic retrievable unit: a bounded span of document text
// plus provenance metadata. Chunks are created by the offline build and
// are read-only for the lifetime of a serving process.
type Chunk struct {
	// ID is the stable identifier, unique within a corpus version.
	// Format: "<document>_p<page>_<n>".
	ID string

	// Text is the chunk content.
	Text string

	// SourceDocument is the name of the document the chunk came from.
	SourceDocument string

	// Category is the document collection the chunk belongs to.
	Category Category

	// Page is the 1-based page number, nil when the source page number
	// was missing or malformed.
	Page *int

	// ChunkType records whether the chunk was classified as table or text.
	ChunkType ChunkType

	// Embedding is the L2-normalized dense vector for the chunk text.
	// Its length must match the corpus embedding dimension.
	Embedding []float32
}
