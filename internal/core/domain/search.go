package domain

// RetrievalMethod names one of the two retrieval paths.
type RetrievalMethod string

const (
	// MethodSemantic is vector similarity retrieval.
	MethodSemantic RetrievalMethod = "semantic"

	// MethodLexical is sparse term-weight retrieval.
	MethodLexical RetrievalMethod = "lexical"
)

// Candidate is one (chunk id, sub-score) pair produced by a retrieval
// path. Scores are on a "higher is better" scale in both paths.
type Candidate struct {
	ChunkID string
	Score   float64
}

// CandidateSet is the outcome of a single retrieval path for one query.
// It is a tagged union: either Candidates is usable (Unavailable == nil)
// or the path could not serve the query and Unavailable carries the
// reason. Representing the outcome explicitly keeps the combiner's
// fallback logic a plain branch instead of a caught error from deep in
// the call stack.
type CandidateSet struct {
	Method      RetrievalMethod
	Candidates  []Candidate
	Unavailable error
}

// OK reports whether the path produced a usable candidate list.
func (s CandidateSet) OK() bool {
	return s.Unavailable == nil
}

// SearchOptions configures a single search request.
type SearchOptions struct {
	// Category restricts results to one document collection.
	// nil means no category filtering.
	Category *Category

	// K is the maximum number of results to return.
	// Non-positive values fall back to the configured default.
	K int
}

// SearchResult is the engine's output unit: a ranked chunk with its
// composite score and the contributing sub-scores for observability.
type SearchResult struct {
	// ChunkID identifies the matched chunk.
	ChunkID string `json:"chunk_id"`

	// Text is the chunk content.
	Text string `json:"text"`

	// Score is the weighted composite score. Higher is more relevant.
	Score float64 `json:"score"`

	// SourceDocument is the name of the originating document.
	SourceDocument string `json:"source_document"`

	// Category is the chunk's document collection.
	Category Category `json:"category"`

	// Page is the source page number, nil when unknown.
	Page *int `json:"page"`

	// ChunkType records the chunk's content shape.
	ChunkType ChunkType `json:"chunk_type"`

	// SemanticScore is the vector similarity contribution (0 when the
	// chunk was found only by the lexical path).
	SemanticScore float64 `json:"semantic_score"`

	// LexicalScore is the TF-IDF cosine similarity contribution (0 when
	// the chunk was found only by the semantic path).
	LexicalScore float64 `json:"lexical_score"`
}
