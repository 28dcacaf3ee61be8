// Package tfidf provides the lexical retrieval index: a sparse TF-IDF
// term-weight matrix over the chunk corpus with cosine similarity
// scoring. The vocabulary is frozen when the index is fitted; queries
// are projected into it and out-of-vocabulary terms contribute zero
// weight.
package tfidf

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/ArabianCowboy/SFDA-copilot/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.LexicalIndex = (*Index)(nil)

// Artifact filenames within a corpus version directory.
const (
	VectorizerFile = "tfidf_vectorizer.json"
	MatrixFile     = "tfidf_matrix.json"
)

// DefaultMaxFeatures caps the vocabulary at the most frequent terms.
const DefaultMaxFeatures = 5000

// tokenPattern matches terms of two or more word characters.
var tokenPattern = regexp.MustCompile(`[a-z0-9][a-z0-9]+`)

// sparseVec is one row of the weight matrix: parallel column indices and
// weights, L2-normalized at fit time.
type sparseVec struct {
	Cols    []int32   `json:"cols"`
	Weights []float64 `json:"weights"`
}

// Index is the fitted TF-IDF index. It is read-only after Fit or Load
// and safe for concurrent searches.
type Index struct {
	vocab map[string]int
	idf   []float64
	ids   []string
	rows  []sparseVec
}

// vectorizerArtifact is the persisted vocabulary and IDF weights.
type vectorizerArtifact struct {
	Vocab map[string]int `json:"vocabulary"`
	IDF   []float64      `json:"idf"`
}

// matrixArtifact is the persisted sparse weight matrix with its row ids.
type matrixArtifact struct {
	IDs  []string    `json:"ids"`
	Rows []sparseVec `json:"rows"`
}

// tokenize lowercases the text and extracts vocabulary terms.
func tokenize(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

// Fit builds the index over the chunk corpus. ids and texts are
// parallel; ordering defines the row order. The vocabulary keeps at most
// maxFeatures terms, preferring the most frequent across the corpus.
func Fit(ids, texts []string, maxFeatures int) (*Index, error) {
	if len(ids) != len(texts) {
		return nil, fmt.Errorf("tfidf: ids and texts length mismatch: %d != %d", len(ids), len(texts))
	}
	if maxFeatures <= 0 {
		maxFeatures = DefaultMaxFeatures
	}

	// First pass: corpus term frequencies and document frequencies.
	tokenized := make([][]string, len(texts))
	corpusFreq := make(map[string]int)
	docFreq := make(map[string]int)

	for i, text := range texts {
		tokens := tokenize(text)
		tokenized[i] = tokens

		seen := make(map[string]struct{}, len(tokens))
		for _, tok := range tokens {
			corpusFreq[tok]++
			if _, ok := seen[tok]; !ok {
				seen[tok] = struct{}{}
				docFreq[tok]++
			}
		}
	}

	// Select the vocabulary: most frequent terms first, ties broken
	// alphabetically for determinism.
	terms := make([]string, 0, len(corpusFreq))
	for term := range corpusFreq {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		if corpusFreq[terms[i]] != corpusFreq[terms[j]] {
			return corpusFreq[terms[i]] > corpusFreq[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > maxFeatures {
		terms = terms[:maxFeatures]
	}
	sort.Strings(terms)

	vocab := make(map[string]int, len(terms))
	for i, term := range terms {
		vocab[term] = i
	}

	// Smoothed IDF: ln((1+n)/(1+df)) + 1.
	n := float64(len(texts))
	idf := make([]float64, len(terms))
	for i, term := range terms {
		idf[i] = math.Log((1+n)/(1+float64(docFreq[term]))) + 1
	}

	idx := &Index{
		vocab: vocab,
		idf:   idf,
		ids:   append([]string(nil), ids...),
		rows:  make([]sparseVec, len(texts)),
	}

	for i, tokens := range tokenized {
		idx.rows[i] = idx.weigh(tokens)
	}

	return idx, nil
}

// weigh converts tokens to a normalized sparse TF-IDF vector in the
// fitted vocabulary.
func (idx *Index) weigh(tokens []string) sparseVec {
	counts := make(map[int]int)
	for _, tok := range tokens {
		if col, ok := idx.vocab[tok]; ok {
			counts[col]++
		}
	}
	if len(counts) == 0 {
		return sparseVec{}
	}

	cols := make([]int32, 0, len(counts))
	for col := range counts {
		cols = append(cols, int32(col))
	}
	sort.Slice(cols, func(i, j int) bool { return cols[i] < cols[j] })

	weights := make([]float64, len(cols))
	var sumSq float64
	for i, col := range cols {
		w := float64(counts[int(col)]) * idx.idf[col]
		weights[i] = w
		sumSq += w * w
	}

	if norm := math.Sqrt(sumSq); norm > 0 {
		for i := range weights {
			weights[i] /= norm
		}
	}

	return sparseVec{Cols: cols, Weights: weights}
}

// dot computes the dot product of two normalized sparse vectors, which
// equals their cosine similarity.
func dot(a, b sparseVec) float64 {
	var sum float64
	i, j := 0, 0
	for i < len(a.Cols) && j < len(b.Cols) {
		switch {
		case a.Cols[i] == b.Cols[j]:
			sum += a.Weights[i] * b.Weights[j]
			i++
			j++
		case a.Cols[i] < b.Cols[j]:
			i++
		default:
			j++
		}
	}
	return sum
}

// Search projects the query into the frozen vocabulary and returns the
// top k rows by cosine similarity. Rows with zero similarity are not
// candidates. When allowed is non-nil, ineligible rows are excluded
// before top-k selection.
func (idx *Index) Search(ctx context.Context, query string, k int, allowed driven.IDSet) ([]driven.LexicalHit, error) {
	if k <= 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	queryVec := idx.weigh(tokenize(query))
	if len(queryVec.Cols) == 0 {
		return nil, nil
	}

	type scored struct {
		row   int
		score float64
	}

	candidates := make([]scored, 0, len(idx.rows))
	for row := range idx.rows {
		if !allowed.Contains(idx.ids[row]) {
			continue
		}
		if score := dot(queryVec, idx.rows[row]); score > 0 {
			candidates = append(candidates, scored{row: row, score: score})
		}
	}

	// Descending score, row order for deterministic ties.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if len(candidates) > k {
		candidates = candidates[:k]
	}

	hits := make([]driven.LexicalHit, len(candidates))
	for i, c := range candidates {
		hits[i] = driven.LexicalHit{ChunkID: idx.ids[c.row], Score: c.score}
	}

	return hits, nil
}

// Len returns the number of indexed chunk rows.
func (idx *Index) Len() int {
	return len(idx.rows)
}

// Close releases resources. The index is memory-only, so this is a
// no-op kept for interface symmetry.
func (idx *Index) Close() error {
	return nil
}

// Save writes the vectorizer and matrix artifacts into dir.
func (idx *Index) Save(dir string) error {
	idfCopy := append([]float64(nil), idx.idf...)
	vec := vectorizerArtifact{Vocab: idx.vocab, IDF: idfCopy}
	if err := writeJSON(filepath.Join(dir, VectorizerFile), vec); err != nil {
		return fmt.Errorf("tfidf: save vectorizer: %w", err)
	}

	mat := matrixArtifact{IDs: idx.ids, Rows: idx.rows}
	if err := writeJSON(filepath.Join(dir, MatrixFile), mat); err != nil {
		return fmt.Errorf("tfidf: save matrix: %w", err)
	}

	return nil
}

// Load reads a fitted index from the artifacts in dir.
func Load(dir string) (*Index, error) {
	var vec vectorizerArtifact
	if err := readJSON(filepath.Join(dir, VectorizerFile), &vec); err != nil {
		return nil, fmt.Errorf("tfidf: load vectorizer: %w", err)
	}

	var mat matrixArtifact
	if err := readJSON(filepath.Join(dir, MatrixFile), &mat); err != nil {
		return nil, fmt.Errorf("tfidf: load matrix: %w", err)
	}

	if len(vec.IDF) < len(vec.Vocab) {
		return nil, fmt.Errorf("tfidf: vectorizer artifact corrupt: %d idf values for %d terms", len(vec.IDF), len(vec.Vocab))
	}
	if len(mat.IDs) != len(mat.Rows) {
		return nil, fmt.Errorf("tfidf: matrix artifact corrupt: %d ids for %d rows", len(mat.IDs), len(mat.Rows))
	}

	return &Index{
		vocab: vec.Vocab,
		idf:   vec.IDF,
		ids:   mat.IDs,
		rows:  mat.Rows,
	}, nil
}

func writeJSON(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
