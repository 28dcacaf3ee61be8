package services

import (
	"sort"

	"github.com/ArabianCowboy/SFDA-copilot/internal/core/domain"
	"github.com/ArabianCowboy/SFDA-copilot/internal/logger"
)

// RankedCandidate is the combiner's output: a chunk id with its
// composite score and the two contributing sub-scores.
type RankedCandidate struct {
	ChunkID       string
	Score         float64
	SemanticScore float64
	LexicalScore  float64
}

// Combiner merges the two candidate lists into one ranked list using a
// weighted composite score. Weights are normalized to sum to exactly 1.0
// at construction so the weighted average stays well-defined no matter
// what the configuration supplied.
type Combiner struct {
	semanticWeight float64
	lexicalWeight  float64
}

// NewCombiner creates a combiner with the given weights. Weights are
// rescaled to sum to 1.0; a non-positive sum falls back to 0.7/0.3.
func NewCombiner(semanticWeight, lexicalWeight float64) *Combiner {
	sum := semanticWeight + lexicalWeight
	if sum <= 0 {
		logger.Warn("combiner: weights %.3f/%.3f have non-positive sum, using defaults 0.7/0.3",
			semanticWeight, lexicalWeight)
		return &Combiner{semanticWeight: 0.7, lexicalWeight: 0.3}
	}
	if sum != 1.0 {
		logger.Debug("combiner: normalizing weights %.3f/%.3f to sum 1.0", semanticWeight, lexicalWeight)
	}
	return &Combiner{
		semanticWeight: semanticWeight / sum,
		lexicalWeight:  lexicalWeight / sum,
	}
}

// Weights returns the normalized weights.
func (c *Combiner) Weights() (semantic, lexical float64) {
	return c.semanticWeight, c.lexicalWeight
}

// merged accumulates per-chunk state while combining.
type merged struct {
	chunkID  string
	semantic float64
	lexical  float64
	inBoth   bool
	order    int
}

// Combine merges the two sub-search outcomes into up to k ranked
// candidates. Candidate ids are unioned; an id missing from one list
// contributes a 0 sub-score there, so a chunk strongly favored by only
// one method still ranks. If one outcome is unavailable the other's
// sub-scores become the composite unchanged; if both are unavailable the
// result is empty.
func (c *Combiner) Combine(semantic, lexical domain.CandidateSet, k int) []RankedCandidate {
	if k <= 0 {
		return nil
	}

	switch {
	case !semantic.OK() && !lexical.OK():
		logger.Warn("combiner: both retrieval paths unavailable (semantic: %v, lexical: %v)",
			semantic.Unavailable, lexical.Unavailable)
		return []RankedCandidate{}
	case !semantic.OK():
		logger.Warn("combiner: semantic path unavailable, returning lexical-only results: %v",
			semantic.Unavailable)
		return singleMethod(lexical, k)
	case !lexical.OK():
		logger.Warn("combiner: lexical path unavailable, returning semantic-only results: %v",
			lexical.Unavailable)
		return singleMethod(semantic, k)
	}

	byID := make(map[string]*merged)
	var insertion []*merged

	record := func(cand domain.Candidate, method domain.RetrievalMethod) {
		m, ok := byID[cand.ChunkID]
		if !ok {
			m = &merged{chunkID: cand.ChunkID, order: len(insertion)}
			byID[cand.ChunkID] = m
			insertion = append(insertion, m)
		}
		// A chunk can appear twice within one list when overlapping
		// windows collide; keep the stronger sub-score.
		switch method {
		case domain.MethodSemantic:
			if cand.Score > m.semantic {
				m.semantic = cand.Score
			}
		case domain.MethodLexical:
			if cand.Score > m.lexical {
				m.lexical = cand.Score
			}
		}
	}

	for _, cand := range semantic.Candidates {
		record(cand, domain.MethodSemantic)
	}
	seenSemantic := len(insertion)
	for _, cand := range lexical.Candidates {
		record(cand, domain.MethodLexical)
	}
	for _, m := range insertion[:seenSemantic] {
		if m.lexical > 0 {
			m.inBoth = true
		}
	}

	ranked := make([]RankedCandidate, 0, len(insertion))
	for _, m := range insertion {
		ranked = append(ranked, RankedCandidate{
			ChunkID:       m.chunkID,
			Score:         c.semanticWeight*m.semantic + c.lexicalWeight*m.lexical,
			SemanticScore: m.semantic,
			LexicalScore:  m.lexical,
		})
	}

	// Descending composite; ties prefer ids found by both paths, then
	// first-seen order, so identical queries rank identically.
	orderOf := func(id string) (bool, int) {
		m := byID[id]
		return m.inBoth, m.order
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		iBoth, iOrder := orderOf(ranked[i].ChunkID)
		jBoth, jOrder := orderOf(ranked[j].ChunkID)
		if iBoth != jBoth {
			return iBoth
		}
		return iOrder < jOrder
	})

	if len(ranked) > k {
		ranked = ranked[:k]
	}
	return ranked
}

// singleMethod maps one usable candidate list straight to ranked output:
// the surviving sub-score becomes the composite unchanged.
func singleMethod(set domain.CandidateSet, k int) []RankedCandidate {
	best := make(map[string]float64)
	var order []string
	for _, cand := range set.Candidates {
		if _, ok := best[cand.ChunkID]; !ok {
			order = append(order, cand.ChunkID)
		}
		if cand.Score > best[cand.ChunkID] {
			best[cand.ChunkID] = cand.Score
		}
	}

	ranked := make([]RankedCandidate, 0, len(order))
	for _, id := range order {
		rc := RankedCandidate{ChunkID: id, Score: best[id]}
		if set.Method == domain.MethodSemantic {
			rc.SemanticScore = best[id]
		} else {
			rc.LexicalScore = best[id]
		}
		ranked = append(ranked, rc)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if len(ranked) > k {
		ranked = ranked[:k]
	}
	return ranked
}
