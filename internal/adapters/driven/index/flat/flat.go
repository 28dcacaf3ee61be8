// Package flat provides the semantic retrieval index: an exact
// nearest-neighbour structure over the corpus chunk embeddings using
// squared L2 distance. The on-disk format carries the embedding
// dimension in its header so a mismatch against the configured embedding
// model is caught once at load time.
//
// The low-level search mirrors the contract of common ANN libraries:
// it returns fixed-size id/distance arrays padded with a -1 sentinel
// when fewer than k rows qualify. The exported Search filters the
// sentinel out; it must never surface as a hit.
package flat

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"sync"

	"github.com/ArabianCowboy/SFDA-copilot/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// IndexFile is the artifact filename within a corpus version directory.
const IndexFile = "vector_index.bin"

// magic identifies the index file format.
var magic = [4]byte{'S', 'F', 'V', '1'}

// notFound is the sentinel row id for empty result slots.
const notFound int32 = -1

// distanceEpsilon stabilizes the distance-to-similarity conversion when
// the distance is exactly zero.
const distanceEpsilon = 1e-9

// Index is an exact L2 vector index. It is append-only during build and
// read-only afterwards; concurrent searches need no locking.
type Index struct {
	mu     sync.RWMutex
	dim    int
	ids    []string
	vecs   [][]float32
	closed bool
}

// New creates an empty index for vectors of the given dimension.
func New(dimension int) (*Index, error) {
	if dimension <= 0 {
		return nil, errors.New("flat: dimension must be positive")
	}
	return &Index{dim: dimension}, nil
}

// Add appends a vector for the given chunk id. Build-time only.
func (idx *Index) Add(id string, embedding []float32) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.closed {
		return errors.New("flat: index is closed")
	}
	if len(embedding) != idx.dim {
		return fmt.Errorf("flat: embedding dimension %d does not match index dimension %d", len(embedding), idx.dim)
	}

	idx.ids = append(idx.ids, id)
	idx.vecs = append(idx.vecs, append([]float32(nil), embedding...))
	return nil
}

// squaredL2 returns the squared Euclidean distance between two vectors.
func squaredL2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}

// searchRows returns the k nearest eligible rows as parallel id and
// distance arrays of exactly length k, padded with the notFound sentinel
// when fewer rows qualify. Ties on distance break by row order.
func (idx *Index) searchRows(query []float32, k int, allowed driven.IDSet) ([]int32, []float64) {
	type scored struct {
		row  int
		dist float64
	}

	candidates := make([]scored, 0, len(idx.vecs))
	for row := range idx.vecs {
		if !allowed.Contains(idx.ids[row]) {
			continue
		}
		candidates = append(candidates, scored{row: row, dist: squaredL2(query, idx.vecs[row])})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].dist < candidates[j].dist
	})

	rows := make([]int32, k)
	dists := make([]float64, k)
	for i := 0; i < k; i++ {
		if i < len(candidates) {
			rows[i] = int32(candidates[i].row)
			dists[i] = candidates[i].dist
		} else {
			rows[i] = notFound
		}
	}

	return rows, dists
}

// Search finds the k nearest chunks to the normalized query vector and
// converts distances to 0-1 similarities via 1/(1+distance). Sentinel
// slots from the low-level search are invalid and filtered out, never
// treated as low-ranked hits.
func (idx *Index) Search(ctx context.Context, query []float32, k int, allowed driven.IDSet) ([]driven.VectorHit, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.closed {
		return nil, errors.New("flat: index is closed")
	}
	if len(query) != idx.dim {
		return nil, fmt.Errorf("flat: query dimension %d does not match index dimension %d", len(query), idx.dim)
	}
	if k <= 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows, dists := idx.searchRows(query, k, allowed)

	hits := make([]driven.VectorHit, 0, k)
	for i := range rows {
		if rows[i] < 0 || int(rows[i]) >= len(idx.ids) {
			continue
		}
		hits = append(hits, driven.VectorHit{
			ChunkID:    idx.ids[rows[i]],
			Similarity: 1.0 / (1.0 + dists[i] + distanceEpsilon),
		})
	}

	return hits, nil
}

// Dimensions returns the embedding dimension recorded at build time.
func (idx *Index) Dimensions() int {
	return idx.dim
}

// Len returns the number of indexed vectors.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.ids)
}

// Close releases resources.
func (idx *Index) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.closed = true
	idx.ids = nil
	idx.vecs = nil
	return nil
}

// Save writes the index to path: a header with magic, dimension, and
// vector count, followed by length-prefixed ids and raw float32 rows.
func (idx *Index) Save(path string) error {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("flat: create index file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(magic[:]); err != nil {
		return fmt.Errorf("flat: write header: %w", err)
	}
	header := []uint32{uint32(idx.dim), uint32(len(idx.ids))}
	if err := binary.Write(f, binary.LittleEndian, header); err != nil {
		return fmt.Errorf("flat: write header: %w", err)
	}

	for row, id := range idx.ids {
		if err := binary.Write(f, binary.LittleEndian, uint16(len(id))); err != nil {
			return fmt.Errorf("flat: write row %d: %w", row, err)
		}
		if _, err := f.Write([]byte(id)); err != nil {
			return fmt.Errorf("flat: write row %d: %w", row, err)
		}
		if err := binary.Write(f, binary.LittleEndian, idx.vecs[row]); err != nil {
			return fmt.Errorf("flat: write row %d: %w", row, err)
		}
	}

	return nil
}

// Load reads an index from path, validating the header before any row
// data is trusted.
func Load(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("flat: open index file: %w", err)
	}
	defer f.Close()

	var gotMagic [4]byte
	if _, err := io.ReadFull(f, gotMagic[:]); err != nil {
		return nil, fmt.Errorf("flat: read header: %w", err)
	}
	if gotMagic != magic {
		return nil, errors.New("flat: not a vector index file")
	}

	var header [2]uint32
	if err := binary.Read(f, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("flat: read header: %w", err)
	}
	dim, count := int(header[0]), int(header[1])
	if dim <= 0 || dim > math.MaxInt16 {
		return nil, fmt.Errorf("flat: invalid dimension in header: %d", dim)
	}

	idx := &Index{
		dim:  dim,
		ids:  make([]string, 0, count),
		vecs: make([][]float32, 0, count),
	}

	for row := 0; row < count; row++ {
		var idLen uint16
		if err := binary.Read(f, binary.LittleEndian, &idLen); err != nil {
			return nil, fmt.Errorf("flat: read row %d: %w", row, err)
		}
		idBytes := make([]byte, idLen)
		if _, err := io.ReadFull(f, idBytes); err != nil {
			return nil, fmt.Errorf("flat: read row %d: %w", row, err)
		}
		vec := make([]float32, dim)
		if err := binary.Read(f, binary.LittleEndian, vec); err != nil {
			return nil, fmt.Errorf("flat: read row %d: %w", row, err)
		}
		idx.ids = append(idx.ids, string(idBytes))
		idx.vecs = append(idx.vecs, vec)
	}

	return idx, nil
}
