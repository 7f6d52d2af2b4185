// Package index implements exact nearest-neighbor search over an immutable
// in-memory vector block. One Flat index serves one collection; the registry
// builds them at startup from artifact files.
package index

import (
	"fmt"
	"sort"

	"github.com/plenario-ai/plenario/internal/domain"
)

// Hit is one nearest-neighbor match. Ordinal is the slot position inside the
// stored block and lines up with the document list of the same collection.
type Hit struct {
	Ordinal  int
	Distance float64
}

// Flat is a brute-force index over squared Euclidean distance.
// Read-only after construction, safe for concurrent Search calls.
type Flat struct {
	dim   int
	count int
	data  []float32 // row-major, count*dim
}

// New wraps a row-major float32 block as a flat index. The block is not
// copied; callers hand over ownership.
func New(dim int, data []float32) (*Flat, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("index dimension must be positive, got %d", dim)
	}
	if len(data)%dim != 0 {
		return nil, fmt.Errorf("vector block of %d floats is not a multiple of dimension %d", len(data), dim)
	}
	return &Flat{dim: dim, count: len(data) / dim, data: data}, nil
}

// FromVectors builds a flat index by copying individual vectors into one block.
func FromVectors(vectors [][]float32) (*Flat, error) {
	if len(vectors) == 0 {
		return nil, fmt.Errorf("at least one vector is required")
	}
	dim := len(vectors[0])
	if dim == 0 {
		return nil, fmt.Errorf("index dimension must be positive, got 0")
	}

	data := make([]float32, 0, len(vectors)*dim)
	for i, vec := range vectors {
		if len(vec) != dim {
			return nil, fmt.Errorf("vector %d has %d dimensions, expected %d: %w",
				i, len(vec), dim, domain.ErrDimensionMismatch)
		}
		data = append(data, vec...)
	}
	return &Flat{dim: dim, count: len(vectors), data: data}, nil
}

// Dim returns the vector dimension.
func (f *Flat) Dim() int { return f.dim }

// Count returns the number of stored vectors.
func (f *Flat) Count() int { return f.count }

// Search returns the k nearest stored vectors by squared Euclidean distance,
// ascending. Equal distances resolve to the lower slot ordinal. k is capped
// at Count(); k <= 0 or an empty index yield no hits.
func (f *Flat) Search(query []float32, k int) ([]Hit, error) {
	if len(query) != f.dim {
		return nil, fmt.Errorf("query has %d dimensions, index has %d: %w",
			len(query), f.dim, domain.ErrDimensionMismatch)
	}
	if k <= 0 || f.count == 0 {
		return nil, nil
	}
	if k > f.count {
		k = f.count
	}

	hits := make([]Hit, 0, k)
	for ord := 0; ord < f.count; ord++ {
		d := f.sqDistance(ord, query)
		if len(hits) == k && d >= hits[k-1].Distance {
			continue
		}

		// Вставка с сохранением порядка (distance, ordinal).
		// Когда список полон, сдвиг вправо вытесняет худший хит.
		pos := sort.Search(len(hits), func(i int) bool { return hits[i].Distance > d })
		if len(hits) < k {
			hits = append(hits, Hit{})
		}
		copy(hits[pos+1:], hits[pos:len(hits)-1])
		hits[pos] = Hit{Ordinal: ord, Distance: d}
	}
	return hits, nil
}

func (f *Flat) sqDistance(ordinal int, query []float32) float64 {
	row := f.data[ordinal*f.dim : (ordinal+1)*f.dim]
	var sum float64
	for i, v := range row {
		d := float64(v) - float64(query[i])
		sum += d * d
	}
	return sum
}
