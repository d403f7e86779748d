// Package vectorstore is an on-disk index of embedded document chunks
// searched by cosine similarity.
package vectorstore

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// IndexFile is the index file name inside the vector store directory.
const IndexFile = "index.sqlite"

// Error definitions for the vectorstore package.
var (
	ErrIndexNotFound     = errors.New("vector index not found")
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	ErrEmptyIndex        = errors.New("vector index is empty")
)

// Chunk is an embedded piece of a source document.
type Chunk struct {
	ID        int64
	Source    string
	Page      int
	Content   string
	Embedding []float32
}

// Result is a chunk with its similarity to the query.
type Result struct {
	Chunk Chunk
	Score float64
}

// Index holds chunks embedded with a single model.
type Index struct {
	Model  string
	Dim    int
	Chunks []Chunk
}

// NewIndex creates an empty index for an embedding model.
func NewIndex(model string) *Index {
	return &Index{Model: model}
}

// Len returns the number of chunks.
func (ix *Index) Len() int {
	return len(ix.Chunks)
}

// Add appends chunks. The first chunk fixes the dimension.
func (ix *Index) Add(chunks ...Chunk) error {
	for _, c := range chunks {
		if len(c.Embedding) == 0 {
			return fmt.Errorf("chunk from %s has no embedding", c.Source)
		}
		if ix.Dim == 0 {
			ix.Dim = len(c.Embedding)
		}
		if len(c.Embedding) != ix.Dim {
			return fmt.Errorf("%w: got %d, index has %d", ErrDimensionMismatch, len(c.Embedding), ix.Dim)
		}
		if c.ID == 0 {
			c.ID = int64(len(ix.Chunks) + 1)
		}
		ix.Chunks = append(ix.Chunks, c)
	}
	return nil
}

// Search returns up to k chunks ordered by descending cosine similarity.
func (ix *Index) Search(query []float32, k int) ([]Result, error) {
	if len(ix.Chunks) == 0 {
		return nil, ErrEmptyIndex
	}
	if len(query) != ix.Dim {
		return nil, fmt.Errorf("%w: query has %d, index has %d", ErrDimensionMismatch, len(query), ix.Dim)
	}

	results := make([]Result, len(ix.Chunks))
	for i, c := range ix.Chunks {
		results[i] = Result{Chunk: c, Score: Cosine(query, c.Embedding)}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if k > 0 && k < len(results) {
		results = results[:k]
	}

	return results, nil
}

// Cosine returns the cosine similarity of two equal-length vectors, or 0
// when either has zero length.
func Cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
