package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/custodia-labs/palimpsest/internal/core/domain"
	"github.com/custodia-labs/palimpsest/internal/core/ports/driven"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

// VectorIndex is an exact in-memory cosine index. Every search scores
// every vector, so results never depend on insertion history.
type VectorIndex struct {
	mu         sync.RWMutex
	dimensions int
	documents  map[string][]indexedVector
	count      int
}

type indexedVector struct {
	chunkID string
	vector  []float32
	norm    float64
}

// NewVectorIndex creates an index for vectors of the given size. Zero
// accepts the size of the first vector stored.
func NewVectorIndex(dimensions int) *VectorIndex {
	return &VectorIndex{
		dimensions: dimensions,
		documents:  make(map[string][]indexedVector),
	}
}

// PutDocument replaces all vectors of a document.
func (x *VectorIndex) PutDocument(_ context.Context, documentID string, entries []driven.VectorEntry) error {
	vectors := make([]indexedVector, 0, len(entries))
	x.mu.Lock()
	defer x.mu.Unlock()
	for _, e := range entries {
		if x.dimensions == 0 {
			x.dimensions = len(e.Embedding)
		}
		if len(e.Embedding) != x.dimensions {
			return fmt.Errorf("%w: vector for %s has %d dimensions, index has %d",
				domain.ErrInvalidInput, e.ChunkID, len(e.Embedding), x.dimensions)
		}
		v := make([]float32, len(e.Embedding))
		copy(v, e.Embedding)
		vectors = append(vectors, indexedVector{chunkID: e.ChunkID, vector: v, norm: norm(v)})
	}
	x.count -= len(x.documents[documentID])
	x.documents[documentID] = vectors
	x.count += len(vectors)
	return nil
}

// DeleteDocument removes all vectors of a document.
func (x *VectorIndex) DeleteDocument(_ context.Context, documentID string) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.count -= len(x.documents[documentID])
	delete(x.documents, documentID)
	return nil
}

// Search scores every vector against query, highest similarity first.
func (x *VectorIndex) Search(ctx context.Context, query []float32) ([]driven.VectorHit, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	if x.count > 0 && len(query) != x.dimensions {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d", domain.ErrInvalidInput, len(query), x.dimensions)
	}

	qn := norm(query)
	hits := make([]driven.VectorHit, 0, x.count)
	for docID, vectors := range x.documents {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, v := range vectors {
			hits = append(hits, driven.VectorHit{
				ChunkID:    v.chunkID,
				DocumentID: docID,
				Similarity: cosine(query, qn, v.vector, v.norm),
			})
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})
	return hits, nil
}

// Count returns the number of vectors.
func (x *VectorIndex) Count() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.count
}

// Close is a no-op.
func (x *VectorIndex) Close() error {
	return nil
}

func norm(v []float32) float64 {
	var sum float64
	for _, f := range v {
		sum += float64(f) * float64(f)
	}
	return math.Sqrt(sum)
}

// cosine returns 0 when either vector is zero.
func cosine(a []float32, an float64, b []float32, bn float64) float64 {
	if an == 0 || bn == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (an * bn)
}
