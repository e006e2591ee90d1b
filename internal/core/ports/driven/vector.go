package driven

import "context"

// VectorIndex provides exact cosine similarity search over chunk embeddings.
// Entries are grouped by document so a document's vectors appear and
// disappear together.
type VectorIndex interface {
	// PutDocument replaces all vectors of a document in one step.
	PutDocument(ctx context.Context, documentID string, entries []VectorEntry) error

	// DeleteDocument removes all vectors of a document.
	DeleteDocument(ctx context.Context, documentID string) error

	// Search scores every vector against query and returns the hits,
	// highest similarity first. Ties keep a stable but unspecified order;
	// callers apply their own tie-break.
	Search(ctx context.Context, query []float32) ([]VectorHit, error)

	// Count returns the number of vectors.
	Count() int

	// Close releases resources.
	Close() error
}

// VectorEntry is a chunk vector to index.
type VectorEntry struct {
	ChunkID   string
	Embedding []float32
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// DocumentID is the chunk's owner.
	DocumentID string

	// Similarity is the cosine similarity score in [-1,1].
	Similarity float64
}
