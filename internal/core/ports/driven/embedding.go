package driven

import "context"

// EmbeddingService turns text into vectors for the index; VectorIndex keeps
// and ranks them.
//
// Embeddings are deterministic: the same text under the same ModelID always
// yields the same vector, so chunks embedded in one run stay comparable with
// queries embedded in the next. hashing-v1 runs locally; Gemini
// (gemini-embedding-001) is the hosted option.
type EmbeddingService interface {
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one vector per text, in order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	Dimensions() int

	// ModelID is stored with every chunk, e.g. "hashing-v1/1024". Chunks
	// under a different ModelID are skipped until the document is reprocessed.
	ModelID() string

	Ping(ctx context.Context) error
	Close() error
}

// RelevanceScorer is implemented by embedders whose cosine similarity is
// not a usable relevance measure on its own. Relevance returns a score in
// [0, 1] for a chunk's text against the question, and the query engine
// gates answers and reports citation scores on it instead of the cosine.
// Ranking still uses the cosine.
type RelevanceScorer interface {
	Relevance(question, text string) float64
}
