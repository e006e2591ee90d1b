package domain

import "time"

// RetrievedChunk is a chunk ranked for a question.
type RetrievedChunk struct {
	Chunk Chunk

	// Score is the cosine similarity to the question. It orders results.
	Score float64

	// Relevance is what the answer threshold is checked against. It equals
	// Score unless the embedder scores relevance itself, as hashing-v1 does
	// with query-term coverage.
	Relevance float64

	// DocumentIngestedAt is the owning document's ingestion time, used to
	// break score ties in favour of newer documents.
	DocumentIngestedAt time.Time
}

// Citation names a document that grounded an answer. Score is the
// relevance of the document's best chunk.
type Citation struct {
	DocumentID string  `json:"document_id"`
	Score      float64 `json:"relevance_score"`
}

// QueryResult is the outcome of one question. It is not persisted.
type QueryResult struct {
	Question  string
	Retrieved []RetrievedChunk
	Answer    string
	Citations []Citation

	// Uncertain is set when retrieval did not clear the relevance threshold.
	Uncertain bool

	// K is the number of chunks actually returned after clamping.
	K int
}
