package driven

import (
	"context"

	"github.com/custodia-labs/palimpsest/internal/core/domain"
)

// DocumentStore persists documents and chunks.
// Backed by SQLite for durable storage or memory for tests.
type DocumentStore interface {
	// NextDocumentSequence reserves the next sequence number for a year.
	// Sequences start at 1 and never repeat within a year.
	NextDocumentSequence(ctx context.Context, year int) (int, error)

	// SaveDocument stores or updates a document.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// GetDocument retrieves a document by ID.
	// Returns domain.ErrNotFound if it does not exist.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// ListDocuments returns all documents, oldest first.
	ListDocuments(ctx context.Context) ([]domain.Document, error)

	// CommitIndexed atomically saves the document and replaces its chunks.
	// Either both are visible afterwards or neither changed.
	CommitIndexed(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) error

	// GetChunks retrieves all chunks for a document in position order.
	GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// GetChunk retrieves a specific chunk by ID.
	GetChunk(ctx context.Context, id string) (*domain.Chunk, error)

	// AllChunks returns every stored chunk. Used to rebuild the vector index.
	AllChunks(ctx context.Context) ([]domain.Chunk, error)

	// DeleteDocument removes a document and its chunks.
	DeleteDocument(ctx context.Context, id string) error
}
