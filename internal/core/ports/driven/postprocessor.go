package driven

import (
	"context"

	"github.com/custodia-labs/palimpsest/internal/core/domain"
)

// PostProcessor is one step between a document's extracted text and the
// chunks that get embedded. The first step in a pipeline is handed nil
// and creates chunks from doc.Content; later steps filter or rewrite the
// chunks they are given.
type PostProcessor interface {
	Name() string
	Process(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error)
}

// ChunkPipeline turns an extracted document into chunks ready to embed.
// Every chunk it returns belongs to doc and positions strictly increase;
// positions need not be contiguous once steps have dropped chunks.
type ChunkPipeline interface {
	Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error)
}
