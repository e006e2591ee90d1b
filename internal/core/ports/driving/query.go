package driving

import (
	"context"

	"github.com/custodia-labs/palimpsest/internal/core/domain"
)

// QueryService answers questions about the indexed corpus.
type QueryService interface {
	// Query retrieves the k most relevant chunks and composes a cited answer.
	Query(ctx context.Context, question string, k int) (*domain.QueryResult, error)
}
