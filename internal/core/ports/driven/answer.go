package driven

import (
	"context"

	"github.com/custodia-labs/palimpsest/internal/core/domain"
)

// AnswerGenerator composes an answer from retrieved chunks only.
// Citations are computed by the query engine, not by the generator.
type AnswerGenerator interface {
	// Answer returns answer text grounded in the given chunks.
	Answer(ctx context.Context, question string, context []domain.RetrievedChunk) (string, error)

	// Name identifies the generator for logging.
	Name() string
}
