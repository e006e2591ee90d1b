package driven

import (
	"context"

	"github.com/custodia-labs/palimpsest/internal/core/domain"
)

// AIConfigValidator checks provider settings before they are saved, so a
// bad key or model fails at "settings" time rather than mid-ingest.
// An empty provider is always valid: it selects the default embedder or
// disables the LLM. Checks that reach the network honour ctx.
type AIConfigValidator interface {
	ValidateEmbedding(ctx context.Context, config *domain.EmbeddingSettings) error
	ValidateLLM(ctx context.Context, config *domain.LLMSettings) error
}
