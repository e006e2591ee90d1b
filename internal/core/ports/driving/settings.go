package driving

import (
	"context"

	"github.com/custodia-labs/palimpsest/internal/core/domain"
)

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings.
	Get() (*domain.AppSettings, error)

	// Save validates and persists application settings.
	Save(settings *domain.AppSettings) error

	// Set updates a single setting by its config key, e.g. "retrieval.min_relevance".
	Set(key, value string) error

	// Keys lists the keys Set accepts.
	Keys() []string

	// Validate checks the current settings.
	Validate() error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings

	// ValidateEmbeddingConfig pings the configured embedding provider.
	ValidateEmbeddingConfig(ctx context.Context) error

	// ValidateLLMConfig pings the configured LLM provider.
	ValidateLLMConfig(ctx context.Context) error
}
