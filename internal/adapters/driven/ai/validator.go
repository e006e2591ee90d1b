package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/palimpsest/internal/core/domain"
	"github.com/custodia-labs/palimpsest/internal/core/ports/driven"
)

// Ensure ConfigValidator implements the interface.
var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// ConfigValidator checks provider settings before they are saved: the
// provider must offer the capability, a cloud provider needs a key, and
// the service must answer a ping. Ollama needs only a reachable server.
type ConfigValidator struct {
	newEmbedding func(*domain.EmbeddingSettings) (driven.EmbeddingService, error)
	newLLM       func(*domain.LLMSettings) (driven.LLMService, error)
	timeout      time.Duration
}

// NewConfigValidator creates a validator that pings real providers.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{
		newEmbedding: CreateEmbeddingService,
		newLLM:       CreateLLMService,
		timeout:      pingTimeout,
	}
}

// ValidateEmbedding checks an embedding configuration. An empty provider
// is valid and means "use the default".
func (v *ConfigValidator) ValidateEmbedding(ctx context.Context, config *domain.EmbeddingSettings) error {
	if config == nil || config.Provider == "" {
		return nil
	}
	switch {
	case config.Provider == domain.AIProviderAnthropic:
		return fmt.Errorf("%w: anthropic has no embedding API; use %s, %s or %s",
			domain.ErrInvalidInput, domain.AIProviderGemini, domain.AIProviderOllama, domain.AIProviderLocal)
	case !config.Provider.IsValid():
		return fmt.Errorf("%w: unknown embedding provider %q", domain.ErrInvalidInput, config.Provider)
	case config.Provider.RequiresAPIKey() && config.APIKey == "":
		return fmt.Errorf("%w: %s embeddings need an API key (set %s)",
			domain.ErrInvalidInput, config.Provider, envKeyFor(config.Provider))
	}

	svc, err := v.newEmbedding(config)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	if svc == nil {
		return nil
	}
	defer svc.Close()
	return v.ping(ctx, svc.Ping, domain.ErrEmbeddingUnavailable)
}

// ValidateLLM checks an LLM configuration. An empty provider disables the
// LLM and is valid.
func (v *ConfigValidator) ValidateLLM(ctx context.Context, config *domain.LLMSettings) error {
	if config == nil || config.Provider == "" {
		return nil
	}
	switch {
	case config.Provider.IsLocal():
		return fmt.Errorf("%w: there is no in-process LLM; use %s or leave the provider empty for extractive answers",
			domain.ErrInvalidInput, domain.AIProviderOllama)
	case !config.Provider.IsValid():
		return fmt.Errorf("%w: unknown LLM provider %q", domain.ErrInvalidInput, config.Provider)
	case config.Provider.RequiresAPIKey() && config.APIKey == "":
		return fmt.Errorf("%w: %s needs an API key (set %s)",
			domain.ErrInvalidInput, config.Provider, envKeyFor(config.Provider))
	}

	svc, err := v.newLLM(config)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
	}
	if svc == nil {
		return nil
	}
	defer svc.Close()
	return v.ping(ctx, svc.Ping, domain.ErrLLMUnavailable)
}

func (v *ConfigValidator) ping(ctx context.Context, ping func(context.Context) error, sentinel error) error {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()
	if err := ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", sentinel, err)
	}
	return nil
}

func envKeyFor(p domain.AIProvider) string {
	if p == domain.AIProviderAnthropic {
		return "ANTHROPIC_API_KEY"
	}
	return "GEMINI_API_KEY"
}
