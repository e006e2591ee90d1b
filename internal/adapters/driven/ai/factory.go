// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	geminiembed "github.com/custodia-labs/palimpsest/internal/adapters/driven/embedding/gemini"
	"github.com/custodia-labs/palimpsest/internal/adapters/driven/embedding/hashing"
	ollamaembed "github.com/custodia-labs/palimpsest/internal/adapters/driven/embedding/ollama"
	anthropicllm "github.com/custodia-labs/palimpsest/internal/adapters/driven/llm/anthropic"
	geminillm "github.com/custodia-labs/palimpsest/internal/adapters/driven/llm/gemini"
	ollamallm "github.com/custodia-labs/palimpsest/internal/adapters/driven/llm/ollama"
	"github.com/custodia-labs/palimpsest/internal/adapters/driven/ratelimit"
	"github.com/custodia-labs/palimpsest/internal/core/domain"
	"github.com/custodia-labs/palimpsest/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// geminiEmbeddingRPM keeps batch re-embedding under the free-tier quota.
const geminiEmbeddingRPM = 1500

// InitResult contains the result of AI service initialisation.
type InitResult struct {
	EmbeddingService driven.EmbeddingService
	LLMService       driven.LLMService // Nil when no LLM is configured.
	Warnings         []string          // Non-fatal issues that caused fallback.
	FellBack         bool              // True if the embedding fell back to the local model.
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.EmbeddingService != nil {
		r.EmbeddingService.Close()
	}
	if r.LLMService != nil {
		r.LLMService.Close()
	}
}

// Initialise creates the AI services for settings. A cloud embedding that
// cannot be reached falls back to the local model, and an unreachable LLM
// is left nil, each with a warning.
func Initialise(settings domain.AppSettings) (*InitResult, error) {
	result := &InitResult{}

	embedding, err := CreateAndValidateEmbeddingService(&settings.Embedding)
	if err != nil {
		result.Warnings = append(result.Warnings, err.Error())
	}
	if embedding == nil {
		if settings.Embedding.Provider != domain.AIProviderLocal {
			result.FellBack = true
		}
		embedding, err = hashing.NewEmbeddingService(hashing.Config{Dimensions: domain.DefaultHashingDimensions})
		if err != nil {
			return nil, err
		}
	}
	result.EmbeddingService = embedding

	llm, err := CreateAndValidateLLMService(&settings.LLM)
	if err != nil {
		result.Warnings = append(result.Warnings, err.Error())
	}
	result.LLMService = llm

	return result, nil
}

// CreateAndValidateEmbeddingService creates an embedding service and validates connectivity.
// Returns the service if successful, or an error with guidance.
func CreateAndValidateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'palimpsest settings' to fix",
			domain.ErrEmbeddingUnavailable, err)
	}

	if svc == nil {
		return nil, nil
	}

	// Validate connectivity.
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). Run 'palimpsest settings' to fix",
			domain.ErrEmbeddingUnavailable, err)
	}

	return svc, nil
}

// CreateAndValidateLLMService creates an LLM service and validates connectivity.
// Returns the service if successful, or an error with guidance.
func CreateAndValidateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	svc, err := CreateLLMService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'palimpsest settings' to fix",
			domain.ErrLLMUnavailable, err)
	}

	if svc == nil {
		return nil, nil
	}

	// Validate connectivity.
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). Run 'palimpsest settings' to fix",
			domain.ErrLLMUnavailable, err)
	}

	return svc, nil
}

// CreateEmbeddingService creates the appropriate embedding service based on settings.
// Returns nil if the provider is not configured.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderLocal:
		svc, err := hashing.NewEmbeddingService(hashing.Config{Dimensions: settings.Dimensions})
		if err != nil {
			return nil, err
		}
		return svc, nil

	case domain.AIProviderGemini:
		svc, err := geminiembed.NewEmbeddingService(context.Background(), geminiembed.Config{
			APIKey:     settings.APIKey,
			Model:      settings.Model,
			Dimensions: settings.Dimensions,
		})
		if err != nil {
			return nil, err
		}
		return ratelimit.WrapEmbedding(svc, ratelimit.NewLimiter(geminiEmbeddingRPM)), nil

	case domain.AIProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: settings.Dimensions,
		}), nil

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
}

// CreateLLMService creates the appropriate LLM service based on settings.
// Returns nil if the provider is not configured. Cloud services are
// throttled to settings.RequestsPerMinute.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	var (
		svc driven.LLMService
		err error
	)
	switch settings.Provider {
	case domain.AIProviderAnthropic:
		svc, err = anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey: settings.APIKey,
			Model:  settings.Model,
		})

	case domain.AIProviderGemini:
		svc, err = geminillm.NewLLMService(context.Background(), geminillm.Config{
			APIKey: settings.APIKey,
			Model:  settings.Model,
		})

	case domain.AIProviderOllama:
		svc = ollamallm.NewLLMService(ollamallm.Config{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
	if err != nil {
		return nil, err
	}
	if settings.RequestsPerMinute > 0 {
		svc = ratelimit.WrapLLM(svc, ratelimit.NewLimiter(settings.RequestsPerMinute))
	}
	return svc, nil
}
