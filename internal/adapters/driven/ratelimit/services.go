package ratelimit

import (
	"context"

	"github.com/custodia-labs/palimpsest/internal/core/ports/driven"
)

// Ensure wrappers implement the interfaces.
var (
	_ driven.LLMService       = (*LLMService)(nil)
	_ driven.EmbeddingService = (*EmbeddingService)(nil)
)

// LLMService throttles an LLM service.
type LLMService struct {
	driven.LLMService
	limiter *Limiter
}

// WrapLLM throttles svc with limiter.
func WrapLLM(svc driven.LLMService, limiter *Limiter) *LLMService {
	return &LLMService{LLMService: svc, limiter: limiter}
}

// Generate waits for the limiter, then generates.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", err
	}
	out, err := s.LLMService.Generate(ctx, prompt, opts)
	s.limiter.Observe(err)
	return out, err
}

// Chat waits for the limiter, then chats.
func (s *LLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", err
	}
	out, err := s.LLMService.Chat(ctx, messages, opts)
	s.limiter.Observe(err)
	return out, err
}

// EmbeddingService throttles an embedding service.
type EmbeddingService struct {
	driven.EmbeddingService
	limiter *Limiter
}

// WrapEmbedding throttles svc with limiter.
func WrapEmbedding(svc driven.EmbeddingService, limiter *Limiter) *EmbeddingService {
	return &EmbeddingService{EmbeddingService: svc, limiter: limiter}
}

// Embed waits for the limiter, then embeds.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	vec, err := s.EmbeddingService.Embed(ctx, text)
	s.limiter.Observe(err)
	return vec, err
}

// EmbedBatch counts one batch as one call.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	vecs, err := s.EmbeddingService.EmbedBatch(ctx, texts)
	s.limiter.Observe(err)
	return vecs, err
}
