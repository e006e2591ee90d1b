package ai

import (
	"strings"
	"testing"

	"github.com/custodia-labs/palimpsest/internal/adapters/driven/embedding/hashing"
	"github.com/custodia-labs/palimpsest/internal/adapters/driven/ratelimit"
	"github.com/custodia-labs/palimpsest/internal/core/domain"
)

func TestInitResult_Close(t *testing.T) {
	t.Run("close with nil services", func(t *testing.T) {
		result := &InitResult{}
		// Should not panic
		result.Close()
	})
}

func TestCreateEmbeddingService(t *testing.T) {
	tests := []struct {
		name        string
		settings    *domain.EmbeddingSettings
		wantNil     bool
		wantErr     bool
		errContains string
		wantModelID string
	}{
		{
			name:     "nil settings returns nil",
			settings: nil,
			wantNil:  true,
		},
		{
			name:     "unconfigured settings returns nil",
			settings: &domain.EmbeddingSettings{},
			wantNil:  true,
		},
		{
			name: "local provider creates hashing service",
			settings: &domain.EmbeddingSettings{
				Provider:   domain.AIProviderLocal,
				Dimensions: 256,
			},
			wantModelID: "hashing-v1/256",
		},
		{
			name: "local provider rejects tiny vectors",
			settings: &domain.EmbeddingSettings{
				Provider:   domain.AIProviderLocal,
				Dimensions: 4,
			},
			wantNil:     true,
			wantErr:     true,
			errContains: "dimensions must be at least 16",
		},
		{
			name: "gemini provider creates service",
			settings: &domain.EmbeddingSettings{
				Provider:   domain.AIProviderGemini,
				APIKey:     "test-key",
				Model:      "gemini-embedding-001",
				Dimensions: 768,
			},
			wantModelID: "gemini-embedding-001/768",
		},
		{
			name: "ollama provider needs no key",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderOllama,
				Model:    "nomic-embed-text",
			},
			wantModelID: "ollama/nomic-embed-text/768",
		},
		{
			name: "gemini without key is not configured",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderGemini,
			},
			wantNil: true,
		},
		{
			name: "anthropic is not an embedding provider",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderAnthropic,
				APIKey:   "test-key",
			},
			wantNil: true,
		},
		{
			name: "unknown provider returns nil (not configured)",
			settings: &domain.EmbeddingSettings{
				Provider: "unknown",
				APIKey:   "test-key",
			},
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateEmbeddingService(tt.settings)

			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				} else if tt.errContains != "" && !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("error %q should contain %q", err.Error(), tt.errContains)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}

			if tt.wantNil && svc != nil {
				t.Error("expected nil service, got non-nil")
			}
			if !tt.wantNil && svc == nil {
				t.Fatal("expected non-nil service, got nil")
			}
			if svc != nil {
				if tt.wantModelID != "" && svc.ModelID() != tt.wantModelID {
					t.Errorf("ModelID() = %q, want %q", svc.ModelID(), tt.wantModelID)
				}
				svc.Close()
			}
		})
	}
}

func TestCreateEmbeddingService_GeminiIsThrottled(t *testing.T) {
	svc, err := CreateEmbeddingService(&domain.EmbeddingSettings{
		Provider: domain.AIProviderGemini,
		APIKey:   "test-key",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := svc.(*ratelimit.EmbeddingService); !ok {
		t.Errorf("expected rate limited wrapper, got %T", svc)
	}
}

func TestCreateLLMService(t *testing.T) {
	tests := []struct {
		name          string
		settings      *domain.LLMSettings
		wantNil       bool
		wantErr       bool
		wantModel     string
		wantThrottled bool
	}{
		{
			name:     "nil settings returns nil",
			settings: nil,
			wantNil:  true,
		},
		{
			name:     "unconfigured settings returns nil",
			settings: &domain.LLMSettings{},
			wantNil:  true,
		},
		{
			name: "anthropic provider creates service",
			settings: &domain.LLMSettings{
				Provider: domain.AIProviderAnthropic,
				APIKey:   "test-key",
				Model:    "claude-sonnet-4-5",
			},
			wantModel: "claude-sonnet-4-5",
		},
		{
			name: "gemini provider creates service",
			settings: &domain.LLMSettings{
				Provider: domain.AIProviderGemini,
				APIKey:   "test-key",
			},
			wantModel: "gemini-2.5-flash",
		},
		{
			name: "ollama provider needs no key",
			settings: &domain.LLMSettings{
				Provider: domain.AIProviderOllama,
				BaseURL:  "http://gpu-box:11434",
			},
			wantModel: "llama3.2",
		},
		{
			name: "requests per minute wraps the service",
			settings: &domain.LLMSettings{
				Provider:          domain.AIProviderAnthropic,
				APIKey:            "test-key",
				RequestsPerMinute: 50,
			},
			wantModel:     "claude-sonnet-4-5",
			wantThrottled: true,
		},
		{
			name: "local is not an LLM provider",
			settings: &domain.LLMSettings{
				Provider: domain.AIProviderLocal,
				APIKey:   "test-key",
			},
			wantNil: true,
		},
		{
			name: "unknown provider returns nil (not configured)",
			settings: &domain.LLMSettings{
				Provider: "unknown",
				APIKey:   "test-key",
			},
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateLLMService(tt.settings)

			if tt.wantErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if tt.wantNil && svc != nil {
				t.Error("expected nil service, got non-nil")
			}
			if !tt.wantNil && svc == nil {
				t.Fatal("expected non-nil service, got nil")
			}
			if svc == nil {
				return
			}
			defer svc.Close()

			if svc.ModelName() != tt.wantModel {
				t.Errorf("ModelName() = %q, want %q", svc.ModelName(), tt.wantModel)
			}
			_, throttled := svc.(*ratelimit.LLMService)
			if throttled != tt.wantThrottled {
				t.Errorf("throttled = %v, want %v", throttled, tt.wantThrottled)
			}
		})
	}
}

func TestCreateAndValidateEmbeddingService(t *testing.T) {
	t.Run("local service is returned", func(t *testing.T) {
		svc, err := CreateAndValidateEmbeddingService(&domain.EmbeddingSettings{
			Provider:   domain.AIProviderLocal,
			Dimensions: 64,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if svc == nil {
			t.Fatal("expected service")
		}
		svc.Close()
	})

	t.Run("creation error is wrapped", func(t *testing.T) {
		svc, err := CreateAndValidateEmbeddingService(&domain.EmbeddingSettings{
			Provider:   domain.AIProviderLocal,
			Dimensions: 2,
		})
		if svc != nil {
			t.Error("expected nil service")
		}
		if err == nil || !strings.Contains(err.Error(), domain.ErrEmbeddingUnavailable.Error()) {
			t.Errorf("expected embedding unavailable error, got %v", err)
		}
		if !strings.Contains(err.Error(), "palimpsest settings") {
			t.Errorf("expected guidance in error, got %v", err)
		}
	})
}

func TestCreateAndValidateLLMService_Unconfigured(t *testing.T) {
	svc, err := CreateAndValidateLLMService(&domain.LLMSettings{})
	if svc != nil || err != nil {
		t.Errorf("expected nil, nil; got %v, %v", svc, err)
	}
}

func TestInitialise(t *testing.T) {
	t.Run("defaults are offline", func(t *testing.T) {
		result, err := Initialise(domain.DefaultAppSettings())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer result.Close()

		if result.FellBack {
			t.Error("local embedding should not count as a fallback")
		}
		if result.LLMService != nil {
			t.Error("no LLM is configured by default")
		}
		if len(result.Warnings) != 0 {
			t.Errorf("unexpected warnings: %v", result.Warnings)
		}
		if _, ok := result.EmbeddingService.(*hashing.EmbeddingService); !ok {
			t.Errorf("expected hashing embedder, got %T", result.EmbeddingService)
		}
	})

	t.Run("unusable embedding falls back", func(t *testing.T) {
		settings := domain.DefaultAppSettings()
		settings.Embedding.Dimensions = 3

		result, err := Initialise(settings)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer result.Close()

		if len(result.Warnings) != 1 {
			t.Errorf("expected one warning, got %v", result.Warnings)
		}
		if got := result.EmbeddingService.Dimensions(); got != domain.DefaultHashingDimensions {
			t.Errorf("fallback dimensions = %d, want %d", got, domain.DefaultHashingDimensions)
		}
		if result.FellBack {
			t.Error("a broken local embedder is replaced, not a fallback from another provider")
		}
	})

	t.Run("unconfigured cloud embedding falls back", func(t *testing.T) {
		settings := domain.DefaultAppSettings()
		settings.Embedding.Provider = domain.AIProviderGemini

		result, err := Initialise(settings)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer result.Close()

		if !result.FellBack {
			t.Error("expected FellBack for gemini without a key")
		}
		if _, ok := result.EmbeddingService.(*hashing.EmbeddingService); !ok {
			t.Errorf("expected hashing embedder, got %T", result.EmbeddingService)
		}
	})
}
