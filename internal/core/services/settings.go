package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/custodia-labs/palimpsest/internal/core/domain"
	"github.com/custodia-labs/palimpsest/internal/core/ports/driven"
	"github.com/custodia-labs/palimpsest/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	keyEmbedProvider      = domain.SettingEmbedProvider
	keyEmbedModel         = domain.SettingEmbedModel
	keyEmbedDimensions    = domain.SettingEmbedDimensions
	keyEmbedAPIKey        = domain.SettingEmbedAPIKey
	keyEmbedBaseURL       = domain.SettingEmbedBaseURL
	keyLLMProvider        = domain.SettingLLMProvider
	keyLLMModel           = domain.SettingLLMModel
	keyLLMAPIKey          = domain.SettingLLMAPIKey
	keyLLMBaseURL         = domain.SettingLLMBaseURL
	keyLLMRate            = domain.SettingLLMRate
	keyWorkers            = domain.SettingWorkers
	keyOCRTimeout         = domain.SettingOCRTimeout
	keyDetectionThreshold = domain.SettingDetectionThreshold
	keyDetectionEpsilon   = domain.SettingDetectionEpsilon
	keyTessdataPrefix     = domain.SettingTessdataPrefix
	keyChunkSize          = domain.SettingChunkSize
	keyChunkOverlap       = domain.SettingChunkOverlap
	keyDefaultK           = domain.SettingDefaultK
	keyMinRelevance       = domain.SettingMinRelevance
	keyAnswerMode         = domain.SettingAnswerMode
	keyTranslateTimeout   = domain.SettingTranslateTimeout
	keyMaxSegmentRunes    = domain.SettingMaxSegmentRunes
	keyPreserveClasses    = domain.SettingPreserveClasses
	keyCacheEntries       = domain.SettingCacheEntries
	keyStorageBackend     = domain.SettingStorageBackend
)

// Environment variables that supply API keys when the config has none.
const (
	EnvAnthropicAPIKey = "ANTHROPIC_API_KEY"
	EnvGeminiAPIKey    = "GEMINI_API_KEY"
)

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	validate    *validator.Validate
	getenv      func(string) string
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		getenv:      os.Getenv,
	}
}

// Get retrieves current application settings. Unset keys take their
// defaults; API keys fall back to the provider's environment variable.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	d := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider:   s.getProvider(keyEmbedProvider, d.Embedding.Provider),
			Model:      s.configStore.GetString(keyEmbedModel),
			Dimensions: s.getInt(keyEmbedDimensions, d.Embedding.Dimensions),
			APIKey:     s.configStore.GetString(keyEmbedAPIKey),
			BaseURL:    s.configStore.GetString(keyEmbedBaseURL),
		},
		LLM: domain.LLMSettings{
			Provider:          s.getProvider(keyLLMProvider, d.LLM.Provider),
			Model:             s.configStore.GetString(keyLLMModel),
			APIKey:            s.configStore.GetString(keyLLMAPIKey),
			BaseURL:           s.configStore.GetString(keyLLMBaseURL),
			RequestsPerMinute: s.getInt(keyLLMRate, d.LLM.RequestsPerMinute),
		},
		Pipeline: domain.PipelineSettings{
			Workers:            s.getInt(keyWorkers, d.Pipeline.Workers),
			OCRTimeout:         s.getDuration(keyOCRTimeout, d.Pipeline.OCRTimeout),
			DetectionThreshold: s.getFloat(keyDetectionThreshold, d.Pipeline.DetectionThreshold),
			DetectionEpsilon:   s.getFloat(keyDetectionEpsilon, d.Pipeline.DetectionEpsilon),
			TessdataPrefix:     s.configStore.GetString(keyTessdataPrefix),
		},
		Chunking: domain.ChunkingSettings{
			ChunkSize: s.getInt(keyChunkSize, d.Chunking.ChunkSize),
			Overlap:   s.getInt(keyChunkOverlap, d.Chunking.Overlap),
		},
		Retrieval: domain.RetrievalSettings{
			DefaultK:     s.getInt(keyDefaultK, d.Retrieval.DefaultK),
			MinRelevance: s.getFloat(keyMinRelevance, d.Retrieval.MinRelevance),
			AnswerMode:   domain.AnswerMode(s.getString(keyAnswerMode, string(d.Retrieval.AnswerMode))),
		},
		Translation: domain.TranslationSettings{
			Timeout:         s.getDuration(keyTranslateTimeout, d.Translation.Timeout),
			MaxSegmentRunes: s.getInt(keyMaxSegmentRunes, d.Translation.MaxSegmentRunes),
			PreserveClasses: s.getClasses(d.Translation.PreserveClasses),
			CacheEntries:    s.getInt(keyCacheEntries, d.Translation.CacheEntries),
		},
		Storage: domain.StorageSettings{
			Backend: domain.StorageBackend(s.getString(keyStorageBackend, string(d.Storage.Backend))),
		},
	}

	if settings.Embedding.Model == "" {
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[settings.Embedding.Provider]
	}
	if settings.LLM.Model == "" {
		settings.LLM.Model = domain.DefaultLLMModels()[settings.LLM.Provider]
	}
	if settings.Embedding.APIKey == "" {
		settings.Embedding.APIKey = s.envKey(settings.Embedding.Provider)
	}
	if settings.LLM.APIKey == "" {
		settings.LLM.APIKey = s.envKey(settings.LLM.Provider)
	}

	return settings, nil
}

// Save validates and persists application settings. API keys that only
// came from the environment are not written to disk.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	if err := s.check(settings); err != nil {
		return err
	}

	values := map[string]any{
		keyEmbedProvider:      settings.Embedding.Provider.String(),
		keyEmbedModel:         settings.Embedding.Model,
		keyEmbedDimensions:    settings.Embedding.Dimensions,
		keyEmbedBaseURL:       settings.Embedding.BaseURL,
		keyLLMProvider:        settings.LLM.Provider.String(),
		keyLLMModel:           settings.LLM.Model,
		keyLLMBaseURL:         settings.LLM.BaseURL,
		keyLLMRate:            settings.LLM.RequestsPerMinute,
		keyWorkers:            settings.Pipeline.Workers,
		keyOCRTimeout:         settings.Pipeline.OCRTimeout.String(),
		keyDetectionThreshold: settings.Pipeline.DetectionThreshold,
		keyDetectionEpsilon:   settings.Pipeline.DetectionEpsilon,
		keyTessdataPrefix:     settings.Pipeline.TessdataPrefix,
		keyChunkSize:          settings.Chunking.ChunkSize,
		keyChunkOverlap:       settings.Chunking.Overlap,
		keyDefaultK:           settings.Retrieval.DefaultK,
		keyMinRelevance:       settings.Retrieval.MinRelevance,
		keyAnswerMode:         string(settings.Retrieval.AnswerMode),
		keyTranslateTimeout:   settings.Translation.Timeout.String(),
		keyMaxSegmentRunes:    settings.Translation.MaxSegmentRunes,
		keyPreserveClasses:    classStrings(settings.Translation.PreserveClasses),
		keyCacheEntries:       settings.Translation.CacheEntries,
		keyStorageBackend:     string(settings.Storage.Backend),
	}
	if k := settings.Embedding.APIKey; k != "" && k != s.envKey(settings.Embedding.Provider) {
		values[keyEmbedAPIKey] = k
	}
	if k := settings.LLM.APIKey; k != "" && k != s.envKey(settings.LLM.Provider) {
		values[keyLLMAPIKey] = k
	}

	if err := s.configStore.Update(values); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// Set parses value for key and saves the result if the settings remain
// valid.
//
//nolint:gocyclo // One case per setting.
func (s *SettingsService) Set(key, value string) error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	value = strings.TrimSpace(value)

	switch key {
	case keyEmbedProvider:
		settings.Embedding.Provider = domain.AIProvider(value)
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[settings.Embedding.Provider]
		if d, ok := domain.DefaultEmbeddingDimensions()[settings.Embedding.Provider]; ok {
			settings.Embedding.Dimensions = d
		}
	case keyEmbedModel:
		settings.Embedding.Model = value
	case keyEmbedDimensions:
		err = parseInt(value, &settings.Embedding.Dimensions)
	case keyEmbedAPIKey:
		settings.Embedding.APIKey = value
	case keyEmbedBaseURL:
		settings.Embedding.BaseURL = value
	case keyLLMProvider:
		settings.LLM.Provider = domain.AIProvider(value)
		settings.LLM.Model = domain.DefaultLLMModels()[settings.LLM.Provider]
		if settings.LLM.APIKey == "" {
			settings.LLM.APIKey = s.envKey(settings.LLM.Provider)
		}
	case keyLLMModel:
		settings.LLM.Model = value
	case keyLLMAPIKey:
		settings.LLM.APIKey = value
	case keyLLMBaseURL:
		settings.LLM.BaseURL = value
	case keyLLMRate:
		err = parseInt(value, &settings.LLM.RequestsPerMinute)
	case keyWorkers:
		err = parseInt(value, &settings.Pipeline.Workers)
	case keyOCRTimeout:
		err = parseDuration(value, &settings.Pipeline.OCRTimeout)
	case keyDetectionThreshold:
		err = parseFloat(value, &settings.Pipeline.DetectionThreshold)
	case keyDetectionEpsilon:
		err = parseFloat(value, &settings.Pipeline.DetectionEpsilon)
	case keyTessdataPrefix:
		settings.Pipeline.TessdataPrefix = value
	case keyChunkSize:
		err = parseInt(value, &settings.Chunking.ChunkSize)
	case keyChunkOverlap:
		err = parseInt(value, &settings.Chunking.Overlap)
	case keyDefaultK:
		err = parseInt(value, &settings.Retrieval.DefaultK)
	case keyMinRelevance:
		err = parseFloat(value, &settings.Retrieval.MinRelevance)
	case keyAnswerMode:
		settings.Retrieval.AnswerMode = domain.AnswerMode(value)
	case keyTranslateTimeout:
		err = parseDuration(value, &settings.Translation.Timeout)
	case keyMaxSegmentRunes:
		err = parseInt(value, &settings.Translation.MaxSegmentRunes)
	case keyPreserveClasses:
		settings.Translation.PreserveClasses = parseClasses(value)
	case keyCacheEntries:
		err = parseInt(value, &settings.Translation.CacheEntries)
	case keyStorageBackend:
		settings.Storage.Backend = domain.StorageBackend(value)
	default:
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, key, err)
	}

	return s.Save(settings)
}

// Keys returns every key Set accepts.
func (s *SettingsService) Keys() []string {
	return []string{
		keyEmbedProvider, keyEmbedModel, keyEmbedDimensions, keyEmbedAPIKey, keyEmbedBaseURL,
		keyLLMProvider, keyLLMModel, keyLLMAPIKey, keyLLMBaseURL, keyLLMRate,
		keyWorkers, keyOCRTimeout, keyDetectionThreshold, keyDetectionEpsilon, keyTessdataPrefix,
		keyChunkSize, keyChunkOverlap,
		keyDefaultK, keyMinRelevance, keyAnswerMode,
		keyTranslateTimeout, keyMaxSegmentRunes, keyPreserveClasses, keyCacheEntries,
		keyStorageBackend,
	}
}

// Validate checks the current settings.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.check(settings)
}

// check applies the struct rules and the cross-field requirements.
func (s *SettingsService) check(settings *domain.AppSettings) error {
	if err := s.validate.Struct(settings); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, len(verrs))
			for i, fe := range verrs {
				msgs[i] = fmt.Sprintf("%s fails %q", fe.Namespace(), fieldRule(fe))
			}
			return fmt.Errorf("%w: %s", domain.ErrInvalidInput, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}

	if settings.Embedding.Provider.RequiresAPIKey() && settings.Embedding.APIKey == "" {
		return fmt.Errorf("%w: embedding provider %s needs an API key", domain.ErrInvalidInput, settings.Embedding.Provider)
	}
	if settings.Retrieval.AnswerMode == domain.AnswerModeLLM && !settings.LLM.IsConfigured() {
		return fmt.Errorf("%w: answer mode %q needs a configured LLM provider", domain.ErrInvalidInput, domain.AnswerModeLLM)
	}
	return nil
}

func fieldRule(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fe.Tag() + "=" + fe.Param()
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig pings the configured embedding provider.
func (s *SettingsService) ValidateEmbeddingConfig(ctx context.Context) error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(ctx, &settings.Embedding)
}

// ValidateLLMConfig pings the configured LLM provider.
func (s *SettingsService) ValidateLLMConfig(ctx context.Context) error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(ctx, &settings.LLM)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	if d := s.configStore.GetDuration(key); d > 0 {
		return d
	}
	return defaultVal
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return domain.AIProvider(val)
}

func (s *SettingsService) getClasses(defaultVal []domain.TokenClass) []domain.TokenClass {
	if _, exists := s.configStore.Get(keyPreserveClasses); !exists {
		return defaultVal
	}
	vals := s.configStore.GetStringSlice(keyPreserveClasses)
	classes := make([]domain.TokenClass, len(vals))
	for i, v := range vals {
		classes[i] = domain.TokenClass(v)
	}
	return classes
}

func (s *SettingsService) envKey(provider domain.AIProvider) string {
	switch provider {
	case domain.AIProviderAnthropic:
		return s.getenv(EnvAnthropicAPIKey)
	case domain.AIProviderGemini:
		return s.getenv(EnvGeminiAPIKey)
	default:
		return ""
	}
}

func parseInt(s string, dst *int) error {
	v, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func parseFloat(s string, dst *float64) error {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func parseDuration(s string, dst *time.Duration) error {
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

// parseClasses reads a comma-separated list; an empty value preserves nothing.
func parseClasses(s string) []domain.TokenClass {
	classes := []domain.TokenClass{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			classes = append(classes, domain.TokenClass(part))
		}
	}
	return classes
}

func classStrings(classes []domain.TokenClass) []string {
	out := make([]string, len(classes))
	for i, c := range classes {
		out[i] = string(c)
	}
	return out
}
