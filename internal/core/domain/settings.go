package domain

import (
	"strconv"
	"strings"
	"time"
)

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderLocal runs in-process with no network access.
	// For embeddings this is the feature-hashing model.
	AIProviderLocal AIProvider = "local"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderGemini is Google Gemini cloud API.
	AIProviderGemini AIProvider = "gemini"

	// AIProviderOllama is a local Ollama server. It needs no API key.
	AIProviderOllama AIProvider = "ollama"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderLocal, AIProviderAnthropic, AIProviderGemini, AIProviderOllama:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderAnthropic || p == AIProviderGemini
}

// IsLocal returns true if this provider runs in-process.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderLocal
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderLocal:
		return "Local (offline)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderGemini:
		return "Google Gemini (cloud)"
	case AIProviderOllama:
		return "Ollama (local server)"
	default:
		return unknownDescription
	}
}

// AnswerMode selects how the query engine composes answers.
type AnswerMode string

// Available answer modes.
const (
	// AnswerModeExtractive quotes the best matching sentences.
	AnswerModeExtractive AnswerMode = "extractive"

	// AnswerModeLLM asks the configured LLM to answer from the retrieved chunks.
	AnswerModeLLM AnswerMode = "llm"
)

// IsValid returns true if the answer mode is recognised.
func (m AnswerMode) IsValid() bool {
	return m == AnswerModeExtractive || m == AnswerModeLLM
}

// StorageBackend selects where documents and chunks are kept.
type StorageBackend string

// Available storage backends.
const (
	StorageMemory StorageBackend = "memory"
	StorageSQLite StorageBackend = "sqlite"
)

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider `validate:"required,oneof=local gemini ollama"`

	// Model is the embedding model name.
	Model string

	// Dimensions is the requested vector size.
	Dimensions int `validate:"gte=0,lte=8192"`

	// APIKey is the API key (for Gemini).
	APIKey string

	// BaseURL is the server address (for Ollama).
	BaseURL string `validate:"omitempty,url"`
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() || e.Provider == AIProviderAnthropic {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider. Empty disables the LLM.
	Provider AIProvider `validate:"omitempty,oneof=anthropic gemini ollama"`

	// Model is the LLM model name.
	Model string

	// APIKey is the API key.
	APIKey string

	// BaseURL is the server address (for Ollama).
	BaseURL string `validate:"omitempty,url"`

	// RequestsPerMinute throttles calls to the provider. Zero means unlimited.
	RequestsPerMinute int `validate:"gte=0"`
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() || l.Provider.IsLocal() {
		return false
	}
	return !l.Provider.RequiresAPIKey() || l.APIKey != ""
}

// PipelineSettings controls ingestion.
type PipelineSettings struct {
	// Workers bounds how many documents are processed at once.
	Workers int `validate:"gte=1,lte=64"`

	// OCRTimeout bounds each OCR call.
	OCRTimeout time.Duration `validate:"gt=0"`

	// DetectionThreshold is the minimum score a language needs.
	DetectionThreshold float64 `validate:"gt=0,lt=1"`

	// DetectionEpsilon is the band within which two scores count as tied.
	DetectionEpsilon float64 `validate:"gte=0,lt=1"`

	// TessdataPrefix overrides the Tesseract model directory.
	TessdataPrefix string
}

// ChunkingSettings controls how extracted text is split for indexing.
type ChunkingSettings struct {
	// ChunkSize is the window length in tokens.
	ChunkSize int `validate:"gte=1"`

	// Overlap is the number of tokens shared by consecutive windows.
	Overlap int `validate:"gte=0,ltfield=ChunkSize"`
}

// RetrievalSettings controls the query engine.
type RetrievalSettings struct {
	// DefaultK is used when a caller does not ask for a count.
	DefaultK int `validate:"gte=1"`

	// MinRelevance is the relevance below which an answer is uncertain.
	// Relevance is the cosine, except under hashing-v1 where it is the
	// share of question terms found in the chunk.
	MinRelevance float64 `validate:"gte=0,lte=1"`

	// AnswerMode selects extractive or LLM answers.
	AnswerMode AnswerMode `validate:"oneof=extractive llm"`
}

// TranslationSettings controls the translation service.
type TranslationSettings struct {
	// Timeout bounds each backend call.
	Timeout time.Duration `validate:"gt=0"`

	// MaxSegmentRunes caps the length of a unit sent to the backend.
	MaxSegmentRunes int `validate:"gte=64"`

	// PreserveClasses lists the token classes carried through verbatim.
	PreserveClasses []TokenClass `validate:"dive,oneof=date numeral proper_noun"`

	// CacheEntries sizes the translation cache. Zero disables it.
	CacheEntries int `validate:"gte=0"`
}

// StorageSettings selects persistence.
type StorageSettings struct {
	Backend StorageBackend `validate:"oneof=memory sqlite"`
}

// AppSettings holds all application settings.
type AppSettings struct {
	Embedding   EmbeddingSettings
	LLM         LLMSettings
	Pipeline    PipelineSettings
	Chunking    ChunkingSettings
	Retrieval   RetrievalSettings
	Translation TranslationSettings
	Storage     StorageSettings
}

// Documented defaults.
const (
	DefaultChunkSize          = 500
	DefaultChunkOverlap       = 50
	DefaultK                  = 5
	DefaultMinRelevance       = 0.2
	DefaultDetectionThreshold = 0.3
	DefaultDetectionEpsilon   = 0.05
	DefaultHashingDimensions  = 1024
	DefaultOllamaDimensions   = 768
	DefaultOllamaURL          = "http://localhost:11434"
	DefaultWorkers            = 4
	DefaultMaxSegmentRunes    = 4000

	DefaultOCRTimeout         = 2 * time.Minute
	DefaultTranslationTimeout = time.Minute
)

// DefaultAppSettings returns settings that work offline: local embeddings,
// extractive answers and SQLite storage. Cloud providers are opt-in.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider:   AIProviderLocal,
			Model:      DefaultEmbeddingModels()[AIProviderLocal],
			Dimensions: DefaultHashingDimensions,
		},
		LLM: LLMSettings{},
		Pipeline: PipelineSettings{
			Workers:            DefaultWorkers,
			OCRTimeout:         DefaultOCRTimeout,
			DetectionThreshold: DefaultDetectionThreshold,
			DetectionEpsilon:   DefaultDetectionEpsilon,
		},
		Chunking: ChunkingSettings{
			ChunkSize: DefaultChunkSize,
			Overlap:   DefaultChunkOverlap,
		},
		Retrieval: RetrievalSettings{
			DefaultK:     DefaultK,
			MinRelevance: DefaultMinRelevance,
			AnswerMode:   AnswerModeExtractive,
		},
		Translation: TranslationSettings{
			Timeout:         DefaultTranslationTimeout,
			MaxSegmentRunes: DefaultMaxSegmentRunes,
			PreserveClasses: AllTokenClasses(),
			CacheEntries:    1024,
		},
		Storage: StorageSettings{
			Backend: StorageSQLite,
		},
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderAnthropic,
		AIProviderGemini,
		AIProviderOllama,
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderLocal,
		AIProviderGemini,
		AIProviderOllama,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderLocal:  "hashing-v1",
		AIProviderGemini: "gemini-embedding-001",
		AIProviderOllama: "nomic-embed-text",
	}
}

// DefaultEmbeddingDimensions returns the vector size each embedding
// provider starts with.
func DefaultEmbeddingDimensions() map[AIProvider]int {
	return map[AIProvider]int{
		AIProviderLocal:  DefaultHashingDimensions,
		AIProviderGemini: 768,
		AIProviderOllama: DefaultOllamaDimensions,
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderAnthropic: "claude-sonnet-4-5",
		AIProviderGemini:    "gemini-2.5-flash",
		AIProviderOllama:    "llama3.2",
	}
}

// Setting keys accepted by the settings service and stored in config.toml.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	SettingEmbedProvider      = "embedding.provider"
	SettingEmbedModel         = "embedding.model"
	SettingEmbedDimensions    = "embedding.dimensions"
	SettingEmbedAPIKey        = "embedding.api_key"
	SettingEmbedBaseURL       = "embedding.base_url"
	SettingLLMProvider        = "llm.provider"
	SettingLLMModel           = "llm.model"
	SettingLLMAPIKey          = "llm.api_key"
	SettingLLMBaseURL         = "llm.base_url"
	SettingLLMRate            = "llm.requests_per_minute"
	SettingWorkers            = "pipeline.workers"
	SettingOCRTimeout         = "pipeline.ocr_timeout"
	SettingDetectionThreshold = "pipeline.detection_threshold"
	SettingDetectionEpsilon   = "pipeline.detection_epsilon"
	SettingTessdataPrefix     = "pipeline.tessdata_prefix"
	SettingChunkSize          = "chunking.chunk_size"
	SettingChunkOverlap       = "chunking.overlap"
	SettingDefaultK           = "retrieval.default_k"
	SettingMinRelevance       = "retrieval.min_relevance"
	SettingAnswerMode         = "retrieval.answer_mode"
	SettingTranslateTimeout   = "translation.timeout"
	SettingMaxSegmentRunes    = "translation.max_segment_runes"
	SettingPreserveClasses    = "translation.preserve_classes"
	SettingCacheEntries       = "translation.cache_entries"
	SettingStorageBackend     = "storage.backend"
)

// Lookup returns the string form of the setting stored under key.
func (s *AppSettings) Lookup(key string) (string, bool) {
	switch key {
	case SettingEmbedProvider:
		return string(s.Embedding.Provider), true
	case SettingEmbedModel:
		return s.Embedding.Model, true
	case SettingEmbedDimensions:
		return strconv.Itoa(s.Embedding.Dimensions), true
	case SettingEmbedAPIKey:
		return s.Embedding.APIKey, true
	case SettingEmbedBaseURL:
		return s.Embedding.BaseURL, true
	case SettingLLMProvider:
		return string(s.LLM.Provider), true
	case SettingLLMModel:
		return s.LLM.Model, true
	case SettingLLMAPIKey:
		return s.LLM.APIKey, true
	case SettingLLMBaseURL:
		return s.LLM.BaseURL, true
	case SettingLLMRate:
		return strconv.Itoa(s.LLM.RequestsPerMinute), true
	case SettingWorkers:
		return strconv.Itoa(s.Pipeline.Workers), true
	case SettingOCRTimeout:
		return s.Pipeline.OCRTimeout.String(), true
	case SettingDetectionThreshold:
		return strconv.FormatFloat(s.Pipeline.DetectionThreshold, 'g', -1, 64), true
	case SettingDetectionEpsilon:
		return strconv.FormatFloat(s.Pipeline.DetectionEpsilon, 'g', -1, 64), true
	case SettingTessdataPrefix:
		return s.Pipeline.TessdataPrefix, true
	case SettingChunkSize:
		return strconv.Itoa(s.Chunking.ChunkSize), true
	case SettingChunkOverlap:
		return strconv.Itoa(s.Chunking.Overlap), true
	case SettingDefaultK:
		return strconv.Itoa(s.Retrieval.DefaultK), true
	case SettingMinRelevance:
		return strconv.FormatFloat(s.Retrieval.MinRelevance, 'g', -1, 64), true
	case SettingAnswerMode:
		return string(s.Retrieval.AnswerMode), true
	case SettingTranslateTimeout:
		return s.Translation.Timeout.String(), true
	case SettingMaxSegmentRunes:
		return strconv.Itoa(s.Translation.MaxSegmentRunes), true
	case SettingPreserveClasses:
		parts := make([]string, len(s.Translation.PreserveClasses))
		for i, c := range s.Translation.PreserveClasses {
			parts[i] = string(c)
		}
		return strings.Join(parts, ","), true
	case SettingCacheEntries:
		return strconv.Itoa(s.Translation.CacheEntries), true
	case SettingStorageBackend:
		return string(s.Storage.Backend), true
	}
	return "", false
}
