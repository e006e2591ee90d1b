package services

import (
	"context"
	"errors"
	"image"
	"strings"
	"sync"

	"github.com/custodia-labs/palimpsest/internal/core/domain"
	"github.com/custodia-labs/palimpsest/internal/core/ports/driven"
)

// mockRecognizer returns canned recognitions.
type mockRecognizer struct {
	mu        sync.Mutex
	calls     int
	languages [][]string
	recognize func(ctx context.Context, img image.Image, languages []string) (driven.Recognition, error)
}

func (m *mockRecognizer) Recognize(ctx context.Context, img image.Image, languages []string) (driven.Recognition, error) {
	m.mu.Lock()
	m.calls++
	m.languages = append(m.languages, languages)
	m.mu.Unlock()
	if m.recognize == nil {
		return driven.Recognition{}, nil
	}
	return m.recognize(ctx, img, languages)
}

func (m *mockRecognizer) Name() string { return "mock" }
func (m *mockRecognizer) Close() error { return nil }

func (m *mockRecognizer) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// fixedRecognizer always returns the same text and confidence.
func fixedRecognizer(text string, confidence float64) *mockRecognizer {
	return &mockRecognizer{recognize: func(context.Context, image.Image, []string) (driven.Recognition, error) {
		return driven.Recognition{Text: text, Confidence: confidence}, nil
	}}
}

// mockLLMService is a configurable LLM.
type mockLLMService struct {
	response string
	err      error
	prompts  []string
}

func (m *mockLLMService) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	m.prompts = append(m.prompts, prompt)
	return m.response, m.err
}

func (m *mockLLMService) Chat(_ context.Context, messages []driven.ChatMessage, _ driven.ChatOptions) (string, error) {
	for _, msg := range messages {
		m.prompts = append(m.prompts, msg.Content)
	}
	return m.response, m.err
}

func (m *mockLLMService) ModelName() string            { return "mock-llm" }
func (m *mockLLMService) Ping(_ context.Context) error { return nil }
func (m *mockLLMService) Close() error                 { return nil }

// dictionaryBackend translates word by word from a fixed dictionary and
// keeps anything it does not know, placeholders included.
type dictionaryBackend struct {
	mu       sync.Mutex
	pairs    map[[2]domain.Language]map[string]string
	maxRunes int
	calls    []string
	err      error
	drop     bool
}

func newDictionaryBackend() *dictionaryBackend {
	return &dictionaryBackend{
		maxRunes: 1000,
		pairs: map[[2]domain.Language]map[string]string{
			{domain.LanguageEnglish, domain.LanguageTamil}: {
				"land": "நிலம்", "record": "பதிவு", "dated": "தேதியிட்ட", "the": "", "survey": "அளவீடு",
			},
			{domain.LanguageTamil, domain.LanguageEnglish}: {
				"நிலம்": "land", "பதிவு": "record", "தேதியிட்ட": "dated", "அளவீடு": "survey",
			},
			{domain.LanguageEnglish, domain.LanguageHindi}: {
				"land": "भूमि",
			},
		},
	}
}

func (b *dictionaryBackend) Translate(ctx context.Context, text string, source, target domain.Language) (string, error) {
	b.mu.Lock()
	b.calls = append(b.calls, text)
	b.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if b.err != nil {
		return "", b.err
	}
	dict, ok := b.pairs[[2]domain.Language{source, target}]
	if !ok {
		return "", errors.New("pair not loaded")
	}
	fields := strings.Fields(text)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if b.drop && strings.HasPrefix(f, "⟦") {
			continue
		}
		word := strings.TrimRight(f, ".,;!?।")
		punct := f[len(word):]
		if tr, ok := dict[strings.ToLower(word)]; ok {
			if tr != "" || punct != "" {
				out = append(out, tr+punct)
			}
			continue
		}
		out = append(out, f)
	}
	return strings.Join(out, " "), nil
}

func (b *dictionaryBackend) Supports(source, target domain.Language) bool {
	_, ok := b.pairs[[2]domain.Language{source, target}]
	return ok
}

func (b *dictionaryBackend) MaxInputRunes() int { return b.maxRunes }
func (b *dictionaryBackend) Name() string       { return "dictionary" }

func (b *dictionaryBackend) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.calls)
}

// staticGazetteer is an in-memory gazetteer.
type staticGazetteer []domain.GazetteerEntry

func (g staticGazetteer) Entries() []domain.GazetteerEntry { return g }
