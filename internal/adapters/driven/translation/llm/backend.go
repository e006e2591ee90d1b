// Package llm provides a translation backend that asks a language model to
// translate one segment at a time.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/palimpsest/internal/core/domain"
	"github.com/custodia-labs/palimpsest/internal/core/ports/driven"
)

// Verify interface compliance.
var (
	_ driven.TranslationBackend = (*Backend)(nil)
	_ driven.PromptStoreAware   = (*Backend)(nil)
)

// DefaultMaxInputRunes keeps a segment plus its translation well inside
// the output token budget.
const DefaultMaxInputRunes = 2000

// defaultTranslatePrompt is the fallback when no PromptStore is configured.
const defaultTranslatePrompt = `Translate the following %s text into %s.
Tokens of the form ⟦n⟧ are placeholders for names, dates and numbers. Copy every placeholder exactly once, unchanged, into the position that fits the translated sentence.
Keep line breaks. Return ONLY the translation, with no notes or quotation marks.

Text:
%s`

// Backend translates between every pair of supported languages with an LLM.
type Backend struct {
	llm           driven.LLMService
	promptStore   driven.PromptStore
	maxInputRunes int
}

// NewBackend creates an LLM translation backend. maxInputRunes <= 0 uses
// DefaultMaxInputRunes.
func NewBackend(llm driven.LLMService, maxInputRunes int) *Backend {
	if maxInputRunes <= 0 {
		maxInputRunes = DefaultMaxInputRunes
	}
	return &Backend{llm: llm, maxInputRunes: maxInputRunes}
}

// SetPromptStore sets the prompt store for loading customisable prompts.
func (b *Backend) SetPromptStore(store driven.PromptStore) {
	b.promptStore = store
}

// Name identifies the backend and model.
func (b *Backend) Name() string {
	if b.llm == nil {
		return "llm"
	}
	return "llm:" + b.llm.ModelName()
}

// Supports reports true for any two distinct supported languages when a
// model is configured.
func (b *Backend) Supports(source, target domain.Language) bool {
	return b.llm != nil && source != target && source.IsSupported() && target.IsSupported()
}

// MaxInputRunes is the longest segment sent in one call.
func (b *Backend) MaxInputRunes() int {
	return b.maxInputRunes
}

// Translate sends one segment to the model.
func (b *Backend) Translate(ctx context.Context, text string, source, target domain.Language) (string, error) {
	if !b.Supports(source, target) {
		return "", fmt.Errorf("%w: %s to %s", domain.ErrUnsupportedLanguagePair, source, target)
	}
	if strings.TrimSpace(text) == "" {
		return text, nil
	}

	prompt := fmt.Sprintf(b.loadPrompt(), describe(source), describe(target), text)
	out, err := b.llm.Generate(ctx, prompt, driven.GenerateOptions{
		// Scripts such as Tamil tokenise at several tokens per rune.
		MaxTokens:   4 * len([]rune(text)),
		Temperature: 0,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
	}

	out = strings.TrimSpace(out)
	if out == "" {
		return "", fmt.Errorf("%w: empty translation", domain.ErrLLMUnavailable)
	}
	return out, nil
}

// describe renders a language as "Tamil (தமிழ்)" so the model sees both names.
func describe(lang domain.Language) string {
	info, ok := lang.Info()
	if !ok {
		return lang.String()
	}
	if info.NativeName == info.Name {
		return info.Name
	}
	return fmt.Sprintf("%s (%s)", info.Name, info.NativeName)
}

// loadPrompt loads a prompt from the store, falling back to the default if unavailable.
func (b *Backend) loadPrompt() string {
	if b.promptStore == nil {
		return defaultTranslatePrompt
	}
	prompt, err := b.promptStore.Load(driven.PromptTranslate)
	if err != nil {
		return defaultTranslatePrompt
	}
	return prompt
}
