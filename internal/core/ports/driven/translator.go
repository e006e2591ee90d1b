package driven

import (
	"context"

	"github.com/custodia-labs/palimpsest/internal/core/domain"
)

// TranslationBackend performs the actual translation of one segment.
// Placeholders of the form ⟦n⟧ in the text must be copied to the output
// unchanged; the translation service restores them afterwards.
type TranslationBackend interface {
	// Translate converts text from source to target.
	Translate(ctx context.Context, text string, source, target domain.Language) (string, error)

	// Supports returns true if the backend translates directly from source to target.
	Supports(source, target domain.Language) bool

	// MaxInputRunes is the longest segment the backend accepts.
	MaxInputRunes() int

	// Name identifies the backend for logging and cache keys.
	Name() string
}

// Gazetteer supplies proper nouns the translator must not transliterate.
type Gazetteer interface {
	// Entries returns all known names, longest first.
	Entries() []domain.GazetteerEntry
}
