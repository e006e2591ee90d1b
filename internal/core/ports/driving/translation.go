package driving

import (
	"context"

	"github.com/custodia-labs/palimpsest/internal/core/domain"
)

// TranslationService translates text or a document's extracted text.
type TranslationService interface {
	// Translate converts text between two supported languages. A source of
	// domain.LanguageUndetermined asks the service to detect it from the text.
	Translate(ctx context.Context, text string, source, target domain.Language) (*domain.TranslationResult, error)

	// TranslateDocument translates a document's extracted text. An
	// undetermined source defaults to the document's detected language.
	TranslateDocument(ctx context.Context, documentID string, source, target domain.Language) (*domain.TranslationResult, error)

	// TranslateBatch translates several texts; errors are reported per item.
	TranslateBatch(ctx context.Context, texts []string, source, target domain.Language) []BatchTranslation
}

// BatchTranslation is one item of a batch.
type BatchTranslation struct {
	Index  int
	Result *domain.TranslationResult
	Err    error
}
