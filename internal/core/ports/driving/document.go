package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/palimpsest/internal/core/domain"
)

// IngestionService accepts uploads and runs them through the pipeline.
type IngestionService interface {
	// Submit stores the media and returns the new document's ID at once.
	// Processing continues in the background.
	Submit(ctx context.Context, upload Upload) (string, error)

	// Status returns the current state of a document.
	Status(ctx context.Context, documentID string) (*StatusReport, error)

	// Reprocess resumes a document from its last completed stage, or
	// restarts a failed one from the beginning.
	Reprocess(ctx context.Context, documentID string) error

	// Wait blocks until the document reaches a terminal state or ctx ends.
	Wait(ctx context.Context, documentID string) (*StatusReport, error)
}

// RecoveryService continues documents left part-way through the pipeline.
type RecoveryService interface {
	// ResumeInterrupted restarts idle documents that are neither indexed
	// nor failed, returning their IDs.
	ResumeInterrupted(ctx context.Context) ([]string, error)
}

// DocumentService provides read and delete access to documents.
type DocumentService interface {
	// List returns summaries of all documents, oldest first.
	List(ctx context.Context) ([]domain.Summary, error)

	// Get retrieves a document by ID.
	Get(ctx context.Context, documentID string) (*domain.Document, error)

	// GetContent returns the extracted text of a document.
	GetContent(ctx context.Context, documentID string) (string, error)

	// Delete removes a document, its chunks and its media.
	Delete(ctx context.Context, documentID string) error

	// LanguageStats counts documents per detected language.
	LanguageStats(ctx context.Context) (map[domain.Language]int, error)
}

// Upload is a submission from a presentation layer.
type Upload struct {
	// Filename is the original base name, if known.
	Filename string

	// MIMEType must be image/* or application/pdf.
	MIMEType string

	// Content is the raw file bytes.
	Content []byte
}

// StatusReport is the answer to a status poll. Text, language, confidence
// and duration are only set once the document has been extracted.
type StatusReport struct {
	DocumentID         string               `json:"document_id"`
	Status             domain.Status        `json:"status"`
	Failure            *domain.StageFailure `json:"failure,omitempty"`
	Text               string               `json:"extracted_text,omitempty"`
	Language           domain.Language      `json:"language,omitempty"`
	LanguageConfidence float64              `json:"language_confidence,omitempty"`
	LowConfidence      bool                 `json:"low_confidence,omitempty"`
	Confidence         float64              `json:"confidence,omitempty"`
	Regions            []domain.TextRegion  `json:"regions,omitempty"`
	ProcessingMs       int64                `json:"processing_duration_ms,omitempty"`
	UpdatedAt          time.Time            `json:"updated_at"`
}
