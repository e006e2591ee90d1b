package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotImplemented indicates functionality is not available in this build.
	ErrNotImplemented = errors.New("not implemented")

	// Pipeline Errors.

	// ErrUnsupportedFormat indicates the media is neither a raster image nor a PDF page.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrExtractionFailure indicates the page could not be read at all.
	// Low-confidence output is never reported with this error.
	ErrExtractionFailure = errors.New("extraction failure")

	// ErrUnsupportedLanguagePair indicates no translation path exists,
	// including the case where source and target are the same language.
	ErrUnsupportedLanguagePair = errors.New("unsupported language pair")

	// ErrDocumentNotExtracted indicates an operation needs extracted text
	// but the document has not reached the extracted state.
	ErrDocumentNotExtracted = errors.New("document not extracted")

	// ErrEmptyIndex indicates a query was made before any chunks were indexed.
	ErrEmptyIndex = errors.New("empty index")

	// ErrTimeout indicates an OCR or translation call was cancelled or ran out of time.
	ErrTimeout = errors.New("timeout")

	// ErrUndetermined is the soft signal for a page whose language could not
	// be determined. Detection reports it through LanguageUndetermined rather
	// than returning it; callers may use it when they need an error value.
	ErrUndetermined = errors.New("language undetermined")

	// ErrIngestInProgress indicates the document is already being processed.
	ErrIngestInProgress = errors.New("ingestion in progress")

	// ErrInvalidTransition indicates a status change that skips a stage
	// or leaves a terminal state.
	ErrInvalidTransition = errors.New("invalid status transition")

	// Service Availability Errors.

	// ErrLLMUnavailable indicates the LLM service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrOCRUnavailable indicates no recognizer is available, typically
	// because the binary was built without cgo.
	ErrOCRUnavailable = errors.New("OCR engine unavailable")

	// ErrRateLimited indicates a remote model API rejected the request rate.
	ErrRateLimited = errors.New("rate limited")
)

// Stage names a step of the ingestion pipeline.
type Stage string

// Pipeline stages in execution order.
const (
	StagePreprocess Stage = "preprocess"
	StageDetect     Stage = "detect"
	StageExtract    Stage = "extract"
	StageIndex      Stage = "index"
	StageTranslate  Stage = "translate"
	StageQuery      Stage = "query"
)

// StageError carries the stage and document a hard failure happened in,
// so callers can retry or route the document to manual review.
type StageError struct {
	Stage      Stage
	DocumentID string
	Err        error
}

// NewStageError wraps err with pipeline context.
func NewStageError(stage Stage, documentID string, err error) *StageError {
	return &StageError{Stage: stage, DocumentID: documentID, Err: err}
}

func (e *StageError) Error() string {
	if e.DocumentID == "" {
		return fmt.Sprintf("%s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Stage, e.DocumentID, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
