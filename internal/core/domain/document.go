package domain

import (
	"fmt"
	"strings"
	"time"
)

// Status is the processing state of a Document.
type Status string

// Document states, in pipeline order. Failed is reachable from any
// non-terminal state.
const (
	StatusUploaded     Status = "uploaded"
	StatusPreprocessed Status = "preprocessed"
	StatusDetected     Status = "detected"
	StatusExtracted    Status = "extracted"
	StatusIndexed      Status = "indexed"
	StatusFailed       Status = "failed"
)

// statusOrder lists the non-failed states in the only order allowed.
var statusOrder = []Status{
	StatusUploaded,
	StatusPreprocessed,
	StatusDetected,
	StatusExtracted,
	StatusIndexed,
}

// IsValid returns true if the status is recognised.
func (s Status) IsValid() bool {
	return s == StatusFailed || s.rank() >= 0
}

// IsTerminal returns true for Indexed and Failed.
func (s Status) IsTerminal() bool {
	return s == StatusIndexed || s == StatusFailed
}

// Reached reports whether a document in state s has completed stage other.
// Failed documents have reached nothing.
func (s Status) Reached(other Status) bool {
	r, o := s.rank(), other.rank()
	return r >= 0 && o >= 0 && r >= o
}

// CanTransition returns true if moving from s to next is allowed.
func (s Status) CanTransition(next Status) bool {
	if s.IsTerminal() {
		return false
	}
	if next == StatusFailed {
		return true
	}
	return next.rank() == s.rank()+1
}

func (s Status) rank() int {
	for i, st := range statusOrder {
		if st == s {
			return i
		}
	}
	return -1
}

// String returns the string representation.
func (s Status) String() string {
	return string(s)
}

// BoundingBox is the pixel geometry of a region on its page.
type BoundingBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// TextRegion is a contiguous span of OCR output. Regions keep the order
// they were extracted in; an unreadable region has empty Text and zero
// Confidence.
type TextRegion struct {
	// Index is the region's position within the document.
	Index int `json:"index"`

	// Page is the zero-based page the region was found on.
	Page int `json:"page"`

	// Text is the recognised text, NFC-normalised.
	Text string `json:"text"`

	// Confidence is in [0,1].
	Confidence float64 `json:"confidence"`

	// Bounds is the region geometry, if known.
	Bounds *BoundingBox `json:"bounds,omitempty"`
}

// StageFailure records why a document ended in StatusFailed.
type StageFailure struct {
	Stage   Stage  `json:"stage"`
	Message string `json:"message"`
}

// Document is a scanned source and everything the pipeline learned about it.
// It is owned by the pipeline; other layers hold read copies.
type Document struct {
	// ID is the stable identifier, e.g. DOC-1892-001.
	ID string

	// MediaRef is the key of the original bytes in the media store.
	MediaRef string

	// Filename is the uploaded file's base name, if any.
	Filename string

	// MIMEType is the declared content type.
	MIMEType string

	// PageCount is the number of pages found during preprocessing.
	PageCount int

	// Language is the detected language.
	Language Language

	// LanguageConfidence is the detector's score for Language.
	LanguageConfidence float64

	// LowConfidence is set when detection fell inside the tie-break band.
	LowConfidence bool

	// Confidence is the overall OCR confidence in [0,1].
	Confidence float64

	// Regions is the ordered OCR output.
	Regions []TextRegion

	// Status is the processing state.
	Status Status

	// Failure is set when Status is StatusFailed.
	Failure *StageFailure

	// ProcessingDuration is the OCR time across all pages.
	ProcessingDuration time.Duration

	// IngestedAt is when the document was committed to the index.
	IngestedAt time.Time

	// CreatedAt is when the document was uploaded.
	CreatedAt time.Time

	// UpdatedAt is when the document last changed state.
	UpdatedAt time.Time
}

// Advance moves the document to next, enforcing the pipeline order.
func (d *Document) Advance(next Status, now time.Time) error {
	if !d.Status.CanTransition(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, d.Status, next)
	}
	d.Status = next
	d.UpdatedAt = now
	if next == StatusIndexed {
		d.IngestedAt = now
	}
	return nil
}

// Fail moves the document to StatusFailed and records the cause.
func (d *Document) Fail(stage Stage, cause error, now time.Time) error {
	if err := d.Advance(StatusFailed, now); err != nil {
		return err
	}
	d.Failure = &StageFailure{Stage: stage, Message: cause.Error()}
	return nil
}

// Text returns the extracted text: non-empty regions in order, separated
// by blank lines.
func (d *Document) Text() string {
	parts := make([]string, 0, len(d.Regions))
	for _, r := range d.Regions {
		if t := strings.TrimSpace(r.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n\n")
}

// Summary is the read reference handed to presentation layers.
type Summary struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename,omitempty"`
	Status     Status    `json:"status"`
	Language   Language  `json:"language,omitempty"`
	Confidence float64   `json:"confidence"`
	CreatedAt  time.Time `json:"created_at"`
}

// Summarise returns the document's read reference.
func (d *Document) Summarise() Summary {
	return Summary{
		ID:         d.ID,
		Filename:   d.Filename,
		Status:     d.Status,
		Language:   d.Language,
		Confidence: d.Confidence,
		CreatedAt:  d.CreatedAt,
	}
}

// Chunk is a retrievable slice of a document's extracted text.
// Chunks are created during indexing and never modified.
type Chunk struct {
	// ID is derived from the document, position and embedding model.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Position is the ordinal position within the document.
	Position int

	// Content is the exact substring of the document text.
	Content string

	// StartOffset and EndOffset are byte offsets into Document.Text().
	StartOffset int
	EndOffset   int

	// Embedding is the vector representation of Content.
	Embedding []float32

	// EmbeddingModel is the versioned model identifier that produced Embedding.
	EmbeddingModel string
}

// FormatDocumentID renders the identifier for the seq-th document of a year.
func FormatDocumentID(year, seq int) string {
	return fmt.Sprintf("DOC-%04d-%03d", year, seq)
}
