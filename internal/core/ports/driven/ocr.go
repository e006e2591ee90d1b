package driven

import (
	"context"
	"image"
)

// Recognizer reads text from an image. The OCR engine calls it once per
// layout block, so implementations see small crops, not whole pages.
//
// Implementations may include:
//   - Tesseract via gosseract (cgo builds)
//   - Remote OCR APIs
type Recognizer interface {
	// Recognize returns the text in img using the given Tesseract language
	// codes, e.g. ["tam"] or ["eng","hin","tam"] for a detection probe.
	// Context cancellation must abort the call.
	Recognize(ctx context.Context, img image.Image, languages []string) (Recognition, error)

	// Name returns the engine name and version for logging.
	Name() string

	// Close releases resources.
	Close() error
}

// Recognition is the output of one Recognize call.
type Recognition struct {
	// Text is the recognised text.
	Text string

	// Confidence is the mean word confidence in [0,1].
	Confidence float64

	// Words holds per-word detail when the engine provides it.
	Words []RecognizedWord
}

// RecognizedWord is a single word with its confidence.
type RecognizedWord struct {
	Text       string
	Confidence float64
	Bounds     image.Rectangle
}
