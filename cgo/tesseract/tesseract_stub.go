//go:build !cgo

package tesseract

import (
	"context"
	"image"

	"github.com/custodia-labs/palimpsest/internal/core/domain"
	"github.com/custodia-labs/palimpsest/internal/core/ports/driven"
)

// Ensure Engine implements the interface.
var _ driven.Recognizer = (*Engine)(nil)

// Engine is a stub for builds without CGO.
type Engine struct {
	tessdataPrefix string
}

// New creates the stub recogniser.
func New(tessdataPrefix string) (*Engine, error) {
	return &Engine{tessdataPrefix: tessdataPrefix}, nil
}

// Name returns the engine name.
func (e *Engine) Name() string {
	return "tesseract (unavailable: built without cgo)"
}

// Recognize always fails.
func (e *Engine) Recognize(_ context.Context, _ image.Image, _ []string) (driven.Recognition, error) {
	return driven.Recognition{}, domain.ErrOCRUnavailable
}

// Close releases resources.
func (e *Engine) Close() error {
	return nil
}
