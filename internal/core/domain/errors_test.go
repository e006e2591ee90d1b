package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are distinct
func TestErrors_Existence(t *testing.T) {
	all := []error{
		ErrNotFound, ErrInvalidInput, ErrNotImplemented,
		ErrUnsupportedFormat, ErrExtractionFailure, ErrUnsupportedLanguagePair,
		ErrDocumentNotExtracted, ErrEmptyIndex, ErrTimeout, ErrUndetermined,
		ErrIngestInProgress, ErrInvalidTransition,
		ErrLLMUnavailable, ErrEmbeddingUnavailable, ErrOCRUnavailable, ErrRateLimited,
	}

	for i, err := range all {
		assert.NotEmpty(t, err.Error())
		for j, other := range all {
			if i != j {
				assert.False(t, errors.Is(err, other), "%v should not match %v", err, other)
			}
		}
	}
}

func TestStageError_Unwrap(t *testing.T) {
	err := NewStageError(StageExtract, "DOC-1892-001", fmt.Errorf("tesseract: %w", ErrTimeout))

	assert.True(t, errors.Is(err, ErrTimeout))
	assert.Equal(t, "extract DOC-1892-001: tesseract: timeout", err.Error())

	var stageErr *StageError
	wrapped := fmt.Errorf("pipeline: %w", err)
	assert.True(t, errors.As(wrapped, &stageErr))
	assert.Equal(t, StageExtract, stageErr.Stage)
	assert.Equal(t, "DOC-1892-001", stageErr.DocumentID)
}

func TestStageError_NoDocument(t *testing.T) {
	err := NewStageError(StageTranslate, "", ErrUnsupportedLanguagePair)
	assert.Equal(t, "translate: unsupported language pair", err.Error())
}
