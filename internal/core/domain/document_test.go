package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_CanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusUploaded, StatusPreprocessed, true},
		{StatusPreprocessed, StatusDetected, true},
		{StatusDetected, StatusExtracted, true},
		{StatusExtracted, StatusIndexed, true},
		{StatusUploaded, StatusDetected, false},
		{StatusUploaded, StatusIndexed, false},
		{StatusDetected, StatusPreprocessed, false},
		{StatusUploaded, StatusFailed, true},
		{StatusExtracted, StatusFailed, true},
		{StatusIndexed, StatusFailed, false},
		{StatusFailed, StatusUploaded, false},
		{StatusFailed, StatusFailed, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransition(tt.to))
		})
	}
}

func TestStatus_Reached(t *testing.T) {
	assert.True(t, StatusIndexed.Reached(StatusExtracted))
	assert.True(t, StatusExtracted.Reached(StatusExtracted))
	assert.False(t, StatusDetected.Reached(StatusExtracted))
	assert.False(t, StatusFailed.Reached(StatusUploaded))
}

func TestStatus_IsValid(t *testing.T) {
	assert.True(t, StatusFailed.IsValid())
	assert.True(t, StatusIndexed.IsValid())
	assert.False(t, Status("archived").IsValid())
}

func TestDocument_AdvanceThroughPipeline(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	doc := &Document{ID: "DOC-1892-001", Status: StatusUploaded}

	for _, next := range []Status{StatusPreprocessed, StatusDetected, StatusExtracted, StatusIndexed} {
		require.NoError(t, doc.Advance(next, now))
	}

	assert.Equal(t, StatusIndexed, doc.Status)
	assert.Equal(t, now, doc.IngestedAt)
	assert.True(t, errors.Is(doc.Advance(StatusFailed, now), ErrInvalidTransition))
}

func TestDocument_AdvanceRejectsSkip(t *testing.T) {
	doc := &Document{Status: StatusUploaded}

	err := doc.Advance(StatusExtracted, time.Now())

	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, StatusUploaded, doc.Status)
}

func TestDocument_Fail(t *testing.T) {
	doc := &Document{Status: StatusDetected}

	require.NoError(t, doc.Fail(StageExtract, ErrExtractionFailure, time.Now()))

	assert.Equal(t, StatusFailed, doc.Status)
	require.NotNil(t, doc.Failure)
	assert.Equal(t, StageExtract, doc.Failure.Stage)
	assert.Equal(t, "extraction failure", doc.Failure.Message)
}

func TestDocument_Text(t *testing.T) {
	doc := &Document{Regions: []TextRegion{
		{Index: 0, Text: "Survey of Thanjavur"},
		{Index: 1, Text: ""},
		{Index: 2, Text: "  dated 1892 "},
	}}

	assert.Equal(t, "Survey of Thanjavur\n\ndated 1892", doc.Text())
}

func TestFormatDocumentID(t *testing.T) {
	assert.Equal(t, "DOC-1892-001", FormatDocumentID(1892, 1))
	assert.Equal(t, "DOC-2026-1234", FormatDocumentID(2026, 1234))
}

func TestDocument_Summarise(t *testing.T) {
	doc := &Document{ID: "DOC-2026-004", Filename: "deed.png", Status: StatusExtracted, Language: LanguageTamil, Confidence: 0.8}

	s := doc.Summarise()

	assert.Equal(t, "DOC-2026-004", s.ID)
	assert.Equal(t, LanguageTamil, s.Language)
	assert.Equal(t, StatusExtracted, s.Status)
}
