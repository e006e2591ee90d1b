package mcp

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/palimpsest/internal/core/domain"
	"github.com/custodia-labs/palimpsest/internal/core/ports/driving"
)

func TestServer_handleSubmit(t *testing.T) {
	ctx := context.Background()

	t.Run("decodes content and submits", func(t *testing.T) {
		ingestion := &mockIngestionService{id: "DOC-1892-001"}
		server, err := newTestServer(&Ports{Ingestion: ingestion})
		require.NoError(t, err)

		input := SubmitInput{
			Content:  base64.StdEncoding.EncodeToString([]byte{0x89, 'P', 'N', 'G'}),
			MIMEType: "image/png",
			Filename: "deed.png",
		}
		_, output, err := server.handleSubmit(ctx, nil, input)

		require.NoError(t, err)
		assert.Equal(t, "DOC-1892-001", output.DocumentID)
		assert.Equal(t, "uploaded", output.Status)
		assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, ingestion.received.Content)
		assert.Equal(t, "deed.png", ingestion.received.Filename)
	})

	t.Run("rejects invalid base64", func(t *testing.T) {
		server, err := newTestServer(&Ports{})
		require.NoError(t, err)

		_, _, err = server.handleSubmit(ctx, nil, SubmitInput{Content: "not base64!", MIMEType: "image/png"})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("maps unsupported format", func(t *testing.T) {
		ingestion := &mockIngestionService{err: domain.ErrUnsupportedFormat}
		server, err := newTestServer(&Ports{Ingestion: ingestion})
		require.NoError(t, err)

		_, _, err = server.handleSubmit(ctx, nil, SubmitInput{Content: "", MIMEType: "text/plain"})
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
		assert.Contains(t, err.Error(), "application/pdf")
	})
}

func TestServer_handleStatus(t *testing.T) {
	ctx := context.Background()
	updated := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("extracted document", func(t *testing.T) {
		ingestion := &mockIngestionService{report: &driving.StatusReport{
			DocumentID:         "DOC-1892-001",
			Status:             domain.StatusIndexed,
			Text:               "நிலம் 1892",
			Language:           domain.LanguageTamil,
			LanguageConfidence: 0.9,
			Confidence:         0.8,
			Regions:            []domain.TextRegion{{Index: 0, Text: "நிலம் 1892", Confidence: 0.8}},
			ProcessingMs:       1200,
			UpdatedAt:          updated,
		}}
		server, err := newTestServer(&Ports{Ingestion: ingestion})
		require.NoError(t, err)

		_, output, err := server.handleStatus(ctx, nil, StatusInput{DocumentID: " DOC-1892-001 "})

		require.NoError(t, err)
		assert.Equal(t, "indexed", output.Status)
		assert.Equal(t, "ta", output.Language)
		assert.Equal(t, "நிலம் 1892", output.ExtractedText)
		require.Len(t, output.Regions, 1)
		assert.Equal(t, int64(1200), output.ProcessingMs)
		assert.Equal(t, "2026-05-01T12:00:00Z", output.UpdatedAt)
	})

	t.Run("failed document", func(t *testing.T) {
		ingestion := &mockIngestionService{report: &driving.StatusReport{
			DocumentID: "DOC-1892-002",
			Status:     domain.StatusFailed,
			Failure:    &domain.StageFailure{Stage: domain.StagePreprocess, Message: "unsupported format"},
		}}
		server, err := newTestServer(&Ports{Ingestion: ingestion})
		require.NoError(t, err)

		_, output, err := server.handleStatus(ctx, nil, StatusInput{DocumentID: "DOC-1892-002"})

		require.NoError(t, err)
		assert.Equal(t, "failed", output.Status)
		assert.Equal(t, "preprocess", output.FailedStage)
		assert.Empty(t, output.Language)
	})

	t.Run("unknown document", func(t *testing.T) {
		ingestion := &mockIngestionService{err: domain.ErrNotFound}
		server, err := newTestServer(&Ports{Ingestion: ingestion})
		require.NoError(t, err)

		_, _, err = server.handleStatus(ctx, nil, StatusInput{DocumentID: "DOC-1900-001"})
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.Contains(t, err.Error(), "check the document_id")
	})
}

func TestServer_handleTranslate(t *testing.T) {
	ctx := context.Background()
	result := &domain.TranslationResult{
		Text:              "நிலம் 1892",
		Source:            domain.LanguageEnglish,
		Target:            domain.LanguageTamil,
		EntitiesPreserved: []string{"1892"},
		Segments:          1,
		Path:              []domain.Language{domain.LanguageEnglish, domain.LanguageTamil},
	}

	t.Run("unavailable without translation service", func(t *testing.T) {
		server, err := newTestServer(&Ports{})
		require.NoError(t, err)

		_, _, err = server.handleTranslate(ctx, nil, TranslateInput{Text: "land", Target: "ta"})
		assert.ErrorIs(t, err, ErrToolUnavailable)
	})

	t.Run("translates text with auto source", func(t *testing.T) {
		translation := &mockTranslationService{result: result}
		server, err := newTestServer(&Ports{Translation: translation})
		require.NoError(t, err)

		_, output, err := server.handleTranslate(ctx, nil, TranslateInput{Text: "land 1892", Target: "Tamil"})

		require.NoError(t, err)
		assert.Equal(t, "நிலம் 1892", output.TranslatedText)
		assert.Equal(t, []string{"1892"}, output.EntitiesPreserved)
		assert.Equal(t, []string{"en", "ta"}, output.Path)
		assert.Equal(t, domain.LanguageUndetermined, translation.lastSource)
		assert.Equal(t, domain.LanguageTamil, translation.lastTarget)
	})

	t.Run("translates document", func(t *testing.T) {
		translation := &mockTranslationService{result: result}
		server, err := newTestServer(&Ports{Translation: translation})
		require.NoError(t, err)

		_, _, err = server.handleTranslate(ctx, nil, TranslateInput{DocumentID: "DOC-1892-001", Source: "en", Target: "ta"})

		require.NoError(t, err)
		assert.Equal(t, "DOC-1892-001", translation.lastDocument)
		assert.Equal(t, domain.LanguageEnglish, translation.lastSource)
	})

	t.Run("empty entities become empty list", func(t *testing.T) {
		translation := &mockTranslationService{result: &domain.TranslationResult{Text: "x"}}
		server, err := newTestServer(&Ports{Translation: translation})
		require.NoError(t, err)

		_, output, err := server.handleTranslate(ctx, nil, TranslateInput{Text: "y", Target: "en"})
		require.NoError(t, err)
		assert.NotNil(t, output.EntitiesPreserved)
	})

	tests := []struct {
		name    string
		input   TranslateInput
		wantErr error
	}{
		{"unknown target", TranslateInput{Text: "x", Target: "fr"}, domain.ErrUnsupportedLanguagePair},
		{"unknown source", TranslateInput{Text: "x", Source: "klingon", Target: "en"}, domain.ErrUnsupportedLanguagePair},
		{"nothing to translate", TranslateInput{Target: "en"}, domain.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, err := newTestServer(&Ports{Translation: &mockTranslationService{result: result}})
			require.NoError(t, err)

			_, _, err = server.handleTranslate(ctx, nil, tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("same language pair is surfaced", func(t *testing.T) {
		translation := &mockTranslationService{err: domain.ErrUnsupportedLanguagePair}
		server, err := newTestServer(&Ports{Translation: translation})
		require.NoError(t, err)

		_, _, err = server.handleTranslate(ctx, nil, TranslateInput{Text: "1892", Source: "en", Target: "en"})
		assert.ErrorIs(t, err, domain.ErrUnsupportedLanguagePair)
		assert.Contains(t, err.Error(), "list_languages")
	})
}

func TestServer_handleQuery(t *testing.T) {
	ctx := context.Background()

	t.Run("default k is 5", func(t *testing.T) {
		query := &mockQueryService{result: &domain.QueryResult{}}
		server, err := newTestServer(&Ports{Query: query})
		require.NoError(t, err)

		_, _, err = server.handleQuery(ctx, nil, QueryInput{Question: "who owned the land?"})
		require.NoError(t, err)
		assert.Equal(t, 5, query.k)
	})

	t.Run("returns answer, citations and passages", func(t *testing.T) {
		query := &mockQueryService{result: &domain.QueryResult{
			Question: "who owned the land?",
			Answer:   "The zamindar held the land in 1892.",
			Retrieved: []domain.RetrievedChunk{
				{Chunk: domain.Chunk{ID: "c1", DocumentID: "DOC-1892-001", Position: 0, Content: "zamindar"}, Score: 0.7},
			},
			Citations: []domain.Citation{{DocumentID: "DOC-1892-001", Score: 0.7}},
			K:         1,
		}}
		server, err := newTestServer(&Ports{Query: query})
		require.NoError(t, err)

		_, output, err := server.handleQuery(ctx, nil, QueryInput{Question: "who owned the land?", K: 1000})

		require.NoError(t, err)
		assert.Equal(t, 1000, query.k)
		assert.Equal(t, 1, output.K)
		assert.Equal(t, "The zamindar held the land in 1892.", output.Answer)
		require.Len(t, output.Citations, 1)
		assert.Equal(t, "DOC-1892-001", output.Citations[0].DocumentID)
		require.Len(t, output.Passages, 1)
		assert.Equal(t, "c1", output.Passages[0].ChunkID)
	})

	t.Run("empty index", func(t *testing.T) {
		query := &mockQueryService{err: domain.ErrEmptyIndex}
		server, err := newTestServer(&Ports{Query: query})
		require.NoError(t, err)

		_, _, err = server.handleQuery(ctx, nil, QueryInput{Question: "anything"})
		assert.ErrorIs(t, err, domain.ErrEmptyIndex)
	})

	t.Run("unmapped error passes through", func(t *testing.T) {
		query := &mockQueryService{err: errors.New("boom")}
		server, err := newTestServer(&Ports{Query: query})
		require.NoError(t, err)

		_, _, err = server.handleQuery(ctx, nil, QueryInput{Question: "anything"})
		assert.EqualError(t, err, "boom")
	})
}

func TestServer_handleLanguages(t *testing.T) {
	ctx := context.Background()

	t.Run("without document service", func(t *testing.T) {
		server, err := newTestServer(&Ports{})
		require.NoError(t, err)

		_, output, err := server.handleLanguages(ctx, nil, LanguagesInput{})
		require.NoError(t, err)
		require.Len(t, output.Languages, 3)
		assert.Equal(t, "en", output.Languages[0].Code)
		assert.Equal(t, "தமிழ்", output.Languages[2].NativeName)
		assert.Zero(t, output.Languages[2].Documents)
	})

	t.Run("with stats", func(t *testing.T) {
		docs := &mockDocumentService{stats: map[domain.Language]int{
			domain.LanguageTamil:        4,
			domain.LanguageEnglish:      2,
			domain.LanguageUndetermined: 1,
		}}
		server, err := newTestServer(&Ports{Document: docs})
		require.NoError(t, err)

		_, output, err := server.handleLanguages(ctx, nil, LanguagesInput{})
		require.NoError(t, err)
		assert.Equal(t, 2, output.Languages[0].Documents)
		assert.Equal(t, 4, output.Languages[2].Documents)
		assert.Equal(t, 1, output.Undetermined)
	})

	t.Run("stats error", func(t *testing.T) {
		server, err := newTestServer(&Ports{Document: &mockDocumentService{err: errors.New("db locked")}})
		require.NoError(t, err)

		_, _, err = server.handleLanguages(ctx, nil, LanguagesInput{})
		assert.Error(t, err)
	})
}

func TestToolError(t *testing.T) {
	assert.NoError(t, toolError(nil))

	for _, sentinel := range []error{
		domain.ErrNotFound, domain.ErrInvalidInput, domain.ErrUnsupportedFormat,
		domain.ErrUnsupportedLanguagePair, domain.ErrDocumentNotExtracted, domain.ErrEmptyIndex,
		domain.ErrTimeout, domain.ErrIngestInProgress, domain.ErrLLMUnavailable,
	} {
		err := toolError(sentinel)
		assert.ErrorIs(t, err, sentinel)
		assert.NotEqual(t, sentinel.Error(), err.Error(), "%v should gain a hint", sentinel)
	}
}
