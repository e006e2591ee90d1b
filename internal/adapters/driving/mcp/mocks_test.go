package mcp

import (
	"context"

	"github.com/custodia-labs/palimpsest/internal/core/domain"
	"github.com/custodia-labs/palimpsest/internal/core/ports/driving"
)

// mockIngestionService is a mock implementation of driving.IngestionService.
type mockIngestionService struct {
	id       string
	report   *driving.StatusReport
	err      error
	received driving.Upload
}

func (m *mockIngestionService) Submit(_ context.Context, upload driving.Upload) (string, error) {
	m.received = upload
	return m.id, m.err
}

func (m *mockIngestionService) Status(_ context.Context, _ string) (*driving.StatusReport, error) {
	return m.report, m.err
}

func (m *mockIngestionService) Reprocess(_ context.Context, _ string) error {
	return m.err
}

func (m *mockIngestionService) Wait(_ context.Context, _ string) (*driving.StatusReport, error) {
	return m.report, m.err
}

// mockQueryService is a mock implementation of driving.QueryService.
type mockQueryService struct {
	result *domain.QueryResult
	err    error
	k      int
}

func (m *mockQueryService) Query(_ context.Context, _ string, k int) (*domain.QueryResult, error) {
	m.k = k
	return m.result, m.err
}

// mockTranslationService is a mock implementation of driving.TranslationService.
type mockTranslationService struct {
	result *domain.TranslationResult
	err    error

	lastText     string
	lastDocument string
	lastSource   domain.Language
	lastTarget   domain.Language
}

func (m *mockTranslationService) Translate(
	_ context.Context, text string, source, target domain.Language,
) (*domain.TranslationResult, error) {
	m.lastText, m.lastSource, m.lastTarget = text, source, target
	return m.result, m.err
}

func (m *mockTranslationService) TranslateDocument(
	_ context.Context, documentID string, source, target domain.Language,
) (*domain.TranslationResult, error) {
	m.lastDocument, m.lastSource, m.lastTarget = documentID, source, target
	return m.result, m.err
}

func (m *mockTranslationService) TranslateBatch(
	_ context.Context, texts []string, _, _ domain.Language,
) []driving.BatchTranslation {
	out := make([]driving.BatchTranslation, len(texts))
	for i := range texts {
		out[i] = driving.BatchTranslation{Index: i, Result: m.result, Err: m.err}
	}
	return out
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	summaries []domain.Summary
	document  *domain.Document
	content   string
	stats     map[domain.Language]int
	err       error
}

func (m *mockDocumentService) List(_ context.Context) ([]domain.Summary, error) {
	return m.summaries, m.err
}

func (m *mockDocumentService) Get(_ context.Context, _ string) (*domain.Document, error) {
	return m.document, m.err
}

func (m *mockDocumentService) GetContent(_ context.Context, _ string) (string, error) {
	return m.content, m.err
}

func (m *mockDocumentService) Delete(_ context.Context, _ string) error {
	return m.err
}

func (m *mockDocumentService) LanguageStats(_ context.Context) (map[domain.Language]int, error) {
	return m.stats, m.err
}

// newTestServer builds a server with required ports filled by mocks.
func newTestServer(p *Ports) (*Server, error) {
	if p.Ingestion == nil {
		p.Ingestion = &mockIngestionService{}
	}
	if p.Query == nil {
		p.Query = &mockQueryService{}
	}
	return NewServer(p)
}
