package cli

import (
	"bytes"
	"context"
	"sync"

	"github.com/custodia-labs/palimpsest/internal/connectors/filesystem"
	"github.com/custodia-labs/palimpsest/internal/core/domain"
	"github.com/custodia-labs/palimpsest/internal/core/ports/driving"
)

// MockIngestionService implements driving.IngestionService for testing.
type MockIngestionService struct {
	mu        sync.Mutex
	submitted []driving.Upload
	reprocess []string

	SubmitFunc    func(ctx context.Context, upload driving.Upload) (string, error)
	StatusFunc    func(ctx context.Context, id string) (*driving.StatusReport, error)
	ReprocessFunc func(ctx context.Context, id string) error
	WaitFunc      func(ctx context.Context, id string) (*driving.StatusReport, error)
}

func (m *MockIngestionService) Submit(ctx context.Context, upload driving.Upload) (string, error) {
	m.mu.Lock()
	m.submitted = append(m.submitted, upload)
	n := len(m.submitted)
	m.mu.Unlock()

	if m.SubmitFunc != nil {
		return m.SubmitFunc(ctx, upload)
	}
	return domain.FormatDocumentID(1892, n), nil
}

func (m *MockIngestionService) Status(ctx context.Context, id string) (*driving.StatusReport, error) {
	if m.StatusFunc != nil {
		return m.StatusFunc(ctx, id)
	}
	return &driving.StatusReport{DocumentID: id, Status: domain.StatusUploaded}, nil
}

func (m *MockIngestionService) Reprocess(ctx context.Context, id string) error {
	m.mu.Lock()
	m.reprocess = append(m.reprocess, id)
	m.mu.Unlock()

	if m.ReprocessFunc != nil {
		return m.ReprocessFunc(ctx, id)
	}
	return nil
}

func (m *MockIngestionService) Wait(ctx context.Context, id string) (*driving.StatusReport, error) {
	if m.WaitFunc != nil {
		return m.WaitFunc(ctx, id)
	}
	return &driving.StatusReport{DocumentID: id, Status: domain.StatusIndexed}, nil
}

func (m *MockIngestionService) Submitted() []driving.Upload {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]driving.Upload(nil), m.submitted...)
}

func (m *MockIngestionService) Reprocessed() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.reprocess...)
}

// MockDocumentService implements driving.DocumentService for testing.
type MockDocumentService struct {
	ListFunc          func(ctx context.Context) ([]domain.Summary, error)
	GetFunc           func(ctx context.Context, id string) (*domain.Document, error)
	GetContentFunc    func(ctx context.Context, id string) (string, error)
	DeleteFunc        func(ctx context.Context, id string) error
	LanguageStatsFunc func(ctx context.Context) (map[domain.Language]int, error)
}

func (m *MockDocumentService) List(ctx context.Context) ([]domain.Summary, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return nil, nil
}

func (m *MockDocumentService) Get(ctx context.Context, id string) (*domain.Document, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *MockDocumentService) GetContent(ctx context.Context, id string) (string, error) {
	if m.GetContentFunc != nil {
		return m.GetContentFunc(ctx, id)
	}
	return "", domain.ErrNotFound
}

func (m *MockDocumentService) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockDocumentService) LanguageStats(ctx context.Context) (map[domain.Language]int, error) {
	if m.LanguageStatsFunc != nil {
		return m.LanguageStatsFunc(ctx)
	}
	return map[domain.Language]int{}, nil
}

// MockTranslationService implements driving.TranslationService for testing.
type MockTranslationService struct {
	TranslateFunc         func(ctx context.Context, text string, source, target domain.Language) (*domain.TranslationResult, error)
	TranslateDocumentFunc func(ctx context.Context, id string, source, target domain.Language) (*domain.TranslationResult, error)
	TranslateBatchFunc    func(ctx context.Context, texts []string, source, target domain.Language) []driving.BatchTranslation
}

func (m *MockTranslationService) Translate(
	ctx context.Context, text string, source, target domain.Language,
) (*domain.TranslationResult, error) {
	if m.TranslateFunc != nil {
		return m.TranslateFunc(ctx, text, source, target)
	}
	return &domain.TranslationResult{Text: text, Source: source, Target: target}, nil
}

func (m *MockTranslationService) TranslateDocument(
	ctx context.Context, id string, source, target domain.Language,
) (*domain.TranslationResult, error) {
	if m.TranslateDocumentFunc != nil {
		return m.TranslateDocumentFunc(ctx, id, source, target)
	}
	return nil, domain.ErrNotFound
}

func (m *MockTranslationService) TranslateBatch(
	ctx context.Context, texts []string, source, target domain.Language,
) []driving.BatchTranslation {
	if m.TranslateBatchFunc != nil {
		return m.TranslateBatchFunc(ctx, texts, source, target)
	}
	out := make([]driving.BatchTranslation, len(texts))
	for i, text := range texts {
		out[i] = driving.BatchTranslation{
			Index:  i,
			Result: &domain.TranslationResult{Text: text, Source: source, Target: target},
		}
	}
	return out
}

// MockQueryService implements driving.QueryService for testing.
type MockQueryService struct {
	QueryFunc func(ctx context.Context, question string, k int) (*domain.QueryResult, error)
}

func (m *MockQueryService) Query(ctx context.Context, question string, k int) (*domain.QueryResult, error) {
	if m.QueryFunc != nil {
		return m.QueryFunc(ctx, question, k)
	}
	return &domain.QueryResult{Question: question, K: k}, nil
}

// MockSettingsService implements driving.SettingsService for testing.
type MockSettingsService struct {
	settings domain.AppSettings
	sets     map[string]string

	SetFunc      func(key, value string) error
	ValidateFunc func() error
}

func newMockSettingsService() *MockSettingsService {
	return &MockSettingsService{settings: domain.DefaultAppSettings(), sets: map[string]string{}}
}

func (m *MockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *MockSettingsService) Save(settings *domain.AppSettings) error {
	m.settings = *settings
	return nil
}

func (m *MockSettingsService) Set(key, value string) error {
	if m.SetFunc != nil {
		if err := m.SetFunc(key, value); err != nil {
			return err
		}
	}
	m.sets[key] = value
	return nil
}

func (m *MockSettingsService) Keys() []string {
	return []string{domain.SettingEmbedProvider, domain.SettingLLMAPIKey, domain.SettingWorkers}
}

func (m *MockSettingsService) Validate() error {
	if m.ValidateFunc != nil {
		return m.ValidateFunc()
	}
	return nil
}

func (m *MockSettingsService) GetDefaults() domain.AppSettings               { return domain.DefaultAppSettings() }
func (m *MockSettingsService) ValidateEmbeddingConfig(context.Context) error { return nil }
func (m *MockSettingsService) ValidateLLMConfig(context.Context) error       { return nil }

// MockRecoveryService implements driving.RecoveryService for testing.
type MockRecoveryService struct {
	calls   int
	Resumed []string
	Err     error
}

func (m *MockRecoveryService) ResumeInterrupted(context.Context) ([]string, error) {
	m.calls++
	return m.Resumed, m.Err
}

// MockActionService implements driving.ActionService for testing.
type MockActionService struct {
	Copied   []string
	Exported map[string]string
	Err      error
}

func (m *MockActionService) CopyContent(_ context.Context, id string) error {
	if m.Err != nil {
		return m.Err
	}
	m.Copied = append(m.Copied, id)
	return nil
}

func (m *MockActionService) ExportOriginal(_ context.Context, id, dir string) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	if m.Exported == nil {
		m.Exported = map[string]string{}
	}
	m.Exported[id] = dir
	return dir + "/" + id + ".png", nil
}

func (m *MockActionService) OpenOriginal(_ context.Context, id string) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	return "/tmp/palimpsest/" + id + ".png", nil
}

// testServices holds the mocks installed by setupTestServices.
type testServices struct {
	Ingestion   *MockIngestionService
	Document    *MockDocumentService
	Translation *MockTranslationService
	Query       *MockQueryService
	Settings    *MockSettingsService
	Recovery    *MockRecoveryService
	Actions     *MockActionService
}

// setupTestServices installs fresh mocks and resets every flag. The returned
// function restores the previous services.
func setupTestServices() (*testServices, func()) {
	origIngestion := ingestionService
	origDocument := documentService
	origTranslation := translationService
	origQuery := queryService
	origSettings := settingsService
	origRecovery := recoveryService
	origActions := actionService

	mocks := &testServices{
		Ingestion:   &MockIngestionService{},
		Document:    &MockDocumentService{},
		Translation: &MockTranslationService{},
		Query:       &MockQueryService{},
		Settings:    newMockSettingsService(),
		Recovery:    &MockRecoveryService{},
		Actions:     &MockActionService{},
	}
	SetServices(Services{
		Ingestion:   mocks.Ingestion,
		Document:    mocks.Document,
		Translation: mocks.Translation,
		Query:       mocks.Query,
		Settings:    mocks.Settings,
		Recovery:    mocks.Recovery,
		Actions:     mocks.Actions,
	})
	resetFlags()

	return mocks, func() {
		ingestionService = origIngestion
		documentService = origDocument
		translationService = origTranslation
		queryService = origQuery
		settingsService = origSettings
		recoveryService = origRecovery
		actionService = origActions
		resetFlags()
	}
}

func resetFlags() {
	documentJSON = false
	reprocessWait = false
	ingestWait = false
	ingestMIME = ""
	statusJSON = false
	statusWatch = false
	statusWait = false
	translateDoc = ""
	translateFrom = "auto"
	translateTo = ""
	translateJSON = false
	askK = domain.DefaultK
	askJSON = false
	watchExisting = false
	watchSettle = filesystem.DefaultSettle
	mcpHTTPAddr = ""
	tuiWatchDir = ""
}

// execute runs the root command with args and returns its output.
func execute(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}
