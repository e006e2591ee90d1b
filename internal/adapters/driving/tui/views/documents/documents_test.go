package documents

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/palimpsest/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/palimpsest/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/palimpsest/internal/core/domain"
	"github.com/custodia-labs/palimpsest/internal/core/ports/driving"
)

// MockDocumentService implements driving.DocumentService for testing.
type MockDocumentService struct {
	ListFunc   func(ctx context.Context) ([]domain.Summary, error)
	DeleteFunc func(ctx context.Context, documentID string) error
}

func (m *MockDocumentService) List(ctx context.Context) ([]domain.Summary, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return []domain.Summary{}, nil
}

func (m *MockDocumentService) Get(_ context.Context, _ string) (*domain.Document, error) {
	return nil, domain.ErrNotFound
}

func (m *MockDocumentService) GetContent(_ context.Context, _ string) (string, error) {
	return "", nil
}

func (m *MockDocumentService) Delete(ctx context.Context, documentID string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, documentID)
	}
	return nil
}

func (m *MockDocumentService) LanguageStats(_ context.Context) (map[domain.Language]int, error) {
	return map[domain.Language]int{}, nil
}

// MockIngestionService implements driving.IngestionService for testing.
type MockIngestionService struct {
	ReprocessFunc func(ctx context.Context, documentID string) error
}

func (m *MockIngestionService) Submit(_ context.Context, _ driving.Upload) (string, error) {
	return "", nil
}

func (m *MockIngestionService) Status(_ context.Context, id string) (*driving.StatusReport, error) {
	return &driving.StatusReport{DocumentID: id}, nil
}

func (m *MockIngestionService) Reprocess(ctx context.Context, documentID string) error {
	if m.ReprocessFunc != nil {
		return m.ReprocessFunc(ctx, documentID)
	}
	return nil
}

func (m *MockIngestionService) Wait(_ context.Context, id string) (*driving.StatusReport, error) {
	return &driving.StatusReport{DocumentID: id}, nil
}

func testSummaries() []domain.Summary {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return []domain.Summary{
		{ID: "DOC-1892-001", Filename: "deed.tiff", Status: domain.StatusIndexed, Language: domain.LanguageTamil, Confidence: 0.91, CreatedAt: now},
		{ID: "DOC-1892-002", Filename: "letter.pdf", Status: domain.StatusDetected, Language: domain.LanguageEnglish, CreatedAt: now},
		{ID: "DOC-1892-003", Filename: "map.png", Status: domain.StatusFailed, CreatedAt: now},
	}
}

func newLoadedView(t *testing.T, docs []domain.Summary) *View {
	t.Helper()
	v := NewView(styles.DefaultStyles(), &MockDocumentService{}, &MockIngestionService{})
	v.SetDimensions(100, 30)
	v, _ = v.Update(messages.DocumentsLoaded{Documents: docs})
	return v
}

func TestNewView(t *testing.T) {
	v := NewView(styles.DefaultStyles(), &MockDocumentService{}, &MockIngestionService{})

	require.NotNil(t, v)
	assert.Empty(t, v.Documents())
	assert.Equal(t, 0, v.SelectedIndex())
	assert.Nil(t, v.SelectedDocument())
	assert.False(t, v.IsShowingMenu())
	assert.NoError(t, v.Err())
}

func TestView_Init_LoadsDocuments(t *testing.T) {
	docs := testSummaries()
	v := NewView(styles.DefaultStyles(), &MockDocumentService{
		ListFunc: func(_ context.Context) ([]domain.Summary, error) { return docs, nil },
	}, nil)

	cmd := v.Init()
	require.NotNil(t, cmd)

	msg := v.loadDocuments()()
	loaded, ok := msg.(messages.DocumentsLoaded)
	require.True(t, ok)
	assert.Len(t, loaded.Documents, 3)
}

func TestView_LoadDocuments_NoService(t *testing.T) {
	v := NewView(styles.DefaultStyles(), nil, nil)
	msg := v.loadDocuments()()
	loaded, ok := msg.(messages.DocumentsLoaded)
	require.True(t, ok)
	assert.Error(t, loaded.Err)
}

func TestView_DocumentsLoaded(t *testing.T) {
	t.Run("in-flight documents schedule a refresh", func(t *testing.T) {
		v := NewView(styles.DefaultStyles(), &MockDocumentService{}, nil)
		v, cmd := v.Update(messages.DocumentsLoaded{Documents: testSummaries()})

		assert.Len(t, v.Documents(), 3)
		assert.Equal(t, 1, v.InFlight())
		assert.NotNil(t, cmd)
	})

	t.Run("settled documents do not poll", func(t *testing.T) {
		docs := testSummaries()
		docs[1].Status = domain.StatusIndexed
		v := NewView(styles.DefaultStyles(), &MockDocumentService{}, nil)
		_, cmd := v.Update(messages.DocumentsLoaded{Documents: docs})
		assert.Nil(t, cmd)
	})

	t.Run("only one refresh is pending", func(t *testing.T) {
		v := NewView(styles.DefaultStyles(), &MockDocumentService{}, nil)
		_, first := v.Update(messages.DocumentsLoaded{Documents: testSummaries()})
		_, second := v.Update(messages.DocumentsLoaded{Documents: testSummaries()})
		assert.NotNil(t, first)
		assert.Nil(t, second)

		_, reload := v.Update(messages.RefreshTick{At: time.Now()})
		assert.NotNil(t, reload)
	})

	t.Run("error is kept", func(t *testing.T) {
		v := NewView(styles.DefaultStyles(), &MockDocumentService{}, nil)
		v, _ = v.Update(messages.DocumentsLoaded{Err: errors.New("database locked")})
		assert.EqualError(t, v.Err(), "database locked")
		assert.Contains(t, v.View(), "database locked")
	})

	t.Run("selection clamps when list shrinks", func(t *testing.T) {
		v := newLoadedView(t, testSummaries())
		v.Update(tea.KeyMsg{Type: tea.KeyDown})
		v.Update(tea.KeyMsg{Type: tea.KeyDown})
		assert.Equal(t, 2, v.SelectedIndex())

		v.Update(messages.DocumentsLoaded{Documents: testSummaries()[:1]})
		assert.Equal(t, 0, v.SelectedIndex())
	})
}

func TestView_Navigation(t *testing.T) {
	v := newLoadedView(t, testSummaries())

	v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	assert.Equal(t, 1, v.SelectedIndex())
	v.Update(tea.KeyMsg{Type: tea.KeyDown})
	v.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 2, v.SelectedIndex())
	v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}})
	assert.Equal(t, 1, v.SelectedIndex())
	assert.Equal(t, "DOC-1892-002", v.SelectedDocument().ID)

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewMenu}, cmd())
}

func TestView_ActionMenu(t *testing.T) {
	t.Run("show status", func(t *testing.T) {
		v := newLoadedView(t, testSummaries())
		v.Update(tea.KeyMsg{Type: tea.KeyEnter})
		require.True(t, v.IsShowingMenu())

		_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
		require.NotNil(t, cmd)
		selected, ok := cmd().(messages.DocumentSelected)
		require.True(t, ok)
		assert.Equal(t, "DOC-1892-001", selected.Document.ID)
		assert.False(t, v.IsShowingMenu())
	})

	t.Run("show text", func(t *testing.T) {
		v := newLoadedView(t, testSummaries())
		v.Update(tea.KeyMsg{Type: tea.KeyEnter})
		v.Update(tea.KeyMsg{Type: tea.KeyDown})
		_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
		require.NotNil(t, cmd)
		_, ok := cmd().(messages.ContentRequested)
		assert.True(t, ok)
	})

	t.Run("reprocess", func(t *testing.T) {
		var got string
		v := NewView(styles.DefaultStyles(), &MockDocumentService{}, &MockIngestionService{
			ReprocessFunc: func(_ context.Context, id string) error { got = id; return nil },
		})
		v.Update(messages.DocumentsLoaded{Documents: testSummaries()})
		v.Update(tea.KeyMsg{Type: tea.KeyDown})
		v.Update(tea.KeyMsg{Type: tea.KeyDown})
		v.Update(tea.KeyMsg{Type: tea.KeyEnter})
		v.Update(tea.KeyMsg{Type: tea.KeyDown})
		v.Update(tea.KeyMsg{Type: tea.KeyDown})
		_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
		require.NotNil(t, cmd)

		msg, ok := cmd().(messages.DocumentReprocessed)
		require.True(t, ok)
		assert.NoError(t, msg.Err)
		assert.Equal(t, "DOC-1892-003", got)
	})

	t.Run("delete", func(t *testing.T) {
		var got string
		v := NewView(styles.DefaultStyles(), &MockDocumentService{
			DeleteFunc: func(_ context.Context, id string) error { got = id; return nil },
		}, nil)
		v.Update(messages.DocumentsLoaded{Documents: testSummaries()})
		v.Update(tea.KeyMsg{Type: tea.KeyEnter})
		for i := 0; i < 3; i++ {
			v.Update(tea.KeyMsg{Type: tea.KeyDown})
		}
		_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
		require.NotNil(t, cmd)
		_, ok := cmd().(messages.DocumentDeleted)
		assert.True(t, ok)
		assert.Equal(t, "DOC-1892-001", got)
	})

	t.Run("escape closes menu", func(t *testing.T) {
		v := newLoadedView(t, testSummaries())
		v.Update(tea.KeyMsg{Type: tea.KeyEnter})
		v.Update(tea.KeyMsg{Type: tea.KeyEsc})
		assert.False(t, v.IsShowingMenu())
	})

	t.Run("empty list has no menu", func(t *testing.T) {
		v := newLoadedView(t, nil)
		v.Update(tea.KeyMsg{Type: tea.KeyEnter})
		assert.False(t, v.IsShowingMenu())
	})
}

func TestView_ActionResults(t *testing.T) {
	t.Run("reprocess reloads", func(t *testing.T) {
		v := newLoadedView(t, testSummaries())
		_, cmd := v.Update(messages.DocumentReprocessed{DocumentID: "DOC-1892-003"})
		assert.NotNil(t, cmd)
		assert.Contains(t, v.View(), "Reprocessing DOC-1892-003")
	})

	t.Run("reprocess error is shown", func(t *testing.T) {
		v := newLoadedView(t, testSummaries())
		_, cmd := v.Update(messages.DocumentReprocessed{DocumentID: "DOC-1892-003", Err: domain.ErrIngestInProgress})
		assert.Nil(t, cmd)
		assert.ErrorIs(t, v.Err(), domain.ErrIngestInProgress)
	})

	t.Run("delete reloads", func(t *testing.T) {
		v := newLoadedView(t, testSummaries())
		_, cmd := v.Update(messages.DocumentDeleted{DocumentID: "DOC-1892-001"})
		assert.NotNil(t, cmd)
	})
}

func TestView_Spinner(t *testing.T) {
	v := newLoadedView(t, testSummaries())
	_, cmd := v.Update(spinner.TickMsg{})
	assert.NotNil(t, cmd)
}

func TestView_Render(t *testing.T) {
	v := newLoadedView(t, testSummaries())
	out := v.View()

	assert.Contains(t, out, "Documents (3)")
	assert.Contains(t, out, "1 indexed")
	assert.Contains(t, out, "1 in progress")
	assert.Contains(t, out, "1 failed")
	assert.Contains(t, out, "DOC-1892-001")
	assert.Contains(t, out, "deed.tiff")
	assert.Contains(t, out, "ta 0.91")

	v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	menu := v.View()
	assert.Contains(t, menu, "Actions for: DOC-1892-001")
	assert.Contains(t, menu, "Reprocess")
	assert.Contains(t, menu, "Delete")
}

func TestView_RenderEmpty(t *testing.T) {
	v := newLoadedView(t, nil)
	assert.Contains(t, v.View(), "No documents yet")
}
