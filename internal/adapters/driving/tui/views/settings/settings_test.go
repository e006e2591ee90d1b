package settings

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/palimpsest/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/palimpsest/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/palimpsest/internal/core/domain"
)

// MockSettingsService implements driving.SettingsService for testing.
type MockSettingsService struct {
	settings domain.AppSettings
	setErr   error
	getErr   error
	sets     map[string]string
}

func newMockSettings() *MockSettingsService {
	return &MockSettingsService{settings: domain.DefaultAppSettings(), sets: map[string]string{}}
}

func (m *MockSettingsService) Get() (*domain.AppSettings, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	s := m.settings
	return &s, nil
}

func (m *MockSettingsService) Save(s *domain.AppSettings) error {
	m.settings = *s
	return nil
}

func (m *MockSettingsService) Set(key, value string) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.sets[key] = value
	if key == domain.SettingChunkSize {
		m.settings.Chunking.ChunkSize = 800
	}
	return nil
}

func (m *MockSettingsService) Keys() []string {
	return []string{domain.SettingEmbedProvider, domain.SettingEmbedAPIKey, domain.SettingChunkSize, domain.SettingMinRelevance}
}

func (m *MockSettingsService) Validate() error                               { return nil }
func (m *MockSettingsService) GetDefaults() domain.AppSettings               { return domain.DefaultAppSettings() }
func (m *MockSettingsService) ValidateEmbeddingConfig(context.Context) error { return nil }
func (m *MockSettingsService) ValidateLLMConfig(context.Context) error       { return nil }

func loadedView(t *testing.T, svc *MockSettingsService) *View {
	t.Helper()
	v := NewView(styles.DefaultStyles(), svc)
	v, _ = v.Update(v.Init()())
	return v
}

func key(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestNewView(t *testing.T) {
	v := NewView(nil, newMockSettings())

	require.NotNil(t, v)
	assert.Equal(t, domain.SettingEmbedProvider, v.SelectedKey())
	assert.Contains(t, v.View(), "Loading settings...")
}

func TestView_NoService(t *testing.T) {
	v := NewView(nil, nil)
	assert.Empty(t, v.SelectedKey())

	v, _ = v.Update(v.Init()())
	assert.ErrorIs(t, v.Err(), ErrNoSettingsService)
}

func TestView_LoadError(t *testing.T) {
	svc := newMockSettings()
	svc.getErr = errors.New("config unreadable")

	v := loadedView(t, svc)
	assert.EqualError(t, v.Err(), "config unreadable")
	assert.Contains(t, v.View(), "config unreadable")
}

func TestView_Render(t *testing.T) {
	svc := newMockSettings()
	svc.settings.Embedding.APIKey = "AIzaSyExampleKey1234"
	v := loadedView(t, svc)

	out := v.View()
	assert.Contains(t, out, "embedding")
	assert.Contains(t, out, "chunking")
	assert.Contains(t, out, "retrieval")
	assert.Contains(t, out, "local")
	assert.Contains(t, out, "AIza...1234")
	assert.NotContains(t, out, "AIzaSyExampleKey1234")
	assert.Contains(t, out, "0.2")
}

func TestView_Navigation(t *testing.T) {
	v := loadedView(t, newMockSettings())

	v.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, domain.SettingEmbedProvider, v.SelectedKey())

	for i := 0; i < 10; i++ {
		v.Update(tea.KeyMsg{Type: tea.KeyDown})
	}
	assert.Equal(t, domain.SettingMinRelevance, v.SelectedKey())

	v.Update(key('k'))
	assert.Equal(t, domain.SettingChunkSize, v.SelectedKey())
}

func TestView_EditAndSave(t *testing.T) {
	svc := newMockSettings()
	v := loadedView(t, svc)
	v.Update(tea.KeyMsg{Type: tea.KeyDown})
	v.Update(tea.KeyMsg{Type: tea.KeyDown})
	require.Equal(t, domain.SettingChunkSize, v.SelectedKey())

	v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.True(t, v.Editing())
	assert.Equal(t, "500", v.input.Value(), "input starts from the current value")

	v.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	v.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	v.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	for _, r := range "800" {
		v.Update(key(r))
	}

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.False(t, v.Editing())

	saved, ok := cmd().(messages.SettingsSaved)
	require.True(t, ok)
	require.NoError(t, saved.Err)
	assert.Equal(t, "800", svc.sets[domain.SettingChunkSize])

	_, reload := v.Update(saved)
	require.NotNil(t, reload)
	v.Update(reload())
	assert.Equal(t, 800, v.Settings().Chunking.ChunkSize)
	assert.Contains(t, v.View(), "Saved chunking.chunk_size")
}

func TestView_EditSecretStartsEmpty(t *testing.T) {
	svc := newMockSettings()
	svc.settings.Embedding.APIKey = "secret-key-value"
	v := loadedView(t, svc)
	v.Update(tea.KeyMsg{Type: tea.KeyDown})

	v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.True(t, v.Editing())
	assert.Empty(t, v.input.Value())
}

func TestView_EditCancel(t *testing.T) {
	svc := newMockSettings()
	v := loadedView(t, svc)

	v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEsc})

	assert.Nil(t, cmd, "escape while editing does not leave the view")
	assert.False(t, v.Editing())
	assert.Empty(t, svc.sets)
}

func TestView_SaveError(t *testing.T) {
	svc := newMockSettings()
	svc.setErr = domain.ErrInvalidInput
	v := loadedView(t, svc)

	v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	v.Update(cmd())

	assert.ErrorIs(t, v.Err(), domain.ErrInvalidInput)
}

func TestView_EscapeReturnsToMenu(t *testing.T) {
	v := loadedView(t, newMockSettings())

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewMenu}, cmd())
}

func TestDisplayValue(t *testing.T) {
	assert.Equal(t, "(not set)", displayValue("llm.model", ""))
	assert.Equal(t, "claude", displayValue("llm.model", "claude"))
	assert.Equal(t, "****", displayValue("llm.api_key", "short"))
	assert.Equal(t, "sk-a...wxyz", displayValue("llm.api_key", "sk-ant-abcdwxyz"))
}
