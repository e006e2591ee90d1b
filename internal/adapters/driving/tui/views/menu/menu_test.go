package menu

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/palimpsest/internal/adapters/driving/tui/messages"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func openedView(t *testing.T, cmd tea.Cmd) messages.ViewType {
	t.Helper()
	require.NotNil(t, cmd)
	changed, ok := cmd().(messages.ViewChanged)
	require.True(t, ok)
	return changed.View
}

func TestNewView(t *testing.T) {
	view := NewView(nil)

	require.NotNil(t, view.styles)
	require.Len(t, view.items, 5)
	assert.Nil(t, view.Init())
	assert.Equal(t, 0, view.Selected())

	shortcuts := map[string]bool{}
	for _, item := range view.items {
		assert.False(t, shortcuts[item.Shortcut], "duplicate shortcut %q", item.Shortcut)
		shortcuts[item.Shortcut] = true
	}
	assert.True(t, view.items[4].Quit)
}

func TestView_Navigate(t *testing.T) {
	view := NewView(nil)

	view.Update(tea.KeyMsg{Type: tea.KeyDown})
	view.Update(runes("j"))
	assert.Equal(t, 2, view.Selected())

	for range 5 {
		view.Update(runes("j"))
	}
	assert.Equal(t, 4, view.Selected(), "stops at the last item")

	view.Update(tea.KeyMsg{Type: tea.KeyUp})
	view.Update(runes("k"))
	assert.Equal(t, 2, view.Selected())

	for range 5 {
		view.Update(runes("k"))
	}
	assert.Equal(t, 0, view.Selected(), "stops at the first item")
}

func TestView_EnterOpensSelection(t *testing.T) {
	tests := []struct {
		selected int
		want     messages.ViewType
	}{
		{0, messages.ViewDocuments},
		{1, messages.ViewAsk},
		{2, messages.ViewSettings},
		{3, messages.ViewHelp},
	}

	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			view := NewView(nil)
			view.selected = tt.selected

			_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEnter})

			assert.Equal(t, tt.want, openedView(t, cmd))
		})
	}
}

func TestView_Shortcuts(t *testing.T) {
	view := NewView(nil)

	_, cmd := view.Update(runes("a"))
	assert.Equal(t, messages.ViewAsk, openedView(t, cmd))
	assert.Equal(t, 1, view.Selected())

	_, cmd = view.Update(runes("?"))
	assert.Equal(t, messages.ViewHelp, openedView(t, cmd))

	_, cmd = view.Update(runes("x"))
	assert.Nil(t, cmd)
}

func TestView_Quit(t *testing.T) {
	view := NewView(nil)

	_, cmd := view.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	view.selected = 4
	_, cmd = view.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestView_View(t *testing.T) {
	view := NewView(nil)
	assert.Contains(t, view.View(), "Initialising")

	view.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	out := view.View()

	assert.Contains(t, out, "Multilingual Archive Pipeline")
	assert.Contains(t, out, "[d] Documents")
	assert.Contains(t, out, "Hindi or Tamil")
	assert.Contains(t, out, "> ")
	assert.Contains(t, out, "[q] quit")
}

func TestView_NarrowHidesDescriptions(t *testing.T) {
	view := NewView(nil)
	view.SetDimensions(40, 20)

	out := view.View()

	assert.Contains(t, out, "Settings")
	assert.NotContains(t, out, "thresholds")
}
