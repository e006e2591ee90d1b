package list

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/palimpsest/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/palimpsest/internal/core/domain"
)

func samplePassages() []domain.RetrievedChunk {
	return []domain.RetrievedChunk{
		{Chunk: domain.Chunk{DocumentID: "DOC-1892-001", Position: 0, Content: "The land at Madurai\nwas granted in 1892."}, Score: 0.91},
		{Chunk: domain.Chunk{DocumentID: "DOC-1892-002", Position: 3, Content: "நில உரிமை பத்திரம்"}, Score: 0.74},
		{Chunk: domain.Chunk{DocumentID: "DOC-1901-004", Position: 1, Content: "भूमि का पट्टा"}, Score: 0.52},
	}
}

func TestNewPassageList(t *testing.T) {
	list := NewPassageList(styles.DefaultStyles())

	require.NotNil(t, list)
	assert.Equal(t, 0, list.Selected())
	assert.True(t, list.IsEmpty())
	assert.Nil(t, list.Init())
}

func TestNewPassageList_NilStyles(t *testing.T) {
	list := NewPassageList(nil)

	require.NotNil(t, list)
	assert.NotNil(t, list.styles)
}

func TestPassageList_SetPassages(t *testing.T) {
	list := NewPassageList(nil)
	list.SetPassages(samplePassages())
	list.SetSelected(2)

	list.SetPassages(samplePassages()[:2])

	assert.Equal(t, 2, list.Count())
	assert.Equal(t, 0, list.Selected(), "selection resets")
	assert.Len(t, list.Passages(), 2)
}

func TestPassageList_SetSelected(t *testing.T) {
	list := NewPassageList(nil)
	list.SetPassages(samplePassages())

	list.SetSelected(1)
	assert.Equal(t, 1, list.Selected())

	list.SetSelected(10)
	assert.Equal(t, 1, list.Selected())

	list.SetSelected(-1)
	assert.Equal(t, 1, list.Selected())
}

func TestPassageList_SelectedPassage(t *testing.T) {
	list := NewPassageList(nil)
	assert.Nil(t, list.SelectedPassage())

	list.SetPassages(samplePassages())
	list.SetSelected(1)

	p := list.SelectedPassage()
	require.NotNil(t, p)
	assert.Equal(t, "DOC-1892-002", p.Chunk.DocumentID)
}

func TestPassageList_Navigation(t *testing.T) {
	list := NewPassageList(nil)
	list.SetPassages(samplePassages())

	list.MoveUp()
	assert.Equal(t, 0, list.Selected())

	list.Update(tea.KeyMsg{Type: tea.KeyDown})
	list.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	list.MoveDown()
	assert.Equal(t, 2, list.Selected())

	list.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 1, list.Selected())
	list.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}})
	assert.Equal(t, 0, list.Selected())
}

func TestPassageList_View(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		assert.Contains(t, NewPassageList(nil).View(), "No passages")
	})

	t.Run("with passages", func(t *testing.T) {
		list := NewPassageList(nil)
		list.SetDimensions(80, 20)
		list.SetPassages(samplePassages())

		view := list.View()
		assert.Contains(t, view, "Passages (3)")
		assert.Contains(t, view, "> DOC-1892-001 #0")
		assert.Contains(t, view, "0.91")
		assert.Contains(t, view, "The land at Madurai was granted in 1892.")
		assert.Contains(t, view, "நில உரிமை பத்திரம்")
	})

	t.Run("scrolls to keep selection visible", func(t *testing.T) {
		list := NewPassageList(nil)
		list.SetDimensions(80, 4)
		list.SetPassages(samplePassages())
		list.SetSelected(2)

		view := list.View()
		assert.Contains(t, view, "DOC-1901-004")
		assert.NotContains(t, view, "DOC-1892-001")
	})
}

func TestPassageList_SetDimensions(t *testing.T) {
	list := NewPassageList(nil)
	list.SetDimensions(120, 30)

	assert.Equal(t, 120, list.Width())
	assert.Equal(t, 30, list.Height())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abcdefg...", Truncate(strings.Repeat("abcdefghij", 3), 10))
	assert.Equal(t, "நிலம்", Truncate("நிலம்", 5))
	assert.Equal(t, "ab", Truncate("abcdef", 2))

	cut := Truncate(strings.Repeat("ந", 40), 20)
	assert.Len(t, []rune(cut), 20)
	assert.True(t, strings.HasSuffix(cut, "..."))
}
