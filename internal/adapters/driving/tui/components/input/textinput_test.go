package input

import (
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func typeText(in *QuestionInput, text string) {
	for _, r := range text {
		in.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func TestNewQuestionInput(t *testing.T) {
	in := NewQuestionInput(nil)

	require.NotNil(t, in.styles)
	assert.True(t, in.Focused())
	assert.Empty(t, in.Value())
	assert.Equal(t, 50, in.Width())
	assert.NotNil(t, in.Init())
	assert.Contains(t, in.View(), "Ask")
}

func TestQuestionInput_Typing(t *testing.T) {
	in := NewQuestionInput(nil)

	typeText(in, "நிலம்")
	assert.Equal(t, "நிலம்", in.Value())

	in.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	assert.Equal(t, "நிலம", in.Value())
}

func TestQuestionInput_CharLimit(t *testing.T) {
	in := NewQuestionInput(nil)

	in.SetValue(strings.Repeat("a", MaxQuestionRunes+10))

	assert.Len(t, []rune(in.Value()), MaxQuestionRunes)
}

func TestQuestionInput_FocusAndBlur(t *testing.T) {
	in := NewQuestionInput(nil)

	in.Blur()
	assert.False(t, in.Focused())
	typeText(in, "x")
	assert.Empty(t, in.Value(), "blurred input ignores keys")

	assert.NotNil(t, in.Focus())
	assert.True(t, in.Focused())
}

func TestQuestionInput_SetWidth(t *testing.T) {
	in := NewQuestionInput(nil)

	in.SetWidth(100)
	assert.Equal(t, 100, in.Width())
	assert.Equal(t, 90, in.textinput.Width)

	in.SetWidth(10)
	assert.Equal(t, minInputWidth, in.textinput.Width)
}

func TestQuestionInput_HistoryRecall(t *testing.T) {
	in := NewQuestionInput(nil)
	in.Remember("who owned the land in 1892?")
	in.Remember("  ")
	in.Remember("भूमि किसकी थी?")
	in.Remember("भूमि किसकी थी?")

	require.Equal(t, []string{"who owned the land in 1892?", "भूमि किसकी थी?"}, in.History())

	typeText(in, "draft")
	up := tea.KeyMsg{Type: tea.KeyUp}
	down := tea.KeyMsg{Type: tea.KeyDown}

	in.Update(up)
	assert.Equal(t, "भूमि किसकी थी?", in.Value())
	in.Update(up)
	assert.Equal(t, "who owned the land in 1892?", in.Value())
	in.Update(up)
	assert.Equal(t, "who owned the land in 1892?", in.Value(), "stops at the oldest")

	in.Update(down)
	in.Update(down)
	assert.Equal(t, "draft", in.Value(), "returns to the unsent draft")
	in.Update(down)
	assert.Equal(t, "draft", in.Value())
}

func TestQuestionInput_HistoryBounded(t *testing.T) {
	in := NewQuestionInput(nil)

	for i := range historySize + 5 {
		in.Remember(fmt.Sprintf("q%d", i))
	}

	h := in.History()
	require.Len(t, h, historySize)
	assert.Equal(t, "q5", h[0])
}

func TestQuestionInput_ResetKeepsHistory(t *testing.T) {
	in := NewQuestionInput(nil)
	in.Remember("first")
	in.Update(tea.KeyMsg{Type: tea.KeyUp})

	in.Reset()

	assert.Empty(t, in.Value())
	assert.Equal(t, []string{"first"}, in.History())
	in.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, "first", in.Value())
}
