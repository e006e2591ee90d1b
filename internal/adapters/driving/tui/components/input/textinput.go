// Package input provides the question box for the ask view.
package input

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/palimpsest/internal/adapters/driving/tui/styles"
)

const (
	// MaxQuestionRunes caps what can be typed.
	MaxQuestionRunes = 512

	// historySize is how many earlier questions ↑ and ↓ can recall.
	historySize = 50

	minInputWidth = 20
)

// QuestionInput is a single-line question box that remembers what was
// asked. While focused, ↑ and ↓ step through earlier questions.
type QuestionInput struct {
	textinput textinput.Model
	styles    *styles.Styles
	width     int

	history []string
	// recall indexes history while stepping through it; len(history)
	// means the draft being typed.
	recall int
	draft  string
}

// NewQuestionInput creates a focused question input.
func NewQuestionInput(s *styles.Styles) *QuestionInput {
	if s == nil {
		s = styles.DefaultStyles()
	}

	ti := textinput.New()
	ti.Placeholder = "Ask about the archive in English, हिन्दी or தமிழ்..."
	ti.Prompt = "› "
	ti.PromptStyle = s.Subtitle
	ti.Focus()
	ti.CharLimit = MaxQuestionRunes
	ti.Width = 50

	return &QuestionInput{textinput: ti, styles: s, width: 50}
}

// Init starts the cursor blinking.
func (s *QuestionInput) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles history keys and passes everything else to the text input.
func (s *QuestionInput) Update(msg tea.Msg) (*QuestionInput, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && s.textinput.Focused() {
		switch key.Type {
		case tea.KeyUp:
			s.step(-1)
			return s, nil
		case tea.KeyDown:
			s.step(1)
			return s, nil
		}
	}

	var cmd tea.Cmd
	s.textinput, cmd = s.textinput.Update(msg)
	return s, cmd
}

func (s *QuestionInput) step(delta int) {
	next := s.recall + delta
	if next < 0 || next > len(s.history) {
		return
	}
	if s.recall == len(s.history) {
		s.draft = s.textinput.Value()
	}
	s.recall = next
	if next == len(s.history) {
		s.textinput.SetValue(s.draft)
	} else {
		s.textinput.SetValue(s.history[next])
	}
	s.textinput.CursorEnd()
}

// Remember records a submitted question. Blank questions and repeats of
// the last one are skipped; the oldest entries drop off past historySize.
func (s *QuestionInput) Remember(question string) {
	question = strings.TrimSpace(question)
	if question != "" && (len(s.history) == 0 || s.history[len(s.history)-1] != question) {
		s.history = append(s.history, question)
		if len(s.history) > historySize {
			s.history = s.history[len(s.history)-historySize:]
		}
	}
	s.recall = len(s.history)
	s.draft = ""
}

// History returns earlier questions, oldest first.
func (s *QuestionInput) History() []string {
	return s.history
}

// View renders the label and the box.
func (s *QuestionInput) View() string {
	label := s.styles.Title.Render("Ask: ")
	input := s.styles.InputField.Render(s.textinput.View())
	//nolint:misspell // lipgloss.Center is the correct constant from the library
	return lipgloss.JoinHorizontal(lipgloss.Center, label, input)
}

// Value returns the current text.
func (s *QuestionInput) Value() string {
	return s.textinput.Value()
}

// SetValue replaces the current text.
func (s *QuestionInput) SetValue(value string) {
	s.textinput.SetValue(value)
}

// Focus focuses the box.
func (s *QuestionInput) Focus() tea.Cmd {
	return s.textinput.Focus()
}

// Blur unfocuses the box.
func (s *QuestionInput) Blur() {
	s.textinput.Blur()
}

// Focused reports whether the box has focus.
func (s *QuestionInput) Focused() bool {
	return s.textinput.Focused()
}

// SetWidth sizes the box to fit width, leaving room for the label.
func (s *QuestionInput) SetWidth(width int) {
	s.width = width
	s.textinput.Width = max(width-10, minInputWidth)
}

// Width returns the current width.
func (s *QuestionInput) Width() int {
	return s.width
}

// Reset clears the text but keeps the history.
func (s *QuestionInput) Reset() {
	s.textinput.Reset()
	s.recall = len(s.history)
	s.draft = ""
}
