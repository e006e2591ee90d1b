// Package status renders the one-line bar under the ask view.
package status

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/palimpsest/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/palimpsest/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/palimpsest/internal/core/domain"
)

// State is what the bar is reporting.
type State string

const (
	StateReady   State = "ready"
	StateAsking  State = "asking"
	StateError   State = "error"
	StateResults State = "results"
)

// maxCited is how many cited document IDs fit before "+N more".
const maxCited = 3

// Bar shows the state of the last question and the keys that apply.
type Bar struct {
	styles  *styles.Styles
	keymap  *keymap.KeyMap
	state   State
	message string
	answer  *domain.QueryResult
	elapsed time.Duration
	width   int
}

// NewBar creates a bar. Nil arguments select the defaults.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &Bar{styles: s, keymap: km, state: StateReady, width: 80}
}

// Init implements tea.Model.
func (s *Bar) Init() tea.Cmd { return nil }

// Update implements tea.Model. The bar is driven by its setters.
func (s *Bar) Update(tea.Msg) (*Bar, tea.Cmd) { return s, nil }

// View renders the bar at its width, hints right-aligned.
func (s *Bar) View() string {
	left, right := s.renderLeft(), s.renderRight()
	inner := s.width - s.styles.StatusBar.GetHorizontalFrameSize()
	padding := inner - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		padding = 1
	}
	return s.styles.StatusBar.Width(s.width).Render(left + strings.Repeat(" ", padding) + right)
}

func (s *Bar) renderLeft() string {
	switch s.state {
	case StateAsking:
		return s.styles.Muted.Render("Searching the archive...")
	case StateError:
		if s.message != "" {
			return s.styles.Error.Render("Error: " + s.message)
		}
		return s.styles.Error.Render("Error")
	case StateResults:
		if s.answer != nil {
			return s.renderAnswer()
		}
	}
	return s.styles.Muted.Render("Ready")
}

// renderAnswer summarises the result: "3 passages · DOC-1892-001 · 120ms".
func (s *Bar) renderAnswer() string {
	parts := []string{s.styles.Normal.Render(plural(len(s.answer.Retrieved), "passage"))}

	if s.answer.Uncertain {
		parts = append(parts, s.styles.Warning.Render("uncertain"))
	} else if n := len(s.answer.Citations); n > 0 {
		ids := make([]string, 0, maxCited)
		for _, c := range s.answer.Citations {
			if len(ids) == maxCited {
				break
			}
			ids = append(ids, c.DocumentID)
		}
		cited := strings.Join(ids, ", ")
		if n > maxCited {
			cited += fmt.Sprintf(" +%d more", n-maxCited)
		}
		parts = append(parts, s.styles.Success.Render(cited))
	}

	if s.elapsed > 0 {
		parts = append(parts, s.styles.Muted.Render(s.elapsed.Round(time.Millisecond).String()))
	}
	return strings.Join(parts, s.styles.Muted.Render(" · "))
}

func (s *Bar) renderRight() string {
	bindings := s.keymap.ShortHelp()
	if s.state == StateResults && s.answer != nil && len(s.answer.Retrieved) > 0 {
		bindings = s.keymap.ResultsHelp()
	}

	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, h.Key+": "+h.Desc)
	}
	return s.styles.Muted.Render(strings.Join(hints, " | "))
}

// SetState sets the state.
func (s *Bar) SetState(state State) { s.state = state }

// State returns the state.
func (s *Bar) State() State { return s.state }

// SetMessage sets the error text.
func (s *Bar) SetMessage(message string) { s.message = message }

// Message returns the error text.
func (s *Bar) Message() string { return s.message }

// SetAnswer records a finished query and switches to StateResults.
func (s *Bar) SetAnswer(result *domain.QueryResult, elapsed time.Duration) {
	s.answer = result
	s.elapsed = elapsed
	s.state = StateResults
}

// Answer returns the last recorded result.
func (s *Bar) Answer() *domain.QueryResult { return s.answer }

// SetWidth sets the render width.
func (s *Bar) SetWidth(width int) { s.width = width }

// Width returns the render width.
func (s *Bar) Width() int { return s.width }

// Clear returns to StateReady and forgets the last answer.
func (s *Bar) Clear() {
	s.state = StateReady
	s.message = ""
	s.answer = nil
	s.elapsed = 0
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
