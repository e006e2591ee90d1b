// Package ask provides the question answering view for the TUI.
package ask

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/palimpsest/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/palimpsest/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/palimpsest/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/palimpsest/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/palimpsest/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/palimpsest/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/palimpsest/internal/core/domain"
	"github.com/custodia-labs/palimpsest/internal/core/ports/driving"
)

// View shows a question input, the composed answer and the passages behind it.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.QuestionInput
	list      *list.PassageList
	statusbar *status.Bar

	queryService driving.QueryService
	ctx          context.Context
	k            int

	result     *domain.QueryResult
	width      int
	height     int
	ready      bool
	err        error
	focusInput bool
}

// NewView creates a new ask view.
func NewView(s *styles.Styles, km *keymap.KeyMap, queryService driving.QueryService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles:       s,
		keymap:       km,
		input:        input.NewQuestionInput(s),
		list:         list.NewPassageList(s),
		statusbar:    status.NewBar(s, km),
		queryService: queryService,
		ctx:          context.Background(),
		k:            domain.DefaultK,
		width:        80,
		height:       24,
		focusInput:   true,
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// WithK sets how many passages each question retrieves.
func (v *View) WithK(k int) *View {
	v.k = k
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the ask view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.QuestionAnswered:
		v.handleAnswer(msg)
		return v, nil

	case messages.ErrorOccurred:
		v.err = msg.Err
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(msg.Err.Error())
		return v, nil
	}

	var cmd tea.Cmd
	if v.focusInput {
		v.input, cmd = v.input.Update(msg)
	}
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if msg.Type == tea.KeyEsc {
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}

	if v.focusInput {
		if msg.Type == tea.KeyEnter {
			question := strings.TrimSpace(v.input.Value())
			if question == "" {
				return v, nil
			}
			v.input.Remember(question)
			v.err = nil
			v.statusbar.SetState(status.StateAsking)
			v.statusbar.SetMessage("")
			v.focusInput = false
			v.input.Blur()
			return v, v.ask(question)
		}
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}

	switch {
	case keymap.Matches(msg.String(), v.keymap.NewQuestion):
		v.Reset()
		return v, v.input.Focus()
	case keymap.Matches(msg.String(), v.keymap.Open):
		p := v.list.SelectedPassage()
		if p == nil {
			return v, nil
		}
		doc := domain.Summary{ID: p.Chunk.DocumentID}
		return v, func() tea.Msg {
			return messages.ContentRequested{Document: doc}
		}
	}

	v.list, _ = v.list.Update(msg)
	return v, nil
}

func (v *View) ask(question string) tea.Cmd {
	svc, ctx, k := v.queryService, v.ctx, v.k
	return func() tea.Msg {
		if svc == nil {
			return messages.ErrorOccurred{Err: ErrNoQueryService}
		}
		start := time.Now()
		result, err := svc.Query(ctx, question, k)
		return messages.QuestionAnswered{Result: result, Elapsed: time.Since(start), Err: err}
	}
}

func (v *View) handleAnswer(msg messages.QuestionAnswered) {
	if msg.Err != nil {
		v.err = msg.Err
		v.result = nil
		v.list.SetPassages(nil)
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(msg.Err.Error())
		return
	}

	v.err = nil
	v.result = msg.Result
	var passages []domain.RetrievedChunk
	if msg.Result != nil {
		passages = msg.Result.Retrieved
	}
	v.list.SetPassages(passages)
	v.statusbar.SetAnswer(msg.Result, msg.Elapsed)
	v.focusInput = false
	v.input.Blur()
}

// View renders the ask view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 12)
	sections = append(sections, v.styles.Title.Render("Palimpsest"), "", v.input.View(), "")

	if v.err != nil {
		sections = append(sections, v.styles.Error.Render("Error: "+v.err.Error()), "")
	}

	if v.result != nil {
		sections = append(sections, v.renderAnswer(), "")
		sections = append(sections, v.list.View())
	}

	sections = append(sections, "", v.statusbar.View())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (v *View) renderAnswer() string {
	r := v.result
	var b strings.Builder

	b.WriteString(v.styles.Subtitle.Render("Answer"))
	if r.Uncertain {
		b.WriteString(" ")
		b.WriteString(v.styles.Warning.Render("(uncertain: no passage cleared the relevance threshold)"))
	}
	b.WriteString("\n")

	answer := r.Answer
	if answer == "" {
		answer = "(no answer)"
	}
	b.WriteString(v.styles.Normal.Width(max(v.width-4, 20)).Render(answer))

	if len(r.Citations) > 0 {
		refs := make([]string, len(r.Citations))
		for i, c := range r.Citations {
			refs[i] = fmt.Sprintf("%s (%.2f)", c.DocumentID, c.Score)
		}
		b.WriteString("\n")
		b.WriteString(v.styles.Muted.Render("Sources: " + strings.Join(refs, ", ")))
	}

	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	// header, input, answer and status bar
	v.list.SetDimensions(width, height-14)
	v.statusbar.SetWidth(width)
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}

// Question returns the text in the input.
func (v *View) Question() string {
	return v.input.Value()
}

// SetQuestion sets the text in the input.
func (v *View) SetQuestion(question string) {
	v.input.SetValue(question)
}

// Result returns the last answer.
func (v *View) Result() *domain.QueryResult {
	return v.result
}

// SelectedIndex returns the index of the selected passage.
func (v *View) SelectedIndex() int {
	return v.list.Selected()
}

// Err returns the current error, if any.
func (v *View) Err() error {
	return v.err
}

// Reset clears the answer and returns to input mode.
func (v *View) Reset() {
	v.focusInput = true
	v.input.Focus()
	v.input.SetValue("")
	v.list.SetPassages(nil)
	v.result = nil
	v.err = nil
	v.statusbar.Clear()
}

// InputFocused returns whether the input has focus.
func (v *View) InputFocused() bool {
	return v.focusInput
}
