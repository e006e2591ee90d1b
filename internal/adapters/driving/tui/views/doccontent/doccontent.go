// Package doccontent shows a document's extracted text and, when a
// translation service is wired, its translations.
package doccontent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/palimpsest/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/palimpsest/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/palimpsest/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/palimpsest/internal/core/domain"
	"github.com/custodia-labs/palimpsest/internal/core/ports/driving"
)

// reservedLines is the chrome around the text: title, rule, blank lines,
// position line and help.
const reservedLines = 7

// languages is the order Language cycles through after the original.
var languages = []domain.Language{domain.LanguageEnglish, domain.LanguageHindi, domain.LanguageTamil}

var errNoDocumentService = errors.New("document service not available")

// View is the document text view.
type View struct {
	styles             *styles.Styles
	keys               *keymap.KeyMap
	documentService    driving.DocumentService
	translationService driving.TranslationService
	ctx                context.Context

	document *domain.Summary
	back     messages.ViewType

	original     string
	translations map[domain.Language]string
	// showing is the language on screen; undetermined means the original.
	showing domain.Language

	viewport    viewport.Model
	width       int
	height      int
	ready       bool
	loading     bool
	translating domain.Language
	err         error
	notice      string
}

// NewView creates the view. translationService may be nil.
func NewView(s *styles.Styles, documentService driving.DocumentService, translationService driving.TranslationService) *View {
	v := &View{
		styles:             s,
		keys:               keymap.DefaultKeyMap(),
		documentService:    documentService,
		translationService: translationService,
		ctx:                context.Background(),
		back:               messages.ViewDocuments,
		translations:       make(map[domain.Language]string),
		viewport:           viewport.New(76, 24-reservedLines),
	}
	v.SetDimensions(80, 24)
	v.ready = false
	return v
}

// WithContext sets the context for service calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// SetDocument shows doc's original text, loading it. Escape returns to back.
func (v *View) SetDocument(doc domain.Summary, back messages.ViewType) tea.Cmd {
	v.document = &doc
	v.back = back
	v.original = ""
	v.translations = make(map[domain.Language]string)
	v.showing = domain.LanguageUndetermined
	v.translating = domain.LanguageUndetermined
	v.err = nil
	v.notice = ""
	v.loading = true
	v.refresh()
	return v.loadContent()
}

// Init implements tea.Model.
func (v *View) Init() tea.Cmd {
	return nil
}

func (v *View) loadContent() tea.Cmd {
	svc, ctx, id := v.documentService, v.ctx, v.documentID()
	return func() tea.Msg {
		if id == "" || svc == nil {
			return messages.DocumentContentLoaded{DocumentID: id, Err: errNoDocumentService}
		}
		content, err := svc.GetContent(ctx, id)
		return messages.DocumentContentLoaded{DocumentID: id, Content: content, Err: err}
	}
}

func (v *View) translate(target domain.Language) tea.Cmd {
	svc, ctx, id := v.translationService, v.ctx, v.documentID()
	return func() tea.Msg {
		res, err := svc.TranslateDocument(ctx, id, domain.LanguageUndetermined, target)
		msg := messages.DocumentTranslated{DocumentID: id, Target: target, Err: err}
		if err == nil {
			msg.Text = res.Text
		}
		return msg
	}
}

// Update handles messages for the view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.DocumentContentLoaded:
		if msg.DocumentID != v.documentID() {
			return v, nil
		}
		v.loading = false
		v.err = msg.Err
		if msg.Err == nil {
			v.original = msg.Content
			v.refresh()
		}

	case messages.DocumentTranslated:
		if msg.DocumentID != v.documentID() || msg.Target != v.translating {
			return v, nil
		}
		v.translating = domain.LanguageUndetermined
		if msg.Err != nil {
			v.notice = fmt.Sprintf("Translation to %s failed: %v", msg.Target.Name(), msg.Err)
			return v, nil
		}
		v.translations[msg.Target] = msg.Text
		v.show(msg.Target)

	case messages.ErrorOccurred:
		v.err = msg.Err
	}

	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	vp := &v.viewport
	switch k := msg.String(); {
	case keymap.Matches(k, v.keys.Up):
		vp.SetYOffset(vp.YOffset - 1)
	case keymap.Matches(k, v.keys.Down):
		vp.SetYOffset(vp.YOffset + 1)
	case keymap.Matches(k, v.keys.PageUp):
		vp.SetYOffset(vp.YOffset - vp.Height)
	case keymap.Matches(k, v.keys.PageDown):
		vp.SetYOffset(vp.YOffset + vp.Height)
	case keymap.Matches(k, v.keys.Top):
		vp.GotoTop()
	case keymap.Matches(k, v.keys.Bottom):
		vp.GotoBottom()
	case keymap.Matches(k, v.keys.Language):
		return v, v.nextLanguage()
	case keymap.Matches(k, v.keys.Back):
		back := v.back
		return v, func() tea.Msg {
			return messages.ViewChanged{View: back}
		}
	}
	return v, nil
}

// nextLanguage moves to the next translation, skipping the document's own
// language, and wraps back to the original. Uncached translations are
// requested and shown when they arrive.
func (v *View) nextLanguage() tea.Cmd {
	if v.translationService == nil || v.loading || v.err != nil || v.original == "" ||
		v.translating != domain.LanguageUndetermined {
		return nil
	}
	v.notice = ""

	next := v.following(v.showing)
	if next == domain.LanguageUndetermined {
		v.show(next)
		return nil
	}
	if _, ok := v.translations[next]; ok {
		v.show(next)
		return nil
	}
	v.translating = next
	return v.translate(next)
}

func (v *View) following(current domain.Language) domain.Language {
	start := 0
	for i, l := range languages {
		if l == current {
			start = i + 1
		}
	}
	for _, l := range languages[start:] {
		if v.document == nil || l != v.document.Language {
			return l
		}
	}
	return domain.LanguageUndetermined
}

func (v *View) show(lang domain.Language) {
	v.showing = lang
	v.refresh()
	v.viewport.GotoTop()
}

// refresh re-wraps the text on screen to the current width.
func (v *View) refresh() {
	text := v.Content()
	if text == "" {
		v.viewport.SetContent("")
		return
	}
	wrapped := lipgloss.NewStyle().Width(v.viewport.Width).Render(text)
	v.viewport.SetContent(v.styles.Normal.Render(wrapped))
}

// View renders the view.
func (v *View) View() string {
	var b strings.Builder
	b.WriteString(v.styles.Title.Render(v.title()))
	b.WriteString("\n")
	b.WriteString(v.styles.Muted.Render(strings.Repeat("─", min(v.width-4, 60))))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading content..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case v.Content() == "":
		b.WriteString(v.styles.Muted.Render("(no text extracted)"))
	default:
		b.WriteString(v.viewport.View())
		b.WriteString("\n")
		b.WriteString(v.position())
	}
	b.WriteString("\n")

	switch {
	case v.translating != domain.LanguageUndetermined:
		b.WriteString(v.styles.Muted.Render("Translating to " + v.translating.Name() + "..."))
	case v.notice != "":
		b.WriteString(v.styles.Warning.Render(v.notice))
	}
	b.WriteString("\n")
	b.WriteString(v.renderHelp())
	return b.String()
}

func (v *View) title() string {
	if v.document == nil {
		return "Document Text"
	}
	title := v.document.ID
	if v.document.Filename != "" {
		title += " · " + v.document.Filename
	}
	if v.document.Language != "" {
		title += " (" + v.document.Language.Name() + ")"
	}
	if v.showing != domain.LanguageUndetermined {
		title += " → " + v.showing.Name()
	}
	return title
}

func (v *View) position() string {
	total := v.viewport.TotalLineCount()
	if total <= v.viewport.Height {
		return ""
	}
	first := v.viewport.YOffset + 1
	last := min(v.viewport.YOffset+v.viewport.Height, total)
	return v.styles.Muted.Render(fmt.Sprintf("  [%3.f%%] line %d-%d of %d",
		v.viewport.ScrollPercent()*100, first, last, total))
}

func (v *View) renderHelp() string {
	bindings := v.keys.ContentHelp()
	if v.translationService != nil {
		bindings = append(bindings[:len(bindings)-1:len(bindings)-1], v.keys.Language, v.keys.Back)
	}
	return v.styles.Help.Render(keymap.Hints(bindings...))
}

// SetDimensions sizes the text area to fit width and height.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.viewport.Width = max(width-4, 20)
	v.viewport.Height = max(height-reservedLines, 1)
	v.refresh()
}

// Document returns the current document.
func (v *View) Document() *domain.Summary {
	return v.document
}

// Content returns the text on screen: the original or a translation.
func (v *View) Content() string {
	if v.showing == domain.LanguageUndetermined {
		return v.original
	}
	return v.translations[v.showing]
}

// Showing is the language on screen, or undetermined for the original.
func (v *View) Showing() domain.Language {
	return v.showing
}

// ScrollOffset is the first visible line.
func (v *View) ScrollOffset() int {
	return v.viewport.YOffset
}

func (v *View) documentID() string {
	if v.document == nil {
		return ""
	}
	return v.document.ID
}

// Err returns the last load error.
func (v *View) Err() error {
	return v.err
}
