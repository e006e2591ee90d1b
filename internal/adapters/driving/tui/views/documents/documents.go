// Package documents provides the live document monitor for the TUI.
package documents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/palimpsest/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/palimpsest/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/palimpsest/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/palimpsest/internal/core/domain"
	"github.com/custodia-labs/palimpsest/internal/core/ports/driving"
)

// RefreshInterval is how often the list is polled while documents are in flight.
const RefreshInterval = 2 * time.Second

// ActionOption represents a document action.
type ActionOption int

const (
	ActionShowStatus ActionOption = iota
	ActionShowContent
	ActionReprocess
	ActionDelete
	ActionCancel
)

// View is the documents list view.
type View struct {
	styles           *styles.Styles
	documentService  driving.DocumentService
	ingestionService driving.IngestionService
	keys             *keymap.KeyMap
	ctx              context.Context

	documents    []domain.Summary
	spinner      spinner.Model
	selected     int
	width        int
	height       int
	ready        bool
	err          error
	notice       string
	loading      bool
	polling      bool
	showingMenu  bool
	menuSelected ActionOption
	scrollOffset int
}

// NewView creates a new documents view.
func NewView(
	s *styles.Styles,
	documentService driving.DocumentService,
	ingestionService driving.IngestionService,
) *View {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = s.Subtitle

	return &View{
		styles:           s,
		documentService:  documentService,
		ingestionService: ingestionService,
		keys:             keymap.DefaultKeyMap(),
		ctx:              context.Background(),
		documents:        []domain.Summary{},
		spinner:          sp,
		width:            80,
		height:           24,
	}
}

// WithContext sets the context for service calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init loads the documents and starts the spinner.
func (v *View) Init() tea.Cmd {
	v.loading = true
	v.showingMenu = false
	return tea.Batch(v.loadDocuments(), v.spinner.Tick)
}

// loadDocuments returns a command that loads all documents.
func (v *View) loadDocuments() tea.Cmd {
	svc, ctx := v.documentService, v.ctx
	return func() tea.Msg {
		if svc == nil {
			return messages.DocumentsLoaded{Err: fmt.Errorf("document service not available")}
		}
		docs, err := svc.List(ctx)
		return messages.DocumentsLoaded{Documents: docs, Err: err}
	}
}

// scheduleRefresh polls again after RefreshInterval.
func (v *View) scheduleRefresh() tea.Cmd {
	if v.polling {
		return nil
	}
	v.polling = true
	return tea.Tick(RefreshInterval, func(t time.Time) tea.Msg {
		return messages.RefreshTick{At: t}
	})
}

// Update handles messages for the documents view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		if v.showingMenu {
			return v.handleMenuKeyMsg(msg)
		}
		return v.handleKeyMsg(msg)

	case messages.DocumentsLoaded:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.documents = msg.Documents
		v.err = nil
		if v.selected >= len(v.documents) {
			v.selected = max(len(v.documents)-1, 0)
		}
		if v.InFlight() > 0 {
			return v, v.scheduleRefresh()
		}
		return v, nil

	case messages.RefreshTick:
		v.polling = false
		return v, v.loadDocuments()

	case spinner.TickMsg:
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd

	case messages.DocumentReprocessed:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.notice = fmt.Sprintf("Reprocessing %s", msg.DocumentID)
		return v, v.loadDocuments()

	case messages.DocumentDeleted:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.notice = fmt.Sprintf("Deleted %s", msg.DocumentID)
		return v, v.loadDocuments()

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil
	}

	return v, nil
}

// handleKeyMsg handles key presses in list mode.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch k := msg.String(); {
	case keymap.Matches(k, v.keys.Up):
		if v.selected > 0 {
			v.selected--
			v.adjustScroll()
		}
	case keymap.Matches(k, v.keys.Down):
		if v.selected < len(v.documents)-1 {
			v.selected++
			v.adjustScroll()
		}
	case keymap.Matches(k, v.keys.Select):
		if len(v.documents) > 0 {
			v.showingMenu = true
			v.menuSelected = ActionShowStatus
		}
	case keymap.Matches(k, v.keys.Back):
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	case keymap.Matches(k, v.keys.Reload):
		v.loading = true
		v.notice = ""
		return v, v.loadDocuments()
	}

	return v, nil
}

// handleMenuKeyMsg handles key presses in action menu mode.
func (v *View) handleMenuKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch k := msg.String(); {
	case keymap.Matches(k, v.keys.Up):
		if v.menuSelected > ActionShowStatus {
			v.menuSelected--
		}
	case keymap.Matches(k, v.keys.Down):
		if v.menuSelected < ActionCancel {
			v.menuSelected++
		}
	case keymap.Matches(k, v.keys.Select):
		return v.handleMenuSelect()
	case keymap.Matches(k, v.keys.Cancel):
		v.showingMenu = false
	}

	return v, nil
}

// handleMenuSelect handles selection of an action.
func (v *View) handleMenuSelect() (*View, tea.Cmd) {
	v.showingMenu = false
	if v.selected >= len(v.documents) {
		return v, nil
	}

	doc := v.documents[v.selected]

	switch v.menuSelected {
	case ActionShowStatus:
		return v, func() tea.Msg {
			return messages.DocumentSelected{Document: doc}
		}
	case ActionShowContent:
		return v, func() tea.Msg {
			return messages.ContentRequested{Document: doc}
		}
	case ActionReprocess:
		return v, v.reprocessDocument(doc.ID)
	case ActionDelete:
		return v, v.deleteDocument(doc.ID)
	case ActionCancel:
	}

	return v, nil
}

// reprocessDocument returns a command that resumes processing.
func (v *View) reprocessDocument(docID string) tea.Cmd {
	svc, ctx := v.ingestionService, v.ctx
	return func() tea.Msg {
		if svc == nil {
			return messages.DocumentReprocessed{DocumentID: docID, Err: fmt.Errorf("ingestion service not available")}
		}
		return messages.DocumentReprocessed{DocumentID: docID, Err: svc.Reprocess(ctx, docID)}
	}
}

// deleteDocument returns a command that deletes the document.
func (v *View) deleteDocument(docID string) tea.Cmd {
	svc, ctx := v.documentService, v.ctx
	return func() tea.Msg {
		if svc == nil {
			return messages.DocumentDeleted{DocumentID: docID, Err: fmt.Errorf("document service not available")}
		}
		return messages.DocumentDeleted{DocumentID: docID, Err: svc.Delete(ctx, docID)}
	}
}

// adjustScroll adjusts the scroll offset to keep the selected item visible.
func (v *View) adjustScroll() {
	visibleItems := v.visibleItemCount()
	if v.selected < v.scrollOffset {
		v.scrollOffset = v.selected
	} else if v.selected >= v.scrollOffset+visibleItems {
		v.scrollOffset = v.selected - visibleItems + 1
	}
}

// visibleItemCount returns the number of items that can be displayed.
func (v *View) visibleItemCount() int {
	// title, counts, separator, help and padding
	reserved := 9
	available := v.height - reserved
	if available < 1 {
		available = 1
	}
	return available
}

// View renders the documents view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render(fmt.Sprintf("Documents (%d)", len(v.documents))))
	b.WriteString("\n")
	b.WriteString(v.renderCounts())
	b.WriteString("\n\n")

	if v.loading && len(v.documents) == 0 {
		b.WriteString(v.spinner.View() + " " + v.styles.Muted.Render("Loading documents..."))
		b.WriteString("\n\n")
		b.WriteString(v.renderHelp())
		return b.String()
	}

	if v.err != nil {
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
		b.WriteString("\n\n")
	}

	if len(v.documents) == 0 {
		b.WriteString(v.styles.Muted.Render("No documents yet. Submit one with 'palimpsest ingest'."))
		b.WriteString("\n\n")
		b.WriteString(v.renderHelp())
		return b.String()
	}

	if v.showingMenu {
		b.WriteString(v.renderActionMenu())
		return b.String()
	}

	visibleItems := v.visibleItemCount()
	for i := v.scrollOffset; i < len(v.documents) && i < v.scrollOffset+visibleItems; i++ {
		b.WriteString(v.renderDocument(i, &v.documents[i]))
		b.WriteString("\n")
	}

	if len(v.documents) > visibleItems {
		b.WriteString("\n")
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [%d-%d of %d]",
			v.scrollOffset+1,
			min(v.scrollOffset+visibleItems, len(v.documents)),
			len(v.documents))))
	}

	if v.notice != "" {
		b.WriteString("\n")
		b.WriteString(v.styles.Success.Render(v.notice))
	}

	b.WriteString("\n\n")
	b.WriteString(v.renderHelp())

	return b.String()
}

// renderCounts summarises documents per status.
func (v *View) renderCounts() string {
	counts := make(map[domain.Status]int)
	for _, d := range v.documents {
		counts[d.Status]++
	}
	parts := []string{
		fmt.Sprintf("%d indexed", counts[domain.StatusIndexed]),
		fmt.Sprintf("%d in progress", v.InFlight()),
	}
	if n := counts[domain.StatusFailed]; n > 0 {
		parts = append(parts, v.styles.Error.Render(fmt.Sprintf("%d failed", n)))
	}
	return v.styles.Muted.Render(strings.Join(parts, " · "))
}

// renderDocument renders a single document line.
func (v *View) renderDocument(index int, doc *domain.Summary) string {
	indicator := "  "
	if index == v.selected {
		indicator = "> "
	}

	marker := " "
	if !doc.Status.IsTerminal() {
		marker = v.spinner.View()
	}

	lang := ""
	if doc.Language != domain.LanguageUndetermined {
		lang = fmt.Sprintf("%s %.2f", doc.Language, doc.Confidence)
	}

	name := doc.Filename
	maxNameLen := v.width - 50
	if maxNameLen < 10 {
		maxNameLen = 10
	}
	if len(name) > maxNameLen {
		name = name[:maxNameLen-3] + "..."
	}

	if index == v.selected {
		line := fmt.Sprintf("%s%-14s %-12s %-8s %s", indicator, doc.ID, doc.Status, lang, name)
		return marker + " " + v.styles.Selected.Render(line)
	}

	pad := ""
	if n := 12 - len(doc.Status); n > 0 {
		pad = strings.Repeat(" ", n)
	}
	return marker + " " +
		v.styles.Normal.Render(fmt.Sprintf("%s%-14s ", indicator, doc.ID)) +
		v.styles.Status(doc.Status) + pad +
		v.styles.Normal.Render(fmt.Sprintf(" %-8s %s", lang, name))
}

// renderActionMenu renders the action menu overlay.
func (v *View) renderActionMenu() string {
	var b strings.Builder

	if v.selected < len(v.documents) {
		b.WriteString(v.styles.Subtitle.Render(fmt.Sprintf("Actions for: %s", v.documents[v.selected].ID)))
		b.WriteString("\n\n")
	}

	options := []struct {
		action ActionOption
		label  string
	}{
		{ActionShowStatus, "Show Status"},
		{ActionShowContent, "Show Text"},
		{ActionReprocess, "Reprocess"},
		{ActionDelete, "Delete"},
		{ActionCancel, "Cancel"},
	}

	for _, opt := range options {
		if v.menuSelected == opt.action {
			b.WriteString(v.styles.Selected.Render("> " + opt.label))
		} else {
			b.WriteString(v.styles.Normal.Render("  " + opt.label))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render(keymap.Hints(v.keys.Up, v.keys.Select, v.keys.Cancel)))

	return b.String()
}

// renderHelp renders the help footer.
func (v *View) renderHelp() string {
	return v.styles.Help.Render(keymap.Hints(v.keys.DocumentsHelp()...))
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Documents returns the current list of documents.
func (v *View) Documents() []domain.Summary {
	return v.documents
}

// InFlight counts documents that have not reached a terminal state.
func (v *View) InFlight() int {
	n := 0
	for _, d := range v.documents {
		if !d.Status.IsTerminal() {
			n++
		}
	}
	return n
}

// SelectedIndex returns the currently selected document index.
func (v *View) SelectedIndex() int {
	return v.selected
}

// SelectedDocument returns the currently selected document.
func (v *View) SelectedDocument() *domain.Summary {
	if v.selected < len(v.documents) {
		return &v.documents[v.selected]
	}
	return nil
}

// IsShowingMenu returns true if the action menu is visible.
func (v *View) IsShowingMenu() bool {
	return v.showingMenu
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
