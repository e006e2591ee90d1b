// Package docdetails provides the document status view for the TUI.
package docdetails

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/palimpsest/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/palimpsest/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/palimpsest/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/palimpsest/internal/core/domain"
	"github.com/custodia-labs/palimpsest/internal/core/ports/driving"
)

// pollInterval is how often an in-flight document's status is refreshed.
const pollInterval = time.Second

// lowOCRConfidence is where the confidence figure turns from green to amber.
const lowOCRConfidence = 0.6

// stages lists the pipeline states shown in the progress line.
var stages = []domain.Status{
	domain.StatusUploaded,
	domain.StatusPreprocessed,
	domain.StatusDetected,
	domain.StatusExtracted,
	domain.StatusIndexed,
}

// View is the document status view.
type View struct {
	styles           *styles.Styles
	ingestionService driving.IngestionService
	keys             *keymap.KeyMap
	ctx              context.Context

	documentID   string
	report       *driving.StatusReport
	bar          progress.Model
	scrollOffset int
	width        int
	height       int
	ready        bool
	err          error
	notice       string
}

// NewView creates a new document status view.
func NewView(s *styles.Styles, ingestionService driving.IngestionService) *View {
	bar := progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())
	bar.Width = 30

	return &View{
		styles:           s,
		ingestionService: ingestionService,
		keys:             keymap.DefaultKeyMap(),
		ctx:              context.Background(),
		bar:              bar,
		width:            80,
		height:           24,
	}
}

// WithContext sets the context for service calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// SetDocument selects the document and loads its status.
func (v *View) SetDocument(documentID string) tea.Cmd {
	v.documentID = documentID
	v.report = nil
	v.scrollOffset = 0
	v.err = nil
	v.notice = ""
	return v.loadStatus()
}

// SetReport sets the status report to display.
func (v *View) SetReport(report *driving.StatusReport) {
	v.report = report
	if report != nil {
		v.documentID = report.DocumentID
	}
	v.err = nil
}

// SetError sets an error to display.
func (v *View) SetError(err error) {
	v.err = err
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

func (v *View) loadStatus() tea.Cmd {
	svc, ctx, id := v.ingestionService, v.ctx, v.documentID
	return func() tea.Msg {
		if svc == nil {
			return messages.StatusLoaded{DocumentID: id, Err: fmt.Errorf("ingestion service not available")}
		}
		report, err := svc.Status(ctx, id)
		return messages.StatusLoaded{DocumentID: id, Report: report, Err: err}
	}
}

// Update handles messages for the document status view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.StatusLoaded:
		if msg.DocumentID != v.documentID {
			return v, nil
		}
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.SetReport(msg.Report)
		if msg.Report != nil && !msg.Report.Status.IsTerminal() {
			id := v.documentID
			return v, tea.Tick(pollInterval, func(time.Time) tea.Msg {
				return messages.StatusTick{DocumentID: id}
			})
		}
		return v, nil

	case messages.StatusTick:
		if msg.DocumentID != v.documentID {
			return v, nil
		}
		return v, v.loadStatus()

	case messages.DocumentReprocessed:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.notice = "Reprocessing..."
		return v, v.loadStatus()

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil
	}

	return v, nil
}

// handleKeyMsg handles key presses.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch k := msg.String(); {
	case keymap.Matches(k, v.keys.Up):
		if v.scrollOffset > 0 {
			v.scrollOffset--
		}
	case keymap.Matches(k, v.keys.Down):
		if v.scrollOffset < v.maxScrollOffset() {
			v.scrollOffset++
		}
	case keymap.Matches(k, v.keys.Reprocess):
		svc, ctx, id := v.ingestionService, v.ctx, v.documentID
		if svc == nil || id == "" {
			return v, nil
		}
		return v, func() tea.Msg {
			return messages.DocumentReprocessed{DocumentID: id, Err: svc.Reprocess(ctx, id)}
		}
	case keymap.Matches(k, v.keys.Text):
		if v.report == nil || !v.report.Status.Reached(domain.StatusExtracted) {
			return v, nil
		}
		doc := domain.Summary{ID: v.report.DocumentID, Status: v.report.Status, Language: v.report.Language}
		return v, func() tea.Msg {
			return messages.ContentRequested{Document: doc}
		}
	case keymap.Matches(k, v.keys.Back):
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewDocuments}
		}
	}

	return v, nil
}

// visibleLines returns the number of lines that can be displayed.
func (v *View) visibleLines() int {
	// title, separator, pipeline line, help and padding
	reserved := 8
	available := v.height - reserved
	if available < 1 {
		available = 1
	}
	return available
}

// maxScrollOffset returns the maximum scroll offset.
func (v *View) maxScrollOffset() int {
	maxOffset := len(v.buildContent()) - v.visibleLines()
	if maxOffset < 0 {
		maxOffset = 0
	}
	return maxOffset
}

// buildContent builds the content lines for display.
func (v *View) buildContent() []string {
	r := v.report
	if r == nil {
		return nil
	}

	lines := []string{
		v.formatField("ID", r.DocumentID),
		v.formatField("Status", v.styles.Status(r.Status)),
	}

	if r.Failure != nil {
		lines = append(lines,
			v.formatField("Failed at", string(r.Failure.Stage)),
			v.formatField("Reason", r.Failure.Message))
	}

	if r.Status.Reached(domain.StatusDetected) {
		lang := fmt.Sprintf("%s (%.2f)", r.Language.Name(), r.LanguageConfidence)
		if r.LowConfidence {
			lang += v.styles.Warning.Render(" low confidence")
		}
		lines = append(lines, v.formatField("Language", lang))
	}

	if r.Status.Reached(domain.StatusExtracted) {
		lines = append(lines,
			v.formatField("Confidence", v.styles.Confidence(r.Confidence, lowOCRConfidence).Render(fmt.Sprintf("%.2f", r.Confidence))+" "+v.bar.ViewAs(r.Confidence)),
			v.formatField("OCR time", (time.Duration(r.ProcessingMs)*time.Millisecond).String()),
			v.formatField("Regions", fmt.Sprintf("%d", len(r.Regions))))
	}

	if !r.UpdatedAt.IsZero() {
		lines = append(lines, v.formatField("Updated", r.UpdatedAt.Format("2006-01-02 15:04:05")))
	}

	if len(r.Regions) > 0 {
		lines = append(lines, "", "Regions:")
		for _, region := range r.Regions {
			text := strings.ReplaceAll(region.Text, "\n", " ")
			if text == "" {
				text = "(unreadable)"
			}
			maxLen := v.width - 24
			if maxLen < 20 {
				maxLen = 20
			}
			if runes := []rune(text); len(runes) > maxLen {
				text = string(runes[:maxLen-3]) + "..."
			}
			lines = append(lines, fmt.Sprintf("  p%d #%d %.2f  %s", region.Page+1, region.Index, region.Confidence, text))
		}
	}

	return lines
}

// formatField formats a field for display.
func (v *View) formatField(label, value string) string {
	return fmt.Sprintf("%-12s %s", label+":", value)
}

// renderPipeline shows which stages the document has completed.
func (v *View) renderPipeline() string {
	parts := make([]string, len(stages))
	for i, st := range stages {
		switch {
		case v.report.Status.Reached(st):
			parts[i] = v.styles.Success.Render("● " + string(st))
		case v.report.Status == domain.StatusFailed:
			parts[i] = v.styles.Error.Render("○ " + string(st))
		default:
			parts[i] = v.styles.Muted.Render("○ " + string(st))
		}
	}
	return strings.Join(parts, v.styles.Muted.Render(" → "))
}

// View renders the document status view.
func (v *View) View() string {
	var b strings.Builder

	title := "Document Status"
	if v.documentID != "" {
		title += " - " + v.documentID
	}
	b.WriteString(v.styles.Title.Render(title))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", minInt(v.width-4, 60)))
	b.WriteString("\n\n")

	if v.err != nil {
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
		b.WriteString("\n\n")
		b.WriteString(v.renderHelp())
		return b.String()
	}

	if v.report == nil {
		b.WriteString(v.styles.Muted.Render("Loading status..."))
		b.WriteString("\n\n")
		b.WriteString(v.renderHelp())
		return b.String()
	}

	b.WriteString(v.renderPipeline())
	b.WriteString("\n\n")

	lines := v.buildContent()
	visibleLines := v.visibleLines()
	for i := v.scrollOffset; i < len(lines) && i < v.scrollOffset+visibleLines; i++ {
		line := lines[i]
		switch {
		case line == "Regions:":
			b.WriteString(v.styles.Subtitle.Render(line))
		case strings.HasPrefix(line, "  "):
			b.WriteString(v.styles.Muted.Render(line))
		case strings.Contains(line, ":"):
			parts := strings.SplitN(line, ":", 2)
			b.WriteString(v.styles.Subtitle.Render(parts[0] + ":"))
			b.WriteString(v.styles.Normal.Render(parts[1]))
		default:
			b.WriteString(v.styles.Normal.Render(line))
		}
		b.WriteString("\n")
	}

	if len(lines) > visibleLines {
		b.WriteString("\n")
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [Line %d-%d of %d]",
			v.scrollOffset+1,
			minInt(v.scrollOffset+visibleLines, len(lines)),
			len(lines))))
	}

	if v.notice != "" {
		b.WriteString("\n")
		b.WriteString(v.styles.Success.Render(v.notice))
	}

	b.WriteString("\n\n")
	b.WriteString(v.renderHelp())

	return b.String()
}

// renderHelp renders the help footer.
func (v *View) renderHelp() string {
	return v.styles.Help.Render(keymap.Hints(v.keys.DetailsHelp()...))
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.bar.Width = minInt(max(width-40, 10), 40)
}

// DocumentID returns the selected document.
func (v *View) DocumentID() string {
	return v.documentID
}

// Report returns the current status report.
func (v *View) Report() *driving.StatusReport {
	return v.report
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
