// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/palimpsest/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/palimpsest/internal/core/domain"
)

// PassageList displays retrieved passages in a navigable list.
type PassageList struct {
	passages []domain.RetrievedChunk
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewPassageList creates a new passage list component.
func NewPassageList(s *styles.Styles) *PassageList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &PassageList{
		styles: s,
		width:  80,
		height: 10,
	}
}

// Init initialises the passage list.
func (r *PassageList) Init() tea.Cmd {
	return nil
}

// Update handles list navigation messages.
func (r *PassageList) Update(msg tea.Msg) (*PassageList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			r.MoveUp()
		case "down", "j":
			r.MoveDown()
		}
	}
	return r, nil
}

// View renders the passage list.
func (r *PassageList) View() string {
	if len(r.passages) == 0 {
		return r.styles.Muted.Render("No passages")
	}

	lines := make([]string, 0, len(r.passages)+2)
	lines = append(lines, r.styles.Subtitle.Render(fmt.Sprintf("Passages (%d)", len(r.passages))), "")

	// Each passage takes two lines.
	visibleCount := (r.height - 2) / 2
	if visibleCount < 1 {
		visibleCount = 1
	}

	start := 0
	if r.selected >= visibleCount {
		start = r.selected - visibleCount + 1
	}
	end := start + visibleCount
	if end > len(r.passages) {
		end = len(r.passages)
	}

	for i := start; i < end; i++ {
		lines = append(lines, r.renderPassage(i, &r.passages[i]))
	}

	return strings.Join(lines, "\n")
}

func (r *PassageList) renderPassage(index int, p *domain.RetrievedChunk) string {
	indicator := "  "
	if index == r.selected {
		indicator = "> "
	}

	ref := fmt.Sprintf("%s #%d", p.Chunk.DocumentID, p.Chunk.Position)
	score := fmt.Sprintf("%.2f", p.Score)

	var titleLine string
	if index == r.selected {
		titleLine = r.styles.Selected.Render(fmt.Sprintf("%s%-20s  %s", indicator, ref, score))
	} else {
		titleLine = r.styles.Normal.Render(fmt.Sprintf("%s%-20s  ", indicator, ref)) +
			r.styles.Muted.Render(score)
	}

	maxPreview := r.width - 6
	if maxPreview < 20 {
		maxPreview = 20
	}
	preview := Truncate(strings.Join(strings.Fields(p.Chunk.Content), " "), maxPreview)

	return titleLine + "\n" + r.styles.Muted.Render("    "+preview)
}

// Truncate shortens s to at most n runes, marking the cut with "...".
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

// SetPassages replaces the list contents and resets the selection.
func (r *PassageList) SetPassages(passages []domain.RetrievedChunk) {
	r.passages = passages
	r.selected = 0
}

// Passages returns the current passages.
func (r *PassageList) Passages() []domain.RetrievedChunk {
	return r.passages
}

// Selected returns the index of the selected passage.
func (r *PassageList) Selected() int {
	return r.selected
}

// SetSelected sets the selected index.
func (r *PassageList) SetSelected(index int) {
	if index >= 0 && index < len(r.passages) {
		r.selected = index
	}
}

// SelectedPassage returns the selected passage, or nil if none.
func (r *PassageList) SelectedPassage() *domain.RetrievedChunk {
	if r.selected < 0 || r.selected >= len(r.passages) {
		return nil
	}
	return &r.passages[r.selected]
}

// MoveUp moves selection up.
func (r *PassageList) MoveUp() {
	if r.selected > 0 {
		r.selected--
	}
}

// MoveDown moves selection down.
func (r *PassageList) MoveDown() {
	if r.selected < len(r.passages)-1 {
		r.selected++
	}
}

// SetDimensions sets the component dimensions.
func (r *PassageList) SetDimensions(width, height int) {
	r.width = width
	r.height = height
}

// Width returns the current width.
func (r *PassageList) Width() int {
	return r.width
}

// Height returns the current height.
func (r *PassageList) Height() int {
	return r.height
}

// Count returns the number of passages.
func (r *PassageList) Count() int {
	return len(r.passages)
}

// IsEmpty returns whether the list is empty.
func (r *PassageList) IsEmpty() bool {
	return len(r.passages) == 0
}
