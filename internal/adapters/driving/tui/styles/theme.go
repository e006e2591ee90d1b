// Package styles holds the TUI palette and the lipgloss styles built on it.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/palimpsest/internal/core/domain"
)

// Theme is the colour palette. The defaults evoke ink on aged paper.
type Theme struct {
	Accent    lipgloss.Color // headings, selection
	Highlight lipgloss.Color // secondary headings
	Ink       lipgloss.Color // body text
	Faded     lipgloss.Color // hints and metadata
	Paper     lipgloss.Color // status bar background
	Rule      lipgloss.Color // borders
	Good      lipgloss.Color
	Caution   lipgloss.Color
	Bad       lipgloss.Color
}

// DefaultTheme returns the default palette.
func DefaultTheme() *Theme {
	return &Theme{
		Accent:    lipgloss.Color("#C2703D"), // sepia
		Highlight: lipgloss.Color("#5B8FA8"), // faded blue ink
		Ink:       lipgloss.Color("#E8DCC4"),
		Faded:     lipgloss.Color("#8A7F6E"),
		Paper:     lipgloss.Color("#2A241C"),
		Rule:      lipgloss.Color("#5A4E3C"),
		Good:      lipgloss.Color("#8FB573"),
		Caution:   lipgloss.Color("#E0B45A"),
		Bad:       lipgloss.Color("#D0675B"),
	}
}

// Styles are the rendered styles every view shares.
type Styles struct {
	theme *Theme

	Title      lipgloss.Style
	Subtitle   lipgloss.Style
	Normal     lipgloss.Style
	Muted      lipgloss.Style
	Selected   lipgloss.Style
	Error      lipgloss.Style
	Success    lipgloss.Style
	Warning    lipgloss.Style
	InputField lipgloss.Style
	StatusBar  lipgloss.Style
	Help       lipgloss.Style
	Border     lipgloss.Style

	// status colours each pipeline state; unknown states render Normal.
	status map[domain.Status]lipgloss.Style
}

// NewStyles builds styles from theme, or from DefaultTheme when nil.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}

	fg := func(c lipgloss.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }
	inProgress := fg(theme.Highlight)

	return &Styles{
		theme:    theme,
		Title:    fg(theme.Accent).Bold(true),
		Subtitle: fg(theme.Highlight).Bold(true),
		Normal:   fg(theme.Ink),
		Muted:    fg(theme.Faded),
		Selected: fg(theme.Paper).Background(theme.Accent).Bold(true),
		Error:    fg(theme.Bad),
		Success:  fg(theme.Good),
		Warning:  fg(theme.Caution),
		InputField: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Rule).
			Padding(0, 1),
		StatusBar: fg(theme.Faded).Background(theme.Paper).Padding(0, 1),
		Help:      fg(theme.Faded).Italic(true),
		Border: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Rule),
		status: map[domain.Status]lipgloss.Style{
			domain.StatusUploaded:     fg(theme.Faded),
			domain.StatusPreprocessed: inProgress,
			domain.StatusDetected:     inProgress,
			domain.StatusExtracted:    inProgress,
			domain.StatusIndexed:      fg(theme.Good),
			domain.StatusFailed:       fg(theme.Bad).Bold(true),
		},
	}
}

// DefaultStyles returns styles with the default theme.
func DefaultStyles() *Styles {
	return NewStyles(DefaultTheme())
}

// Theme returns the palette these styles were built from.
func (s *Styles) Theme() *Theme {
	return s.theme
}

// Status renders a pipeline state in its colour.
func (s *Styles) Status(status domain.Status) string {
	style, ok := s.status[status]
	if !ok {
		style = s.Normal
	}
	return style.Render(string(status))
}

// Confidence picks the style for an OCR or detection score: below
// threshold is a warning, below half of it an error.
func (s *Styles) Confidence(score, threshold float64) lipgloss.Style {
	switch {
	case score < threshold/2:
		return s.Error
	case score < threshold:
		return s.Warning
	default:
		return s.Success
	}
}
