// Package menu provides the start menu for the TUI.
package menu

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/palimpsest/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/palimpsest/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/palimpsest/internal/adapters/driving/tui/styles"
)

// Item is one menu entry. Shortcut jumps straight to it.
type Item struct {
	Label       string
	Description string
	Shortcut    string
	View        messages.ViewType
	Quit        bool
}

// View is the start menu.
type View struct {
	styles   *styles.Styles
	keys     *keymap.KeyMap
	items    []Item
	selected int
	width    int
	height   int
	ready    bool
}

// NewView creates the menu. A nil style selects the default theme.
func NewView(s *styles.Styles) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &View{
		styles: s,
		keys:   keymap.DefaultKeyMap(),
		items: []Item{
			{Label: "Documents", Description: "watch scans move through the pipeline", Shortcut: "d", View: messages.ViewDocuments},
			{Label: "Ask", Description: "question the archive in English, Hindi or Tamil", Shortcut: "a", View: messages.ViewAsk},
			{Label: "Settings", Description: "providers, thresholds and chunking", Shortcut: "s", View: messages.ViewSettings},
			{Label: "Help", Description: "key bindings", Shortcut: "?", View: messages.ViewHelp},
			{Label: "Quit", Shortcut: "q", Quit: true},
		},
		width:  80,
		height: 24,
	}
}

// Init implements tea.Model.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update moves the cursor or opens an entry.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)

	case tea.KeyMsg:
		switch k := msg.String(); {
		case keymap.Matches(k, v.keys.Up):
			if v.selected > 0 {
				v.selected--
			}
		case keymap.Matches(k, v.keys.Down):
			if v.selected < len(v.items)-1 {
				v.selected++
			}
		case keymap.Matches(k, v.keys.Select):
			return v, v.open(v.items[v.selected])
		default:
			for i, item := range v.items {
				if item.Shortcut == k {
					v.selected = i
					return v, v.open(item)
				}
			}
		}
	}

	return v, nil
}

func (v *View) open(item Item) tea.Cmd {
	if item.Quit {
		return tea.Quit
	}
	return func() tea.Msg {
		return messages.ViewChanged{View: item.View}
	}
}

// View renders the menu.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	var b strings.Builder
	b.WriteString(v.styles.Title.Render("Palimpsest"))
	b.WriteString("\n\n")
	b.WriteString(v.styles.Subtitle.Render("Multilingual Archive Pipeline"))
	b.WriteString("\n\n")

	for i, item := range v.items {
		label := fmt.Sprintf("[%s] %-10s", item.Shortcut, item.Label)
		if i == v.selected {
			b.WriteString("> " + v.styles.Selected.Render(label))
		} else {
			b.WriteString("  " + v.styles.Normal.Render(label))
		}
		if item.Description != "" && v.width >= 60 {
			b.WriteString("  " + v.styles.Muted.Render(item.Description))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render(keymap.Hints(v.keys.Up, v.keys.Select, v.keys.Quit)))

	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Selected returns the cursor position.
func (v *View) Selected() int {
	return v.selected
}
