// Package keymap holds the TUI's key bindings and the help hints built
// from them.
package keymap

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

// KeyMap groups every binding the views react to. Views share one map;
// the same key may mean different things in different views.
type KeyMap struct {
	Quit   key.Binding
	Help   key.Binding
	Back   key.Binding
	Select key.Binding
	Cancel key.Binding

	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Top      key.Binding
	Bottom   key.Binding

	// Ask submits a question; NewQuestion clears the answer.
	Ask         key.Binding
	NewQuestion key.Binding

	// Open shows the text of the selected passage's document.
	Open key.Binding

	Reload    key.Binding
	Reprocess key.Binding

	// Text shows a document's extracted text; Language cycles it through
	// translations.
	Text     key.Binding
	Language key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Help:   key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Back:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Select: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		Cancel: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),

		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		PageUp:   key.NewBinding(key.WithKeys("pgup", "ctrl+u"), key.WithHelp("pgup", "page up")),
		PageDown: key.NewBinding(key.WithKeys("pgdown", "ctrl+d"), key.WithHelp("pgdn", "page down")),
		Top:      key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("g", "top")),
		Bottom:   key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("G", "bottom")),

		Ask:         key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "ask")),
		NewQuestion: key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new question")),
		Open:        key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),

		Reload:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Reprocess: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reprocess")),
		Text:      key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "text")),
		Language:  key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "translate")),
	}
}

// ShortHelp is shown in the ask view before a question is answered.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Quit, k.Help}
}

// ResultsHelp is shown while an answer is displayed.
func (k *KeyMap) ResultsHelp() []key.Binding {
	return []key.Binding{k.NewQuestion, k.Up, k.Open, k.Back}
}

// DocumentsHelp is shown under the document list.
func (k *KeyMap) DocumentsHelp() []key.Binding {
	return []key.Binding{k.Up, k.Select, k.Reload, k.Back}
}

// DetailsHelp is shown under a document's status.
func (k *KeyMap) DetailsHelp() []key.Binding {
	return []key.Binding{k.Up, k.Text, k.Reprocess, k.Back}
}

// ContentHelp is shown under a document's text.
func (k *KeyMap) ContentHelp() []key.Binding {
	return []key.Binding{k.Up, k.PageDown, k.Top, k.Bottom, k.Back}
}

// FullHelp returns every binding, grouped for the help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown, k.Top, k.Bottom},
		{k.Select, k.Back, k.Cancel},
		{k.Ask, k.NewQuestion, k.Open},
		{k.Reload, k.Reprocess, k.Text, k.Language},
		{k.Help, k.Quit},
	}
}

// Matches reports whether keyStr triggers binding.
func Matches(keyStr string, binding key.Binding) bool {
	for _, k := range binding.Keys() {
		if k == keyStr {
			return true
		}
	}
	return false
}

// Hints renders bindings as "[key] desc" pairs for a view's help line.
func Hints(bindings ...key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		if h.Key == "" {
			continue
		}
		parts = append(parts, "["+h.Key+"] "+h.Desc)
	}
	return strings.Join(parts, "  ")
}
