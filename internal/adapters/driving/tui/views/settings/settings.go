// Package settings provides the settings view for the TUI.
package settings

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/palimpsest/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/palimpsest/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/palimpsest/internal/core/domain"
	"github.com/custodia-labs/palimpsest/internal/core/ports/driving"
)

// ErrNoSettingsService indicates that no settings service was provided.
var ErrNoSettingsService = errors.New("settings service not available")

// View lists every setting and edits one at a time.
type View struct {
	styles          *styles.Styles
	settingsService driving.SettingsService

	settings *domain.AppSettings
	keys     []string
	selected int
	editing  bool
	input    textinput.Model
	err      error
	notice   string

	width  int
	height int
	ready  bool
}

// NewView creates a new settings view.
func NewView(s *styles.Styles, settingsService driving.SettingsService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}

	input := textinput.New()
	input.CharLimit = 256
	input.Width = 40

	var keys []string
	if settingsService != nil {
		keys = settingsService.Keys()
	}

	return &View{
		styles:          s,
		settingsService: settingsService,
		keys:            keys,
		input:           input,
		width:           80,
		height:          24,
	}
}

// Init loads the current settings.
func (v *View) Init() tea.Cmd {
	return v.loadSettings()
}

func (v *View) loadSettings() tea.Cmd {
	svc := v.settingsService
	return func() tea.Msg {
		if svc == nil {
			return messages.SettingsLoaded{Err: ErrNoSettingsService}
		}
		settings, err := svc.Get()
		return messages.SettingsLoaded{Settings: settings, Err: err}
	}
}

func (v *View) save(key, value string) tea.Cmd {
	svc := v.settingsService
	return func() tea.Msg {
		if svc == nil {
			return messages.SettingsSaved{Key: key, Err: ErrNoSettingsService}
		}
		return messages.SettingsSaved{Key: key, Err: svc.Set(key, value)}
	}
}

// Update handles messages for the settings view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.SettingsLoaded:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.settings = msg.Settings
		return v, nil

	case messages.SettingsSaved:
		if msg.Err != nil {
			v.err = msg.Err
			v.notice = ""
			return v, nil
		}
		v.err = nil
		v.notice = "Saved " + msg.Key
		return v, v.loadSettings()

	case tea.KeyMsg:
		if v.editing {
			return v.handleEditKey(msg)
		}
		return v.handleKeyMsg(msg)
	}

	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.selected > 0 {
			v.selected--
		}
	case "down", "j":
		if v.selected < len(v.keys)-1 {
			v.selected++
		}
	case "enter":
		key := v.SelectedKey()
		if key == "" {
			return v, nil
		}
		v.editing = true
		v.err = nil
		v.notice = ""
		v.input.Reset()
		v.input.EchoMode = textinput.EchoNormal
		v.input.Placeholder = ""
		if isSecret(key) {
			v.input.EchoMode = textinput.EchoPassword
			v.input.Placeholder = "Enter API key"
		} else {
			v.input.SetValue(v.value(key))
		}
		return v, v.input.Focus()
	case "r":
		v.err = nil
		v.notice = ""
		return v, v.loadSettings()
	case "esc":
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}
	return v, nil
}

func (v *View) handleEditKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.Type { //nolint:exhaustive // other keys go to the input
	case tea.KeyEsc:
		v.editing = false
		v.input.Blur()
		return v, nil
	case tea.KeyEnter:
		v.editing = false
		v.input.Blur()
		return v, v.save(v.SelectedKey(), v.input.Value())
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) value(key string) string {
	if v.settings == nil {
		return ""
	}
	val, _ := v.settings.Lookup(key)
	return val
}

func isSecret(key string) bool {
	return strings.HasSuffix(key, ".api_key")
}

// displayValue masks secrets and marks unset values.
func displayValue(key, value string) string {
	if value == "" {
		return "(not set)"
	}
	if isSecret(key) {
		if len(value) <= 8 {
			return "****"
		}
		return value[:4] + "..." + value[len(value)-4:]
	}
	return value
}

// View renders the settings view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Settings"))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", minInt(v.width-4, 60)))
	b.WriteString("\n\n")

	if v.settings == nil && v.err == nil {
		b.WriteString(v.styles.Muted.Render("Loading settings..."))
		b.WriteString("\n")
		return b.String()
	}

	section := ""
	for i, key := range v.keys {
		if prefix, _, _ := strings.Cut(key, "."); prefix != section {
			if section != "" {
				b.WriteString("\n")
			}
			section = prefix
			b.WriteString(v.styles.Subtitle.Render(section))
			b.WriteString("\n")
		}

		line := fmt.Sprintf("%-32s %s", key, displayValue(key, v.value(key)))
		if i == v.selected {
			b.WriteString(v.styles.Selected.Render("> " + line))
		} else {
			b.WriteString(v.styles.Normal.Render("  " + line))
		}
		b.WriteString("\n")
	}

	if v.editing {
		b.WriteString("\n")
		b.WriteString(v.styles.Subtitle.Render(v.SelectedKey() + ": "))
		b.WriteString(v.input.View())
		b.WriteString("\n")
	}

	if v.err != nil {
		b.WriteString("\n")
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
		b.WriteString("\n")
	} else if v.notice != "" {
		b.WriteString("\n")
		b.WriteString(v.styles.Success.Render(v.notice))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if v.editing {
		b.WriteString(v.styles.Help.Render("[enter] save  [esc] cancel"))
	} else {
		b.WriteString(v.styles.Help.Render("[↑/↓] navigate  [enter] edit  [r] reload  [esc] back"))
	}

	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// SelectedKey returns the highlighted setting key.
func (v *View) SelectedKey() string {
	if v.selected < 0 || v.selected >= len(v.keys) {
		return ""
	}
	return v.keys[v.selected]
}

// Editing reports whether a value is being edited.
func (v *View) Editing() bool {
	return v.editing
}

// Settings returns the loaded settings.
func (v *View) Settings() *domain.AppSettings {
	return v.settings
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
