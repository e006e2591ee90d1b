package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/palimpsest/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/palimpsest/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/palimpsest/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/palimpsest/internal/adapters/driving/tui/views/ask"
	"github.com/custodia-labs/palimpsest/internal/adapters/driving/tui/views/doccontent"
	"github.com/custodia-labs/palimpsest/internal/adapters/driving/tui/views/docdetails"
	"github.com/custodia-labs/palimpsest/internal/adapters/driving/tui/views/documents"
	"github.com/custodia-labs/palimpsest/internal/adapters/driving/tui/views/menu"
	"github.com/custodia-labs/palimpsest/internal/adapters/driving/tui/views/settings"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// ctx is the context for cancellation.
	ctx context.Context

	// styles holds the TUI styles.
	styles *styles.Styles

	keys *keymap.KeyMap
	help help.Model

	menuView       *menu.View
	documentsView  *documents.View
	docDetailsView *docdetails.View
	docContentView *doccontent.View
	askView        *ask.View
	settingsView   *settings.View

	// currentView tracks which view is active.
	currentView messages.ViewType

	// startView is shown first.
	startView messages.ViewType

	// err holds the last error that occurred.
	err error

	// width and height are terminal dimensions.
	width  int
	height int

	// ready indicates if the app has initialised.
	ready bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if ports == nil {
		return nil, fmt.Errorf("creating app: %w", ErrInvalidPorts)
	}
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	h := help.New()
	h.Styles.FullKey = s.Subtitle
	h.Styles.FullDesc = s.Muted
	h.Styles.FullSeparator = s.Muted

	return &App{
		ports:          ports,
		ctx:            context.Background(),
		styles:         s,
		keys:           km,
		help:           h,
		menuView:       menu.NewView(s),
		documentsView:  documents.NewView(s, ports.Document, ports.Ingestion),
		docDetailsView: docdetails.NewView(s, ports.Ingestion),
		docContentView: doccontent.NewView(s, ports.Document, ports.Translation),
		askView:        ask.NewView(s, km, ports.Query),
		settingsView:   settings.NewView(s, ports.Settings),
		currentView:    messages.ViewMenu,
		startView:      messages.ViewMenu,
	}, nil
}

// WithContext sets the context for the app and its views.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.documentsView.WithContext(ctx)
	a.docDetailsView.WithContext(ctx)
	a.docContentView.WithContext(ctx)
	a.askView.WithContext(ctx)
	return a
}

// WithStartView opens the app on view instead of the menu.
func (a *App) WithStartView(view messages.ViewType) *App {
	a.startView = view
	a.currentView = view
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.EnterAltScreen,
		tea.SetWindowTitle("palimpsest"),
	}
	if a.startView != messages.ViewMenu {
		cmds = append(cmds, a.enter(a.startView, messages.ViewMenu))
	}
	return tea.Batch(cmds...)
}

// enter prepares a view that is being switched to from another.
func (a *App) enter(view, from messages.ViewType) tea.Cmd {
	switch view {
	case messages.ViewDocuments:
		return a.documentsView.Init()
	case messages.ViewDocDetails:
		if id := a.docDetailsView.DocumentID(); id != "" {
			return a.docDetailsView.SetDocument(id)
		}
	case messages.ViewAsk:
		if from == messages.ViewDocContent {
			return nil
		}
		a.askView.Reset()
		return a.askView.Init()
	case messages.ViewSettings:
		return a.settingsView.Init()
	case messages.ViewMenu, messages.ViewDocContent, messages.ViewHelp:
	}
	return nil
}

// Update implements tea.Model.
//
//nolint:gocyclo // central message router
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if a.currentView == messages.ViewHelp {
			switch msg.String() {
			case "esc":
				a.currentView = messages.ViewMenu
			case "q":
				return a, tea.Quit
			}
			return a, nil
		}
		return a, a.forward(a.currentView, msg)

	case messages.ViewChanged:
		from := a.currentView
		a.currentView = msg.View
		return a, a.enter(msg.View, from)

	case messages.Quit:
		return a, tea.Quit

	// The document monitor keeps polling and animating while hidden.
	case messages.DocumentsLoaded, messages.RefreshTick, spinner.TickMsg, messages.DocumentDeleted:
		a.documentsView, cmd = a.documentsView.Update(msg)
		return a, cmd

	case messages.StatusLoaded, messages.StatusTick:
		a.docDetailsView, cmd = a.docDetailsView.Update(msg)
		return a, cmd

	case messages.DocumentReprocessed:
		if a.currentView == messages.ViewDocDetails {
			a.docDetailsView, cmd = a.docDetailsView.Update(msg)
		} else {
			a.documentsView, cmd = a.documentsView.Update(msg)
		}
		return a, cmd

	case messages.DocumentSelected:
		a.currentView = messages.ViewDocDetails
		return a, a.docDetailsView.SetDocument(msg.Document.ID)

	case messages.ContentRequested:
		back := a.currentView
		a.currentView = messages.ViewDocContent
		return a, a.docContentView.SetDocument(msg.Document, back)

	case messages.DocumentContentLoaded, messages.DocumentTranslated:
		a.docContentView, cmd = a.docContentView.Update(msg)
		return a, cmd

	case messages.QuestionAnswered:
		a.askView, cmd = a.askView.Update(msg)
		a.err = a.askView.Err()
		return a, cmd

	case messages.SettingsLoaded, messages.SettingsSaved:
		a.settingsView, cmd = a.settingsView.Update(msg)
		return a, cmd

	case messages.ErrorOccurred:
		a.err = msg.Err
		return a, a.forward(a.currentView, msg)
	}

	return a, a.forward(a.currentView, msg)
}

// forward hands msg to the view that owns it.
func (a *App) forward(view messages.ViewType, msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch view {
	case messages.ViewMenu:
		a.menuView, cmd = a.menuView.Update(msg)
	case messages.ViewDocuments:
		a.documentsView, cmd = a.documentsView.Update(msg)
	case messages.ViewDocDetails:
		a.docDetailsView, cmd = a.docDetailsView.Update(msg)
	case messages.ViewDocContent:
		a.docContentView, cmd = a.docContentView.Update(msg)
	case messages.ViewAsk:
		a.askView, cmd = a.askView.Update(msg)
	case messages.ViewSettings:
		a.settingsView, cmd = a.settingsView.Update(msg)
	case messages.ViewHelp:
	}
	return cmd
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewMenu:
		return a.menuView.View()
	case messages.ViewDocuments:
		return a.documentsView.View()
	case messages.ViewDocDetails:
		return a.docDetailsView.View()
	case messages.ViewDocContent:
		return a.docContentView.View()
	case messages.ViewAsk:
		return a.askView.View()
	case messages.ViewSettings:
		return a.settingsView.View()
	case messages.ViewHelp:
		return a.viewHelp()
	default:
		return a.menuView.View()
	}
}

// viewHelp renders every binding plus the behaviour keys alone don't show.
func (a *App) viewHelp() string {
	a.help.Width = a.width

	var b strings.Builder
	b.WriteString(a.styles.Title.Render("Help"))
	b.WriteString("\n\n")
	b.WriteString(a.help.FullHelpView(a.keys.FullHelp()))
	b.WriteString("\n\n")
	for _, note := range []string{
		"Documents still in the pipeline refresh every two seconds.",
		"Questions may be typed in English, Hindi or Tamil; answers cite document IDs.",
		"In the document list r reloads; in a document's status it reprocesses.",
	} {
		b.WriteString(a.styles.Muted.Render("• " + note))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(a.styles.Help.Render(keymap.Hints(a.keys.Back, a.keys.Quit)))
	return b.String()
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions on the app and every view.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.menuView.SetDimensions(width, height)
	a.documentsView.SetDimensions(width, height)
	a.docDetailsView.SetDimensions(width, height)
	a.docContentView.SetDimensions(width, height)
	a.askView.SetDimensions(width, height)
	a.settingsView.SetDimensions(width, height)
}
