// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"time"

	"github.com/custodia-labs/palimpsest/internal/core/domain"
	"github.com/custodia-labs/palimpsest/internal/core/ports/driving"
)

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewDocuments is the live document monitor.
	ViewDocuments
	// ViewDocDetails shows a document's processing status.
	ViewDocDetails
	// ViewDocContent shows a document's extracted text.
	ViewDocContent
	// ViewAsk is the question input and answer view.
	ViewAsk
	// ViewSettings is the settings configuration view.
	ViewSettings
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewDocuments:
		return "documents"
	case ViewDocDetails:
		return "doc_details"
	case ViewDocContent:
		return "doc_content"
	case ViewAsk:
		return "ask"
	case ViewSettings:
		return "settings"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}

// RefreshTick asks the document monitor to poll again.
type RefreshTick struct {
	At time.Time
}

// StatusTick asks the status view to poll a document again.
type StatusTick struct {
	DocumentID string
}

// DocumentsLoaded carries the document list.
type DocumentsLoaded struct {
	Documents []domain.Summary
	Err       error
}

// DocumentSelected signals a document was chosen from the list.
type DocumentSelected struct {
	Document domain.Summary
}

// ContentRequested asks for a document's extracted text view.
type ContentRequested struct {
	Document domain.Summary
}

// StatusLoaded carries a document's status report.
type StatusLoaded struct {
	DocumentID string
	Report     *driving.StatusReport
	Err        error
}

// DocumentContentLoaded carries the extracted text of a document.
type DocumentContentLoaded struct {
	DocumentID string
	Content    string
	Err        error
}

// DocumentTranslated carries a document's text translated into Target.
type DocumentTranslated struct {
	DocumentID string
	Target     domain.Language
	Text       string
	Err        error
}

// DocumentReprocessed signals a reprocess request was accepted.
type DocumentReprocessed struct {
	DocumentID string
	Err        error
}

// DocumentDeleted signals a document was deleted.
type DocumentDeleted struct {
	DocumentID string
	Err        error
}

// QuestionAnswered carries a query result back to the ask view.
type QuestionAnswered struct {
	Result  *domain.QueryResult
	Elapsed time.Duration
	Err     error
}

// SettingsLoaded carries the application settings.
type SettingsLoaded struct {
	Settings *domain.AppSettings
	Err      error
}

// SettingsSaved signals a setting was saved.
type SettingsSaved struct {
	Key string
	Err error
}
