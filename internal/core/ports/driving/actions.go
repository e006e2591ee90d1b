package driving

import "context"

// ActionService hands documents to the desktop for external actors.
// This is used by the CLI and TUI adapters.
type ActionService interface {
	// CopyContent copies the document's extracted text to the system clipboard.
	CopyContent(ctx context.Context, documentID string) error

	// ExportOriginal writes the uploaded scan into dir and returns its path.
	ExportOriginal(ctx context.Context, documentID, dir string) (string, error)

	// OpenOriginal opens the uploaded scan in the default application.
	OpenOriginal(ctx context.Context, documentID string) (string, error)
}
