package services

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/atotto/clipboard"

	"github.com/custodia-labs/palimpsest/internal/core/domain"
	"github.com/custodia-labs/palimpsest/internal/core/ports/driven"
	"github.com/custodia-labs/palimpsest/internal/core/ports/driving"
)

// Operating system identifiers.
const (
	osDarwin  = "darwin"
	osLinux   = "linux"
	osWindows = "windows"
)

// Ensure ActionService implements the interface.
var _ driving.ActionService = (*ActionService)(nil)

// mediaExtensions names exported originals by content type.
var mediaExtensions = map[string]string{
	"image/png":       ".png",
	"image/jpeg":      ".jpg",
	"image/tiff":      ".tif",
	"image/gif":       ".gif",
	"image/bmp":       ".bmp",
	"image/webp":      ".webp",
	"application/pdf": ".pdf",
}

// ActionService hands documents to the desktop: the clipboard and the
// system viewer.
type ActionService struct {
	documents driven.DocumentStore
	media     driven.MediaStore

	// copyText and open are replaced in tests.
	copyText func(text string) error
	open     func(name string, args ...string) error
}

// NewActionService creates a new action service.
func NewActionService(documents driven.DocumentStore, media driven.MediaStore) *ActionService {
	return &ActionService{
		documents: documents,
		media:     media,
		copyText:  clipboard.WriteAll,
		open:      startCommand,
	}
}

// CopyContent copies a document's extracted text to the system clipboard.
func (s *ActionService) CopyContent(ctx context.Context, documentID string) error {
	doc, err := s.documents.GetDocument(ctx, documentID)
	if err != nil {
		return err
	}
	if !doc.Status.Reached(domain.StatusExtracted) {
		return fmt.Errorf("%w: %s is %s", domain.ErrDocumentNotExtracted, documentID, doc.Status)
	}

	if clipboard.Unsupported {
		return fmt.Errorf("%w: no clipboard utility found (install xclip, xsel or wl-clipboard)", domain.ErrNotImplemented)
	}
	if err := s.copyText(doc.Text()); err != nil {
		return fmt.Errorf("copy %s: %w", documentID, err)
	}
	return nil
}

// ExportOriginal writes the uploaded scan to dir as <document-id><ext> and
// returns the path.
func (s *ActionService) ExportOriginal(ctx context.Context, documentID, dir string) (string, error) {
	doc, err := s.documents.GetDocument(ctx, documentID)
	if err != nil {
		return "", err
	}
	if s.media == nil || doc.MediaRef == "" {
		return "", fmt.Errorf("%w: no stored media for %s", domain.ErrNotFound, documentID)
	}

	content, mimeType, err := s.media.Get(ctx, doc.MediaRef)
	if err != nil {
		return "", fmt.Errorf("read media for %s: %w", documentID, err)
	}

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}
	ext, ok := mediaExtensions[mimeType]
	if !ok {
		ext = ".bin"
	}
	path := filepath.Join(dir, documentID+ext)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// OpenOriginal exports the uploaded scan to the temp directory and opens it
// in the default application.
func (s *ActionService) OpenOriginal(ctx context.Context, documentID string) (string, error) {
	path, err := s.ExportOriginal(ctx, documentID, filepath.Join(os.TempDir(), "palimpsest"))
	if err != nil {
		return "", err
	}

	name, args, err := openCommand(path)
	if err != nil {
		return "", err
	}
	return path, s.open(name, args...)
}

// openCommand picks the OS command that opens a file in its default viewer.
func openCommand(path string) (string, []string, error) {
	switch runtime.GOOS {
	case osDarwin:
		return "open", []string{path}, nil
	case osLinux:
		return "xdg-open", []string{path}, nil
	case osWindows:
		return "rundll32", []string{"url.dll,FileProtocolHandler", path}, nil
	default:
		return "", nil, fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
}

// startCommand starts a viewer without waiting for it to exit.
func startCommand(name string, args ...string) error {
	return exec.Command(name, args...).Start()
}
