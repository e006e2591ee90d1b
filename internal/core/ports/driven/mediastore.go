package driven

import "context"

// MediaStore keeps the original uploaded bytes so a document can be
// reprocessed without re-uploading.
type MediaStore interface {
	// Put stores content and returns its reference.
	Put(ctx context.Context, mimeType string, content []byte) (string, error)

	// Get returns the content and MIME type for a reference.
	// Returns domain.ErrNotFound if the reference is unknown.
	Get(ctx context.Context, ref string) ([]byte, string, error)

	// Delete removes the content. Unknown references are not an error.
	Delete(ctx context.Context, ref string) error

	// Close releases resources.
	Close() error
}
