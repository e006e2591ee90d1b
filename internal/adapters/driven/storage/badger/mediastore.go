// Package badger provides a MediaStore backed by an embedded Badger database.
//
// Uploaded scans can be several megabytes each; keeping them out of the
// SQLite document database keeps that file small and its WAL checkpoints fast.
package badger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/timshannon/badgerhold/v4"

	"github.com/custodia-labs/palimpsest/internal/core/domain"
	"github.com/custodia-labs/palimpsest/internal/core/ports/driven"
	"github.com/custodia-labs/palimpsest/internal/logger"
)

// Ensure MediaStore implements the interface.
var _ driven.MediaStore = (*MediaStore)(nil)

// DirName is the media directory inside the data directory.
const DirName = "media"

// Media is the stored record for one upload.
type Media struct {
	Ref       string `badgerhold:"key"`
	MIMEType  string
	Content   []byte
	CreatedAt time.Time
}

// MediaStore keeps original uploads in Badger.
type MediaStore struct {
	store *badgerhold.Store
	path  string
}

// NewMediaStore opens (or creates) the media database under dataDir.
// If dataDir is empty, uses ~/.palimpsest/data.
func NewMediaStore(dataDir string) (*MediaStore, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".palimpsest", "data")
	}

	path := filepath.Join(dataDir, DirName)
	if err := os.MkdirAll(path, 0700); err != nil {
		return nil, fmt.Errorf("creating media directory: %w", err)
	}

	options := badgerhold.DefaultOptions
	options.Dir = path
	options.ValueDir = path
	options.Logger = nil

	logger.Debug("opening media store at %s", path)
	store, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("opening media store: %w", err)
	}

	return &MediaStore{store: store, path: path}, nil
}

// Path returns the media database directory.
func (s *MediaStore) Path() string {
	return s.path
}

// Put stores content under a new random reference.
func (s *MediaStore) Put(ctx context.Context, mimeType string, content []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m := Media{
		Ref:       uuid.NewString(),
		MIMEType:  mimeType,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.Insert(m.Ref, &m); err != nil {
		return "", fmt.Errorf("storing media: %w", err)
	}
	return m.Ref, nil
}

// Get returns the content and MIME type for a reference.
func (s *MediaStore) Get(ctx context.Context, ref string) ([]byte, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	var m Media
	err := s.store.Get(ref, &m)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return nil, "", fmt.Errorf("media %s: %w", ref, domain.ErrNotFound)
	}
	if err != nil {
		return nil, "", fmt.Errorf("reading media: %w", err)
	}
	return m.Content, m.MIMEType, nil
}

// Delete removes the content. Unknown references are ignored.
func (s *MediaStore) Delete(ctx context.Context, ref string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.store.Delete(ref, Media{})
	if err != nil && !errors.Is(err, badgerhold.ErrNotFound) {
		return fmt.Errorf("deleting media: %w", err)
	}
	return nil
}

// Count returns the number of stored uploads.
func (s *MediaStore) Count() (int, error) {
	n, err := s.store.Count(&Media{}, nil)
	if err != nil {
		return 0, fmt.Errorf("counting media: %w", err)
	}
	return int(n), nil
}

// Close closes the database.
func (s *MediaStore) Close() error {
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}
