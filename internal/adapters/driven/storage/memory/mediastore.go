package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/custodia-labs/palimpsest/internal/core/domain"
	"github.com/custodia-labs/palimpsest/internal/core/ports/driven"
)

// Ensure MediaStore implements the interface.
var _ driven.MediaStore = (*MediaStore)(nil)

type media struct {
	mimeType string
	content  []byte
}

// MediaStore keeps uploaded bytes in memory.
type MediaStore struct {
	mu    sync.RWMutex
	items map[string]media
}

// NewMediaStore creates a new in-memory media store.
func NewMediaStore() *MediaStore {
	return &MediaStore{items: make(map[string]media)}
}

// Put stores a copy of content under a new random reference.
func (s *MediaStore) Put(_ context.Context, mimeType string, content []byte) (string, error) {
	ref := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[ref] = media{mimeType: mimeType, content: append([]byte(nil), content...)}
	return ref, nil
}

// Get returns the content and MIME type for a reference.
func (s *MediaStore) Get(_ context.Context, ref string) ([]byte, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.items[ref]
	if !ok {
		return nil, "", fmt.Errorf("media %s: %w", ref, domain.ErrNotFound)
	}
	return append([]byte(nil), m.content...), m.mimeType, nil
}

// Delete removes the content.
func (s *MediaStore) Delete(_ context.Context, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, ref)
	return nil
}

// Close is a no-op.
func (s *MediaStore) Close() error {
	return nil
}
