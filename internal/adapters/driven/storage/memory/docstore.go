package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/custodia-labs/palimpsest/internal/core/domain"
	"github.com/custodia-labs/palimpsest/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore is an in-memory implementation of driven.DocumentStore.
type DocumentStore struct {
	mu        sync.RWMutex
	documents map[string]domain.Document
	chunks    map[string][]domain.Chunk
	sequences map[int]int
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents: make(map[string]domain.Document),
		chunks:    make(map[string][]domain.Chunk),
		sequences: make(map[int]int),
	}
}

// NextDocumentSequence reserves the next sequence number for a year.
func (s *DocumentStore) NextDocumentSequence(_ context.Context, year int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sequences[year]++
	return s.sequences[year], nil
}

// SaveDocument stores or updates a document.
func (s *DocumentStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	if doc == nil || doc.ID == "" {
		return fmt.Errorf("%w: document ID is required", domain.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[doc.ID] = cloneDocument(*doc)
	return nil
}

// CommitIndexed saves the document and replaces its chunks under one lock.
func (s *DocumentStore) CommitIndexed(_ context.Context, doc *domain.Document, chunks []domain.Chunk) error {
	if doc == nil || doc.ID == "" {
		return fmt.Errorf("%w: document ID is required", domain.ErrInvalidInput)
	}
	for _, c := range chunks {
		if c.DocumentID != doc.ID {
			return fmt.Errorf("%w: chunk %s belongs to %s", domain.ErrInvalidInput, c.ID, c.DocumentID)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[doc.ID] = cloneDocument(*doc)
	s.chunks[doc.ID] = slices.Clone(chunks)
	return nil
}

// GetDocument retrieves a document by ID.
func (s *DocumentStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	doc = cloneDocument(doc)
	return &doc, nil
}

// GetChunks retrieves all chunks for a document.
func (s *DocumentStore) GetChunks(_ context.Context, documentID string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.chunks[documentID]), nil
}

// GetChunk retrieves a specific chunk by ID.
func (s *DocumentStore) GetChunk(_ context.Context, id string) (*domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, chunks := range s.chunks {
		for _, chunk := range chunks {
			if chunk.ID == id {
				return &chunk, nil
			}
		}
	}
	return nil, fmt.Errorf("chunk %s: %w", id, domain.ErrNotFound)
}

// AllChunks returns every stored chunk, grouped by document.
func (s *DocumentStore) AllChunks(_ context.Context) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.chunks))
	for id := range s.chunks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	var all []domain.Chunk
	for _, id := range ids {
		all = append(all, s.chunks[id]...)
	}
	return all, nil
}

// DeleteDocument removes a document and its chunks.
func (s *DocumentStore) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[id]; !ok {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	delete(s.documents, id)
	delete(s.chunks, id)
	return nil
}

// ListDocuments returns all documents, oldest first.
func (s *DocumentStore) ListDocuments(_ context.Context) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Document, 0, len(s.documents))
	for id := range s.documents {
		result = append(result, cloneDocument(s.documents[id]))
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// cloneDocument copies the slices and pointers a caller could mutate.
func cloneDocument(doc domain.Document) domain.Document {
	doc.Regions = slices.Clone(doc.Regions)
	for i, r := range doc.Regions {
		if r.Bounds != nil {
			b := *r.Bounds
			doc.Regions[i].Bounds = &b
		}
	}
	if doc.Failure != nil {
		f := *doc.Failure
		doc.Failure = &f
	}
	return doc
}
