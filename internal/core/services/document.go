package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/palimpsest/internal/core/domain"
	"github.com/custodia-labs/palimpsest/internal/core/ports/driven"
	"github.com/custodia-labs/palimpsest/internal/core/ports/driving"
	"github.com/custodia-labs/palimpsest/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// reserver hands out exclusive use of a document so a delete cannot
// overlap its pipeline run.
type reserver interface {
	Reserve(documentID string) (release func(), err error)
}

// DocumentService gives presentation layers read access to documents and
// lets them remove one.
type DocumentService struct {
	docStore driven.DocumentStore
	media    driven.MediaStore
	index    *DocumentIndex
	pipeline reserver
}

// NewDocumentService creates a new document service. media, index and
// pipeline may be nil; Delete then skips the parts it cannot reach.
func NewDocumentService(
	docStore driven.DocumentStore,
	media driven.MediaStore,
	index *DocumentIndex,
	pipeline reserver,
) *DocumentService {
	return &DocumentService{
		docStore: docStore,
		media:    media,
		index:    index,
		pipeline: pipeline,
	}
}

// List returns summaries of all documents, oldest first.
func (s *DocumentService) List(ctx context.Context) ([]domain.Summary, error) {
	if s.docStore == nil {
		return nil, domain.ErrNotImplemented
	}
	docs, err := s.docStore.ListDocuments(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Summary, len(docs))
	for i := range docs {
		out[i] = docs[i].Summarise()
	}
	return out, nil
}

// Get retrieves a document by ID.
func (s *DocumentService) Get(ctx context.Context, documentID string) (*domain.Document, error) {
	if s.docStore == nil {
		return nil, domain.ErrNotImplemented
	}
	return s.docStore.GetDocument(ctx, documentID)
}

// GetContent returns the extracted text of a document.
func (s *DocumentService) GetContent(ctx context.Context, documentID string) (string, error) {
	doc, err := s.Get(ctx, documentID)
	if err != nil {
		return "", err
	}
	if !doc.Status.Reached(domain.StatusExtracted) {
		return "", fmt.Errorf("%w: %s is %s", domain.ErrDocumentNotExtracted, documentID, doc.Status)
	}
	return doc.Text(), nil
}

// Delete removes a document, its chunks and vectors, and its media. The
// document stays reserved against the pipeline until it is gone.
func (s *DocumentService) Delete(ctx context.Context, documentID string) error {
	if s.pipeline != nil {
		release, err := s.pipeline.Reserve(documentID)
		if err != nil {
			return err
		}
		defer release()
	}

	doc, err := s.Get(ctx, documentID)
	if err != nil {
		return err
	}

	if s.index != nil {
		err = s.index.Delete(ctx, documentID)
	} else {
		err = s.docStore.DeleteDocument(ctx, documentID)
	}
	if err != nil {
		return err
	}

	if s.media != nil && doc.MediaRef != "" {
		if err := s.media.Delete(ctx, doc.MediaRef); err != nil {
			logger.Warn("Deleted %s but its media %s remains: %v", documentID, doc.MediaRef, err)
		}
	}
	logger.Info("Deleted %s", documentID)
	return nil
}

// LanguageStats counts documents per detected language. Documents that
// have not been through detection are not counted.
func (s *DocumentService) LanguageStats(ctx context.Context) (map[domain.Language]int, error) {
	if s.docStore == nil {
		return nil, domain.ErrNotImplemented
	}
	docs, err := s.docStore.ListDocuments(ctx)
	if err != nil {
		return nil, err
	}
	stats := make(map[domain.Language]int, len(domain.Languages()))
	for _, info := range domain.Languages() {
		stats[info.Code] = 0
	}
	for i := range docs {
		if docs[i].Status.Reached(domain.StatusDetected) {
			stats[docs[i].Language]++
		}
	}
	return stats, nil
}
