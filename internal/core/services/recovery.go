package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/palimpsest/internal/core/domain"
	"github.com/custodia-labs/palimpsest/internal/core/ports/driven"
	"github.com/custodia-labs/palimpsest/internal/core/ports/driving"
	"github.com/custodia-labs/palimpsest/internal/logger"
)

// Ensure Recovery implements the interface.
var _ driving.RecoveryService = (*Recovery)(nil)

// reprocessor is the part of the ingestion service recovery drives.
type reprocessor interface {
	Reprocess(ctx context.Context, documentID string) error
	Busy(documentID string) bool
}

// Recovery continues documents whose pipeline run was cut short, by a
// process exit or a stage timeout. Failed documents are left alone.
type Recovery struct {
	documents driven.DocumentStore
	ingestion reprocessor
}

// NewRecovery creates a recovery service.
func NewRecovery(documents driven.DocumentStore, ingestion reprocessor) *Recovery {
	return &Recovery{documents: documents, ingestion: ingestion}
}

// ResumeInterrupted restarts every idle document that is neither indexed
// nor failed and returns their IDs, oldest first.
func (r *Recovery) ResumeInterrupted(ctx context.Context) ([]string, error) {
	docs, err := r.documents.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	var resumed []string
	for i := range docs {
		doc := &docs[i]
		if doc.Status.IsTerminal() || r.ingestion.Busy(doc.ID) {
			continue
		}

		err := r.ingestion.Reprocess(ctx, doc.ID)
		switch {
		case err == nil:
			resumed = append(resumed, doc.ID)
		case errors.Is(err, domain.ErrIngestInProgress):
			// Picked up by someone else since the listing.
		default:
			logger.Warn("recovery: failed to resume %s: %v", doc.ID, err)
		}
	}

	if len(resumed) > 0 {
		logger.Info("Resumed %d interrupted documents", len(resumed))
	}
	return resumed, nil
}
