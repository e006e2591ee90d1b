// Package tui provides an interactive terminal monitor for palimpsest.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/palimpsest/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the TUI.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Document lists, reads and deletes documents.
	Document driving.DocumentService

	// Ingestion reports status and reprocesses documents.
	Ingestion driving.IngestionService

	// Query answers questions. Optional; the ask view is disabled without it.
	Query driving.QueryService

	// Settings manages application settings. Optional.
	Settings driving.SettingsService

	// Translation translates document text in the content view. Optional.
	Translation driving.TranslationService
}

// NewPorts creates a new Ports aggregate with the required services.
func NewPorts(document driving.DocumentService, ingestion driving.IngestionService) *Ports {
	return &Ports{
		Document:  document,
		Ingestion: ingestion,
	}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Document == nil {
		return ErrMissingDocumentService
	}
	if p.Ingestion == nil {
		return ErrMissingIngestionService
	}
	return nil
}
