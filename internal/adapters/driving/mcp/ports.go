package mcp

import (
	"github.com/custodia-labs/palimpsest/internal/core/ports/driving"
)

// Ports are the services behind the MCP tools. Ingestion and Query are
// required; a tool whose service is missing reports ErrToolUnavailable.
type Ports struct {
	// Ingestion accepts uploads and reports their status.
	Ingestion driving.IngestionService

	// Query answers questions over the indexed archive.
	Query driving.QueryService

	// Translation translates text and documents. Optional.
	Translation driving.TranslationService

	// Document gives read access to documents. Optional.
	Document driving.DocumentService

	// Version is advertised to clients. Empty means "dev".
	Version string
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Ingestion == nil {
		return ErrMissingIngestionService
	}
	if p.Query == nil {
		return ErrMissingQueryService
	}
	return nil
}
