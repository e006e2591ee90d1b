// Package mcp provides an MCP (Model Context Protocol) server adapter for Palimpsest.
// It lets AI assistants submit scans, translate text and ask cited questions
// over the indexed archive.
package mcp

import (
	"errors"
	"fmt"

	"github.com/custodia-labs/palimpsest/internal/core/domain"
)

// Port errors.
var (
	// ErrMissingIngestionService is returned when the ingestion service is not provided.
	ErrMissingIngestionService = errors.New("mcp: ingestion service is required")

	// ErrMissingQueryService is returned when the query service is not provided.
	ErrMissingQueryService = errors.New("mcp: query service is required")

	// ErrToolUnavailable is returned when a tool's backing service is not configured.
	ErrToolUnavailable = errors.New("mcp: tool unavailable")
)

// toolError turns a core error into the message an assistant sees.
// The sentinel stays wrapped so callers can still match it.
func toolError(err error) error {
	if err == nil {
		return nil
	}

	var hint string
	switch {
	case errors.Is(err, domain.ErrNotFound):
		hint = "no such document; check the document_id"
	case errors.Is(err, domain.ErrInvalidInput):
		hint = "the request was rejected"
	case errors.Is(err, domain.ErrUnsupportedFormat):
		hint = "only image/* and application/pdf uploads are accepted"
	case errors.Is(err, domain.ErrUnsupportedLanguagePair):
		hint = "no translation path between these languages; call list_languages"
	case errors.Is(err, domain.ErrDocumentNotExtracted):
		hint = "the document has no extracted text yet; poll document_status"
	case errors.Is(err, domain.ErrEmptyIndex):
		hint = "nothing has been indexed yet; submit documents first"
	case errors.Is(err, domain.ErrTimeout):
		hint = "the operation timed out; retry or reprocess the document"
	case errors.Is(err, domain.ErrIngestInProgress):
		hint = "the document is still being processed"
	case errors.Is(err, domain.ErrLLMUnavailable):
		hint = "no language model is configured for this operation"
	default:
		return err
	}
	return fmt.Errorf("%s: %w", hint, err)
}
