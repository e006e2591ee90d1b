package driven

import (
	"image"

	"github.com/custodia-labs/palimpsest/internal/core/domain"
)

// MediaDecoder turns uploaded bytes into page rasters.
// Each decoder handles specific MIME types (e.g., PNG, PDF).
type MediaDecoder interface {
	// SupportedMIMETypes returns the MIME types this decoder handles.
	// A trailing "/*" matches a whole family.
	SupportedMIMETypes() []string

	// Priority returns the selection priority (higher = preferred).
	// Format-specific decoders should return 50-89.
	// Fallback decoders should return 1-9.
	Priority() int

	// PageCount returns the number of pages in the media.
	PageCount(raw domain.RawImage) (int, error)

	// DecodePage returns the raster for raw.Page.
	DecodePage(raw domain.RawImage) (image.Image, error)
}

// DecoderRegistry selects the decoder for a MIME type.
type DecoderRegistry interface {
	// Register adds a decoder to the registry.
	Register(decoder MediaDecoder)

	// Lookup returns the highest-priority decoder for the MIME type.
	// Returns domain.ErrUnsupportedFormat when nothing matches.
	Lookup(mimeType string) (MediaDecoder, error)

	// SupportedMIMETypes returns all MIME types that can be decoded.
	SupportedMIMETypes() []string
}
