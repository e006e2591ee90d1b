// Package raster decodes single-page raster uploads.
package raster

import (
	"bytes"
	"fmt"
	"image"

	// Registered codecs.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/custodia-labs/palimpsest/internal/core/domain"
	"github.com/custodia-labs/palimpsest/internal/core/ports/driven"
)

// Ensure Decoder implements the interface.
var _ driven.MediaDecoder = (*Decoder)(nil)

// Decoder handles PNG, JPEG, GIF, BMP, TIFF and WebP photographs and scans.
type Decoder struct{}

// New creates a new raster decoder.
func New() *Decoder {
	return &Decoder{}
}

// SupportedMIMETypes returns the MIME types this decoder handles.
func (d *Decoder) SupportedMIMETypes() []string {
	return []string{
		"image/png",
		"image/jpeg",
		"image/gif",
		"image/bmp",
		"image/tiff",
		"image/webp",
		"image/*",
	}
}

// Priority returns the selection priority.
func (d *Decoder) Priority() int {
	return 50
}

// PageCount returns 1; multi-frame images are read as their first frame.
func (d *Decoder) PageCount(raw domain.RawImage) (int, error) {
	if _, _, err := image.DecodeConfig(bytes.NewReader(raw.Content)); err != nil {
		return 0, fmt.Errorf("%w: %w", domain.ErrUnsupportedFormat, err)
	}
	return 1, nil
}

// DecodePage decodes the image. Only page 0 exists.
func (d *Decoder) DecodePage(raw domain.RawImage) (image.Image, error) {
	if raw.Page != 0 {
		return nil, fmt.Errorf("%w: raster image has no page %d", domain.ErrInvalidInput, raw.Page)
	}
	img, _, err := image.Decode(bytes.NewReader(raw.Content))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUnsupportedFormat, err)
	}
	return img, nil
}
