package services

import (
	"fmt"
	"image"

	"github.com/custodia-labs/palimpsest/internal/core/domain"
	"github.com/custodia-labs/palimpsest/internal/core/ports/driven"
	"github.com/custodia-labs/palimpsest/internal/logger"
)

// Preprocessor turns uploaded media into canonical page rasters.
// It is a pure transform: nothing is stored and nothing is logged above Debug.
type Preprocessor struct {
	decoders driven.DecoderRegistry
}

// NewPreprocessor creates a preprocessor that decodes media with the given registry.
func NewPreprocessor(decoders driven.DecoderRegistry) *Preprocessor {
	return &Preprocessor{decoders: decoders}
}

// PageCount returns the number of pages in the media.
func (p *Preprocessor) PageCount(raw domain.RawImage) (int, error) {
	if !raw.IsPDF() && !raw.IsRaster() {
		return 0, fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, raw.MIMEType)
	}
	dec, err := p.decoders.Lookup(raw.MIMEType)
	if err != nil {
		return 0, err
	}
	return dec.PageCount(raw)
}

// Normalize decodes page raw.Page and returns its canonical form.
// Normalizing the encoded output again yields the same pixels.
func (p *Preprocessor) Normalize(raw domain.RawImage) (*domain.CanonicalImage, error) {
	if !raw.IsPDF() && !raw.IsRaster() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, raw.MIMEType)
	}
	dec, err := p.decoders.Lookup(raw.MIMEType)
	if err != nil {
		return nil, err
	}
	img, err := dec.DecodePage(raw)
	if err != nil {
		return nil, err
	}
	return NormalizeImage(img, raw.Page)
}

// NormalizeAll returns the canonical form of every page.
func (p *Preprocessor) NormalizeAll(raw domain.RawImage) ([]*domain.CanonicalImage, error) {
	count, err := p.PageCount(raw)
	if err != nil {
		return nil, err
	}

	pages := make([]*domain.CanonicalImage, 0, count)
	for page := 0; page < count; page++ {
		raw.Page = page
		canonical, err := p.Normalize(raw)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page+1, err)
		}
		pages = append(pages, canonical)
	}
	return pages, nil
}

// NormalizeImage applies grayscale, deskew, denoise and contrast
// normalisation, in that order.
func NormalizeImage(img image.Image, page int) (*domain.CanonicalImage, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty image", domain.ErrUnsupportedFormat)
	}

	gray := toGray(img)

	skew := estimateSkew(gray)
	if skew != 0 {
		logger.Debug("Deskewing page %d by %.1f degrees", page, skew)
		gray = rotate(gray, skew)
	}

	gray = medianRoot(gray)
	gray = stretchContrast(gray)

	return &domain.CanonicalImage{Gray: gray, Page: page, SkewDegrees: skew}, nil
}
