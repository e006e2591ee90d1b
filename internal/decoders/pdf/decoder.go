// Package pdf decodes scanned PDFs by extracting the page scans they embed.
package pdf

import (
	"bytes"
	"fmt"
	"image"
	"strconv"

	// Codecs for the image streams pdfcpu extracts.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/tiff"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/custodia-labs/palimpsest/internal/core/domain"
	"github.com/custodia-labs/palimpsest/internal/core/ports/driven"
)

// Ensure Decoder implements the interface.
var _ driven.MediaDecoder = (*Decoder)(nil)

// Decoder reads page counts and page scans from PDFs with pdfcpu.
// Each page is expected to carry its scan as an embedded image; the
// largest image on a page is taken as the page.
type Decoder struct {
	conf *model.Configuration
}

// New creates a new PDF decoder.
func New() *Decoder {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &Decoder{conf: conf}
}

// SupportedMIMETypes returns the MIME types this decoder handles.
func (d *Decoder) SupportedMIMETypes() []string {
	return []string{"application/pdf"}
}

// Priority returns the selection priority.
func (d *Decoder) Priority() int {
	return 60
}

// PageCount returns the number of pages in the PDF.
func (d *Decoder) PageCount(raw domain.RawImage) (int, error) {
	pdfCtx, err := api.ReadContext(bytes.NewReader(raw.Content), d.conf)
	if err != nil {
		return 0, fmt.Errorf("%w: read pdf: %w", domain.ErrUnsupportedFormat, err)
	}
	if pdfCtx.PageCount == 0 {
		return 0, fmt.Errorf("%w: pdf has no pages", domain.ErrUnsupportedFormat)
	}
	return pdfCtx.PageCount, nil
}

// DecodePage returns the scan embedded in page raw.Page.
func (d *Decoder) DecodePage(raw domain.RawImage) (image.Image, error) {
	if raw.Page < 0 {
		return nil, fmt.Errorf("%w: page %d", domain.ErrInvalidInput, raw.Page)
	}

	pageNr := raw.Page + 1
	pages, err := api.ExtractImagesRaw(bytes.NewReader(raw.Content), []string{strconv.Itoa(pageNr)}, d.conf)
	if err != nil {
		return nil, fmt.Errorf("%w: extract page %d images: %w", domain.ErrUnsupportedFormat, pageNr, err)
	}

	var best *model.Image
	for _, images := range pages {
		for objNr := range images {
			img := images[objNr]
			if img.PageNr != pageNr {
				continue
			}
			if best == nil || img.Width*img.Height > best.Width*best.Height ||
				(img.Width*img.Height == best.Width*best.Height && img.ObjNr < best.ObjNr) {
				best = &img
			}
		}
	}
	if best == nil {
		return nil, fmt.Errorf("%w: page %d has no embedded scan", domain.ErrUnsupportedFormat, pageNr)
	}

	decoded, _, err := image.Decode(best)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s scan on page %d: %w", domain.ErrUnsupportedFormat, best.FileType, pageNr, err)
	}
	return decoded, nil
}
