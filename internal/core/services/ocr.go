package services

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/custodia-labs/palimpsest/internal/core/domain"
	"github.com/custodia-labs/palimpsest/internal/core/ports/driven"
	"github.com/custodia-labs/palimpsest/internal/logger"
)

// Extraction is the text read from one or more canonical pages.
type Extraction struct {
	// Regions are in reading order: page, then top to bottom.
	Regions []domain.TextRegion

	// Confidence is the rune-weighted mean of the region confidences.
	Confidence float64

	// Duration is the wall time spent recognising.
	Duration time.Duration
}

// Text joins the non-empty regions.
func (e *Extraction) Text() string {
	doc := domain.Document{Regions: e.Regions}
	return doc.Text()
}

// OCREngine reads text regions from canonical pages.
type OCREngine struct {
	recognizer driven.Recognizer
}

// NewOCREngine creates an OCR engine backed by the given recognizer.
func NewOCREngine(recognizer driven.Recognizer) *OCREngine {
	return &OCREngine{recognizer: recognizer}
}

// Extract reads a single page.
func (e *OCREngine) Extract(ctx context.Context, img *domain.CanonicalImage, lang domain.Language) (*Extraction, error) {
	return e.ExtractPages(ctx, []*domain.CanonicalImage{img}, lang)
}

// ExtractPages reads every page in order. Region indices run across pages.
func (e *OCREngine) ExtractPages(ctx context.Context, pages []*domain.CanonicalImage, lang domain.Language) (*Extraction, error) {
	if e.recognizer == nil {
		return nil, domain.ErrOCRUnavailable
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("%w: no pages", domain.ErrExtractionFailure)
	}
	for _, page := range pages {
		if page == nil || page.Empty() {
			return nil, fmt.Errorf("%w: empty image", domain.ErrExtractionFailure)
		}
	}

	start := time.Now()
	languages := recognitionLanguages(lang)
	logger.Debug("Extracting %d page(s) with %s %v", len(pages), e.recognizer.Name(), languages)

	var regions []domain.TextRegion
	for _, page := range pages {
		for _, block := range segmentBlocks(page.Gray) {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("%w: extraction: %w", domain.ErrTimeout, err)
			}
			region, err := e.recognizeBlock(ctx, page, block, languages)
			if err != nil {
				return nil, err
			}
			region.Index = len(regions)
			regions = append(regions, region)
		}
	}

	ext := &Extraction{
		Regions:    regions,
		Confidence: overallConfidence(regions),
		Duration:   time.Since(start),
	}
	logger.Debug("Extracted %d region(s), confidence %.2f in %s", len(regions), ext.Confidence, ext.Duration)
	return ext, nil
}

// recognizeBlock reads one block. Recognition failures other than
// cancellation yield an empty region.
func (e *OCREngine) recognizeBlock(ctx context.Context, page *domain.CanonicalImage, block image.Rectangle, languages []string) (domain.TextRegion, error) {
	region := domain.TextRegion{
		Page: page.Page,
		Bounds: &domain.BoundingBox{
			X: block.Min.X, Y: block.Min.Y, Width: block.Dx(), Height: block.Dy(),
		},
	}

	crop := page.Gray.SubImage(block)
	rec, err := e.recognizer.Recognize(ctx, crop, languages)
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return region, fmt.Errorf("%w: extraction: %w", domain.ErrTimeout, err)
		}
		logger.Debug("Block %v on page %d unreadable: %v", block, page.Page, err)
		return region, nil
	}

	text := norm.NFC.String(strings.TrimSpace(rec.Text))
	if text == "" {
		return region, nil
	}
	region.Text = text
	region.Confidence = clampUnit(rec.Confidence)
	return region, nil
}

// recognitionLanguages returns the Tesseract models for a document
// language. English is always loaded alongside, since administrative
// records mix it into vernacular pages. Undetermined pages use every model.
func recognitionLanguages(lang domain.Language) []string {
	info, ok := lang.Info()
	if !ok {
		return domain.TesseractCodes()
	}
	codes := []string{info.TesseractCode}
	if eng, _ := domain.LanguageEnglish.Info(); lang != domain.LanguageEnglish {
		codes = append(codes, eng.TesseractCode)
	}
	return codes
}

// overallConfidence weights each region by its rune count, with a minimum
// weight of one so empty regions pull the mean down.
func overallConfidence(regions []domain.TextRegion) float64 {
	var sum, weights float64
	for _, r := range regions {
		w := float64(max(utf8.RuneCountInString(r.Text), 1))
		sum += r.Confidence * w
		weights += w
	}
	if weights == 0 {
		return 0
	}
	return clampUnit(sum / weights)
}

func clampUnit(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
