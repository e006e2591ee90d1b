package services

import (
	"context"
	"errors"
	"fmt"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/palimpsest/internal/core/domain"
	"github.com/custodia-labs/palimpsest/internal/core/ports/driven"
)

// textPage draws solid bars standing in for lines of text. Each entry is a
// [top, bottom) row range.
func textPage(lines ...[2]int) *domain.CanonicalImage {
	g := image.NewGray(image.Rect(0, 0, 200, 200))
	for i := range g.Pix {
		g.Pix[i] = 255
	}
	for _, l := range lines {
		for y := l[0]; y < l[1]; y++ {
			for x := 20; x < 180; x++ {
				g.Pix[y*g.Stride+x] = 0
			}
		}
	}
	return &domain.CanonicalImage{Gray: g}
}

// twoBlockPage has two close lines followed by a distant third.
func twoBlockPage() *domain.CanonicalImage {
	return textPage([2]int{10, 18}, [2]int{24, 32}, [2]int{80, 88})
}

// rowRecognizer names each crop by its top edge.
func rowRecognizer(confidence float64) *mockRecognizer {
	return &mockRecognizer{recognize: func(_ context.Context, img image.Image, _ []string) (driven.Recognition, error) {
		return driven.Recognition{Text: fmt.Sprintf("block at %d", img.Bounds().Min.Y), Confidence: confidence}, nil
	}}
}

func TestSegmentBlocks(t *testing.T) {
	blocks := segmentBlocks(twoBlockPage().Gray)

	require.Len(t, blocks, 2)
	assert.Equal(t, image.Rect(18, 8, 182, 34), blocks[0])
	assert.Equal(t, image.Rect(18, 78, 182, 90), blocks[1])
}

func TestSegmentBlocks_BlankPage(t *testing.T) {
	assert.Empty(t, segmentBlocks(textPage().Gray))
	assert.Empty(t, segmentBlocks(nil))
}

func TestOCREngine_Extract(t *testing.T) {
	engine := NewOCREngine(rowRecognizer(0.8))

	ext, err := engine.Extract(context.Background(), twoBlockPage(), domain.LanguageEnglish)

	require.NoError(t, err)
	require.Len(t, ext.Regions, 2)
	assert.Equal(t, "block at 8", ext.Regions[0].Text)
	assert.Equal(t, 0, ext.Regions[0].Index)
	assert.Equal(t, 1, ext.Regions[1].Index)
	assert.Equal(t, &domain.BoundingBox{X: 18, Y: 78, Width: 164, Height: 12}, ext.Regions[1].Bounds)
	assert.InDelta(t, 0.8, ext.Confidence, 1e-9)
	assert.Equal(t, "block at 8\n\nblock at 78", ext.Text())
}

func TestOCREngine_Deterministic(t *testing.T) {
	engine := NewOCREngine(rowRecognizer(0.7))

	first, err := engine.Extract(context.Background(), twoBlockPage(), domain.LanguageTamil)
	require.NoError(t, err)
	second, err := engine.Extract(context.Background(), twoBlockPage(), domain.LanguageTamil)
	require.NoError(t, err)

	assert.Equal(t, first.Regions, second.Regions)
	assert.Equal(t, first.Confidence, second.Confidence)
}

func TestOCREngine_ConfidenceBound(t *testing.T) {
	tests := []struct {
		name       string
		confidence float64
		want       float64
	}{
		{"perfect", 1.0, 1.0},
		{"partial", 0.5, 0.5},
		{"over range clamped", 1.7, 1.0},
		{"negative clamped", -0.2, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext, err := NewOCREngine(rowRecognizer(tt.confidence)).
				Extract(context.Background(), twoBlockPage(), domain.LanguageEnglish)

			require.NoError(t, err)
			assert.GreaterOrEqual(t, ext.Confidence, 0.0)
			assert.LessOrEqual(t, ext.Confidence, 1.0)
			assert.InDelta(t, tt.want, ext.Confidence, 1e-9)
		})
	}
}

func TestOCREngine_FailedBlockIsEmptyRegion(t *testing.T) {
	rec := &mockRecognizer{recognize: func(_ context.Context, img image.Image, _ []string) (driven.Recognition, error) {
		if img.Bounds().Min.Y > 50 {
			return driven.Recognition{}, errors.New("tesseract: page too small")
		}
		return driven.Recognition{Text: "Survey No. 14", Confidence: 1.0}, nil
	}}

	ext, err := NewOCREngine(rec).Extract(context.Background(), twoBlockPage(), domain.LanguageEnglish)

	require.NoError(t, err)
	require.Len(t, ext.Regions, 2)
	assert.Empty(t, ext.Regions[1].Text)
	assert.Zero(t, ext.Regions[1].Confidence)
	assert.Less(t, ext.Confidence, 1.0)
	assert.Equal(t, "Survey No. 14", ext.Text())
}

func TestOCREngine_NFC(t *testing.T) {
	ext, err := NewOCREngine(fixedRecognizer(" Mysore Re\u0301gime ", 0.9)).
		Extract(context.Background(), textPage([2]int{10, 20}), domain.LanguageEnglish)

	require.NoError(t, err)
	require.Len(t, ext.Regions, 1)
	assert.Equal(t, "Mysore R\u00e9gime", ext.Regions[0].Text)
}

func TestOCREngine_ExtractPages(t *testing.T) {
	second := twoBlockPage()
	second.Page = 1

	ext, err := NewOCREngine(rowRecognizer(0.9)).
		ExtractPages(context.Background(), []*domain.CanonicalImage{twoBlockPage(), second}, domain.LanguageHindi)

	require.NoError(t, err)
	require.Len(t, ext.Regions, 4)
	for i, r := range ext.Regions {
		assert.Equal(t, i, r.Index)
	}
	assert.Equal(t, 1, ext.Regions[3].Page)
}

func TestOCREngine_Errors(t *testing.T) {
	t.Run("nil image", func(t *testing.T) {
		_, err := NewOCREngine(rowRecognizer(1)).Extract(context.Background(), nil, domain.LanguageEnglish)
		assert.ErrorIs(t, err, domain.ErrExtractionFailure)
	})

	t.Run("zero area", func(t *testing.T) {
		img := &domain.CanonicalImage{Gray: image.NewGray(image.Rectangle{})}
		_, err := NewOCREngine(rowRecognizer(1)).Extract(context.Background(), img, domain.LanguageEnglish)
		assert.ErrorIs(t, err, domain.ErrExtractionFailure)
	})

	t.Run("no recognizer", func(t *testing.T) {
		_, err := NewOCREngine(nil).Extract(context.Background(), twoBlockPage(), domain.LanguageEnglish)
		assert.ErrorIs(t, err, domain.ErrOCRUnavailable)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := NewOCREngine(rowRecognizer(1)).Extract(ctx, twoBlockPage(), domain.LanguageEnglish)
		assert.ErrorIs(t, err, domain.ErrTimeout)
	})

	t.Run("deadline inside recognizer", func(t *testing.T) {
		rec := &mockRecognizer{recognize: func(context.Context, image.Image, []string) (driven.Recognition, error) {
			return driven.Recognition{}, context.DeadlineExceeded
		}}
		_, err := NewOCREngine(rec).Extract(context.Background(), twoBlockPage(), domain.LanguageEnglish)
		assert.ErrorIs(t, err, domain.ErrTimeout)
	})
}

func TestRecognitionLanguages(t *testing.T) {
	assert.Equal(t, []string{"eng"}, recognitionLanguages(domain.LanguageEnglish))
	assert.Equal(t, []string{"tam", "eng"}, recognitionLanguages(domain.LanguageTamil))
	assert.Equal(t, []string{"eng", "hin", "tam"}, recognitionLanguages(domain.LanguageUndetermined))
}
