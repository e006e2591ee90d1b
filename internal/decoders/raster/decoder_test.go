package raster

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"

	"github.com/custodia-labs/palimpsest/internal/core/domain"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDecoder_DecodePNG(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 3))
	src.Set(1, 1, color.RGBA{R: 255, A: 255})

	d := New()
	raw := domain.RawImage{MIMEType: "image/png", Content: encodePNG(t, src)}

	pages, err := d.PageCount(raw)
	require.NoError(t, err)
	assert.Equal(t, 1, pages)

	img, err := d.DecodePage(raw)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4, 3), img.Bounds())
}

func TestDecoder_DecodeBMP(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, bmp.Encode(&buf, image.NewGray(image.Rect(0, 0, 5, 5))))

	img, err := New().DecodePage(domain.RawImage{MIMEType: "image/bmp", Content: buf.Bytes()})
	require.NoError(t, err)
	assert.Equal(t, 5, img.Bounds().Dx())
}

func TestDecoder_Garbage(t *testing.T) {
	d := New()
	raw := domain.RawImage{MIMEType: "image/png", Content: []byte("not an image")}

	_, err := d.PageCount(raw)
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)

	_, err = d.DecodePage(raw)
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}

func TestDecoder_PageOutOfRange(t *testing.T) {
	raw := domain.RawImage{MIMEType: "image/png", Content: encodePNG(t, image.NewGray(image.Rect(0, 0, 2, 2))), Page: 1}

	_, err := New().DecodePage(raw)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
