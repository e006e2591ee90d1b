package domain

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
)

// CanonicalImage is a preprocessed page: 8-bit grayscale, deskewed,
// denoised and contrast-normalised.
type CanonicalImage struct {
	// Gray holds the pixels.
	Gray *image.Gray

	// Page is the zero-based page the image came from.
	Page int

	// SkewDegrees is the rotation that was corrected, if any.
	SkewDegrees float64
}

// Bounds returns the pixel bounds.
func (c *CanonicalImage) Bounds() image.Rectangle {
	if c == nil || c.Gray == nil {
		return image.Rectangle{}
	}
	return c.Gray.Bounds()
}

// Empty returns true when there are no pixels to read.
func (c *CanonicalImage) Empty() bool {
	return c.Bounds().Empty()
}

// Encode renders the page as PNG so it can be stored or fed back to the
// preprocessor.
func (c *CanonicalImage) Encode() (RawImage, error) {
	if c.Empty() {
		return RawImage{}, fmt.Errorf("encode canonical image: %w", ErrInvalidInput)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, c.Gray); err != nil {
		return RawImage{}, fmt.Errorf("encode canonical image: %w", err)
	}
	return RawImage{MIMEType: "image/png", Content: buf.Bytes()}, nil
}
