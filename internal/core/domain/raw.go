package domain

import "strings"

// MaxUploadBytes is the largest accepted upload.
const MaxUploadBytes = 10 << 20

// RawImage is uploaded media before preprocessing: a raster image or a PDF.
type RawImage struct {
	// Filename is the original base name, if known.
	Filename string

	// MIMEType is the declared content type (image/* or application/pdf).
	MIMEType string

	// Content is the raw bytes.
	Content []byte

	// Page selects a page of a multi-page source. Zero-based.
	Page int
}

// IsPDF returns true if the media is declared as a PDF.
func (r RawImage) IsPDF() bool {
	return strings.EqualFold(r.MIMEType, "application/pdf")
}

// IsRaster returns true if the media is declared as an image.
func (r RawImage) IsRaster() bool {
	return strings.HasPrefix(strings.ToLower(r.MIMEType), "image/")
}

// IsAcceptedMIME returns true for the content types uploads may declare.
func IsAcceptedMIME(mime string) bool {
	r := RawImage{MIMEType: mime}
	return r.IsPDF() || r.IsRaster()
}
