// Package tesseract provides a Recognizer backed by Tesseract through
// gosseract.
//
// Build requires:
//   - Tesseract and Leptonica development libraries
//   - Install via: brew install tesseract (macOS) or apt install libtesseract-dev (Linux)
//   - Trained data for eng, hin and tam in TESSDATA_PREFIX
//
// Builds without CGO get a stub whose Recognize returns domain.ErrOCRUnavailable.
package tesseract
