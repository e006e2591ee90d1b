// Package cgo groups the native bindings. Nothing under internal/ imports
// C, so the rest of the module builds with CGO_ENABLED=0.
//
//   - tesseract: the OCR engine, backed by gosseract. Built without cgo it
//     reports ErrOCRUnavailable and ingestion fails at the detect stage.
package cgo
