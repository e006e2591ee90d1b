// Package domain holds the types every layer of Palimpsest shares:
//
//   - Document: a scanned source and where it is in the ingestion pipeline
//   - TextRegion: one span of OCR output with its own confidence
//   - Chunk: the slice of extracted text that retrieval ranks
//   - RawImage, CanonicalImage: media before and after preprocessing
//   - Language: English, Hindi and Tamil, and the scripts they are written in
//
// Sentinel errors live here too, so adapters can classify failures with
// errors.Is without importing the services.
//
// It imports only the standard library; everything else imports domain.
package domain
