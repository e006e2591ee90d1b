// Package sqlite stores documents and chunks in one SQLite database through
// modernc.org/sqlite, which needs no cgo. Tables:
//
//   - documents: pipeline state, detected language and OCR regions (JSON)
//   - chunks: indexed text windows with little-endian float32 embeddings
//   - document_sequences: the last DOC-<year>-<seq> number issued per year
//
// Migrations under migrations/ run in order on open. The default location
// is ~/.palimpsest/data/palimpsest.db. WAL mode lets queries read while the
// pipeline writes.
package sqlite
