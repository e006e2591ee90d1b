// Package services is the document intelligence core.
//
// A submitted scan moves through four stages, each persisted before the
// next begins:
//
//	uploaded → preprocessed → detected → extracted → indexed
//	                    (any stage) → failed
//
// Preprocessor, Detector, OCREngine and DocumentIndex implement the stages;
// IngestionService runs them on a bounded worker pool and Recovery resumes
// documents an earlier process left part-way. QueryEngine answers questions
// over the index and TranslationService translates text between English,
// Hindi and Tamil, pivoting through English.
//
// Everything here talks to the outside world through driven ports, so the
// package builds without cgo.
package services
