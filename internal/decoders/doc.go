// Package decoders provides implementations of the MediaDecoder interface
// for the upload formats the pipeline accepts. Each decoder knows how to
// turn one family of MIME types into page rasters.
//
// Decoders are registered with the Registry at startup.
package decoders
