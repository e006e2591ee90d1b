// Package connectors holds the sources documents arrive from other than a
// direct upload. Each connector turns files it discovers into submissions
// to the ingestion service.
package connectors
