// Package driving holds the use cases the CLI, the MCP server and the TUI
// call into: ingestion, documents, questions, translation, recovery
// actions and settings.
//
// internal/core/services implements every interface here; adapters never
// reach past these ports into the services themselves.
package driving
