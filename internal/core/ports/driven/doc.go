// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - MediaDecoder / DecoderRegistry: Turns uploaded bytes into page rasters
//   - Recognizer: Reads text from a page region (Tesseract)
//   - DocumentStore: Document and chunk persistence
//   - VectorIndex: Exact cosine search over chunk embeddings
//   - EmbeddingService: Generates chunk and question embeddings
//   - MediaStore: Keeps the original uploaded bytes
//   - ConfigStore: Application configuration
//   - ChunkPipeline / PostProcessor: Splits extracted text into chunks
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - LLMService: Language model operations. Without it, answers are extractive
//     and translation needs another backend.
//   - TranslationBackend: Without it, translation requests fail.
//   - Gazetteer: Without it, no proper nouns are protected.
//   - PromptStore / AIConfigValidator: Without them, built-in prompts are
//     used and provider settings are saved unchecked.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or decoder package
package driven
