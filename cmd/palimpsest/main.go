// Command palimpsest reads, translates and answers questions over scanned
// archival documents in English, Hindi and Tamil.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/custodia-labs/palimpsest/cgo/tesseract"
	"github.com/custodia-labs/palimpsest/internal/adapters/driven/ai"
	"github.com/custodia-labs/palimpsest/internal/adapters/driven/config/file"
	"github.com/custodia-labs/palimpsest/internal/adapters/driven/storage/badger"
	"github.com/custodia-labs/palimpsest/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/palimpsest/internal/adapters/driven/storage/sqlite"
	llmtranslation "github.com/custodia-labs/palimpsest/internal/adapters/driven/translation/llm"
	"github.com/custodia-labs/palimpsest/internal/adapters/driving/cli"
	"github.com/custodia-labs/palimpsest/internal/core/domain"
	"github.com/custodia-labs/palimpsest/internal/core/ports/driven"
	"github.com/custodia-labs/palimpsest/internal/core/services"
	"github.com/custodia-labs/palimpsest/internal/decoders"
	"github.com/custodia-labs/palimpsest/internal/decoders/pdf"
	"github.com/custodia-labs/palimpsest/internal/decoders/raster"
	"github.com/custodia-labs/palimpsest/internal/logger"
	"github.com/custodia-labs/palimpsest/internal/postprocessors"
)

// version is set at build time with -ldflags "-X main.version=1.2.3".
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	for _, arg := range os.Args[1:] {
		if arg == "-v" || arg == "--verbose" {
			logger.SetVerbose(true)
		}
	}

	configDir, err := file.DefaultDir()
	if err != nil {
		return err
	}
	configStore, err := file.NewConfigStore(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("reading settings: %w", err)
	}
	if err := settingsService.Validate(); err != nil {
		logger.Warn("settings: %v", err)
	}

	aiResult, err := ai.Initialise(*settings)
	if err != nil {
		return err
	}
	defer aiResult.Close()
	for _, w := range aiResult.Warnings {
		logger.Warn("%s", w)
	}
	if aiResult.FellBack {
		logger.Warn("%s embeddings are unavailable; searching with %s until they are back",
			settings.Embedding.Provider, aiResult.EmbeddingService.ModelID())
	}

	dataDir := filepath.Join(configDir, "data")
	documents, media, closeStorage, err := openStorage(settings.Storage.Backend, dataDir)
	if err != nil {
		return err
	}
	defer closeStorage()

	recognizer, err := tesseract.New(settings.Pipeline.TessdataPrefix)
	if err != nil {
		return fmt.Errorf("starting OCR: %w", err)
	}
	defer recognizer.Close()

	pipeline, err := postprocessors.NewIndexingPipeline(settings.Chunking)
	if err != nil {
		return fmt.Errorf("building indexing pipeline: %w", err)
	}

	embedder := aiResult.EmbeddingService
	vectors := memory.NewVectorIndex(embedder.Dimensions())
	defer vectors.Close()
	index := services.NewDocumentIndex(documents, vectors, embedder, pipeline)
	// A fallback embedder is temporary, so documents embedded by the
	// configured model are not rewritten under it.
	loaded, err := index.Load(ctx, !aiResult.FellBack)
	if err != nil {
		return fmt.Errorf("loading index: %w", err)
	}
	logger.Debug("loaded %d chunks into the vector index", loaded)

	ingestion := services.NewIngestionService(
		documents,
		media,
		services.NewPreprocessor(decoders.NewRegistry(raster.New(), pdf.New())),
		services.NewDetector(recognizer, settings.Pipeline.DetectionThreshold, settings.Pipeline.DetectionEpsilon),
		services.NewOCREngine(recognizer),
		index,
		services.WithWorkers(settings.Pipeline.Workers),
		services.WithOCRTimeout(settings.Pipeline.OCRTimeout),
	)
	defer ingestion.Close()

	prompts, err := file.NewPromptStore(filepath.Join(configDir, "prompts"))
	if err != nil {
		return err
	}
	gazetteer, err := file.LoadGazetteer(filepath.Join(configDir, file.GazetteerFile))
	if err != nil {
		return fmt.Errorf("loading gazetteer: %w", err)
	}

	llm := aiResult.LLMService
	var backends []driven.TranslationBackend
	if llm != nil {
		backend := llmtranslation.NewBackend(llm, settings.Translation.MaxSegmentRunes)
		backend.SetPromptStore(prompts)
		backends = append(backends, backend)
	}
	translation := services.NewTranslationService(backends,
		services.WithDocumentStore(documents),
		services.WithGazetteer(gazetteer),
		services.WithPreservedClasses(settings.Translation.PreserveClasses),
		services.WithTranslationTimeout(settings.Translation.Timeout),
		services.WithMaxSegmentRunes(settings.Translation.MaxSegmentRunes),
		services.WithTranslationCache(settings.Translation.CacheEntries),
	)
	defer translation.Close()

	var generator driven.AnswerGenerator
	if settings.Retrieval.AnswerMode == domain.AnswerModeLLM {
		if llm != nil {
			g := services.NewLLMGenerator(llm)
			g.SetPromptStore(prompts)
			generator = g
		} else {
			logger.Warn("answer mode %q has no LLM; answering extractively", domain.AnswerModeLLM)
		}
	}
	query := services.NewQueryEngine(documents, vectors, embedder, generator, settings.Retrieval.MinRelevance)

	cli.SetServices(cli.Services{
		Ingestion:   ingestion,
		Document:    services.NewDocumentService(documents, media, index, ingestion),
		Translation: translation,
		Query:       query,
		Settings:    settingsService,
		Recovery:    services.NewRecovery(documents, ingestion),
		Actions:     services.NewActionService(documents, media),
	})
	cli.SetVersion(version)

	return cli.ExecuteContext(ctx)
}

// openStorage opens the document and media stores for backend. The memory
// backend keeps nothing between runs.
func openStorage(backend domain.StorageBackend, dataDir string) (driven.DocumentStore, driven.MediaStore, func(), error) {
	if backend == domain.StorageMemory {
		logger.Debug("using in-memory storage")
		media := memory.NewMediaStore()
		return memory.NewDocumentStore(), media, func() { _ = media.Close() }, nil
	}

	store, err := sqlite.NewStore(dataDir)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("opening document store: %w", err)
	}
	media, err := badger.NewMediaStore(dataDir)
	if err != nil {
		_ = store.Close()
		return nil, nil, nil, fmt.Errorf("%w (is another palimpsest process running?)", err)
	}

	closeAll := func() {
		if err := media.Close(); err != nil {
			logger.Warn("closing media store: %v", err)
		}
		if err := store.Close(); err != nil {
			logger.Warn("closing document store: %v", err)
		}
	}
	return store.DocumentStore(), media, closeAll, nil
}
