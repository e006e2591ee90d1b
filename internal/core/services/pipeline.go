package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/palimpsest/internal/core/domain"
	"github.com/custodia-labs/palimpsest/internal/core/ports/driven"
	"github.com/custodia-labs/palimpsest/internal/core/ports/driving"
	"github.com/custodia-labs/palimpsest/internal/logger"
)

// Ensure IngestionService implements the interface.
var _ driving.IngestionService = (*IngestionService)(nil)

// IngestionService runs uploads through preprocess, detect, extract and
// index. Documents proceed in parallel up to the worker limit; the stages
// of one document run strictly in order.
type IngestionService struct {
	documents    driven.DocumentStore
	media        driven.MediaStore
	preprocessor *Preprocessor
	detector     *Detector
	ocr          *OCREngine
	index        *DocumentIndex
	ocrTimeout   time.Duration

	workers chan struct{}
	locks   *keyLock
	now     func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// IngestionOption configures an IngestionService.
type IngestionOption func(*IngestionService)

// WithWorkers bounds how many documents are processed at once.
func WithWorkers(n int) IngestionOption {
	return func(s *IngestionService) {
		if n > 0 {
			s.workers = make(chan struct{}, n)
		}
	}
}

// WithOCRTimeout bounds each detection and extraction call.
func WithOCRTimeout(d time.Duration) IngestionOption {
	return func(s *IngestionService) {
		if d > 0 {
			s.ocrTimeout = d
		}
	}
}

// NewIngestionService creates the pipeline orchestrator.
func NewIngestionService(
	documents driven.DocumentStore,
	media driven.MediaStore,
	preprocessor *Preprocessor,
	detector *Detector,
	ocr *OCREngine,
	index *DocumentIndex,
	opts ...IngestionOption,
) *IngestionService {
	ctx, cancel := context.WithCancel(context.Background())
	s := &IngestionService{
		documents:    documents,
		media:        media,
		preprocessor: preprocessor,
		detector:     detector,
		ocr:          ocr,
		index:        index,
		ocrTimeout:   domain.DefaultOCRTimeout,
		workers:      make(chan struct{}, domain.DefaultWorkers),
		locks:        newKeyLock(),
		now:          time.Now,
		ctx:          ctx,
		cancel:       cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit validates and stores the upload, allocates a document ID and
// starts processing in the background.
func (s *IngestionService) Submit(ctx context.Context, upload driving.Upload) (string, error) {
	if len(upload.Content) == 0 {
		return "", fmt.Errorf("%w: upload is empty", domain.ErrInvalidInput)
	}
	if len(upload.Content) > domain.MaxUploadBytes {
		return "", fmt.Errorf("%w: upload is %d bytes, limit is %d", domain.ErrInvalidInput, len(upload.Content), domain.MaxUploadBytes)
	}
	if !domain.IsAcceptedMIME(upload.MIMEType) {
		return "", fmt.Errorf("%w: %q is not an image or PDF", domain.ErrUnsupportedFormat, upload.MIMEType)
	}

	ref, err := s.media.Put(ctx, upload.MIMEType, upload.Content)
	if err != nil {
		return "", fmt.Errorf("store media: %w", err)
	}

	now := s.now()
	seq, err := s.documents.NextDocumentSequence(ctx, now.Year())
	if err != nil {
		_ = s.media.Delete(context.WithoutCancel(ctx), ref)
		return "", fmt.Errorf("allocate document id: %w", err)
	}

	doc := &domain.Document{
		ID:        domain.FormatDocumentID(now.Year(), seq),
		MediaRef:  ref,
		Filename:  upload.Filename,
		MIMEType:  upload.MIMEType,
		Status:    domain.StatusUploaded,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.documents.SaveDocument(ctx, doc); err != nil {
		_ = s.media.Delete(context.WithoutCancel(ctx), ref)
		return "", fmt.Errorf("save document: %w", err)
	}

	unlock, ok := s.locks.TryLock(doc.ID)
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrIngestInProgress, doc.ID)
	}
	s.start(doc.ID, unlock)

	logger.Info("Submitted %s (%s, %d bytes)", doc.ID, upload.MIMEType, len(upload.Content))
	return doc.ID, nil
}

// Reprocess resumes a document after its last completed stage. A failed
// document starts again from its uploaded media. An indexed document is
// only accepted when its chunks were embedded by another model; it is then
// re-embedded from its extracted text.
func (s *IngestionService) Reprocess(ctx context.Context, documentID string) error {
	unlock, ok := s.locks.TryLock(documentID)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrIngestInProgress, documentID)
	}

	doc, err := s.documents.GetDocument(ctx, documentID)
	if err != nil {
		unlock()
		return err
	}

	switch doc.Status {
	case domain.StatusIndexed:
		stale, err := s.index.Stale(ctx, documentID)
		if err != nil {
			unlock()
			return err
		}
		if !stale {
			unlock()
			return fmt.Errorf("%w: %s is already indexed", domain.ErrInvalidInput, documentID)
		}
		logger.Info("Re-embedding %s", documentID)
	case domain.StatusFailed:
		reset(doc, s.now())
		if err := s.documents.SaveDocument(ctx, doc); err != nil {
			unlock()
			return fmt.Errorf("reset document: %w", err)
		}
		logger.Info("Restarting %s from upload", documentID)
	default:
		logger.Info("Resuming %s after %s", documentID, doc.Status)
	}

	s.start(documentID, unlock)
	return nil
}

// Status reports a document's progress.
func (s *IngestionService) Status(ctx context.Context, documentID string) (*driving.StatusReport, error) {
	doc, err := s.documents.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	return statusReport(doc), nil
}

// Wait blocks until the document's current run finishes or ctx ends. A
// document that stopped on a timeout is returned in its last completed
// state.
func (s *IngestionService) Wait(ctx context.Context, documentID string) (*driving.StatusReport, error) {
	unlock, err := s.locks.Lock(ctx, documentID)
	if err != nil {
		report, statusErr := s.Status(context.WithoutCancel(ctx), documentID)
		if statusErr != nil {
			return nil, err
		}
		return report, err
	}
	unlock()
	return s.Status(ctx, documentID)
}

// Close stops accepting work, cancels running stages and waits for them.
// Interrupted documents keep their last completed state.
func (s *IngestionService) Close() error {
	s.cancel()
	s.wg.Wait()
	return nil
}

// start runs the pipeline for a document whose lock the caller holds.
func (s *IngestionService) start(documentID string, unlock func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer unlock()

		select {
		case s.workers <- struct{}{}:
			defer func() { <-s.workers }()
		case <-s.ctx.Done():
			return
		}

		if err := s.run(s.ctx, documentID); err != nil {
			logger.Warn("Ingestion of %s stopped: %v", documentID, err)
		}
	}()
}

// run advances the document through the remaining stages. Page rasters are
// recomputed from the stored media whenever a later stage needs them.
func (s *IngestionService) run(ctx context.Context, documentID string) error {
	logger.Section("Ingest " + documentID)
	start := time.Now()

	doc, err := s.documents.GetDocument(ctx, documentID)
	if err != nil {
		return err
	}

	var pages []*domain.CanonicalImage
	loadPages := func() error {
		if pages != nil {
			return nil
		}
		content, mime, err := s.media.Get(ctx, doc.MediaRef)
		if err != nil {
			return fmt.Errorf("load media: %w", err)
		}
		raw := domain.RawImage{Filename: doc.Filename, MIMEType: mime, Content: content}
		pages, err = s.preprocessor.NormalizeAll(raw)
		return err
	}

	if doc.Status == domain.StatusUploaded {
		done := logger.Timed("preprocess %s", doc.ID)
		if err := loadPages(); err != nil {
			return s.fail(ctx, doc, domain.StagePreprocess, err)
		}
		doc.PageCount = len(pages)
		if err := s.advance(ctx, doc, domain.StatusPreprocessed); err != nil {
			return err
		}
		done()
		logger.Debug("Preprocessed %d page(s)", len(pages))
	}

	if doc.Status == domain.StatusPreprocessed {
		if err := loadPages(); err != nil {
			return s.fail(ctx, doc, domain.StagePreprocess, err)
		}
		done := logger.Timed("detect %s", doc.ID)
		stageCtx, cancel := context.WithTimeout(ctx, s.ocrTimeout)
		det, err := s.detector.DetectAll(stageCtx, pages)
		cancel()
		done()
		if err != nil {
			return s.fail(ctx, doc, domain.StageDetect, err)
		}
		doc.Language = det.Language
		doc.LanguageConfidence = det.Confidence
		doc.LowConfidence = det.LowConfidence
		if err := s.advance(ctx, doc, domain.StatusDetected); err != nil {
			return err
		}
	}

	if doc.Status == domain.StatusDetected {
		if err := loadPages(); err != nil {
			return s.fail(ctx, doc, domain.StagePreprocess, err)
		}
		done := logger.Timed("extract %s", doc.ID)
		stageCtx, cancel := context.WithTimeout(ctx, s.ocrTimeout)
		ext, err := s.ocr.ExtractPages(stageCtx, pages, doc.Language)
		cancel()
		done()
		if err != nil {
			return s.fail(ctx, doc, domain.StageExtract, err)
		}
		doc.Regions = ext.Regions
		doc.Confidence = ext.Confidence
		doc.ProcessingDuration = ext.Duration
		if err := s.advance(ctx, doc, domain.StatusExtracted); err != nil {
			return err
		}
	}

	if doc.Status == domain.StatusExtracted {
		done := logger.Timed("index %s", doc.ID)
		ids, err := s.index.Ingest(ctx, doc)
		done()
		if err != nil {
			return s.fail(ctx, doc, domain.StageIndex, err)
		}
		logger.Debug("Indexed %d chunk(s)", len(ids))
	} else if doc.Status == domain.StatusIndexed {
		// Only reached from Reprocess of a document under an old model. A
		// failure leaves the document indexed under that model.
		done := logger.Timed("re-embed %s", doc.ID)
		_, err := s.index.Reindex(ctx, doc)
		done()
		if err != nil {
			return domain.NewStageError(domain.StageIndex, doc.ID, err)
		}
	}

	logger.Info("%s %s in %s", doc.ID, doc.Status, time.Since(start).Round(time.Millisecond))
	return nil
}

// advance persists the next state.
func (s *IngestionService) advance(ctx context.Context, doc *domain.Document, next domain.Status) error {
	if err := doc.Advance(next, s.now()); err != nil {
		return err
	}
	if err := s.documents.SaveDocument(ctx, doc); err != nil {
		return fmt.Errorf("save %s: %w", doc.ID, err)
	}
	return nil
}

// fail records a hard failure. Timeouts and cancellation leave the
// document in its last completed state so it can be resumed.
func (s *IngestionService) fail(ctx context.Context, doc *domain.Document, stage domain.Stage, cause error) error {
	stageErr := domain.NewStageError(stage, doc.ID, cause)
	if errors.Is(cause, domain.ErrTimeout) || errors.Is(cause, context.Canceled) || errors.Is(cause, context.DeadlineExceeded) {
		logger.Warn("%v; %s left at %s", stageErr, doc.ID, doc.Status)
		return stageErr
	}
	if errors.Is(cause, domain.ErrIngestInProgress) {
		return stageErr
	}

	// The stored copy may be ahead of doc if the index committed it.
	current, err := s.documents.GetDocument(context.WithoutCancel(ctx), doc.ID)
	if err != nil {
		return errors.Join(stageErr, err)
	}
	if err := current.Fail(stage, cause, s.now()); err != nil {
		return errors.Join(stageErr, err)
	}
	if err := s.documents.SaveDocument(context.WithoutCancel(ctx), current); err != nil {
		return errors.Join(stageErr, err)
	}
	*doc = *current
	return stageErr
}

// reset returns a failed document to its just-uploaded state.
func reset(doc *domain.Document, now time.Time) {
	doc.Status = domain.StatusUploaded
	doc.Failure = nil
	doc.PageCount = 0
	doc.Language = domain.LanguageUndetermined
	doc.LanguageConfidence = 0
	doc.LowConfidence = false
	doc.Confidence = 0
	doc.Regions = nil
	doc.ProcessingDuration = 0
	doc.UpdatedAt = now
}

// statusReport renders the document for a status poll. Extraction output
// is only included once the document has it.
func statusReport(doc *domain.Document) *driving.StatusReport {
	report := &driving.StatusReport{
		DocumentID: doc.ID,
		Status:     doc.Status,
		Failure:    doc.Failure,
		UpdatedAt:  doc.UpdatedAt,
	}
	if doc.Status.Reached(domain.StatusDetected) {
		report.Language = doc.Language
		report.LanguageConfidence = doc.LanguageConfidence
		report.LowConfidence = doc.LowConfidence
	}
	if doc.Status.Reached(domain.StatusExtracted) {
		report.Text = doc.Text()
		report.Confidence = doc.Confidence
		report.Regions = doc.Regions
		report.ProcessingMs = doc.ProcessingDuration.Milliseconds()
	}
	return report
}

// Reserve takes the document's pipeline lock without running anything, so
// the caller can change the document while no stage touches it.
func (s *IngestionService) Reserve(documentID string) (release func(), err error) {
	unlock, ok := s.locks.TryLock(documentID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrIngestInProgress, documentID)
	}
	return unlock, nil
}

// Busy reports whether the document is being processed.
func (s *IngestionService) Busy(documentID string) bool {
	return s.locks.Held(documentID)
}
