package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/custodia-labs/palimpsest/internal/core/domain"
	"github.com/custodia-labs/palimpsest/internal/core/ports/driven"
	"github.com/custodia-labs/palimpsest/internal/core/ports/driving"
	"github.com/custodia-labs/palimpsest/internal/logger"
)

// Verify interface compliance.
var _ driving.TranslationService = (*TranslationService)(nil)

// TranslationService translates text between supported languages while
// carrying dates, numerals and proper nouns through unchanged.
type TranslationService struct {
	backends  []driven.TranslationBackend
	gazetteer driven.Gazetteer
	documents driven.DocumentStore
	detector  *Detector
	classes   []domain.TokenClass
	timeout   time.Duration
	maxRunes  int
	cache     *ristretto.Cache[string, domain.TranslationResult]
}

// TranslationOption configures a TranslationService.
type TranslationOption func(*TranslationService)

// WithGazetteer sets the proper-noun gazetteer.
func WithGazetteer(g driven.Gazetteer) TranslationOption {
	return func(s *TranslationService) { s.gazetteer = g }
}

// WithDocumentStore enables TranslateDocument.
func WithDocumentStore(store driven.DocumentStore) TranslationOption {
	return func(s *TranslationService) { s.documents = store }
}

// WithPreservedClasses sets the token classes carried through verbatim.
func WithPreservedClasses(classes []domain.TokenClass) TranslationOption {
	return func(s *TranslationService) { s.classes = classes }
}

// WithTranslationTimeout bounds each backend call.
func WithTranslationTimeout(d time.Duration) TranslationOption {
	return func(s *TranslationService) { s.timeout = d }
}

// WithMaxSegmentRunes caps segment length below the backends' own limits.
func WithMaxSegmentRunes(n int) TranslationOption {
	return func(s *TranslationService) { s.maxRunes = n }
}

// WithTranslationCache keeps up to entries recent results in memory.
func WithTranslationCache(entries int) TranslationOption {
	return func(s *TranslationService) {
		if entries <= 0 {
			return
		}
		cache, err := ristretto.NewCache(&ristretto.Config[string, domain.TranslationResult]{
			NumCounters:        int64(entries) * 10,
			MaxCost:            int64(entries),
			BufferItems:        64,
			IgnoreInternalCost: true,
		})
		if err != nil {
			logger.Warn("Translation cache disabled: %v", err)
			return
		}
		s.cache = cache
	}
}

// NewTranslationService creates a translation service over the given
// backends. The first backend supporting a pair is used.
func NewTranslationService(backends []driven.TranslationBackend, opts ...TranslationOption) *TranslationService {
	s := &TranslationService{
		backends: backends,
		detector: NewDetector(nil, 0, -1),
		classes:  domain.AllTokenClasses(),
		timeout:  domain.DefaultTranslationTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close releases the cache.
func (s *TranslationService) Close() {
	if s.cache != nil {
		s.cache.Close()
	}
}

// hop is one backend call on the translation path.
type hop struct {
	backend        driven.TranslationBackend
	source, target domain.Language
}

// Translate converts text from source to target. An undetermined source is
// detected from the text itself.
func (s *TranslationService) Translate(ctx context.Context, text string, source, target domain.Language) (*domain.TranslationResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: text is empty", domain.ErrInvalidInput)
	}
	if source == domain.LanguageUndetermined {
		det := s.detector.DetectText(text)
		if !det.Determined() {
			return nil, fmt.Errorf("%w: %w", domain.ErrUnsupportedLanguagePair, domain.ErrUndetermined)
		}
		source = det.Language
		logger.Debug("Detected source language %s (%.2f)", source, det.Confidence)
	}

	path, err := s.resolvePath(source, target)
	if err != nil {
		return nil, err
	}

	key := s.cacheKey(text, path)
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			logger.Debug("Translation cache hit")
			return &cached, nil
		}
	}

	protector := newEntityProtector(s.classes, s.entries())
	spans := protector.find(text, source, target)
	masked := protect(text, spans)

	segments := segmentText(masked, s.segmentLimit(path))
	texts := make([]string, len(segments))
	for i, seg := range segments {
		texts[i] = seg.text
	}

	start := time.Now()
	for _, h := range path {
		for i := range texts {
			out, err := s.callBackend(ctx, h, texts[i])
			if err != nil {
				return nil, domain.NewStageError(domain.StageTranslate, "", err)
			}
			texts[i] = out
		}
	}

	result := domain.TranslationResult{
		Text:              restore(joinSegments(texts, segments), spans),
		Source:            source,
		Target:            target,
		EntitiesPreserved: preservedLiterals(spans),
		Segments:          len(segments),
		LocalContext:      len(segments) > 1,
		Path:              pathLanguages(path),
	}
	logger.Debug("Translated %d segment(s) %s in %s", len(segments), languagePath(result.Path), time.Since(start))

	if s.cache != nil {
		s.cache.Set(key, result, 1)
		s.cache.Wait()
	}
	return &result, nil
}

// TranslateDocument translates a document's extracted text.
func (s *TranslationService) TranslateDocument(ctx context.Context, documentID string, source, target domain.Language) (*domain.TranslationResult, error) {
	if s.documents == nil {
		return nil, fmt.Errorf("document translation: %w", domain.ErrNotImplemented)
	}
	doc, err := s.documents.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if !doc.Status.Reached(domain.StatusExtracted) {
		return nil, fmt.Errorf("%w: %s is %s", domain.ErrDocumentNotExtracted, doc.ID, doc.Status)
	}
	if source == domain.LanguageUndetermined {
		source = doc.Language
	}
	return s.Translate(ctx, doc.Text(), source, target)
}

// TranslateBatch translates each text independently.
func (s *TranslationService) TranslateBatch(ctx context.Context, texts []string, source, target domain.Language) []driving.BatchTranslation {
	out := make([]driving.BatchTranslation, len(texts))
	for i, text := range texts {
		res, err := s.Translate(ctx, text, source, target)
		out[i] = driving.BatchTranslation{Index: i, Result: res, Err: err}
		if err != nil {
			logger.Warn("Batch item %d: %v", i+1, err)
		}
	}
	return out
}

// resolvePath finds a direct backend for the pair, or a single pivot
// through another supported language.
func (s *TranslationService) resolvePath(source, target domain.Language) ([]hop, error) {
	if source == target {
		return nil, fmt.Errorf("%w: %s to itself", domain.ErrUnsupportedLanguagePair, source)
	}
	if !source.IsSupported() || !target.IsSupported() {
		return nil, fmt.Errorf("%w: %s to %s", domain.ErrUnsupportedLanguagePair, source, target)
	}

	if b := s.backendFor(source, target); b != nil {
		return []hop{{backend: b, source: source, target: target}}, nil
	}
	for _, info := range domain.Languages() {
		pivot := info.Code
		if pivot == source || pivot == target {
			continue
		}
		first, second := s.backendFor(source, pivot), s.backendFor(pivot, target)
		if first != nil && second != nil {
			return []hop{
				{backend: first, source: source, target: pivot},
				{backend: second, source: pivot, target: target},
			}, nil
		}
	}
	return nil, fmt.Errorf("%w: no backend for %s to %s", domain.ErrUnsupportedLanguagePair, source, target)
}

func (s *TranslationService) backendFor(source, target domain.Language) driven.TranslationBackend {
	for _, b := range s.backends {
		if b.Supports(source, target) {
			return b
		}
	}
	return nil
}

// callBackend runs one backend call under the configured timeout. A call
// cut short by the deadline or by the caller is reported as ErrTimeout.
func (s *TranslationService) callBackend(ctx context.Context, h hop, text string) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	out, err := h.backend.Translate(ctx, text, h.source, h.target)
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return "", fmt.Errorf("%w: %s %s to %s: %w", domain.ErrTimeout, h.backend.Name(), h.source, h.target, err)
		}
		return "", fmt.Errorf("%s %s to %s: %w", h.backend.Name(), h.source, h.target, err)
	}
	return out, nil
}

// segmentLimit is the smallest input limit along the path.
func (s *TranslationService) segmentLimit(path []hop) int {
	limit := s.maxRunes
	for _, h := range path {
		if n := h.backend.MaxInputRunes(); n > 0 && (limit <= 0 || n < limit) {
			limit = n
		}
	}
	return limit
}

func (s *TranslationService) entries() []domain.GazetteerEntry {
	if s.gazetteer == nil {
		return nil
	}
	return s.gazetteer.Entries()
}

func (s *TranslationService) cacheKey(text string, path []hop) string {
	var b strings.Builder
	for _, h := range path {
		fmt.Fprintf(&b, "%s:%s>%s|", h.backend.Name(), h.source, h.target)
	}
	for _, c := range s.classes {
		b.WriteString(string(c))
		b.WriteByte(',')
	}
	b.WriteByte('|')
	b.WriteString(text)
	return b.String()
}

func pathLanguages(path []hop) []domain.Language {
	langs := []domain.Language{path[0].source}
	for _, h := range path {
		langs = append(langs, h.target)
	}
	return langs
}

func languagePath(langs []domain.Language) string {
	parts := make([]string, len(langs))
	for i, l := range langs {
		parts[i] = string(l)
	}
	return strings.Join(parts, "→")
}

// preservedLiterals lists the distinct restored tokens in order of appearance.
func preservedLiterals(spans []entitySpan) []string {
	seen := make(map[string]bool, len(spans))
	out := make([]string, 0, len(spans))
	for _, s := range spans {
		if seen[s.emit] {
			continue
		}
		seen[s.emit] = true
		out = append(out, s.emit)
	}
	return out
}
