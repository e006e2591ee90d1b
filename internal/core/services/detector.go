package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"unicode"

	"github.com/custodia-labs/palimpsest/internal/core/domain"
	"github.com/custodia-labs/palimpsest/internal/core/ports/driven"
	"github.com/custodia-labs/palimpsest/internal/logger"
)

// Detector classifies the dominant language of a page from the scripts its
// text is written in. Evidence comes from a probe recognition run with every
// supported language model loaded at once.
type Detector struct {
	recognizer driven.Recognizer
	threshold  float64
	epsilon    float64
}

// NewDetector creates a detector. Zero threshold or negative epsilon fall
// back to the documented defaults.
func NewDetector(recognizer driven.Recognizer, threshold, epsilon float64) *Detector {
	if threshold <= 0 {
		threshold = domain.DefaultDetectionThreshold
	}
	if epsilon < 0 {
		epsilon = domain.DefaultDetectionEpsilon
	}
	return &Detector{recognizer: recognizer, threshold: threshold, epsilon: epsilon}
}

// scriptEvidence accumulates confidence-weighted rune counts per language.
type scriptEvidence struct {
	perLanguage map[domain.Language]float64
	total       float64
}

func newScriptEvidence() *scriptEvidence {
	return &scriptEvidence{perLanguage: make(map[domain.Language]float64)}
}

// add counts the letters of text, each weighted by weight. Letters in
// scripts outside the supported set count towards the total only.
func (e *scriptEvidence) add(text string, weight float64) {
	if weight <= 0 {
		return
	}
	for _, r := range text {
		if !unicode.IsLetter(r) && !unicode.IsMark(r) {
			continue
		}
		lang, ok := domain.LanguageForRune(r)
		if !ok {
			// Combining marks belong to whichever script they follow.
			if unicode.Is(unicode.Inherited, r) {
				continue
			}
			e.total += weight
			continue
		}
		e.perLanguage[lang] += weight
		e.total += weight
	}
}

// Detect classifies a single page.
func (d *Detector) Detect(ctx context.Context, img *domain.CanonicalImage) (domain.Detection, error) {
	return d.DetectAll(ctx, []*domain.CanonicalImage{img})
}

// DetectAll classifies a document from the evidence of all its pages.
func (d *Detector) DetectAll(ctx context.Context, pages []*domain.CanonicalImage) (domain.Detection, error) {
	if d.recognizer == nil {
		return domain.Detection{}, domain.ErrOCRUnavailable
	}

	evidence := newScriptEvidence()
	probe := domain.TesseractCodes()

	for _, page := range pages {
		if page.Empty() {
			continue
		}
		rec, err := d.recognizer.Recognize(ctx, page.Gray, probe)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil || errors.Is(err, context.DeadlineExceeded) {
				return domain.Detection{}, fmt.Errorf("%w: detection probe: %w", domain.ErrTimeout, err)
			}
			return domain.Detection{}, fmt.Errorf("detection probe on page %d: %w", page.Page, err)
		}
		if len(rec.Words) > 0 {
			for _, w := range rec.Words {
				evidence.add(w.Text, w.Confidence)
			}
		} else {
			evidence.add(rec.Text, rec.Confidence)
		}
	}

	det := d.decide(evidence)
	logger.Debug("Detected %s (score %.2f, low confidence %t)", det.Language, det.Confidence, det.LowConfidence)
	return det, nil
}

// DetectText classifies raw text, counting every letter equally.
func (d *Detector) DetectText(text string) domain.Detection {
	evidence := newScriptEvidence()
	evidence.add(text, 1)
	return d.decide(evidence)
}

// decide applies the threshold and the tie-break band to the evidence.
func (d *Detector) decide(e *scriptEvidence) domain.Detection {
	scores := make(map[domain.Language]float64, len(domain.Languages()))
	for _, info := range domain.Languages() {
		score := 0.0
		if e.total > 0 {
			score = e.perLanguage[info.Code] / e.total
		}
		scores[info.Code] = score
	}

	ranked := make([]domain.Language, 0, len(scores))
	for lang := range scores {
		ranked = append(ranked, lang)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if scores[ranked[i]] != scores[ranked[j]] {
			return scores[ranked[i]] > scores[ranked[j]]
		}
		return ranked[i].Priority() < ranked[j].Priority()
	})

	top := ranked[0]
	if scores[top] < d.threshold {
		return domain.Detection{Language: domain.LanguageUndetermined, Scores: scores}
	}

	winner, contenders := top, 0
	for _, lang := range ranked {
		if scores[lang] < d.threshold || scores[top]-scores[lang] > d.epsilon {
			continue
		}
		contenders++
		if lang.Priority() < winner.Priority() {
			winner = lang
		}
	}

	return domain.Detection{
		Language:      winner,
		Confidence:    scores[winner],
		LowConfidence: contenders > 1,
		Scores:        scores,
	}
}
