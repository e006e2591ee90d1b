// Package noise drops chunks that OCR produced from stains, rules and
// margin marks rather than writing.
package noise

import (
	"context"
	"unicode"

	"github.com/custodia-labs/palimpsest/internal/core/domain"
)

// DefaultMinSignal is the fewest letters or digits a chunk must contain.
const DefaultMinSignal = 1

// Processor filters chunks by how many letters, digits and combining marks
// they carry. Indic vowel signs are marks, so "கி" counts as two.
type Processor struct {
	minSignal int
}

// Option configures the processor.
type Option func(*Processor)

// WithMinSignal sets the threshold. Values below one are ignored.
func WithMinSignal(n int) Option {
	return func(p *Processor) {
		if n >= 1 {
			p.minSignal = n
		}
	}
}

// New creates a noise filter.
func New(opts ...Option) *Processor {
	p := &Processor{minSignal: DefaultMinSignal}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "noise"
}

// MinSignal returns the threshold.
func (p *Processor) MinSignal() int { return p.minSignal }

// Process keeps chunks with enough signal. Order and positions are kept,
// so a dropped chunk leaves a gap in the position sequence.
func (p *Processor) Process(_ context.Context, _ *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
	if len(chunks) == 0 {
		return chunks, nil
	}
	kept := make([]domain.Chunk, 0, len(chunks))
	for _, c := range chunks {
		if signal(c.Content, p.minSignal) {
			kept = append(kept, c)
		}
	}
	return kept, nil
}

func signal(text string, want int) bool {
	n := 0
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r) {
			n++
			if n >= want {
				return true
			}
		}
	}
	return false
}
