// Package chunker provides an overlapping token-window chunking processor.
package chunker

import (
	"context"
	"fmt"
	"unicode"

	"github.com/google/uuid"

	"github.com/custodia-labs/palimpsest/internal/core/domain"
)

// DefaultChunkSize is the default number of tokens per chunk.
const DefaultChunkSize = domain.DefaultChunkSize

// DefaultChunkOverlap is the default number of tokens shared by neighbouring chunks.
const DefaultChunkOverlap = domain.DefaultChunkOverlap

// chunkNamespace scopes chunk IDs so they never collide with other UUIDv5 users.
var chunkNamespace = uuid.MustParse("6f1f3a52-7f0e-4b8e-9a51-5c3d1d0b2c47")

// Processor splits extracted text into overlapping windows of whitespace
// tokens. The same text always yields the same boundaries and IDs.
// It implements the PostProcessor interface.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the window length in tokens.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the number of tokens repeated at the start of the next window.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 10
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// ChunkSize returns the window length in tokens.
func (p *Processor) ChunkSize() int { return p.chunkSize }

// Overlap returns the overlap in tokens.
func (p *Processor) Overlap() int { return p.overlap }

// Process splits the document's extracted text into chunks.
// Input chunks are ignored; this processor creates new chunks.
func (p *Processor) Process(ctx context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	text := doc.Text()
	spans := tokenSpans(text)
	if len(spans) == 0 {
		return nil, nil
	}

	stride := p.chunkSize - p.overlap
	chunks := make([]domain.Chunk, 0, len(spans)/stride+1)

	for start, position := 0, 0; ; start, position = start+stride, position+1 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := start + p.chunkSize
		if end > len(spans) {
			end = len(spans)
		}

		from, to := spans[start][0], spans[end-1][1]
		chunks = append(chunks, domain.Chunk{
			ID:          chunkID(doc.ID, position, from, to),
			DocumentID:  doc.ID,
			Position:    position,
			Content:     text[from:to],
			StartOffset: from,
			EndOffset:   to,
		})

		if end == len(spans) {
			break
		}
	}

	return chunks, nil
}

// tokenSpans returns the byte ranges of whitespace-separated tokens.
func tokenSpans(text string) [][2]int {
	var spans [][2]int
	start := -1
	for i, r := range text {
		if unicode.IsSpace(r) {
			if start >= 0 {
				spans = append(spans, [2]int{start, i})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		spans = append(spans, [2]int{start, len(text)})
	}
	return spans
}

func chunkID(documentID string, position, from, to int) string {
	name := fmt.Sprintf("%s/%d/%d-%d", documentID, position, from, to)
	return uuid.NewSHA1(chunkNamespace, []byte(name)).String()
}
