// Package postprocessors turns a document's extracted text into the chunks
// the index embeds.
package postprocessors

import (
	"context"
	"fmt"

	"github.com/custodia-labs/palimpsest/internal/core/domain"
	"github.com/custodia-labs/palimpsest/internal/core/ports/driven"
	"github.com/custodia-labs/palimpsest/internal/logger"
)

var _ driven.ChunkPipeline = (*Pipeline)(nil)

// Pipeline runs processors in order. The first creates chunks from the
// document; later ones filter or rewrite them.
type Pipeline struct {
	processors []driven.PostProcessor
}

// NewPipeline creates a pipeline over processors.
func NewPipeline(processors ...driven.PostProcessor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Process returns the chunks for doc. Every chunk must belong to doc and
// positions must strictly increase; a processor that breaks either is a
// bug and fails the run.
func (p *Pipeline) Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: document is nil", domain.ErrInvalidInput)
	}

	var chunks []domain.Chunk
	for _, processor := range p.processors {
		var err error
		chunks, err = processor.Process(ctx, doc, chunks)
		if err != nil {
			return nil, fmt.Errorf("processor %s: %w", processor.Name(), err)
		}
		logger.Debug("%s: %s left %d chunk(s)", doc.ID, processor.Name(), len(chunks))
	}

	for i := range chunks {
		c := &chunks[i]
		if c.DocumentID == "" {
			c.DocumentID = doc.ID
		}
		if c.DocumentID != doc.ID {
			return nil, fmt.Errorf("chunk %s belongs to %s, not %s", c.ID, c.DocumentID, doc.ID)
		}
		if i > 0 && c.Position <= chunks[i-1].Position {
			return nil, fmt.Errorf("chunk %s at position %d is out of order", c.ID, c.Position)
		}
	}
	return chunks, nil
}

// Add appends a processor.
func (p *Pipeline) Add(processor driven.PostProcessor) {
	p.processors = append(p.processors, processor)
}

// Names lists the processors in run order.
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.processors))
	for i, proc := range p.processors {
		names[i] = proc.Name()
	}
	return names
}
