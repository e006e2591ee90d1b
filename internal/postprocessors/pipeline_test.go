package postprocessors

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/palimpsest/internal/core/domain"
)

// stubProcessor returns fixed chunks, or passes its input through when
// chunks is nil.
type stubProcessor struct {
	name   string
	chunks []domain.Chunk
	err    error
}

func (s *stubProcessor) Name() string { return s.name }

func (s *stubProcessor) Process(_ context.Context, _ *domain.Document, in []domain.Chunk) ([]domain.Chunk, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.chunks != nil {
		return s.chunks, nil
	}
	return in, nil
}

func extracted(id, text string) *domain.Document {
	return &domain.Document{ID: id, Status: domain.StatusExtracted, Regions: []domain.TextRegion{{Text: text}}}
}

func TestPipeline_NilDocument(t *testing.T) {
	_, err := NewPipeline().Process(context.Background(), nil)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestPipeline_Empty(t *testing.T) {
	chunks, err := NewPipeline().Process(context.Background(), extracted("DOC-1892-001", "survey"))

	require.NoError(t, err)
	assert.Nil(t, chunks)
}

func TestPipeline_RunsInOrder(t *testing.T) {
	p := NewPipeline(
		&stubProcessor{name: "create", chunks: []domain.Chunk{{ID: "c0", Position: 0}}},
		&stubProcessor{name: "rewrite", chunks: []domain.Chunk{{ID: "c0", Position: 0}, {ID: "c1", Position: 1}}},
		&stubProcessor{name: "passthrough"},
	)

	chunks, err := p.Process(context.Background(), extracted("DOC-1892-001", "survey"))

	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, []string{"create", "rewrite", "passthrough"}, p.Names())
}

func TestPipeline_FillsDocumentID(t *testing.T) {
	p := NewPipeline(&stubProcessor{name: "create", chunks: []domain.Chunk{{ID: "c0"}}})

	chunks, err := p.Process(context.Background(), extracted("DOC-1892-001", "survey"))

	require.NoError(t, err)
	assert.Equal(t, "DOC-1892-001", chunks[0].DocumentID)
}

func TestPipeline_RejectsForeignChunks(t *testing.T) {
	p := NewPipeline(&stubProcessor{name: "create", chunks: []domain.Chunk{{ID: "c0", DocumentID: "DOC-1900-001"}}})

	_, err := p.Process(context.Background(), extracted("DOC-1892-001", "survey"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "belongs to DOC-1900-001")
}

func TestPipeline_RejectsOutOfOrderPositions(t *testing.T) {
	p := NewPipeline(&stubProcessor{name: "create", chunks: []domain.Chunk{
		{ID: "c0", Position: 1},
		{ID: "c1", Position: 1},
	}})

	_, err := p.Process(context.Background(), extracted("DOC-1892-001", "survey"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of order")
}

func TestPipeline_ProcessorError(t *testing.T) {
	cause := errors.New("tokeniser crashed")
	p := NewPipeline(&stubProcessor{name: "failing", err: cause})

	_, err := p.Process(context.Background(), extracted("DOC-1892-001", "survey"))

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "processor failing")
}

func TestPipeline_Add(t *testing.T) {
	p := NewPipeline()
	p.Add(&stubProcessor{name: "chunker"})

	assert.Equal(t, []string{"chunker"}, p.Names())
}
