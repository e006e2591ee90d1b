package noise

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/palimpsest/internal/core/domain"
)

func TestNew(t *testing.T) {
	assert.Equal(t, DefaultMinSignal, New().MinSignal())
	assert.Equal(t, 3, New(WithMinSignal(3)).MinSignal())
	assert.Equal(t, DefaultMinSignal, New(WithMinSignal(0)).MinSignal())
	assert.Equal(t, "noise", New().Name())
}

func TestProcess_DropsMarkOnlyChunks(t *testing.T) {
	chunks := []domain.Chunk{
		{ID: "a", Position: 0, Content: "land ownership"},
		{ID: "b", Position: 1, Content: "| ~ — ."},
		{ID: "c", Position: 2, Content: "1892"},
		{ID: "d", Position: 3, Content: "நில உரிமை"},
		{ID: "e", Position: 4, Content: "भूमि"},
		{ID: "f", Position: 5, Content: "   "},
	}

	got, err := New().Process(context.Background(), nil, chunks)

	require.NoError(t, err)
	ids := make([]string, len(got))
	for i, c := range got {
		ids[i] = c.ID
	}
	assert.Equal(t, []string{"a", "c", "d", "e"}, ids)
	assert.Equal(t, 2, got[1].Position)
}

func TestProcess_Threshold(t *testing.T) {
	chunks := []domain.Chunk{
		{ID: "short", Content: "a ."},
		{ID: "long", Content: "abc"},
		{ID: "tamil", Content: "கி"},
	}

	got, err := New(WithMinSignal(2)).Process(context.Background(), nil, chunks)

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "long", got[0].ID)
	assert.Equal(t, "tamil", got[1].ID)
}

func TestProcess_Empty(t *testing.T) {
	got, err := New().Process(context.Background(), nil, nil)

	require.NoError(t, err)
	assert.Nil(t, got)
}
