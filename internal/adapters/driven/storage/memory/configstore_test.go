package memory

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/palimpsest/internal/core/domain"
)

func TestConfigStore_ReadsLikeTOML(t *testing.T) {
	store := NewConfigStore()

	require.NoError(t, store.Update(map[string]any{
		"pipeline.workers":             4,
		"pipeline.ocr_timeout":         90 * time.Second,
		"retrieval.min_relevance":      1,
		"translation.preserve_classes": []string{"date", "numeral"},
		"embedding.provider":           "gemini",
	}))

	raw, ok := store.Get("pipeline.workers")
	require.True(t, ok)
	assert.Equal(t, int64(4), raw)
	assert.Equal(t, 4, store.GetInt("pipeline.workers"))

	raw, _ = store.Get("pipeline.ocr_timeout")
	assert.Equal(t, "1m30s", raw)
	assert.Equal(t, 90*time.Second, store.GetDuration("pipeline.ocr_timeout"))

	assert.InDelta(t, 1.0, store.GetFloat("retrieval.min_relevance"), 1e-9)
	assert.Equal(t, []string{"date", "numeral"}, store.GetStringSlice("translation.preserve_classes"))
	assert.Equal(t, "gemini", store.GetString("embedding.provider"))
	assert.Equal(t, ":memory:", store.Path())
}

func TestConfigStore_Missing(t *testing.T) {
	store := NewConfigStore()

	_, ok := store.Get("nope")
	assert.False(t, ok)
	assert.Empty(t, store.GetString("nope"))
	assert.Zero(t, store.GetInt("nope"))
	assert.Nil(t, store.GetStringSlice("nope"))
}

func TestConfigStore_UpdateIsAllOrNothing(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("chunking.chunk_size", 500))

	err := store.Update(map[string]any{
		"chunking.chunk_size": 300,
		"chunking.overlap":    struct{}{},
	})

	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, 500, store.GetInt("chunking.chunk_size"))
	_, ok := store.Get("chunking.overlap")
	assert.False(t, ok)
}

func TestConfigStore_Concurrent(t *testing.T) {
	store := NewConfigStore()

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = store.Set(fmt.Sprintf("k%d", i), i)
		}()
		go func() {
			defer wg.Done()
			_ = store.GetInt(fmt.Sprintf("k%d", i))
		}()
	}
	wg.Wait()

	assert.Equal(t, 19, store.GetInt("k19"))
}
