package badger

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/palimpsest/internal/core/domain"
)

func setupMediaStore(t *testing.T) *MediaStore {
	t.Helper()

	store, err := NewMediaStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestNewMediaStore(t *testing.T) {
	dir := t.TempDir()

	store, err := NewMediaStore(dir)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, filepath.Join(dir, DirName), store.Path())
	assert.DirExists(t, store.Path())
}

func TestNewMediaStore_InvalidPath(t *testing.T) {
	_, err := NewMediaStore("/invalid\x00path")
	assert.ErrorContains(t, err, "creating media directory")
}

func TestMediaStore_PutGet(t *testing.T) {
	store := setupMediaStore(t)
	ctx := context.Background()

	content := []byte("\x89PNG\r\n\x1a\nfake")
	ref, err := store.Put(ctx, "image/png", content)
	require.NoError(t, err)
	assert.NotEmpty(t, ref)

	got, mime, err := store.Get(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, content, got)
	assert.Equal(t, "image/png", mime)
}

func TestMediaStore_PutReturnsDistinctRefs(t *testing.T) {
	store := setupMediaStore(t)
	ctx := context.Background()

	a, err := store.Put(ctx, "image/png", []byte("same"))
	require.NoError(t, err)
	b, err := store.Put(ctx, "image/png", []byte("same"))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	n, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestMediaStore_GetNotFound(t *testing.T) {
	store := setupMediaStore(t)

	_, _, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMediaStore_Delete(t *testing.T) {
	store := setupMediaStore(t)
	ctx := context.Background()

	ref, err := store.Put(ctx, "application/pdf", []byte("%PDF-1.4"))
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, ref))
	_, _, err = store.Get(ctx, ref)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.NoError(t, store.Delete(ctx, ref), "deleting twice is not an error")
}

func TestMediaStore_LargeContent(t *testing.T) {
	store := setupMediaStore(t)
	ctx := context.Background()

	content := bytes.Repeat([]byte{0xAB}, 4<<20)
	ref, err := store.Put(ctx, "image/tiff", content)
	require.NoError(t, err)

	got, _, err := store.Get(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, len(content), len(got))
	assert.True(t, bytes.Equal(content, got))
}

func TestMediaStore_ReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewMediaStore(dir)
	require.NoError(t, err)
	ref, err := store.Put(ctx, "image/jpeg", []byte("jpeg"))
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = NewMediaStore(dir)
	require.NoError(t, err)
	defer store.Close()

	got, mime, err := store.Get(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg"), got)
	assert.Equal(t, "image/jpeg", mime)
}

func TestMediaStore_ContextCancelled(t *testing.T) {
	store := setupMediaStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Put(ctx, "image/png", []byte("x"))
	assert.ErrorIs(t, err, context.Canceled)
	_, _, err = store.Get(ctx, "any")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, store.Delete(ctx, "any"), context.Canceled)
}

func TestMediaStore_ConcurrentPut(t *testing.T) {
	store := setupMediaStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	refs := make([]string, 16)
	for i := range refs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ref, err := store.Put(ctx, "image/png", []byte(fmt.Sprintf("page %d", i)))
			assert.NoError(t, err)
			refs[i] = ref
		}(i)
	}
	wg.Wait()

	for i, ref := range refs {
		got, _, err := store.Get(ctx, ref)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("page %d", i), string(got))
	}
}
