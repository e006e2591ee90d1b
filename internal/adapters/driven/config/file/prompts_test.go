package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/palimpsest/internal/core/domain"
	"github.com/custodia-labs/palimpsest/internal/core/ports/driven"
)

func newPromptStore(t *testing.T) (*PromptStore, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "prompts")
	store, err := NewPromptStore(dir)
	require.NoError(t, err)
	return store, dir
}

// writePrompt replaces a prompt file and moves its mtime forward so the
// store notices even on coarse-grained filesystems.
func writePrompt(t *testing.T, dir, name, content string, bump time.Duration) {
	t.Helper()
	path := filepath.Join(dir, name+".txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	when := time.Now().Add(bump)
	require.NoError(t, os.Chtimes(path, when, when))
}

func TestNewPromptStore(t *testing.T) {
	store, dir := newPromptStore(t)
	assert.Equal(t, dir, store.Dir())
	_, err := os.Stat(dir)
	assert.True(t, os.IsNotExist(err), "nothing is written before the first load")

	home := t.TempDir()
	t.Setenv("HOME", home)
	store, err = NewPromptStore("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".palimpsest", "prompts"), store.Dir())
}

func TestPromptStore_SeedsDefaults(t *testing.T) {
	store, dir := newPromptStore(t)

	got, err := store.Load(driven.PromptTranslate)
	require.NoError(t, err)
	assert.Contains(t, got, "⟦n⟧")

	for _, f := range []string{"translate.txt", "answer.txt", "answer_system.txt", "README.md"} {
		assert.FileExists(t, filepath.Join(dir, f))
	}
}

func TestPromptStore_DefaultsMatchArgs(t *testing.T) {
	for name, want := range driven.PromptArgs {
		t.Run(name, func(t *testing.T) {
			text, err := defaultPrompt(name)
			require.NoError(t, err)
			assert.Equal(t, want, countVerbs(text))
		})
	}
}

func TestPromptStore_KeepsUserEdits(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "prompts")
	require.NoError(t, os.MkdirAll(dir, 0700))
	writePrompt(t, dir, driven.PromptAnswer, "Context:\n%s\n\nQ: %s\n", 0)

	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	got, err := store.Load(driven.PromptAnswer)
	require.NoError(t, err)
	assert.Equal(t, "Context:\n%s\n\nQ: %s", got)

	raw, err := os.ReadFile(filepath.Join(dir, "answer.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Context:", "seeding never overwrites")
}

func TestPromptStore_PicksUpChanges(t *testing.T) {
	store, dir := newPromptStore(t)
	_, err := store.Load(driven.PromptAnswerSystem)
	require.NoError(t, err)

	writePrompt(t, dir, driven.PromptAnswerSystem, "Answer tersely.", time.Minute)
	got, err := store.Load(driven.PromptAnswerSystem)
	require.NoError(t, err)
	assert.Equal(t, "Answer tersely.", got)

	writePrompt(t, dir, driven.PromptAnswerSystem, "Answer at length.", 2*time.Minute)
	got, err = store.Load(driven.PromptAnswerSystem)
	require.NoError(t, err)
	assert.Equal(t, "Answer at length.", got)
}

func TestPromptStore_RejectsWrongPlaceholders(t *testing.T) {
	store, dir := newPromptStore(t)
	def, err := defaultPrompt(driven.PromptTranslate)
	require.NoError(t, err)
	_, err = store.Load(driven.PromptTranslate)
	require.NoError(t, err)

	tests := []struct {
		name    string
		content string
	}{
		{"missing text", "Translate %s into %s."},
		{"extra verb", "%s %s %s %s"},
		{"empty", "   \n"},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			writePrompt(t, dir, driven.PromptTranslate, tt.content, time.Duration(i+1)*time.Minute)

			got, err := store.Load(driven.PromptTranslate)

			require.NoError(t, err)
			assert.Equal(t, def, got)
		})
	}

	writePrompt(t, dir, driven.PromptTranslate, "100%% faithful: %s to %s: %s", time.Hour)
	got, err := store.Load(driven.PromptTranslate)
	require.NoError(t, err)
	assert.Equal(t, "100%% faithful: %s to %s: %s", got, "escaped percent signs are not placeholders")
}

func TestPromptStore_DeletedFileFallsBack(t *testing.T) {
	store, dir := newPromptStore(t)
	_, err := store.Load(driven.PromptAnswer)
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(dir, "answer.txt")))

	got, err := store.Load(driven.PromptAnswer)
	require.NoError(t, err)
	def, _ := defaultPrompt(driven.PromptAnswer)
	assert.Equal(t, def, got)
}

func TestPromptStore_UnwritableDirUsesDefaults(t *testing.T) {
	store, err := NewPromptStore("/dev/null/prompts")
	require.NoError(t, err)

	got, err := store.Load(driven.PromptAnswer)

	require.NoError(t, err)
	assert.Contains(t, got, "Question: %s")
}

func TestPromptStore_UnknownPrompt(t *testing.T) {
	store, _ := newPromptStore(t)

	_, err := store.Load("summarise")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPromptStore_ConcurrentLoads(t *testing.T) {
	store, _ := newPromptStore(t)

	var wg sync.WaitGroup
	errs := make(chan error, 30)
	for i := range 30 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			names := []string{driven.PromptTranslate, driven.PromptAnswer, driven.PromptAnswerSystem}
			if _, err := store.Load(names[i%3]); err != nil {
				errs <- fmt.Errorf("load %s: %w", names[i%3], err)
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}

func TestCountVerbs(t *testing.T) {
	assert.Equal(t, 0, countVerbs("no verbs"))
	assert.Equal(t, 2, countVerbs("%s and %s"))
	assert.Equal(t, 1, countVerbs("100%% of %s"))
	assert.Equal(t, 0, countVerbs("trailing %"))
	assert.Equal(t, 0, countVerbs("%d is not counted"))
}
