package cli

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/palimpsest/internal/core/domain"
)

func TestLanguages_ListsSupported(t *testing.T) {
	mocks, cleanup := setupTestServices()
	defer cleanup()
	mocks.Document.LanguageStatsFunc = func(context.Context) (map[domain.Language]int, error) {
		return map[domain.Language]int{domain.LanguageTamil: 4, domain.LanguageUndetermined: 1}, nil
	}

	out, err := execute("languages")

	require.NoError(t, err)
	assert.Contains(t, out, "Supported languages:")
	for _, info := range domain.Languages() {
		assert.Contains(t, out, info.Name)
		assert.Contains(t, out, info.NativeName)
	}
	assert.Contains(t, out, "4 documents")
	assert.Contains(t, out, "1 documents with undetermined language")
}

func TestLanguages_WithoutDocumentService(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	documentService = nil

	out, err := execute("languages")

	require.NoError(t, err)
	assert.Contains(t, out, "Tamil")
	assert.NotContains(t, out, "undetermined")
}

func TestLanguages_StatsError(t *testing.T) {
	mocks, cleanup := setupTestServices()
	defer cleanup()
	mocks.Document.LanguageStatsFunc = func(context.Context) (map[domain.Language]int, error) {
		return nil, errors.New("locked")
	}

	_, err := execute("languages")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to count documents")
}
