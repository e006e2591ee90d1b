package mcp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/palimpsest/internal/core/domain"
)

func TestExtractDocumentID(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{
			name:     "valid document URI",
			uri:      "palimpsest://documents/DOC-1892-001",
			expected: "DOC-1892-001",
		},
		{
			name:     "invalid prefix",
			uri:      "file://documents/DOC-1892-001",
			expected: "",
		},
		{
			name:     "nested path",
			uri:      "palimpsest://documents/DOC-1892-001/chunks",
			expected: "",
		},
		{
			name:     "empty URI",
			uri:      "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := extractDocumentID(tt.uri)
			assert.Equal(t, tt.expected, result)
		})
	}
}

// Helper to create a ReadResourceRequest with the given URI.
func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestServer_handleDocumentsResource(t *testing.T) {
	ctx := context.Background()

	t.Run("nil document service returns empty list", func(t *testing.T) {
		server, err := newTestServer(&Ports{})
		require.NoError(t, err)

		result, err := server.handleDocumentsResource(ctx, makeReadResourceRequest("palimpsest://documents"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "[]", result.Contents[0].Text)
	})

	t.Run("returns documents successfully", func(t *testing.T) {
		docs := &mockDocumentService{summaries: []domain.Summary{
			{ID: "DOC-1892-001", Filename: "deed.png", Status: domain.StatusIndexed, Language: domain.LanguageTamil, CreatedAt: time.Now()},
			{ID: "DOC-1892-002", Status: domain.StatusUploaded},
		}}
		server, err := newTestServer(&Ports{Document: docs})
		require.NoError(t, err)

		result, err := server.handleDocumentsResource(ctx, makeReadResourceRequest("palimpsest://documents"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Contains(t, result.Contents[0].Text, "DOC-1892-001")
		assert.Contains(t, result.Contents[0].Text, "deed.png")
		assert.Contains(t, result.Contents[0].Text, `"status": "uploaded"`)
	})

	t.Run("returns error on list failure", func(t *testing.T) {
		server, err := newTestServer(&Ports{Document: &mockDocumentService{err: errors.New("storage error")}})
		require.NoError(t, err)

		_, err = server.handleDocumentsResource(ctx, makeReadResourceRequest("palimpsest://documents"))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "listing documents")
	})
}

func TestServer_handleDocumentContentResource(t *testing.T) {
	ctx := context.Background()

	t.Run("nil document service returns not found", func(t *testing.T) {
		server, err := newTestServer(&Ports{})
		require.NoError(t, err)

		_, err = server.handleDocumentContentResource(ctx, makeReadResourceRequest("palimpsest://documents/DOC-1892-001"))
		require.Error(t, err)
	})

	t.Run("invalid URI returns not found", func(t *testing.T) {
		server, err := newTestServer(&Ports{Document: &mockDocumentService{}})
		require.NoError(t, err)

		_, err = server.handleDocumentContentResource(ctx, makeReadResourceRequest("palimpsest://invalid/uri"))
		require.Error(t, err)
	})

	t.Run("returns content successfully", func(t *testing.T) {
		docs := &mockDocumentService{content: "Survey of 1892\n\nநிலம்"}
		server, err := newTestServer(&Ports{Document: docs})
		require.NoError(t, err)

		result, err := server.handleDocumentContentResource(ctx, makeReadResourceRequest("palimpsest://documents/DOC-1892-001"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "Survey of 1892\n\nநிலம்", result.Contents[0].Text)
		assert.Equal(t, "text/plain", result.Contents[0].MIMEType)
	})

	t.Run("unknown document is not found", func(t *testing.T) {
		docs := &mockDocumentService{err: domain.ErrNotFound}
		server, err := newTestServer(&Ports{Document: docs})
		require.NoError(t, err)

		_, err = server.handleDocumentContentResource(ctx, makeReadResourceRequest("palimpsest://documents/DOC-1900-001"))
		require.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("not yet extracted", func(t *testing.T) {
		docs := &mockDocumentService{err: domain.ErrDocumentNotExtracted}
		server, err := newTestServer(&Ports{Document: docs})
		require.NoError(t, err)

		_, err = server.handleDocumentContentResource(ctx, makeReadResourceRequest("palimpsest://documents/DOC-1892-001"))
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrDocumentNotExtracted)
		assert.Contains(t, err.Error(), "getting document text")
	})
}
