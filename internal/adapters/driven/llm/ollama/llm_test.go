package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/palimpsest/internal/core/domain"
	"github.com/custodia-labs/palimpsest/internal/core/ports/driven"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *LLMService {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewLLMService(Config{BaseURL: srv.URL + "/"})
}

func TestNewLLMService_Defaults(t *testing.T) {
	svc := NewLLMService(Config{})

	assert.Equal(t, DefaultModel, svc.ModelName())
	assert.Equal(t, DefaultBaseURL, svc.baseURL)
	assert.NoError(t, svc.Close())
}

func TestLLMService_Generate(t *testing.T) {
	var body map[string]any
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/generate", r.URL.Path)
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &body))
		_, _ = io.WriteString(w, `{"response": "நில உரிமை", "done": true}`)
	})

	out, err := svc.Generate(context.Background(), "land ownership", driven.GenerateOptions{
		System:    "Translate English to Tamil.",
		MaxTokens: 64,
	})

	require.NoError(t, err)
	assert.Equal(t, "நில உரிமை", out)
	assert.Equal(t, DefaultModel, body["model"])
	assert.Equal(t, "Translate English to Tamil.", body["system"])
	assert.Equal(t, false, body["stream"])
	opts, ok := body["options"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 64, opts["num_predict"])
	assert.Contains(t, opts, "temperature", "a zero temperature is sent explicitly")
	assert.EqualValues(t, 0, opts["temperature"])
}

func TestLLMService_Chat(t *testing.T) {
	var body chatRequest
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = io.WriteString(w, `{"message": {"role": "assistant", "content": "The eldest son."}, "done": true}`)
	})

	out, err := svc.Chat(context.Background(), []driven.ChatMessage{
		{Role: "system", Content: "Answer from the passages."},
		{Role: "user", Content: "Who inherited?"},
	}, driven.ChatOptions{Temperature: 0.2})

	require.NoError(t, err)
	assert.Equal(t, "The eldest son.", out)
	require.Len(t, body.Messages, 2)
	assert.Equal(t, "system", body.Messages[0].Role)
	assert.InDelta(t, 0.2, body.Options.Temperature, 1e-9)

	_, err = svc.Chat(context.Background(), nil, driven.ChatOptions{})
	assert.Error(t, err)
}

func TestLLMService_Errors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		rateLimited bool
	}{
		{"server busy", http.StatusServiceUnavailable, "server busy", true},
		{"too many requests", http.StatusTooManyRequests, "slow down", true},
		{"model missing", http.StatusNotFound, `{"error": "model 'llama3.2' not found"}`, false},
		{"empty reply", http.StatusOK, `{"response": "", "done": true}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := svc.Generate(context.Background(), "q", driven.GenerateOptions{})

			require.Error(t, err)
			assert.Equal(t, tt.rateLimited, errors.Is(err, domain.ErrRateLimited))
		})
	}
}

func TestLLMService_Ping(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		if r.URL.Path != "/api/tags" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = io.WriteString(w, `{"models": []}`)
	})
	assert.NoError(t, svc.Ping(context.Background()))

	down := NewLLMService(Config{BaseURL: "http://127.0.0.1:1"})
	assert.Error(t, down.Ping(context.Background()))
}
