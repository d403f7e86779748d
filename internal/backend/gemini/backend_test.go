package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ekisa-team/campus-assistant/internal/backend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestBackend_Infer(t *testing.T) {
	var path, key string
	var body map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		key = r.Header.Get("x-goog-api-key")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"The exam "},{"text":"is on Monday."}]}}]}`))
	}))
	defer srv.Close()

	b, err := NewBackend(context.Background(), "test-key", genai.HTTPOptions{BaseURL: srv.URL})
	require.NoError(t, err)

	resp, err := b.Infer(context.Background(), &backend.Request{
		ModelPath:  "gemini-1.5-flash",
		Input:      strings.NewReader("When is the exam?"),
		Parameters: map[string]any{"system_prompt": "Be brief."},
	})
	require.NoError(t, err)

	out, err := backend.ReadAll(resp)
	require.NoError(t, err)
	assert.Equal(t, "The exam is on Monday.", string(out))
	assert.Equal(t, "/v1beta/models/gemini-1.5-flash:generateContent", path)
	assert.Equal(t, "test-key", key)
	assert.Contains(t, body, "contents")
	assert.Contains(t, body, "systemInstruction")
}

func TestBackend_NoCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	b, err := NewBackend(context.Background(), "k", genai.HTTPOptions{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = b.Infer(context.Background(), &backend.Request{ModelPath: "models/gemini-pro", Input: strings.NewReader("x")})
	assert.ErrorIs(t, err, ErrNoCandidates)
}

func TestBackend_InferServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"API key not valid","status":"PERMISSION_DENIED"}}`))
	}))
	defer srv.Close()

	b, err := NewBackend(context.Background(), "k", genai.HTTPOptions{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = b.Infer(context.Background(), &backend.Request{ModelPath: "gemini-pro", Input: strings.NewReader("x")})
	assert.ErrorContains(t, err, "generate content")
}

func TestNewBackend_RequiresKey(t *testing.T) {
	_, err := NewBackend(context.Background(), "", genai.HTTPOptions{})
	assert.Error(t, err)
}
