// Package gemini generates text with the Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ekisa-team/campus-assistant/internal/backend"
	"github.com/ekisa-team/campus-assistant/internal/mapsafe"
	"google.golang.org/genai"
)

// ErrNoCandidates is returned when the API answers without any text.
var ErrNoCandidates = errors.New("gemini returned no candidates")

// Backend implements backend.Backend for Gemini models.
type Backend struct {
	client *genai.Client
}

// NewBackend creates a Gemini backend authenticated with apiKey.
// A non-empty httpOptions.BaseURL redirects requests, which tests use to point at a fake endpoint.
func NewBackend(ctx context.Context, apiKey string, httpOptions genai.HTTPOptions) (*Backend, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: empty API key")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: httpOptions,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	return &Backend{client: client}, nil
}

// Provider implements backend.Backend.
func (b *Backend) Provider() backend.BackendProvider {
	return backend.BackendProviderGemini
}

// Infer runs generateContent. req.ModelPath is the model name, e.g. gemini-1.5-flash.
func (b *Backend) Infer(ctx context.Context, req *backend.Request) (*backend.Response, error) {
	prompt, err := io.ReadAll(req.Input)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	var cfg *genai.GenerateContentConfig
	if sys := mapsafe.Get(req.Parameters, "system_prompt", ""); sys != "" {
		cfg = &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(sys, genai.RoleUser),
		}
	}

	start := time.Now()

	resp, err := b.client.Models.GenerateContent(ctx, req.ModelPath, genai.Text(string(prompt)), cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return nil, ErrNoCandidates
	}

	return backend.NewTextResponse(b.Provider(), req.ModelPath, text, start, nil), nil
}

// Close is a no-op; the client holds no connections of its own.
func (b *Backend) Close() error {
	return nil
}
