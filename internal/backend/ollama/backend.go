// Package ollama talks to a local Ollama server over its chat API.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ekisa-team/campus-assistant/internal/backend"
	"github.com/ekisa-team/campus-assistant/internal/mapsafe"
)

// DefaultURL is the default Ollama endpoint.
const DefaultURL = "http://localhost:11434"

// Message is a single chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string         `json:"model"`
	Messages []Message      `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  map[string]any `json:"options,omitempty"`
}

type chatResponse struct {
	Model     string    `json:"model"`
	CreatedAt time.Time `json:"created_at"`
	Message   Message   `json:"message"`
	Done      bool      `json:"done"`
}

// Backend implements backend.Backend for Ollama.
type Backend struct {
	httpClient *http.Client
	baseURL    string
}

// NewBackend creates an Ollama backend for baseURL.
func NewBackend(baseURL string) *Backend {
	if baseURL == "" {
		baseURL = DefaultURL
	}

	return &Backend{
		httpClient: &http.Client{Timeout: 3 * time.Minute},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// Provider implements backend.Backend.
func (b *Backend) Provider() backend.BackendProvider {
	return backend.BackendProviderOllama
}

// Infer sends the input as a single user message. req.ModelPath is the Ollama model name.
func (b *Backend) Infer(ctx context.Context, req *backend.Request) (*backend.Response, error) {
	prompt, err := io.ReadAll(req.Input)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	p := req.Parameters
	if p == nil {
		p = map[string]any{}
	}

	var messages []Message
	if sys := mapsafe.Get(p, "system_prompt", ""); sys != "" {
		messages = append(messages, Message{Role: "system", Content: sys})
	}
	messages = append(messages, Message{Role: "user", Content: string(prompt)})

	options := map[string]any{}
	if v := mapsafe.Get(p, "temperature", -1.0); v >= 0 {
		options["temperature"] = v
	}
	if v := mapsafe.Get(p, "num_predict", 0); v > 0 {
		options["num_predict"] = v
	}

	payload, err := json.Marshal(chatRequest{
		Model:    req.ModelPath,
		Messages: messages,
		Stream:   false,
		Options:  options,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()

	resp, err := b.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send chat request to ollama: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama returned non-200 status: %s", resp.Status)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode chat response: %w", err)
	}

	return backend.NewTextResponse(b.Provider(), req.ModelPath, out.Message.Content, start, map[string]any{
		"done": out.Done,
	}), nil
}

// Close is a no-op.
func (b *Backend) Close() error {
	return nil
}
