package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"
)

// BackendProvider is a string identifier for a backend provider.
type BackendProvider string

const (
	BackendProviderLlamaCPP     BackendProvider = "llama.cpp"
	BackendProviderOllama       BackendProvider = "ollama"
	BackendProviderGemini       BackendProvider = "gemini"
	BackendProviderWhisperCPP   BackendProvider = "whisper.cpp"
	BackendProviderGoogleSpeech BackendProvider = "google-speech"
	BackendProviderPiper        BackendProvider = "piper"
)

// Backend defines the core interface for all inference backends.
type Backend interface {
	// Provider returns the backend identifier.
	Provider() BackendProvider

	// Infer executes inference and returns the complete result.
	Infer(ctx context.Context, req *Request) (*Response, error)

	// Close cleans up resources.
	Close() error
}

// Request encapsulates all parameters for an inference call.
type Request struct {
	// ModelPath is the local model path, or the model name for remote APIs.
	ModelPath string

	// Input is the raw input data (prompt text or audio bytes).
	Input io.Reader

	// Parameters contains backend-specific inference parameters.
	Parameters map[string]any
}

// Response contains the result of an inference operation.
type Response struct {
	// Output is the raw output data.
	Output io.Reader

	// Metadata contains backend-specific information.
	Metadata *ResponseMetadata
}

// ResponseMetadata contains metadata about the response.
type ResponseMetadata struct {
	Provider        BackendProvider `json:"provider"`
	Model           string          `json:"model"`
	Timestamp       time.Time       `json:"timestamp"`
	DurationSeconds float64         `json:"duration_seconds"`
	OutputBytes     int64           `json:"output_bytes"`
	BackendSpecific map[string]any  `json:"backend_specific"`
}

// NewResponse builds a response around output produced since start.
func NewResponse(provider BackendProvider, model string, output []byte, start time.Time, extra map[string]any) *Response {
	return &Response{
		Output: bytes.NewReader(output),
		Metadata: &ResponseMetadata{
			Provider:        provider,
			Model:           model,
			Timestamp:       time.Now(),
			DurationSeconds: time.Since(start).Seconds(),
			OutputBytes:     int64(len(output)),
			BackendSpecific: extra,
		},
	}
}

// NewTextResponse is NewResponse for text output.
func NewTextResponse(provider BackendProvider, model, text string, start time.Time, extra map[string]any) *Response {
	return NewResponse(provider, model, []byte(strings.TrimSpace(text)), start, extra)
}

// ReadAll drains the response output.
func ReadAll(resp *Response) ([]byte, error) {
	if resp == nil || resp.Output == nil {
		return nil, ErrEmptyOutput
	}

	data, err := io.ReadAll(resp.Output)
	if err != nil {
		return nil, fmt.Errorf("read output: %w", err)
	}

	return data, nil
}
