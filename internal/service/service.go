// Package service exposes LLM, STT and TTS on top of the backend and model registries.
package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"

	"github.com/ekisa-team/campus-assistant/internal/backend"
	"github.com/ekisa-team/campus-assistant/internal/model"
)

// Assignment returns the model IDs assigned to a service in preference order.
// It is read on every request, so a source backed by a config snapshot follows reloads.
type Assignment func() []string

// Models returns a fixed Assignment.
func Models(ids ...string) Assignment {
	return func() []string { return ids }
}

// resolver picks the first assigned model whose backend is registered.
type resolver struct {
	kind     string
	backends *backend.Registry
	models   *model.Registry
	assigned Assignment
}

func (r *resolver) modelIDs() []string {
	if r.assigned == nil {
		return nil
	}
	return r.assigned()
}

func (r *resolver) pick() (backend.Backend, *model.ModelInstance, error) {
	missingBackend := false

	for _, id := range r.modelIDs() {
		m, ok := r.models.Get(id)
		if !ok {
			continue
		}

		b, ok := r.backends.Get(backend.BackendProvider(m.Config.Backend))
		if !ok {
			slog.Debug("Skipping model without registered backend", "service", r.kind, "model_id", id, "backend", m.Config.Backend)
			missingBackend = true
			continue
		}

		return b, m, nil
	}

	if missingBackend {
		return nil, nil, fmt.Errorf("%s: %w", r.kind, backend.ErrBackendNotFound)
	}
	return nil, nil, fmt.Errorf("%s: %w", r.kind, model.ErrModelNotFound)
}

func (r *resolver) available() bool {
	_, _, err := r.pick()
	return err == nil
}

func (r *resolver) infer(ctx context.Context, input io.Reader, params map[string]any) ([]byte, error) {
	b, m, err := r.pick()
	if err != nil {
		return nil, err
	}

	path := m.Path
	if locator, ok := b.(backend.ModelLocator); ok {
		if path, err = locator.ResolveModelPath(m.Path); err != nil {
			return nil, fmt.Errorf("%s: resolve model %s: %w", r.kind, m.ID, err)
		}
	}

	merged := maps.Clone(m.Config.Parameters)
	if merged == nil {
		merged = map[string]any{}
	}
	maps.Copy(merged, params)

	resp, err := b.Infer(ctx, &backend.Request{
		ModelPath:  path,
		Input:      input,
		Parameters: merged,
	})
	if err != nil {
		slog.Error("Inference failed", "service", r.kind, "model_id", m.ID, "backend", b.Provider(), "error", err)
		return nil, fmt.Errorf("%s: %w", r.kind, err)
	}

	return backend.ReadAll(resp)
}

// LLM is a service abstraction for large language models.
type LLM struct {
	r resolver
}

// NewLLM creates an LLM service over the models in preference order.
func NewLLM(backends *backend.Registry, models *model.Registry, assigned Assignment) *LLM {
	return &LLM{r: resolver{kind: "llm", backends: backends, models: models, assigned: assigned}}
}

// Complete generates a completion for prompt.
func (s *LLM) Complete(ctx context.Context, prompt string) (string, error) {
	out, err := s.r.infer(ctx, bytes.NewReader([]byte(prompt)), nil)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Available reports whether a model can serve requests.
func (s *LLM) Available() bool { return s.r.available() }

// STT is a service abstraction for speech-to-text.
type STT struct {
	r resolver
}

// NewSTT creates an STT service over the models in preference order.
func NewSTT(backends *backend.Registry, models *model.Registry, assigned Assignment) *STT {
	return &STT{r: resolver{kind: "stt", backends: backends, models: models, assigned: assigned}}
}

// Transcribe transcribes 16-bit PCM WAV audio.
func (s *STT) Transcribe(ctx context.Context, wav []byte) (string, error) {
	out, err := s.r.infer(ctx, bytes.NewReader(wav), nil)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Available reports whether a model can serve requests.
func (s *STT) Available() bool { return s.r.available() }

// TTS is a service abstraction for text-to-speech.
type TTS struct {
	r resolver
}

// NewTTS creates a TTS service over the models in preference order.
func NewTTS(backends *backend.Registry, models *model.Registry, assigned Assignment) *TTS {
	return &TTS{r: resolver{kind: "tts", backends: backends, models: models, assigned: assigned}}
}

// Synthesize returns WAV audio for text.
func (s *TTS) Synthesize(ctx context.Context, text string) ([]byte, error) {
	return s.r.infer(ctx, bytes.NewReader([]byte(text)), nil)
}

// Available reports whether a model can serve requests.
func (s *TTS) Available() bool { return s.r.available() }
