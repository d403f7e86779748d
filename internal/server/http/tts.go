package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/ekisa-team/campus-assistant/internal/speech"
)

// Synthesizer renders text as WAV audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

type (
	SynthesizeRequestDTO struct {
		Text string `json:"text" maxLength:"4096"`
	}
)

type (
	SynthesizeInput struct {
		Body SynthesizeRequestDTO
	}

	SynthesizeOutput struct {
		ContentType string `header:"Content-Type"`
		Body        []byte
	}
)

// TTSHandler handles HTTP requests for TTS.
type TTSHandler struct {
	synth Synthesizer
}

// NewTTSHandler creates a new TTSHandler instance.
func NewTTSHandler(api huma.API, synth Synthesizer) *TTSHandler {
	h := &TTSHandler{synth: synth}

	huma.Register(api, huma.Operation{
		OperationID:   "synthesize",
		Method:        http.MethodPost,
		Path:          "/tts",
		Summary:       "Synthesize speech from text",
		Tags:          []string{"tts"},
		DefaultStatus: http.StatusOK,
	}, h.handleSynthesize)

	return h
}

// handleSynthesize handles the synthesize operation.
func (h *TTSHandler) handleSynthesize(ctx context.Context, input *SynthesizeInput) (*SynthesizeOutput, error) {
	if input.Body.Text == "" {
		return nil, huma.Error400BadRequest("No text provided.")
	}

	audio, err := h.synth.Synthesize(ctx, input.Body.Text)
	if err != nil {
		if errors.Is(err, speech.ErrTTSUnavailable) {
			return nil, huma.Error500InternalServerError(speech.TTSUnavailableText)
		}
		slog.Error("TTS failed", "error", err)
		return nil, huma.Error500InternalServerError(speech.TTSErrorText)
	}

	return &SynthesizeOutput{ContentType: "audio/wav", Body: audio}, nil
}
