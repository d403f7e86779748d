package speech

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
)

// Event names exchanged over the realtime channel.
const (
	EventAudioChunk    = "audio_chunk"
	EventEndStream     = "end_stream"
	EventCancelStream  = "cancel_stream"
	EventTTSRequest    = "tts_request"
	EventTranscription = "transcription"
	EventTTSResponse   = "tts_response"
)

// Inbound is a client event.
type Inbound struct {
	Event   string    `json:"event"`
	Samples []float32 `json:"samples,omitempty"`
	Text    string    `json:"text,omitempty"`
}

// Outbound is a server event.
type Outbound struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// TTSResponse carries synthesized audio, base64 encoded in JSON, or an error.
type TTSResponse struct {
	AudioData []byte `json:"audio_data,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Emitter sends events to one connection.
type Emitter interface {
	Emit(event string, data any) error
}

// Handler applies client events to sessions.
type Handler struct {
	sessions *Sessions
	pipeline *Pipeline
}

// NewHandler creates a handler.
func NewHandler(sessions *Sessions, pipeline *Pipeline) *Handler {
	return &Handler{sessions: sessions, pipeline: pipeline}
}

// Sessions returns the session map.
func (h *Handler) Sessions() *Sessions {
	return h.sessions
}

// Connect opens a session for a new connection.
func (h *Handler) Connect() uuid.UUID {
	id := h.sessions.Open()
	slog.Info("Client connected", "session", id)
	return id
}

// Disconnect drops the session of a closed connection.
func (h *Handler) Disconnect(id uuid.UUID) {
	h.sessions.Delete(id)
	slog.Info("Client disconnected", "session", id)
}

// AudioChunk buffers samples. Chunks for unknown sessions are ignored.
func (h *Handler) AudioChunk(id uuid.UUID, samples []float32) {
	err := h.sessions.Append(id, samples)
	switch {
	case errors.Is(err, ErrBufferFull):
		slog.Warn("Dropping audio chunk, buffer full", "session", id, "samples", len(samples))
	case errors.Is(err, ErrSessionNotFound):
		slog.Debug("Ignoring audio chunk for unknown session", "session", id)
	}
}

// EndStream processes the buffered audio, emits the transcription and closes the session.
func (h *Handler) EndStream(ctx context.Context, id uuid.UUID, emit Emitter) error {
	samples, _ := h.sessions.Take(id)
	result := h.pipeline.Process(ctx, samples)
	slog.Info("Stream ended", "session", id, "samples", len(samples))
	return emit.Emit(EventTranscription, result)
}

// CancelStream discards the buffered audio without emitting anything.
func (h *Handler) CancelStream(id uuid.UUID) {
	h.sessions.Delete(id)
	slog.Info("Stream cancelled", "session", id)
}

// TTSRequest synthesizes text and emits the audio. Empty text is ignored.
func (h *Handler) TTSRequest(ctx context.Context, id uuid.UUID, text string, emit Emitter) error {
	if text == "" {
		return nil
	}

	audio, err := h.pipeline.Synthesize(ctx, text)
	switch {
	case errors.Is(err, ErrTTSUnavailable):
		return emit.Emit(EventTTSResponse, TTSResponse{Error: TTSUnavailableText})
	case err != nil:
		slog.Error("TTS failed", "session", id, "error", err)
		return emit.Emit(EventTTSResponse, TTSResponse{Error: TTSErrorText})
	}

	return emit.Emit(EventTTSResponse, TTSResponse{AudioData: audio})
}

// Dispatch routes a client event.
func (h *Handler) Dispatch(ctx context.Context, id uuid.UUID, in Inbound, emit Emitter) error {
	switch in.Event {
	case EventAudioChunk:
		h.AudioChunk(id, in.Samples)
	case EventEndStream:
		return h.EndStream(ctx, id, emit)
	case EventCancelStream:
		h.CancelStream(id)
	case EventTTSRequest:
		return h.TTSRequest(ctx, id, in.Text, emit)
	default:
		slog.Warn("Unknown event", "session", id, "event", in.Event)
	}
	return nil
}
