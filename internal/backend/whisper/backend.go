// Package whisper transcribes audio through a managed whisper.cpp server.
package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ekisa-team/campus-assistant/internal/backend"
	"github.com/ekisa-team/campus-assistant/internal/mapsafe"
)

// DefaultPort is where the managed whisper-server listens.
const DefaultPort = 8082

// Backend implements backend.Backend for whisper.cpp.
type Backend struct {
	binPath       string
	serverManager *backend.ServerManager
	client        *http.Client
	port          int
	baseURL       string

	// ensureServer starts whisper-server for a model; replaced in tests.
	ensureServer func(ctx context.Context, modelPath string) error
}

// TranscriptionRequest holds the whisper-server inference fields.
type TranscriptionRequest struct {
	Language     string
	Temperature  float64
	BeamSize     int
	BestOf       int
	Translate    bool
	NoTimestamps bool
	Prompt       string
}

// TranscriptionResponse is the verbose_json response of whisper-server.
type TranscriptionResponse struct {
	Task                        string              `json:"task,omitempty"`
	Language                    string              `json:"language,omitempty"`
	Duration                    float64             `json:"duration,omitempty"`
	Text                        string              `json:"text,omitempty"`
	Segments                    []TranscriptSegment `json:"segments,omitempty"`
	DetectedLanguage            string              `json:"detected_language,omitempty"`
	DetectedLanguageProbability float64             `json:"detected_language_probability,omitempty"`
}

// TranscriptSegment represents a single segment in the transcription.
type TranscriptSegment struct {
	ID           int     `json:"id"`
	Text         string  `json:"text"`
	Start        float64 `json:"start"`
	End          float64 `json:"end"`
	AvgLogprob   float64 `json:"avg_logprob,omitempty"`
	NoSpeechProb float64 `json:"no_speech_prob,omitempty"`
}

// NewBackend creates a whisper.cpp backend. A port of zero selects DefaultPort.
func NewBackend(binPath string, serverManager *backend.ServerManager, port int) *Backend {
	if port == 0 {
		port = DefaultPort
	}

	b := &Backend{
		binPath:       binPath,
		serverManager: serverManager,
		client:        &http.Client{Timeout: 5 * time.Minute},
		port:          port,
		baseURL:       fmt.Sprintf("http://127.0.0.1:%d", port),
	}
	b.ensureServer = b.startServer

	return b
}

// Provider implements backend.Backend.
func (b *Backend) Provider() backend.BackendProvider {
	return backend.BackendProviderWhisperCPP
}

// Close stops the managed server.
func (b *Backend) Close() error {
	if b.serverManager == nil {
		return nil
	}
	return b.serverManager.StopServer(string(b.Provider()), b.port)
}

// ResolveModelPath picks the ggml model file inside a downloaded repository.
func (b *Backend) ResolveModelPath(basePath string) (string, error) {
	info, err := os.Stat(basePath)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return basePath, nil
	}

	matches, err := filepath.Glob(filepath.Join(basePath, "ggml-*.bin"))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no ggml-*.bin model under %s", basePath)
	}

	return matches[0], nil
}

func (b *Backend) startServer(ctx context.Context, modelPath string) error {
	return b.serverManager.StartServer(ctx, backend.ServerConfig{
		Name:    string(b.Provider()),
		BinPath: b.binPath,
		Args: []string{
			"--model", modelPath,
			"--port", fmt.Sprintf("%d", b.port),
			"--host", "127.0.0.1",
		},
		Port: b.port,
		// whisper-server has no dedicated health endpoint.
		HealthPath:   "/",
		ReadyTimeout: time.Minute,
	})
}

// Infer transcribes WAV audio read from req.Input.
func (b *Backend) Infer(ctx context.Context, req *backend.Request) (*backend.Response, error) {
	if err := b.ensureServer(ctx, req.ModelPath); err != nil {
		return nil, fmt.Errorf("failed to start server: %w", err)
	}

	body, contentType, err := buildMultipart(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/inference", body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)

	start := time.Now()

	resp, err := b.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("whisper-server returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var out TranscriptionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return backend.NewTextResponse(b.Provider(), req.ModelPath, strings.TrimSpace(out.Text), start, map[string]any{
		"language": out.Language,
		"segments": len(out.Segments),
	}), nil
}

func buildMultipart(req *backend.Request) (io.Reader, string, error) {
	audio, err := io.ReadAll(req.Input)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read audio input: %w", err)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", "audio.wav")
	if err != nil {
		return nil, "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return nil, "", fmt.Errorf("failed to write audio data: %w", err)
	}

	for key, value := range formFields(transcriptionRequest(req.Parameters)) {
		if err := w.WriteField(key, value); err != nil {
			return nil, "", fmt.Errorf("failed to write field %s: %w", key, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart writer: %w", err)
	}

	return &buf, w.FormDataContentType(), nil
}

func transcriptionRequest(p map[string]any) TranscriptionRequest {
	if p == nil {
		p = map[string]any{}
	}

	return TranscriptionRequest{
		Language:     mapsafe.Get(p, "language", ""),
		Temperature:  mapsafe.Get(p, "temperature", 0.0),
		Translate:    mapsafe.Get(p, "translate", false),
		NoTimestamps: mapsafe.Get(p, "no_timestamps", true),
		Prompt:       mapsafe.Get(p, "prompt", ""),
		BeamSize:     mapsafe.Get(p, "beam_size", -1),
		BestOf:       mapsafe.Get(p, "best_of", 2),
	}
}

func formFields(r TranscriptionRequest) map[string]string {
	fields := map[string]string{
		"response_format": "verbose_json",
		"temperature":     fmt.Sprintf("%.2f", r.Temperature),
		"translate":       fmt.Sprintf("%t", r.Translate),
		"no_timestamps":   fmt.Sprintf("%t", r.NoTimestamps),
	}

	if r.Language != "" {
		fields["language"] = r.Language
	}
	if r.BeamSize >= 0 {
		fields["beam_size"] = fmt.Sprintf("%d", r.BeamSize)
	}
	if r.BestOf > 0 {
		fields["best_of"] = fmt.Sprintf("%d", r.BestOf)
	}
	if r.Prompt != "" {
		fields["prompt"] = r.Prompt
	}

	return fields
}
