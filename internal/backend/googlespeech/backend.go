// Package googlespeech transcribes audio with Google Cloud Speech-to-Text.
package googlespeech

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/ekisa-team/campus-assistant/internal/backend"
	"github.com/ekisa-team/campus-assistant/internal/mapsafe"
	"google.golang.org/api/option"
)

const (
	defaultLanguage   = "gu-IN"
	defaultSampleRate = 16000
)

// Recognizer is the subset of the Speech client used by the backend.
type Recognizer interface {
	Recognize(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error)
	Close() error
}

type clientRecognizer struct {
	client *speech.Client
}

func (c clientRecognizer) Recognize(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
	return c.client.Recognize(ctx, req)
}

func (c clientRecognizer) Close() error {
	return c.client.Close()
}

// Backend implements backend.Backend for Google Speech-to-Text.
type Backend struct {
	recognizer Recognizer
}

// NewBackend dials the Speech API using application default credentials unless opts say otherwise.
func NewBackend(ctx context.Context, opts ...option.ClientOption) (*Backend, error) {
	client, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("google speech: create client: %w", err)
	}

	return NewBackendWithRecognizer(clientRecognizer{client: client}), nil
}

// NewBackendWithRecognizer wraps an existing recognizer.
func NewBackendWithRecognizer(r Recognizer) *Backend {
	return &Backend{recognizer: r}
}

// Provider implements backend.Backend.
func (b *Backend) Provider() backend.BackendProvider {
	return backend.BackendProviderGoogleSpeech
}

// Infer transcribes 16-bit PCM WAV audio and joins the top alternative of every result.
func (b *Backend) Infer(ctx context.Context, req *backend.Request) (*backend.Response, error) {
	audio, err := io.ReadAll(req.Input)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio input: %w", err)
	}

	p := req.Parameters
	if p == nil {
		p = map[string]any{}
	}

	start := time.Now()

	resp, err := b.recognizer.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:        speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz: int32(mapsafe.Get(p, "sample_rate", defaultSampleRate)),
			LanguageCode:    mapsafe.Get(p, "language", defaultLanguage),
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("google speech: recognize: %w", err)
	}

	var parts []string
	for _, result := range resp.GetResults() {
		if alts := result.GetAlternatives(); len(alts) > 0 {
			parts = append(parts, strings.TrimSpace(alts[0].GetTranscript()))
		}
	}

	return backend.NewTextResponse(b.Provider(), req.ModelPath, strings.Join(parts, " "), start, map[string]any{
		"results": len(resp.GetResults()),
	}), nil
}

// Close closes the underlying client.
func (b *Backend) Close() error {
	return b.recognizer.Close()
}
