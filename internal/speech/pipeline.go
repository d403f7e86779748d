// Package speech implements the speech-to-speech session: buffered audio is
// transcribed, transliterated, translated, answered by the assistant and
// translated back.
package speech

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ekisa-team/campus-assistant/internal/config"
	"github.com/ekisa-team/campus-assistant/internal/translate"
	"github.com/ekisa-team/campus-assistant/internal/transliterate"
)

// Texts sent to the client in place of a result.
const (
	NoAudioText                = "No audio recorded."
	STTUnavailableText         = "STT model not loaded on server."
	TranscriptionErrorText     = "An error occurred during transcription."
	TranslationUnavailableText = "Translation model not loaded."
	TTSUnavailableText         = "TTS model not loaded on server."
	TTSErrorText               = "An error occurred during TTS synthesis."
)

// Transcriber turns WAV audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, wav []byte) (string, error)
	Available() bool
}

// Synthesizer turns text into audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
	Available() bool
}

// Asker answers an English question. It never fails.
type Asker interface {
	Ask(ctx context.Context, question string) string
}

// Transcription is the result of one recorded utterance.
type Transcription struct {
	OriginalText   string `json:"original_text"`
	EnglishText    string `json:"english_text"`
	TranslatedText string `json:"translated_text"`
}

func failedTranscription(text string) Transcription {
	return Transcription{OriginalText: text}
}

// Pipeline runs recorded audio through recognition, translation and the assistant.
type Pipeline struct {
	stt        Transcriber
	tts        Synthesizer
	translator translate.Translator
	assistant  Asker

	sampleRate int
	source     string
	target     string
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithTranslator sets the translator. Without one, translated texts are replaced
// by TranslationUnavailableText.
func WithTranslator(t translate.Translator) PipelineOption {
	return func(p *Pipeline) { p.translator = t }
}

// WithTTS sets the speech synthesizer.
func WithTTS(s Synthesizer) PipelineOption {
	return func(p *Pipeline) { p.tts = s }
}

// NewPipeline creates a pipeline.
func NewPipeline(cfg config.SpeechConfig, stt Transcriber, assistant Asker, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		stt:        stt,
		assistant:  assistant,
		sampleRate: cfg.SampleRate,
		source:     cfg.SourceLanguage,
		target:     cfg.TargetLanguage,
	}
	if p.sampleRate == 0 {
		p.sampleRate = 16000
	}
	if p.source == "" {
		p.source = "gu"
	}
	if p.target == "" {
		p.target = "en"
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SampleRate returns the sample rate of incoming audio.
func (p *Pipeline) SampleRate() int {
	return p.sampleRate
}

// Process transcribes samples and answers them. Failures become fixed texts.
func (p *Pipeline) Process(ctx context.Context, samples []float32) Transcription {
	if len(samples) == 0 {
		return failedTranscription(NoAudioText)
	}
	if p.stt == nil || !p.stt.Available() {
		return failedTranscription(STTUnavailableText)
	}

	out, err := p.process(ctx, samples)
	if err != nil {
		slog.Error("Speech pipeline failed", "error", err)
		return failedTranscription(TranscriptionErrorText)
	}
	return out
}

func (p *Pipeline) process(ctx context.Context, samples []float32) (Transcription, error) {
	raw, err := p.stt.Transcribe(ctx, EncodeWAV(samples, p.sampleRate))
	if err != nil {
		return Transcription{}, fmt.Errorf("transcribe: %w", err)
	}

	original := transliterate.ToGujarati(raw)
	slog.Debug("Transcribed audio", "samples", len(samples), "text", original)

	english, err := p.translate(ctx, original, p.source, p.target)
	if err != nil {
		return Transcription{}, err
	}

	answer := p.assistant.Ask(ctx, english)

	translated, err := p.translate(ctx, answer, p.target, p.source)
	if err != nil {
		return Transcription{}, err
	}

	return Transcription{
		OriginalText:   original,
		EnglishText:    english,
		TranslatedText: translated,
	}, nil
}

func (p *Pipeline) translate(ctx context.Context, text, src, dst string) (string, error) {
	if p.translator == nil {
		return TranslationUnavailableText, nil
	}

	out, err := p.translator.Translate(ctx, text, src, dst)
	if err != nil {
		return "", fmt.Errorf("translate %s->%s: %w", src, dst, err)
	}
	return out, nil
}

// Synthesize renders text as audio.
func (p *Pipeline) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if p.tts == nil || !p.tts.Available() {
		return nil, ErrTTSUnavailable
	}

	audio, err := p.tts.Synthesize(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("synthesize: %w", err)
	}
	return audio, nil
}
