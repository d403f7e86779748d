// Package bootstrap holds the startup wiring shared by the campus binaries.
package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/subosito/gotenv"
	"google.golang.org/genai"

	"github.com/ekisa-team/campus-assistant/internal/backend"
	"github.com/ekisa-team/campus-assistant/internal/backend/gemini"
	"github.com/ekisa-team/campus-assistant/internal/backend/googlespeech"
	"github.com/ekisa-team/campus-assistant/internal/backend/llama"
	"github.com/ekisa-team/campus-assistant/internal/backend/ollama"
	"github.com/ekisa-team/campus-assistant/internal/backend/piper"
	"github.com/ekisa-team/campus-assistant/internal/backend/whisper"
	"github.com/ekisa-team/campus-assistant/internal/config"
	"github.com/ekisa-team/campus-assistant/internal/env"
	"github.com/ekisa-team/campus-assistant/internal/logger"
	"github.com/ekisa-team/campus-assistant/internal/model"
	"github.com/ekisa-team/campus-assistant/internal/service"
)

// LoadEnvFile loads variables from a .env file without overriding the environment.
// A missing file is not an error.
func LoadEnvFile(path string) error {
	if err := gotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// SetupLogger installs the default logger of a binary.
func SetupLogger(name string) {
	slog.SetDefault(
		logger.New(env.FromEnv(),
			logger.WithLogToFile(true),
			logger.WithLogFile(filepath.Join("logs", name+".log")),
		),
	)
}

// Backends registers every backend the configuration makes usable.
// Backends that cannot be created are logged and skipped.
func Backends(ctx context.Context, cfg *config.Config, sm *backend.ServerManager) *backend.Registry {
	reg := backend.NewRegistry()

	register := func(b backend.Backend) {
		if err := reg.Register(b); err != nil {
			slog.Warn("Failed to register backend", "backend", b.Provider(), "error", err)
			return
		}
		slog.Info("Backend registered", "backend", b.Provider())
	}

	register(ollama.NewBackend(cfg.Backends.OllamaURL))

	if cfg.GoogleAPIKey != "" {
		if b, err := gemini.NewBackend(ctx, cfg.GoogleAPIKey, genai.HTTPOptions{}); err != nil {
			slog.Warn("Gemini backend unavailable", "error", err)
		} else {
			register(b)
		}
	}

	if bin := cfg.Backends.LlamaCPPBin; bin != "" {
		if b, err := llama.NewBackend(bin); err != nil {
			slog.Warn("llama.cpp backend unavailable", "bin", bin, "error", err)
		} else {
			register(b)
		}
	}

	if bin := cfg.Backends.WhisperServerBin; bin != "" {
		if _, err := os.Stat(bin); err != nil {
			slog.Warn("whisper.cpp backend unavailable", "bin", bin, "error", err)
		} else {
			register(whisper.NewBackend(bin, sm, whisper.DefaultPort))
		}
	}

	if bin := cfg.Backends.PiperBin; bin != "" {
		if b, err := piper.NewBackend(bin); err != nil {
			slog.Warn("Piper backend unavailable", "bin", bin, "error", err)
		} else {
			register(b)
		}
	}

	if cfg.Backends.GoogleSpeech {
		if b, err := googlespeech.NewBackend(ctx); err != nil {
			slog.Warn("Google Speech backend unavailable", "error", err)
		} else {
			register(b)
		}
	}

	return reg
}

// Services are the inference services resolved from the registries.
type Services struct {
	LLM *service.LLM
	STT *service.STT
	TTS *service.TTS
}

// NewServices binds the services to the model assignments of the config
// returned by source. The assignments are read per request, so passing a
// watcher snapshot makes edits to services: apply on reload.
func NewServices(source func() *config.Config, backends *backend.Registry, models *model.Registry) Services {
	return Services{
		LLM: service.NewLLM(backends, models, func() []string { return source().Services.LLM.Models }),
		STT: service.NewSTT(backends, models, func() []string { return source().Services.STT.Models }),
		TTS: service.NewTTS(backends, models, func() []string { return source().Services.TTS.Models }),
	}
}
