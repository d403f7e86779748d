package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ekisa-team/campus-assistant/internal/assistant"
	"github.com/ekisa-team/campus-assistant/internal/backend"
	"github.com/ekisa-team/campus-assistant/internal/bootstrap"
	"github.com/ekisa-team/campus-assistant/internal/config"
	"github.com/ekisa-team/campus-assistant/internal/model"
	httpserver "github.com/ekisa-team/campus-assistant/internal/server/http"
	"github.com/ekisa-team/campus-assistant/internal/speech"
	"github.com/ekisa-team/campus-assistant/internal/translate"
)

func main() {
	var (
		flagPort       = flag.Int("port", 0, "HTTP port to listen on (overrides config)")
		flagConfigPath = flag.String("config", filepath.Join(config.DefaultConfigPath(), "config.yaml"), "Path to config file")
		flagSchemaPath = flag.String("schema", "", "Path to schema file (defaults to the embedded schema)")
		flagEnvFile    = flag.String("env-file", ".env", "Path to .env file")
	)
	flag.Parse()

	if err := bootstrap.LoadEnvFile(*flagEnvFile); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load %s: %v\n", *flagEnvFile, err)
	}
	bootstrap.SetupLogger("campus-speech")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *flagConfigPath, *flagSchemaPath, *flagPort); err != nil {
		slog.Error("campus-speech stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath, schemaPath string, port int) error {
	manager := model.NewManager()

	watcher, err := bootstrap.WatchConfig(ctx, configPath, schemaPath, manager)
	if err != nil {
		return err
	}
	defer watcher.Close()

	cfg := watcher.Snapshot()
	if port == 0 {
		port = cfg.Server.SpeechPort
	}

	sm := backend.NewServerManager()
	defer sm.StopAll()

	backends := bootstrap.Backends(ctx, cfg, sm)
	defer backends.Close()

	services := bootstrap.NewServices(watcher.Snapshot, backends, manager.Registry())
	if !services.STT.Available() {
		slog.Warn("No STT model available, transcriptions will report it")
	}
	if !services.TTS.Available() {
		slog.Warn("No TTS model available, synthesis will report it")
	}

	opts := []speech.PipelineOption{speech.WithTTS(services.TTS)}
	if t := translator(ctx, cfg); t != nil {
		opts = append(opts, speech.WithTranslator(t))
	}

	pipeline := speech.NewPipeline(cfg.Speech, services.STT,
		assistant.New(cfg.Speech.AssistantURL, cfg.Speech.AssistantTimeout), opts...)

	sessions := speech.NewSessions(cfg.Speech.MaxSeconds * cfg.Speech.SampleRate)
	handler := speech.NewHandler(sessions, pipeline)

	mux := http.NewServeMux()
	api := httpserver.NewAPI(mux, "Campus Speech API")
	httpserver.RegisterWelcome(api, "Campus speech-to-speech server")
	httpserver.NewTTSHandler(api, pipeline)
	httpserver.RegisterWebsocket(mux, speech.NewServer(handler, cfg.Server.CORSOrigins))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           httpserver.WithCORS(mux, cfg.Server.CORSOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Speech server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("Shutting down")
	case err = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		slog.Error("HTTP shutdown failed", "error", shutdownErr)
	}

	return err
}

// translator returns the configured translator, or nil when none is usable.
func translator(ctx context.Context, cfg *config.Config) translate.Translator {
	provider := cfg.Translation.Provider
	if provider == "" {
		provider = "google"
	}
	if provider != "google" {
		slog.Warn("Unknown translation provider", "provider", provider)
		return nil
	}

	g, err := translate.NewGoogle(ctx, cfg.GoogleAPIKey)
	if err != nil {
		slog.Warn("Translation unavailable", "error", err)
		return nil
	}
	return g
}
