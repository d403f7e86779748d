package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekisa-team/campus-assistant/internal/backend"
	"github.com/ekisa-team/campus-assistant/internal/backend/ollama"
	"github.com/ekisa-team/campus-assistant/internal/config"
	"github.com/ekisa-team/campus-assistant/internal/config/source"
	"github.com/ekisa-team/campus-assistant/internal/model"
)

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("CAMPUS_TEST_VALUE=from-file\n"), 0o644))
	t.Setenv("CAMPUS_TEST_VALUE", "")
	os.Unsetenv("CAMPUS_TEST_VALUE")

	require.NoError(t, LoadEnvFile(path))
	assert.Equal(t, "from-file", os.Getenv("CAMPUS_TEST_VALUE"))

	assert.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")))
}

func TestBackends_Defaults(t *testing.T) {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Backends.WhisperServerBin = filepath.Join(t.TempDir(), "missing-whisper")

	reg := Backends(context.Background(), cfg, backend.NewServerManager())
	t.Cleanup(func() { reg.Close() })

	assert.Equal(t, []backend.BackendProvider{backend.BackendProviderOllama}, reg.Providers())
}

func TestNewServices(t *testing.T) {
	cfg := &config.Config{}
	cfg.Services.LLM.Models = []string{"mistral"}

	s := NewServices(func() *config.Config { return cfg }, backend.NewRegistry(), model.NewRegistry())
	assert.False(t, s.LLM.Available())
	assert.False(t, s.STT.Available())
	assert.False(t, s.TTS.Available())
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "sqlite://./test.db")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "config.yaml"), "")
	require.NoError(t, err)

	assert.Equal(t, "sqlite://./test.db", cfg.Database.URL)
	assert.Equal(t, 1000, cfg.RAG.ChunkSize)
	assert.Equal(t, config.DefaultSubjects, cfg.Ingest.Subjects)
}

func TestLoadConfig_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [1, 2"), 0o644))

	_, err := LoadConfig(path, "")
	assert.Error(t, err)
}

func TestWatchConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data, err := os.ReadFile(filepath.Join("..", "..", "configs", "config.example.yaml"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	t.Setenv("CAMPUS_MODELS_PATH", t.TempDir())

	manager := model.NewManagerWithDownloader(func(context.Context, config.SourceType) (source.Downloader, error) {
		return source.RemoteResolver{}, nil
	})

	w, err := WatchConfig(context.Background(), path, "", manager)
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })

	_, ok := manager.Registry().Get("mistral")
	assert.True(t, ok)
}

func TestNewServices_FollowReload(t *testing.T) {
	const base = `version: "1"
models:
  gemini-flash: {type: llm, backend: gemini, name: gemini-1.5-flash}
  mistral: {type: llm, backend: ollama, name: mistral}
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(base+"services:\n  llm: {models: [gemini-flash]}\n"), 0o644))
	t.Setenv("CAMPUS_MODELS_PATH", t.TempDir())

	manager := model.NewManagerWithDownloader(func(context.Context, config.SourceType) (source.Downloader, error) {
		return source.RemoteResolver{}, nil
	})
	w, err := WatchConfig(context.Background(), path, "", manager)
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })

	backends := backend.NewRegistry()
	require.NoError(t, backends.Register(ollama.NewBackend("http://127.0.0.1:1")))

	s := NewServices(w.Snapshot, backends, manager.Registry())
	assert.False(t, s.LLM.Available())

	require.NoError(t, os.WriteFile(path, []byte(base+"services:\n  llm: {models: [mistral]}\n"), 0o644))
	assert.Eventually(t, s.LLM.Available, 5*time.Second, 50*time.Millisecond)
}
