package model

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/ekisa-team/campus-assistant/internal/config"
	"github.com/ekisa-team/campus-assistant/internal/config/source"
	"github.com/ekisa-team/campus-assistant/internal/envvar"
	"github.com/ekisa-team/campus-assistant/internal/xfs"
)

// DownloaderFunc returns the downloader for a source type.
type DownloaderFunc func(ctx context.Context, sourceType config.SourceType) (source.Downloader, error)

// Manager orchestrates the model lifecycle: resolving every model assigned
// to a service into the registry, downloading it first when needed.
type Manager struct {
	registry      *Registry
	getDownloader DownloaderFunc
	mu            sync.RWMutex
}

// NewManager creates a Manager using the default downloaders.
func NewManager() *Manager {
	return NewManagerWithDownloader(source.GetDownloader)
}

// NewManagerWithDownloader creates a Manager with a custom downloader lookup.
func NewManagerWithDownloader(fn DownloaderFunc) *Manager {
	return &Manager{
		registry:      NewRegistry(),
		getDownloader: fn,
	}
}

// Registry returns the model registry.
func (m *Manager) Registry() *Registry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.registry
}

// LoadModelsFromConfig resolves the assigned models and updates the registry.
// Models that are no longer assigned are removed.
func (m *Manager) LoadModelsFromConfig(ctx context.Context, cfg *config.Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	modelsPath := ResolveModelsPath(cfg)

	var instances []*ModelInstance
	for _, modelID := range AssignedModels(cfg) {
		modelConfig, ok := cfg.Models[modelID]
		if !ok {
			slog.Warn("Model not found in config", "model_id", modelID)
			continue
		}

		modelSource, err := modelConfig.GetSource()
		if err != nil {
			return fmt.Errorf("failed to get model source for %s: %w", modelID, err)
		}

		if modelSource.Type() == config.SourceTypeHuggingFace {
			if err := source.EnsureModelsDirectory(modelsPath); err != nil {
				return fmt.Errorf("failed to prepare models directory %s: %w", modelsPath, err)
			}
		}

		downloader, err := m.getDownloader(ctx, modelSource.Type())
		if err != nil {
			return fmt.Errorf("failed to get downloader for %s: %w", modelID, err)
		}

		path, _, err := downloader.Download(ctx, &modelConfig, modelsPath)
		if err != nil {
			return fmt.Errorf("failed to download model %s into %s: %w", modelID, modelsPath, err)
		}
		if modelSource.Type() == config.SourceTypeHuggingFace && modelConfig.File != "" {
			path = filepath.Join(path, modelConfig.File)
		}

		instance := NewModelInstance(&modelConfig, modelID, path)
		instance.SetStatus(ModelStatusReady)
		instances = append(instances, instance)

		slog.Info("Model registered", "model_id", modelID, "backend", modelConfig.Backend, "path", path)
	}

	for _, id := range m.registry.Replace(instances) {
		slog.Info("Model removed from registry", "model_id", id)
	}

	return nil
}

// AssignedModels returns the model IDs referenced by any service, without
// duplicates, in llm, stt, tts order.
func AssignedModels(cfg *config.Config) []string {
	seen := make(map[string]bool)
	var ids []string

	for _, list := range [][]string{
		cfg.Services.LLM.Models,
		cfg.Services.STT.Models,
		cfg.Services.TTS.Models,
	} {
		for _, id := range list {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}

	return ids
}

// ResolveModelsPath returns the path to the models directory.
// Precedence:
// 1. CAMPUS_MODELS_PATH environment variable.
// 2. ModelsDir field in the config.
// 3. Default models path.
func ResolveModelsPath(cfg *config.Config) string {
	if p := os.Getenv(envvar.CampusModelsPath); p != "" {
		return xfs.ExpandTilde(p)
	}
	if cfg.Storage.ModelsDir != "" {
		return xfs.ExpandTilde(cfg.Storage.ModelsDir)
	}
	return xfs.ExpandTilde(config.DefaultModelsPath())
}
