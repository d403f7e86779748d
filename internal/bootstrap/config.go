package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/ekisa-team/campus-assistant/internal/config"
	"github.com/ekisa-team/campus-assistant/internal/model"
)

// WatchConfig loads the config, registers its models and keeps both in sync
// with the file on disk.
func WatchConfig(ctx context.Context, path, schemaPath string, manager *model.Manager) (*config.Watcher, error) {
	watcher, err := config.NewWatcher(path, schemaPath, func(cfg *config.Config, err error) {
		if err != nil {
			slog.Error("Failed to reload config", "error", err)
			return
		}

		if err := manager.LoadModelsFromConfig(ctx, cfg); err != nil {
			slog.Error("Failed to load models from config", "error", err)
		}
	})
	if err != nil {
		return nil, err
	}

	if err := manager.LoadModelsFromConfig(ctx, watcher.Snapshot()); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("load models: %w", err)
	}

	slog.Info("Config loaded successfully", "config", path)
	return watcher, nil
}

// LoadConfig loads the config at path. A missing file yields the defaults
// with environment overrides applied.
func LoadConfig(path, schemaPath string) (*config.Config, error) {
	cfg, err := config.LoadAndValidate(path, schemaPath)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	slog.Warn("Config file not found, using defaults", "config", path)
	cfg = &config.Config{}
	config.ApplyEnv(cfg)
	config.ApplyDefaults(cfg)
	return cfg, nil
}
