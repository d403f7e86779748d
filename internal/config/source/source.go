// Package source materialises model sources into local paths.
package source

import (
	"context"
	"fmt"
	"os"

	"github.com/ekisa-team/campus-assistant/internal/config"
)

// Downloader resolves a model config into a path usable by a backend.
// The boolean result reports whether the model was already present.
type Downloader interface {
	Download(ctx context.Context, modelConfig *config.ModelConfig, targetDir string) (string, bool, error)
}

// GetDownloader returns the downloader for a source type.
func GetDownloader(_ context.Context, sourceType config.SourceType) (Downloader, error) {
	switch sourceType {
	case config.SourceTypeHuggingFace:
		return &HuggingFaceDownloader{}, nil
	case config.SourceTypeRemote:
		return RemoteResolver{}, nil
	default:
		return nil, fmt.Errorf("unsupported source type: %s", sourceType)
	}
}

// EnsureModelsDirectory creates the models directory if needed.
func EnsureModelsDirectory(path string) error {
	return os.MkdirAll(path, 0o755)
}

// RemoteResolver resolves remote models to their API name; nothing is downloaded.
type RemoteResolver struct{}

// Download returns the remote model name.
func (RemoteResolver) Download(_ context.Context, modelConfig *config.ModelConfig, _ string) (string, bool, error) {
	if modelConfig.Name == "" {
		return "", false, fmt.Errorf("remote model has no name")
	}
	return modelConfig.Name, true, nil
}
