package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/ekisa-team/campus-assistant/internal/config"
)

const (
	defaultRetryDelay = 2 * time.Second
	defaultMaxRetries = 3
	defaultTimeout    = 5 * time.Minute
	markerFilename    = ".campus-downloaded"
)

// HuggingFaceDownloader downloads a model repository with the `hf` CLI.
type HuggingFaceDownloader struct {
	// Binary overrides the CLI name, mainly for tests.
	Binary string
}

// Download fetches the repository into targetDir/<repo> unless the marker file
// shows the same repo and revision were already downloaded.
func (d *HuggingFaceDownloader) Download(ctx context.Context, modelConfig *config.ModelConfig, targetDir string) (string, bool, error) {
	src, err := modelConfig.GetSource()
	if err != nil {
		return "", false, fmt.Errorf("failed to get model source: %w", err)
	}

	hf, ok := src.(config.HuggingFaceSource)
	if !ok {
		return "", false, fmt.Errorf("invalid source type: %T", src)
	}

	repo := strings.TrimSpace(hf.Repo)
	if repo == "" {
		return "", false, errors.New("empty repo name")
	}

	fullPath := filepath.Join(targetDir, repo)
	markerPath := filepath.Join(fullPath, markerFilename)
	marker := markerContent(repo, hf.Revision)

	if !hf.ForceDownload && markerMatches(markerPath, marker) {
		slog.Info("Model already downloaded, skipping", "repo", repo, "path", fullPath)
		return fullPath, true, nil
	}

	if err := os.MkdirAll(fullPath, 0o755); err != nil {
		return "", false, fmt.Errorf("failed to create directory: %w", err)
	}

	args := downloadArgs(hf, repo, fullPath)
	bin := d.Binary
	if bin == "" {
		bin = "hf"
	}

	var lastErr error
	for attempt := range defaultMaxRetries {
		if attempt > 0 {
			slog.Info("Retrying download", "repo", repo, "attempt", attempt+1, "last_error", lastErr)
			select {
			case <-ctx.Done():
				return "", false, fmt.Errorf("download canceled: %w", ctx.Err())
			case <-time.After(defaultRetryDelay):
			}
		} else {
			slog.Info("Downloading model", "repo", repo, "path", fullPath)
		}

		attemptCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
		output, err := exec.CommandContext(attemptCtx, bin, args...).CombinedOutput()
		timedOut := errors.Is(attemptCtx.Err(), context.DeadlineExceeded)
		cancel()

		if err == nil {
			if err := os.WriteFile(markerPath, []byte(marker), 0o644); err != nil {
				slog.Warn("Failed to write download marker", "path", markerPath, "error", err)
			}
			slog.Info("Model downloaded", "repo", repo, "path", fullPath, "attempt", attempt+1)
			return fullPath, false, nil
		}

		lastErr = err
		slog.Error("Failed to download model", "repo", repo, "attempt", attempt+1, "error", err, "output", string(output))

		if ctx.Err() != nil {
			return "", false, fmt.Errorf("download canceled: %w", ctx.Err())
		}
		if timedOut {
			slog.Warn("Download timed out", "repo", repo, "attempt", attempt+1)
		}
	}

	return "", false, fmt.Errorf("download %s: %w", repo, lastErr)
}

func downloadArgs(hf config.HuggingFaceSource, repo, dir string) []string {
	args := []string{"download", repo, "--local-dir", dir}

	if hf.Revision != "" {
		args = append(args, "--revision", hf.Revision)
	}
	if hf.RepoType != "" {
		args = append(args, "--repo-type", hf.RepoType)
	}
	for _, inc := range hf.Include {
		args = append(args, "--include", inc)
	}
	for _, exc := range hf.Exclude {
		args = append(args, "--exclude", exc)
	}
	if hf.ForceDownload {
		args = append(args, "--force-download")
	}
	if hf.Token != "" {
		args = append(args, "--token", hf.Token)
	}
	if hf.MaxWorkers > 0 {
		args = append(args, "--max-workers", fmt.Sprintf("%d", hf.MaxWorkers))
	}

	return args
}

// markerContent is compared on startup to detect config changes that need a redownload.
func markerContent(repo, revision string) string {
	return fmt.Sprintf("repo: %s\nrevision: %s\n", repo, revision)
}

func markerMatches(markerPath, expected string) bool {
	content, err := os.ReadFile(markerPath)
	if err != nil {
		return false
	}
	if string(content) != expected {
		slog.Info("Model source changed, will redownload", "marker_path", markerPath)
		return false
	}
	return true
}
