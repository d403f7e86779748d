// Package piper synthesises speech with the Piper CLI.
package piper

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ekisa-team/campus-assistant/internal/backend"
	"github.com/ekisa-team/campus-assistant/internal/mapsafe"
)

// Backend implements backend.Backend for Piper TTS.
type Backend struct {
	executor *backend.Executor
	tempDir  string
}

// NewBackend creates a new Piper backend.
func NewBackend(binPath string) (*Backend, error) {
	executor, err := backend.NewExecutor(binPath, 30*time.Second)
	if err != nil {
		return nil, err
	}

	return NewBackendWithExecutor(executor, os.TempDir()), nil
}

// NewBackendWithExecutor creates a backend over an existing executor.
func NewBackendWithExecutor(executor *backend.Executor, tempDir string) *Backend {
	return &Backend{executor: executor, tempDir: tempDir}
}

// Provider returns the backend provider.
func (b *Backend) Provider() backend.BackendProvider {
	return backend.BackendProviderPiper
}

// Infer synthesises the input text into WAV bytes.
func (b *Backend) Infer(ctx context.Context, req *backend.Request) (*backend.Response, error) {
	// Piper only writes audio to a file.
	out, err := os.CreateTemp(b.tempDir, "piper_*.wav")
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}
	outputFile := out.Name()
	out.Close()
	defer os.Remove(outputFile)

	args := buildArgs(req, outputFile)

	start := time.Now()
	if _, _, err := b.executor.Execute(ctx, args, req.Input); err != nil {
		return nil, fmt.Errorf("piper: %w", err)
	}

	audio, err := os.ReadFile(outputFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio file: %w", err)
	}
	if len(audio) == 0 {
		return nil, backend.ErrEmptyOutput
	}

	return backend.NewResponse(b.Provider(), req.ModelPath, audio, start, map[string]any{"args": args}), nil
}

// ResolveModelPath finds the voice model inside a downloaded voices repository.
// The `voice` parameter is not known here, so the first .onnx file wins.
func (b *Backend) ResolveModelPath(basePath string) (string, error) {
	info, err := os.Stat(basePath)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return basePath, nil
	}

	var found string
	err = filepath.WalkDir(basePath, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".onnx") {
			found = path
			return filepath.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if found == "" {
		return "", fmt.Errorf("no .onnx voice under %s", basePath)
	}

	return found, nil
}

func buildArgs(req *backend.Request, outputFile string) []string {
	args := []string{
		"--model", req.ModelPath,
		"--output_file", outputFile,
	}

	p := req.Parameters
	if p == nil {
		return args
	}

	if v := mapsafe.Get(p, "speaker_id", -1); v >= 0 {
		args = append(args, "--speaker", fmt.Sprintf("%d", v))
	}
	for _, key := range []string{"length_scale", "noise_scale", "noise_w", "sentence_silence"} {
		if v := mapsafe.Get(p, key, 0.0); v > 0 {
			args = append(args, "--"+key, fmt.Sprintf("%.2f", v))
		}
	}

	return args
}

// Close is a no-op.
func (b *Backend) Close() error {
	return nil
}
