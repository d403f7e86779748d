package piper

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ekisa-team/campus-assistant/internal/backend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writingRunner emulates piper by writing fixed bytes to --output_file.
type writingRunner struct {
	text string
}

func (w *writingRunner) Run(_ context.Context, _ string, args []string, stdin io.Reader) ([]byte, []byte, error) {
	data, _ := io.ReadAll(stdin)
	w.text = string(data)
	for i, a := range args {
		if a == "--output_file" {
			return nil, nil, os.WriteFile(args[i+1], []byte("RIFFfake"), 0o644)
		}
	}
	return nil, nil, nil
}

func TestBackend_Infer(t *testing.T) {
	runner := &writingRunner{}
	b := NewBackendWithExecutor(backend.NewExecutorWithRunner("piper", time.Second, runner), t.TempDir())

	resp, err := b.Infer(context.Background(), &backend.Request{
		ModelPath:  "gu_IN.onnx",
		Input:      strings.NewReader("નમસ્તે"),
		Parameters: map[string]any{"length_scale": 1.2},
	})
	require.NoError(t, err)

	audio, err := backend.ReadAll(resp)
	require.NoError(t, err)
	assert.Equal(t, "RIFFfake", string(audio))
	assert.Equal(t, "નમસ્તે", runner.text)
}

func TestBackend_ResolveModelPath(t *testing.T) {
	dir := t.TempDir()
	voice := filepath.Join(dir, "gu", "gu_IN", "voice.onnx")
	require.NoError(t, os.MkdirAll(filepath.Dir(voice), 0o755))
	require.NoError(t, os.WriteFile(voice, []byte("x"), 0o644))

	b := &Backend{}
	got, err := b.ResolveModelPath(dir)
	require.NoError(t, err)
	assert.Equal(t, voice, got)

	got, err = b.ResolveModelPath(voice)
	require.NoError(t, err)
	assert.Equal(t, voice, got)

	_, err = b.ResolveModelPath(t.TempDir())
	assert.Error(t, err)
}

func TestBuildArgs(t *testing.T) {
	args := buildArgs(&backend.Request{
		ModelPath:  "v.onnx",
		Parameters: map[string]any{"speaker_id": 2, "noise_w": 0.8},
	}, "out.wav")

	assert.Equal(t, []string{
		"--model", "v.onnx", "--output_file", "out.wav",
		"--speaker", "2", "--noise_w", "0.80",
	}, args)
}
