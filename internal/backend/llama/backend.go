// Package llama runs local GGUF models through the llama.cpp CLI.
package llama

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ekisa-team/campus-assistant/internal/backend"
	"github.com/ekisa-team/campus-assistant/internal/mapsafe"
)

// Backend implements backend.Backend for llama.cpp.
type Backend struct {
	executor *backend.Executor
}

// NewBackend creates a new llama.cpp backend.
func NewBackend(binPath string) (*Backend, error) {
	executor, err := backend.NewExecutor(binPath, 2*time.Minute)
	if err != nil {
		return nil, err
	}

	return NewBackendWithExecutor(executor), nil
}

// NewBackendWithExecutor creates a backend over an existing executor.
func NewBackendWithExecutor(executor *backend.Executor) *Backend {
	return &Backend{executor: executor}
}

// Provider returns the backend provider.
func (b *Backend) Provider() backend.BackendProvider {
	return backend.BackendProviderLlamaCPP
}

// Infer runs a single completion.
func (b *Backend) Infer(ctx context.Context, req *backend.Request) (*backend.Response, error) {
	prompt, err := io.ReadAll(req.Input)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	args := buildArgs(req)
	args = append(args, "--prompt", string(prompt))

	start := time.Now()
	stdout, _, err := b.executor.Execute(ctx, args, nil)
	if err != nil {
		return nil, fmt.Errorf("llama.cpp: %w", err)
	}

	return backend.NewTextResponse(b.Provider(), req.ModelPath, parseOutput(string(stdout)), start, map[string]any{
		"args": strings.Join(args, " "),
	}), nil
}

func buildArgs(req *backend.Request) []string {
	p := req.Parameters
	if p == nil {
		p = map[string]any{}
	}

	args := []string{"--model", req.ModelPath}

	if v := mapsafe.Get(p, "system_prompt", ""); v != "" {
		args = append(args, "--system-prompt", v)
	}
	if v := mapsafe.Get(p, "n_ctx", 0); v > 0 {
		args = append(args, "--ctx-size", fmt.Sprintf("%d", v))
	}
	args = append(args, "-n", fmt.Sprintf("%d", mapsafe.Get(p, "n_predict", 512)))
	if v := mapsafe.Get(p, "n_gpu_layers", -1); v >= 0 {
		args = append(args, "-ngl", fmt.Sprintf("%d", v))
	}
	if v := mapsafe.Get(p, "threads", 0); v > 0 {
		args = append(args, "-t", fmt.Sprintf("%d", v))
	}
	if v := mapsafe.Get(p, "temperature", -1.0); v >= 0 {
		args = append(args, "--temp", fmt.Sprintf("%.2f", v))
	}
	args = append(args, "--repeat-penalty", fmt.Sprintf("%.2f", mapsafe.Get(p, "repeat_penalty", 1.1)))
	if v := mapsafe.Get(p, "top_p", 0.0); v > 0 {
		args = append(args, "--top-p", fmt.Sprintf("%.2f", v))
	}
	if v := mapsafe.Get(p, "top_k", 0); v > 0 {
		args = append(args, "--top-k", fmt.Sprintf("%d", v))
	}

	return append(args, "--no-warmup", "--no-display-prompt", "--simple-io", "--no-conversation")
}

var logPrefixes = []string{
	"system_info:", "llama_", "ggml_", "print_info:", "load:", "main:", "sampler", "generate:",
}

// parseOutput drops llama.cpp log lines and leading blank lines.
func parseOutput(output string) string {
	var result strings.Builder
	inGeneration := false

	for line := range strings.SplitSeq(output, "\n") {
		if hasLogPrefix(line) {
			continue
		}
		if strings.TrimSpace(line) != "" {
			inGeneration = true
		}
		if inGeneration {
			result.WriteString(line)
			result.WriteString("\n")
		}
	}

	return strings.TrimSpace(result.String())
}

func hasLogPrefix(line string) bool {
	for _, p := range logPrefixes {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}

// Close is a no-op; every call is a fresh process.
func (b *Backend) Close() error {
	return nil
}
