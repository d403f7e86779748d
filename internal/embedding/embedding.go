// Package embedding turns text into vectors for retrieval.
package embedding

import (
	"context"
	"fmt"

	"github.com/ekisa-team/campus-assistant/internal/config"
	"google.golang.org/genai"
)

// Provider names accepted in the configuration.
const (
	ProviderOllama = "ollama"
	ProviderGemini = "gemini"
)

// Embedder embeds texts in order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Model() string
}

// New builds the embedder selected by cfg.
func New(ctx context.Context, cfg config.EmbeddingConfig, googleAPIKey string) (Embedder, error) {
	switch cfg.Provider {
	case ProviderOllama, "":
		return NewOllama(cfg.URL, cfg.Model), nil
	case ProviderGemini:
		return NewGemini(ctx, googleAPIKey, cfg.Model, genai.HTTPOptions{})
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}

func toFloat32(values []float64) []float32 {
	out := make([]float32, len(values))
	for i, v := range values {
		out[i] = float32(v)
	}
	return out
}
