// Package http exposes the assistant over HTTP with huma.
package http

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/rs/cors"
)

// NewAPI creates a huma API on mux.
func NewAPI(mux *http.ServeMux, title string) huma.API {
	config := huma.DefaultConfig(title, "1.0.0")
	return humago.New(mux, config)
}

// WithCORS allows cross-origin requests from origins ("*" for any).
func WithCORS(next http.Handler, origins []string) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler(next)
}

type (
	WelcomeResponseDTO struct {
		Message string `json:"message"`
	}

	WelcomeOutput struct {
		Body WelcomeResponseDTO
	}
)

// RegisterWelcome registers GET / returning a greeting.
func RegisterWelcome(api huma.API, message string) {
	huma.Register(api, huma.Operation{
		OperationID: "welcome",
		Method:      http.MethodGet,
		Path:        "/",
		Summary:     "Welcome message",
		Tags:        []string{"meta"},
	}, func(_ context.Context, _ *struct{}) (*WelcomeOutput, error) {
		return &WelcomeOutput{Body: WelcomeResponseDTO{Message: message}}, nil
	})
}
