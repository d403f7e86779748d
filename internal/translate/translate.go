// Package translate converts text between languages.
package translate

import (
	"context"
	"errors"
	"fmt"
	"html"

	"google.golang.org/api/option"
	translatev2 "google.golang.org/api/translate/v2"
)

// ErrNoTranslation is returned when the service answers without a translation.
var ErrNoTranslation = errors.New("no translation returned")

// Translator translates text from src to dst, both ISO-639-1 codes.
type Translator interface {
	Translate(ctx context.Context, text, src, dst string) (string, error)
}

// Google translates with the Cloud Translation v2 API.
type Google struct {
	svc *translatev2.Service
}

// NewGoogle creates a Cloud Translation client authenticated by API key.
func NewGoogle(ctx context.Context, apiKey string, opts ...option.ClientOption) (*Google, error) {
	if apiKey == "" {
		return nil, errors.New("google translation requires GOOGLE_API_KEY")
	}

	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := translatev2.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create translate service: %w", err)
	}

	return &Google{svc: svc}, nil
}

// Translate translates text. Empty input is returned unchanged.
func (g *Google) Translate(ctx context.Context, text, src, dst string) (string, error) {
	if text == "" {
		return "", nil
	}

	call := g.svc.Translations.List([]string{text}, dst).Format("text").Context(ctx)
	if src != "" {
		call = call.Source(src)
	}

	resp, err := call.Do()
	if err != nil {
		return "", fmt.Errorf("translate %s->%s: %w", src, dst, err)
	}
	if len(resp.Translations) == 0 {
		return "", ErrNoTranslation
	}

	return html.UnescapeString(resp.Translations[0].TranslatedText), nil
}
