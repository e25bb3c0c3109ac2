// Package embedding selects the embedding provider from the configured API keys.
package embedding

import (
	"context"
	"time"

	"ragchat/internal/config"
	"ragchat/internal/domain"
	"ragchat/internal/embedding/google"
	"ragchat/internal/embedding/openai"
)

// New returns the OpenAI embedder when OPENAI_API_KEY is set, otherwise the
// Gemini embedder when GOOGLE_API_KEY is set.
func New(ctx context.Context, cfg *config.AppConfig) (domain.Embedder, error) {
	if err := cfg.RequireProvider(); err != nil {
		return nil, err
	}
	switch {
	case cfg.Env.Has(config.KeyOpenAIAPIKey):
		oc := cfg.Embedder.OpenAI
		return openai.NewClient(openai.Config{
			APIKey:     cfg.Env.Get(config.KeyOpenAIAPIKey),
			BaseURL:    oc.BaseURL,
			Model:      oc.Model,
			Timeout:    time.Duration(oc.TimeoutSecs) * time.Second,
			BatchSize:  oc.BatchSize,
			MaxRetries: oc.MaxRetries,
		})
	default:
		gc := cfg.Embedder.Google
		return google.NewClient(ctx, google.Config{
			APIKey:     cfg.Env.Get(config.KeyGoogleAPIKey),
			Model:      gc.Model,
			BatchSize:  gc.BatchSize,
			MaxRetries: gc.MaxRetries,
		})
	}
}
