// Package llm selects the chat model provider from the configured API keys.
package llm

import (
	"context"
	"time"

	"ragchat/internal/config"
	"ragchat/internal/domain"
	"ragchat/internal/llm/google"
	"ragchat/internal/llm/openai"
)

// New returns the OpenAI chat model when OPENAI_API_KEY is set, otherwise the
// Gemini model when GOOGLE_API_KEY is set.
func New(ctx context.Context, cfg *config.AppConfig) (domain.ChatModel, error) {
	if err := cfg.RequireProvider(); err != nil {
		return nil, err
	}
	if cfg.Env.Has(config.KeyOpenAIAPIKey) {
		oc := cfg.LLM.OpenAI
		return openai.NewChatModel(openai.Config{
			APIKey:     cfg.Env.Get(config.KeyOpenAIAPIKey),
			BaseURL:    oc.BaseURL,
			Model:      oc.Model,
			Timeout:    time.Duration(oc.TimeoutSecs) * time.Second,
			MaxRetries: oc.MaxRetries,
		})
	}
	gc := cfg.LLM.Google
	return google.NewChatModel(ctx, google.Config{
		APIKey:     cfg.Env.Get(config.KeyGoogleAPIKey),
		Model:      gc.Model,
		Timeout:    time.Duration(gc.TimeoutSecs) * time.Second,
		MaxRetries: gc.MaxRetries,
	})
}
