package openai

import (
	"context"
	"errors"
	"math"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"ragchat/internal/backoff"
	"ragchat/internal/domain"
	embopenai "ragchat/internal/embedding/openai"
)

// ChatModel answers prompts with an OpenAI-compatible chat completion endpoint.
type ChatModel struct {
	client     *openai.Client
	model      string
	maxRetries int
}

type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Timeout    time.Duration
	MaxRetries int
}

func NewChatModel(cfg Config) (*ChatModel, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	return &ChatModel{
		client:     openai.NewClientWithConfig(oc),
		model:      cfg.Model,
		maxRetries: cfg.MaxRetries,
	}, nil
}

func (m *ChatModel) Name() string { return "openai" }

func (m *ChatModel) Model() string { return m.model }

// Invoke sends prompt as a single user message at temperature 0.
func (m *ChatModel) Invoke(ctx context.Context, prompt string) (domain.Response, error) {
	var resp openai.ChatCompletionResponse
	err := backoff.Retry(ctx, m.maxRetries, embopenai.Retryable, func() error {
		var err error
		resp, err = m.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: m.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
			// A zero temperature is dropped from the request body.
			Temperature: math.SmallestNonzeroFloat32,
		})
		return err
	})
	if err != nil {
		return domain.Response{}, domain.NewProviderError("openai", "chat", err)
	}
	if len(resp.Choices) == 0 {
		return domain.Response{}, domain.NewProviderError("openai", "chat", errors.New("empty response"))
	}
	return domain.Response{Content: resp.Choices[0].Message.Content}, nil
}
