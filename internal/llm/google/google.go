package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/genai"

	"ragchat/internal/backoff"
	"ragchat/internal/domain"
	embgoogle "ragchat/internal/embedding/google"
)

// ChatModel answers prompts with a Gemini model.
type ChatModel struct {
	models     *genai.Models
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

func NewChatModel(ctx context.Context, cfg Config) (*ChatModel, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("google: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash-exp"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  &http.Client{Timeout: cfg.Timeout},
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("google: %w", err)
	}
	return &ChatModel{models: gc.Models, model: cfg.Model, maxRetries: cfg.MaxRetries}, nil
}

func (m *ChatModel) Name() string { return "google" }

func (m *ChatModel) Model() string { return m.model }

// Invoke sends prompt as a single user turn at temperature 0. A response
// without text, such as one blocked by safety filters, is a provider error.
func (m *ChatModel) Invoke(ctx context.Context, prompt string) (domain.Response, error) {
	var resp *genai.GenerateContentResponse
	err := backoff.Retry(ctx, m.maxRetries, embgoogle.Retryable, func() error {
		var err error
		resp, err = m.models.GenerateContent(ctx, m.model, genai.Text(prompt), &genai.GenerateContentConfig{
			Temperature: genai.Ptr[float32](0),
		})
		return err
	})
	if err != nil {
		return domain.Response{}, domain.NewProviderError("google", "chat", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		if resp != nil && resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return domain.Response{}, domain.NewProviderError("google", "chat",
				fmt.Errorf("prompt blocked: %s", resp.PromptFeedback.BlockReason))
		}
		return domain.Response{}, domain.NewProviderError("google", "chat", errors.New("no candidates returned"))
	}
	text := resp.Text()
	if text == "" {
		return domain.Response{}, domain.NewProviderError("google", "chat",
			fmt.Errorf("empty response (finish reason %s)", resp.Candidates[0].FinishReason))
	}
	return domain.Response{Content: text}, nil
}
