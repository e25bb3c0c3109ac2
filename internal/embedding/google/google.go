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
)

// Client is a Gemini embeddings client implementing domain.Embedder.
type Client struct {
	models     *genai.Models
	model      string
	batchSize  int
	maxRetries int
}

// Config configures the Gemini embeddings client.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	BatchSize  int
	Timeout    time.Duration
	MaxRetries int
}

// NewClient creates a Gemini API client. No request is sent until Embed.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("google: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-embedding-001"
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 32
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
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
	return &Client{models: gc.Models, model: cfg.Model, batchSize: cfg.BatchSize, maxRetries: cfg.MaxRetries}, nil
}

// Name returns the identifier of this embedder implementation.
func (c *Client) Name() string { return "google" }

// Model returns the embedding model name.
func (c *Client) Model() string { return c.model }

// Embed returns one vector per text, in input order.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += c.batchSize {
		end := min(start+c.batchSize, len(texts))
		contents := make([]*genai.Content, 0, end-start)
		for _, t := range texts[start:end] {
			contents = append(contents, genai.NewContentFromText(t, genai.RoleUser))
		}
		var resp *genai.EmbedContentResponse
		err := backoff.Retry(ctx, c.maxRetries, Retryable, func() error {
			var err error
			resp, err = c.models.EmbedContent(ctx, c.model, contents, nil)
			return err
		})
		if err != nil {
			return nil, domain.NewProviderError("google", "embed", err)
		}
		if len(resp.Embeddings) != end-start {
			return nil, domain.NewProviderError("google", "embed",
				fmt.Errorf("expected %d embeddings, got %d", end-start, len(resp.Embeddings)))
		}
		for _, e := range resp.Embeddings {
			if e == nil || len(e.Values) == 0 {
				return nil, domain.NewProviderError("google", "embed", errors.New("empty embedding"))
			}
			out = append(out, e.Values)
		}
	}
	return out, nil
}

// EmbedOne returns an embedding vector for the given text.
func (c *Client) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vecs, err := c.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// Retryable reports whether err is a rate limit or server-side failure.
func Retryable(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= 500
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return apiErrPtr.Code == http.StatusTooManyRequests || apiErrPtr.Code >= 500
	}
	return false
}
