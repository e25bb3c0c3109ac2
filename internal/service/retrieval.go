package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"ragchat/internal/config"
	"ragchat/internal/domain"
	"ragchat/internal/logging"
)

// DefaultTopK is the number of chunks placed in a prompt.
const DefaultTopK = 10

// Retriever embeds questions, searches the collection and renders prompts.
// Providers and store handles are built per call.
type Retriever struct {
	cfg         *config.AppConfig
	newEmbedder EmbedderFactory
	newStore    StoreFactory
	topK        int
	log         *zap.Logger
}

func NewRetriever(cfg *config.AppConfig, newEmbedder EmbedderFactory, newStore StoreFactory, log *zap.Logger) *Retriever {
	topK := cfg.Retrieval.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Retriever{cfg: cfg, newEmbedder: newEmbedder, newStore: newStore, topK: topK, log: logging.OrNop(log)}
}

// Search returns at most k chunks ranked best-first.
func (r *Retriever) Search(ctx context.Context, question string, k int) ([]domain.SearchResult, error) {
	if err := r.cfg.Env.Require(r.cfg.RetrievalKeys()...); err != nil {
		return nil, err
	}
	if err := r.cfg.RequireProvider(); err != nil {
		return nil, err
	}
	embedder, err := r.newEmbedder(ctx, r.cfg)
	if err != nil {
		return nil, err
	}
	vector, err := embedder.EmbedOne(ctx, question)
	if err != nil {
		return nil, err
	}
	store, err := r.newStore(r.cfg)
	if err != nil {
		return nil, err
	}
	results, err := store.SimilaritySearch(ctx, r.cfg.Collection(), vector, k)
	if err != nil {
		return nil, err
	}
	r.log.Debug("similarity search", zap.String("collection", r.cfg.Collection()), zap.Int("results", len(results)))
	return results, nil
}

// BuildPrompt retrieves the top chunks for question and renders the grounding
// prompt. With no results the context slot is empty and the model is still
// expected to refuse.
func (r *Retriever) BuildPrompt(ctx context.Context, question string) (string, error) {
	results, err := r.Search(ctx, question, r.topK)
	if err != nil {
		return "", err
	}
	texts := make([]string, len(results))
	for i, res := range results {
		texts[i] = res.Text
	}
	return RenderPrompt(strings.Join(texts, "\n"), question), nil
}
