package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"ragchat/internal/domain"
)

type mockEmbedder struct{ mock.Mock }

func (m *mockEmbedder) Name() string { return "mock" }

func (m *mockEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	args := m.Called(ctx, texts)
	v, _ := args.Get(0).([][]float32)
	return v, args.Error(1)
}

func (m *mockEmbedder) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	v, _ := args.Get(0).([]float32)
	return v, args.Error(1)
}

type mockStore struct{ mock.Mock }

func (m *mockStore) Upsert(ctx context.Context, collection string, chunks []domain.Chunk, ids []string, vectors [][]float32) error {
	return m.Called(ctx, collection, chunks, ids, vectors).Error(0)
}

func (m *mockStore) SimilaritySearch(ctx context.Context, collection string, vector []float32, k int) ([]domain.SearchResult, error) {
	args := m.Called(ctx, collection, vector, k)
	v, _ := args.Get(0).([]domain.SearchResult)
	return v, args.Error(1)
}

type stubLoader struct {
	docs []domain.Document
	err  error
	path string
}

func (l *stubLoader) Load(_ context.Context, path string) ([]domain.Document, error) {
	l.path = path
	return l.docs, l.err
}
