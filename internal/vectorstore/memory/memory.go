package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"ragchat/internal/domain"
)

type entry struct {
	chunk  domain.Chunk
	vector []float32
}

type collection struct {
	order   []string
	entries map[string]entry
}

// Storage is a simple in-memory vector store using brute-force cosine similarity.
type Storage struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

func NewStorage() *Storage {
	return &Storage{collections: make(map[string]*collection)}
}

func (s *Storage) Upsert(_ context.Context, name string, chunks []domain.Chunk, ids []string, vectors [][]float32) error {
	if len(chunks) != len(ids) || len(chunks) != len(vectors) {
		return fmt.Errorf("memory: %d chunks, %d ids and %d vectors", len(chunks), len(ids), len(vectors))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[name]
	if !ok {
		c = &collection{entries: make(map[string]entry)}
		s.collections[name] = c
	}
	for i, id := range ids {
		if _, exists := c.entries[id]; !exists {
			c.order = append(c.order, id)
		}
		c.entries[id] = entry{chunk: chunks[i], vector: vectors[i]}
	}
	return nil
}

func (s *Storage) SimilaritySearch(_ context.Context, name string, vector []float32, k int) ([]domain.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[name]
	if !ok || k <= 0 {
		return []domain.SearchResult{}, nil
	}
	results := make([]domain.SearchResult, 0, len(c.order))
	for _, id := range c.order {
		e := c.entries[id]
		results = append(results, domain.SearchResult{
			Text:     e.chunk.Text,
			Metadata: e.chunk.Metadata,
			Score:    cosine(e.vector, vector),
		})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}

// Len returns the number of entries in a collection.
func (s *Storage) Len(name string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.collections[name]; ok {
		return len(c.entries)
	}
	return 0
}

func cosine(a, b []float32) float64 {
	n := min(len(a), len(b))
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
