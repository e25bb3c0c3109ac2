package domain

import "context"

// Document is the extracted text of one page (or section) of a source file.
type Document struct {
	Content  string
	Metadata map[string]any
}

// Chunk is a contiguous window of a Document used for indexing.
// Metadata values are strings or numbers; empty and nil values never persist.
type Chunk struct {
	Text     string
	Metadata map[string]any
}

// SearchResult represents a matching chunk with a relevance score.
// Higher scores are better matches.
type SearchResult struct {
	Text     string
	Metadata map[string]any
	Score    float64
}

// Loader extracts page documents from a source file.
type Loader interface {
	Load(ctx context.Context, path string) ([]Document, error)
}

// Chunker splits documents into chunks and assigns their ids.
type Chunker interface {
	Split(documents []Document) ([]Chunk, []string)
}

// Embedder converts free text into numeric vectors.
type Embedder interface {
	Name() string
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedOne(ctx context.Context, text string) ([]float32, error)
}

// VectorStore persists vectors and supports similarity search.
// Upsert overwrites entries whose id already exists in the collection.
type VectorStore interface {
	Upsert(ctx context.Context, collection string, chunks []Chunk, ids []string, vectors [][]float32) error
	SimilaritySearch(ctx context.Context, collection string, vector []float32, k int) ([]SearchResult, error)
}

// Response is the text produced by a chat model.
type Response struct {
	Content string
}

// ChatModel turns a prompt into text.
type ChatModel interface {
	Name() string
	Invoke(ctx context.Context, prompt string) (Response, error)
}
