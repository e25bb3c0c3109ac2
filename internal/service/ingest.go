// Package service wires loaders, chunkers, embedders and vector stores into
// the ingestion and retrieval flows.
package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"ragchat/internal/config"
	"ragchat/internal/domain"
	"ragchat/internal/logging"
)

// EmbedderFactory builds the embedding provider selected by cfg.
type EmbedderFactory func(ctx context.Context, cfg *config.AppConfig) (domain.Embedder, error)

// StoreFactory builds the vector store selected by cfg.
type StoreFactory func(cfg *config.AppConfig) (domain.VectorStore, error)

// IngestReport summarizes one ingestion run.
type IngestReport struct {
	Path       string
	Pages      int
	Chunks     int
	Collection string
}

// Pipeline loads a document, splits it, embeds every chunk and writes the
// vectors to the configured collection.
type Pipeline struct {
	cfg         *config.AppConfig
	root        string
	loader      domain.Loader
	chunker     domain.Chunker
	newEmbedder EmbedderFactory
	newStore    StoreFactory
	log         *zap.Logger
}

// NewPipeline creates a pipeline. Relative document paths resolve against root.
func NewPipeline(cfg *config.AppConfig, root string, loader domain.Loader, chunker domain.Chunker, newEmbedder EmbedderFactory, newStore StoreFactory, log *zap.Logger) *Pipeline {
	return &Pipeline{
		cfg:         cfg,
		root:        root,
		loader:      loader,
		chunker:     chunker,
		newEmbedder: newEmbedder,
		newStore:    newStore,
		log:         logging.OrNop(log),
	}
}

// Ingest runs the pipeline once. An empty path falls back to PDF_PATH.
// A document without text writes nothing and succeeds.
func (p *Pipeline) Ingest(ctx context.Context, path string) (IngestReport, error) {
	keys := p.cfg.RetrievalKeys()
	if path == "" {
		keys = p.cfg.IngestionKeys()
	}
	if err := p.cfg.Env.Require(keys...); err != nil {
		return IngestReport{}, err
	}
	if err := p.cfg.RequireProvider(); err != nil {
		return IngestReport{}, err
	}
	if path == "" {
		path = p.cfg.DocumentPath()
	}

	resolved, err := p.locate(path)
	if err != nil {
		return IngestReport{}, err
	}
	report := IngestReport{Path: resolved, Collection: p.cfg.Collection()}

	docs, err := p.loader.Load(ctx, resolved)
	if err != nil {
		return report, err
	}
	report.Pages = len(docs)

	chunks, ids := p.chunker.Split(docs)
	report.Chunks = len(chunks)
	p.log.Info("document split", zap.String("path", resolved), zap.Int("pages", report.Pages), zap.Int("chunks", report.Chunks))
	if len(chunks) == 0 {
		p.log.Warn("document has no text; nothing to index", zap.String("path", resolved))
		return report, nil
	}

	embedder, err := p.newEmbedder(ctx, p.cfg)
	if err != nil {
		return report, err
	}
	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}
	vectors, err := embedder.Embed(ctx, texts)
	if err != nil {
		return report, err
	}
	if len(vectors) != len(chunks) {
		return report, domain.NewProviderError(embedder.Name(), "embed",
			fmt.Errorf("expected %d vectors, got %d", len(chunks), len(vectors)))
	}
	p.log.Debug("chunks embedded", zap.String("provider", embedder.Name()), zap.Int("dimension", len(vectors[0])))

	store, err := p.newStore(p.cfg)
	if err != nil {
		return report, err
	}
	if err := store.Upsert(ctx, report.Collection, chunks, ids, vectors); err != nil {
		return report, err
	}
	p.log.Info("ingestion complete", zap.String("collection", report.Collection), zap.Int("chunks", report.Chunks))
	return report, nil
}

func (p *Pipeline) locate(path string) (string, error) {
	resolved := path
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(p.root, resolved)
	}
	info, err := os.Stat(resolved)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return "", &domain.DocumentNotFoundError{Path: resolved}
	case err != nil:
		return "", err
	case info.IsDir():
		return "", &domain.DocumentNotFoundError{Path: resolved}
	}
	return resolved, nil
}
