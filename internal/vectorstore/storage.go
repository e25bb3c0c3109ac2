// Package vectorstore selects the configured domain.VectorStore backend.
package vectorstore

import (
	"fmt"

	"ragchat/internal/config"
	"ragchat/internal/domain"
	"ragchat/internal/vectorstore/memory"
	"ragchat/internal/vectorstore/pgvector"
	"ragchat/internal/vectorstore/qdrant"
)

// New builds the store named by cfg.VectorStore.Type. Callers validate the
// required environment keys first.
func New(cfg *config.AppConfig) (domain.VectorStore, error) {
	switch cfg.VectorStore.Type {
	case config.StorePGVector, "":
		return pgvector.New(cfg.DatabaseURL()), nil
	case config.StoreQdrant:
		qc := cfg.VectorStore.Qdrant
		if qc == nil {
			qc = &config.QdrantConfig{}
		}
		return qdrant.NewStorage(qdrant.Config{
			Host:   qc.Host,
			Port:   qc.Port,
			APIKey: qc.APIKey,
			UseTLS: qc.UseTLS,
		}), nil
	case config.StoreMemory:
		return memory.NewStorage(), nil
	default:
		return nil, fmt.Errorf("unknown vector store: %s", cfg.VectorStore.Type)
	}
}
