// Package pgvector stores chunk embeddings in PostgreSQL with the vector
// extension, using the collection/embedding table layout shared with
// LangChain's PGVector store.
package pgvector

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgv "github.com/pgvector/pgvector-go"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"ragchat/internal/domain"
)

const (
	collectionTable = "langchain_pg_collection"
	embeddingTable  = "langchain_pg_embedding"

	// undefinedTable is the SQLSTATE for a relation that does not exist.
	undefinedTable = "42P01"
)

var schema = []string{
	`CREATE EXTENSION IF NOT EXISTS vector`,
	`CREATE TABLE IF NOT EXISTS ` + collectionTable + ` (
		uuid UUID PRIMARY KEY,
		name VARCHAR NOT NULL UNIQUE,
		cmetadata JSON
	)`,
	`CREATE TABLE IF NOT EXISTS ` + embeddingTable + ` (
		id VARCHAR PRIMARY KEY,
		collection_id UUID REFERENCES ` + collectionTable + `(uuid) ON DELETE CASCADE,
		embedding vector,
		document VARCHAR,
		cmetadata JSONB
	)`,
}

// Store is a domain.VectorStore backed by PostgreSQL. It opens one
// connection per call.
type Store struct {
	url string
}

func New(databaseURL string) *Store {
	return &Store{url: databaseURL}
}

// Upsert writes all chunks in one transaction, creating the schema and the
// collection if needed. Rows whose id already exists are overwritten.
func (s *Store) Upsert(ctx context.Context, collection string, chunks []domain.Chunk, ids []string, vectors [][]float32) error {
	if len(chunks) != len(ids) || len(chunks) != len(vectors) {
		return fmt.Errorf("pgvector: %d chunks, %d ids and %d vectors", len(chunks), len(ids), len(vectors))
	}
	if len(chunks) == 0 {
		return nil
	}
	conn, err := pgx.Connect(ctx, s.url)
	if err != nil {
		return domain.NewProviderError("pgvector", "connect", err)
	}
	defer conn.Close(context.Background())

	if err := s.upsert(ctx, conn, collection, chunks, ids, vectors); err != nil {
		return domain.NewProviderError("pgvector", "upsert", err)
	}
	return nil
}

func (s *Store) upsert(ctx context.Context, conn *pgx.Conn, collection string, chunks []domain.Chunk, ids []string, vectors [][]float32) error {
	for _, stmt := range schema {
		if _, err := conn.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	if err := pgxvec.RegisterTypes(ctx, conn); err != nil {
		return fmt.Errorf("register vector type: %w", err)
	}

	tx, err := conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(context.Background()) //nolint:errcheck

	collectionID, err := ensureCollection(ctx, tx, collection)
	if err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for i, ch := range chunks {
		md := ch.Metadata
		if md == nil {
			md = map[string]any{}
		}
		batch.Queue(`INSERT INTO `+embeddingTable+` (id, collection_id, embedding, document, cmetadata)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO UPDATE SET
				collection_id = EXCLUDED.collection_id,
				embedding = EXCLUDED.embedding,
				document = EXCLUDED.document,
				cmetadata = EXCLUDED.cmetadata`,
			ids[i], collectionID, pgv.NewVector(vectors[i]), ch.Text, md)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert embeddings: %w", err)
	}
	return tx.Commit(ctx)
}

func ensureCollection(ctx context.Context, tx pgx.Tx, name string) (uuid.UUID, error) {
	if _, err := tx.Exec(ctx,
		`INSERT INTO `+collectionTable+` (uuid, name, cmetadata) VALUES ($1, $2, '{}') ON CONFLICT (name) DO NOTHING`,
		uuid.New(), name); err != nil {
		return uuid.Nil, fmt.Errorf("create collection: %w", err)
	}
	var id uuid.UUID
	if err := tx.QueryRow(ctx, `SELECT uuid FROM `+collectionTable+` WHERE name = $1`, name).Scan(&id); err != nil {
		return uuid.Nil, fmt.Errorf("lookup collection: %w", err)
	}
	return id, nil
}

// SimilaritySearch returns the k nearest chunks by cosine distance. A
// collection that was never written yields no results.
func (s *Store) SimilaritySearch(ctx context.Context, collection string, vector []float32, k int) ([]domain.SearchResult, error) {
	if k <= 0 {
		return nil, nil
	}
	conn, err := pgx.Connect(ctx, s.url)
	if err != nil {
		return nil, domain.NewProviderError("pgvector", "connect", err)
	}
	defer conn.Close(context.Background())

	results, err := s.search(ctx, conn, collection, vector, k)
	if err != nil {
		return nil, domain.NewProviderError("pgvector", "search", err)
	}
	return results, nil
}

func (s *Store) search(ctx context.Context, conn *pgx.Conn, collection string, vector []float32, k int) ([]domain.SearchResult, error) {
	var collectionID uuid.UUID
	err := conn.QueryRow(ctx, `SELECT uuid FROM `+collectionTable+` WHERE name = $1`, collection).Scan(&collectionID)
	switch {
	case errors.Is(err, pgx.ErrNoRows), isUndefinedTable(err):
		return []domain.SearchResult{}, nil
	case err != nil:
		return nil, err
	}
	if err := pgxvec.RegisterTypes(ctx, conn); err != nil {
		return nil, fmt.Errorf("register vector type: %w", err)
	}

	rows, err := conn.Query(ctx,
		`SELECT document, cmetadata, embedding <=> $1 AS distance
		FROM `+embeddingTable+`
		WHERE collection_id = $2
		ORDER BY distance ASC
		LIMIT $3`,
		pgv.NewVector(vector), collectionID, k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]domain.SearchResult, 0, k)
	for rows.Next() {
		var (
			doc      *string
			md       map[string]any
			distance float64
		)
		if err := rows.Scan(&doc, &md, &distance); err != nil {
			return nil, err
		}
		r := domain.SearchResult{Metadata: md, Score: 1 - distance}
		if doc != nil {
			r.Text = *doc
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == undefinedTable
}
