package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/Divas-Gupta30/weather-pdf-agent/internal/processing"
)

// NewPool connects to Postgres and checks the connection.
func NewPool(ctx context.Context, url string) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres config: %w", err)
	}
	poolConfig.MaxConns = 10
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping Postgres: %w", err)
	}
	return pool, nil
}

// PGVectorIndex is the server mode index: chunks live in a Postgres table
// with a pgvector column and are ranked by the <-> (L2) operator.
type PGVectorIndex struct {
	pool       *pgxpool.Pool
	embedder   processing.Embedder
	collection string
}

// OpenPGVectorIndex creates the extension and table if needed.
func OpenPGVectorIndex(ctx context.Context, pool *pgxpool.Pool, collection string, embedder processing.Embedder) (*PGVectorIndex, error) {
	_, err := pool.Exec(ctx, `
	CREATE EXTENSION IF NOT EXISTS vector;
	CREATE TABLE IF NOT EXISTS documents (
		id SERIAL PRIMARY KEY,
		collection TEXT NOT NULL,
		filename TEXT NOT NULL,
		page INTEGER NOT NULL DEFAULT 0,
		content TEXT NOT NULL,
		embedding vector NOT NULL
	);
	CREATE INDEX IF NOT EXISTS documents_collection_idx ON documents (collection);
	`)
	if err != nil {
		return nil, fmt.Errorf("creating documents table: %w", err)
	}
	return &PGVectorIndex{pool: pool, embedder: embedder, collection: collection}, nil
}

// AddChunks adds chunks into Postgres with their embeddings.
func (p *PGVectorIndex) AddChunks(ctx context.Context, chunks []processing.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	vecs, err := embedChunks(ctx, p.embedder, chunks)
	if err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for i, c := range chunks {
		batch.Queue(
			"INSERT INTO documents (collection, filename, page, content, embedding) VALUES ($1, $2, $3, $4, $5)",
			p.collection, c.Source, c.Page, c.Text, pgvector.NewVector(vecs[i]))
	}
	if err := p.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert chunks: %w", err)
	}
	return nil
}

// SimilaritySearch returns the top-k most similar passages.
func (p *PGVectorIndex) SimilaritySearch(ctx context.Context, query string, k int) ([]Passage, error) {
	if k <= 0 {
		return nil, nil
	}
	qemb, err := p.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	rows, err := p.pool.Query(ctx, `
		SELECT filename, page, content, embedding <-> $1 AS distance
		FROM documents
		WHERE collection = $2
		ORDER BY distance, id
		LIMIT $3`,
		pgvector.NewVector(qemb), p.collection, k)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var results []Passage
	for rows.Next() {
		var doc Passage
		if err := rows.Scan(&doc.Source, &doc.Page, &doc.Content, &doc.Distance); err != nil {
			return nil, err
		}
		results = append(results, doc)
	}
	return results, rows.Err()
}

// Reset deletes every chunk of the collection.
func (p *PGVectorIndex) Reset(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, "DELETE FROM documents WHERE collection = $1", p.collection)
	return err
}

// Close is a no-op; the pool belongs to the caller.
func (p *PGVectorIndex) Close() error { return nil }
