package storage

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Divas-Gupta30/weather-pdf-agent/internal/processing"
)

// SQLiteIndex is the local on-disk mode: chunks and embeddings persist in a
// SQLite file under a directory, and searches scan the collection in Go.
type SQLiteIndex struct {
	db         *sql.DB
	embedder   processing.Embedder
	collection string
}

// OpenSQLiteIndex opens (or creates) <dir>/vectors.db. dir is created if it
// does not exist.
func OpenSQLiteIndex(ctx context.Context, dir, collection string, embedder processing.Embedder) (*SQLiteIndex, error) {
	if dir == "" {
		return nil, errors.New("a directory is required for the local sqlite index")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	db, err := sql.Open("sqlite3", filepath.Join(dir, "vectors.db"))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS chunks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		collection TEXT NOT NULL,
		source TEXT NOT NULL,
		page INTEGER NOT NULL,
		chunk_index INTEGER NOT NULL,
		content TEXT NOT NULL,
		embedding BLOB NOT NULL
	);
	CREATE INDEX IF NOT EXISTS chunks_collection_idx ON chunks (collection);
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating chunks table: %w", err)
	}

	return &SQLiteIndex{db: db, embedder: embedder, collection: collection}, nil
}

func (s *SQLiteIndex) AddChunks(ctx context.Context, chunks []processing.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	vecs, err := embedChunks(ctx, s.embedder, chunks)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO chunks (collection, source, page, chunk_index, content, embedding) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, c := range chunks {
		if _, err := stmt.ExecContext(ctx, s.collection, c.Source, c.Page, c.Index, c.Text, encodeVector(vecs[i])); err != nil {
			return fmt.Errorf("insert chunk %d: %w", i, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteIndex) SimilaritySearch(ctx context.Context, query string, k int) ([]Passage, error) {
	if k <= 0 {
		return nil, nil
	}
	entries, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}

	q, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	return topK(entries, q, k), nil
}

// Reset deletes every chunk of the collection.
func (s *SQLiteIndex) Reset(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM chunks WHERE collection = ?", s.collection)
	return err
}

func (s *SQLiteIndex) Close() error { return s.db.Close() }

func (s *SQLiteIndex) load(ctx context.Context) ([]entry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT source, page, chunk_index, content, embedding FROM chunks WHERE collection = ? ORDER BY id",
		s.collection)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var out []entry
	for rows.Next() {
		var (
			e    entry
			blob []byte
		)
		if err := rows.Scan(&e.chunk.Source, &e.chunk.Page, &e.chunk.Index, &e.chunk.Text, &blob); err != nil {
			return nil, err
		}
		e.embedding = decodeVector(blob)
		out = append(out, e)
	}
	return out, rows.Err()
}

func encodeVector(v []float32) []byte {
	b := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(b[4*i:], math.Float32bits(f))
	}
	return b
}

func decodeVector(b []byte) []float32 {
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v
}
