package storage

import (
	"context"
	"sync"

	"github.com/Divas-Gupta30/weather-pdf-agent/internal/processing"
)

// MemoryIndex keeps every chunk and its embedding in process memory and
// answers queries by brute-force scan.
type MemoryIndex struct {
	embedder processing.Embedder

	mu      sync.RWMutex
	entries []entry
}

func NewMemoryIndex(embedder processing.Embedder) *MemoryIndex {
	return &MemoryIndex{embedder: embedder}
}

func (m *MemoryIndex) AddChunks(ctx context.Context, chunks []processing.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	vecs, err := embedChunks(ctx, m.embedder, chunks)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for i, c := range chunks {
		m.entries = append(m.entries, entry{chunk: c, embedding: vecs[i]})
	}
	return nil
}

func (m *MemoryIndex) SimilaritySearch(ctx context.Context, query string, k int) ([]Passage, error) {
	m.mu.RLock()
	empty := len(m.entries) == 0
	m.mu.RUnlock()
	if empty || k <= 0 {
		return nil, nil
	}

	q, err := m.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return topK(m.entries, q, k), nil
}

func (m *MemoryIndex) Close() error { return nil }
