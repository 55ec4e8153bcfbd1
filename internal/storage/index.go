package storage

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/Divas-Gupta30/weather-pdf-agent/internal/processing"
)

// Passage is one search hit. Distance is the index's native metric (L2);
// smaller is closer.
type Passage struct {
	Source   string  `json:"source"`
	Page     int     `json:"page"`
	Content  string  `json:"content"`
	Distance float64 `json:"distance"`
}

// VectorIndex answers nearest-neighbour queries over indexed passages.
type VectorIndex interface {
	SimilaritySearch(ctx context.Context, query string, k int) ([]Passage, error)
}

// Store is a VectorIndex that can also be written to.
type Store interface {
	VectorIndex
	AddChunks(ctx context.Context, chunks []processing.Chunk) error
	Close() error
}

// RetrieveContext returns the text of the top-k passages for query joined by
// a blank line, or "" when nothing matches.
func RetrieveContext(ctx context.Context, idx VectorIndex, query string, k int) (string, error) {
	passages, err := idx.SimilaritySearch(ctx, query, k)
	if err != nil {
		return "", fmt.Errorf("similarity search: %w", err)
	}
	contents := make([]string, 0, len(passages))
	for _, p := range passages {
		contents = append(contents, p.Content)
	}
	return strings.Join(contents, "\n\n"), nil
}

type entry struct {
	chunk     processing.Chunk
	embedding []float32
}

// topK ranks entries by L2 distance to q. Ties keep insertion order.
func topK(entries []entry, q []float32, k int) []Passage {
	if k <= 0 || len(entries) == 0 {
		return nil
	}
	scored := make([]Passage, 0, len(entries))
	for _, e := range entries {
		scored = append(scored, Passage{
			Source:   e.chunk.Source,
			Page:     e.chunk.Page,
			Content:  e.chunk.Text,
			Distance: l2(q, e.embedding),
		})
	}
	slices.SortStableFunc(scored, func(a, b Passage) int {
		return cmp.Compare(a.Distance, b.Distance)
	})
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored
}

func l2(a, b []float32) float64 {
	n := min(len(a), len(b))
	var sum float64
	for i := 0; i < n; i++ {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	// a dimension mismatch counts the unmatched tail as distance from zero
	for _, v := range a[n:] {
		sum += float64(v) * float64(v)
	}
	for _, v := range b[n:] {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}

func embedChunks(ctx context.Context, emb processing.Embedder, chunks []processing.Chunk) ([][]float32, error) {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vecs, err := emb.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding chunks: %w", err)
	}
	if len(vecs) != len(chunks) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vecs), len(chunks))
	}
	return vecs, nil
}
