// Package processingtest provides a deterministic Embedder for tests.
package processingtest

import (
	"context"
)

// ByteSumEmbedder folds the UTF-8 bytes of a text into Dim buckets, so equal
// texts always map to equal vectors and no network is needed.
type ByteSumEmbedder struct {
	Dim int
}

func NewEmbedder() *ByteSumEmbedder { return &ByteSumEmbedder{Dim: 16} }

func (e *ByteSumEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.vector(t)
	}
	return out, nil
}

func (e *ByteSumEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	return e.vector(text), nil
}

func (e *ByteSumEmbedder) vector(text string) []float32 {
	v := make([]float32, e.Dim)
	for i, b := range []byte(text) {
		v[i%e.Dim] += float32(b) / 255
	}
	return v
}
