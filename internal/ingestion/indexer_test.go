package ingestion

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Divas-Gupta30/weather-pdf-agent/internal/processing"
)

type recordingWriter struct {
	mu     sync.Mutex
	chunks []processing.Chunk
	err    error
}

func (w *recordingWriter) AddChunks(_ context.Context, chunks []processing.Chunk) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.chunks = append(w.chunks, chunks...)
	return nil
}

func TestIndexer_Directory(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "Paris is the capital of France.")
	writeFile(t, dir, "nested/b.md", "Rome is the capital of Italy.")
	writeFile(t, dir, "photo.png", "not really a png")
	writeFile(t, dir, "ignored.csv", "a,b")

	w := &recordingWriter{}
	ix := &Indexer{Splitter: processing.NewSplitter(1000, 200), Store: w, Workers: 2}

	stats, err := ix.IndexPath(context.Background(), dir)
	require.NoError(t, err)
	require.Equal(t, IndexStats{Files: 3, Skipped: 1, Pages: 2, Chunks: 2}, stats)

	var texts []string
	for _, c := range w.chunks {
		texts = append(texts, c.Text)
	}
	sort.Strings(texts)
	require.Equal(t, []string{"Paris is the capital of France.", "Rome is the capital of Italy."}, texts)
}

func TestIndexer_MissingPathUsesSample(t *testing.T) {
	t.Parallel()

	w := &recordingWriter{}
	ix := &Indexer{Splitter: processing.NewSplitter(1000, 200), Store: w}

	stats, err := ix.IndexPath(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"))
	require.NoError(t, err)
	require.True(t, stats.Sample)
	require.NotEmpty(t, w.chunks)
	require.Equal(t, "sample", w.chunks[0].Source)
}

func TestIndexer_OCRForImages(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	p := writeFile(t, dir, "scan.jpg", "binary")

	w := &recordingWriter{}
	ix := &Indexer{
		Extractor: Extractor{OCR: func(string) (string, error) { return "Big Ben is in London.", nil }},
		Splitter:  processing.NewSplitter(1000, 200),
		Store:     w,
	}

	stats, err := ix.IndexPath(context.Background(), p)
	require.NoError(t, err)
	require.Equal(t, 1, stats.Chunks)
	require.Equal(t, "Big Ben is in London.", w.chunks[0].Text)
}

func TestIndexer_StoreError(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "text")

	boom := errors.New("disk full")
	ix := &Indexer{Splitter: processing.NewSplitter(1000, 200), Store: &recordingWriter{err: boom}}

	_, err := ix.IndexPath(context.Background(), dir)
	require.ErrorIs(t, err, boom)
}

func TestIndexer_Cancelled(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "text")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ix := &Indexer{Splitter: processing.NewSplitter(1000, 200), Store: &recordingWriter{}}
	_, err := ix.IndexPath(ctx, dir)
	require.ErrorIs(t, err, context.Canceled)
}
