package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/Divas-Gupta30/weather-pdf-agent/internal/processing"
)

const defaultWorkers = 4

// ChunkWriter stores embedded chunks.
type ChunkWriter interface {
	AddChunks(ctx context.Context, chunks []processing.Chunk) error
}

type IndexStats struct {
	Files   int
	Skipped int
	Pages   int
	Chunks  int
	Sample  bool
}

// Indexer extracts, chunks and stores every file under a path.
type Indexer struct {
	Extractor Extractor
	Splitter  processing.Splitter
	Store     ChunkWriter
	Logger    *slog.Logger

	// Workers bounds concurrent extraction; 0 means 4.
	Workers int
}

// IndexPath indexes path, a file or a directory. When path does not exist the
// built-in sample documents are indexed instead so the retrieval path still
// has something to search.
func (ix *Indexer) IndexPath(ctx context.Context, path string) (IndexStats, error) {
	log := ix.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	var stats IndexStats
	files, err := LoadLocalFiles(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Warn("document not found, indexing sample documents", "path", path)
		stats.Sample = true
		return stats, ix.store(ctx, &stats, SampleDocuments())
	case err != nil:
		return stats, fmt.Errorf("load files: %w", err)
	}
	stats.Files = len(files)

	workers := ix.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	results := make([][]processing.Document, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			log.Info("Indexing", "file", f)
			docs, err := ix.Extractor.Extract(f)
			if err != nil {
				log.Warn("skip file", "file", f, "error", err)
				return nil
			}
			results[i] = docs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return stats, err
	}

	var docs []processing.Document
	for _, r := range results {
		if r == nil {
			stats.Skipped++
			continue
		}
		docs = append(docs, r...)
	}
	return stats, ix.store(ctx, &stats, docs)
}

func (ix *Indexer) store(ctx context.Context, stats *IndexStats, docs []processing.Document) error {
	chunks := ix.Splitter.SplitDocuments(docs)
	stats.Pages = len(docs)
	stats.Chunks = len(chunks)
	if len(chunks) == 0 {
		return nil
	}
	if err := ix.Store.AddChunks(ctx, chunks); err != nil {
		return fmt.Errorf("store chunks: %w", err)
	}
	return nil
}
