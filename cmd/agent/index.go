package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Divas-Gupta30/weather-pdf-agent/internal/ingestion/ocr"
)

func newIndexCmd(a *app) *cobra.Command {
	var (
		path   string
		reset  bool
		useOCR bool
	)

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Extract, chunk and embed documents into the vector store",
		Long: `Indexes a PDF, text file, image or a whole directory of them into the
configured vector backend. When the path does not exist a small sample
document is indexed instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			defer a.Close()

			if path == "" {
				path = a.cfg.PDFPath
			}
			if useOCR {
				a.ocr = ocr.ExtractText
			}
			if a.cfg.Vector.Backend == "memory" {
				return fmt.Errorf("the memory backend does not persist; use sqlite or pgvector to index ahead of time")
			}

			store, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			if reset {
				if r, ok := store.(resettable); ok {
					if err := r.Reset(ctx); err != nil {
						return fmt.Errorf("reset collection: %w", err)
					}
					a.log.Info("collection cleared", "collection", a.cfg.Vector.CollectionName)
				}
			}

			a.log.Info("Starting indexing", "path", path)
			stats, err := a.indexer(store).IndexPath(ctx, path)
			if err != nil {
				return err
			}
			a.log.Info("Indexing complete",
				"files", stats.Files, "skipped", stats.Skipped,
				"pages", stats.Pages, "chunks", stats.Chunks, "sample", stats.Sample)
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "file or folder to index (default PDF_PATH)")
	cmd.Flags().BoolVar(&reset, "reset", false, "clear the collection before indexing")
	cmd.Flags().BoolVar(&useOCR, "ocr", false, "run tesseract on images and scanned PDFs")
	return cmd
}
