package ingestion

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Divas-Gupta30/weather-pdf-agent/internal/processing"
)

var ErrUnsupported = errors.New("unsupported file type")

// OCRFunc recognises text in an image or scanned PDF.
type OCRFunc func(path string) (string, error)

// Extractor turns files into page documents. OCR is optional; without it,
// scanned PDFs produce pages with empty text and images are rejected.
type Extractor struct {
	OCR OCRFunc
}

// Extract detects file type and returns text via direct extraction or OCR.
func (e Extractor) Extract(path string) ([]processing.Document, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".txt", ".md":
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return []processing.Document{{Source: path, Text: string(b)}}, nil
	case ".pdf":
		docs, err := LoadPDFDocuments(path)
		if err == nil && hasText(docs) {
			return docs, nil
		}
		if e.OCR == nil {
			return docs, err
		}
		return e.ocr(path)
	case ".png", ".jpg", ".jpeg":
		if e.OCR == nil {
			return nil, fmt.Errorf("%w: %s needs OCR", ErrUnsupported, ext)
		}
		return e.ocr(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, ext)
	}
}

func (e Extractor) ocr(path string) ([]processing.Document, error) {
	text, err := e.OCR(path)
	if err != nil {
		return nil, fmt.Errorf("ocr %s: %w", path, err)
	}
	return []processing.Document{{Source: path, Text: text}}, nil
}
