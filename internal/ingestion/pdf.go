package ingestion

import (
	"fmt"
	"strings"

	pdf "github.com/ledongthuc/pdf"

	"github.com/Divas-Gupta30/weather-pdf-agent/internal/processing"
)

// LoadPDFDocuments returns one Document per page. A page whose text cannot be
// extracted yields an empty Document rather than an error, so page numbers
// stay aligned with the file.
func LoadPDFDocuments(path string) ([]processing.Document, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer f.Close()

	n := r.NumPage()
	docs := make([]processing.Document, 0, n)
	for i := 1; i <= n; i++ {
		docs = append(docs, processing.Document{
			Source: path,
			Page:   i - 1,
			Text:   pageText(r.Page(i)),
		})
	}
	return docs, nil
}

func pageText(p pdf.Page) (text string) {
	if p.V.IsNull() {
		return ""
	}
	defer func() {
		// malformed content streams panic inside the parser
		if recover() != nil {
			text = ""
		}
	}()
	t, err := p.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(t)
}

func hasText(docs []processing.Document) bool {
	for _, d := range docs {
		if strings.TrimSpace(d.Text) != "" {
			return true
		}
	}
	return false
}
