package processing

import (
	"strings"

	"github.com/tmc/langchaingo/textsplitter"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// separators are tried in order: paragraphs, lines, words, then characters.
var separators = []string{"\n\n", "\n", " ", ""}

// Splitter cuts documents into chunks of at most Size characters. Short
// pieces are merged up to Size, and Overlap characters carry over between
// consecutive chunks.
type Splitter struct {
	Size    int
	Overlap int
}

func NewSplitter(size, overlap int) Splitter {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}
	return Splitter{Size: size, Overlap: overlap}
}

// SplitDocuments chunks every document, carrying its source and page along.
func (s Splitter) SplitDocuments(docs []Document) []Chunk {
	var out []Chunk
	for _, d := range docs {
		for i, text := range s.ChunkText(d.Text) {
			out = append(out, Chunk{Source: d.Source, Page: d.Page, Index: i, Text: text})
		}
	}
	return out
}

// ChunkText splits text recursively on the separators, measuring length in
// runes so multi-byte text is never cut mid-character.
func (s Splitter) ChunkText(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	rc := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(s.Size),
		textsplitter.WithChunkOverlap(s.Overlap),
		textsplitter.WithSeparators(separators),
	)
	// the recursive splitter only fails on a bad separator list
	pieces, _ := rc.SplitText(text)

	var out []string
	for _, p := range pieces {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
