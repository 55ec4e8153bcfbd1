package processing

// Document is one page of source text. Page is zero-based.
type Document struct {
	Source string
	Page   int
	Text   string
}

// Chunk is an indexable slice of a Document.
type Chunk struct {
	Source string
	Page   int
	Index  int
	Text   string
}
