// Package extractor turns uploaded document bytes into retrieval-ready text
// chunks. Each supported format has its own extractor; PDF and Word share a
// sentence-aware chunker, Excel produces atomic chunks from a structured
// price-table layout.
package extractor

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/docsight/docsight/schema"
)

// ErrUnsupportedType reports a file extension outside the recognized set.
var ErrUnsupportedType = errors.New("unsupported document type")

// Logf logs a formatted message; a nil Logf discards output.
type Logf func(format string, args ...any)

func nopLogf(string, ...any) {}

// Extractor converts raw document bytes into chunks. An empty result means
// the document had no usable content; it is not an error.
type Extractor interface {
	Extract(data []byte, filename string) []schema.Document
}

// Factory dispatches extractors by file extension.
type Factory struct {
	extractors map[string]Extractor
	chunkSize  int
	overlap    int
	logf       Logf
}

// Option configures the Factory.
type Option func(*Factory)

// WithChunkSize sets the maximum chunk size in characters for text formats.
func WithChunkSize(size int) Option {
	return func(f *Factory) {
		if size > 0 {
			f.chunkSize = size
		}
	}
}

// WithChunkOverlap sets the overlap in characters between consecutive chunks.
func WithChunkOverlap(overlap int) Option {
	return func(f *Factory) {
		if overlap >= 0 {
			f.overlap = overlap
		}
	}
}

// WithLogf sets the logger used by extractors for recoverable failures.
func WithLogf(logf Logf) Option {
	return func(f *Factory) {
		if logf != nil {
			f.logf = logf
		}
	}
}

// NewFactory creates a Factory with extractors registered for every
// supported extension.
func NewFactory(opts ...Option) *Factory {
	f := &Factory{
		chunkSize: 1024,
		overlap:   200,
		logf:      nopLogf,
	}
	for _, opt := range opts {
		opt(f)
	}
	chunker := NewChunker(f.chunkSize, f.overlap)
	f.extractors = map[string]Extractor{
		".pdf":  NewPDF(chunker, f.logf),
		".docx": NewWord(chunker, f.logf),
		".doc":  NewWord(chunker, f.logf),
		".xlsx": NewExcel(f.logf),
		".xls":  NewXLS(f.logf),
	}
	return f
}

// Supported reports whether the filename has a recognized extension.
func (f *Factory) Supported(filename string) bool {
	_, ok := f.extractors[normalizeExt(filename)]
	return ok
}

// Extensions returns the recognized extensions.
func (f *Factory) Extensions() []string {
	return []string{".pdf", ".docx", ".doc", ".xlsx", ".xls"}
}

// Extract dispatches by extension and runs the matching extractor. Unknown
// extensions fail with ErrUnsupportedType; a recognized file with no usable
// content yields an empty slice and no error.
func (f *Factory) Extract(data []byte, filename string) ([]schema.Document, error) {
	ext := normalizeExt(filename)
	e, ok := f.extractors[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, ext)
	}
	return e.Extract(data, filepath.Base(filename)), nil
}

func normalizeExt(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

// textDocuments wraps chunked text segments into documents with ordering
// metadata shared by the PDF and Word extractors.
func textDocuments(segments []string, filename, sourceType string) []schema.Document {
	docs := make([]schema.Document, 0, len(segments))
	for i, segment := range segments {
		docs = append(docs, schema.Document{
			PageContent: segment,
			Metadata: map[string]interface{}{
				schema.KeySourceType:  sourceType,
				schema.KeyFilename:    filename,
				schema.KeyChunkID:     i,
				schema.KeyTotalChunks: len(segments),
			},
		})
	}
	return docs
}
