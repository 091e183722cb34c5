package extractor

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/docsight/docsight/schema"
)

// minPageChars is the minimum cleaned length a page must have to be kept.
const minPageChars = 50

// PDF extracts page text from PDF files, tagging each page with a marker so
// answers can cite page numbers. Unreadable files go through the generic
// printable-text fallback.
type PDF struct {
	chunker *Chunker
	logf    Logf
}

// NewPDF creates a PDF extractor.
func NewPDF(chunker *Chunker, logf Logf) *PDF {
	if logf == nil {
		logf = nopLogf
	}
	return &PDF{chunker: chunker, logf: logf}
}

// Extract implements Extractor. A file the pdf package cannot parse goes
// through the printable-text fallback; a parseable file whose pages are all
// blank or too short yields no documents.
func (p *PDF) Extract(data []byte, filename string) []schema.Document {
	combined, err := p.pageText(data)
	if err != nil {
		p.logf("pdf: page extraction failed for %s: %v", filename, err)
		return textDocuments(fallbackChunks(p.chunker, data), filename, schema.SourcePDF)
	}
	if combined == "" {
		return nil
	}
	return textDocuments(p.chunker.Split(combined), filename, schema.SourcePDF)
}

// pageText walks the document page by page, keeping pages with enough
// cleaned text and prefixing each with a page marker. The pdf package
// panics on some malformed files, so the walk recovers into an error.
func (p *PDF) pageText(data []byte) (result string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	var parts []string
	total := reader.NumPage()
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			p.logf("pdf: skipping page %d: %v", i, err)
			continue
		}
		clean := cleanText(text)
		if utf8.RuneCountInString(clean) <= minPageChars {
			continue
		}
		parts = append(parts, fmt.Sprintf("\n--- Page %d ---\n%s", i, clean))
	}
	return strings.TrimSpace(strings.Join(parts, "\n")), nil
}
