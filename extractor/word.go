package extractor

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/docsight/docsight/schema"
)

// minWordChars is the minimum combined length a Word document must yield.
const minWordChars = 50

// Word extracts paragraph and table text from .docx archives. Table rows are
// flattened with a cell separator so row contents stay associated. Legacy
// .doc files and broken archives go through the printable-text fallback.
type Word struct {
	chunker *Chunker
	logf    Logf
}

// NewWord creates a Word extractor.
func NewWord(chunker *Chunker, logf Logf) *Word {
	if logf == nil {
		logf = nopLogf
	}
	return &Word{chunker: chunker, logf: logf}
}

// Extract implements Extractor.
func (w *Word) Extract(data []byte, filename string) []schema.Document {
	paragraphs, tables, err := parseDocx(data)
	if err != nil {
		w.logf("word: structured extraction failed for %s: %v", filename, err)
		return textDocuments(fallbackChunks(w.chunker, data), filename, schema.SourceWord)
	}
	parts := make([]string, 0, len(paragraphs)+len(tables))
	for _, p := range paragraphs {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	for _, table := range tables {
		var lines []string
		for _, row := range table {
			line := strings.Join(row, " | ")
			if strings.TrimSpace(strings.Trim(line, " |")) != "" {
				lines = append(lines, line)
			}
		}
		if len(lines) > 0 {
			parts = append(parts, strings.Join(lines, "\n"))
		}
	}
	combined := strings.Join(parts, "\n\n")
	if utf8.RuneCountInString(combined) < minWordChars {
		return nil
	}
	return textDocuments(w.chunker.Split(combined), filename, schema.SourceWord)
}

// parseDocx reads word/document.xml out of the zip container and collects
// body paragraphs and tables. Paragraphs inside table cells belong to the
// cell, not the body.
func parseDocx(data []byte) (paragraphs []string, tables [][][]string, err error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, nil, err
	}
	var doc io.ReadCloser
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc, err = f.Open()
			if err != nil {
				return nil, nil, err
			}
			break
		}
	}
	if doc == nil {
		return nil, nil, errors.New("word/document.xml not found")
	}
	defer doc.Close()

	decoder := xml.NewDecoder(doc)
	var (
		tableDepth int
		table      [][]string
		row        []string
		cell       strings.Builder
		para       strings.Builder
		inPara     bool
	)
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tbl":
				tableDepth++
				if tableDepth == 1 {
					table = nil
				}
			case "tr":
				if tableDepth == 1 {
					row = nil
				}
			case "tc":
				if tableDepth == 1 {
					cell.Reset()
				}
			case "p":
				if tableDepth > 0 {
					if cell.Len() > 0 {
						cell.WriteString("\n")
					}
				} else {
					para.Reset()
					inPara = true
				}
			case "t":
				var text string
				if err := decoder.DecodeElement(&text, &t); err != nil {
					return nil, nil, err
				}
				if tableDepth > 0 {
					cell.WriteString(text)
				} else if inPara {
					para.WriteString(text)
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "tbl":
				tableDepth--
				if tableDepth == 0 && len(table) > 0 {
					tables = append(tables, table)
				}
			case "tr":
				if tableDepth == 1 && len(row) > 0 {
					table = append(table, row)
				}
			case "tc":
				if tableDepth == 1 {
					row = append(row, strings.TrimSpace(cell.String()))
				}
			case "p":
				if tableDepth == 0 && inPara {
					paragraphs = append(paragraphs, para.String())
					inPara = false
				}
			}
		}
	}
	return paragraphs, tables, nil
}
