package extractor

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"

	"github.com/docsight/docsight/schema"
)

func docxArchive(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create entry: %v", err)
	}
	if _, err := w.Write([]byte(documentXML)); err != nil {
		t.Fatalf("write entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

const sampleDocumentXML = `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Quarterly steel market report covering European producers.</w:t></w:r></w:p>
    <w:p><w:r><w:t>Demand recovered through the spring months.</w:t></w:r></w:p>
    <w:tbl>
      <w:tr>
        <w:tc><w:p><w:r><w:t>Region</w:t></w:r></w:p></w:tc>
        <w:tc><w:p><w:r><w:t>Output</w:t></w:r></w:p></w:tc>
      </w:tr>
      <w:tr>
        <w:tc><w:p><w:r><w:t>Germany</w:t></w:r></w:p></w:tc>
        <w:tc><w:p><w:r><w:t>3.2mt</w:t></w:r></w:p></w:tc>
      </w:tr>
    </w:tbl>
  </w:body>
</w:document>`

func TestWord_Extract(t *testing.T) {
	w := NewWord(NewChunker(1024, 200), t.Logf)
	docs := w.Extract(docxArchive(t, sampleDocumentXML), "report.docx")
	if len(docs) == 0 {
		t.Fatalf("expected documents")
	}
	combined := ""
	for _, d := range docs {
		if got := schema.GetString(d.Metadata, schema.KeySourceType); got != schema.SourceWord {
			t.Fatalf("unexpected source type %q", got)
		}
		combined += d.PageContent
	}
	if !strings.Contains(combined, "Quarterly steel market report") {
		t.Fatalf("missing paragraph text:\n%s", combined)
	}
	if !strings.Contains(combined, "Region | Output") {
		t.Fatalf("table row not flattened:\n%s", combined)
	}
	if !strings.Contains(combined, "Germany | 3.2mt") {
		t.Fatalf("table data row missing:\n%s", combined)
	}
	if strings.Index(combined, "Demand recovered") > strings.Index(combined, "Region | Output") {
		t.Fatalf("paragraphs must precede tables:\n%s", combined)
	}
}

func TestWord_TooShort(t *testing.T) {
	xml := `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body><w:p><w:r><w:t>Tiny.</w:t></w:r></w:p></w:body>
</w:document>`
	w := NewWord(NewChunker(1024, 200), t.Logf)
	if docs := w.Extract(docxArchive(t, xml), "tiny.docx"); len(docs) != 0 {
		t.Fatalf("expected no documents, got %d", len(docs))
	}
}

func TestWord_FallbackOnBrokenArchive(t *testing.T) {
	w := NewWord(NewChunker(1024, 200), t.Logf)
	long := []byte(strings.Repeat("Readable fallback content from a legacy binary file. ", 5))
	docs := w.Extract(long, "legacy.doc")
	if len(docs) == 0 {
		t.Fatalf("expected fallback documents")
	}
	if !strings.Contains(docs[0].PageContent, "Readable fallback content") {
		t.Fatalf("fallback text missing:\n%s", docs[0].PageContent)
	}
}

func TestWord_FallbackTooShort(t *testing.T) {
	w := NewWord(NewChunker(1024, 200), t.Logf)
	if docs := w.Extract([]byte("short"), "legacy.doc"); len(docs) != 0 {
		t.Fatalf("expected no documents, got %d", len(docs))
	}
}
