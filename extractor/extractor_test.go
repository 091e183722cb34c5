package extractor

import (
	"errors"
	"strings"
	"testing"

	"github.com/docsight/docsight/schema"
)

func TestFactory_Supported(t *testing.T) {
	f := NewFactory()
	for _, name := range []string{"a.pdf", "b.DOCX", "c.doc", "d.xlsx", "e.XLS"} {
		if !f.Supported(name) {
			t.Fatalf("expected %s to be supported", name)
		}
	}
	for _, name := range []string{"a.txt", "b.csv", "noext", "c.pdf.zip"} {
		if f.Supported(name) {
			t.Fatalf("expected %s to be unsupported", name)
		}
	}
}

func TestFactory_UnsupportedType(t *testing.T) {
	f := NewFactory()
	_, err := f.Extract([]byte("data"), "notes.txt")
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}
}

func TestFactory_DispatchExcel(t *testing.T) {
	f := NewFactory(WithLogf(t.Logf))
	docs, err := f.Extract(priceWorkbook(t), "subdir/prices.xlsx")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(docs) == 0 {
		t.Fatalf("expected documents")
	}
	if got := schema.GetString(docs[0].Metadata, schema.KeyFilename); got != "prices.xlsx" {
		t.Fatalf("filename must drop directories, got %q", got)
	}
}

func TestFactory_DispatchWord(t *testing.T) {
	f := NewFactory(WithChunkSize(256), WithChunkOverlap(32), WithLogf(t.Logf))
	docs, err := f.Extract(docxArchive(t, sampleDocumentXML), "report.docx")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(docs) == 0 {
		t.Fatalf("expected documents")
	}
	total := schema.GetInt(docs[0].Metadata, schema.KeyTotalChunks)
	if total != len(docs) {
		t.Fatalf("total chunks %d != %d documents", total, len(docs))
	}
	for i, d := range docs {
		if got := schema.GetInt(d.Metadata, schema.KeyChunkID); got != i {
			t.Fatalf("chunk %d has ordinal %d", i, got)
		}
	}
}

func TestPDF_FallbackOnGarbage(t *testing.T) {
	p := NewPDF(NewChunker(1024, 200), t.Logf)
	long := []byte(strings.Repeat("Plain recoverable text inside a broken PDF container. ", 5))
	docs := p.Extract(long, "broken.pdf")
	if len(docs) == 0 {
		t.Fatalf("expected fallback documents")
	}
	if got := schema.GetString(docs[0].Metadata, schema.KeySourceType); got != schema.SourcePDF {
		t.Fatalf("unexpected source type %q", got)
	}
}

func TestPDF_GarbageTooShort(t *testing.T) {
	p := NewPDF(NewChunker(1024, 200), t.Logf)
	if docs := p.Extract([]byte{0x01, 0x02, 0x03}, "broken.pdf"); len(docs) != 0 {
		t.Fatalf("expected no documents, got %d", len(docs))
	}
}

func TestExtractPrintableText(t *testing.T) {
	in := []byte("Hello\x00\x01  world\nnext\tline\xff!")
	got := extractPrintableText(in)
	if got != "Hello world next line!" {
		t.Fatalf("unexpected printable text %q", got)
	}
}
