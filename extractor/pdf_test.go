package extractor

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/docsight/docsight/schema"
)

// buildPDF assembles a minimal uncompressed PDF with one page per entry,
// tracking object offsets so the xref table is correct. An empty entry
// produces a page with no text operators.
func buildPDF(t *testing.T, pageTexts []string) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := []int{0}
	writeObj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets)-1, body)
	}
	kids := make([]string, len(pageTexts))
	for i := range pageTexts {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	writeObj("<< /Type /Catalog /Pages 2 0 R >>")
	writeObj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pageTexts)))
	writeObj("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")
	for i, text := range pageTexts {
		content := "BT ET"
		if text != "" {
			content = fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
		}
		writeObj(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i))
		writeObj(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(offsets))
	for _, off := range offsets[1:] {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets), xref)
	return buf.Bytes()
}

func TestPDF_PageMarkersAndShortPageFilter(t *testing.T) {
	p := NewPDF(NewChunker(2048, 200), t.Logf)
	data := buildPDF(t, []string{
		"European steel market commentary for the first quarter with demand holding firm across regions.",
		"Ten chars.",
		"Import volumes recovered through the spring as idled mills restarted rolling capacity.",
	})
	docs := p.Extract(data, "report.pdf")
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}
	text := docs[0].PageContent
	if !strings.Contains(text, "--- Page 1 ---") || !strings.Contains(text, "--- Page 3 ---") {
		t.Fatalf("missing page markers:\n%s", text)
	}
	if strings.Contains(text, "--- Page 2 ---") || strings.Contains(text, "Ten chars.") {
		t.Fatalf("short page must be dropped:\n%s", text)
	}
	if !strings.Contains(text, "demand holding firm") || !strings.Contains(text, "rolling capacity") {
		t.Fatalf("page text missing:\n%s", text)
	}
	if got := schema.GetString(docs[0].Metadata, schema.KeySourceType); got != schema.SourcePDF {
		t.Fatalf("unexpected source type %q", got)
	}
}

func TestPDF_BlankPagesYieldNoDocuments(t *testing.T) {
	p := NewPDF(NewChunker(1024, 200), t.Logf)
	for _, pages := range [][]string{
		{""},
		{"", "Too short to keep."},
	} {
		docs := p.Extract(buildPDF(t, pages), "scan.pdf")
		if len(docs) != 0 {
			t.Fatalf("pages %q: expected no documents, got %d: %q", pages, len(docs), docs[0].PageContent)
		}
	}
}
