package extractor

import (
	"strings"
	"testing"

	"github.com/docsight/docsight/schema"
)

func priceGrid() [][]string {
	return [][]string{
		{"European HRC Steel (€ per ton)"},
		{},
		{"", "", "2023", "", "", "", "", "", "", "", "", "", "", ""},
		{"Germany Domestic", "", "", "745.50", "732", "", "0", "710.25", "", "", "", "", "", "698"},
		{"Italy Import", "", "", "701", "bogus", "690.10", "", "", "", "", "", "", "", ""},
		{},
		{"European CRC Steel (€ per ton)"},
		{"", "", "2024", "", "", "810", "", "", "", "", "", "", "", ""},
		{"France Export", "", "", "820.75"},
	}
}

func TestScanPriceTable_Products(t *testing.T) {
	docs := scanPriceTable(priceGrid(), "prices.xlsx", nil)
	if len(docs) == 0 {
		t.Fatalf("expected documents")
	}
	products := map[string]bool{}
	for _, d := range docs {
		products[schema.GetString(d.Metadata, schema.KeyProduct)] = true
	}
	if !products["European HRC Steel"] || !products["European CRC Steel"] {
		t.Fatalf("missing products, got %v", products)
	}
	for _, d := range docs {
		if strings.Contains(schema.GetString(d.Metadata, schema.KeyProduct), "per ton") {
			t.Fatalf("unit suffix not stripped: %v", d.Metadata)
		}
	}
}

func TestScanPriceTable_CellSemantics(t *testing.T) {
	docs := scanPriceTable(priceGrid(), "prices.xlsx", nil)
	byKey := map[string]schema.Document{}
	for _, d := range docs {
		key := schema.GetString(d.Metadata, schema.KeyType) + "/" + schema.GetString(d.Metadata, schema.KeyMonth)
		byKey[key] = d
	}
	first, ok := byKey["Germany Domestic/February"]
	if !ok {
		t.Fatalf("missing February entry for Germany Domestic: %v", byKey)
	}
	if v, _ := first.Metadata[schema.KeyValue].(float64); v != 745.50 {
		t.Fatalf("unexpected value: %v", first.Metadata[schema.KeyValue])
	}
	if got := schema.GetString(first.Metadata, schema.KeyTradeType); got != "Domestic" {
		t.Fatalf("unexpected trade type: %q", got)
	}
	if got := schema.GetInt(first.Metadata, schema.KeyYear); got != 2023 {
		t.Fatalf("unexpected year: %d", got)
	}
	if _, ok := byKey["Germany Domestic/May"]; ok {
		t.Fatalf("zero cell must not produce a document")
	}
	if _, ok := byKey["Germany Domestic/April"]; ok {
		t.Fatalf("empty cell must not produce a document")
	}
	if _, ok := byKey["Italy Import/March"]; ok {
		t.Fatalf("unparseable cell must be skipped")
	}
	if _, ok := byKey["Italy Import/April"]; !ok {
		t.Fatalf("cells after a bad one must still be scanned")
	}
}

func TestScanPriceTable_ChunkText(t *testing.T) {
	docs := scanPriceTable(priceGrid(), "prices.xlsx", nil)
	var doc *schema.Document
	for i := range docs {
		if schema.GetString(docs[i].Metadata, schema.KeyMonth) == "February" &&
			schema.GetString(docs[i].Metadata, schema.KeyType) == "Germany Domestic" {
			doc = &docs[i]
			break
		}
	}
	if doc == nil {
		t.Fatalf("missing February document")
	}
	for _, want := range []string{
		"Product: European HRC Steel",
		"Trade Type: Domestic",
		"Price: €745.50 per ton",
		"What was the European HRC Steel domestic price in February 2023?",
		"Data: European HRC Steel Germany Domestic Domestic February 2023 = €745.50 per ton",
	} {
		if !strings.Contains(doc.PageContent, want) {
			t.Fatalf("chunk text missing %q:\n%s", want, doc.PageContent)
		}
	}
}

func TestScanPriceTable_StopsAtBlankLabel(t *testing.T) {
	grid := [][]string{
		{"European HRC Steel (€ per ton)"},
		{"", "", "2023"},
		{"Germany Domestic", "", "", "100"},
		{""},
		{"Orphan Row", "", "", "999"},
	}
	docs := scanPriceTable(grid, "prices.xlsx", nil)
	for _, d := range docs {
		if schema.GetString(d.Metadata, schema.KeyType) == "Orphan Row" {
			t.Fatalf("scan must stop at the first blank label")
		}
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}
}

func TestScanPriceTable_IgnoresOtherYears(t *testing.T) {
	grid := [][]string{
		{"European HRC Steel (€ per ton)"},
		{"", "", "2019"},
		{"Germany Domestic", "", "", "100"},
	}
	if docs := scanPriceTable(grid, "prices.xlsx", nil); len(docs) != 0 {
		t.Fatalf("unrecognized year must not start a block, got %d docs", len(docs))
	}
}
