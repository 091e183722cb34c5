package extractor

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/docsight/docsight/schema"
)

// Price sheets carry one product block per section: a header row naming the
// product, a year row, then up to maxTradeRows rows of monthly prices. The
// scanner turns every populated price cell into one self-contained chunk so
// a single retrieval hit answers a price question exactly.
const (
	productMarker1 = "European"
	productMarker2 = "per ton"
	priceUnit      = " (€ per ton)"
	yearColumn     = 2
	firstMonthCol  = 3
	maxTradeRows   = 6
)

// priceMonths are the months covered by a price block; the first data column
// holds February.
var priceMonths = []string{
	"February", "March", "April", "May", "June", "July",
	"August", "September", "October", "November", "December",
}

var priceYears = map[int]bool{2023: true, 2024: true, 2025: true}

// scanPriceTable walks a sheet as a cell grid and synthesizes one document
// per non-zero price cell. Rows that fail to parse are logged and skipped;
// everything scanned before a failure is kept.
func scanPriceTable(rows [][]string, filename string, logf Logf) []schema.Document {
	if logf == nil {
		logf = nopLogf
	}
	var docs []schema.Document
	currentProduct := ""
	for idx := range rows {
		first := cellAt(rows, idx, 0)
		if strings.Contains(first, productMarker1) && strings.Contains(first, productMarker2) {
			currentProduct = strings.TrimSpace(strings.ReplaceAll(first, priceUnit, ""))
			logf("excel: found product %q", currentProduct)
		}
		year, ok := parseYear(cellAt(rows, idx, yearColumn))
		if !ok {
			continue
		}
		for offset := 1; offset <= maxTradeRows; offset++ {
			if idx+offset >= len(rows) {
				break
			}
			rowType := strings.TrimSpace(cellAt(rows, idx+offset, 0))
			if rowType == "" {
				break
			}
			docs = append(docs, priceRowDocuments(rows[idx+offset], currentProduct, rowType, year, filename, logf)...)
		}
	}
	return docs
}

// priceRowDocuments emits one document per populated month cell of a trade
// row.
func priceRowDocuments(row []string, product, rowType string, year int, filename string, logf Logf) []schema.Document {
	tradeType := lastWord(rowType)
	var docs []schema.Document
	for monthIdx, month := range priceMonths {
		raw := ""
		if col := firstMonthCol + monthIdx; col < len(row) {
			raw = strings.TrimSpace(row[col])
		}
		if raw == "" {
			continue
		}
		value, err := parsePrice(raw)
		if err != nil {
			logf("excel: skipping %s %s %d cell %q: %v", rowType, month, year, raw, err)
			continue
		}
		if value == 0 {
			continue
		}
		docs = append(docs, schema.Document{
			PageContent: priceChunkText(product, rowType, tradeType, month, year, value),
			Metadata: map[string]interface{}{
				schema.KeySourceType: schema.SourceExcel,
				schema.KeyFilename:   filename,
				schema.KeyProduct:    product,
				schema.KeyType:       rowType,
				schema.KeyTradeType:  tradeType,
				schema.KeyMonth:      month,
				schema.KeyYear:       year,
				schema.KeyValue:      value,
			},
		})
	}
	return docs
}

// priceChunkText renders the chunk body, including literal question phrasings
// so embedding similarity lands on the right cell.
func priceChunkText(product, rowType, tradeType, month string, year int, value float64) string {
	lower := strings.ToLower(tradeType)
	return fmt.Sprintf(`
Product: %s
Country/Type: %s
Trade Type: %s
Month: %s
Year: %d
Price: €%.2f per ton

Question patterns this answers:
- What was the %s %s price in %s %d?
- %s %s %d %s price
- %s %d %s %s

Data: %s %s %s %s %d = €%.2f per ton
`, product, rowType, tradeType, month, year, value,
		product, lower, month, year,
		rowType, month, year, product,
		month, year, product, lower,
		product, rowType, tradeType, month, year, value)
}

func cellAt(rows [][]string, row, col int) string {
	if row >= len(rows) || col >= len(rows[row]) {
		return ""
	}
	return rows[row][col]
}

// parseYear recognizes a recent year in a cell, tolerating the float
// rendering spreadsheet readers produce for numeric cells.
func parseYear(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	year := int(f)
	if float64(year) != f || !priceYears[year] {
		return 0, false
	}
	return year, true
}

// parsePrice parses a numeric cell, tolerating currency symbols and
// thousands separators.
func parsePrice(raw string) (float64, error) {
	cleaned := strings.TrimSpace(strings.ReplaceAll(strings.ReplaceAll(raw, "€", ""), ",", ""))
	return strconv.ParseFloat(cleaned, 64)
}

func lastWord(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return "Unknown"
	}
	return fields[len(fields)-1]
}
