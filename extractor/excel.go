package extractor

import (
	"bytes"

	"github.com/xuri/excelize/v2"

	"github.com/docsight/docsight/schema"
)

// preferredSheet is scanned when present; otherwise the first sheet is used.
const preferredSheet = "Sheet1"

// Excel extracts price-table chunks from .xlsx workbooks.
type Excel struct {
	logf Logf
}

// NewExcel creates an Excel extractor.
func NewExcel(logf Logf) *Excel {
	if logf == nil {
		logf = nopLogf
	}
	return &Excel{logf: logf}
}

// Extract implements Extractor.
func (e *Excel) Extract(data []byte, filename string) []schema.Document {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		e.logf("excel: cannot open %s: %v", filename, err)
		return nil
	}
	defer func() { _ = f.Close() }()

	sheet := preferredSheet
	if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			e.logf("excel: %s has no sheets", filename)
			return nil
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		e.logf("excel: cannot read sheet %s of %s: %v", sheet, filename, err)
		return nil
	}
	return scanPriceTable(rows, filename, e.logf)
}
