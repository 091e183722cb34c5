package extractor

import (
	"bytes"
	"strconv"

	"github.com/shakinm/xlsReader/xls"
	"github.com/shakinm/xlsReader/xls/structure"

	"github.com/docsight/docsight/schema"
)

// XLS extracts price-table chunks from legacy .xls workbooks.
type XLS struct {
	logf Logf
}

// NewXLS creates an XLS extractor.
func NewXLS(logf Logf) *XLS {
	if logf == nil {
		logf = nopLogf
	}
	return &XLS{logf: logf}
}

// Extract implements Extractor.
func (x *XLS) Extract(data []byte, filename string) []schema.Document {
	wb, err := xls.OpenReader(bytes.NewReader(data))
	if err != nil {
		x.logf("xls: cannot open %s: %v", filename, err)
		return nil
	}
	var docs []schema.Document
	for i := 0; i < wb.GetNumberSheets(); i++ {
		sheet, err := wb.GetSheet(i)
		if err != nil || sheet == nil {
			continue
		}
		sheetRows := sheet.GetRows()
		rows := make([][]string, 0, len(sheetRows))
		for _, row := range sheetRows {
			rows = append(rows, xlsRowValues(row.GetCols()))
		}
		docs = append(docs, scanPriceTable(rows, filename, x.logf)...)
		if len(docs) > 0 {
			break
		}
	}
	return docs
}

func xlsRowValues(cols []structure.CellData) []string {
	out := make([]string, 0, len(cols))
	for _, col := range cols {
		val := col.GetString()
		if val == "" {
			if num := col.GetFloat64(); num != 0 {
				val = strconv.FormatFloat(num, 'f', -1, 64)
			} else if in := col.GetInt64(); in != 0 {
				val = strconv.FormatInt(in, 10)
			}
		}
		out = append(out, val)
	}
	return out
}
