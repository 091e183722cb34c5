package schema

// Metadata keys shared across extractors, the store and the query engine.
const (
	KeyFilename    = "filename"
	KeySourceType  = "source_type"
	KeyChunkID     = "chunk_id"
	KeyTotalChunks = "total_chunks"

	// Structured keys produced by the Excel price-table extractor.
	KeyProduct   = "product"
	KeyType      = "type"
	KeyTradeType = "trade_type"
	KeyMonth     = "month"
	KeyYear      = "year"
	KeyValue     = "value"
)

// Source type values.
const (
	SourcePDF   = "pdf"
	SourceWord  = "word"
	SourceExcel = "excel"
)

// GetString returns a string metadata value or empty string.
func GetString(metadata map[string]interface{}, key string) string {
	if value, ok := metadata[key]; ok {
		text, _ := value.(string)
		return text
	}
	return ""
}

// GetInt returns an int metadata value, tolerating numeric JSON decoding.
func GetInt(metadata map[string]interface{}, key string) int {
	switch t := metadata[key].(type) {
	case int:
		return t
	case int64:
		return int(t)
	case float64:
		return int(t)
	case float32:
		return int(t)
	default:
		return 0
	}
}
