package schema

// Document represents a retrievable text chunk with metadata and an optional
// similarity score populated by search.
type Document struct {
	PageContent string                 `json:"page_content"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	Score       float32                `json:"score,omitempty"`
}

// Filename returns the source document filename from metadata.
func (d *Document) Filename() string {
	return GetString(d.Metadata, KeyFilename)
}

// SourceType returns the source format (pdf, word or excel) from metadata.
func (d *Document) SourceType() string {
	return GetString(d.Metadata, KeySourceType)
}
