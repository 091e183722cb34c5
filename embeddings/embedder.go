package embeddings

import "context"

// Embedder computes vector embeddings for indexed chunks and for queries.
type Embedder interface {
	EmbedDocuments(ctx context.Context, docs []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}
