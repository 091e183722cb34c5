// Package simple provides a deterministic offline embedder used for local
// development and tests.
package simple

import "context"

// Embedder returns deterministic vectors derived from the input text.
type Embedder struct {
	Dim int
}

// New constructs a simple deterministic embedder.
func New(dim int) *Embedder {
	if dim <= 0 {
		dim = 64
	}
	return &Embedder{Dim: dim}
}

// EmbedDocuments embeds documents deterministically.
func (e *Embedder) EmbedDocuments(ctx context.Context, docs []string) ([][]float32, error) {
	out := make([][]float32, len(docs))
	for i, s := range docs {
		out[i] = embedString(s, e.Dim)
	}
	return out, nil
}

// EmbedQuery embeds a query deterministically.
func (e *Embedder) EmbedQuery(ctx context.Context, q string) ([]float32, error) {
	return embedString(q, e.Dim), nil
}

func embedString(s string, dim int) []float32 {
	if dim <= 0 {
		dim = 64
	}
	v := make([]float32, dim)
	var h uint32
	for i := 0; i < len(s); i++ {
		h = h*16777619 ^ uint32(s[i])
	}
	seed := h
	for i := range v {
		seed = seed*1664525 + 1013904223
		v[i] = float32(seed%10000) / 10000.0
	}
	return v
}
