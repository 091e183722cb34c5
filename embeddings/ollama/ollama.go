// Package ollama provides an embeddings.Embedder backed by a local Ollama
// server.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL     = "http://localhost:11434"
	embedEndpoint      = "/api/embed"
	defaultHTTPTimeout = 30 * time.Second
)

// Option configures the Embedder.
type Option func(*Embedder)

// WithBaseURL overrides the Ollama server base URL.
func WithBaseURL(baseURL string) Option {
	return func(e *Embedder) {
		if baseURL != "" {
			e.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// Embedder calls the Ollama embed endpoint.
type Embedder struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// New creates an Embedder for the given model.
func New(model string, opts ...Option) *Embedder {
	e := &Embedder{
		baseURL:    defaultBaseURL,
		model:      model,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
	Error      string      `json:"error"`
}

// EmbedDocuments embeds a batch of texts.
func (e *Embedder) EmbedDocuments(ctx context.Context, docs []string) ([][]float32, error) {
	if e.model == "" {
		return nil, fmt.Errorf("ollama model is required")
	}
	if len(docs) == 0 {
		return nil, nil
	}
	reqBody, err := json.Marshal(embedRequest{Model: e.model, Input: docs})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+embedEndpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama API error: %s", strings.TrimSpace(string(body)))
	}
	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("ollama API error: %s", out.Error)
	}
	if len(out.Embeddings) != len(docs) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d docs", len(out.Embeddings), len(docs))
	}
	return out.Embeddings, nil
}

// EmbedQuery embeds a single query text.
func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embedder returned %d vectors for 1 query", len(vecs))
	}
	return vecs[0], nil
}
