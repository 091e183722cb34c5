// Package query answers questions over the indexed documents with a
// retrieve-then-refine flow and reports which chunks the answer came from.
package query

import (
	"context"
	"fmt"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/docsight/docsight/index"
	"github.com/docsight/docsight/llm"
	"github.com/docsight/docsight/schema"
)

// maxSources caps how many retrieved chunks are reported back as sources.
const maxSources = 5

// excerptLimit caps source excerpts, in characters.
const excerptLimit = 200

// Logf logs a formatted message; a nil Logf discards output.
type Logf func(format string, args ...any)

func nopLogf(string, ...any) {}

// Index exposes the current retrieval handle.
type Index interface {
	Retriever() (index.Retriever, error)
}

// Source describes a chunk that contributed to an answer.
type Source struct {
	Type     string `json:"type"`
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

// Engine runs the question answering flow.
type Engine struct {
	index     Index
	generator llm.Generator
	topK      int
	logf      Logf
}

// Option configures the Engine.
type Option func(*Engine)

// WithTopK sets how many chunks are retrieved per question.
func WithTopK(k int) Option {
	return func(e *Engine) {
		if k > 0 {
			e.topK = k
		}
	}
}

// WithLogf sets the logger.
func WithLogf(logf Logf) Option {
	return func(e *Engine) {
		if logf != nil {
			e.logf = logf
		}
	}
}

// New creates an Engine over the given index and generator.
func New(idx Index, generator llm.Generator, opts ...Option) *Engine {
	e := &Engine{
		index:     idx,
		generator: generator,
		topK:      10,
		logf:      nopLogf,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Answer retrieves the chunks most similar to the question, drafts an answer
// from the best one and refines it with each remaining chunk in rank order.
// It returns the answer, up to maxSources source attributions and the
// elapsed processing time.
func (e *Engine) Answer(ctx context.Context, question string) (string, []Source, time.Duration, error) {
	start := time.Now()
	retriever, err := e.index.Retriever()
	if err != nil {
		return "", nil, 0, err
	}
	docs, err := retriever.Search(ctx, question, e.topK)
	if err != nil {
		return "", nil, 0, fmt.Errorf("query: retrieve: %w", err)
	}
	if len(docs) == 0 {
		answer, err := e.generator.Generate(ctx, qaPrompt("", question))
		if err != nil {
			return "", nil, 0, fmt.Errorf("query: generate: %w", err)
		}
		return answer, []Source{}, time.Since(start), nil
	}

	answer, err := e.generator.Generate(ctx, qaPrompt(docs[0].PageContent, question))
	if err != nil {
		return "", nil, 0, fmt.Errorf("query: generate: %w", err)
	}
	for _, doc := range docs[1:] {
		answer, err = e.generator.Generate(ctx, refinePrompt(answer, doc.PageContent, question))
		if err != nil {
			return "", nil, 0, fmt.Errorf("query: refine: %w", err)
		}
	}
	e.logf("query: answered in %s using %d chunks", time.Since(start), len(docs))
	return answer, sources(docs), time.Since(start), nil
}

// sources renders attributions for the top retrieved chunks. Spreadsheet
// chunks get a structured summary, text chunks a capped excerpt.
func sources(docs []schema.Document) []Source {
	out := make([]Source, 0, maxSources)
	for _, doc := range docs {
		if len(out) == maxSources {
			break
		}
		filename := schema.GetString(doc.Metadata, schema.KeyFilename)
		if filename == "" {
			filename = "Unknown"
		}
		sourceType := schema.GetString(doc.Metadata, schema.KeySourceType)
		_, hasProduct := doc.Metadata[schema.KeyProduct]
		switch {
		case sourceType == schema.SourceExcel || hasProduct:
			out = append(out, Source{
				Type:     schema.SourceExcel,
				Filename: filename,
				Content: fmt.Sprintf("%s - %s - %s %s",
					orNA(schema.GetString(doc.Metadata, schema.KeyProduct)),
					orNA(schema.GetString(doc.Metadata, schema.KeyType)),
					orNA(schema.GetString(doc.Metadata, schema.KeyMonth)),
					yearString(doc.Metadata)),
			})
		case sourceType == schema.SourceWord:
			out = append(out, Source{Type: schema.SourceWord, Filename: filename, Content: excerpt(doc.PageContent)})
		default:
			out = append(out, Source{Type: schema.SourcePDF, Filename: filename, Content: excerpt(doc.PageContent)})
		}
	}
	return out
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func yearString(metadata map[string]interface{}) string {
	if year := schema.GetInt(metadata, schema.KeyYear); year != 0 {
		return strconv.Itoa(year)
	}
	return "N/A"
}

func excerpt(text string) string {
	if utf8.RuneCountInString(text) <= excerptLimit {
		return text
	}
	runes := []rune(text)
	return string(runes[:excerptLimit]) + "..."
}
