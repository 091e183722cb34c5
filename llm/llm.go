// Package llm defines the text generation capability consumed by the query
// engine.
package llm

import "context"

// Generator produces a completion for a single text prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
