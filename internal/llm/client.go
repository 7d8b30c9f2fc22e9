// Package llm provides the model clients that turn a compiled prompt into
// raw model output. Providers differ in wire format only; everything after
// the response body is the recovery package's problem.
package llm

import "context"

// Client is the interface the pipeline depends on.
type Client interface {
	// Name identifies the provider for logging.
	Name() string
	// Complete sends one prompt and returns the raw model text.
	Complete(ctx context.Context, prompt string) (string, error)
}
