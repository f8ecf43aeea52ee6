package ai

import "context"

// Provider sends a single chat completion to one model family.
// Implementations return the raw text of the first choice and never parse it.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}
