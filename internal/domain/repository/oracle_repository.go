package repository

import "context"

// Oracle is the text-generation model. Its output is untrusted and may be wrapped in
// markdown fences or prefixed with prompt markers.
type Oracle interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}
