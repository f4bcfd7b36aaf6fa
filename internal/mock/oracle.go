// Package mock provides test doubles for domain repository interfaces using function fields.
package mock

import (
	"context"
	"sync"

	"airline-assistant-service/internal/domain/entity"
	"airline-assistant-service/internal/domain/repository"
)

// Interface compliance checks.
var (
	_ repository.Oracle            = (*Oracle)(nil)
	_ repository.Retriever         = (*Retriever)(nil)
	_ repository.CapabilityGateway = (*CapabilityGateway)(nil)
)

// Oracle is a test double for repository.Oracle.
// Set GenerateFn before calling Generate. Calls are recorded.
type Oracle struct {
	GenerateFn func(ctx context.Context, system, prompt string) (string, error)

	mu      sync.Mutex
	prompts []string
}

// Generate delegates to GenerateFn.
func (o *Oracle) Generate(ctx context.Context, system, prompt string) (string, error) {
	o.mu.Lock()
	o.prompts = append(o.prompts, prompt)
	o.mu.Unlock()
	return o.GenerateFn(ctx, system, prompt)
}

// Calls returns the number of Generate calls.
func (o *Oracle) Calls() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.prompts)
}

// Prompts returns the user prompts passed to Generate, in order.
func (o *Oracle) Prompts() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.prompts...)
}

// Retriever is a test double for repository.Retriever.
type Retriever struct {
	RetrieveFn func(ctx context.Context, question string, k int) ([]entity.Passage, error)
}

// Retrieve delegates to RetrieveFn.
func (r *Retriever) Retrieve(ctx context.Context, question string, k int) ([]entity.Passage, error) {
	return r.RetrieveFn(ctx, question, k)
}

// CapabilityGateway is a test double for repository.CapabilityGateway.
type CapabilityGateway struct {
	QueryFn func(ctx context.Context, request entity.CapabilityRequest) (string, error)
}

// Query delegates to QueryFn.
func (g *CapabilityGateway) Query(ctx context.Context, request entity.CapabilityRequest) (string, error) {
	return g.QueryFn(ctx, request)
}
