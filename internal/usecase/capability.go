package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"airline-assistant-service/internal/domain/entity"
	"airline-assistant-service/internal/domain/repository"
)

// Capability answers one intent. Every error it returns is a *entity.CapabilityError.
type Capability interface {
	Invoke(ctx context.Context, req entity.CapabilityRequest) (*entity.CapabilityResult, error)
}

// CapabilityFunc adapts a function to the Capability interface
type CapabilityFunc func(ctx context.Context, req entity.CapabilityRequest) (*entity.CapabilityResult, error)

func (f CapabilityFunc) Invoke(ctx context.Context, req entity.CapabilityRequest) (*entity.CapabilityResult, error) {
	return f(ctx, req)
}

// IntentRouter routes an utterance to an intent with keyword rules
type IntentRouter interface {
	Route(utterance string) entity.CapabilityIntent
}

// Clock returns the current time
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}

// Registry maps intents to capabilities
type Registry struct {
	mu   sync.RWMutex
	caps map[entity.CapabilityIntent]Capability
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{caps: make(map[entity.CapabilityIntent]Capability)}
}

// Register replaces any capability already registered for intent
func (r *Registry) Register(intent entity.CapabilityIntent, c Capability) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.caps[intent] = c
}

// Get returns the capability for intent
func (r *Registry) Get(intent entity.CapabilityIntent) (Capability, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.caps[intent]
	return c, ok
}

// RemoteCapability forwards requests to a capability service
type RemoteCapability struct {
	intent  entity.CapabilityIntent
	gateway repository.CapabilityGateway
}

// NewRemoteCapability wraps gateway as the capability for intent
func NewRemoteCapability(intent entity.CapabilityIntent, gateway repository.CapabilityGateway) *RemoteCapability {
	return &RemoteCapability{intent: intent, gateway: gateway}
}

func (c *RemoteCapability) Invoke(ctx context.Context, req entity.CapabilityRequest) (*entity.CapabilityResult, error) {
	text, err := c.gateway.Query(ctx, req)
	if err != nil {
		return nil, entity.Classify(fmt.Sprintf("remote %s", c.intent), err)
	}
	return &entity.CapabilityResult{Intent: c.intent, Text: text}, nil
}

// userTexts returns the user's messages from history followed by the current text
func userTexts(req entity.CapabilityRequest) []string {
	texts := make([]string, 0, len(req.History)+1)
	for _, m := range req.History {
		if m.Role == entity.RoleUser {
			texts = append(texts, m.Content)
		}
	}
	if req.Text != "" && (len(texts) == 0 || texts[len(texts)-1] != req.Text) {
		texts = append(texts, req.Text)
	}
	return texts
}

// allTexts returns every message in history followed by the current text
func allTexts(req entity.CapabilityRequest) []string {
	texts := make([]string, 0, len(req.History)+1)
	for _, m := range req.History {
		texts = append(texts, m.Content)
	}
	if req.Text != "" {
		texts = append(texts, req.Text)
	}
	return texts
}
