package repository

import (
	"context"
	"time"

	"airline-assistant-service/internal/domain/entity"
	"airline-assistant-service/internal/domain/repository"

	"github.com/patrickmn/go-cache"
)

// MemoryConversationRepository keeps conversations in process with a sliding TTL
type MemoryConversationRepository struct {
	cache *cache.Cache
	ttl   time.Duration
}

// NewMemoryConversationRepository creates an in-process store; expired entries are purged
// by the cache janitor
func NewMemoryConversationRepository(ttl time.Duration) repository.ConversationRepository {
	return &MemoryConversationRepository{
		cache: cache.New(ttl, ttl/2+time.Minute),
		ttl:   ttl,
	}
}

// Get returns a copy so callers never share message slices with the cache
func (r *MemoryConversationRepository) Get(ctx context.Context, id string) (*entity.Conversation, error) {
	v, ok := r.cache.Get(id)
	if !ok {
		return nil, repository.ErrConversationNotFound
	}
	return v.(*entity.Conversation).Clone(), nil
}

func (r *MemoryConversationRepository) Save(ctx context.Context, conversation *entity.Conversation) error {
	r.cache.Set(conversation.ID, conversation.Clone(), r.ttl)
	return nil
}

func (r *MemoryConversationRepository) Delete(ctx context.Context, id string) error {
	r.cache.Delete(id)
	return nil
}

func (r *MemoryConversationRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}
