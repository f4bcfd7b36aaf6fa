package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"airline-assistant-service/internal/domain/entity"
	"airline-assistant-service/internal/domain/repository"

	"github.com/redis/go-redis/v9"
)

const conversationKeyPrefix = "conv:"

// RedisConversationRepository stores each conversation as a JSON value under conv:{id}
type RedisConversationRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisConversationRepository creates a redis backed store; every Save refreshes the TTL
func NewRedisConversationRepository(client *redis.Client, ttl time.Duration) repository.ConversationRepository {
	return &RedisConversationRepository{
		client: client,
		ttl:    ttl,
	}
}

func conversationKey(id string) string {
	return conversationKeyPrefix + id
}

func (r *RedisConversationRepository) Get(ctx context.Context, id string) (*entity.Conversation, error) {
	data, err := r.client.Get(ctx, conversationKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, repository.ErrConversationNotFound
		}
		return nil, err
	}

	var conversation entity.Conversation
	if err := json.Unmarshal(data, &conversation); err != nil {
		return nil, fmt.Errorf("failed to decode conversation %s: %w", id, err)
	}
	return &conversation, nil
}

func (r *RedisConversationRepository) Save(ctx context.Context, conversation *entity.Conversation) error {
	data, err := json.Marshal(conversation)
	if err != nil {
		return fmt.Errorf("failed to encode conversation: %w", err)
	}
	return r.client.Set(ctx, conversationKey(conversation.ID), data, r.ttl).Err()
}

func (r *RedisConversationRepository) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, conversationKey(id)).Err()
}

func (r *RedisConversationRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
