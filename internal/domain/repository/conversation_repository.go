package repository

import (
	"context"
	"errors"

	"airline-assistant-service/internal/domain/entity"
)

// ErrConversationNotFound is returned when an id is unknown or expired
var ErrConversationNotFound = errors.New("conversation not found")

// ConversationRepository defines the interface for conversation history storage
type ConversationRepository interface {
	Get(ctx context.Context, id string) (*entity.Conversation, error)
	Save(ctx context.Context, conversation *entity.Conversation) error
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}
