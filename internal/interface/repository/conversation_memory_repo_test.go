package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airline-assistant-service/internal/domain/entity"
	"airline-assistant-service/internal/domain/repository"
)

func TestMemoryConversationRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryConversationRepository(time.Hour)

	_, err := repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrConversationNotFound)

	now := time.Now()
	conv := entity.NewConversation("c1", now)
	conv.Append(entity.RoleUser, "hello", now)
	require.NoError(t, repo.Save(ctx, conv))

	// mutating the caller's copy must not leak into the store
	conv.Append(entity.RoleAssistant, "hi", now)

	got, err := repo.Get(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "hello", got.Messages[0].Content)

	require.NoError(t, repo.Delete(ctx, "c1"))
	_, err = repo.Get(ctx, "c1")
	assert.ErrorIs(t, err, repository.ErrConversationNotFound)

	assert.NoError(t, repo.Ping(ctx))
}

func TestMemoryConversationRepositoryExpiry(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryConversationRepository(20 * time.Millisecond)

	require.NoError(t, repo.Save(ctx, entity.NewConversation("c1", time.Now())))
	time.Sleep(50 * time.Millisecond)

	_, err := repo.Get(ctx, "c1")
	assert.ErrorIs(t, err, repository.ErrConversationNotFound)
}
