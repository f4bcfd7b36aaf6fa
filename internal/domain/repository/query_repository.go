package repository

import (
	"context"

	"airline-assistant-service/internal/domain/entity"
)

// QueryRepository executes already-validated read-only SQL
type QueryRepository interface {
	RunReadOnly(ctx context.Context, query string) (*entity.QueryResult, error)
}
