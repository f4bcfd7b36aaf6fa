package repository

import (
	"context"

	"airline-assistant-service/internal/domain/entity"
)

// Retriever returns the top-k policy passages most similar to a question
type Retriever interface {
	Retrieve(ctx context.Context, question string, k int) ([]entity.Passage, error)
}
