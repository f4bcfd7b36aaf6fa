package repository

import (
	"context"

	"airline-assistant-service/internal/domain/entity"
)

// CapabilityGateway invokes a capability hosted by another service
type CapabilityGateway interface {
	Query(ctx context.Context, request entity.CapabilityRequest) (string, error)
}
