package repository

import (
	"context"

	"airline-assistant-service/internal/domain/entity"
)

// ScheduleRepository defines the interface for Flight_availability_and_schedule lookups
type ScheduleRepository interface {
	FindByFlightID(ctx context.Context, flightID string) (*entity.FlightScheduleEntry, error)
	FindByRoute(ctx context.Context, fromCity, toCity string) ([]entity.FlightScheduleEntry, error)
}
