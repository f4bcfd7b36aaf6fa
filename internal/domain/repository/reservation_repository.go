package repository

import (
	"context"

	"airline-assistant-service/internal/domain/entity"
)

// PNRGenerator returns a fresh candidate PNR
type PNRGenerator func() string

// ReservationRepository defines the interface for Flight_reservation operations
type ReservationRepository interface {
	// FindByPNR returns the reservation or an entity NotFound error
	FindByPNR(ctx context.Context, pnr string) (*entity.Reservation, error)

	// Create assigns a PNR that does not collide with existing rows and inserts the
	// reservation in the same transaction
	Create(ctx context.Context, reservation *entity.Reservation, generate PNRGenerator) error

	// CancelConfirmed sets Booking_Status=Cancelled and Refund_Status=Refunded only if the
	// booking is still Confirmed. It reports whether a row changed.
	CancelConfirmed(ctx context.Context, pnr string) (bool, error)
}
