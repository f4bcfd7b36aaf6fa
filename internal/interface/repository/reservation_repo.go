package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"airline-assistant-service/internal/domain/entity"
	"airline-assistant-service/internal/domain/repository"

	"gorm.io/gorm"
)

const maxPNRAttempts = 10

// ErrPNRSpaceExhausted is returned when every generated PNR collided with an existing one
var ErrPNRSpaceExhausted = errors.New("could not generate a unique PNR")

// GormReservationRepository implements the ReservationRepository interface
type GormReservationRepository struct {
	db *gorm.DB
}

// NewGormReservationRepository creates a new GORM reservation repository
func NewGormReservationRepository(db *gorm.DB) repository.ReservationRepository {
	return &GormReservationRepository{
		db: db,
	}
}

// FlightReservation GORM model for database mapping
type FlightReservation struct {
	PNRNumber     string    `gorm:"column:PNR_Number;primaryKey"`
	CustomerName  string    `gorm:"column:Customer_Name"`
	FlightID      string    `gorm:"column:Flight_ID"`
	Airline       string    `gorm:"column:Airline"`
	FromCity      string    `gorm:"column:From_City"`
	ToCity        string    `gorm:"column:To_City"`
	DepartureTime string    `gorm:"column:Departure_Time"`
	ArrivalTime   string    `gorm:"column:Arrival_Time"`
	TravelDate    time.Time `gorm:"column:Travel_Date;type:date"`
	BookingDate   time.Time `gorm:"column:Booking_Date;type:date"`
	BookingStatus string    `gorm:"column:Booking_Status"`
	RefundStatus  string    `gorm:"column:Refund_Status"`
}

// TableName overrides the default table name
func (FlightReservation) TableName() string {
	return "Flight_reservation"
}

func (m *FlightReservation) toEntity() *entity.Reservation {
	return &entity.Reservation{
		PNR:           m.PNRNumber,
		CustomerName:  m.CustomerName,
		FlightID:      m.FlightID,
		Airline:       m.Airline,
		FromCity:      m.FromCity,
		ToCity:        m.ToCity,
		DepartureTime: m.DepartureTime,
		ArrivalTime:   m.ArrivalTime,
		TravelDate:    civilDate(m.TravelDate),
		BookingDate:   civilDate(m.BookingDate),
		BookingStatus: m.BookingStatus,
		RefundStatus:  m.RefundStatus,
	}
}

func fromReservation(r *entity.Reservation) *FlightReservation {
	return &FlightReservation{
		PNRNumber:     r.PNR,
		CustomerName:  r.CustomerName,
		FlightID:      r.FlightID,
		Airline:       r.Airline,
		FromCity:      r.FromCity,
		ToCity:        r.ToCity,
		DepartureTime: r.DepartureTime,
		ArrivalTime:   r.ArrivalTime,
		TravelDate:    civilDate(r.TravelDate),
		BookingDate:   civilDate(r.BookingDate),
		BookingStatus: r.BookingStatus,
		RefundStatus:  r.RefundStatus,
	}
}

// civilDate keeps only the calendar day, as UTC midnight
func civilDate(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FindByPNR finds a reservation by PNR
func (r *GormReservationRepository) FindByPNR(ctx context.Context, pnr string) (*entity.Reservation, error) {
	var model FlightReservation
	result := r.db.WithContext(ctx).Where(`"PNR_Number" = ?`, pnr).First(&model)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, entity.NewNotFound(fmt.Sprintf("no reservation found for PNR %s", pnr))
		}
		return nil, result.Error
	}

	return model.toEntity(), nil
}

// Create picks a PNR that is not in use and inserts the reservation in the same
// transaction. reservation.PNR is set on success.
func (r *GormReservationRepository) Create(ctx context.Context, reservation *entity.Reservation, generate repository.PNRGenerator) error {
	model := fromReservation(reservation)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for attempt := 0; attempt < maxPNRAttempts; attempt++ {
			candidate := generate()

			var count int64
			if err := tx.Model(&FlightReservation{}).Where(`"PNR_Number" = ?`, candidate).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				continue
			}

			model.PNRNumber = candidate
			return tx.Create(model).Error
		}
		return ErrPNRSpaceExhausted
	})
	if err != nil {
		return err
	}

	reservation.PNR = model.PNRNumber
	return nil
}

// CancelConfirmed flips a Confirmed booking to Cancelled/Refunded. The status predicate
// makes concurrent attempts on the same PNR mutually exclusive.
func (r *GormReservationRepository) CancelConfirmed(ctx context.Context, pnr string) (bool, error) {
	var affected int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&FlightReservation{}).
			Where(`"PNR_Number" = ? AND "Booking_Status" = ?`, pnr, entity.BookingStatusConfirmed).
			Updates(map[string]interface{}{
				"Booking_Status": entity.BookingStatusCancelled,
				"Refund_Status":  entity.RefundStatusRefunded,
			})
		if result.Error != nil {
			return result.Error
		}
		affected = result.RowsAffected
		return nil
	})
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}
