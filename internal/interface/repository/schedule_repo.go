package repository

import (
	"context"
	"errors"
	"fmt"

	"airline-assistant-service/internal/domain/entity"
	"airline-assistant-service/internal/domain/repository"

	"gorm.io/gorm"
)

// GormScheduleRepository implements the ScheduleRepository interface
type GormScheduleRepository struct {
	db *gorm.DB
}

// NewGormScheduleRepository creates a new GORM schedule repository
func NewGormScheduleRepository(db *gorm.DB) repository.ScheduleRepository {
	return &GormScheduleRepository{
		db: db,
	}
}

// FlightSchedule GORM model for database mapping
type FlightSchedule struct {
	FlightID               string  `gorm:"column:Flight_ID;primaryKey"`
	Airline                string  `gorm:"column:Airline"`
	FromAirport            string  `gorm:"column:From_airport"`
	ToAirport              string  `gorm:"column:To_airport"`
	DepartureTime          string  `gorm:"column:Departure_Time"`
	FlightDuration         float64 `gorm:"column:Flight_duration"`
	ArrivalTime            string  `gorm:"column:Arrival_Time"`
	FromCity               string  `gorm:"column:From_city"`
	ToCity                 string  `gorm:"column:To_city"`
	FromAirportCode        string  `gorm:"column:From_airport_code"`
	ToAirportCode          string  `gorm:"column:To_airport_code"`
	FromCountry            string  `gorm:"column:From_country"`
	ToCountry              string  `gorm:"column:To_country"`
	DepartureDaysOfWeek    string  `gorm:"column:Departure_days_of_week"`
	Status                 string  `gorm:"column:Status"`
	Delay                  string  `gorm:"column:Delay"`
	AvailableSeats         int     `gorm:"column:available_seats"`
	TotalSeats             int     `gorm:"column:total_seats"`
	SeatAvailabilityStatus string  `gorm:"column:seat_availability_status"`
	Price                  float64 `gorm:"column:price"`
}

// TableName overrides the default table name
func (FlightSchedule) TableName() string {
	return "Flight_availability_and_schedule"
}

func (m *FlightSchedule) toEntity() entity.FlightScheduleEntry {
	return entity.FlightScheduleEntry{
		FlightID:               m.FlightID,
		Airline:                m.Airline,
		FromAirport:            m.FromAirport,
		ToAirport:              m.ToAirport,
		DepartureTime:          m.DepartureTime,
		FlightDuration:         m.FlightDuration,
		ArrivalTime:            m.ArrivalTime,
		FromCity:               m.FromCity,
		ToCity:                 m.ToCity,
		FromAirportCode:        m.FromAirportCode,
		ToAirportCode:          m.ToAirportCode,
		FromCountry:            m.FromCountry,
		ToCountry:              m.ToCountry,
		DepartureDaysOfWeek:    m.DepartureDaysOfWeek,
		Status:                 m.Status,
		Delay:                  m.Delay,
		AvailableSeats:         m.AvailableSeats,
		TotalSeats:             m.TotalSeats,
		SeatAvailabilityStatus: m.SeatAvailabilityStatus,
		Price:                  m.Price,
	}
}

// FindByFlightID finds a schedule entry by flight id
func (r *GormScheduleRepository) FindByFlightID(ctx context.Context, flightID string) (*entity.FlightScheduleEntry, error) {
	var model FlightSchedule
	result := r.db.WithContext(ctx).Where(`UPPER("Flight_ID") = UPPER(?)`, flightID).First(&model)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, entity.NewNotFound(fmt.Sprintf("no flight %s in the schedule", flightID))
		}
		return nil, result.Error
	}

	e := model.toEntity()
	return &e, nil
}

// FindByRoute lists flights between two cities ordered by departure time
func (r *GormScheduleRepository) FindByRoute(ctx context.Context, fromCity, toCity string) ([]entity.FlightScheduleEntry, error) {
	var models []FlightSchedule
	result := r.db.WithContext(ctx).
		Where(`LOWER("From_city") = LOWER(?) AND LOWER("To_city") = LOWER(?)`, fromCity, toCity).
		Order(`"Departure_Time"`).
		Find(&models)
	if result.Error != nil {
		return nil, result.Error
	}

	entries := make([]entity.FlightScheduleEntry, 0, len(models))
	for i := range models {
		entries = append(entries, models[i].toEntity())
	}
	return entries, nil
}
