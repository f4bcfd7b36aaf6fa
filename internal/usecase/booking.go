package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"airline-assistant-service/internal/domain/entity"
	"airline-assistant-service/internal/domain/repository"
	"airline-assistant-service/pkg/logger"
	"airline-assistant-service/pkg/metrics"
	"airline-assistant-service/pkg/utils"
)

// BookingCapability creates new reservations once every booking field is known
type BookingCapability struct {
	slots        *SlotExtractor
	schedules    repository.ScheduleRepository
	reservations repository.ReservationRepository
	clock        Clock
	metrics      *metrics.Metrics
	logger       logger.Logger
}

// NewBookingCapability creates a booking capability. metrics may be nil.
func NewBookingCapability(
	slots *SlotExtractor,
	schedules repository.ScheduleRepository,
	reservations repository.ReservationRepository,
	clock Clock,
	metrics *metrics.Metrics,
	logger logger.Logger,
) *BookingCapability {
	return &BookingCapability{
		slots:        slots,
		schedules:    schedules,
		reservations: reservations,
		clock:        clock,
		metrics:      metrics,
		logger:       logger,
	}
}

func (c *BookingCapability) Invoke(ctx context.Context, req entity.CapabilityRequest) (*entity.CapabilityResult, error) {
	details, err := c.slots.Extract(ctx, req)
	if err != nil {
		return nil, err
	}

	if missing := missingBookingFields(details); len(missing) > 0 {
		return nil, c.missingField(ctx, missing[0], details)
	}

	loc := c.slots.parser.Location()
	now := c.clock.now().In(loc)
	if err := utils.ValidateTravelDate(*details.TravelDate, now); err != nil {
		return nil, entity.NewInvalidDate(err.Error())
	}

	flight, err := c.schedules.FindByFlightID(ctx, details.FlightID)
	if err != nil {
		return nil, entity.Classify("flight lookup", err)
	}
	if !strings.EqualFold(flight.FromCity, details.FromCity) || !strings.EqualFold(flight.ToCity, details.ToCity) {
		return nil, entity.NewNotFound(fmt.Sprintf("Flight %s does not operate from %s to %s. It flies from %s to %s.",
			flight.FlightID, details.FromCity, details.ToCity, flight.FromCity, flight.ToCity))
	}

	reservation := &entity.Reservation{
		CustomerName:  details.CustomerName,
		FlightID:      flight.FlightID,
		Airline:       flight.Airline,
		FromCity:      flight.FromCity,
		ToCity:        flight.ToCity,
		DepartureTime: flight.DepartureTime,
		ArrivalTime:   flight.ArrivalTime,
		TravelDate:    utils.CivilDate(details.TravelDate.In(loc)),
		BookingDate:   utils.CivilDate(now),
		BookingStatus: entity.BookingStatusConfirmed,
		RefundStatus:  entity.RefundStatusNotApplicable,
	}
	if err := c.reservations.Create(ctx, reservation, utils.GeneratePNR); err != nil {
		return nil, entity.Classify("create reservation", err)
	}

	if c.metrics != nil {
		c.metrics.BookingsCreated.Inc()
	}
	c.logger.Info("Reservation created",
		"pnr", reservation.PNR,
		"flightID", reservation.FlightID,
		"travelDate", reservation.TravelDate.Format(utils.DATE_LAYOUT))

	return &entity.CapabilityResult{
		Intent:      entity.IntentReservationBook,
		Text:        bookingConfirmation(reservation),
		Reservation: reservation,
		Mutated:     true,
	}, nil
}

// missingField builds the clarification error. When only the flight is missing the
// flights on the requested route are offered.
func (c *BookingCapability) missingField(ctx context.Context, field string, details utils.BookingDetails) error {
	err := entity.NewMissingIdentifier(field)
	if field != entity.FieldFlightID {
		return err
	}

	flights, lookupErr := c.schedules.FindByRoute(ctx, details.FromCity, details.ToCity)
	if lookupErr != nil {
		c.logger.Warn("Failed to list flights for route", "from", details.FromCity, "to", details.ToCity, "error", lookupErr)
		return err
	}
	flights = lo.Filter(flights, func(f entity.FlightScheduleEntry, _ int) bool {
		return !strings.EqualFold(f.Status, "Cancelled")
	})
	if len(flights) == 0 {
		return err
	}

	options := lo.Map(flights, func(f entity.FlightScheduleEntry, _ int) string {
		return fmt.Sprintf("%s (%s, departs %s)", f.FlightID, f.Airline, f.DepartureTime)
	})
	err.Message = fmt.Sprintf("Flights from %s to %s: %s.", details.FromCity, details.ToCity, strings.Join(options, ", "))
	return err
}

func bookingConfirmation(r *entity.Reservation) string {
	return fmt.Sprintf("Your flight has been booked. PNR: %s\n"+
		"Passenger: %s\n"+
		"Flight: %s (%s) from %s to %s on %s, departing %s and arriving %s.\n"+
		"Booking status: %s. Refund status: %s.",
		r.PNR, r.CustomerName,
		r.FlightID, r.Airline, r.FromCity, r.ToCity, r.TravelDate.Format(utils.DATE_LAYOUT), r.DepartureTime, r.ArrivalTime,
		r.BookingStatus, r.RefundStatus)
}
