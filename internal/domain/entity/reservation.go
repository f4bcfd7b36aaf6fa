package entity

import "time"

// Booking statuses
const (
	BookingStatusConfirmed = "Confirmed"
	BookingStatusCancelled = "Cancelled"
)

// Refund statuses
const (
	RefundStatusNotApplicable = "Not applicable"
	RefundStatusRefunded      = "Refunded"
	RefundStatusPending       = "Pending"
)

// Reservation represents a row of the Flight_reservation table
type Reservation struct {
	PNR           string    `json:"pnr"`
	CustomerName  string    `json:"customer_name"`
	FlightID      string    `json:"flight_id"`
	Airline       string    `json:"airline"`
	FromCity      string    `json:"from_city"`
	ToCity        string    `json:"to_city"`
	DepartureTime string    `json:"departure_time"`
	ArrivalTime   string    `json:"arrival_time"`
	TravelDate    time.Time `json:"travel_date"`
	BookingDate   time.Time `json:"booking_date"`
	BookingStatus string    `json:"booking_status"`
	RefundStatus  string    `json:"refund_status"`
}

// IsCancelled reports whether the booking has already been cancelled
func (r *Reservation) IsCancelled() bool {
	return r.BookingStatus == BookingStatusCancelled
}
