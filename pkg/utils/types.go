package utils

import "time"

// Route is an origin/destination city pair
type Route struct {
	FromCity string
	ToCity   string
}

// Complete reports whether both ends of the route are known
func (r Route) Complete() bool {
	return r.FromCity != "" && r.ToCity != ""
}

// BookingDetails holds the booking fields extracted from a conversation
type BookingDetails struct {
	CustomerName string
	FromCity     string
	ToCity       string
	FlightID     string
	TravelDate   *time.Time

	// RawDate is the date phrase as written by the user, kept for error messages
	RawDate string
}

// Constants
const (
	DATE_LAYOUT      = "2006-01-02"
	DISPLAY_LAYOUT   = "02/01/2006"
	DATETIME_LAYOUT  = "2006-01-02 15:04:05"
	PNR_LENGTH       = 6
	MAX_BOOKING_DAYS = 365
)
