package entity

// FlightScheduleEntry represents a row of the Flight_availability_and_schedule table.
// It is reference data and never mutated by the assistant.
type FlightScheduleEntry struct {
	FlightID               string  `json:"flight_id"`
	Airline                string  `json:"airline"`
	FromAirport            string  `json:"from_airport"`
	ToAirport              string  `json:"to_airport"`
	DepartureTime          string  `json:"departure_time"`
	FlightDuration         float64 `json:"flight_duration"`
	ArrivalTime            string  `json:"arrival_time"`
	FromCity               string  `json:"from_city"`
	ToCity                 string  `json:"to_city"`
	FromAirportCode        string  `json:"from_airport_code"`
	ToAirportCode          string  `json:"to_airport_code"`
	FromCountry            string  `json:"from_country"`
	ToCountry              string  `json:"to_country"`
	DepartureDaysOfWeek    string  `json:"departure_days_of_week"`
	Status                 string  `json:"status"`
	Delay                  string  `json:"delay"`
	AvailableSeats         int     `json:"available_seats"`
	TotalSeats             int     `json:"total_seats"`
	SeatAvailabilityStatus string  `json:"seat_availability_status"`
	Price                  float64 `json:"price"`
}
