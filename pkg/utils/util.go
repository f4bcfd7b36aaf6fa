package utils

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// TitleCase normalises a city or person name, e.g. "new delhi" -> "New Delhi"
func TitleCase(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return ""
	}
	return titleCaser.String(strings.ToLower(s))
}

// CivilDate truncates t to midnight UTC of its calendar day in its own location
func CivilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of calendar days from a to b
func DaysBetween(a, b time.Time) int {
	return int(CivilDate(b).Sub(CivilDate(a)).Hours() / 24)
}

// ValidateTravelDate checks that date is after today and at most MAX_BOOKING_DAYS ahead
func ValidateTravelDate(date, now time.Time) error {
	days := DaysBetween(now, date)
	switch {
	case days <= 0:
		return fmt.Errorf("travel date %s is not in the future", date.Format(DATE_LAYOUT))
	case days > MAX_BOOKING_DAYS:
		return fmt.Errorf("travel date %s is more than %d days ahead", date.Format(DATE_LAYOUT), MAX_BOOKING_DAYS)
	}
	return nil
}

// FormatTable renders query output as "col | col" lines with a separator under the header
func FormatTable(columns []string, rows [][]string) string {
	if len(rows) == 0 {
		return "No results found."
	}
	var lines []string
	if len(columns) > 0 {
		header := strings.Join(columns, " | ")
		lines = append(lines, header, strings.Repeat("-", len(header)))
	}
	for _, row := range rows {
		lines = append(lines, strings.Join(row, " | "))
	}
	return strings.Join(lines, "\n")
}
