package utils

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"airline-assistant-service/pkg/logger"
)

var (
	explicitPNRRegex  = regexp.MustCompile(`(?i)\bPNR(?:\s*(?:number|no\.?|code|#|is|:|-))*\s*([A-Z0-9]{6})\b`)
	implicitPNRRegex  = regexp.MustCompile(`\b([A-Za-z0-9]{6})\b`)
	flightWordRegex   = regexp.MustCompile(`(?i)\bflight(?:\s*(?:number|no\.?|id|#|:))*\s*$`)
	flightIDRegex     = regexp.MustCompile(`\b([A-Za-z]{2}\d{2,4})\b`)
	routeFromToRegex  = regexp.MustCompile(`(?i)\bfrom\s+([a-z][a-z.' -]*?)\s+to\s+([a-z][a-z.' -]*?)(?:\s+(?:on|for|in|at|by|with|and|departing|leaving|tomorrow|today|next|this|around|after|before|travel|travelling|traveling|flight|please|my|i)\b|\s+\d|\s*[?.!,;]|\s*$)`)
	routeBetweenRegex = regexp.MustCompile(`(?i)\bbetween\s+([a-z][a-z.' -]*?)\s+and\s+([a-z][a-z.' -]*?)(?:\s+(?:on|for|in|at|by|with|departing|leaving|tomorrow|today|next|this|around|after|before|flight|please)\b|\s*[?.!,;]|\s*$)`)
	nameRegex         = regexp.MustCompile(`(?i)\b(?:my name is|name is|name\s*:|passenger name\s*:?|for passenger)\s+([a-z][a-z.'\-]*(?:\s+[a-z][a-z.'\-]*){0,3}?)(?:\s*[,.;!?]|\s+(?:and|travel|travelling|traveling|from|to|on|i|want|would|need|flying|booking|book|please)\b|\s*$)`)
	isoDateRegex      = regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})\b`)
	dmyDateRegex      = regexp.MustCompile(`\b(\d{1,2})[/.-](\d{1,2})[/.-](\d{4})\b`)
	dayMonthRegex     = regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)?\s+(?:of\s+)?([a-z]{3,9}),?\s+(\d{4})\b`)
	monthDayRegex     = regexp.MustCompile(`(?i)\b([a-z]{3,9})\s+(\d{1,2})(?:st|nd|rd|th)?,?\s+(\d{4})\b`)
	relativeDaysRegex = regexp.MustCompile(`(?i)\b(\d{1,4})\s+(day|days|week|weeks)\s+(?:from\s+(?:now|today)|later|ahead)\b`)
	inDaysRegex       = regexp.MustCompile(`(?i)\b(?:in|after)\s+(\d{1,4})\s+(day|days|week|weeks)\b`)
	dayAfterRegex     = regexp.MustCompile(`(?i)\bday after tomorrow\b`)
	tomorrowRegex     = regexp.MustCompile(`(?i)\btomorrow\b`)
	todayRegex        = regexp.MustCompile(`(?i)\b(?:today|tonight)\b`)
	yesterdayRegex    = regexp.MustCompile(`(?i)\byesterday\b`)
	benignNoRegex     = regexp.MustCompile(`(?i)\b(?:no (?:problems?|worries|issues?)|not a problem)\b`)
	negativeRegex     = regexp.MustCompile(`(?i)\b(?:no|nope|nah|don'?t|do not|dont|keep it|keep my|stop|abort|never ?mind|not now|changed my mind|hold off|wait)\b`)
	affirmativeRegex  = regexp.MustCompile(`(?i)\b(?:yes|y|yeah|yep|yup|sure|confirm|confirmed|go ahead|proceed|ok|okay|do it|please do|absolutely|correct)\b`)
)

var months = map[string]time.Month{
	"jan": time.January, "january": time.January,
	"feb": time.February, "february": time.February,
	"mar": time.March, "march": time.March,
	"apr": time.April, "april": time.April,
	"may": time.May,
	"jun": time.June, "june": time.June,
	"jul": time.July, "july": time.July,
	"aug": time.August, "august": time.August,
	"sep": time.September, "sept": time.September, "september": time.September,
	"oct": time.October, "october": time.October,
	"nov": time.November, "november": time.November,
	"dec": time.December, "december": time.December,
}

var notCities = map[string]bool{
	"now": true, "today": true, "here": true, "there": true, "home": true, "tomorrow": true,
}

// UtteranceParser extracts identifiers and booking fields from free text
type UtteranceParser struct {
	location *time.Location
	logger   logger.Logger
}

// NewUtteranceParser creates a parser that resolves relative dates in loc
func NewUtteranceParser(loc *time.Location, logger logger.Logger) *UtteranceParser {
	if loc == nil {
		loc = time.UTC
	}
	return &UtteranceParser{
		location: loc,
		logger:   logger,
	}
}

// Location returns the zone used for relative date resolution
func (p *UtteranceParser) Location() *time.Location {
	return p.location
}

// ParseInt converts string to int
func ParseInt(value string) int {
	parsedValue, _ := strconv.Atoi(value)
	return parsedValue
}

// ExtractPNR returns the first PNR found in text. After the word "PNR" any 6 character
// alphanumeric token counts, digits only included; otherwise the token needs letters and
// digits and must not directly follow the word "flight".
func ExtractPNR(text string) (string, bool) {
	for _, m := range explicitPNRRegex.FindAllStringSubmatch(text, -1) {
		token := strings.ToUpper(m[1])
		if pnrWords[token] {
			continue
		}
		// an all-letter token must be written in capitals so that "pnr status" is not a PNR
		if strings.IndexFunc(token, isDigit) >= 0 || m[1] == token {
			return token, true
		}
	}

	for _, loc := range implicitPNRRegex.FindAllStringSubmatchIndex(text, -1) {
		token := strings.ToUpper(text[loc[2]:loc[3]])
		if !IsPNR(token) {
			continue
		}
		if flightWordRegex.MatchString(text[:loc[0]]) {
			continue
		}
		return token, true
	}
	return "", false
}

// pnrWords are words that commonly follow "PNR" in a sentence
var pnrWords = map[string]bool{
	"STATUS": true, "NUMBER": true, "PLEASE": true, "CANCEL": true,
	"DETAIL": true, "RECORD": true, "REFUND": true, "LOOKUP": true,
}

// ExtractPNRFromHistory searches the newest text first
func ExtractPNRFromHistory(texts []string) (string, bool) {
	for i := len(texts) - 1; i >= 0; i-- {
		if pnr, ok := ExtractPNR(texts[i]); ok {
			return pnr, true
		}
	}
	return "", false
}

// ExtractFlightID returns the first airline-code style flight number, e.g. AI101
func ExtractFlightID(text string) (string, bool) {
	for _, loc := range flightIDRegex.FindAllStringSubmatchIndex(text, -1) {
		token := strings.ToUpper(text[loc[2]:loc[3]])
		// a 6 character token could equally be a PNR; only accept it when written after "flight"
		if len(token) == PNR_LENGTH && !flightWordRegex.MatchString(text[:loc[0]]) {
			continue
		}
		return token, true
	}
	return "", false
}

// ExtractRoute returns the last "from X to Y" or "between X and Y" pair in text
func ExtractRoute(text string) (Route, bool) {
	var found Route
	ok := false
	for _, re := range []*regexp.Regexp{routeFromToRegex, routeBetweenRegex} {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			from, to := cleanCity(m[1]), cleanCity(m[2])
			if from == "" || to == "" || notCities[strings.ToLower(from)] || notCities[strings.ToLower(to)] {
				continue
			}
			found = Route{FromCity: TitleCase(from), ToCity: TitleCase(to)}
			ok = true
		}
		if ok {
			return found, true
		}
	}
	return Route{}, false
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func cleanCity(s string) string {
	s = strings.Trim(strings.TrimSpace(s), ".'-")
	return strings.TrimSpace(s)
}

// ExtractCustomerName returns the name introduced with "my name is" and similar phrases
func ExtractCustomerName(text string) (string, bool) {
	m := nameRegex.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	name := TitleCase(strings.Trim(m[1], ".'-"))
	if name == "" {
		return "", false
	}
	return name, true
}

// ExtractTravelDate resolves the first date expression in text against now. The returned
// string is the matched phrase.
func (p *UtteranceParser) ExtractTravelDate(text string, now time.Time) (time.Time, string, bool) {
	now = now.In(p.location)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, p.location)

	if m := isoDateRegex.FindStringSubmatch(text); m != nil {
		if t, ok := p.civil(ParseInt(m[1]), ParseInt(m[2]), ParseInt(m[3])); ok {
			return t, m[0], true
		}
	}
	if m := dmyDateRegex.FindStringSubmatch(text); m != nil {
		if t, ok := p.civil(ParseInt(m[3]), ParseInt(m[2]), ParseInt(m[1])); ok {
			return t, m[0], true
		}
	}
	if m := dayMonthRegex.FindStringSubmatch(text); m != nil {
		if month, ok := months[strings.ToLower(m[2])]; ok {
			if t, ok := p.civil(ParseInt(m[3]), int(month), ParseInt(m[1])); ok {
				return t, m[0], true
			}
		}
	}
	if m := monthDayRegex.FindStringSubmatch(text); m != nil {
		if month, ok := months[strings.ToLower(m[1])]; ok {
			if t, ok := p.civil(ParseInt(m[3]), int(month), ParseInt(m[2])); ok {
				return t, m[0], true
			}
		}
	}
	for _, re := range []*regexp.Regexp{relativeDaysRegex, inDaysRegex} {
		if m := re.FindStringSubmatch(text); m != nil {
			n := ParseInt(m[1])
			if strings.HasPrefix(strings.ToLower(m[2]), "week") {
				n *= 7
			}
			return today.AddDate(0, 0, n), m[0], true
		}
	}
	if m := dayAfterRegex.FindString(text); m != "" {
		return today.AddDate(0, 0, 2), m, true
	}
	if m := tomorrowRegex.FindString(text); m != "" {
		return today.AddDate(0, 0, 1), m, true
	}
	if m := todayRegex.FindString(text); m != "" {
		return today, m, true
	}
	if m := yesterdayRegex.FindString(text); m != "" {
		return today.AddDate(0, 0, -1), m, true
	}
	return time.Time{}, "", false
}

// civil builds a date and rejects overflowing values such as 31/02
func (p *UtteranceParser) civil(year, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, p.location)
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, false
	}
	return t, true
}

// ExtractBookingDetails scans the user's messages, newest last, and keeps the most
// recent value seen for each field.
func (p *UtteranceParser) ExtractBookingDetails(texts []string, now time.Time) BookingDetails {
	var details BookingDetails
	for _, text := range texts {
		if name, ok := ExtractCustomerName(text); ok {
			details.CustomerName = name
		}
		if route, ok := ExtractRoute(text); ok {
			details.FromCity = route.FromCity
			details.ToCity = route.ToCity
		}
		if id, ok := ExtractFlightID(text); ok {
			details.FlightID = id
		}
		if date, raw, ok := p.ExtractTravelDate(text, now); ok {
			d := date
			details.TravelDate = &d
			details.RawDate = raw
		}
	}
	if p.logger != nil {
		p.logger.Debug("Extracted booking details", "name", details.CustomerName, "from", details.FromCity,
			"to", details.ToCity, "flight", details.FlightID, "date", details.RawDate)
	}
	return details
}

// IsNegative reports whether text declines or withdraws a request. Politeness such as
// "no problem" is not a refusal.
func IsNegative(text string) bool {
	return negativeRegex.MatchString(benignNoRegex.ReplaceAllString(text, " "))
}

// IsAffirmative reports whether text confirms a request. A reply that is also negative
// ("no, don't do it") is never affirmative.
func IsAffirmative(text string) bool {
	if IsNegative(text) {
		return false
	}
	return affirmativeRegex.MatchString(text)
}
