package entity

import "strings"

// CapabilityIntent is the classified purpose of a user utterance
type CapabilityIntent string

const (
	IntentReservationQuery  CapabilityIntent = "reservation_query"
	IntentReservationCancel CapabilityIntent = "reservation_cancel"
	IntentReservationBook   CapabilityIntent = "reservation_book"
	IntentScheduleQuery     CapabilityIntent = "schedule_query"
	IntentPolicyQuery       CapabilityIntent = "policy_query"
	IntentTimeQuery         CapabilityIntent = "time_query"
	IntentUnknown           CapabilityIntent = "unknown"
)

// KnownIntents lists every routable intent in classifier label order
var KnownIntents = []CapabilityIntent{
	IntentReservationQuery,
	IntentReservationCancel,
	IntentReservationBook,
	IntentScheduleQuery,
	IntentPolicyQuery,
	IntentTimeQuery,
}

// ParseIntent maps a label to an intent. Unrecognised labels return IntentUnknown, false.
func ParseIntent(label string) (CapabilityIntent, bool) {
	normalized := strings.ToLower(strings.TrimSpace(label))
	normalized = strings.Trim(normalized, "`'\". ")
	for _, intent := range KnownIntents {
		if normalized == string(intent) {
			return intent, true
		}
	}
	if normalized == string(IntentUnknown) {
		return IntentUnknown, true
	}
	return IntentUnknown, false
}

// Mutating reports whether the intent can change persistent state
func (i CapabilityIntent) Mutating() bool {
	return i == IntentReservationBook || i == IntentReservationCancel
}
