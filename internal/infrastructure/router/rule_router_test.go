package router

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"airline-assistant-service/internal/domain/entity"
	"airline-assistant-service/pkg/logger"
)

func TestDefaultRuleRouter(t *testing.T) {
	r := NewDefaultRuleRouter(logger.NewNopLogger())

	tests := []struct {
		utterance string
		want      entity.CapabilityIntent
	}{
		{"What time is it?", entity.IntentTimeQuery},
		{"what's today's date", entity.IntentTimeQuery},
		{"Cancel PNR AB12CD", entity.IntentReservationCancel},
		{"cancel my booking and book a new flight to Goa", entity.IntentReservationCancel},
		{"I want to book a flight from Chennai to Delhi", entity.IntentReservationBook},
		{"My name is Arjun, travel 10 days from now on flight AI101 from Chennai to Delhi", entity.IntentReservationBook},
		{"What is the status of PNR AB12CD?", entity.IntentReservationQuery},
		{"check Q1W2E3 for me", entity.IntentReservationQuery},
		{"What flights go from Mumbai to Delhi", entity.IntentScheduleQuery},
		{"What time does AI101 depart?", entity.IntentScheduleQuery},
		{"is flight AI202 on time", entity.IntentScheduleQuery},
		{"What is the cancellation policy?", entity.IntentPolicyQuery},
		{"How much baggage can I carry?", entity.IntentPolicyQuery},
		{"", entity.IntentUnknown},
		{"   ", entity.IntentUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.utterance, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Route(tt.utterance))
		})
	}
}

func TestRuleRouterFirstMatchWins(t *testing.T) {
	r := NewRuleRouter(logger.NewNopLogger())
	r.Register(NewKeywordRule(entity.IntentScheduleQuery, `\bflight\b`))
	r.Register(NewKeywordRule(entity.IntentReservationBook, `\bflight\b`))

	h := r.GetHandler("book a flight")
	if assert.NotNil(t, h) {
		assert.Equal(t, entity.IntentScheduleQuery, h.Intent())
	}
	assert.Nil(t, r.GetHandler("hello"))
	assert.Equal(t, entity.IntentPolicyQuery, r.Route("hello"))
}

func TestKeywordRuleExcept(t *testing.T) {
	rule := NewKeywordRule(entity.IntentReservationCancel, `\bcancel\b`).Except(`\bpolicy\b`)
	assert.True(t, rule.CanHandle("cancel it"))
	assert.False(t, rule.CanHandle("cancel policy"))
}
