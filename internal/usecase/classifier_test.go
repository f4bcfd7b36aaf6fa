package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"airline-assistant-service/internal/domain/entity"
	"airline-assistant-service/internal/infrastructure/router"
	"airline-assistant-service/internal/mock"
	"airline-assistant-service/internal/usecase"
)

func TestClassifier_Model(t *testing.T) {
	tests := []struct {
		name      string
		utterance string
		reply     string
		want      entity.CapabilityIntent
	}{
		{name: "plain label", utterance: "Is AI202 late?", reply: "schedule_query", want: entity.IntentScheduleQuery},
		{name: "prefixed label", utterance: "What time is it?", reply: "Label: time_query", want: entity.IntentTimeQuery},
		{name: "fenced label", utterance: "Can I carry a guitar?", reply: "```\npolicy_query\n```", want: entity.IntentPolicyQuery},
		{
			name:      "cancel outranks book",
			utterance: "Cancel my old ticket and book a new one to Goa",
			reply:     "reservation_book",
			want:      entity.IntentReservationCancel,
		},
		{name: "model unknown", utterance: "hello there", reply: "unknown", want: entity.IntentUnknown},
		{name: "unparseable falls back to rules", utterance: "Show flights from Mumbai to Delhi", reply: "I think you want flights", want: entity.IntentScheduleQuery},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oracle := &mock.Oracle{
				GenerateFn: func(ctx context.Context, system, prompt string) (string, error) {
					return tt.reply, nil
				},
			}
			c := usecase.NewClassifier(oracle, router.NewDefaultRuleRouter(nopLogger()), nopLogger())

			assert.Equal(t, tt.want, c.Classify(context.Background(), tt.utterance, nil))
			assert.Equal(t, 1, oracle.Calls())
		})
	}
}

func TestClassifier_ModelFailureUsesRules(t *testing.T) {
	oracle := &mock.Oracle{
		GenerateFn: func(ctx context.Context, system, prompt string) (string, error) {
			return "", errors.New("rate limited")
		},
	}
	c := usecase.NewClassifier(oracle, router.NewDefaultRuleRouter(nopLogger()), nopLogger())

	assert.Equal(t, entity.IntentReservationCancel, c.Classify(context.Background(), "Cancel PNR AB12CD", nil))
	assert.Equal(t, entity.IntentPolicyQuery, c.Classify(context.Background(), "How much baggage can I check in?", nil))
}

func TestClassifier_Blank(t *testing.T) {
	oracle := &mock.Oracle{
		GenerateFn: func(ctx context.Context, system, prompt string) (string, error) {
			return "policy_query", nil
		},
	}
	c := usecase.NewClassifier(oracle, router.NewDefaultRuleRouter(nopLogger()), nopLogger())

	assert.Equal(t, entity.IntentUnknown, c.Classify(context.Background(), "   ", nil))
	assert.Equal(t, 0, oracle.Calls())
}

func TestClassifier_IncludesConversation(t *testing.T) {
	oracle := &mock.Oracle{
		GenerateFn: func(ctx context.Context, system, prompt string) (string, error) {
			return "reservation_query", nil
		},
	}
	c := usecase.NewClassifier(oracle, router.NewDefaultRuleRouter(nopLogger()), nopLogger())

	recent := []entity.Message{
		{Role: entity.RoleUser, Content: "Check PNR AB12CD"},
		{Role: entity.RoleAssistant, Content: "Booking status: Confirmed"},
	}
	c.Classify(context.Background(), "and the refund?", recent)
	prompt := oracle.Prompts()[0]
	assert.Contains(t, prompt, "User: Check PNR AB12CD")
	assert.Contains(t, prompt, "Assistant: Booking status: Confirmed")
	assert.Contains(t, prompt, "Latest user message: and the refund?")
}
