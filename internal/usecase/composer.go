package usecase

import (
	"airline-assistant-service/internal/domain/entity"
	"airline-assistant-service/pkg/logger"
)

const unknownIntentReply = "I'm sorry, I didn't quite understand that. I can check, book or cancel a " +
	"reservation, look up flight schedules, answer policy questions and tell you the current time. " +
	"What would you like to do?"

var clarifyingQuestions = map[string]string{
	entity.FieldPNR:           "Could you please share your 6-character PNR number?",
	entity.FieldCustomerName:  "May I have the passenger's full name for the booking?",
	entity.FieldFromCity:      "Which city will you be flying from?",
	entity.FieldToCity:        "Which city would you like to fly to?",
	entity.FieldTravelDate:    "What date would you like to travel? You can give a date such as 2026-11-05 or say something like \"10 days from now\".",
	entity.FieldFlightID:      "Which flight would you like to book? Please share the flight number, for example AI101.",
	entity.FieldFlightOrRoute: "Which flight number, or which route (from city and to city), are you asking about?",
	entity.FieldQuestion:      "What would you like to know about our policies?",
}

// Reply is a composed assistant message
type Reply struct {
	Text string
	// Clarifying is true when the message asks the user for missing or invalid input
	Clarifying bool
	// Kind is the error kind behind the message, empty on success
	Kind entity.ErrorKind
}

// Composer turns capability outcomes into assistant messages
type Composer struct {
	logger logger.Logger
}

func NewComposer(logger logger.Logger) *Composer {
	return &Composer{logger: logger}
}

// Compose builds the reply for one turn. Failures are surfaced, never swallowed.
func (c *Composer) Compose(intent entity.CapabilityIntent, result *entity.CapabilityResult, err error) Reply {
	if err != nil {
		return c.composeError(intent, entity.Classify(string(intent), err))
	}
	if intent == entity.IntentUnknown || result == nil {
		return Reply{Text: unknownIntentReply, Clarifying: true}
	}
	return Reply{Text: result.Text}
}

func (c *Composer) composeError(intent entity.CapabilityIntent, ce *entity.CapabilityError) Reply {
	reply := Reply{Kind: ce.Kind}
	switch ce.Kind {
	case entity.ErrMissingIdentifier:
		question, ok := clarifyingQuestions[ce.Field]
		if !ok {
			question = "Could you give me a few more details?"
		}
		if ce.Message != "" {
			question += "\n" + ce.Message
		}
		reply.Text = question
		reply.Clarifying = true

	case entity.ErrInvalidDate:
		reply.Text = "I can only book travel dates from tomorrow up to one year ahead (" + ce.Message +
			"). Which date would you like to travel instead?"
		reply.Clarifying = true

	case entity.ErrNotFound, entity.ErrAlreadyInTargetState:
		reply.Text = ce.Message

	case entity.ErrMalformedGeneration:
		c.logger.Error("Capability produced an invalid query", "intent", intent, "error", ce)
		reply.Text = "Sorry, I couldn't build a valid lookup for that request. Could you rephrase it?"

	default:
		c.logger.Error("Capability unavailable", "intent", intent, "error", ce)
		reply.Text = "Sorry, I couldn't complete your request because a required service is unavailable right now. Please try again shortly."
	}
	return reply
}
