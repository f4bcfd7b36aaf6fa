package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"airline-assistant-service/internal/domain/entity"
	"airline-assistant-service/internal/domain/repository"
	"airline-assistant-service/internal/infrastructure/oracle"
	"airline-assistant-service/pkg/logger"
	"airline-assistant-service/pkg/utils"
	"airline-assistant-service/templates"
)

// bookingSchema is the contract for model-extracted booking fields
const bookingSchema = `{
  "type": "object",
  "required": ["Customer_Name", "From_City", "To_City", "Travel_Date", "Flight_ID"],
  "properties": {
    "Customer_Name": {"type": "string", "maxLength": 50},
    "From_City": {"type": "string", "maxLength": 50},
    "To_City": {"type": "string", "maxLength": 50},
    "Travel_Date": {"type": "string", "pattern": "^(\\d{4}-\\d{2}-\\d{2})?$"},
    "Flight_ID": {"type": "string", "pattern": "^([A-Za-z]{2}\\d{2,4})?$"}
  }
}`

var bookingSchemaLoader = gojsonschema.NewStringLoader(bookingSchema)

type extractedBooking struct {
	CustomerName string `json:"Customer_Name"`
	FromCity     string `json:"From_City"`
	ToCity       string `json:"To_City"`
	TravelDate   string `json:"Travel_Date"`
	FlightID     string `json:"Flight_ID"`
}

// SlotExtractor collects booking fields from every user message in the conversation
type SlotExtractor struct {
	oracle repository.Oracle
	parser *utils.UtteranceParser
	clock  Clock
	logger logger.Logger
}

// NewSlotExtractor creates an extractor. oracle may be nil, in which case only the
// pattern-based parser is used.
func NewSlotExtractor(oracle repository.Oracle, parser *utils.UtteranceParser, clock Clock, logger logger.Logger) *SlotExtractor {
	return &SlotExtractor{
		oracle: oracle,
		parser: parser,
		clock:  clock,
		logger: logger,
	}
}

// Extract runs the pattern parser first and asks the model only for fields it missed
func (e *SlotExtractor) Extract(ctx context.Context, req entity.CapabilityRequest) (utils.BookingDetails, error) {
	now := e.clock.now()
	texts := userTexts(req)
	details := e.parser.ExtractBookingDetails(texts, now)
	if len(missingBookingFields(details)) == 0 || e.oracle == nil {
		return details, nil
	}

	messages := append(append([]entity.Message{}, req.History...), entity.Message{Role: entity.RoleUser, Content: req.Text})
	system, prompt, err := templates.BookingExtractPrompt.Render(templates.PromptData{
		Today:        now.In(e.parser.Location()).Format(utils.DATE_LAYOUT),
		Conversation: templates.FormatConversation(messages),
	})
	if err != nil {
		return details, entity.NewMalformedGeneration(err.Error())
	}

	out, err := e.oracle.Generate(ctx, system, prompt)
	if err != nil {
		return details, entity.Classify("booking extraction", err)
	}

	extracted, err := decodeBooking(oracle.UnwrapText(out))
	if err != nil {
		e.logger.Warn("Ignoring invalid booking extraction", "error", err)
		return details, nil
	}

	e.merge(&details, extracted)
	return details, nil
}

func decodeBooking(raw string) (*extractedBooking, error) {
	result, err := gojsonschema.Validate(bookingSchemaLoader, gojsonschema.NewStringLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}
	if !result.Valid() {
		var errs []string
		for _, e := range result.Errors() {
			errs = append(errs, e.String())
		}
		return nil, fmt.Errorf("schema validation errors: %s", strings.Join(errs, "; "))
	}

	var b extractedBooking
	if err := json.Unmarshal([]byte(raw), &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// merge fills only the fields the parser left empty
func (e *SlotExtractor) merge(details *utils.BookingDetails, b *extractedBooking) {
	if details.CustomerName == "" {
		details.CustomerName = utils.TitleCase(b.CustomerName)
	}
	if details.FromCity == "" {
		details.FromCity = utils.TitleCase(b.FromCity)
	}
	if details.ToCity == "" {
		details.ToCity = utils.TitleCase(b.ToCity)
	}
	if details.FlightID == "" {
		details.FlightID = strings.ToUpper(strings.TrimSpace(b.FlightID))
	}
	if details.TravelDate == nil && b.TravelDate != "" {
		if d, err := time.ParseInLocation(utils.DATE_LAYOUT, b.TravelDate, e.parser.Location()); err == nil {
			details.TravelDate = &d
			details.RawDate = b.TravelDate
		}
	}
}

// missingBookingFields lists absent fields in the order they are asked for
func missingBookingFields(d utils.BookingDetails) []string {
	var missing []string
	if d.CustomerName == "" {
		missing = append(missing, entity.FieldCustomerName)
	}
	if d.FromCity == "" {
		missing = append(missing, entity.FieldFromCity)
	}
	if d.ToCity == "" {
		missing = append(missing, entity.FieldToCity)
	}
	if d.TravelDate == nil {
		missing = append(missing, entity.FieldTravelDate)
	}
	if d.FlightID == "" {
		missing = append(missing, entity.FieldFlightID)
	}
	return missing
}
