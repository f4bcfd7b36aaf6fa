package usecase

import (
	"context"
	"fmt"
	"strings"

	"airline-assistant-service/internal/domain/entity"
	"airline-assistant-service/internal/domain/repository"
	"airline-assistant-service/internal/infrastructure/oracle"
	"airline-assistant-service/pkg/logger"
	"airline-assistant-service/pkg/utils"
	"airline-assistant-service/templates"
)

// Identification is what a read query must be anchored on
type Identification struct {
	// Identifier is shown to the model, e.g. the PNR
	Identifier string
	// Literals must appear in the generated WHERE clause
	Literals []string
}

// QuerySpec configures one read-only capability. reservation_query and schedule_query
// differ only in their spec.
type QuerySpec struct {
	Intent   entity.CapabilityIntent
	Prompt   *templates.Prompt
	Table    string
	Identify func(req entity.CapabilityRequest) (Identification, error)
	// NotFound renders the message for an empty result
	NotFound func(id Identification) string
}

// ReservationQuerySpec answers questions about one booking. A PNR is mandatory.
func ReservationQuerySpec() QuerySpec {
	return QuerySpec{
		Intent: entity.IntentReservationQuery,
		Prompt: templates.ReservationSQLPrompt,
		Table:  "Flight_reservation",
		Identify: func(req entity.CapabilityRequest) (Identification, error) {
			pnr, ok := utils.ExtractPNR(req.Text)
			if !ok {
				pnr, ok = utils.ExtractPNRFromHistory(allTexts(entity.CapabilityRequest{History: req.History}))
			}
			if !ok {
				return Identification{}, entity.NewMissingIdentifier(entity.FieldPNR)
			}
			return Identification{Identifier: pnr, Literals: []string{pnr}}, nil
		},
		NotFound: func(id Identification) string {
			return fmt.Sprintf("I could not find a reservation with PNR %s.", id.Identifier)
		},
	}
}

// ScheduleQuerySpec answers schedule questions anchored on a flight id or a city pair
func ScheduleQuerySpec() QuerySpec {
	return QuerySpec{
		Intent: entity.IntentScheduleQuery,
		Prompt: templates.ScheduleSQLPrompt,
		Table:  "Flight_availability_and_schedule",
		Identify: func(req entity.CapabilityRequest) (Identification, error) {
			texts := userTexts(req)
			for i := len(texts) - 1; i >= 0; i-- {
				if id, ok := utils.ExtractFlightID(texts[i]); ok {
					return Identification{Identifier: "flight " + id, Literals: []string{id}}, nil
				}
				if route, ok := utils.ExtractRoute(texts[i]); ok {
					return Identification{
						Identifier: route.FromCity + " to " + route.ToCity,
						Literals:   []string{route.FromCity, route.ToCity},
					}, nil
				}
			}
			return Identification{}, entity.NewMissingIdentifier(entity.FieldFlightOrRoute)
		},
		NotFound: func(id Identification) string {
			return fmt.Sprintf("I could not find any flights for %s.", id.Identifier)
		},
	}
}

// ReadQueryCapability turns a question into guarded, generated SQL and runs it read-only
type ReadQueryCapability struct {
	spec    QuerySpec
	oracle  repository.Oracle
	queries repository.QueryRepository
	window  int
	logger  logger.Logger
}

// NewReadQueryCapability creates a read-only query capability
func NewReadQueryCapability(spec QuerySpec, oracle repository.Oracle, queries repository.QueryRepository, window int, logger logger.Logger) *ReadQueryCapability {
	return &ReadQueryCapability{
		spec:    spec,
		oracle:  oracle,
		queries: queries,
		window:  window,
		logger:  logger,
	}
}

// Invoke identifies the record, generates SQL, validates it and executes it. The store is
// never touched when identification fails.
func (c *ReadQueryCapability) Invoke(ctx context.Context, req entity.CapabilityRequest) (*entity.CapabilityResult, error) {
	id, err := c.spec.Identify(req)
	if err != nil {
		return nil, err
	}

	history := req.History
	if c.window > 0 && len(history) > c.window {
		history = history[len(history)-c.window:]
	}
	conversation := templates.FormatConversation(append(append([]entity.Message{}, history...),
		entity.Message{Role: entity.RoleUser, Content: req.Text}))

	system, prompt, err := c.spec.Prompt.Render(templates.PromptData{
		Question:     req.Text,
		Conversation: conversation,
		Identifier:   id.Identifier,
	})
	if err != nil {
		return nil, entity.NewMalformedGeneration(err.Error())
	}

	generated, err := c.oracle.Generate(ctx, system, prompt)
	if err != nil {
		return nil, entity.Classify("sql generation", err)
	}

	query, err := oracle.UnwrapSQL(generated)
	if err != nil {
		return nil, err
	}

	guard := SQLGuard{
		Table:            c.spec.Table,
		Literals:         id.Literals,
		AllowAggregation: aggregationRequested(req.Text),
	}
	if err := guard.Check(query); err != nil {
		c.logger.Warn("Rejected generated SQL", "intent", c.spec.Intent, "sql", query, "error", err)
		return nil, err
	}

	c.logger.Debug("Running generated SQL", "intent", c.spec.Intent, "sql", query)
	result, err := c.queries.RunReadOnly(ctx, query)
	if err != nil {
		return nil, queryError(c.spec.Table, err)
	}
	if result.Empty() {
		return nil, entity.NewNotFound(c.spec.NotFound(id))
	}

	return &entity.CapabilityResult{
		Intent: c.spec.Intent,
		Text:   strings.TrimSpace(utils.FormatTable(result.Columns, result.Rows)),
		SQL:    query,
		Query:  result,
	}, nil
}

// queryError separates statements the database could not compile from connectivity failures
func queryError(table string, err error) error {
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"syntax error", "does not exist", "no such column", "no such table", "sqlstate 42"} {
		if strings.Contains(msg, marker) {
			return &entity.CapabilityError{Kind: entity.ErrMalformedGeneration, Message: "generated query failed", Err: err}
		}
	}
	return entity.Classify("query "+table, err)
}
