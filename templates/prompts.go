package templates

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"airline-assistant-service/internal/domain/entity"
)

// PromptData is the input shared by every prompt template
type PromptData struct {
	Question     string
	Conversation string
	Today        string
	Identifier   string
	Context      string
	Labels       []string
}

const classifierSystem = `You route messages for an airline customer-service assistant.
Reply with exactly one label and nothing else. Labels:
- reservation_query: status or details of an existing booking (usually mentions a PNR)
- reservation_cancel: the user wants to cancel an existing booking
- reservation_book: the user wants to book a new flight or is providing booking details
- schedule_query: flight schedules, status, delays, availability, seats, fares or routes
- policy_query: baggage, refund, cancellation or other airline policy questions
- time_query: the current time or date
- unknown: none of the above`

const classifierPrompt = `Examples:
User: What is the status of PNR AB12CD?
Label: reservation_query
User: Please cancel my booking XY34ZW
Label: reservation_cancel
User: Cancel my old ticket and book a new one to Goa
Label: reservation_cancel
User: My name is Arjun, travel 10 days from now on flight AI101 from Chennai to Delhi
Label: reservation_book
User: What flights go from Mumbai to Delhi?
Label: schedule_query
User: Is flight AI202 delayed?
Label: schedule_query
User: How much checked baggage can I carry?
Label: policy_query
User: What time is it now?
Label: time_query

Conversation so far:
{{.Conversation}}

Latest user message: {{.Question}}
Label:`

const reservationSQLSystem = `You are a PostgreSQL expert. Given a request, return one syntactically correct PostgreSQL SELECT query to run and nothing else.
Never query for all columns from a table. You must query only the columns needed to answer the question.
Wrap each column name in double quotes (") to denote them as delimited identifiers.
Only use the "Flight_reservation" table. Its columns are "PNR_Number", "Customer_Name", "Flight_ID",
"Airline", "From_City", "To_City", "Departure_Time", "Arrival_Time", "Travel_Date", "Booking_Date",
"Booking_Status", "Refund_Status".
Always filter by "PNR_Number". Do not return new columns nor perform aggregation unless specifically asked.
Never generate INSERT, UPDATE or DELETE statements.`

const reservationSQLPrompt = `Use the following format:

Request: Request here
SQLQuery: Generated SQL Query here

Request: What is the booking status of PNR AB12CD?
SQLQuery: SELECT "PNR_Number", "Booking_Status", "Refund_Status" FROM "Flight_reservation" WHERE "PNR_Number" = 'AB12CD';

Request: When does my flight for PNR XY34ZW depart?
SQLQuery: SELECT "PNR_Number", "Flight_ID", "Departure_Time", "Travel_Date", "Booking_Status" FROM "Flight_reservation" WHERE "PNR_Number" = 'XY34ZW';

Request: {{.Question}} (PNR {{.Identifier}})
SQLQuery:`

const scheduleSQLSystem = `You are a PostgreSQL expert specialized in airline flight schedules. Analyze the conversation and generate one SELECT query for the latest request and nothing else.
Rules:
1. For flight-specific information (schedule, status, delay), the Flight ID is required in the WHERE clause.
2. For flights between cities, use "From_city" and "To_city" in the WHERE clause.
3. Always use the table "Flight_availability_and_schedule" and wrap every column in double quotes.
4. Available columns: "Flight_ID", "Airline", "From_airport", "To_airport", "Departure_Time",
   "Flight_duration", "Arrival_Time", "From_city", "To_city", "From_airport_code",
   "To_airport_code", "From_country", "To_country", "Departure_days_of_week",
   "Status", "Delay", "available_seats", "total_seats", "seat_availability_status", "price".
5. Never select all columns and never aggregate unless the user asks for a count, total or average.`

const scheduleSQLPrompt = `Example 1: flight status
User: Is flight AI101 on time?
SQLQuery: SELECT "Flight_ID", "Status", "Departure_Time", "Arrival_Time", "Delay" FROM "Flight_availability_and_schedule" WHERE "Flight_ID" = 'AI101';

Example 2: flights between cities
User: Show flights from Mumbai to Delhi
SQLQuery: SELECT "Flight_ID", "Airline", "Departure_Time", "Arrival_Time", "available_seats", "price" FROM "Flight_availability_and_schedule" WHERE "From_city" = 'Mumbai' AND "To_city" = 'Delhi';

Example 3: available seats
User: What flights are available from Bangalore to Delhi tomorrow?
SQLQuery: SELECT "Flight_ID", "Airline", "Departure_Time", "Arrival_Time", "available_seats", "price" FROM "Flight_availability_and_schedule" WHERE "From_city" = 'Bangalore' AND "To_city" = 'Delhi' AND "available_seats" > 0;

Conversation:
{{.Conversation}}
SQLQuery:`

const bookingExtractSystem = `You extract flight booking details from a conversation. Today is {{.Today}}.
Reply with a single JSON object and nothing else, using exactly these keys:
"Customer_Name", "From_City", "To_City", "Travel_Date", "Flight_ID".
"Travel_Date" must be an absolute date in YYYY-MM-DD format; resolve relative dates such as
"10 days from now" against today. Use an empty string for any value the user has not given.
Never invent values.`

const bookingExtractPrompt = `Conversation:
{{.Conversation}}
JSON:`

const policyAnswerSystem = `You are an assistant for airline customer-service question-answering tasks.
Use the following pieces of retrieved context to answer the question. If you don't know the answer, say that you don't know.
Keep the answer concise. Always provide the citation (the source in square brackets) for the context you used.
Always say "Let me know if you need further help" at the end of the answer.`

const policyAnswerPrompt = `Context:
{{.Context}}

Question: {{.Question}}
Answer:`

// Prompt is a system instruction plus a user prompt template
type Prompt struct {
	Name   string
	system *template.Template
	user   *template.Template
}

func newPrompt(name, system, user string) *Prompt {
	return &Prompt{
		Name:   name,
		system: template.Must(template.New(name + "_system").Parse(system)),
		user:   template.Must(template.New(name).Parse(user)),
	}
}

// Render executes both templates
func (p *Prompt) Render(data PromptData) (system string, user string, err error) {
	var sb, ub bytes.Buffer
	if err := p.system.Execute(&sb, data); err != nil {
		return "", "", fmt.Errorf("render %s system prompt: %w", p.Name, err)
	}
	if err := p.user.Execute(&ub, data); err != nil {
		return "", "", fmt.Errorf("render %s prompt: %w", p.Name, err)
	}
	return sb.String(), ub.String(), nil
}

// Prompts used by the assistant
var (
	ClassifierPrompt     = newPrompt("classifier", classifierSystem, classifierPrompt)
	ReservationSQLPrompt = newPrompt("reservation_sql", reservationSQLSystem, reservationSQLPrompt)
	ScheduleSQLPrompt    = newPrompt("schedule_sql", scheduleSQLSystem, scheduleSQLPrompt)
	BookingExtractPrompt = newPrompt("booking_extract", bookingExtractSystem, bookingExtractPrompt)
	PolicyAnswerPrompt   = newPrompt("policy_answer", policyAnswerSystem, policyAnswerPrompt)
)

// FormatConversation renders messages as "User: ..." / "Assistant: ..." lines, oldest first
func FormatConversation(messages []entity.Message) string {
	lines := make([]string, 0, len(messages))
	for _, m := range messages {
		speaker := "User"
		if m.Role == entity.RoleAssistant {
			speaker = "Assistant"
		}
		lines = append(lines, speaker+": "+strings.TrimSpace(m.Content))
	}
	return strings.Join(lines, "\n")
}

// FormatPassages renders retrieved passages with their source for citation
func FormatPassages(passages []entity.Passage) string {
	parts := make([]string, 0, len(passages))
	for _, p := range passages {
		parts = append(parts, fmt.Sprintf("[%s] %s", p.Source, strings.TrimSpace(p.Text)))
	}
	return strings.Join(parts, "\n\n")
}
