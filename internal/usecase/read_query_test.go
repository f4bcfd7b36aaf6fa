package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airline-assistant-service/internal/domain/entity"
	repo "airline-assistant-service/internal/interface/repository"
	"airline-assistant-service/internal/mock"
	"airline-assistant-service/internal/usecase"
)

func sqlOracle(sql string) *mock.Oracle {
	return &mock.Oracle{
		GenerateFn: func(ctx context.Context, system, prompt string) (string, error) {
			return sql, nil
		},
	}
}

func TestReadQueryCapability_Schedule(t *testing.T) {
	t.Run("flights between cities", func(t *testing.T) {
		oracle := sqlOracle("```sql\nSELECT \"Flight_ID\", \"Airline\", \"Departure_Time\" FROM \"Flight_availability_and_schedule\" " +
			"WHERE \"From_city\" = 'Mumbai' AND \"To_city\" = 'Delhi' ORDER BY \"Departure_Time\";\n```")
		queries := &mock.QueryRepository{RunReadOnlyFn: repo.NewGormQueryRepository(newTestDB(t)).RunReadOnly}
		c := usecase.NewReadQueryCapability(usecase.ScheduleQuerySpec(), oracle, queries, 10, nopLogger())

		result, err := c.Invoke(context.Background(), entity.CapabilityRequest{Text: "What flights go from Mumbai to Delhi"})
		require.NoError(t, err)
		require.Len(t, result.Query.Rows, 2)
		assert.Equal(t, []string{"Flight_ID", "Airline", "Departure_Time"}, result.Query.Columns)
		assert.Equal(t, "AI202", result.Query.Rows[0][0])
		assert.Equal(t, "UK303", result.Query.Rows[1][0])
		assert.Contains(t, result.Text, "Flight_ID | Airline | Departure_Time")
		assert.NotContains(t, result.SQL, "*")
		assert.NotContains(t, result.SQL, "COUNT")
		assert.False(t, result.Mutated)
	})

	t.Run("missing flight and route", func(t *testing.T) {
		oracle := sqlOracle("")
		queries := &mock.QueryRepository{}
		c := usecase.NewReadQueryCapability(usecase.ScheduleQuerySpec(), oracle, queries, 10, nopLogger())

		_, err := c.Invoke(context.Background(), entity.CapabilityRequest{Text: "Is my flight on time?"})
		ce := requireKind(t, err, entity.ErrMissingIdentifier)
		assert.Equal(t, entity.FieldFlightOrRoute, ce.Field)
		assert.Equal(t, 0, oracle.Calls())
		assert.Empty(t, queries.Queries())
	})

	t.Run("query that ignores the route is rejected", func(t *testing.T) {
		oracle := sqlOracle(`SELECT "Flight_ID" FROM "Flight_availability_and_schedule"`)
		queries := &mock.QueryRepository{}
		c := usecase.NewReadQueryCapability(usecase.ScheduleQuerySpec(), oracle, queries, 10, nopLogger())

		_, err := c.Invoke(context.Background(), entity.CapabilityRequest{Text: "Show flights from Mumbai to Delhi"})
		requireKind(t, err, entity.ErrMalformedGeneration)
		assert.Empty(t, queries.Queries())
	})

	t.Run("no rows", func(t *testing.T) {
		oracle := sqlOracle(`SELECT "Flight_ID", "Status" FROM "Flight_availability_and_schedule" WHERE "Flight_ID" = 'ZZ999'`)
		queries := &mock.QueryRepository{RunReadOnlyFn: repo.NewGormQueryRepository(newTestDB(t)).RunReadOnly}
		c := usecase.NewReadQueryCapability(usecase.ScheduleQuerySpec(), oracle, queries, 10, nopLogger())

		_, err := c.Invoke(context.Background(), entity.CapabilityRequest{Text: "Is flight ZZ999 on time?"})
		ce := requireKind(t, err, entity.ErrNotFound)
		assert.Contains(t, ce.Message, "ZZ999")
	})
}

func TestReadQueryCapability_Reservation(t *testing.T) {
	t.Run("missing PNR never reaches the model or the store", func(t *testing.T) {
		oracle := sqlOracle("")
		queries := &mock.QueryRepository{}
		c := usecase.NewReadQueryCapability(usecase.ReservationQuerySpec(), oracle, queries, 10, nopLogger())

		_, err := c.Invoke(context.Background(), entity.CapabilityRequest{Text: "What is the status of my booking?"})
		ce := requireKind(t, err, entity.ErrMissingIdentifier)
		assert.Equal(t, entity.FieldPNR, ce.Field)
		assert.Equal(t, 0, oracle.Calls())
		assert.Empty(t, queries.Queries())
	})

	t.Run("status of a stored booking", func(t *testing.T) {
		ctx := context.Background()
		db := newTestDB(t)
		require.NoError(t, repo.NewGormReservationRepository(db).Create(ctx, confirmedReservation(""), fixedPNR("AB12CD")))

		oracle := sqlOracle(`SQLQuery: SELECT "PNR_Number", "Booking_Status" FROM "Flight_reservation" WHERE "PNR_Number" = 'AB12CD';`)
		queries := &mock.QueryRepository{RunReadOnlyFn: repo.NewGormQueryRepository(db).RunReadOnly}
		c := usecase.NewReadQueryCapability(usecase.ReservationQuerySpec(), oracle, queries, 10, nopLogger())

		result, err := c.Invoke(ctx, entity.CapabilityRequest{Text: "What is the status of PNR AB12CD?"})
		require.NoError(t, err)
		assert.Equal(t, [][]string{{"AB12CD", "Confirmed"}}, result.Query.Rows)
		assert.Contains(t, oracle.Prompts()[0], "(PNR AB12CD)")
	})

	t.Run("mutating SQL is rejected before execution", func(t *testing.T) {
		oracle := sqlOracle(`UPDATE "Flight_reservation" SET "Booking_Status" = 'Cancelled' WHERE "PNR_Number" = 'AB12CD'`)
		queries := &mock.QueryRepository{}
		c := usecase.NewReadQueryCapability(usecase.ReservationQuerySpec(), oracle, queries, 10, nopLogger())

		_, err := c.Invoke(context.Background(), entity.CapabilityRequest{Text: "What is the status of PNR AB12CD?"})
		requireKind(t, err, entity.ErrMalformedGeneration)
		assert.Empty(t, queries.Queries())
	})

	t.Run("query for another PNR is rejected", func(t *testing.T) {
		oracle := sqlOracle(`SELECT "Booking_Status" FROM "Flight_reservation" WHERE "PNR_Number" = 'ZZ99ZZ'`)
		queries := &mock.QueryRepository{}
		c := usecase.NewReadQueryCapability(usecase.ReservationQuerySpec(), oracle, queries, 10, nopLogger())

		_, err := c.Invoke(context.Background(), entity.CapabilityRequest{Text: "What is the status of PNR AB12CD?"})
		requireKind(t, err, entity.ErrMalformedGeneration)
		assert.Empty(t, queries.Queries())
	})

	t.Run("model failure", func(t *testing.T) {
		oracle := &mock.Oracle{
			GenerateFn: func(ctx context.Context, system, prompt string) (string, error) {
				return "", errors.New("503 service unavailable")
			},
		}
		c := usecase.NewReadQueryCapability(usecase.ReservationQuerySpec(), oracle, &mock.QueryRepository{}, 10, nopLogger())

		_, err := c.Invoke(context.Background(), entity.CapabilityRequest{Text: "What is the status of PNR AB12CD?"})
		requireKind(t, err, entity.ErrUpstreamUnavailable)
	})

	t.Run("store failure", func(t *testing.T) {
		oracle := sqlOracle(`SELECT "Booking_Status" FROM "Flight_reservation" WHERE "PNR_Number" = 'AB12CD'`)
		queries := &mock.QueryRepository{
			RunReadOnlyFn: func(ctx context.Context, query string) (*entity.QueryResult, error) {
				return nil, errors.New("dial tcp: connection refused")
			},
		}
		c := usecase.NewReadQueryCapability(usecase.ReservationQuerySpec(), oracle, queries, 10, nopLogger())

		_, err := c.Invoke(context.Background(), entity.CapabilityRequest{Text: "What is the status of PNR AB12CD?"})
		requireKind(t, err, entity.ErrUpstreamUnavailable)
	})
}
