package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"airline-assistant-service/internal/domain/entity"
	"airline-assistant-service/internal/infrastructure/persistence"
	"airline-assistant-service/internal/usecase"
	"airline-assistant-service/pkg/logger"
	"airline-assistant-service/pkg/utils"
)

var ist = time.FixedZone("IST", 5*3600+30*60)

// fixedNow is a Sunday morning in India
var fixedNow = time.Date(2026, 10, 18, 10, 0, 0, 0, ist)

func fixedClock() usecase.Clock {
	return func() time.Time { return fixedNow }
}

func nopLogger() logger.Logger {
	return logger.NewNopLogger()
}

func newParser() *utils.UtteranceParser {
	return utils.NewUtteranceParser(ist, nopLogger())
}

// newTestDB opens a private in-memory SQLite database with the migrations and seeded
// flight schedule applied
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, persistence.Migrate(context.Background(), db, goose.DialectSQLite3, nopLogger()))
	return db
}

func confirmedReservation(pnr string) *entity.Reservation {
	return &entity.Reservation{
		PNR:           pnr,
		CustomerName:  "Arjun",
		FlightID:      "AI101",
		Airline:       "Air India",
		FromCity:      "Chennai",
		ToCity:        "Delhi",
		DepartureTime: "06:00",
		ArrivalTime:   "08:45",
		TravelDate:    time.Date(2026, 10, 28, 0, 0, 0, 0, time.UTC),
		BookingDate:   time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC),
		BookingStatus: entity.BookingStatusConfirmed,
		RefundStatus:  entity.RefundStatusNotApplicable,
	}
}

func fixedPNR(pnr string) func() string {
	return func() string { return pnr }
}

// requireKind asserts err is a CapabilityError of kind and returns it
func requireKind(t *testing.T, err error, kind entity.ErrorKind) *entity.CapabilityError {
	t.Helper()
	require.Error(t, err)
	var ce *entity.CapabilityError
	require.True(t, errors.As(err, &ce), "expected CapabilityError, got %T: %v", err, err)
	require.Equal(t, kind, ce.Kind, ce.Error())
	return ce
}
