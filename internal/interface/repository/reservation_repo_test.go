package repository

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airline-assistant-service/internal/domain/entity"
	"airline-assistant-service/pkg/utils"
)

func sampleReservation() *entity.Reservation {
	return &entity.Reservation{
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

func TestGormReservationRepository_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewGormReservationRepository(newTestDB(t))

	res := sampleReservation()
	require.NoError(t, repo.Create(ctx, res, utils.GeneratePNR))
	assert.Regexp(t, regexp.MustCompile(`^[A-Z0-9]{6}$`), res.PNR)

	got, err := repo.FindByPNR(ctx, res.PNR)
	require.NoError(t, err)
	assert.Equal(t, res.PNR, got.PNR)
	assert.Equal(t, "Arjun", got.CustomerName)
	assert.Equal(t, "AI101", got.FlightID)
	assert.Equal(t, "Air India", got.Airline)
	assert.Equal(t, "Chennai", got.FromCity)
	assert.Equal(t, "Delhi", got.ToCity)
	assert.Equal(t, "06:00", got.DepartureTime)
	assert.Equal(t, "08:45", got.ArrivalTime)
	assert.Equal(t, "2026-10-28", got.TravelDate.Format(utils.DATE_LAYOUT))
	assert.Equal(t, "2026-10-18", got.BookingDate.Format(utils.DATE_LAYOUT))
	assert.Equal(t, entity.BookingStatusConfirmed, got.BookingStatus)
	assert.Equal(t, entity.RefundStatusNotApplicable, got.RefundStatus)
}

func TestGormReservationRepository_FindByPNRNotFound(t *testing.T) {
	repo := NewGormReservationRepository(newTestDB(t))

	_, err := repo.FindByPNR(context.Background(), "ZZ99ZZ")
	require.Error(t, err)
	assert.Equal(t, entity.ErrNotFound, entity.KindOf(err))
}

func TestGormReservationRepository_CreateRegeneratesOnCollision(t *testing.T) {
	ctx := context.Background()
	repo := NewGormReservationRepository(newTestDB(t))

	first := sampleReservation()
	require.NoError(t, repo.Create(ctx, first, func() string { return "AA11AA" }))

	candidates := []string{"AA11AA", "AA11AA", "BB22BB"}
	calls := 0
	gen := func() string {
		c := candidates[calls]
		calls++
		return c
	}

	second := sampleReservation()
	require.NoError(t, repo.Create(ctx, second, gen))
	assert.Equal(t, "BB22BB", second.PNR)
	assert.Equal(t, 3, calls)
}

func TestGormReservationRepository_CreateGivesUpAfterMaxAttempts(t *testing.T) {
	ctx := context.Background()
	repo := NewGormReservationRepository(newTestDB(t))

	require.NoError(t, repo.Create(ctx, sampleReservation(), func() string { return "AA11AA" }))

	res := sampleReservation()
	err := repo.Create(ctx, res, func() string { return "AA11AA" })
	assert.ErrorIs(t, err, ErrPNRSpaceExhausted)
	assert.Empty(t, res.PNR)
}

func TestGormReservationRepository_CancelConfirmed(t *testing.T) {
	ctx := context.Background()
	repo := NewGormReservationRepository(newTestDB(t))

	res := sampleReservation()
	require.NoError(t, repo.Create(ctx, res, utils.GeneratePNR))

	changed, err := repo.CancelConfirmed(ctx, res.PNR)
	require.NoError(t, err)
	assert.True(t, changed)

	got, err := repo.FindByPNR(ctx, res.PNR)
	require.NoError(t, err)
	assert.Equal(t, entity.BookingStatusCancelled, got.BookingStatus)
	assert.Equal(t, entity.RefundStatusRefunded, got.RefundStatus)

	changed, err = repo.CancelConfirmed(ctx, res.PNR)
	require.NoError(t, err)
	assert.False(t, changed, "a cancelled booking is never updated again")

	changed, err = repo.CancelConfirmed(ctx, "ZZ99ZZ")
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestGormReservationRepository_ConcurrentCancelSucceedsOnce(t *testing.T) {
	ctx := context.Background()
	repo := NewGormReservationRepository(newTestDB(t))

	res := sampleReservation()
	require.NoError(t, repo.Create(ctx, res, utils.GeneratePNR))

	const workers = 8
	var wg sync.WaitGroup
	results := make(chan bool, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			changed, err := repo.CancelConfirmed(ctx, res.PNR)
			assert.NoError(t, err)
			results <- changed
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for changed := range results {
		if changed {
			succeeded++
		}
	}
	assert.Equal(t, 1, succeeded)
}
