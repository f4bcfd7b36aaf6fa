package mock

import (
	"context"
	"sync"

	"airline-assistant-service/internal/domain/entity"
	"airline-assistant-service/internal/domain/repository"
)

// Interface compliance checks.
var (
	_ repository.ReservationRepository  = (*ReservationRepository)(nil)
	_ repository.ScheduleRepository     = (*ScheduleRepository)(nil)
	_ repository.QueryRepository        = (*QueryRepository)(nil)
	_ repository.ConversationRepository = (*ConversationRepository)(nil)
)

// ReservationRepository is a test double for repository.ReservationRepository.
// Every method counts its calls so tests can assert that no store access happened.
type ReservationRepository struct {
	FindByPNRFn       func(ctx context.Context, pnr string) (*entity.Reservation, error)
	CreateFn          func(ctx context.Context, reservation *entity.Reservation, generate repository.PNRGenerator) error
	CancelConfirmedFn func(ctx context.Context, pnr string) (bool, error)

	mu     sync.Mutex
	finds  int
	writes int
}

// FindByPNR delegates to FindByPNRFn.
func (r *ReservationRepository) FindByPNR(ctx context.Context, pnr string) (*entity.Reservation, error) {
	r.mu.Lock()
	r.finds++
	r.mu.Unlock()
	return r.FindByPNRFn(ctx, pnr)
}

// Create delegates to CreateFn.
func (r *ReservationRepository) Create(ctx context.Context, reservation *entity.Reservation, generate repository.PNRGenerator) error {
	r.mu.Lock()
	r.writes++
	r.mu.Unlock()
	return r.CreateFn(ctx, reservation, generate)
}

// CancelConfirmed delegates to CancelConfirmedFn.
func (r *ReservationRepository) CancelConfirmed(ctx context.Context, pnr string) (bool, error) {
	r.mu.Lock()
	r.writes++
	r.mu.Unlock()
	return r.CancelConfirmedFn(ctx, pnr)
}

// Reads returns the number of FindByPNR calls.
func (r *ReservationRepository) Reads() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.finds
}

// Writes returns the number of Create and CancelConfirmed calls.
func (r *ReservationRepository) Writes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writes
}

// ScheduleRepository is a test double for repository.ScheduleRepository.
type ScheduleRepository struct {
	FindByFlightIDFn func(ctx context.Context, flightID string) (*entity.FlightScheduleEntry, error)
	FindByRouteFn    func(ctx context.Context, fromCity, toCity string) ([]entity.FlightScheduleEntry, error)
}

// FindByFlightID delegates to FindByFlightIDFn.
func (s *ScheduleRepository) FindByFlightID(ctx context.Context, flightID string) (*entity.FlightScheduleEntry, error) {
	return s.FindByFlightIDFn(ctx, flightID)
}

// FindByRoute delegates to FindByRouteFn.
func (s *ScheduleRepository) FindByRoute(ctx context.Context, fromCity, toCity string) ([]entity.FlightScheduleEntry, error) {
	return s.FindByRouteFn(ctx, fromCity, toCity)
}

// QueryRepository is a test double for repository.QueryRepository.
type QueryRepository struct {
	RunReadOnlyFn func(ctx context.Context, query string) (*entity.QueryResult, error)

	mu      sync.Mutex
	queries []string
}

// RunReadOnly delegates to RunReadOnlyFn and records the query.
func (q *QueryRepository) RunReadOnly(ctx context.Context, query string) (*entity.QueryResult, error) {
	q.mu.Lock()
	q.queries = append(q.queries, query)
	q.mu.Unlock()
	return q.RunReadOnlyFn(ctx, query)
}

// Queries returns the statements passed to RunReadOnly, in order.
func (q *QueryRepository) Queries() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]string(nil), q.queries...)
}

// ConversationRepository is a test double for repository.ConversationRepository.
type ConversationRepository struct {
	GetFn    func(ctx context.Context, id string) (*entity.Conversation, error)
	SaveFn   func(ctx context.Context, conversation *entity.Conversation) error
	DeleteFn func(ctx context.Context, id string) error
	PingFn   func(ctx context.Context) error
}

// Get delegates to GetFn.
func (c *ConversationRepository) Get(ctx context.Context, id string) (*entity.Conversation, error) {
	return c.GetFn(ctx, id)
}

// Save delegates to SaveFn.
func (c *ConversationRepository) Save(ctx context.Context, conversation *entity.Conversation) error {
	return c.SaveFn(ctx, conversation)
}

// Delete delegates to DeleteFn.
func (c *ConversationRepository) Delete(ctx context.Context, id string) error {
	return c.DeleteFn(ctx, id)
}

// Ping delegates to PingFn.
func (c *ConversationRepository) Ping(ctx context.Context) error {
	return c.PingFn(ctx)
}
