package usecase

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"airline-assistant-service/internal/domain/entity"
	"airline-assistant-service/internal/domain/repository"
	"airline-assistant-service/pkg/logger"
	"airline-assistant-service/pkg/metrics"
	"airline-assistant-service/pkg/utils"
)

const confirmationPrompt = "Do you want to proceed with cancelling PNR %s? (yes/no)"

var confirmationRegex = regexp.MustCompile(`Do you want to proceed with cancelling PNR ([A-Z0-9]{6})\?`)

// CancellationOutcome is the result of answering a pending cancellation
type CancellationOutcome struct {
	State  entity.CancellationState
	Result *entity.CapabilityResult
	Err    error

	// Consumed is false when the utterance was not an answer to the confirmation and
	// should be routed as a new request
	Consumed bool
}

// CancellationMachine implements the check-status, confirm, cancel protocol.
// CancelConfirmed is only ever called from Resolve.
type CancellationMachine struct {
	reservations  repository.ReservationRepository
	retriever     repository.Retriever
	topK          int
	defaultPolicy string
	ttl           time.Duration
	clock         Clock
	metrics       *metrics.Metrics
	logger        logger.Logger
}

// CancellationOptions configures a CancellationMachine
type CancellationOptions struct {
	// Retriever supplies refund terms. When nil or empty DefaultPolicy is shown.
	Retriever     repository.Retriever
	TopK          int
	DefaultPolicy string
	// TTL is how long a confirmation stays valid. Zero disables expiry.
	TTL     time.Duration
	Clock   Clock
	Metrics *metrics.Metrics
}

// NewCancellationMachine creates the cancellation protocol
func NewCancellationMachine(reservations repository.ReservationRepository, opts CancellationOptions, logger logger.Logger) *CancellationMachine {
	if opts.TopK <= 0 {
		opts.TopK = 1
	}
	return &CancellationMachine{
		reservations:  reservations,
		retriever:     opts.Retriever,
		topK:          opts.TopK,
		defaultPolicy: opts.DefaultPolicy,
		ttl:           opts.TTL,
		clock:         opts.Clock,
		metrics:       opts.Metrics,
		logger:        logger,
	}
}

// Begin checks the booking status and, for a confirmed booking, asks for confirmation.
// A failed status read fails closed.
func (m *CancellationMachine) Begin(ctx context.Context, req entity.CapabilityRequest) (*entity.PendingCancellation, *entity.CapabilityResult, error) {
	pnr, ok := utils.ExtractPNR(req.Text)
	if !ok {
		pnr, ok = utils.ExtractPNRFromHistory(allTexts(entity.CapabilityRequest{History: req.History}))
	}
	if !ok {
		return nil, nil, entity.NewMissingIdentifier(entity.FieldPNR)
	}

	reservation, err := m.reservations.FindByPNR(ctx, pnr)
	if err != nil {
		return nil, nil, entity.Classify("reservation status check", err)
	}

	if reservation.BookingStatus != entity.BookingStatusConfirmed {
		m.observe("already_cancelled")
		return nil, nil, notCancellable(reservation)
	}

	pending := &entity.PendingCancellation{
		PNR:        pnr,
		State:      entity.CancellationAwaitingConfirmation,
		Snapshot:   *reservation,
		PolicyText: m.policy(ctx),
		CreatedAt:  m.clock.now(),
	}
	m.logger.Info("Awaiting cancellation confirmation", "pnr", pnr, "conversationID", req.ConversationID)

	text := statusSummary(reservation) + "\n\nCancellation policy: " + pending.PolicyText +
		"\n\n" + fmt.Sprintf(confirmationPrompt, pnr)
	return pending, &entity.CapabilityResult{
		Intent:      entity.IntentReservationCancel,
		Text:        text,
		Reservation: reservation,
		Pending:     pending,
	}, nil
}

// Resolve interprets the user's answer to a pending confirmation
func (m *CancellationMachine) Resolve(ctx context.Context, pending *entity.PendingCancellation, utterance string) CancellationOutcome {
	if pending.Expired(m.clock.now(), m.ttl) {
		m.logger.Info("Cancellation confirmation expired", "pnr", pending.PNR)
		m.observe("expired")
		if !isConfirmationAnswer(utterance) {
			return CancellationOutcome{State: entity.CancellationAbandoned}
		}
		return CancellationOutcome{
			State: entity.CancellationAbandoned,
			Result: &entity.CapabilityResult{
				Intent: entity.IntentReservationCancel,
				Text: fmt.Sprintf("The confirmation for cancelling PNR %s has expired and nothing was changed. "+
					"Please ask again if you still want to cancel.", pending.PNR),
			},
			Consumed: true,
		}
	}

	switch {
	case utils.IsAffirmative(utterance):
		changed, err := m.reservations.CancelConfirmed(ctx, pending.PNR)
		if err != nil {
			m.logger.Error("Failed to cancel reservation", "pnr", pending.PNR, "error", err)
			return CancellationOutcome{
				State:    entity.CancellationAwaitingConfirmation,
				Err:      entity.Classify("cancel reservation", err),
				Consumed: true,
			}
		}
		if !changed {
			m.observe("already_cancelled")
			return CancellationOutcome{
				State:    entity.CancellationAlreadyCancelled,
				Err:      entity.NewAlreadyInTargetState(fmt.Sprintf("PNR %s has already been cancelled.", pending.PNR)),
				Consumed: true,
			}
		}

		m.observe("cancelled")
		m.logger.Info("Reservation cancelled", "pnr", pending.PNR)
		updated := pending.Snapshot
		updated.BookingStatus = entity.BookingStatusCancelled
		updated.RefundStatus = entity.RefundStatusRefunded
		return CancellationOutcome{
			State: entity.CancellationCancelled,
			Result: &entity.CapabilityResult{
				Intent: entity.IntentReservationCancel,
				Text: fmt.Sprintf("PNR %s has been cancelled. Booking status: %s. Refund status: %s.",
					pending.PNR, updated.BookingStatus, updated.RefundStatus),
				Reservation: &updated,
				Mutated:     true,
			},
			Consumed: true,
		}

	case utils.IsNegative(utterance):
		m.observe("declined")
		return CancellationOutcome{
			State: entity.CancellationAbandoned,
			Result: &entity.CapabilityResult{
				Intent: entity.IntentReservationCancel,
				Text:   fmt.Sprintf("Okay, I have not cancelled PNR %s. Your booking remains %s.", pending.PNR, pending.Snapshot.BookingStatus),
			},
			Consumed: true,
		}
	}

	m.observe("abandoned")
	return CancellationOutcome{State: entity.CancellationAbandoned}
}

// Invoke runs the protocol without server-side state: an affirmative or negative reply
// to a confirmation prompt in the history resolves it, anything else begins anew.
func (m *CancellationMachine) Invoke(ctx context.Context, req entity.CapabilityRequest) (*entity.CapabilityResult, error) {
	if isConfirmationAnswer(req.Text) {
		pending, err := m.RecoverPending(ctx, req.History)
		if err != nil {
			return nil, err
		}
		if pending != nil {
			outcome := m.Resolve(ctx, pending, req.Text)
			if outcome.Consumed {
				return outcome.Result, outcome.Err
			}
		}
	}
	_, result, err := m.Begin(ctx, req)
	return result, err
}

// RecoverPending rebuilds a pending cancellation from the last assistant message.
// It returns nil, nil when no confirmation was asked. The booking status is read again
// and must still be Confirmed; a failed read fails closed.
func (m *CancellationMachine) RecoverPending(ctx context.Context, history []entity.Message) (*entity.PendingCancellation, error) {
	conv := entity.Conversation{Messages: history}
	last, ok := conv.LastAssistant()
	if !ok {
		return nil, nil
	}
	match := confirmationRegex.FindStringSubmatch(last.Content)
	if match == nil {
		return nil, nil
	}
	pnr := match[1]

	reservation, err := m.reservations.FindByPNR(ctx, pnr)
	if err != nil {
		return nil, entity.Classify("reservation status check", err)
	}
	if reservation.BookingStatus != entity.BookingStatusConfirmed {
		m.observe("already_cancelled")
		return nil, notCancellable(reservation)
	}

	createdAt := last.Timestamp
	if createdAt.IsZero() {
		createdAt = m.clock.now()
	}
	return &entity.PendingCancellation{
		PNR:       pnr,
		State:     entity.CancellationAwaitingConfirmation,
		Snapshot:  *reservation,
		CreatedAt: createdAt,
	}, nil
}

func (m *CancellationMachine) policy(ctx context.Context) string {
	if m.retriever == nil {
		return m.defaultPolicy
	}
	passages, err := m.retriever.Retrieve(ctx, "cancellation and refund policy", m.topK)
	if err != nil {
		m.logger.Warn("Falling back to default cancellation policy", "error", err)
		return m.defaultPolicy
	}
	if len(passages) == 0 {
		return m.defaultPolicy
	}
	texts := make([]string, 0, len(passages))
	for _, p := range passages {
		texts = append(texts, strings.TrimSpace(p.Text))
	}
	return strings.Join(texts, " ")
}

func (m *CancellationMachine) observe(outcome string) {
	if m.metrics != nil {
		m.metrics.Cancellations.WithLabelValues(outcome).Inc()
	}
}

func notCancellable(r *entity.Reservation) error {
	return entity.NewAlreadyInTargetState(fmt.Sprintf(
		"PNR %s is already %s and cannot be cancelled again. Refund status: %s.",
		r.PNR, strings.ToLower(r.BookingStatus), r.RefundStatus))
}

func isConfirmationAnswer(text string) bool {
	return utils.IsAffirmative(text) || utils.IsNegative(text)
}

func statusSummary(r *entity.Reservation) string {
	return fmt.Sprintf("PNR %s: %s, flight %s from %s to %s on %s.\nBooking status: %s. Refund status: %s.",
		r.PNR, r.CustomerName, r.FlightID, r.FromCity, r.ToCity,
		r.TravelDate.Format(utils.DATE_LAYOUT), r.BookingStatus, r.RefundStatus)
}
