package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"airline-assistant-service/internal/domain/entity"
	"airline-assistant-service/internal/domain/repository"
	"airline-assistant-service/pkg/logger"
	"airline-assistant-service/pkg/metrics"
)

// TurnResult is the outcome of one conversation turn
type TurnResult struct {
	ConversationID string
	Answer         string
	Intent         entity.CapabilityIntent
	Kind           entity.ErrorKind
	Mutated        bool
	Result         *entity.CapabilityResult
}

// AgentOptions configures an Agent
type AgentOptions struct {
	Conversations repository.ConversationRepository
	Registry      *Registry
	Classifier    *Classifier
	// Cancellation keeps the confirmation state on the conversation. Leave nil when
	// reservation_cancel is served by a remote capability.
	Cancellation *CancellationMachine
	Composer     *Composer
	// Timeout bounds every capability invocation
	Timeout time.Duration
	// Window is the number of recent messages passed to capabilities
	Window  int
	Clock   Clock
	Metrics *metrics.Metrics
}

// Agent routes each user turn to a capability and records the exchange
type Agent struct {
	conversations repository.ConversationRepository
	registry      *Registry
	classifier    *Classifier
	cancellation  *CancellationMachine
	composer      *Composer
	timeout       time.Duration
	window        int
	clock         Clock
	metrics       *metrics.Metrics
	logger        logger.Logger
	locks         *keyedMutex
}

// NewAgent creates a new agent
func NewAgent(opts AgentOptions, logger logger.Logger) *Agent {
	if opts.Composer == nil {
		opts.Composer = NewComposer(logger)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Window <= 0 {
		opts.Window = 20
	}
	return &Agent{
		conversations: opts.Conversations,
		registry:      opts.Registry,
		classifier:    opts.Classifier,
		cancellation:  opts.Cancellation,
		composer:      opts.Composer,
		timeout:       opts.Timeout,
		window:        opts.Window,
		clock:         opts.Clock,
		metrics:       opts.Metrics,
		logger:        logger,
		locks:         newKeyedMutex(),
	}
}

// HandleTurn processes one user utterance. Capability failures become assistant
// messages; only conversation store failures are returned as errors.
func (a *Agent) HandleTurn(ctx context.Context, conversationID, utterance string) (*TurnResult, error) {
	if conversationID == "" {
		conversationID = "conv_" + uuid.NewString()
	}
	unlock := a.locks.Lock(conversationID)
	defer unlock()

	now := a.clock.now()
	conv, err := a.conversations.Get(ctx, conversationID)
	if errors.Is(err, repository.ErrConversationNotFound) {
		conv = entity.NewConversation(conversationID, now)
	} else if err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}

	history := conv.Recent(a.window)
	conv.Append(entity.RoleUser, utterance, now)
	req := entity.CapabilityRequest{
		Text:           utterance,
		History:        history,
		ConversationID: conversationID,
	}

	var (
		intent  entity.CapabilityIntent
		result  *entity.CapabilityResult
		capErr  error
		handled bool
	)

	if conv.Pending != nil && a.cancellation != nil {
		outcome := a.resolvePending(ctx, conv.Pending, utterance)
		if outcome.Consumed {
			intent, result, capErr, handled = entity.IntentReservationCancel, outcome.Result, outcome.Err, true
		}
		if outcome.State != entity.CancellationAwaitingConfirmation {
			conv.Pending = nil
		}
	}

	if !handled {
		intent = a.route(ctx, conv, req, history)
		req.Intent = intent
		result, capErr = a.invoke(ctx, intent, req)
		if result != nil && result.Pending != nil && a.cancellation != nil {
			conv.Pending = result.Pending
		}
	}

	reply := a.composer.Compose(intent, result, capErr)
	conv.Clarifying = ""
	if reply.Clarifying && intent != entity.IntentUnknown {
		conv.Clarifying = intent
	}
	conv.Append(entity.RoleAssistant, reply.Text, a.clock.now())

	if err := a.conversations.Save(ctx, conv); err != nil {
		return nil, fmt.Errorf("failed to save conversation: %w", err)
	}

	if a.metrics != nil {
		a.metrics.TurnsTotal.WithLabelValues(string(intent)).Inc()
		if reply.Kind != "" {
			a.metrics.ErrorsCount.WithLabelValues(string(reply.Kind)).Inc()
		}
	}
	a.logger.Info("Turn handled",
		"conversationID", conversationID,
		"intent", intent,
		"kind", reply.Kind,
		"mutated", result != nil && result.Mutated)

	return &TurnResult{
		ConversationID: conversationID,
		Answer:         reply.Text,
		Intent:         intent,
		Kind:           reply.Kind,
		Mutated:        result != nil && result.Mutated,
		Result:         result,
	}, nil
}

// Invoke runs a single capability outside of a stored conversation
func (a *Agent) Invoke(ctx context.Context, req entity.CapabilityRequest) (*entity.CapabilityResult, error) {
	return a.invoke(ctx, req.Intent, req)
}

// route classifies the utterance. A reply to a clarifying question stays with the
// capability that asked it unless it is clearly about something else.
func (a *Agent) route(ctx context.Context, conv *entity.Conversation, req entity.CapabilityRequest, history []entity.Message) entity.CapabilityIntent {
	// confirmation replies to a remote cancellation prompt
	if a.cancellation == nil && isConfirmationAnswer(req.Text) {
		if last, ok := conv.LastAssistant(); ok && confirmationRegex.MatchString(last.Content) {
			return entity.IntentReservationCancel
		}
	}

	intent := a.classifier.Classify(ctx, req.Text, history)
	if conv.Clarifying != "" && continuesClarification(conv.Clarifying, intent) {
		a.logger.Debug("Continuing clarification", "intent", conv.Clarifying, "classified", intent)
		return conv.Clarifying
	}
	return intent
}

// continuesClarification reports whether an utterance classified as intent is more
// likely an answer to the pending clarifying question of clarifying
func continuesClarification(clarifying, intent entity.CapabilityIntent) bool {
	switch intent {
	case entity.IntentPolicyQuery, entity.IntentUnknown:
		return true
	case entity.IntentScheduleQuery:
		// cities and flight numbers given while booking
		return clarifying == entity.IntentReservationBook
	}
	return false
}

func (a *Agent) resolvePending(ctx context.Context, pending *entity.PendingCancellation, utterance string) (outcome CancellationOutcome) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("Cancellation panicked", "panic", r, "pnr", pending.PNR)
			outcome = CancellationOutcome{
				State:    entity.CancellationAwaitingConfirmation,
				Err:      entity.NewUpstreamUnavailable("cancel reservation", fmt.Errorf("panic: %v", r)),
				Consumed: true,
			}
		}
	}()

	start := time.Now()
	outcome = a.cancellation.Resolve(ctx, pending, utterance)
	a.observe(entity.IntentReservationCancel, start)
	return outcome
}

// invoke runs the capability under the turn timeout and converts every failure,
// panics included, into a CapabilityError
func (a *Agent) invoke(ctx context.Context, intent entity.CapabilityIntent, req entity.CapabilityRequest) (result *entity.CapabilityResult, err error) {
	if intent == entity.IntentUnknown {
		return nil, nil
	}
	capability, ok := a.registry.Get(intent)
	if !ok {
		return nil, entity.NewUpstreamUnavailable(fmt.Sprintf("no capability registered for %s", intent), nil)
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("Capability panicked", "intent", intent, "panic", r)
			result, err = nil, entity.NewUpstreamUnavailable(string(intent), fmt.Errorf("panic: %v", r))
		}
	}()

	start := time.Now()
	result, err = capability.Invoke(ctx, req)
	a.observe(intent, start)
	if err != nil {
		ce := entity.Classify(string(intent), err)
		a.logger.Debug("Capability returned error",
			"intent", intent,
			"conversationID", req.ConversationID,
			"kind", ce.Kind,
			"duration", time.Since(start))
		return nil, ce
	}
	return result, nil
}

func (a *Agent) observe(intent entity.CapabilityIntent, start time.Time) {
	if a.metrics != nil {
		a.metrics.CapabilityDuration.WithLabelValues(string(intent)).Observe(time.Since(start).Seconds())
	}
}

// Conversation returns the stored history of a conversation
func (a *Agent) Conversation(ctx context.Context, id string) (*entity.Conversation, error) {
	return a.conversations.Get(ctx, id)
}

// keyedMutex serialises turns of the same conversation
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refMutex)}
}

// Lock blocks until key is free and returns the unlock function
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
