package router

import (
	"regexp"
	"strings"

	"airline-assistant-service/internal/domain/entity"
	"airline-assistant-service/pkg/logger"
	"airline-assistant-service/pkg/utils"
)

// RuleHandler decides whether an utterance belongs to its intent
type RuleHandler interface {
	Intent() entity.CapabilityIntent
	CanHandle(utterance string) bool
}

// KeywordRule matches when any pattern matches and no exclusion does
type KeywordRule struct {
	intent   entity.CapabilityIntent
	patterns []*regexp.Regexp
	excludes []*regexp.Regexp
	extra    func(utterance string) bool
}

// NewKeywordRule compiles case-insensitive patterns for intent
func NewKeywordRule(intent entity.CapabilityIntent, patterns ...string) *KeywordRule {
	return &KeywordRule{intent: intent, patterns: compile(patterns)}
}

// Except adds patterns that veto a match
func (r *KeywordRule) Except(patterns ...string) *KeywordRule {
	r.excludes = append(r.excludes, compile(patterns)...)
	return r
}

// Or adds a predicate that also counts as a match
func (r *KeywordRule) Or(fn func(utterance string) bool) *KeywordRule {
	r.extra = fn
	return r
}

func (r *KeywordRule) Intent() entity.CapabilityIntent {
	return r.intent
}

func (r *KeywordRule) CanHandle(utterance string) bool {
	for _, ex := range r.excludes {
		if ex.MatchString(utterance) {
			return false
		}
	}
	for _, p := range r.patterns {
		if p.MatchString(utterance) {
			return true
		}
	}
	return r.extra != nil && r.extra(utterance)
}

func (r *KeywordRule) String() string {
	return string(r.intent)
}

func compile(patterns []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, regexp.MustCompile(`(?i)`+p))
	}
	return out
}

// RuleRouter routes utterances to intents; the first registered handler that accepts wins
type RuleRouter struct {
	handlers []RuleHandler
	fallback entity.CapabilityIntent
	logger   logger.Logger
}

// NewRuleRouter creates an empty router that falls back to policy_query
func NewRuleRouter(logger logger.Logger) *RuleRouter {
	return &RuleRouter{
		handlers: make([]RuleHandler, 0),
		fallback: entity.IntentPolicyQuery,
		logger:   logger,
	}
}

// NewDefaultRuleRouter registers the keyword rules in precedence order:
// time, reservation cancel, reservation book, reservation query, schedule.
func NewDefaultRuleRouter(logger logger.Logger) *RuleRouter {
	r := NewRuleRouter(logger)

	r.Register(NewKeywordRule(entity.IntentTimeQuery,
		`\bwhat time is it\b`, `\bwhat(?:'s| is) the time\b`, `\bcurrent time\b`, `\btime (?:is it )?now\b`,
		`\btoday'?s date\b`, `\bwhat(?:'s| is) the date\b`, `\bwhat date is it\b`, `\bwhat day is (?:it|today)\b`,
		`\bcurrent date\b`, `\bdate today\b`, `^\s*what time\b`,
	).Except(`\bflights?\b`, `\bdepart`, `\barriv`, `\bpnr\b`))

	r.Register(NewKeywordRule(entity.IntentReservationCancel,
		`\bcancel(?:s|led|ling|lation)?\b`, `\bcall off\b`,
	).Except(`\bpolic(?:y|ies)\b`, `\brules?\b`, `\bfees?\b`, `\bcharges?\b`, `\bterms\b`))

	r.Register(NewKeywordRule(entity.IntentReservationBook,
		`\bbook\b`, `\breserve\b`, `\bmy name is\b`, `\bmake a (?:booking|reservation)\b`, `\bbuy a ticket\b`,
	))

	r.Register(NewKeywordRule(entity.IntentReservationQuery,
		`\bpnr\b`, `\breservation\b`, `\bbooking\b`, `\bmy ticket\b`,
	).Or(func(u string) bool {
		_, ok := utils.ExtractPNR(u)
		return ok
	}))

	r.Register(NewKeywordRule(entity.IntentScheduleQuery,
		`\bschedules?\b`, `\bflights\b`, `\bavailab(?:le|ility)\b`, `\broutes?\b`, `\bdepart(?:s|ure|ing)?\b`,
		`\barriv(?:e|es|al|ing)\b`, `\bon time\b`, `\bdelay(?:ed)?\b`, `\bseats?\b`, `\bfares?\b`,
	).Or(func(u string) bool {
		if _, ok := utils.ExtractRoute(u); ok {
			return true
		}
		_, ok := utils.ExtractFlightID(u)
		return ok
	}))

	return r
}

// Register registers a handler; order of registration is precedence
func (r *RuleRouter) Register(handler RuleHandler) {
	r.handlers = append(r.handlers, handler)
	r.logger.Debug("Registered rule", "intent", handler.Intent())
}

// GetHandler returns the first handler that accepts the utterance
func (r *RuleRouter) GetHandler(utterance string) RuleHandler {
	for _, handler := range r.handlers {
		if handler.CanHandle(utterance) {
			return handler
		}
	}
	return nil
}

// Route maps an utterance to an intent. Empty input is unknown; unmatched input falls back
// to policy_query.
func (r *RuleRouter) Route(utterance string) entity.CapabilityIntent {
	if strings.TrimSpace(utterance) == "" {
		return entity.IntentUnknown
	}
	if h := r.GetHandler(utterance); h != nil {
		return h.Intent()
	}
	return r.fallback
}
