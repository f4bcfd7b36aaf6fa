package usecase

import (
	"context"
	"strings"

	"airline-assistant-service/internal/domain/entity"
	"airline-assistant-service/internal/domain/repository"
	"airline-assistant-service/internal/infrastructure/oracle"
	"airline-assistant-service/pkg/logger"
	"airline-assistant-service/templates"
)

// Classifier picks the capability for an utterance. The model is asked first and the
// keyword rules answer whenever it fails or replies with something that is not a label.
type Classifier struct {
	oracle repository.Oracle
	rules  IntentRouter
	logger logger.Logger
}

// NewClassifier creates a classifier. oracle may be nil to classify by rules only.
func NewClassifier(oracle repository.Oracle, rules IntentRouter, logger logger.Logger) *Classifier {
	return &Classifier{
		oracle: oracle,
		rules:  rules,
		logger: logger,
	}
}

// Classify never fails. Blank utterances are unknown.
func (c *Classifier) Classify(ctx context.Context, utterance string, recent []entity.Message) entity.CapabilityIntent {
	if strings.TrimSpace(utterance) == "" {
		return entity.IntentUnknown
	}
	ruled := c.rules.Route(utterance)

	if c.oracle == nil {
		return ruled
	}

	intent, ok := c.ask(ctx, utterance, recent)
	if !ok {
		c.logger.Debug("Using keyword classification", "intent", ruled)
		return ruled
	}

	// an explicit cancellation outranks a booking in the same sentence
	if intent == entity.IntentReservationBook && ruled == entity.IntentReservationCancel {
		return entity.IntentReservationCancel
	}
	return intent
}

func (c *Classifier) ask(ctx context.Context, utterance string, recent []entity.Message) (entity.CapabilityIntent, bool) {
	labels := make([]string, 0, len(entity.KnownIntents))
	for _, intent := range entity.KnownIntents {
		labels = append(labels, string(intent))
	}
	system, prompt, err := templates.ClassifierPrompt.Render(templates.PromptData{
		Question:     utterance,
		Conversation: templates.FormatConversation(recent),
		Labels:       labels,
	})
	if err != nil {
		c.logger.Warn("Failed to render classifier prompt", "error", err)
		return entity.IntentUnknown, false
	}

	out, err := c.oracle.Generate(ctx, system, prompt)
	if err != nil {
		c.logger.Warn("Classifier model failed", "error", err)
		return entity.IntentUnknown, false
	}

	label := oracle.UnwrapText(out)
	if line, _, found := strings.Cut(label, "\n"); found {
		label = line
	}
	if i := strings.LastIndex(label, ":"); i >= 0 {
		label = label[i+1:]
	}
	intent, ok := entity.ParseIntent(label)
	if !ok {
		c.logger.Warn("Unparseable classifier reply", "reply", out)
	}
	return intent, ok
}
