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

const noPolicyAnswer = "I could not find anything about that in our policy documents. " +
	"Please contact customer support for details. Let me know if you need further help."

// PolicyCapability answers policy questions from retrieved passages
type PolicyCapability struct {
	retriever repository.Retriever
	oracle    repository.Oracle
	topK      int
	logger    logger.Logger
}

// NewPolicyCapability creates a retrieval-augmented policy capability
func NewPolicyCapability(retriever repository.Retriever, oracle repository.Oracle, topK int, logger logger.Logger) *PolicyCapability {
	if topK <= 0 {
		topK = 3
	}
	return &PolicyCapability{
		retriever: retriever,
		oracle:    oracle,
		topK:      topK,
		logger:    logger,
	}
}

func (c *PolicyCapability) Invoke(ctx context.Context, req entity.CapabilityRequest) (*entity.CapabilityResult, error) {
	question := strings.TrimSpace(req.Text)
	if question == "" {
		return nil, entity.NewMissingIdentifier(entity.FieldQuestion)
	}

	passages, err := c.retriever.Retrieve(ctx, question, c.topK)
	if err != nil {
		return nil, entity.Classify("policy retrieval", err)
	}
	if len(passages) == 0 {
		c.logger.Debug("No policy passages matched", "question", question)
		return &entity.CapabilityResult{Intent: entity.IntentPolicyQuery, Text: noPolicyAnswer}, nil
	}

	system, prompt, err := templates.PolicyAnswerPrompt.Render(templates.PromptData{
		Question: question,
		Context:  templates.FormatPassages(passages),
	})
	if err != nil {
		return nil, entity.NewMalformedGeneration(err.Error())
	}

	answer, err := c.oracle.Generate(ctx, system, prompt)
	if err != nil {
		return nil, entity.Classify("policy answer", err)
	}
	answer = oracle.UnwrapText(answer)
	if answer == "" {
		return nil, entity.NewMalformedGeneration("empty policy answer")
	}

	return &entity.CapabilityResult{
		Intent:   entity.IntentPolicyQuery,
		Text:     answer,
		Passages: passages,
	}, nil
}
