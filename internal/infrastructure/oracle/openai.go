package oracle

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"airline-assistant-service/internal/domain/repository"
)

// Interface compliance check.
var _ repository.Oracle = (*OpenAI)(nil)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAI implements repository.Oracle with the chat completions API
type OpenAI struct {
	client      openai.Client
	model       string
	temperature float64
}

// OpenAIOption configures an OpenAI oracle.
type OpenAIOption func(*openAIConfig)

type openAIConfig struct {
	model       string
	baseURL     string
	temperature float64
}

// WithOpenAIModel sets the chat model.
func WithOpenAIModel(model string) OpenAIOption {
	return func(c *openAIConfig) {
		if model != "" {
			c.model = model
		}
	}
}

// WithBaseURL points the client at an OpenAI compatible endpoint.
func WithBaseURL(url string) OpenAIOption {
	return func(c *openAIConfig) { c.baseURL = url }
}

// WithOpenAITemperature sets the sampling temperature. Default is 0.
func WithOpenAITemperature(t float64) OpenAIOption {
	return func(c *openAIConfig) { c.temperature = t }
}

// NewOpenAI creates an OpenAI backed oracle
func NewOpenAI(apiKey string, opts ...OpenAIOption) (*OpenAI, error) {
	if apiKey == "" {
		return nil, errors.New("openai: api key is required")
	}
	cfg := openAIConfig{model: defaultOpenAIModel}
	for _, o := range opts {
		o(&cfg)
	}

	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}

	return &OpenAI{
		client:      openai.NewClient(reqOpts...),
		model:       cfg.model,
		temperature: cfg.temperature,
	}, nil
}

// Generate sends a system and user message and returns the first choice
func (o *OpenAI) Generate(ctx context.Context, system, prompt string) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if system != "" {
		messages = append(messages, openai.SystemMessage(system))
	}
	messages = append(messages, openai.UserMessage(prompt))

	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(o.model),
		Messages:    messages,
		Temperature: openai.Float(o.temperature),
	})
	if err != nil {
		return "", fmt.Errorf("openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: empty response")
	}
	return resp.Choices[0].Message.Content, nil
}
