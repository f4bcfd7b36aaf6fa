package oracle

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"airline-assistant-service/internal/domain/repository"
)

// Interface compliance check.
var _ repository.Oracle = (*Gemini)(nil)

const defaultGeminiModel = "gemini-2.0-flash"

// Gemini implements repository.Oracle for the Google Gemini API.
type Gemini struct {
	client      *genai.Client
	model       string
	temperature float32
}

// GeminiOption configures a Gemini oracle.
type GeminiOption func(*Gemini)

// WithGeminiModel sets the model ID.
func WithGeminiModel(model string) GeminiOption {
	return func(g *Gemini) {
		if model != "" {
			g.model = model
		}
	}
}

// WithGeminiTemperature sets the sampling temperature.
func WithGeminiTemperature(t float64) GeminiOption {
	return func(g *Gemini) { g.temperature = float32(t) }
}

// NewGemini creates a Gemini backed oracle
func NewGemini(ctx context.Context, apiKey string, opts ...GeminiOption) (*Gemini, error) {
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	g := &Gemini{
		client: gc,
		model:  defaultGeminiModel,
	}
	for _, o := range opts {
		o(g)
	}
	return g, nil
}

// Generate runs a single non-streaming generation
func (g *Gemini) Generate(ctx context.Context, system, prompt string) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(g.temperature),
	}
	if system != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: system}},
		}
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", errors.New("gemini: empty response")
	}
	return text, nil
}
