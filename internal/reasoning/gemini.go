package reasoning

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-3-flash-preview"

// Gemini evaluates decisions through the Gemini API using structured JSON
// output. Every call carries a deadline so an unresponsive model triggers
// the engine's fallback instead of stalling the caller.
type Gemini struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

// NewGemini builds a Gemini reasoner. apiKey is required; model and timeout
// fall back to defaults when zero.
func NewGemini(ctx context.Context, apiKey, model string, timeout time.Duration, logger *zap.Logger) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("reasoning: gemini api key is required")
	}
	if model == "" {
		model = DefaultModel
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("reasoning: create gemini client: %w", err)
	}

	return &Gemini{
		client:  client,
		model:   model,
		timeout: timeout,
		logger:  logger,
	}, nil
}

// Evaluate asks the model for a structured verdict and validates the reply.
func (g *Gemini) Evaluate(ctx context.Context, in Input) (Outcome, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"decision": {
					Type:        genai.TypeBoolean,
					Description: "Final decision on enabling new navigation.",
				},
				"reasoning": {
					Type:        genai.TypeString,
					Description: "Explanation for the navigation decision.",
				},
			},
			Required: []string{"decision", "reasoning"},
		},
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(Prompt(in)), cfg)
	if err != nil {
		return Outcome{}, fmt.Errorf("reasoning: generate content: %w", err)
	}

	out, err := ParseOutcome(resp.Text())
	if err != nil {
		return Outcome{}, err
	}

	g.logger.Debug("reasoning verdict",
		zap.Bool("decision", out.Decision),
		zap.String("model", g.model),
	)
	return out, nil
}
