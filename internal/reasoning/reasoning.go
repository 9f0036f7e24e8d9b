// Package reasoning consumes an external generative model as a boolean
// decision oracle with an explanation. Any fault — transport, timeout, or a
// malformed response — surfaces as an error the decision engine recovers
// from locally.
package reasoning

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Input summarizes the request context handed to the model.
type Input struct {
	Roles      []string `json:"roles"`
	Locale     string   `json:"locale"`
	SystemLoad float64  `json:"system_load"`
}

// Outcome is the structured verdict expected back from the model.
type Outcome struct {
	Decision  bool   `json:"decision"`
	Reasoning string `json:"reasoning"`
}

// Reasoner evaluates whether the new experience should activate for the
// given context.
type Reasoner interface {
	Evaluate(ctx context.Context, in Input) (Outcome, error)
}

// outcomeSchema validates the raw model payload before decoding. A response
// missing either field or with wrong types is a capability failure.
const outcomeSchema = `{
	"type": "object",
	"properties": {
		"decision": {"type": "boolean"},
		"reasoning": {"type": "string"}
	},
	"required": ["decision", "reasoning"],
	"additionalProperties": true
}`

var schemaLoader = gojsonschema.NewStringLoader(outcomeSchema)

// ParseOutcome validates and decodes a raw JSON payload from the model.
func ParseOutcome(raw string) (Outcome, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Outcome{}, fmt.Errorf("reasoning: empty response")
	}

	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewStringLoader(raw))
	if err != nil {
		return Outcome{}, fmt.Errorf("reasoning: validate response: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return Outcome{}, fmt.Errorf("reasoning: response failed schema: %s", strings.Join(msgs, "; "))
	}

	var out Outcome
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return Outcome{}, fmt.Errorf("reasoning: decode response: %w", err)
	}
	return out, nil
}

// Unavailable is the reasoner used when no model is configured. Every call
// fails, which keeps the engine permanently on its local-heuristics path.
type Unavailable struct{}

func (Unavailable) Evaluate(context.Context, Input) (Outcome, error) {
	return Outcome{}, fmt.Errorf("reasoning: no model configured")
}

// Prompt renders the evaluation request for the model.
func Prompt(in Input) string {
	return fmt.Sprintf(
		"Evaluate system context: User Role: %s, Location: %s, System Load: %.2f. "+
			"Determine if 'New Navigation Experience' should be enabled. "+
			"Return a short JSON object with 'decision' (boolean) and 'reasoning' (string).",
		strings.Join(in.Roles, ","), in.Locale, in.SystemLoad,
	)
}
