// Package decision runs the navigation decision state machine: audit the
// caller, snapshot adaptive rules, then either deny fail-closed or consult
// the reasoning capability with a fail-open local fallback.
package decision

import (
	"context"
	"errors"

	"github.com/FairForge/aethernav/internal/adaptive"
	"github.com/FairForge/aethernav/internal/events"
	"github.com/FairForge/aethernav/internal/policy"
	"github.com/FairForge/aethernav/internal/reasoning"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Lifecycle event names.
const (
	EventInit     = "NAV_DS_INIT"
	EventComplete = "NAV_DS_COMPLETE"
)

// ActionAccessNewNav is the action audited on every decision request.
const ActionAccessNewNav = "access_new_navigation"

// Fixed confidence levels per outcome. A denial is near-certain; an
// AI-backed grant is strong; a local fallback is a coin toss we report
// honestly.
const (
	ConfidenceDenied   = 0.95
	ConfidenceReasoned = 0.85
	ConfidenceFallback = 0.5
)

// Outcome labels for the decisions metric.
const (
	outcomeGranted  = "granted"
	outcomeDenied   = "denied"
	outcomeFallback = "fallback"
)

// Decision is the terminal result of one pipeline run. Policy denials and
// reasoning failures are both ordinary decisions, never errors.
type Decision struct {
	Active        bool                   `json:"is_new_experience_active"`
	Description   string                 `json:"description"`
	SuggestedPath string                 `json:"suggested_path,omitempty"`
	Confidence    float64                `json:"confidence_score"`
	Context       map[string]interface{} `json:"decision_context,omitempty"`
}

// RuleProvider supplies the adaptive snapshot for a request.
type RuleProvider interface {
	AdaptAndPredict(ctx context.Context, user policy.UserContext) adaptive.RuleSet
	SystemLoad() float64
}

// PolicyChecker runs the authorization and compliance predicates.
type PolicyChecker interface {
	CheckAuthorization(ctx context.Context, action string, user policy.UserContext) bool
	CheckCompliance(ctx context.Context, dataOperation, region string) bool
}

// Engine is stateless across calls; every Decide runs the machine from INIT.
type Engine struct {
	policy   PolicyChecker
	rules    RuleProvider
	reasoner reasoning.Reasoner
	recorder *events.Recorder

	decisions *prometheus.CounterVec
	logger    *zap.Logger
}

// NewEngine wires the engine. All collaborators except the metric are
// required; a missing one is a wiring fault caught at startup.
func NewEngine(
	checker PolicyChecker,
	rules RuleProvider,
	reasoner reasoning.Reasoner,
	recorder *events.Recorder,
	decisions *prometheus.CounterVec,
	logger *zap.Logger,
) (*Engine, error) {
	if checker == nil {
		return nil, errors.New("decision: policy checker is required")
	}
	if rules == nil {
		return nil, errors.New("decision: rule provider is required")
	}
	if reasoner == nil {
		return nil, errors.New("decision: reasoner is required")
	}
	if recorder == nil {
		return nil, errors.New("decision: event recorder is required")
	}
	return &Engine{
		policy:    checker,
		rules:     rules,
		reasoner:  reasoner,
		recorder:  recorder,
		decisions: decisions,
		logger:    logger,
	}, nil
}

// Decide produces the navigation decision for one request. It never returns
// an error: denial and reasoning failure are both encoded in the result.
func (e *Engine) Decide(ctx context.Context, user policy.UserContext) Decision {
	e.recorder.Record(ctx, EventInit, map[string]interface{}{
		"userId": user.UserID,
	})

	// Both checks must complete before the transition; their relative order
	// carries no meaning.
	authorized := e.policy.CheckAuthorization(ctx, ActionAccessNewNav, user)
	compliant := e.policy.CheckCompliance(ctx, policy.DataOpNavigation, user.Locale)
	rules := e.rules.AdaptAndPredict(ctx, user)

	if !authorized || !compliant {
		// Fail closed: no reasoning call on a policy denial.
		e.count(outcomeDenied)
		e.logger.Info("navigation denied by policy",
			zap.String("user_id", user.UserID),
			zap.Bool("authorized", authorized),
			zap.Bool("compliant", compliant),
		)
		return Decision{
			Active:      false,
			Description: "Security or Compliance policy denied new navigation access.",
			Confidence:  ConfidenceDenied,
		}
	}

	outcome, err := e.reasoner.Evaluate(ctx, reasoning.Input{
		Roles:      user.Roles,
		Locale:     user.Locale,
		SystemLoad: e.rules.SystemLoad(),
	})
	if err != nil {
		// Fail open to local heuristics; the fault never reaches the caller.
		e.count(outcomeFallback)
		e.logger.Warn("reasoning capability failed, using local heuristics",
			zap.String("user_id", user.UserID),
			zap.Error(err),
		)
		return Decision{
			Active:      rules.FeatureFlags[adaptive.FlagNewNavigation],
			Description: "AI reasoning failed. Defaulting to local heuristics.",
			Confidence:  ConfidenceFallback,
		}
	}

	// The model's approval is necessary but not sufficient: the adaptive
	// gate must agree.
	result := Decision{
		Active:        outcome.Decision && rules.FeatureFlags[adaptive.FlagNewNavigation],
		Description:   outcome.Reasoning,
		SuggestedPath: rules.Routing["default"],
		Confidence:    ConfidenceReasoned,
		Context: map[string]interface{}{
			"load": e.rules.SystemLoad(),
			"auth": "GRANTED",
		},
	}

	e.recorder.Record(ctx, EventComplete, map[string]interface{}{
		"isNewExperienceActive": result.Active,
		"description":           result.Description,
		"confidenceScore":       result.Confidence,
	})
	e.count(outcomeGranted)
	return result
}

func (e *Engine) count(outcome string) {
	if e.decisions != nil {
		e.decisions.WithLabelValues(outcome).Inc()
	}
}
