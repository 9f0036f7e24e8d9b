// Package nav is the composition root: it wires the recorder, registry,
// policy enforcer, adaptive provider, reasoner, and decision engine in
// dependency order and exposes the single decision entry point.
package nav

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/FairForge/aethernav/internal/adaptive"
	"github.com/FairForge/aethernav/internal/config"
	"github.com/FairForge/aethernav/internal/decision"
	"github.com/FairForge/aethernav/internal/events"
	"github.com/FairForge/aethernav/internal/metrics"
	"github.com/FairForge/aethernav/internal/policy"
	"github.com/FairForge/aethernav/internal/reasoning"
	"github.com/FairForge/aethernav/internal/registry"
	"go.uber.org/zap"
)

// Service owns singleton instances of every pipeline component. Construct
// once at startup; any wiring fault fails construction, not a later request.
type Service struct {
	recorder *events.Recorder
	registry *registry.Registry
	enforcer *policy.Enforcer
	provider *adaptive.Provider
	engine   *decision.Engine

	logger *zap.Logger
}

// Options override default collaborators, mainly for tests.
type Options struct {
	// Reasoner replaces the configured Gemini client.
	Reasoner reasoning.Reasoner
	// Sink replaces the configured forwarding sink.
	Sink events.Sink
	// Sampler replaces the probabilistic policy stub.
	Sampler policy.Sampler
	// LoadSource replaces the pseudo-random load sampler.
	LoadSource adaptive.LoadSource
}

// New builds the service from configuration.
func New(ctx context.Context, cfg *config.Config, m *metrics.Metrics, logger *zap.Logger, opts Options) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("nav: config is required")
	}
	if m == nil {
		return nil, errors.New("nav: metrics are required")
	}
	if logger == nil {
		return nil, errors.New("nav: logger is required")
	}

	sink := opts.Sink
	if sink == nil && cfg.Events.ForwardingEnabled {
		if cfg.Events.SinkURL != "" {
			sink = events.NewHTTPSink(cfg.Events.SinkURL, cfg.Events.ForwardTimeout)
		} else {
			sink = events.NewZapSink(logger.Named("sink"))
		}
	}
	recorder := events.NewRecorder(logger.Named("events"), sink)

	reg, err := registry.New(recorder, logger.Named("registry"), cfg.Catalog)
	if err != nil {
		return nil, fmt.Errorf("nav: build registry: %w", err)
	}

	sampler := opts.Sampler
	if sampler == nil {
		sampler = policy.NewRandSampler(time.Now().UnixNano())
	}
	enforcer, err := policy.NewEnforcer(recorder, sampler, logger.Named("policy"))
	if err != nil {
		return nil, fmt.Errorf("nav: build policy enforcer: %w", err)
	}

	source := opts.LoadSource
	if source == nil {
		source = adaptive.NewRandLoadSource(time.Now().UnixNano())
	}
	provider, err := adaptive.NewProvider(recorder, source, m.SystemLoad, logger.Named("adaptive"))
	if err != nil {
		return nil, fmt.Errorf("nav: build adaptive provider: %w", err)
	}

	reasoner := opts.Reasoner
	if reasoner == nil {
		if cfg.Reasoning.APIKey == "" {
			logger.Warn("no reasoning api key configured, decisions will use local heuristics")
			reasoner = reasoning.Unavailable{}
		} else {
			reasoner, err = reasoning.NewGemini(ctx, cfg.Reasoning.APIKey, cfg.Reasoning.Model,
				cfg.Reasoning.Timeout, logger.Named("reasoning"))
			if err != nil {
				return nil, fmt.Errorf("nav: build reasoner: %w", err)
			}
		}
	}

	engine, err := decision.NewEngine(enforcer, provider, reasoner, recorder, m.Decisions, logger.Named("decision"))
	if err != nil {
		return nil, fmt.Errorf("nav: build decision engine: %w", err)
	}

	return &Service{
		recorder: recorder,
		registry: reg,
		enforcer: enforcer,
		provider: provider,
		engine:   engine,
		logger:   logger,
	}, nil
}

// GetNavigationState runs the decision pipeline for one user context.
func (s *Service) GetNavigationState(ctx context.Context, user policy.UserContext) decision.Decision {
	return s.engine.Decide(ctx, user)
}

// Registry exposes the service catalog for display and toggling.
func (s *Service) Registry() *registry.Registry { return s.registry }

// Recorder exposes the event log for display.
func (s *Service) Recorder() *events.Recorder { return s.recorder }

// SystemLoad reports the most recent load sample.
func (s *Service) SystemLoad() float64 { return s.provider.SystemLoad() }
