package adaptive

import (
	"context"
	"errors"
	"math/rand"
	"sync"

	"github.com/FairForge/aethernav/internal/events"
	"github.com/FairForge/aethernav/internal/policy"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// EventAdapt is recorded on every rule-set computation.
const EventAdapt = "CTX_ADAPT_INIT"

// FlagNewNavigation gates the new navigation experience. It is on while
// system load stays under the threshold.
const (
	FlagNewNavigation = "new-navigation"
	FlagABTesting     = "ab-testing"

	loadThreshold = 0.9
)

// RuleSet is the transient configuration snapshot produced per decision
// request. It is never persisted across requests.
type RuleSet struct {
	FeatureFlags         map[string]bool   `json:"feature_flags"`
	PathPriorities       map[string]int    `json:"path_priorities"`
	ObservabilityEnabled bool              `json:"observability_enabled"`
	SecurityCheckEnabled bool              `json:"security_check_enabled"`
	DynamicPathEnabled   bool              `json:"dynamic_path_enabled"`
	Routing              map[string]string `json:"ai_based_routing"`
}

// LoadSource produces the current system load in [0,1). The default samples
// pseudo-randomly; a real deployment would derive it from telemetry.
type LoadSource interface {
	Sample() float64
}

type randLoadSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewRandLoadSource(seed int64) LoadSource {
	return &randLoadSource{rng: rand.New(rand.NewSource(seed))}
}

func (s *randLoadSource) Sample() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

// Provider computes adaptive rule sets and owns the system-load gauge. Only
// the provider writes the gauge; everyone else reads through SystemLoad.
type Provider struct {
	mu   sync.RWMutex
	load float64

	source   LoadSource
	recorder *events.Recorder
	gauge    prometheus.Gauge
	logger   *zap.Logger
}

// NewProvider wires a provider. The gauge is optional; pass nil when metrics
// are disabled (tests).
func NewProvider(recorder *events.Recorder, source LoadSource, gauge prometheus.Gauge, logger *zap.Logger) (*Provider, error) {
	if recorder == nil {
		return nil, errors.New("adaptive: event recorder is required")
	}
	if source == nil {
		return nil, errors.New("adaptive: load source is required")
	}
	return &Provider{
		load:     0.42,
		source:   source,
		recorder: recorder,
		gauge:    gauge,
		logger:   logger,
	}, nil
}

// AdaptAndPredict resamples the system load and returns a fresh rule set.
// The new-navigation flag is on iff load is under the threshold.
func (p *Provider) AdaptAndPredict(ctx context.Context, user policy.UserContext) RuleSet {
	load := p.source.Sample()

	p.mu.Lock()
	p.load = load
	p.mu.Unlock()

	if p.gauge != nil {
		p.gauge.Set(load)
	}

	p.recorder.Record(ctx, EventAdapt, map[string]interface{}{
		"load": load,
	})
	p.logger.Debug("adaptive rules computed",
		zap.Float64("load", load),
		zap.String("user_id", user.UserID),
	)

	return RuleSet{
		FeatureFlags: map[string]bool{
			FlagNewNavigation: load < loadThreshold,
			FlagABTesting:     true,
		},
		PathPriorities: map[string]int{
			"dash":     10,
			"reports":  8,
			"settings": 5,
		},
		ObservabilityEnabled: true,
		SecurityCheckEnabled: true,
		DynamicPathEnabled:   true,
		Routing: map[string]string{
			"default": "/dash",
		},
	}
}

// SystemLoad returns the load from the most recent sample.
func (p *Provider) SystemLoad() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.load
}
