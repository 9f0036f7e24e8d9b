package policy

import (
	"context"
	"errors"
	"math/rand"
	"sync"

	"github.com/FairForge/aethernav/internal/events"
	"go.uber.org/zap"
)

// Audit event names. Each check records its event before returning, so an
// observer reading the log after a decision always sees the trail.
const (
	EventAuthCheck       = "AUTH_CHECK"
	EventComplianceCheck = "CMPL_CHECK"
)

// Privileged roles short-circuit the entitlement check.
const (
	RolePrivileged = "privileged-user"
	RoleAdmin      = "admin"
)

// DataOpNavigation marks processing of navigation telemetry, subject to the
// stricter EU gate.
const DataOpNavigation = "navigation-data-processing"

// RegionEU is the locale marker that triggers the regional compliance gate.
const RegionEU = "EU"

// Entitlement pass rates for the stub evaluator. A real policy engine
// replaces the Sampler, not these call sites.
const (
	authPassRate       = 0.8
	euCompliancePasses = 0.9
)

// UserContext identifies the caller of a decision request. Supplied per
// request, never persisted.
type UserContext struct {
	UserID    string   `json:"user_id,omitempty"`
	Roles     []string `json:"roles,omitempty"`
	TenantID  string   `json:"tenant_id,omitempty"`
	Locale    string   `json:"locale,omitempty"`
	SessionID string   `json:"session_id,omitempty"`
}

// HasRole reports whether the context carries the given role.
func (u UserContext) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Sampler decides probabilistic pass/fail. It stands in for a pluggable
// policy-evaluation capability; tests inject a deterministic one.
type Sampler interface {
	Pass(probability float64) bool
}

// RandSampler passes with the given probability using a private PRNG.
type RandSampler struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewRandSampler(seed int64) *RandSampler {
	return &RandSampler{rng: rand.New(rand.NewSource(seed))}
}

func (s *RandSampler) Pass(probability float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64() < probability
}

// Enforcer evaluates authorization and compliance predicates, auditing every
// check through the event recorder.
type Enforcer struct {
	recorder *events.Recorder
	sampler  Sampler
	logger   *zap.Logger
}

func NewEnforcer(recorder *events.Recorder, sampler Sampler, logger *zap.Logger) (*Enforcer, error) {
	if recorder == nil {
		return nil, errors.New("policy: event recorder is required")
	}
	if sampler == nil {
		return nil, errors.New("policy: sampler is required")
	}
	return &Enforcer{recorder: recorder, sampler: sampler, logger: logger}, nil
}

// CheckAuthorization evaluates whether the user may perform action. Anonymous
// contexts are always denied; privileged roles always pass; everyone else
// passes at the stub entitlement rate.
func (e *Enforcer) CheckAuthorization(ctx context.Context, action string, user UserContext) bool {
	e.recorder.Record(ctx, EventAuthCheck, map[string]interface{}{
		"action": action,
		"userId": user.UserID,
	})

	if user.UserID == "" {
		e.logger.Debug("authorization denied: anonymous context",
			zap.String("action", action))
		return false
	}
	if user.HasRole(RolePrivileged) || user.HasRole(RoleAdmin) {
		return true
	}
	return e.sampler.Pass(authPassRate)
}

// CheckCompliance evaluates regional data-processing policy. Only EU
// navigation-data processing is gated; everything else passes.
func (e *Enforcer) CheckCompliance(ctx context.Context, dataOperation, region string) bool {
	e.recorder.Record(ctx, EventComplianceCheck, map[string]interface{}{
		"dataOperationType": dataOperation,
		"userRegion":        region,
	})

	if region == RegionEU && dataOperation == DataOpNavigation {
		return e.sampler.Pass(euCompliancePasses)
	}
	return true
}
