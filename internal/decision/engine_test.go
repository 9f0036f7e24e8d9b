package decision

import (
	"context"
	"errors"
	"testing"

	"github.com/FairForge/aethernav/internal/adaptive"
	"github.com/FairForge/aethernav/internal/events"
	"github.com/FairForge/aethernav/internal/policy"
	"github.com/FairForge/aethernav/internal/reasoning"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubChecker struct {
	authorized bool
	compliant  bool
}

func (s stubChecker) CheckAuthorization(context.Context, string, policy.UserContext) bool {
	return s.authorized
}

func (s stubChecker) CheckCompliance(context.Context, string, string) bool {
	return s.compliant
}

type stubRules struct {
	flag bool
	load float64
}

func (s stubRules) AdaptAndPredict(context.Context, policy.UserContext) adaptive.RuleSet {
	return adaptive.RuleSet{
		FeatureFlags: map[string]bool{
			adaptive.FlagNewNavigation: s.flag,
			adaptive.FlagABTesting:     true,
		},
		Routing: map[string]string{"default": "/dash"},
	}
}

func (s stubRules) SystemLoad() float64 { return s.load }

type stubReasoner struct {
	outcome reasoning.Outcome
	err     error
	calls   int
}

func (s *stubReasoner) Evaluate(context.Context, reasoning.Input) (reasoning.Outcome, error) {
	s.calls++
	return s.outcome, s.err
}

func newTestEngine(t *testing.T, checker stubChecker, rules stubRules, r *stubReasoner) (*Engine, *events.Recorder) {
	t.Helper()
	recorder := events.NewRecorder(zap.NewNop(), nil)
	eng, err := NewEngine(checker, rules, r, recorder, nil, zap.NewNop())
	require.NoError(t, err)
	return eng, recorder
}

func TestNewEngine_RequiresDeps(t *testing.T) {
	recorder := events.NewRecorder(zap.NewNop(), nil)
	r := &stubReasoner{}

	_, err := NewEngine(nil, stubRules{}, r, recorder, nil, zap.NewNop())
	assert.Error(t, err)
	_, err = NewEngine(stubChecker{}, nil, r, recorder, nil, zap.NewNop())
	assert.Error(t, err)
	_, err = NewEngine(stubChecker{}, stubRules{}, nil, recorder, nil, zap.NewNop())
	assert.Error(t, err)
	_, err = NewEngine(stubChecker{}, stubRules{}, r, nil, nil, zap.NewNop())
	assert.Error(t, err)
}

func TestDecide_PolicyDenialFailsClosed(t *testing.T) {
	user := policy.UserContext{UserID: "u-1", Roles: []string{"viewer"}}

	cases := []struct {
		name    string
		checker stubChecker
	}{
		{"authorization denied", stubChecker{authorized: false, compliant: true}},
		{"compliance denied", stubChecker{authorized: true, compliant: false}},
		{"both denied", stubChecker{authorized: false, compliant: false}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := &stubReasoner{outcome: reasoning.Outcome{Decision: true, Reasoning: "approved"}}
			eng, _ := newTestEngine(t, tc.checker, stubRules{flag: true}, r)

			d := eng.Decide(context.Background(), user)

			assert.False(t, d.Active)
			assert.Equal(t, ConfidenceDenied, d.Confidence)
			assert.Zero(t, r.calls, "reasoner must not be invoked on denial")
		})
	}
}

func TestDecide_ANDGate(t *testing.T) {
	user := policy.UserContext{UserID: "u-2", Roles: []string{"viewer"}}
	granted := stubChecker{authorized: true, compliant: true}

	t.Run("AI yes, flag off means inactive", func(t *testing.T) {
		r := &stubReasoner{outcome: reasoning.Outcome{Decision: true, Reasoning: "X"}}
		eng, _ := newTestEngine(t, granted, stubRules{flag: false, load: 0.95}, r)

		d := eng.Decide(context.Background(), user)

		assert.False(t, d.Active)
		assert.Equal(t, ConfidenceReasoned, d.Confidence)
		assert.Equal(t, "X", d.Description)
	})

	t.Run("AI no, flag on means inactive", func(t *testing.T) {
		r := &stubReasoner{outcome: reasoning.Outcome{Decision: false, Reasoning: "declined"}}
		eng, _ := newTestEngine(t, granted, stubRules{flag: true, load: 0.2}, r)

		d := eng.Decide(context.Background(), user)
		assert.False(t, d.Active)
	})

	t.Run("AI yes, flag on means active", func(t *testing.T) {
		r := &stubReasoner{outcome: reasoning.Outcome{Decision: true, Reasoning: "ok"}}
		eng, _ := newTestEngine(t, granted, stubRules{flag: true, load: 0.2}, r)

		d := eng.Decide(context.Background(), user)

		assert.True(t, d.Active)
		assert.Equal(t, ConfidenceReasoned, d.Confidence)
		assert.Equal(t, "/dash", d.SuggestedPath)
		assert.Equal(t, "GRANTED", d.Context["auth"])
		assert.InDelta(t, 0.2, d.Context["load"].(float64), 1e-9)
	})
}

func TestDecide_ReasonerFailureFallsBack(t *testing.T) {
	user := policy.UserContext{UserID: "u-3"}
	granted := stubChecker{authorized: true, compliant: true}

	t.Run("fallback follows the flag", func(t *testing.T) {
		for _, flag := range []bool{true, false} {
			r := &stubReasoner{err: errors.New("model timeout")}
			eng, _ := newTestEngine(t, granted, stubRules{flag: flag}, r)

			d := eng.Decide(context.Background(), user)

			assert.Equal(t, flag, d.Active)
			assert.Equal(t, ConfidenceFallback, d.Confidence)
			assert.Equal(t, 1, r.calls)
		}
	})
}

func TestDecide_EventTrail(t *testing.T) {
	user := policy.UserContext{UserID: "u-4"}
	r := &stubReasoner{outcome: reasoning.Outcome{Decision: true, Reasoning: "ok"}}
	eng, recorder := newTestEngine(t, stubChecker{authorized: true, compliant: true}, stubRules{flag: true}, r)

	d := eng.Decide(context.Background(), user)
	require.True(t, d.Active)

	recent := recorder.RecentEvents(10)
	require.Len(t, recent, 2)
	assert.Equal(t, EventComplete, recent[0].Name)
	assert.Equal(t, EventInit, recent[1].Name)
	assert.Equal(t, "u-4", recent[1].Details["userId"])
	assert.Equal(t, true, recent[0].Details["isNewExperienceActive"])
}

func TestDecide_ConfidenceAlwaysInRange(t *testing.T) {
	user := policy.UserContext{UserID: "u-5"}
	combos := []struct {
		checker stubChecker
		err     error
	}{
		{stubChecker{authorized: false, compliant: true}, nil},
		{stubChecker{authorized: true, compliant: true}, nil},
		{stubChecker{authorized: true, compliant: true}, errors.New("boom")},
	}
	for _, c := range combos {
		r := &stubReasoner{outcome: reasoning.Outcome{Decision: true, Reasoning: "ok"}, err: c.err}
		eng, _ := newTestEngine(t, c.checker, stubRules{flag: true}, r)
		d := eng.Decide(context.Background(), user)
		assert.GreaterOrEqual(t, d.Confidence, 0.0)
		assert.LessOrEqual(t, d.Confidence, 1.0)
	}
}
