package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/FairForge/aethernav/internal/config"
	"github.com/FairForge/aethernav/internal/decision"
	"github.com/FairForge/aethernav/internal/metrics"
	"github.com/FairForge/aethernav/internal/nav"
	"github.com/FairForge/aethernav/internal/policy"
	"github.com/FairForge/aethernav/internal/reasoning"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "test-signing-secret"

type passSampler struct{}

func (passSampler) Pass(float64) bool { return true }

type lowLoad struct{}

func (lowLoad) Sample() float64 { return 0.1 }

type yesReasoner struct{}

func (yesReasoner) Evaluate(context.Context, reasoning.Input) (reasoning.Outcome, error) {
	return reasoning.Outcome{Decision: true, Reasoning: "approved"}, nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	cfg := config.Default()
	cfg.Events.ForwardingEnabled = false
	cfg.Server.JWTSecret = testSecret

	m := metrics.New()
	svc, err := nav.New(context.Background(), cfg, m, zap.NewNop(), nav.Options{
		Sampler:    passSampler{},
		LoadSource: lowLoad{},
		Reasoner:   yesReasoner{},
	})
	require.NoError(t, err)

	return NewServer(cfg, zap.NewNop(), svc, m)
}

func doRequest(t *testing.T, s *Server, method, path string, body interface{}, header http.Header) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/health", "/ready", "/version"} {
		w := doRequest(t, s, http.MethodGet, path, nil, nil)
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	w := doRequest(t, s, http.MethodGet, "/metrics", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestNavigationState_FromBody(t *testing.T) {
	s := newTestServer(t)

	user := policy.UserContext{UserID: "u-1", Roles: []string{policy.RoleAdmin}, Locale: "US"}
	w := doRequest(t, s, http.MethodPost, "/api/v1/navigation/state", user, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var d decision.Decision
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &d))
	assert.True(t, d.Active)
	assert.Equal(t, decision.ConfidenceReasoned, d.Confidence)
}

func TestNavigationState_AnonymousDenied(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(t, s, http.MethodPost, "/api/v1/navigation/state", policy.UserContext{}, nil)
	require.Equal(t, http.StatusOK, w.Code, "denial is a decision, not an HTTP error")

	var d decision.Decision
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &d))
	assert.False(t, d.Active)
	assert.Equal(t, decision.ConfidenceDenied, d.Confidence)
}

func signTestToken(t *testing.T, claims UserClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func TestNavigationState_FromBearerToken(t *testing.T) {
	s := newTestServer(t)

	signed := signTestToken(t, UserClaims{
		Roles:  []string{policy.RolePrivileged},
		Locale: "US",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u-jwt",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	header := http.Header{}
	header.Set("Authorization", "Bearer "+signed)

	w := doRequest(t, s, http.MethodPost, "/api/v1/navigation/state", nil, header)
	require.Equal(t, http.StatusOK, w.Code)

	var d decision.Decision
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &d))
	assert.True(t, d.Active)
}

func TestNavigationState_BadToken(t *testing.T) {
	s := newTestServer(t)

	header := http.Header{}
	header.Set("Authorization", "Bearer not-a-token")

	w := doRequest(t, s, http.MethodPost, "/api/v1/navigation/state", nil, header)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListServices(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(t, s, http.MethodGet, "/api/v1/services", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 6, resp.Count)
}

func TestSetServiceState(t *testing.T) {
	s := newTestServer(t)

	t.Run("known service", func(t *testing.T) {
		w := doRequest(t, s, http.MethodPut, "/api/v1/services/GOGL_ANL/state",
			setServiceStateRequest{Active: false}, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var rec struct {
			Active bool `json:"active"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
		assert.False(t, rec.Active)
	})

	t.Run("unknown service is 404", func(t *testing.T) {
		w := doRequest(t, s, http.MethodPut, "/api/v1/services/NO_SUCH/state",
			setServiceStateRequest{Active: true}, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestRecentEvents(t *testing.T) {
	s := newTestServer(t)

	// Generate some trail first.
	doRequest(t, s, http.MethodPost, "/api/v1/navigation/state",
		policy.UserContext{UserID: "u-1", Roles: []string{policy.RoleAdmin}}, nil)

	w := doRequest(t, s, http.MethodGet, "/api/v1/events?limit=3", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Count)
}

func TestSystemLoad(t *testing.T) {
	s := newTestServer(t)

	doRequest(t, s, http.MethodPost, "/api/v1/navigation/state",
		policy.UserContext{UserID: "u-1", Roles: []string{policy.RoleAdmin}}, nil)

	w := doRequest(t, s, http.MethodGet, "/api/v1/telemetry/load", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]float64
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.InDelta(t, 0.1, resp["system_load"], 1e-9)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(1, 2)

	assert.True(t, rl.Allow("client-a"))
	assert.True(t, rl.Allow("client-a"))
	assert.False(t, rl.Allow("client-a"), "burst exhausted")

	// Separate clients have separate buckets.
	assert.True(t, rl.Allow("client-b"))
}

func TestParseUserToken(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		signed := signTestToken(t, UserClaims{
			Roles:    []string{"viewer"},
			TenantID: "t-1",
			Locale:   "EU",
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "u-7",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		})

		user, err := ParseUserToken(testSecret, signed)
		require.NoError(t, err)
		assert.Equal(t, "u-7", user.UserID)
		assert.Equal(t, []string{"viewer"}, user.Roles)
		assert.Equal(t, "EU", user.Locale)
	})

	t.Run("wrong secret rejected", func(t *testing.T) {
		signed := signTestToken(t, UserClaims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "u-8"},
		})
		_, err := ParseUserToken("different-secret", signed)
		assert.Error(t, err)
	})

	t.Run("expired token rejected", func(t *testing.T) {
		signed := signTestToken(t, UserClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "u-9",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			},
		})
		_, err := ParseUserToken(testSecret, signed)
		assert.Error(t, err)
	})
}
