package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/FairForge/aethernav/internal/events"
	"github.com/FairForge/aethernav/internal/policy"
	"github.com/FairForge/aethernav/internal/registry"
	"github.com/go-chi/chi/v5"
)

// handleNavigationState runs the decision pipeline. The user context comes
// from a bearer token when one is presented, otherwise from the request body.
// Policy denials and reasoning fallbacks are 200s with differentiated
// content; the caller always gets a decision.
func (s *Server) handleNavigationState(w http.ResponseWriter, r *http.Request) {
	user, err := s.userFromRequest(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}

	decision := s.svc.GetNavigationState(r.Context(), user)
	s.respondJSON(w, http.StatusOK, decision)
}

func (s *Server) userFromRequest(r *http.Request) (policy.UserContext, error) {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") && s.cfg.Server.JWTSecret != "" {
		token := strings.TrimPrefix(auth, "Bearer ")
		user, err := ParseUserToken(s.cfg.Server.JWTSecret, token)
		if err != nil {
			return policy.UserContext{}, fmt.Errorf("parse bearer token: %w", err)
		}
		return user, nil
	}

	var user policy.UserContext
	if r.Body == nil || r.ContentLength == 0 {
		return user, nil
	}
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		return policy.UserContext{}, fmt.Errorf("decode user context: %w", err)
	}
	return user, nil
}

func (s *Server) handleListServices(w http.ResponseWriter, _ *http.Request) {
	services := s.svc.Registry().List()
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"services": services,
		"count":    len(services),
	})
}

type setServiceStateRequest struct {
	Active bool `json:"active"`
}

func (s *Server) handleSetServiceState(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req setServiceStateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	if err := s.svc.Registry().SetActive(r.Context(), id, req.Active); err != nil {
		if errors.Is(err, registry.ErrServiceNotFound) {
			s.respondError(w, http.StatusNotFound, err)
			return
		}
		s.respondError(w, http.StatusInternalServerError, err)
		return
	}

	rec, err := s.svc.Registry().Get(id)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err)
		return
	}
	s.respondJSON(w, http.StatusOK, rec)
}

func (s *Server) handleRecentEvents(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 20
	}
	if limit > events.MaxRetained {
		limit = events.MaxRetained
	}

	recent := s.svc.Recorder().RecentEvents(limit)
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"events": recent,
		"count":  len(recent),
	})
}

func (s *Server) handleSystemLoad(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]float64{
		"system_load": s.svc.SystemLoad(),
	})
}
