// Package api exposes the navigation service over HTTP: one decision
// endpoint plus the registry, event-log, and telemetry reads the dashboard
// polls.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/FairForge/aethernav/internal/config"
	"github.com/FairForge/aethernav/internal/metrics"
	"github.com/FairForge/aethernav/internal/nav"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const version = "0.1.0"

type Server struct {
	cfg     *config.Config
	logger  *zap.Logger
	svc     *nav.Service
	metrics *metrics.Metrics
	limiter *RateLimiter

	router     chi.Router
	httpServer *http.Server
	startTime  time.Time
}

func NewServer(cfg *config.Config, logger *zap.Logger, svc *nav.Service, m *metrics.Metrics) *Server {
	s := &Server{
		cfg:       cfg,
		logger:    logger,
		svc:       svc,
		metrics:   m,
		limiter:   NewRateLimiter(cfg.Server.RequestsPerSecond, cfg.Server.Burst),
		router:    chi.NewRouter(),
		startTime: time.Now(),
	}

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.rateLimitMiddleware)

	s.router.Get("/health", s.handleHealth)
	s.router.Get("/ready", s.handleReady)
	s.router.Get("/version", s.handleVersion)
	s.router.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Post("/navigation/state", s.handleNavigationState)
		r.Get("/services", s.handleListServices)
		r.Put("/services/{id}/state", s.handleSetServiceState)
		r.Get("/events", s.handleRecentEvents)
		r.Get("/telemetry/load", s.handleSystemLoad)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"version": version,
		"uptime":  time.Since(s.startTime).Seconds(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"ready": true,
	})
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"version": version,
		"go":      runtime.Version(),
	})
}

// Start runs the HTTP server until Shutdown.
func (s *Server) Start() error {
	s.logger.Info("starting server", zap.Int("port", s.cfg.Server.Port))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api: serve: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Router exposes the handler tree, mainly for tests.
func (s *Server) Router() http.Handler { return s.router }

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, err error) {
	s.logger.Error("API error", zap.Error(err), zap.Int("status", status))
	s.respondJSON(w, status, map[string]string{
		"error": err.Error(),
	})
}
