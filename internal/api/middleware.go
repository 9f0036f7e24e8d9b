package api

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per client address.
type RateLimiter struct {
	mu                sync.Mutex
	limiters          map[string]*rate.Limiter
	requestsPerSecond int
	burstSize         int
}

func NewRateLimiter(requestsPerSecond, burstSize int) *RateLimiter {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 100
	}
	if burstSize <= 0 {
		burstSize = 2 * requestsPerSecond
	}
	return &RateLimiter{
		limiters:          make(map[string]*rate.Limiter),
		requestsPerSecond: requestsPerSecond,
		burstSize:         burstSize,
	}
}

func (rl *RateLimiter) Allow(client string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	// Cap the map so hostile clients cannot grow it without bound.
	if len(rl.limiters) >= 10000 {
		rl.limiters = make(map[string]*rate.Limiter)
	}

	limiter, exists := rl.limiters[client]
	if !exists {
		limiter = rate.NewLimiter(rate.Limit(rl.requestsPerSecond), rl.burstSize)
		rl.limiters[client] = limiter
	}
	return limiter.Allow()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		elapsed := time.Since(start)
		s.metrics.Requests.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(rec.status)).Inc()
		s.metrics.Latency.WithLabelValues(r.Method, r.URL.Path).Observe(elapsed.Seconds())

		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("latency", elapsed),
		)
	})
}

func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		client, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			client = r.RemoteAddr
		}
		if !s.limiter.Allow(client) {
			s.respondJSON(w, http.StatusTooManyRequests, map[string]string{
				"error": "rate limit exceeded",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
