package events

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Sink receives forwarded event records. Implementations must tolerate being
// called from a single background goroutine; no acknowledgment is required
// for correctness.
type Sink interface {
	Forward(ctx context.Context, rec Record) error
}

// ZapSink writes each forwarded record to a structured logger.
type ZapSink struct {
	logger *zap.Logger
}

func NewZapSink(logger *zap.Logger) *ZapSink {
	return &ZapSink{logger: logger}
}

func (s *ZapSink) Forward(_ context.Context, rec Record) error {
	data, err := json.Marshal(rec.Details)
	if err != nil {
		return fmt.Errorf("marshal event details: %w", err)
	}
	s.logger.Info("event",
		zap.String("event", rec.Name),
		zap.Time("at", rec.Timestamp),
		zap.String("details", string(data)),
	)
	return nil
}

// HTTPSink posts each record as JSON to a remote logging endpoint. Errors are
// returned to the forward worker, which logs and drops them.
type HTTPSink struct {
	endpoint string
	client   *http.Client
}

func NewHTTPSink(endpoint string, timeout time.Duration) *HTTPSink {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &HTTPSink{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

func (s *HTTPSink) Forward(ctx context.Context, rec Record) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build forward request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("forward event: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("forward event: sink returned %d", resp.StatusCode)
	}
	return nil
}
