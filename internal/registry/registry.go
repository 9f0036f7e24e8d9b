package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/FairForge/aethernav/internal/events"
	"go.uber.org/zap"
)

// ErrServiceNotFound is returned when a toggle targets an unknown service id.
var ErrServiceNotFound = errors.New("registry: service not found")

// EventStatusUpdate is recorded on every toggle, before the call returns.
const EventStatusUpdate = "SVC_STAT_UPD"

// Category classifies an external integration.
type Category string

const (
	CategoryAIIntegration        Category = "ai-integration"
	CategoryDataSignal           Category = "data-signal"
	CategorySecurityPolicy       Category = "security-policy"
	CategoryFinancialOperation   Category = "financial-operation"
	CategoryEcommerceIntegration Category = "ecommerce-integration"
	CategoryCloudInfra           Category = "cloud-infra"
	CategoryDevOps               Category = "dev-ops"
	CategoryCRM                  Category = "crm"
	CategoryCommunication        Category = "communication-notification"
	CategoryOther                Category = "other"
)

// ServiceRecord describes one external integration. Records are seeded once
// at startup; only the active flag and its change timestamp mutate afterwards,
// and only through SetActive.
type ServiceRecord struct {
	ID               string     `json:"id" yaml:"id"`
	DisplayName      string     `json:"display_name" yaml:"display_name"`
	Category         Category   `json:"category" yaml:"category"`
	Endpoint         string     `json:"endpoint" yaml:"endpoint"`
	Active           bool       `json:"active" yaml:"active"`
	LastStatusChange *time.Time `json:"last_status_change,omitempty" yaml:"-"`
	LatencyMs        *float64   `json:"latency_ms,omitempty" yaml:"-"`
}

// Registry is the catalog of external integrations. The catalog is fixed at
// construction: no runtime add or remove, toggle only.
type Registry struct {
	mu      sync.RWMutex
	order   []string
	records map[string]*ServiceRecord

	recorder *events.Recorder
	logger   *zap.Logger
}

// New seeds a registry from the given catalog. Duplicate ids are a wiring
// error and fail construction.
func New(recorder *events.Recorder, logger *zap.Logger, catalog []ServiceRecord) (*Registry, error) {
	if recorder == nil {
		return nil, errors.New("registry: event recorder is required")
	}

	r := &Registry{
		order:    make([]string, 0, len(catalog)),
		records:  make(map[string]*ServiceRecord, len(catalog)),
		recorder: recorder,
		logger:   logger,
	}
	for i := range catalog {
		rec := catalog[i]
		if _, dup := r.records[rec.ID]; dup {
			return nil, fmt.Errorf("registry: duplicate service id %q", rec.ID)
		}
		r.records[rec.ID] = &rec
		r.order = append(r.order, rec.ID)
	}
	return r, nil
}

// List returns the catalog in seed order. The returned records are copies;
// mutation goes through SetActive only.
func (r *Registry) List() []ServiceRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ServiceRecord, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.records[id])
	}
	return out
}

// Get returns a copy of one record.
func (r *Registry) Get(id string) (ServiceRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[id]
	if !ok {
		return ServiceRecord{}, ErrServiceNotFound
	}
	return *rec, nil
}

// SetActive toggles a service. The state-change event is recorded before the
// call returns; repeat toggles to the same value still re-stamp the change
// time and append a fresh event. Racing toggles on the same id apply
// last-write-wins.
func (r *Registry) SetActive(ctx context.Context, id string, active bool) error {
	r.mu.Lock()
	rec, ok := r.records[id]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrServiceNotFound, id)
	}

	previous := rec.Active
	now := time.Now().UTC()
	rec.Active = active
	rec.LastStatusChange = &now
	r.mu.Unlock()

	r.recorder.Record(ctx, EventStatusUpdate, map[string]interface{}{
		"serviceId":     id,
		"previousState": previous,
		"newState":      active,
	})
	r.logger.Info("service status updated",
		zap.String("service_id", id),
		zap.Bool("previous", previous),
		zap.Bool("active", active),
	)
	return nil
}
