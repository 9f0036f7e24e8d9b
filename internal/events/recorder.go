package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxRetained is the hard cap on the in-memory event log. Once the log is
// full, the oldest record is evicted on every append.
const MaxRetained = 100

// Record is a single immutable entry in the event log.
type Record struct {
	ID        uuid.UUID              `json:"id"`
	Timestamp time.Time              `json:"timestamp"`
	Name      string                 `json:"event_name"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// Recorder keeps a bounded, ordered log of system events and forwards each
// record to an external sink. The log lives for the process lifetime; eviction
// is FIFO and is policy, not an error.
type Recorder struct {
	mu      sync.RWMutex
	entries []Record

	logger  *zap.Logger
	forward chan Record
}

// NewRecorder creates a recorder forwarding to sink. A nil sink disables
// forwarding. Forwarding runs on a detached worker so a slow or failing sink
// never delays Record callers.
func NewRecorder(logger *zap.Logger, sink Sink) *Recorder {
	r := &Recorder{
		entries: make([]Record, 0, MaxRetained),
		logger:  logger,
	}
	if sink != nil {
		r.forward = make(chan Record, 256)
		go r.forwardLoop(sink)
	}
	return r
}

// Record appends an event with the current timestamp, evicting the oldest
// entry when the log is full. The forward to the sink is fire-and-forget:
// a full buffer drops the forward, never the log entry.
func (r *Recorder) Record(ctx context.Context, name string, details map[string]interface{}) {
	rec := Record{
		ID:        uuid.New(),
		Timestamp: time.Now().UTC(),
		Name:      name,
		Details:   details,
	}

	r.mu.Lock()
	r.entries = append(r.entries, rec)
	if len(r.entries) > MaxRetained {
		r.entries = r.entries[1:]
	}
	r.mu.Unlock()

	if r.forward != nil {
		select {
		case r.forward <- rec:
		default:
			r.logger.Warn("event forward buffer full, dropping forward",
				zap.String("event", name))
		}
	}
}

// RecentEvents returns up to count of the most recent records, newest first.
// The returned slice is a copy; the log is not mutated.
func (r *Recorder) RecentEvents(count int) []Record {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if count <= 0 {
		return nil
	}
	if count > len(r.entries) {
		count = len(r.entries)
	}

	out := make([]Record, 0, count)
	for i := len(r.entries) - 1; i >= len(r.entries)-count; i-- {
		out = append(out, r.entries[i])
	}
	return out
}

// Len returns the current log length.
func (r *Recorder) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

func (r *Recorder) forwardLoop(sink Sink) {
	for rec := range r.forward {
		if err := sink.Forward(context.Background(), rec); err != nil {
			// Forwarding is best-effort: log and move on.
			r.logger.Debug("event forward failed",
				zap.String("event", rec.Name),
				zap.Error(err))
		}
	}
}
