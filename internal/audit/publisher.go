package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Publisher hands events to a Worker through a bounded channel. Emit never
// blocks the request path: when the buffer is full the event is dropped and
// counted.
type Publisher struct {
	inbox   chan Event
	logger  *slog.Logger
	dropped prometheus.Counter
}

// Option configures the Publisher.
type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithRegisterer registers the dropped-events counter on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(p *Publisher) {
		p.dropped = promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "thingapi_audit_events_dropped_total",
			Help: "Lifecycle events dropped because the publish buffer was full",
		})
	}
}

// NewPublisher creates a publisher with the given buffer size.
func NewPublisher(buffer int, opts ...Option) *Publisher {
	if buffer <= 0 {
		buffer = 1
	}
	p := &Publisher{inbox: make(chan Event, buffer)}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit queues an event for delivery.
func (p *Publisher) Emit(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case p.inbox <- event:
	default:
		if p.dropped != nil {
			p.dropped.Inc()
		}
		if p.logger != nil {
			p.logger.WarnContext(ctx, "audit buffer full, dropping event",
				"action", event.Action,
				"record_id", event.RecordID,
				"request_id", event.RequestID,
			)
		}
	}
}

// Events exposes the queue to the worker.
func (p *Publisher) Events() <-chan Event {
	return p.inbox
}
