// Package stream publishes freshly recorded anomalies to downstream review
// tooling. Delivery is best-effort over a buffered channel drained by a
// background worker; the durable record in the anomaly store is the source of
// truth, so a full buffer or a dead broker drops to a log line and never
// blocks the request path.
package stream

import (
	"context"
	"log/slog"
	"time"
)

// Event is the wire envelope for one recorded anomaly.
type Event struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Severity    string    `json:"severity"`
	Reason      string    `json:"reason"`
	IdentityRef string    `json:"identity_ref,omitempty"`
	SessionRef  string    `json:"session_ref,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// Sink delivers events to the broker.
type Sink interface {
	Send(ctx context.Context, event Event) error
}

// Publisher accepts events without blocking and hands them to the worker.
type Publisher struct {
	inbox  chan Event
	logger *slog.Logger
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithLogger sets the logger for drop and delivery warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// NewPublisher constructs a publisher with the given inbox capacity.
func NewPublisher(buffer int, opts ...Option) *Publisher {
	if buffer <= 0 {
		buffer = 256
	}
	publisher := &Publisher{inbox: make(chan Event, buffer)}
	for _, opt := range opts {
		opt(publisher)
	}
	return publisher
}

// Publish enqueues one event. Never blocks; a full inbox drops the event.
func (p *Publisher) Publish(event Event) {
	select {
	case p.inbox <- event:
	default:
		if p.logger != nil {
			p.logger.Warn("anomaly stream inbox full, event dropped",
				"anomaly_id", event.ID,
				"type", event.Type,
			)
		}
	}
}

// Run drains the inbox into the sink until the context is cancelled. Send
// failures are logged and the event abandoned; the store already holds it.
func (p *Publisher) Run(ctx context.Context, sink Sink) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-p.inbox:
			if err := sink.Send(ctx, event); err != nil {
				if p.logger != nil {
					p.logger.WarnContext(ctx, "anomaly stream delivery failed",
						"anomaly_id", event.ID,
						"error", err.Error(),
					)
				}
			}
		}
	}
}
