// Package throttle implements the repeated-failure rate limit: once an
// (identity, session) pair accumulates enough failed verification attempts
// inside a trailing window, further attempts are blocked before any
// comparator work runs.
package throttle

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"rollcall/internal/anomaly"
	id "rollcall/pkg/domain"
	"rollcall/pkg/requestcontext"
)

// Counter is the sliding-window failure count backend. The anomaly store is
// the default source of truth; a Redis counter serves the same port as a
// fast path.
type Counter interface {
	// Count returns the failures for the pair with occurrence time at or
	// after since.
	Count(ctx context.Context, identityID id.IdentityID, sessionID id.SessionID, since time.Time) (int, error)

	// Record notes one failure at the given instant. Backends that derive
	// counts from durable anomaly records may no-op.
	Record(ctx context.Context, identityID id.IdentityID, sessionID id.SessionID, at time.Time) error
}

// Throttle evaluates the block decision against a counter backend.
type Throttle struct {
	counter     Counter
	window      time.Duration
	maxFailures int
	logger      *slog.Logger
}

// Option configures a Throttle.
type Option func(*Throttle)

// WithLogger sets the throttle logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Throttle) {
		t.logger = logger
	}
}

// New constructs a throttle. window is the trailing period failures count
// within; maxFailures is the count at which attempts are blocked.
func New(counter Counter, window time.Duration, maxFailures int, opts ...Option) (*Throttle, error) {
	if counter == nil {
		return nil, errors.New("throttle counter is required")
	}
	if window <= 0 {
		return nil, errors.New("throttle window must be positive")
	}
	if maxFailures < 1 {
		return nil, errors.New("throttle max failures must be at least 1")
	}

	throttle := &Throttle{
		counter:     counter,
		window:      window,
		maxFailures: maxFailures,
	}
	for _, opt := range opts {
		opt(throttle)
	}
	return throttle, nil
}

// Blocked reports whether the pair has reached the failure limit. Evaluated
// before the verification engine runs, so probing attempts cost nothing.
func (t *Throttle) Blocked(ctx context.Context, identityID id.IdentityID, sessionID id.SessionID) (bool, error) {
	now := requestcontext.Now(ctx)
	count, err := t.counter.Count(ctx, identityID, sessionID, now.Add(-t.window))
	if err != nil {
		return false, err
	}

	blocked := count >= t.maxFailures
	if blocked && t.logger != nil {
		t.logger.WarnContext(ctx, "attempt blocked by failure throttle",
			"identity_ref", identityID,
			"session_ref", sessionID,
			"failures", count,
			"window", t.window,
		)
	}
	return blocked, nil
}

// RecordFailure notes one failed attempt for the pair.
func (t *Throttle) RecordFailure(ctx context.Context, identityID id.IdentityID, sessionID id.SessionID) error {
	return t.counter.Record(ctx, identityID, sessionID, requestcontext.Now(ctx))
}

// FailureStore is the slice of the anomaly store the store-backed counter
// needs.
type FailureStore interface {
	CountByTypeSince(ctx context.Context, identityID id.IdentityID, sessionID id.SessionID, anomalyType anomaly.Type, since time.Time) (int, error)
}

// StoreCounter counts verification_failed anomaly records. Record is a no-op:
// the ledger's durable anomaly insert is the count source, so the throttle
// never double-counts.
type StoreCounter struct {
	store FailureStore
}

// NewStoreCounter constructs the anomaly-store-backed counter.
func NewStoreCounter(store FailureStore) *StoreCounter {
	return &StoreCounter{store: store}
}

func (c *StoreCounter) Count(ctx context.Context, identityID id.IdentityID, sessionID id.SessionID, since time.Time) (int, error) {
	return c.store.CountByTypeSince(ctx, identityID, sessionID, anomaly.TypeVerificationFailed, since)
}

func (c *StoreCounter) Record(context.Context, id.IdentityID, id.SessionID, time.Time) error {
	return nil
}
