package throttle_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rollcall/internal/anomaly"
	"rollcall/internal/anomaly/throttle"
	id "rollcall/pkg/domain"
	"rollcall/pkg/requestcontext"
)

const (
	window      = 30 * time.Minute
	maxFailures = 3
)

func insertFailure(t *testing.T, store *anomaly.InMemoryStore, identityID id.IdentityID, sessionID id.SessionID, at time.Time) {
	t.Helper()
	require.NoError(t, store.Insert(context.Background(), &anomaly.Record{
		ID:         id.NewAnomalyID(),
		IdentityID: identityID,
		SessionID:  sessionID,
		Type:       anomaly.TypeVerificationFailed,
		Reason:     "single-factor verification failed: face",
		OccurredAt: at,
	}))
}

func TestBlockedAtLimit(t *testing.T) {
	store := anomaly.NewInMemoryStore()
	limiter, err := throttle.New(throttle.NewStoreCounter(store), window, maxFailures)
	require.NoError(t, err)

	now := time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), now)
	identityID, sessionID := id.NewIdentityID(), id.NewSessionID()

	for i := 0; i < maxFailures; i++ {
		blocked, err := limiter.Blocked(ctx, identityID, sessionID)
		require.NoError(t, err)
		assert.False(t, blocked, "attempt %d should pass", i+1)
		insertFailure(t, store, identityID, sessionID, now.Add(time.Duration(i)*time.Minute))
	}

	// The fourth attempt hits the limit.
	blocked, err := limiter.Blocked(ctx, identityID, sessionID)
	require.NoError(t, err)
	assert.True(t, blocked)
}

func TestBlockedScopedToPair(t *testing.T) {
	store := anomaly.NewInMemoryStore()
	limiter, err := throttle.New(throttle.NewStoreCounter(store), window, maxFailures)
	require.NoError(t, err)

	now := time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), now)
	identityID, sessionID := id.NewIdentityID(), id.NewSessionID()

	for i := 0; i < maxFailures; i++ {
		insertFailure(t, store, identityID, sessionID, now)
	}

	// Same identity, another session: unaffected.
	blocked, err := limiter.Blocked(ctx, identityID, id.NewSessionID())
	require.NoError(t, err)
	assert.False(t, blocked)

	// Another identity in the same session: unaffected.
	blocked, err = limiter.Blocked(ctx, id.NewIdentityID(), sessionID)
	require.NoError(t, err)
	assert.False(t, blocked)
}

func TestBlockedWindowExpiry(t *testing.T) {
	store := anomaly.NewInMemoryStore()
	limiter, err := throttle.New(throttle.NewStoreCounter(store), window, maxFailures)
	require.NoError(t, err)

	now := time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)
	identityID, sessionID := id.NewIdentityID(), id.NewSessionID()

	for i := 0; i < maxFailures; i++ {
		insertFailure(t, store, identityID, sessionID, now)
	}

	ctx := requestcontext.WithTime(context.Background(), now)
	blocked, err := limiter.Blocked(ctx, identityID, sessionID)
	require.NoError(t, err)
	assert.True(t, blocked)

	// Once the failures age past the window the pair unblocks on its own.
	later := requestcontext.WithTime(context.Background(), now.Add(window+time.Second))
	blocked, err = limiter.Blocked(later, identityID, sessionID)
	require.NoError(t, err)
	assert.False(t, blocked)
}

func TestNewValidation(t *testing.T) {
	counter := throttle.NewStoreCounter(anomaly.NewInMemoryStore())

	_, err := throttle.New(nil, window, maxFailures)
	require.Error(t, err)

	_, err = throttle.New(counter, 0, maxFailures)
	require.Error(t, err)

	_, err = throttle.New(counter, window, 0)
	require.Error(t, err)
}

func TestStoreCounterRecordIsNoOp(t *testing.T) {
	store := anomaly.NewInMemoryStore()
	counter := throttle.NewStoreCounter(store)

	// The ledger's durable anomaly insert is the count source; Record must
	// not introduce a second tally.
	require.NoError(t, counter.Record(context.Background(), id.NewIdentityID(), id.NewSessionID(), time.Now()))

	count, err := counter.Count(context.Background(), id.NewIdentityID(), id.NewSessionID(), time.Time{})
	require.NoError(t, err)
	assert.Zero(t, count)
}
