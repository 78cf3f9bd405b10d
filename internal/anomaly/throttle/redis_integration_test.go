//go:build integration

package throttle_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rollcall/internal/anomaly/throttle"
	id "rollcall/pkg/domain"
	"rollcall/pkg/requestcontext"
	"rollcall/pkg/testutil/containers"
)

func TestRedisCounterWindowSemantics(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	counter := throttle.NewRedisCounter(rc.Client, window)

	identityID, sessionID := id.NewIdentityID(), id.NewSessionID()
	now := time.Now().UTC()

	require.NoError(t, counter.Record(context.Background(), identityID, sessionID, now.Add(-40*time.Minute)))
	require.NoError(t, counter.Record(context.Background(), identityID, sessionID, now.Add(-10*time.Minute)))
	require.NoError(t, counter.Record(context.Background(), identityID, sessionID, now))

	count, err := counter.Count(context.Background(), identityID, sessionID, now.Add(-window))
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// A different pair is an independent key.
	count, err = counter.Count(context.Background(), identityID, id.NewSessionID(), now.Add(-window))
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestThrottleOverRedis(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	counter := throttle.NewRedisCounter(rc.Client, window)
	limiter, err := throttle.New(counter, window, maxFailures)
	require.NoError(t, err)

	ctx := requestcontext.WithTime(context.Background(), time.Now().UTC())
	identityID, sessionID := id.NewIdentityID(), id.NewSessionID()

	for i := 0; i < maxFailures; i++ {
		blocked, err := limiter.Blocked(ctx, identityID, sessionID)
		require.NoError(t, err)
		assert.False(t, blocked)
		require.NoError(t, limiter.RecordFailure(ctx, identityID, sessionID))
	}

	blocked, err := limiter.Blocked(ctx, identityID, sessionID)
	require.NoError(t, err)
	assert.True(t, blocked)
}
