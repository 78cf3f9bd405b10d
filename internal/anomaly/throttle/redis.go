package throttle

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	id "rollcall/pkg/domain"
)

// RedisCounter keeps per-pair failure timestamps in a sorted set scored by
// unix nanoseconds. Count prunes entries older than the window and returns
// the remainder; keys expire on their own once attempts stop. Semantics match
// the store-backed counter exactly; only the latency differs.
type RedisCounter struct {
	client *redis.Client
	// retention bounds key lifetime; set it to the throttle window.
	retention time.Duration
}

// NewRedisCounter constructs the Redis counter. retention should equal the
// throttle window so stale keys vanish without a sweeper.
func NewRedisCounter(client *redis.Client, retention time.Duration) *RedisCounter {
	return &RedisCounter{client: client, retention: retention}
}

func (c *RedisCounter) key(identityID id.IdentityID, sessionID id.SessionID) string {
	return fmt.Sprintf("rollcall:throttle:%s:%s", identityID, sessionID)
}

func (c *RedisCounter) Count(ctx context.Context, identityID id.IdentityID, sessionID id.SessionID, since time.Time) (int, error) {
	key := c.key(identityID, sessionID)

	pipe := c.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "-inf", "("+strconv.FormatInt(since.UnixNano(), 10))
	card := pipe.ZCard(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("count throttle failures: %w", err)
	}
	return int(card.Val()), nil
}

func (c *RedisCounter) Record(ctx context.Context, identityID id.IdentityID, sessionID id.SessionID, at time.Time) error {
	key := c.key(identityID, sessionID)
	score := at.UnixNano()

	pipe := c.client.TxPipeline()
	pipe.ZAdd(ctx, key, redis.Z{
		Score: float64(score),
		// Nanosecond member keeps same-instant failures distinct.
		Member: strconv.FormatInt(score, 10),
	})
	pipe.Expire(ctx, key, c.retention)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record throttle failure: %w", err)
	}
	return nil
}
