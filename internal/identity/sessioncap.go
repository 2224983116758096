package identity

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"scoutpulse-platform/pkg/utils"
)

const sessionCapPrefix = "auth:sessions:"

// SessionCap bounds the number of concurrently active sessions per user
// using an atomic redis counter. The counter TTL matches the refresh token
// lifetime so crashed logouts can not pin a slot forever.
//
// A nil client disables the redis path; the service then falls back to
// counting live sessions in the store.
type SessionCap struct {
	rdb   *redis.Client
	limit int
	ttl   time.Duration
}

func NewSessionCap(rdb *redis.Client, limit int, ttl time.Duration) *SessionCap {
	return &SessionCap{rdb: rdb, limit: limit, ttl: ttl}
}

// Limit returns the configured maximum. Zero means unlimited.
func (c *SessionCap) Limit() int {
	if c == nil {
		return 0
	}
	return c.limit
}

// Enabled reports whether the redis-backed cap is in effect.
func (c *SessionCap) Enabled() bool {
	return c != nil && c.rdb != nil && c.limit > 0
}

// Acquire claims a session slot for the user. ok=false means the cap is hit.
func (c *SessionCap) Acquire(ctx context.Context, userID string) (bool, error) {
	if c == nil || c.rdb == nil || c.limit <= 0 {
		return true, nil
	}
	return utils.AcquireConcurrencyCap(ctx, c.rdb, sessionCapPrefix+userID, c.limit, c.ttl)
}

// Release frees a previously acquired slot. Safe to call on logout even if
// the counter already expired.
func (c *SessionCap) Release(ctx context.Context, userID string) error {
	if c == nil || c.rdb == nil || c.limit <= 0 {
		return nil
	}
	return utils.ReleaseConcurrencyCap(ctx, c.rdb, sessionCapPrefix+userID)
}
