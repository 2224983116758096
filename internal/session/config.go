package session

import "time"

// Config controls session validation and token refresh behavior.
// Values are fixed at construction; there is no runtime mutation.
type Config struct {
	// AccessTokenTTL is the expected lifetime of access tokens.
	AccessTokenTTL time.Duration
	// RefreshTokenTTL is the expected lifetime of refresh tokens.
	RefreshTokenTTL time.Duration
	// RefreshThreshold is how long before expiry a proactive refresh fires.
	RefreshThreshold time.Duration
	// MaxRefreshRetries bounds refresh attempts against transient failures.
	MaxRefreshRetries int
	// BaseRetryDelay seeds the exponential backoff between refresh attempts.
	BaseRetryDelay time.Duration
	// InactivityTimeout expires sessions with no recent activity.
	InactivityTimeout time.Duration
	// AutoRefresh arms the manager's proactive refresh timer.
	AutoRefresh bool

	// jitter overrides the backoff jitter source; tests pin it to zero.
	jitter func() time.Duration
	// clock is injectable for deterministic tests.
	clock func() time.Time
}

func (c Config) now() time.Time {
	if c.clock != nil {
		return c.clock()
	}
	return time.Now().UTC()
}

// DefaultConfig mirrors production defaults: short-lived access tokens,
// week-long refresh tokens, refresh five minutes ahead of expiry.
func DefaultConfig() Config {
	return Config{
		AccessTokenTTL:    15 * time.Minute,
		RefreshTokenTTL:   7 * 24 * time.Hour,
		RefreshThreshold:  5 * time.Minute,
		MaxRefreshRetries: 3,
		BaseRetryDelay:    time.Second,
		InactivityTimeout: 30 * time.Minute,
		AutoRefresh:       true,
	}
}

func (c Config) withDefaults() Config {
	out := c
	if out.AccessTokenTTL <= 0 {
		out.AccessTokenTTL = 15 * time.Minute
	}
	if out.RefreshTokenTTL <= 0 {
		out.RefreshTokenTTL = 7 * 24 * time.Hour
	}
	if out.RefreshThreshold <= 0 {
		out.RefreshThreshold = 5 * time.Minute
	}
	if out.MaxRefreshRetries <= 0 {
		out.MaxRefreshRetries = 3
	}
	if out.BaseRetryDelay <= 0 {
		out.BaseRetryDelay = time.Second
	}
	if out.InactivityTimeout <= 0 {
		out.InactivityTimeout = 30 * time.Minute
	}
	return out
}
