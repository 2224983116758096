package session

import (
	"context"
	"math/rand"
	"time"

	"github.com/sethvargo/go-retry"

	"scoutpulse-platform/internal/autherr"
	"scoutpulse-platform/internal/metrics"
	"scoutpulse-platform/pkg/logger"
)

// refreshTerminal reports whether a refresh failure can never succeed on
// retry without external intervention. Rate limits are handled separately:
// they are not terminal, but hammering a rate limiter is itself abusive, so
// they also stop the loop.
func refreshTerminal(err *autherr.Error) bool {
	switch err.Kind {
	case autherr.KindRefreshTokenInvalid,
		autherr.KindRefreshTokenExpired,
		autherr.KindTokenInvalid,
		autherr.KindTokenRevoked,
		autherr.KindMFARequired:
		return true
	default:
		return false
	}
}

// backoffSchedule yields baseDelay * 2^(attempt-1) + jitter, jitter drawn
// from [0, 100ms).
func backoffSchedule(cfg Config) retry.Backoff {
	jitter := cfg.jitter
	if jitter == nil {
		jitter = func() time.Duration {
			return time.Duration(rand.Int63n(100)) * time.Millisecond
		}
	}
	attempt := 0
	return retry.BackoffFunc(func() (time.Duration, bool) {
		delay := cfg.BaseRetryDelay * time.Duration(1<<attempt)
		attempt++
		return delay + jitter(), false
	})
}

// RefreshWithRetry attempts a token refresh up to cfg.MaxRefreshRetries
// times. Terminal and rate-limited failures return immediately; transient
// network/server failures back off exponentially and retry. On exhaustion
// the last observed error is returned as a failed result.
func RefreshWithRetry(ctx context.Context, refreshToken string, r Refresher, cfg Config) RefreshResult {
	cfg = cfg.withDefaults()
	log := logger.From(ctx)

	var last RefreshResult
	attempts := 0

	backoff := retry.WithMaxRetries(uint64(cfg.MaxRefreshRetries-1), backoffSchedule(cfg))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		log.Debug("token refresh attempt", "attempt", attempts, "max", cfg.MaxRefreshRetries)

		result, err := r.RefreshToken(ctx, refreshToken)
		if err != nil {
			// The port itself failed; normalize and treat as transient
			// unless the normalized kind says otherwise.
			ae := autherr.Normalize(err)
			last = RefreshResult{Err: ae}
			if refreshTerminal(ae) || ae.Kind.IsRateLimit() {
				return ae
			}
			return retry.RetryableError(ae)
		}

		if result.Success {
			last = result
			return nil
		}

		if result.Err == nil {
			result.Err = autherr.New(autherr.KindRefreshTokenInvalid)
		}
		last = result

		if refreshTerminal(result.Err) {
			result.Err.Log(log, "token refresh failed with terminal error")
			return result.Err
		}
		if result.Err.Kind.IsRateLimit() {
			result.Err.Log(log, "token refresh rate limited")
			return result.Err
		}
		return retry.RetryableError(result.Err)
	})

	metrics.ObserveRefreshAttempts(attempts, err == nil)

	if err == nil {
		log.Info("token refresh successful", "attempts", attempts)
		return last
	}

	if ctx.Err() != nil && last.Err == nil {
		// Caller abandoned the refresh mid-flight.
		last.Err = autherr.Wrap(autherr.KindServerError, ctx.Err())
	}
	last.Success = false
	if last.Err == nil {
		last.Err = autherr.New(autherr.KindRefreshTokenInvalid)
	}
	last.Err.Log(log, "token refresh failed")
	return last
}
