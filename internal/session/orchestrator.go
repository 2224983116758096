package session

import (
	"context"
	"time"

	"scoutpulse-platform/internal/autherr"
	"scoutpulse-platform/internal/metrics"
	"scoutpulse-platform/pkg/logger"
)

// Options tune the graceful-degradation behavior of Resolve.
type Options struct {
	// AllowAnonymous grants content access to unauthenticated callers.
	AllowAnonymous bool
	// UseCachedUser permits degraded continuation from the cached snapshot
	// after a failed refresh.
	UseCachedUser bool
	// RetryOnNavigation schedules another refresh attempt on the caller's
	// next navigation after a failure.
	RetryOnNavigation bool
	// ShowErrorBanner surfaces a visible banner instead of failing silently.
	ShowErrorBanner bool
	// CacheMaxAge bounds how old a cached snapshot may be for degraded use.
	CacheMaxAge time.Duration
}

// DefaultOptions is the behavior interactive callers want: degrade before
// redirecting, retry later, tell the user.
func DefaultOptions() Options {
	return Options{
		UseCachedUser:     true,
		RetryOnNavigation: true,
		ShowErrorBanner:   true,
		CacheMaxAge:       5 * time.Minute,
	}
}

// Actions is the explicit plan callers must branch on. UI and API callers
// behave identically because neither inspects the error ad hoc.
type Actions struct {
	ShouldRedirectToLogin bool `json:"shouldRedirectToLogin"`
	ShouldShowBanner      bool `json:"shouldShowBanner"`
	ShouldRetryRefresh    bool `json:"shouldRetryRefresh"`
	CanAccessContent      bool `json:"canAccessContent"`
}

// Outcome is the final resolution of an authentication attempt.
// Degraded means content access is granted from a cached identity even
// though the caller is not currently authenticated against the backend.
type Outcome struct {
	Authenticated bool
	User          *User
	Session       *Session
	Degraded      bool
	Err           *autherr.Error
	Actions       Actions
}

// Resolve decides the authentication outcome for an access token and
// optional refresh token: authenticated, degraded-but-usable, or
// unauthenticated, each with an action plan.
//
// The decision regions, in order:
//  1. no token / malformed token: unauthenticated
//  2. live token: authenticated, flagging proactive refresh near expiry
//  3. expired token, refresh succeeds: authenticated on the new token
//  4. expired token, refresh fails, fresh cached snapshot: degraded
//  5. everything else: unauthenticated
func Resolve(
	ctx context.Context,
	accessToken, refreshToken string,
	v Validator,
	r Refresher,
	cache *UserCache,
	opts Options,
	cfg Config,
) Outcome {
	cfg = cfg.withDefaults()
	log := logger.From(ctx)

	// No token at all.
	if accessToken == "" {
		log.Debug("no access token provided")
		return unauthenticated(autherr.New(autherr.KindTokenMissing), opts, false)
	}

	validation := Validate(ctx, accessToken, v, cfg)

	if validation.Valid && validation.User != nil && validation.Session != nil {
		return authenticated(ctx, validation, cache)
	}

	// Expired with a refresh token in hand: try to mint a new pair.
	if validation.IsExpired && refreshToken != "" {
		log.Debug("access token expired, attempting refresh")

		refreshResult := RefreshWithRetry(ctx, refreshToken, r, cfg)
		if refreshResult.Success && refreshResult.AccessToken != "" {
			revalidation := Validate(ctx, refreshResult.AccessToken, v, cfg)
			if revalidation.Valid && revalidation.User != nil {
				return authenticated(ctx, revalidation, cache)
			}
		}

		// Refresh failed; degrade onto the cached snapshot if permitted.
		if opts.UseCachedUser {
			if cached, ok := cache.GetWithin(ctx, opts.CacheMaxAge); ok {
				log.Info("degraded continuation from cached user after refresh failure")
				metrics.RecordOutcome("degraded")
				return Outcome{
					User:     cached,
					Degraded: true,
					Err:      firstErr(refreshResult.Err, validation.Err),
					Actions: Actions{
						ShouldShowBanner:   opts.ShowErrorBanner,
						ShouldRetryRefresh: opts.RetryOnNavigation,
						CanAccessContent:   true,
					},
				}
			}
		}

		// No usable cache.
		metrics.RecordOutcome("unauthenticated")
		return Outcome{
			Err: firstErr(refreshResult.Err, validation.Err),
			Actions: Actions{
				ShouldRedirectToLogin: !opts.AllowAnonymous,
				ShouldShowBanner:      opts.ShowErrorBanner && opts.AllowAnonymous,
				ShouldRetryRefresh:    opts.RetryOnNavigation,
				CanAccessContent:      opts.AllowAnonymous,
			},
		}
	}

	// Structurally invalid token, or a backend rejection with nothing to
	// refresh with.
	return unauthenticated(validation.Err, opts, opts.ShowErrorBanner && opts.AllowAnonymous)
}

func authenticated(ctx context.Context, v ValidationResult, cache *UserCache) Outcome {
	// Write-through on every successful authentication; degraded mode can
	// only ever serve what was authenticated recently.
	if v.User != nil {
		cache.Put(ctx, *v.User)
	}
	metrics.RecordOutcome("authenticated")
	return Outcome{
		Authenticated: true,
		User:          v.User,
		Session:       v.Session,
		Actions: Actions{
			ShouldRetryRefresh: v.ShouldRefresh,
			CanAccessContent:   true,
		},
	}
}

func unauthenticated(err *autherr.Error, opts Options, banner bool) Outcome {
	metrics.RecordOutcome("unauthenticated")
	return Outcome{
		Err: err,
		Actions: Actions{
			ShouldRedirectToLogin: !opts.AllowAnonymous,
			ShouldShowBanner:      banner,
			CanAccessContent:      opts.AllowAnonymous,
		},
	}
}

func firstErr(errs ...*autherr.Error) *autherr.Error {
	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	return nil
}
