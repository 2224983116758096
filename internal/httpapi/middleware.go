package httpapi

import (
	"context"

	"github.com/gin-gonic/gin"

	"scoutpulse-platform/internal/autherr"
	"scoutpulse-platform/internal/metrics"
	"scoutpulse-platform/internal/session"
	"scoutpulse-platform/pkg/logger"
)

// activityRecorder is implemented by validators that track per-session
// activity for the inactivity timeout.
type activityRecorder interface {
	TouchSession(ctx context.Context, sessionID string) error
}

// RequireSession validates the request credential and injects identity into
// the request context. Failures are written as normalized taxonomy responses;
// no raw backend error ever reaches a client.
func RequireSession(v session.Validator, cfg session.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, user, aerr := session.RequireSession(c.Request.Context(), c.Request.Header, v, cfg)
		if aerr != nil {
			abortWithError(c, aerr)
			return
		}

		ctx := WithIdentity(c.Request.Context(), user, sess)
		c.Request = c.Request.WithContext(ctx)

		// Slide the inactivity window; a failed touch must not fail the
		// request.
		if rec, ok := v.(activityRecorder); ok && sess != nil && sess.ID != "" {
			if err := rec.TouchSession(ctx, sess.ID); err != nil {
				logger.From(ctx).Debug("session activity update failed", "error", err)
			}
		}

		// Also store on gin context for handler convenience.
		c.Set("user_id", user.ID)
		c.Set("role", user.Role)

		c.Next()
	}
}

// abortWithError writes the normalized error payload, its mandated headers,
// and records the rejection.
func abortWithError(c *gin.Context, ae *autherr.Error) {
	for k, v := range ae.Headers() {
		c.Header(k, v)
	}
	ae.Log(logger.From(c.Request.Context()), "request rejected")
	metrics.RecordErrorResponse(ae.Status())
	c.AbortWithStatusJSON(ae.Status(), ae.Response())
}
