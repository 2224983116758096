package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"scoutpulse-platform/internal/audit"
	"scoutpulse-platform/internal/autherr"
	"scoutpulse-platform/internal/identity"
	"scoutpulse-platform/internal/session"
	"scoutpulse-platform/pkg/logger"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.

type Handlers struct {
	Identity   *identity.Service
	SessionCfg session.Config
	// Audit is optional; a nil service drops events.
	Audit *audit.Service
	// SnapshotStore is optional. When set, successful logins and refreshes
	// write the user snapshot through to it, and a refresh that fails only
	// because the backend is unavailable answers degraded from the snapshot
	// instead of 5xx.
	SnapshotStore  session.Store
	SnapshotMaxAge time.Duration
}

// snapshotFor scopes the shared store to one refresh token.
func (h Handlers) snapshotFor(refreshToken string) *session.UserCache {
	if h.SnapshotStore == nil {
		return nil
	}
	return session.SnapshotCacheFor(h.SnapshotStore, refreshToken, h.SnapshotMaxAge)
}

type loginRequest struct {
	Email string `json:"email"`
}

// Login issues a session and token pair for an identity already verified
// upstream (SSO or the credential service in front of this API).
func (h Handlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, autherr.New(autherr.KindEmailRequired))
		return
	}

	ctx := c.Request.Context()
	res, aerr := h.Identity.Login(ctx, identity.LoginInput{
		Email:     req.Email,
		UserAgent: c.Request.UserAgent(),
		IPAddress: c.ClientIP(),
	})
	if aerr != nil {
		h.auditErr(h.Audit.LogLoginFailed(ctx, "", c.ClientIP(), c.Request.UserAgent(), aerr.Kind.Code()), c)
		abortWithError(c, aerr)
		return
	}
	h.auditErr(h.Audit.LogLogin(ctx, res.User.ID, res.Session.ID, c.ClientIP(), c.Request.UserAgent()), c)
	h.snapshotFor(res.Pair.RefreshToken).Put(ctx, *res.User)

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"user":          res.User,
		"access_token":  res.Pair.AccessToken,
		"refresh_token": res.Pair.RefreshToken,
		"expires_at":    res.Pair.AccessExpiresAt,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh rotates a token pair. Transient backend failures are retried with
// backoff before the request fails.
func (h Handlers) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		abortWithError(c, autherr.New(autherr.KindRefreshTokenInvalid))
		return
	}

	ctx := c.Request.Context()
	result := session.RefreshWithRetry(ctx, req.RefreshToken, h.Identity, h.SessionCfg)
	if !result.Success {
		// Backend outage, not a bad credential: answer degraded from the
		// last snapshot written for this exact token, if fresh enough.
		if result.Err != nil && result.Err.Kind.Status() >= http.StatusInternalServerError {
			if cached, ok := h.snapshotFor(req.RefreshToken).Get(ctx); ok {
				logger.From(ctx).Info("refresh degraded to cached snapshot",
					"user_id", cached.ID, "kind", result.Err.Kind.Code())
				c.JSON(http.StatusOK, gin.H{
					"success":  false,
					"degraded": true,
					"user":     cached,
				})
				return
			}
		}
		abortWithError(c, result.Err)
		return
	}

	if vr, err := h.Identity.ValidateToken(ctx, result.AccessToken); err == nil && vr.Valid && vr.User != nil {
		h.snapshotFor(result.RefreshToken).Put(ctx, *vr.User)
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"access_token":  result.AccessToken,
		"refresh_token": result.RefreshToken,
		"expires_at":    result.ExpiresAt,
	})
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Logout revokes the presented session. Always succeeds for unknown tokens;
// logout is idempotent.
func (h Handlers) Logout(c *gin.Context) {
	var req logoutRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		abortWithError(c, autherr.New(autherr.KindRefreshTokenInvalid))
		return
	}

	ctx := c.Request.Context()
	revoked, err := h.Identity.Logout(ctx, req.RefreshToken)
	if err != nil {
		abortWithError(c, autherr.Wrap(autherr.KindServerError, err))
		return
	}
	if revoked != nil {
		h.auditErr(h.Audit.LogLogout(ctx, revoked.UserID, revoked.ID, c.ClientIP()), c)
	}
	h.snapshotFor(req.RefreshToken).Clear(ctx)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Me returns the authenticated identity. Requires the session middleware.
func (h Handlers) Me(c *gin.Context) {
	user, err := UserFrom(c.Request.Context())
	if err != nil {
		abortWithError(c, autherr.New(autherr.KindTokenMissing))
		return
	}
	sess, _ := SessionFrom(c.Request.Context())

	out := gin.H{"success": true, "user": user}
	if sess != nil {
		out["session"] = gin.H{"id": sess.ID, "expires_at": sess.ExpiresAt}
	}
	c.JSON(http.StatusOK, out)
}

// AdminRevokeSessions revokes every active session for a user. Chain behind
// the session middleware and an admin role check.
func (h Handlers) AdminRevokeSessions(c *gin.Context) {
	userID := c.Param("user_id")
	if userID == "" {
		abortWithError(c, autherr.NewMsg(autherr.KindSessionNotFound, "user_id required"))
		return
	}

	ctx := c.Request.Context()
	n, err := h.Identity.RevokeAllSessions(ctx, userID)
	if err != nil {
		abortWithError(c, autherr.Wrap(autherr.KindDatabaseError, err))
		return
	}

	actorRole := ""
	if actor, aerr := UserFrom(ctx); aerr == nil {
		actorRole = actor.Role
	}
	h.auditErr(h.Audit.LogSessionsRevoked(ctx, userID, actorRole, c.ClientIP(), "admin revocation"), c)

	c.JSON(http.StatusOK, gin.H{"success": true, "revoked": n})
}

// auditErr logs audit failures without failing the request.
func (h Handlers) auditErr(err error, c *gin.Context) {
	if err != nil {
		logger.From(c.Request.Context()).Warn("audit append failed", "error", err)
	}
}
