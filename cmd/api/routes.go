package main

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"scoutpulse-platform/internal/audit"
	"scoutpulse-platform/internal/httpapi"
	"scoutpulse-platform/internal/identity"
	"scoutpulse-platform/internal/metrics"
	"scoutpulse-platform/internal/rbac"
	"scoutpulse-platform/internal/session"
	"scoutpulse-platform/pkg/utils"
)

type registerDeps struct {
	identity       *identity.Service
	sessionCfg     session.Config
	audit          *audit.Service
	db             *sql.DB
	snapshots      session.Store
	snapshotMaxAge time.Duration
}

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, deps registerDeps) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		if deps.db != nil {
			if err := utils.HealthCheck(c.Request.Context(), deps.db, 2*time.Second); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	h := httpapi.Handlers{
		Identity:       deps.identity,
		SessionCfg:     deps.sessionCfg,
		Audit:          deps.audit,
		SnapshotStore:  deps.snapshots,
		SnapshotMaxAge: deps.snapshotMaxAge,
	}

	v1 := r.Group("/v1")
	{
		// Token endpoints are public by nature: login carries no session yet,
		// refresh and logout authenticate via the refresh token itself.
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/login", h.Login)
			authGroup.POST("/refresh", h.Refresh)
			authGroup.POST("/logout", h.Logout)
		}

		protected := v1.Group("")
		protected.Use(httpapi.RequireSession(deps.identity, deps.sessionCfg))
		{
			protected.GET("/me", h.Me)
		}

		// ADMIN routes. Only admin can revoke another user's sessions.
		admin := v1.Group("/admin")
		admin.Use(httpapi.RequireSession(deps.identity, deps.sessionCfg))
		admin.Use(rbac.RequireAnyRole(rbac.RoleAdmin))
		{
			admin.POST("/users/:user_id/sessions/revoke", h.AdminRevokeSessions)
		}
	}
}
