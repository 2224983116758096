package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"scoutpulse-platform/internal/audit"
	"scoutpulse-platform/internal/config"
	"scoutpulse-platform/internal/identity"
	"scoutpulse-platform/internal/session"
	"scoutpulse-platform/internal/token"
	"scoutpulse-platform/pkg/logger"
	"scoutpulse-platform/pkg/utils"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Optional .env for local development; real environments set env directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	issuer, err := token.NewIssuer(token.IssuerConfig{
		Secret:     cfg.Auth.JWTSecret,
		Issuer:     cfg.Auth.JWTIssuer,
		Audience:   cfg.Auth.JWTAudience,
		AccessTTL:  cfg.Auth.AccessTokenTTL,
		RefreshTTL: cfg.Auth.RefreshTokenTTL,
	})
	if err != nil {
		log.Error("token issuer init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	auditSvc := audit.NewService(audit.NewPostgresRepo(db))

	store := identity.NewPostgresStore(db)
	sessionCap := identity.NewSessionCap(rdb, cfg.Session.MaxSessionsPerUser, cfg.Auth.RefreshTokenTTL)
	ident := identity.NewService(store, issuer, sessionCap, identity.Config{
		SessionTTL:         cfg.Auth.RefreshTokenTTL,
		MaxSessionsPerUser: cfg.Session.MaxSessionsPerUser,
	})

	sessionCfg := session.Config{
		AccessTokenTTL:    cfg.Auth.AccessTokenTTL,
		RefreshTokenTTL:   cfg.Auth.RefreshTokenTTL,
		RefreshThreshold:  cfg.Session.RefreshThreshold,
		MaxRefreshRetries: cfg.Session.MaxRefreshRetries,
		BaseRetryDelay:    cfg.Session.BaseRetryDelay,
		InactivityTimeout: cfg.Session.InactivityTimeout,
		AutoRefresh:       cfg.Session.AutoRefresh,
	}

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, registerDeps{
		identity:       ident,
		sessionCfg:     sessionCfg,
		audit:          auditSvc,
		db:             db,
		snapshots:      session.NewRedisStore(rdb, cfg.App.Env),
		snapshotMaxAge: cfg.Session.CacheMaxAge,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}

	_ = logger.ShutdownFlush(shutdownCtx, 2*time.Second)
}
