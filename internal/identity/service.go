package identity

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"scoutpulse-platform/internal/autherr"
	"scoutpulse-platform/internal/session"
	"scoutpulse-platform/internal/token"
	"scoutpulse-platform/pkg/logger"
)

// Config controls session issuance behavior.
type Config struct {
	// SessionTTL is the absolute session lifetime (refresh token lifetime).
	SessionTTL time.Duration
	// MaxSessionsPerUser caps concurrently active sessions. Zero disables.
	MaxSessionsPerUser int

	clock func() time.Time
}

func (c Config) withDefaults() Config {
	out := c
	if out.SessionTTL <= 0 {
		out.SessionTTL = 7 * 24 * time.Hour
	}
	return out
}

func (c Config) now() time.Time {
	if c.clock != nil {
		return c.clock()
	}
	return time.Now().UTC()
}

// Service is the identity backend: it owns users and sessions, mints token
// pairs, and implements the validation and refresh ports.
type Service struct {
	store  Store
	issuer *token.Issuer
	cap    *SessionCap
	cfg    Config
}

func NewService(store Store, issuer *token.Issuer, sessionCap *SessionCap, cfg Config) *Service {
	return &Service{store: store, issuer: issuer, cap: sessionCap, cfg: cfg.withDefaults()}
}

// LoginInput identifies an account whose credentials were already verified
// upstream. Password checking is not this service's concern.
type LoginInput struct {
	Email     string
	UserAgent string
	IPAddress string
}

// LoginResult is a freshly issued session with its token pair.
type LoginResult struct {
	User    *session.User
	Session *session.Session
	Pair    token.Pair
}

// Login resolves the account, enforces account state and the per-user
// session cap, and issues a new session with a token pair.
func (s *Service) Login(ctx context.Context, in LoginInput) (LoginResult, *autherr.Error) {
	log := logger.From(ctx)
	now := s.cfg.now()

	if details := autherr.ValidateEmail(in.Email); len(details) > 0 {
		return LoginResult{}, autherr.NewMultiValidation(details)
	}

	u, err := s.store.GetUserByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			ae := autherr.NewEmailNotFound(in.Email)
			ae.Log(log, "login rejected")
			return LoginResult{}, ae
		}
		return LoginResult{}, autherr.Wrap(autherr.KindDatabaseError, err)
	}

	if ae := s.accountState(u, now); ae != nil {
		ae.Log(log, "login rejected")
		return LoginResult{}, ae
	}

	var ok bool
	if s.cap.Enabled() {
		ok, err = s.cap.Acquire(ctx, u.ID)
		if err != nil {
			// Redis down must not lock everyone out; fall back to the store count.
			log.Warn("session cap check degraded to store count", "error", err)
			ok, err = s.capFromStore(ctx, u.ID, now)
		}
	} else {
		ok, err = s.capFromStore(ctx, u.ID, now)
	}
	if err != nil {
		return LoginResult{}, autherr.Wrap(autherr.KindDatabaseError, err)
	}
	if !ok {
		return LoginResult{}, autherr.New(autherr.KindTooManySessions)
	}

	result, aerr := s.issueSession(ctx, u, in.UserAgent, in.IPAddress, now)
	if aerr != nil {
		_ = s.cap.Release(ctx, u.ID)
		return LoginResult{}, aerr
	}

	log.Info("session issued", "user_id", u.ID, "session_id", result.Session.ID)
	return result, nil
}

func (s *Service) capFromStore(ctx context.Context, userID string, now time.Time) (bool, error) {
	limit := s.cap.Limit()
	if limit <= 0 {
		limit = s.cfg.MaxSessionsPerUser
	}
	if limit <= 0 {
		return true, nil
	}
	n, err := s.store.CountActiveSessions(ctx, userID, now)
	if err != nil {
		return false, err
	}
	return n < limit, nil
}

func (s *Service) issueSession(ctx context.Context, u User, userAgent, ip string, now time.Time) (LoginResult, *autherr.Error) {
	sessionID := uuid.NewString()
	pair, err := s.issuer.IssuePairForSession(now, sessionID, u.ID, u.Email, u.Role)
	if err != nil {
		return LoginResult{}, autherr.Wrap(autherr.KindServerError, err)
	}

	stored := StoredSession{
		ID:               sessionID,
		UserID:           u.ID,
		RefreshTokenHash: hashToken(pair.RefreshToken),
		CreatedAt:        now,
		ExpiresAt:        pair.RefreshExpiresAt,
		LastActivityAt:   now,
		UserAgent:        userAgent,
		IPAddress:        ip,
	}
	if err := s.store.CreateSession(ctx, stored); err != nil {
		return LoginResult{}, autherr.Wrap(autherr.KindDatabaseError, err)
	}

	sess := stored.toPort()
	sess.AccessToken = pair.AccessToken
	sess.RefreshToken = pair.RefreshToken
	sess.ExpiresAt = pair.AccessExpiresAt

	return LoginResult{User: u.toPort(), Session: sess, Pair: pair}, nil
}

// accountState maps a user's lifecycle state to the matching failure.
func (s *Service) accountState(u User, now time.Time) *autherr.Error {
	switch u.Status {
	case StatusDisabled:
		return autherr.NewAccountDisabled(u.DisabledReason)
	case StatusLocked:
		if u.LockedUntil.IsZero() || u.LockedUntil.After(now) {
			return autherr.NewAccountLocked(u.LockedUntil, now)
		}
		// Lock has lapsed.
	}
	if !u.EmailVerified {
		return autherr.New(autherr.KindAccountNotVerified)
	}
	return nil
}

// ValidateToken implements session.Validator. It verifies the access token
// signature and claims, then confirms the account is still in good standing.
func (s *Service) ValidateToken(ctx context.Context, tok string) (session.ValidationResult, error) {
	now := s.cfg.now()

	claims, err := s.issuer.Verify(tok, token.TypeAccess, now)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return session.ValidationResult{IsExpired: true, Err: autherr.New(autherr.KindTokenExpired)}, nil
		}
		return session.ValidationResult{Err: autherr.Wrap(autherr.KindTokenInvalid, err)}, nil
	}

	u, err := s.store.GetUserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return session.ValidationResult{Err: autherr.New(autherr.KindSessionInvalid)}, nil
		}
		return session.ValidationResult{}, err
	}
	if ae := s.accountState(u, now); ae != nil {
		return session.ValidationResult{Err: ae}, nil
	}

	return session.ValidationResult{
		Valid: true,
		User:  u.toPort(),
		Session: &session.Session{
			ID:          claims.ID,
			UserID:      u.ID,
			AccessToken: tok,
			ExpiresAt:   claims.ExpiresAt.Time,
			CreatedAt:   claims.IssuedAt.Time,
		},
	}, nil
}

// GetSession implements session.Validator. Revoked sessions read as absent.
func (s *Service) GetSession(ctx context.Context, sessionID string) (*session.Session, error) {
	stored, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if stored.RevokedAt != nil {
		return nil, nil
	}
	return stored.toPort(), nil
}

// GetUser implements session.Validator.
func (s *Service) GetUser(ctx context.Context, userID string) (*session.User, error) {
	u, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return u.toPort(), nil
}

// RefreshToken implements session.Refresher: verify the refresh token,
// confirm the stored session is live, then rotate the pair atomically.
// Presenting an already-rotated token revokes every session for the user,
// since it means the token leaked or a client replayed it.
func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (session.RefreshResult, error) {
	log := logger.From(ctx)
	now := s.cfg.now()

	claims, err := s.issuer.Verify(refreshToken, token.TypeRefresh, now)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return session.RefreshResult{Err: autherr.New(autherr.KindRefreshTokenExpired)}, nil
		}
		return session.RefreshResult{Err: autherr.Wrap(autherr.KindRefreshTokenInvalid, err)}, nil
	}

	stored, err := s.store.GetSessionByTokenHash(ctx, hashToken(refreshToken))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return session.RefreshResult{Err: autherr.New(autherr.KindRefreshTokenInvalid)}, nil
		}
		return session.RefreshResult{}, err
	}

	if stored.RevokedAt != nil {
		// Reuse of a rotated token. Treat the whole session family as
		// compromised.
		n, rerr := s.store.RevokeUserSessions(ctx, stored.UserID, now)
		if rerr != nil {
			log.Error("failed to revoke sessions after refresh token reuse", "error", rerr)
		} else {
			log.Warn("refresh token reuse detected, revoked all sessions",
				"user_id", stored.UserID, "revoked", n)
		}
		return session.RefreshResult{Err: autherr.New(autherr.KindTokenRevoked)}, nil
	}
	if !now.Before(stored.ExpiresAt) {
		return session.RefreshResult{Err: autherr.New(autherr.KindRefreshTokenExpired)}, nil
	}

	u, err := s.store.GetUserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return session.RefreshResult{Err: autherr.New(autherr.KindRefreshTokenInvalid)}, nil
		}
		return session.RefreshResult{}, err
	}
	if ae := s.accountState(u, now); ae != nil {
		return session.RefreshResult{Err: ae}, nil
	}

	nextID := uuid.NewString()
	pair, err := s.issuer.IssuePairForSession(now, nextID, u.ID, u.Email, u.Role)
	if err != nil {
		return session.RefreshResult{}, err
	}

	next := StoredSession{
		ID:               nextID,
		UserID:           u.ID,
		RefreshTokenHash: hashToken(pair.RefreshToken),
		CreatedAt:        now,
		ExpiresAt:        pair.RefreshExpiresAt,
		LastActivityAt:   now,
		UserAgent:        stored.UserAgent,
		IPAddress:        stored.IPAddress,
	}
	if err := s.store.RotateSession(ctx, stored.ID, next); err != nil {
		if errors.Is(err, ErrNotFound) {
			// Lost the rotation race; the winner's tokens are authoritative.
			return session.RefreshResult{Err: autherr.New(autherr.KindTokenRevoked)}, nil
		}
		return session.RefreshResult{}, err
	}

	log.Info("session rotated", "user_id", u.ID, "session_id", next.ID)
	return session.RefreshResult{
		Success:      true,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.AccessExpiresAt,
	}, nil
}

// Logout revokes the session belonging to the presented refresh token and
// frees its cap slot. Unknown or already-revoked tokens are a no-op:
// logout is idempotent. The revoked session is returned when one existed.
func (s *Service) Logout(ctx context.Context, refreshToken string) (*StoredSession, error) {
	now := s.cfg.now()

	stored, err := s.store.GetSessionByTokenHash(ctx, hashToken(refreshToken))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if stored.RevokedAt != nil {
		return nil, nil
	}

	if err := s.store.RevokeSession(ctx, stored.ID, now); err != nil {
		return nil, err
	}
	if err := s.cap.Release(ctx, stored.UserID); err != nil {
		logger.From(ctx).Warn("session cap release failed", "error", err)
	}
	return &stored, nil
}

// RevokeAllSessions revokes every live session for a user and returns the
// count. The cap counter is left to expire on its own TTL.
func (s *Service) RevokeAllSessions(ctx context.Context, userID string) (int, error) {
	return s.store.RevokeUserSessions(ctx, userID, s.cfg.now())
}

// TouchSession records activity on a session, feeding the inactivity check.
func (s *Service) TouchSession(ctx context.Context, sessionID string) error {
	return s.store.TouchSession(ctx, sessionID, s.cfg.now())
}

var (
	_ session.Validator = (*Service)(nil)
	_ session.Refresher = (*Service)(nil)
)
