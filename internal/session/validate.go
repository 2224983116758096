package session

import (
	"context"

	"scoutpulse-platform/internal/autherr"
	"scoutpulse-platform/internal/token"
	"scoutpulse-platform/pkg/logger"
)

// Validate runs the cheap local checks first and only then consults the
// backend. Port failures are normalized into the taxonomy; raw backend
// errors never escape.
func Validate(ctx context.Context, tok string, v Validator, cfg Config) ValidationResult {
	cfg = cfg.withDefaults()
	now := cfg.now()

	if tok == "" {
		return ValidationResult{Err: autherr.New(autherr.KindTokenMissing)}
	}

	claims := token.Decode(tok)
	if claims == nil {
		return ValidationResult{Err: autherr.NewMsg(autherr.KindTokenInvalid, "Malformed token")}
	}

	if token.IsExpired(tok, 0, now) {
		return ValidationResult{IsExpired: true, Err: autherr.New(autherr.KindTokenExpired)}
	}

	shouldRefresh := token.ShouldRefresh(tok, cfg.RefreshThreshold, now)

	result, err := v.ValidateToken(ctx, tok)
	if err != nil {
		ae := autherr.Normalize(err)
		ae.Log(logger.From(ctx), "session validation failed")
		return ValidationResult{Err: ae}
	}
	if !result.Valid {
		if result.Err == nil {
			result.Err = autherr.New(autherr.KindSessionInvalid)
		}
		return result
	}

	return ValidationResult{
		Valid:         true,
		Session:       result.Session,
		User:          result.User,
		ShouldRefresh: shouldRefresh,
	}
}

// ValidateByID resolves a session by id, checking absolute expiry, the
// inactivity timeout, and that the owning user still exists.
func ValidateByID(ctx context.Context, sessionID string, v Validator, cfg Config) ValidationResult {
	cfg = cfg.withDefaults()
	now := cfg.now()

	if sessionID == "" {
		return ValidationResult{Err: autherr.New(autherr.KindSessionNotFound)}
	}

	sess, err := v.GetSession(ctx, sessionID)
	if err != nil {
		ae := autherr.Normalize(err)
		ae.Log(logger.From(ctx), "session lookup failed")
		return ValidationResult{Err: ae}
	}
	if sess == nil {
		return ValidationResult{Err: autherr.New(autherr.KindSessionNotFound)}
	}

	if !now.Before(sess.ExpiresAt) {
		return ValidationResult{IsExpired: true, Err: autherr.New(autherr.KindSessionExpired)}
	}
	if now.Sub(sess.LastActivityAt) > cfg.InactivityTimeout {
		return ValidationResult{IsExpired: true, Err: autherr.New(autherr.KindSessionExpired)}
	}

	user, err := v.GetUser(ctx, sess.UserID)
	if err != nil {
		ae := autherr.Normalize(err)
		ae.Log(logger.From(ctx), "user lookup failed")
		return ValidationResult{Err: ae}
	}
	if user == nil {
		return ValidationResult{Err: autherr.New(autherr.KindSessionNotFound)}
	}

	return ValidationResult{
		Valid:         true,
		Session:       sess,
		User:          user,
		ShouldRefresh: sess.ExpiresAt.Sub(now) <= cfg.RefreshThreshold,
	}
}
