package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"scoutpulse-platform/internal/session"
)

// Status is the lifecycle state of an account.
type Status string

const (
	StatusActive   Status = "active"
	StatusDisabled Status = "disabled"
	StatusLocked   Status = "locked"
)

// User is the persisted account record. Credential verification happens
// upstream; this service only tracks account state and session lifecycle.
type User struct {
	ID             string
	Email          string
	Role           string
	Status         Status
	EmailVerified  bool
	DisabledReason string
	LockedUntil    time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// StoredSession is the persisted session record. Only a hash of the refresh
// token is stored; the raw token exists solely in the client's hands.
type StoredSession struct {
	ID               string
	UserID           string
	RefreshTokenHash string
	CreatedAt        time.Time
	ExpiresAt        time.Time
	LastActivityAt   time.Time
	RevokedAt        *time.Time
	UserAgent        string
	IPAddress        string
}

// Active reports whether the session is live at the given instant.
func (s StoredSession) Active(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}

func (u User) toPort() *session.User {
	return &session.User{
		ID:            u.ID,
		Email:         u.Email,
		Role:          u.Role,
		EmailVerified: u.EmailVerified,
	}
}

func (s StoredSession) toPort() *session.Session {
	return &session.Session{
		ID:             s.ID,
		UserID:         s.UserID,
		ExpiresAt:      s.ExpiresAt,
		CreatedAt:      s.CreatedAt,
		LastActivityAt: s.LastActivityAt,
		UserAgent:      s.UserAgent,
		IPAddress:      s.IPAddress,
	}
}

// hashToken derives the storage key for a refresh token. SHA-256 is enough:
// the input is a high-entropy signed token, not a password.
func hashToken(tok string) string {
	sum := sha256.Sum256([]byte(tok))
	return hex.EncodeToString(sum[:])
}
