package session

import (
	"context"
	"time"

	"scoutpulse-platform/internal/autherr"
)

// Session is a read-through copy of a backend session. The identity backend
// owns it; the core never mutates one, only replaces it wholesale after a
// successful refresh.
type Session struct {
	ID             string            `json:"id"`
	UserID         string            `json:"user_id"`
	AccessToken    string            `json:"access_token"`
	RefreshToken   string            `json:"refresh_token"`
	ExpiresAt      time.Time         `json:"expires_at"`
	CreatedAt      time.Time         `json:"created_at"`
	LastActivityAt time.Time         `json:"last_activity_at"`
	UserAgent      string            `json:"user_agent,omitempty"`
	IPAddress      string            `json:"ip_address,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// User is the backend-owned identity record.
type User struct {
	ID            string            `json:"id"`
	Email         string            `json:"email"`
	Role          string            `json:"role"`
	EmailVerified bool              `json:"email_verified"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// ValidationResult is the outcome of a single validation call.
type ValidationResult struct {
	Valid         bool
	Session       *Session
	User          *User
	Err           *autherr.Error
	ShouldRefresh bool
	IsExpired     bool
}

// RefreshResult is the outcome of a token refresh.
type RefreshResult struct {
	Success      bool
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	Err          *autherr.Error
}

// Validator is the session-validation port implemented by the identity
// backend. Implementations own their network timeouts; calls are independently
// idempotent and may run concurrently.
type Validator interface {
	// ValidateToken performs the authoritative check of an access token.
	ValidateToken(ctx context.Context, token string) (ValidationResult, error)
	// GetSession fetches a session by id; nil with no error means not found.
	GetSession(ctx context.Context, sessionID string) (*Session, error)
	// GetUser fetches a user by id; nil with no error means not found.
	GetUser(ctx context.Context, userID string) (*User, error)
}

// Refresher is the token-refresh port implemented by the identity backend.
type Refresher interface {
	RefreshToken(ctx context.Context, refreshToken string) (RefreshResult, error)
}
