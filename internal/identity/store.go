package identity

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a user or session does not exist.
var ErrNotFound = errors.New("identity: not found")

// Store persists users and sessions. Implementations must make
// RotateSession atomic: the old session is revoked and the replacement
// inserted in one transaction, so a crash can not leave both live.
type Store interface {
	GetUserByEmail(ctx context.Context, email string) (User, error)
	GetUserByID(ctx context.Context, id string) (User, error)

	CreateSession(ctx context.Context, s StoredSession) error
	GetSession(ctx context.Context, id string) (StoredSession, error)
	GetSessionByTokenHash(ctx context.Context, hash string) (StoredSession, error)
	RotateSession(ctx context.Context, oldID string, next StoredSession) error
	TouchSession(ctx context.Context, id string, at time.Time) error
	RevokeSession(ctx context.Context, id string, at time.Time) error
	RevokeUserSessions(ctx context.Context, userID string, at time.Time) (int, error)
	CountActiveSessions(ctx context.Context, userID string, now time.Time) (int, error)
}
