package audit

import "time"

// Event is an immutable, append-only audit log record for authentication
// activity.
//
// Invariants:
// - Events are never updated or deleted.
// - Capture is best-effort; do not block auth flows on audit failures.
//
// Storage recommendation (Postgres):
// - Table auth_events with an INSERT-only policy.
// - Optional: trigger to prevent UPDATE/DELETE.
// - Optional: partition by time for retention.

type Event struct {
	ID string `json:"id" db:"id"`

	// Type indicates the category of the audit record.
	Type EventType `json:"type" db:"type"`

	// UserID is the account the event concerns, when known. Login attempts
	// against unknown emails have no user id, and the attempted address is
	// never recorded: the trail must not become an account-enumeration oracle.
	UserID string `json:"user_id,omitempty" db:"user_id"`
	// SessionID is the session touched by the event, if any.
	SessionID string `json:"session_id,omitempty" db:"session_id"`

	// ActorRole records the caller's role for admin-initiated events.
	ActorRole string `json:"actor_role,omitempty" db:"actor_role"`

	// IPAddress should capture the original client IP when available.
	// Prefer X-Forwarded-For processing at the edge; store the resolved client IP here.
	IPAddress string `json:"ip_address,omitempty" db:"ip_address"`
	UserAgent string `json:"user_agent,omitempty" db:"user_agent"`

	// Message is a short human-readable description for internal ops.
	Message string `json:"message,omitempty" db:"message"`

	// Metadata is optional JSON for full details.
	Metadata string `json:"metadata,omitempty" db:"metadata"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type EventType string

const (
	EventTypeLogin           EventType = "login"
	EventTypeLoginFailed     EventType = "login_failed"
	EventTypeLogout          EventType = "logout"
	EventTypeRefresh         EventType = "refresh"
	EventTypeSessionsRevoked EventType = "sessions_revoked"
)
