package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit events.
//
// It MUST be append-only.
// No Update/Delete methods are provided by design.

type Repository interface {
	Append(ctx context.Context, e Event) error
}

// Service logs internal audit information.
//
// IMPORTANT:
// - Audit is internal-only. Do not expose these records to end users by default.
// - Callers should treat audit logging as best-effort.

type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s == nil || s.repo == nil {
		// Audit not configured; events are dropped silently.
		return nil
	}
	if e.Type == "" {
		return ErrInvalidEvent
	}

	now := s.clock().UTC()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	return s.repo.Append(ctx, e)
}

// LogLogin records a successful session issuance.
func (s *Service) LogLogin(ctx context.Context, userID, sessionID, ip, userAgent string) error {
	return s.Append(ctx, Event{
		Type:      EventTypeLogin,
		UserID:    userID,
		SessionID: sessionID,
		IPAddress: ip,
		UserAgent: userAgent,
	})
}

// LogLoginFailed records a rejected login with the rejection code.
// The email is deliberately not stored for unknown accounts.
func (s *Service) LogLoginFailed(ctx context.Context, userID, ip, userAgent, code string) error {
	return s.Append(ctx, Event{
		Type:      EventTypeLoginFailed,
		UserID:    userID,
		IPAddress: ip,
		UserAgent: userAgent,
		Message:   code,
	})
}

// LogLogout records a session revocation by its owner.
func (s *Service) LogLogout(ctx context.Context, userID, sessionID, ip string) error {
	return s.Append(ctx, Event{
		Type:      EventTypeLogout,
		UserID:    userID,
		SessionID: sessionID,
		IPAddress: ip,
	})
}

// LogSessionsRevoked records a bulk revocation, typically admin-initiated
// or triggered by refresh token reuse.
func (s *Service) LogSessionsRevoked(ctx context.Context, userID, actorRole, ip, reason string) error {
	return s.Append(ctx, Event{
		Type:      EventTypeSessionsRevoked,
		UserID:    userID,
		ActorRole: actorRole,
		IPAddress: ip,
		Message:   reason,
	})
}
