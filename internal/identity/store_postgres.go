package identity

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"scoutpulse-platform/pkg/utils"
)

// NOTE: This store assumes the following tables exist:
// - users (id, email UNIQUE, role, status, email_verified, disabled_reason,
//   locked_until, created_at, updated_at)
// - sessions (id, user_id, refresh_token_hash UNIQUE, created_at, expires_at,
//   last_activity_at, revoked_at, user_agent, ip_address)
//
// refresh_token_hash carries a UNIQUE constraint so a rotated token can never
// be re-inserted.

// PostgresStore implements Store over database/sql with the pgx stdlib driver.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	const q = `
SELECT id, email, role, status, email_verified, disabled_reason, locked_until, created_at, updated_at
FROM users
WHERE lower(email) = lower($1)
`
	return s.scanUser(s.db.QueryRowContext(ctx, q, email))
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (User, error) {
	const q = `
SELECT id, email, role, status, email_verified, disabled_reason, locked_until, created_at, updated_at
FROM users
WHERE id = $1
`
	return s.scanUser(s.db.QueryRowContext(ctx, q, id))
}

func (s *PostgresStore) scanUser(row *sql.Row) (User, error) {
	var (
		u              User
		disabledReason sql.NullString
		lockedUntil    sql.NullTime
	)
	if err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Role,
		&u.Status,
		&u.EmailVerified,
		&disabledReason,
		&lockedUntil,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	u.DisabledReason = disabledReason.String
	if lockedUntil.Valid {
		u.LockedUntil = lockedUntil.Time
	}
	return u, nil
}

func (s *PostgresStore) CreateSession(ctx context.Context, sess StoredSession) error {
	const q = `
INSERT INTO sessions (
  id, user_id, refresh_token_hash, created_at, expires_at, last_activity_at, revoked_at, user_agent, ip_address
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9
)
`
	_, err := s.db.ExecContext(ctx, q,
		sess.ID,
		sess.UserID,
		sess.RefreshTokenHash,
		sess.CreatedAt,
		sess.ExpiresAt,
		sess.LastActivityAt,
		sess.RevokedAt,
		sess.UserAgent,
		sess.IPAddress,
	)
	return err
}

func (s *PostgresStore) GetSession(ctx context.Context, id string) (StoredSession, error) {
	const q = `
SELECT id, user_id, refresh_token_hash, created_at, expires_at, last_activity_at, revoked_at, user_agent, ip_address
FROM sessions
WHERE id = $1
`
	return scanSession(s.db.QueryRowContext(ctx, q, id))
}

func (s *PostgresStore) GetSessionByTokenHash(ctx context.Context, hash string) (StoredSession, error) {
	const q = `
SELECT id, user_id, refresh_token_hash, created_at, expires_at, last_activity_at, revoked_at, user_agent, ip_address
FROM sessions
WHERE refresh_token_hash = $1
`
	return scanSession(s.db.QueryRowContext(ctx, q, hash))
}

func scanSession(row *sql.Row) (StoredSession, error) {
	var (
		sess      StoredSession
		revokedAt sql.NullTime
		userAgent sql.NullString
		ipAddress sql.NullString
	)
	if err := row.Scan(
		&sess.ID,
		&sess.UserID,
		&sess.RefreshTokenHash,
		&sess.CreatedAt,
		&sess.ExpiresAt,
		&sess.LastActivityAt,
		&revokedAt,
		&userAgent,
		&ipAddress,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return StoredSession{}, ErrNotFound
		}
		return StoredSession{}, err
	}
	if revokedAt.Valid {
		t := revokedAt.Time
		sess.RevokedAt = &t
	}
	sess.UserAgent = userAgent.String
	sess.IPAddress = ipAddress.String
	return sess, nil
}

// RotateSession revokes the old session and inserts its replacement in one
// transaction. The row lock on the old session serializes concurrent rotation
// attempts with the same refresh token; the loser sees revoked_at set and the
// service maps that to a revoked-token failure.
func (s *PostgresStore) RotateSession(ctx context.Context, oldID string, next StoredSession) error {
	return utils.WithTx(ctx, s.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		const lockQ = `
SELECT revoked_at
FROM sessions
WHERE id = $1
FOR UPDATE
`
		var revokedAt sql.NullTime
		if err := tx.QueryRowContext(ctx, lockQ, oldID).Scan(&revokedAt); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if revokedAt.Valid {
			return ErrNotFound
		}

		const revokeQ = `UPDATE sessions SET revoked_at = $2 WHERE id = $1`
		if _, err := tx.ExecContext(ctx, revokeQ, oldID, next.CreatedAt); err != nil {
			return err
		}

		const insertQ = `
INSERT INTO sessions (
  id, user_id, refresh_token_hash, created_at, expires_at, last_activity_at, revoked_at, user_agent, ip_address
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9
)
`
		_, err := tx.ExecContext(ctx, insertQ,
			next.ID,
			next.UserID,
			next.RefreshTokenHash,
			next.CreatedAt,
			next.ExpiresAt,
			next.LastActivityAt,
			next.RevokedAt,
			next.UserAgent,
			next.IPAddress,
		)
		return err
	})
}

func (s *PostgresStore) TouchSession(ctx context.Context, id string, at time.Time) error {
	const q = `UPDATE sessions SET last_activity_at = $2 WHERE id = $1 AND revoked_at IS NULL`
	_, err := s.db.ExecContext(ctx, q, id, at)
	return err
}

func (s *PostgresStore) RevokeSession(ctx context.Context, id string, at time.Time) error {
	const q = `UPDATE sessions SET revoked_at = $2 WHERE id = $1 AND revoked_at IS NULL`
	_, err := s.db.ExecContext(ctx, q, id, at)
	return err
}

func (s *PostgresStore) RevokeUserSessions(ctx context.Context, userID string, at time.Time) (int, error) {
	const q = `UPDATE sessions SET revoked_at = $2 WHERE user_id = $1 AND revoked_at IS NULL`
	res, err := s.db.ExecContext(ctx, q, userID, at)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (s *PostgresStore) CountActiveSessions(ctx context.Context, userID string, now time.Time) (int, error) {
	const q = `
SELECT count(*)
FROM sessions
WHERE user_id = $1 AND revoked_at IS NULL AND expires_at > $2
`
	var n int
	if err := s.db.QueryRowContext(ctx, q, userID, now).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
