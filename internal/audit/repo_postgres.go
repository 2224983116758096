package audit

import (
	"context"
	"database/sql"
)

// PostgresRepo appends events to the auth_events table.
// The table must carry an INSERT-only policy; see models.go.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Append(ctx context.Context, e Event) error {
	const q = `
INSERT INTO auth_events (
  id, type, user_id, session_id, actor_role, ip_address, user_agent, message, metadata, created_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10
)
`
	_, err := r.db.ExecContext(ctx, q,
		e.ID,
		e.Type,
		e.UserID,
		e.SessionID,
		e.ActorRole,
		e.IPAddress,
		e.UserAgent,
		e.Message,
		e.Metadata,
		e.CreatedAt,
	)
	return err
}
