package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/web3events/server/internal/domain/sessions"
)

const sessionColumns = `id, user_id, token, expires_at, is_active, created_at`

func (r *SessionRepository) Create(ctx context.Context, session sessions.Session) (*sessions.Session, error) {
	row := r.queryer().QueryRow(ctx, `
INSERT INTO sessions (id, user_id, token, expires_at, is_active)
VALUES ($1, $2, $3, $4, $5)
RETURNING `+sessionColumns+`
`, session.ID, session.UserID, session.Token, session.ExpiresAt, session.IsActive)
	return scanSession(row)
}

func (r *SessionRepository) GetByToken(ctx context.Context, token string) (*sessions.Session, error) {
	row := r.queryer().QueryRow(ctx, `
SELECT `+sessionColumns+`
  FROM sessions
 WHERE token = $1
`, token)
	return scanSession(row)
}

func (r *SessionRepository) DeactivateForUser(ctx context.Context, userID string) (int64, error) {
	tag, err := r.queryer().Exec(ctx, `
UPDATE sessions SET is_active = FALSE WHERE user_id = $1 AND is_active
`, userID)
	if err != nil {
		return 0, fmt.Errorf("deactivate sessions for user: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *SessionRepository) DeactivateByToken(ctx context.Context, token string) error {
	_, err := r.queryer().Exec(ctx, `
UPDATE sessions SET is_active = FALSE WHERE token = $1
`, token)
	if err != nil {
		return fmt.Errorf("deactivate session: %w", err)
	}
	return nil
}

func (r *SessionRepository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.queryer().Exec(ctx, `
UPDATE sessions SET is_active = FALSE WHERE is_active AND expires_at < $1
`, now)
	if err != nil {
		return 0, fmt.Errorf("deactivate expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanSession(row pgx.Row) (*sessions.Session, error) {
	var session sessions.Session
	if err := row.Scan(
		&session.ID,
		&session.UserID,
		&session.Token,
		&session.ExpiresAt,
		&session.IsActive,
		&session.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sessions.ErrNotFound
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}
	return &session, nil
}
