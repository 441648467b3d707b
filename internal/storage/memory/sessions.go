package memory

import (
	"context"
	"sync"
	"time"

	"github.com/web3events/server/internal/domain/sessions"
)

type SessionRepository struct {
	mu    sync.Mutex
	rows  map[string]sessions.Session
	clock func() time.Time
}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{
		rows:  make(map[string]sessions.Session),
		clock: time.Now,
	}
}

var _ sessions.Repository = (*SessionRepository)(nil)

func (r *SessionRepository) Create(ctx context.Context, session sessions.Session) (*sessions.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = r.clock()
	}
	r.rows[session.ID] = session
	return &session, nil
}

func (r *SessionRepository) GetByToken(ctx context.Context, token string) (*sessions.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.Token == token {
			row := row
			return &row, nil
		}
	}
	return nil, sessions.ErrNotFound
}

func (r *SessionRepository) DeactivateForUser(ctx context.Context, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var affected int64
	for id, row := range r.rows {
		if row.UserID == userID && row.IsActive {
			row.IsActive = false
			r.rows[id] = row
			affected++
		}
	}
	return affected, nil
}

func (r *SessionRepository) DeactivateByToken(ctx context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, row := range r.rows {
		if row.Token == token {
			row.IsActive = false
			r.rows[id] = row
			return nil
		}
	}
	return sessions.ErrNotFound
}

func (r *SessionRepository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var affected int64
	for id, row := range r.rows {
		if row.IsActive && row.ExpiresAt.Before(now) {
			row.IsActive = false
			r.rows[id] = row
			affected++
		}
	}
	return affected, nil
}

// ActiveCount reports currently active sessions. Test helper.
func (r *SessionRepository) ActiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, row := range r.rows {
		if row.IsActive {
			count++
		}
	}
	return count
}
