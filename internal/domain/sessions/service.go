package sessions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/web3events/server/internal/domain/ids"
)

var (
	ErrNotFound = errors.New("session not found")
	ErrExpired  = errors.New("session expired or inactive")
)

type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	IsActive  bool
	CreatedAt time.Time
}

type Repository interface {
	Create(ctx context.Context, session Session) (*Session, error)
	GetByToken(ctx context.Context, token string) (*Session, error)
	DeactivateForUser(ctx context.Context, userID string) (int64, error)
	DeactivateByToken(ctx context.Context, token string) error
	// DeactivateExpired flips is_active on sessions whose expiry has passed.
	// It touches only already-expired rows, so it is safe to run concurrently
	// with logins.
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
}

// Service tracks server-side session rows. Tokens are self-contained JWTs;
// the rows exist so logins displace prior sessions and the sweep can report
// what it retired.
type Service struct {
	repo   Repository
	expiry time.Duration
	logger zerolog.Logger
}

func NewService(repo Repository, expiry time.Duration, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		expiry: expiry,
		logger: logger.With().Str("component", "sessions").Logger(),
	}
}

// Begin deactivates any active sessions for the user, then records a new one.
// At most one session per user is active after a login.
func (s *Service) Begin(ctx context.Context, userID, token string) (*Session, error) {
	if _, err := s.repo.DeactivateForUser(ctx, userID); err != nil {
		return nil, fmt.Errorf("deactivate previous sessions: %w", err)
	}

	id, err := ids.NewULID()
	if err != nil {
		return nil, fmt.Errorf("mint session id: %w", err)
	}
	session, err := s.repo.Create(ctx, Session{
		ID:        id,
		UserID:    userID,
		Token:     token,
		ExpiresAt: time.Now().Add(s.expiry).UTC(),
		IsActive:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

// Validate returns the session for a token if it is active and unexpired.
func (s *Service) Validate(ctx context.Context, token string) (*Session, error) {
	session, err := s.repo.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if !session.IsActive || session.ExpiresAt.Before(time.Now()) {
		return nil, ErrExpired
	}
	return session, nil
}

// End deactivates the session for a token. Missing sessions are not an
// error; logout must be idempotent.
func (s *Service) End(ctx context.Context, token string) error {
	if err := s.repo.DeactivateByToken(ctx, token); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("end session: %w", err)
	}
	return nil
}

// SweepExpired deactivates all expired sessions and returns how many rows it
// touched.
func (s *Service) SweepExpired(ctx context.Context) (int64, error) {
	swept, err := s.repo.DeactivateExpired(ctx, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("sweep sessions: %w", err)
	}
	if swept > 0 {
		s.logger.Info().Int64("deactivated", swept).Msg("swept expired sessions")
	}
	return swept, nil
}
