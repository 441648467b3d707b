package sessions_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/web3events/server/internal/domain/sessions"
	"github.com/web3events/server/internal/storage/memory"
)

func TestBeginDisplacesPriorSession(t *testing.T) {
	repo := memory.NewSessionRepository()
	svc := sessions.NewService(repo, time.Hour, zerolog.Nop())
	ctx := context.Background()

	first, err := svc.Begin(ctx, "u1", "token-1")
	require.NoError(t, err)
	require.True(t, first.IsActive)

	second, err := svc.Begin(ctx, "u1", "token-2")
	require.NoError(t, err)
	require.NotEqual(t, first.ID, second.ID)
	require.Equal(t, 1, repo.ActiveCount(), "at most one active session per user")

	_, err = svc.Validate(ctx, "token-1")
	require.ErrorIs(t, err, sessions.ErrExpired)

	current, err := svc.Validate(ctx, "token-2")
	require.NoError(t, err)
	require.Equal(t, second.ID, current.ID)
}

func TestBeginKeepsOtherUsersSessions(t *testing.T) {
	repo := memory.NewSessionRepository()
	svc := sessions.NewService(repo, time.Hour, zerolog.Nop())
	ctx := context.Background()

	_, err := svc.Begin(ctx, "u1", "token-1")
	require.NoError(t, err)
	_, err = svc.Begin(ctx, "u2", "token-2")
	require.NoError(t, err)

	require.Equal(t, 2, repo.ActiveCount())
}

func TestValidateExpiredToken(t *testing.T) {
	repo := memory.NewSessionRepository()
	svc := sessions.NewService(repo, -time.Minute, zerolog.Nop())

	_, err := svc.Begin(context.Background(), "u1", "token-1")
	require.NoError(t, err)

	_, err = svc.Validate(context.Background(), "token-1")
	require.ErrorIs(t, err, sessions.ErrExpired)
}

func TestValidateUnknownToken(t *testing.T) {
	repo := memory.NewSessionRepository()
	svc := sessions.NewService(repo, time.Hour, zerolog.Nop())

	_, err := svc.Validate(context.Background(), "nope")

	require.ErrorIs(t, err, sessions.ErrNotFound)
}

func TestEndIsIdempotent(t *testing.T) {
	repo := memory.NewSessionRepository()
	svc := sessions.NewService(repo, time.Hour, zerolog.Nop())
	ctx := context.Background()

	_, err := svc.Begin(ctx, "u1", "token-1")
	require.NoError(t, err)

	require.NoError(t, svc.End(ctx, "token-1"))
	require.NoError(t, svc.End(ctx, "token-1"))
	require.NoError(t, svc.End(ctx, "never-existed"))

	_, err = svc.Validate(ctx, "token-1")
	require.ErrorIs(t, err, sessions.ErrExpired)
}

func TestSweepExpiredTouchesOnlyExpired(t *testing.T) {
	repo := memory.NewSessionRepository()
	svc := sessions.NewService(repo, time.Hour, zerolog.Nop())
	ctx := context.Background()

	_, err := repo.Create(ctx, sessions.Session{
		ID:        "old",
		UserID:    "u1",
		Token:     "stale",
		ExpiresAt: time.Now().Add(-time.Hour),
		IsActive:  true,
	})
	require.NoError(t, err)

	_, err = svc.Begin(ctx, "u2", "fresh")
	require.NoError(t, err)

	swept, err := svc.SweepExpired(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), swept)

	_, err = svc.Validate(ctx, "fresh")
	require.NoError(t, err)

	again, err := svc.SweepExpired(ctx)
	require.NoError(t, err)
	require.Zero(t, again, "sweep is idempotent")
}
