package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/riverqueue/river"

	"github.com/web3events/server/internal/domain/sessions"
	"github.com/web3events/server/internal/metrics"
)

// SessionCleanupArgs defines the periodic session sweep job.
type SessionCleanupArgs struct{}

func (SessionCleanupArgs) Kind() string { return JobKindSessionCleanup }

// SessionCleanupWorker deactivates sessions whose expiry has passed. Active
// unexpired sessions are never touched, so the sweep is safe to run while
// logins are in flight.
type SessionCleanupWorker struct {
	river.WorkerDefaults[SessionCleanupArgs]
	Sessions *sessions.Service
	Logger   *slog.Logger
}

func (SessionCleanupWorker) Kind() string { return JobKindSessionCleanup }

func (w *SessionCleanupWorker) Work(ctx context.Context, job *river.Job[SessionCleanupArgs]) error {
	if w.Sessions == nil {
		return fmt.Errorf("sessions service not configured")
	}

	logger := w.Logger
	if logger == nil {
		logger = slog.Default()
	}

	start := time.Now()
	swept, err := w.Sessions.SweepExpired(ctx)
	metrics.SessionSweepDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SessionSweepErrors.Inc()
		return fmt.Errorf("sweep expired sessions: %w", err)
	}

	metrics.SessionsSwept.Add(float64(swept))
	logger.Info("session sweep complete",
		"swept", swept,
		"attempt", job.Attempt,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}
