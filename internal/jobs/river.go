// Package jobs holds the River background job setup. The only scheduled job
// today is the session sweep, which retires expired session rows.
package jobs

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"

	"github.com/web3events/server/internal/domain/sessions"
)

const JobKindSessionCleanup = "session_cleanup"

// SessionCleanupInterval is how often the sweep runs.
const SessionCleanupInterval = time.Hour

// NewWorkers registers all workers.
func NewWorkers(sessionSvc *sessions.Service, logger *slog.Logger) (*river.Workers, error) {
	workers := river.NewWorkers()
	if err := river.AddWorkerSafely(workers, &SessionCleanupWorker{
		Sessions: sessionSvc,
		Logger:   logger,
	}); err != nil {
		return nil, fmt.Errorf("register session cleanup worker: %w", err)
	}
	return workers, nil
}

// NewPeriodicJobs creates the periodic job schedule.
func NewPeriodicJobs() []*river.PeriodicJob {
	return []*river.PeriodicJob{
		river.NewPeriodicJob(
			river.PeriodicInterval(SessionCleanupInterval),
			func() (river.JobArgs, *river.InsertOpts) {
				return SessionCleanupArgs{}, nil
			},
			&river.PeriodicJobOpts{RunOnStart: true},
		),
	}
}

// NewClientConfig builds the River client configuration.
func NewClientConfig(workers *river.Workers, logger *slog.Logger, periodicJobs []*river.PeriodicJob) *river.Config {
	config := &river.Config{
		Workers:      workers,
		MaxAttempts:  3,
		PeriodicJobs: periodicJobs,
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 4},
		},
	}
	if logger != nil {
		config.Logger = logger
	}
	return config
}

// NewClient creates a River client using pgx v5.
func NewClient(pool *pgxpool.Pool, workers *river.Workers, logger *slog.Logger, periodicJobs []*river.PeriodicJob) (*river.Client[pgx.Tx], error) {
	return river.NewClient(riverpgxv5.New(pool), NewClientConfig(workers, logger, periodicJobs))
}
