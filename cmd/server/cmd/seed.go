package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/web3events/server/internal/config"
	"github.com/web3events/server/internal/domain/events"
	"github.com/web3events/server/internal/domain/users"
	"github.com/web3events/server/internal/storage"
	"github.com/web3events/server/internal/storage/postgres"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the event catalog with sample data",
	Long: `Insert the built-in sample events into an empty catalog.

Seeding is idempotent: if the events table already contains rows, nothing
is inserted.`,
	RunE: runSeed,
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	logger := config.NewLogger(cfg.Logging)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer pool.Close()

	repo, err := postgres.NewRepository(pool)
	if err != nil {
		return err
	}

	// All eight samples land in one transaction or none do.
	var seeded int
	err = repo.WithTx(ctx, func(ctx context.Context, tx storage.Repository) error {
		userSvc := users.NewService(tx.Users(), cfg.Auth.DevBypass, logger)
		adminSvc := events.NewAdminService(tx.Events(), userSvc, logger)
		n, err := adminSvc.SeedSampleEvents(ctx)
		seeded = n
		return err
	})
	if err != nil {
		return fmt.Errorf("seed events: %w", err)
	}
	if seeded == 0 {
		logger.Info().Msg("catalog not empty, nothing seeded")
		return nil
	}
	logger.Info().Int("seeded", seeded).Msg("sample events inserted")
	return nil
}
