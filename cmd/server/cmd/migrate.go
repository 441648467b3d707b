package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/web3events/server/internal/config"
	"github.com/web3events/server/internal/storage/postgres"
)

var (
	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long:  `Apply or roll back schema migrations against the configured database.`,
	}

	migrateUpCmd = &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			if err := postgres.MigrateUp(cfg.Database.URL, migrationsPath); err != nil {
				return err
			}
			logMigrateDone(cfg, "migrations applied")
			return nil
		},
	}

	migrateDownCmd = &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			if err := postgres.MigrateDown(cfg.Database.URL, migrationsPath, migrateSteps); err != nil {
				return err
			}
			logMigrateDone(cfg, "migrations rolled back")
			return nil
		},
	}

	// Flags
	migrationsPath string
	migrateSteps   int
)

func init() {
	migrateCmd.PersistentFlags().StringVar(&migrationsPath, "path", "", "migrations directory (default: "+postgres.DefaultMigrationsPath+")")
	migrateDownCmd.Flags().IntVar(&migrateSteps, "steps", 1, "number of migrations to roll back")

	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
}

func logMigrateDone(cfg config.Config, msg string) {
	logger := config.NewLogger(cfg.Logging)
	logger.Info().Msg(msg)
}
