package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/web3events/server/internal/api"
	"github.com/web3events/server/internal/auth"
	"github.com/web3events/server/internal/config"
	"github.com/web3events/server/internal/domain/bookmarks"
	"github.com/web3events/server/internal/domain/events"
	"github.com/web3events/server/internal/domain/sessions"
	"github.com/web3events/server/internal/domain/users"
	"github.com/web3events/server/internal/jobs"
	"github.com/web3events/server/internal/metrics"
	"github.com/web3events/server/internal/storage/postgres"
	"github.com/web3events/server/internal/telemetry"
)

var (
	// Server flags (override config/env)
	serverHost string
	serverPort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Web3 Events HTTP server",
	Long: `Start the HTTP server and begin accepting API requests.

The server will:
- Load configuration from environment variables (or --config file if provided)
- Connect to Postgres and start the session cleanup worker
- Serve the wallet auth, events, bookmarks, and admin APIs
- Handle graceful shutdown on SIGINT/SIGTERM

Examples:
  # Start with default configuration (from env vars)
  server serve

  # Start on a specific host and port
  server serve --host 127.0.0.1 --port 9090

  # Start with debug logging
  server serve --log-level debug`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serverHost, "host", "", "server host address (default: 0.0.0.0)")
	serveCmd.Flags().IntVar(&serverPort, "port", 0, "server port (default: 8080)")
}

func runServer() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if serverHost != "" {
		cfg.Server.Host = serverHost
	}
	if serverPort != 0 {
		cfg.Server.Port = serverPort
	}

	logger := config.NewLogger(cfg.Logging)
	logger.Info().Str("version", Version).Msg("starting web3events server")

	metrics.AppInfo.WithLabelValues(Version, GitCommit).Set(1)

	shutdownTracing, err := telemetry.InitTracing(context.Background(), cfg.Tracing, Version)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			logger.Error().Err(err).Msg("tracing shutdown error")
		}
	}()

	poolCtx, poolCancel := context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := postgres.NewPool(poolCtx, cfg.Database.URL)
	poolCancel()
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer pool.Close()

	repo, err := postgres.NewRepository(pool)
	if err != nil {
		return err
	}

	userSvc := users.NewService(repo.Users(), cfg.Auth.DevBypass, logger)
	eventSvc := events.NewService(repo.Events())
	adminSvc := events.NewAdminService(repo.Events(), userSvc, logger)
	sessionSvc := sessions.NewService(repo.Sessions(), cfg.Auth.SessionExpiry, logger)
	bookmarkSvc := bookmarks.NewService(repo.Bookmarks(), repo.Users(), repo.Events(), logger)

	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.SessionExpiry, "web3events")

	// River logs through slog; keep it quiet below warn so request logs stay
	// the primary stream.
	jobLogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
	workers, err := jobs.NewWorkers(sessionSvc, jobLogger)
	if err != nil {
		return fmt.Errorf("register workers: %w", err)
	}
	riverClient, err := jobs.NewClient(pool, workers, jobLogger, jobs.NewPeriodicJobs())
	if err != nil {
		return fmt.Errorf("create river client: %w", err)
	}

	riverCtx, riverCancel := context.WithCancel(context.Background())
	defer riverCancel()
	if err := riverClient.Start(riverCtx); err != nil {
		return fmt.Errorf("river workers failed to start: %w", err)
	}
	logger.Info().Msg("session cleanup worker started")
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer stopCancel()
		if err := riverClient.Stop(stopCtx); err != nil {
			logger.Error().Err(err).Msg("river workers shutdown error")
		}
	}()

	handler := api.NewRouter(api.Deps{
		Config:      cfg,
		Logger:      logger,
		Pool:        pool,
		RiverClient: riverClient,
		Users:       userSvc,
		Sessions:    sessionSvc,
		Events:      eventSvc,
		AdminEvents: adminSvc,
		Bookmarks:   bookmarkSvc,
		JWT:         jwtManager,
		Verifier:    auth.SIWEVerifier{},
		Version:     Version,
		GitCommit:   GitCommit,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	return gracefulShutdown(server, logger)
}

func gracefulShutdown(server *http.Server, logger zerolog.Logger) error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	return nil
}
