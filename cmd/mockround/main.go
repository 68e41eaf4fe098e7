package main

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

	"github.com/hibiken/asynq"
	ucli "github.com/urfave/cli/v2"

	opscli "github.com/mockround/mockround/cmd/mockround/cli"
	"github.com/mockround/mockround/internal/app"
	"github.com/mockround/mockround/internal/auth"
	"github.com/mockround/mockround/internal/observability"
	"github.com/mockround/mockround/internal/platform/cache"
	"github.com/mockround/mockround/internal/platform/db"
	"github.com/mockround/mockround/internal/problems"
	"github.com/mockround/mockround/internal/sessions"
	"github.com/mockround/mockround/internal/shared"
	"github.com/mockround/mockround/internal/stats"
	"github.com/mockround/mockround/internal/submissions"
	"github.com/mockround/mockround/internal/users"
	"github.com/mockround/mockround/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cliApp := &ucli.App{
		Name:  "mockround",
		Usage: "interview practice API",
		Commands: []*ucli.Command{
			{Name: "serve", Usage: "run the HTTP API", Action: serveCommand},
			{Name: "migrate", Usage: "apply database migrations", Action: migrateCommand},
			{
				Name:  "jobs",
				Usage: "inspect and trigger background jobs",
				Subcommands: []*ucli.Command{
					{Name: "trigger", Usage: "enqueue a job by task type", ArgsUsage: "<task>", Action: triggerCommand},
					{Name: "inspect", Usage: "print default queue counters", Action: inspectCommand},
				},
			},
		},
		Action: serveCommand,
	}
	if err := cliApp.RunContext(ctx, os.Args); err != nil {
		slog.Default().Error("mockround", slog.Any("error", err))
		os.Exit(1)
	}
}

func setup() (*app.Config, *slog.Logger, error) {
	cfg, err := app.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, app.NewLogger(cfg), nil
}

func migrateCommand(c *ucli.Context) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	return db.Migrate(cfg.PGDSN, logger)
}

func triggerCommand(c *ucli.Context) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	task := c.Args().First()
	if task == "" {
		return errors.New("task type required")
	}
	helper := opscli.NewJobsCLI(cfg.RedisAddr)
	defer helper.Close()
	info, err := helper.Trigger(c.Context, task)
	if err != nil {
		return err
	}
	logger.Info("job enqueued", slog.String("id", info.ID), slog.String("type", info.Type), slog.String("queue", info.Queue))
	return nil
}

func inspectCommand(c *ucli.Context) error {
	cfg, _, err := setup()
	if err != nil {
		return err
	}
	helper := opscli.NewJobsCLI(cfg.RedisAddr)
	defer helper.Close()
	qs, err := helper.InspectQueue()
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "queue=%s pending=%d active=%d scheduled=%d retry=%d\n",
		qs.Queue, qs.Pending, qs.Active, qs.Scheduled, qs.Retry)
	return nil
}

func serveCommand(c *ucli.Context) error {
	ctx := c.Context
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	if cfg.PGAutoMigrate {
		if err := db.Migrate(cfg.PGDSN, logger); err != nil {
			return err
		}
	}

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	roles, err := cfg.RoleSet()
	if err != nil {
		return err
	}
	metrics := observability.NewMetrics()
	auditLogger := shared.NewAuditLogger(dbpool)

	authService := auth.NewService(
		auth.NewRepository(dbpool),
		auth.NewTokenIssuer(cfg.JWTSecret),
		auth.NewRedisRevocations(redisClient),
		cfg.BcryptCost,
		logger,
	)
	authn := auth.NewAuthenticator(authService, logger, metrics)
	authHandler := auth.NewHandler(logger, authService, cfg.IsProduction())

	usersService := users.NewService(users.NewRepository(dbpool), roles, auditLogger, logger)
	problemsService := problems.NewService(problems.NewRepository(dbpool), auditLogger, logger)
	sessionsService := sessions.NewService(sessions.NewRepository(dbpool))

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	jobClient := jobs.NewClient(redisOpts)
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	submissionsService := submissions.NewService(submissions.NewRepository(dbpool), jobClient, logger)

	leaderboardCache := cache.NewJSONCache(redisClient, "leaderboard", cfg.LeaderboardCacheTTL)
	statsService := stats.NewService(stats.NewRepository(dbpool), leaderboardCache, logger)

	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		Authenticator:      authn,
		AuthHandler:        authHandler,
		UsersHandler:       users.NewHandler(logger, usersService),
		ProblemsHandler:    problems.NewHandler(logger, problemsService),
		SessionsHandler:    sessions.NewHandler(logger, sessionsService),
		SubmissionsHandler: submissions.NewHandler(logger, submissionsService),
		StatsHandler:       stats.NewHandler(logger, statsService),
		JobHandler:         jobs.NewHandler(inspector, logger),
		Metrics:            metrics,
		Pool:               dbpool,
		Redis:              redisClient,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("env", cfg.AppEnv))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
	return nil
}
