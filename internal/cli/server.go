package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/auth"
	"trivia-quiz-service/internal/config"
	"trivia-quiz-service/internal/infra/memory"
	"trivia-quiz-service/internal/infra/opentdb"
	"trivia-quiz-service/internal/infra/postgres"
	redisstore "trivia-quiz-service/internal/infra/redis"
	"trivia-quiz-service/internal/jobs"
	transport "trivia-quiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string, envPort string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the quiz API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
	cmd.Flags().StringVar(port, "port", envPort, "port to listen on (overrides server.port)")
	return cmd
}

// stack is every long-lived dependency the server and worker share.
type stack struct {
	users      app.UserStore
	results    app.ResultStore
	categories app.CategoryRepository
	revoked    app.RevocationStore
	trivia     *opentdb.Client
	redis      *redis.Client
	closers    []func() error
}

func (s *stack) close(logger *slog.Logger) {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			logger.Warn("close dependency", "err", err)
		}
	}
}

// buildStack connects to Redis and Postgres when configured and falls back
// to in-memory stores otherwise.
func buildStack(ctx context.Context, cfg config.Config, logger *slog.Logger) (*stack, error) {
	s := &stack{
		trivia: opentdb.NewClient(cfg.Trivia.BaseURL, config.TTLDuration(cfg.Trivia.Timeout, 5*time.Second)),
	}
	categoriesTTL := config.TTLDuration(cfg.Trivia.CategoriesTTL, time.Hour)

	if cfg.Redis.Addr != "" {
		s.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		s.closers = append(s.closers, s.redis.Close)
		if err := s.redis.Ping(ctx).Err(); err != nil {
			s.close(logger)
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		s.categories = redisstore.NewCategoryRepository(s.redis, s.trivia, categoriesTTL)
		s.revoked = redisstore.NewRevocationStore(s.redis)
		logger.Info("using redis for categories and token revocation", "addr", cfg.Redis.Addr)
	} else {
		s.categories = memory.NewCategoryRepository(s.trivia, categoriesTTL)
		s.revoked = memory.NewRevocationStore()
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, logger); err != nil {
			s.close(logger)
			return nil, err
		}
		db, err := openBun(cfg)
		if err != nil {
			s.close(logger)
			return nil, err
		}
		s.closers = append(s.closers, db.Close)
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			s.close(logger)
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		s.closers = append(s.closers, func() error { pool.Close(); return nil })
		s.results = postgres.NewResultStore(db)
		s.users = postgres.NewUserStore(pool)
		logger.Info("using postgres for users and results")
	} else {
		s.results = memory.NewResultStore()
		s.users = memory.NewUserStore()
		logger.Warn("postgres not configured, data lives in memory only")
	}
	return s, nil
}

func asynqOpt(cfg config.Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := setupLogger(cfg.App.Env, cfg.App.LogLevel)

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "5000"
	}

	deps, err := buildStack(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.close(logger)

	var stats app.StatsRecorder = deps.users
	if cfg.Jobs.Enabled {
		if cfg.Redis.Addr == "" {
			return errors.New("jobs.enabled requires redis.addr")
		}
		queue := jobs.NewQueue(asynqOpt(cfg), logger)
		deps.closers = append(deps.closers, queue.Close)
		stats = queue
		if cfg.Postgres.URL == "" {
			// In-memory users are only reachable from this process.
			worker := jobs.NewWorker(asynqOpt(cfg), cfg.Jobs.Concurrency, deps.users, logger)
			if err := worker.Start(); err != nil {
				return fmt.Errorf("start embedded worker: %w", err)
			}
			defer worker.Shutdown()
		}
		logger.Info("user stats are refreshed by the background worker")
	}

	tokens, err := auth.NewTokens(cfg.Auth.JWTSecret, config.TTLDuration(cfg.Auth.TokenTTL, 7*24*time.Hour))
	if err != nil {
		return err
	}

	authService := app.NewAuthService(deps.users, tokens, deps.revoked, logger)
	questionService := app.NewQuestionService(deps.trivia, deps.categories, logger)
	resultService := app.NewResultService(deps.results, deps.users, stats, logger, app.WithFeed(app.NewLeaderboardFeed()))

	handler := transport.NewHandler(authService, questionService, resultService, logger, transport.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Production:     cfg.IsProduction(),
	})

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      transport.NewRouter(handler),
		ReadTimeout:  config.TTLDuration(cfg.Server.ReadTimeout, 15*time.Second),
		WriteTimeout: config.TTLDuration(cfg.Server.WriteTimeout, 15*time.Second),
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting quiz service", "port", finalPort, "env", cfg.App.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
