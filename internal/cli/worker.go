package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"trivia-quiz-service/internal/config"
	"trivia-quiz-service/internal/jobs"
)

// NewWorkerCmd runs the background consumer that refreshes user stats.
func NewWorkerCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Process queued user stats updates",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Redis.Addr == "" || cfg.Postgres.URL == "" {
				return errors.New("worker needs both redis.addr and postgres.url")
			}
			logger := setupLogger(cfg.App.Env, cfg.App.LogLevel)
			ctx := cmd.Context()

			deps, err := buildStack(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer deps.close(logger)

			worker := jobs.NewWorker(asynqOpt(cfg), cfg.Jobs.Concurrency, deps.users, logger)
			if err := worker.Start(); err != nil {
				return err
			}
			<-ctx.Done()
			worker.Shutdown()
			return nil
		},
	}
}
