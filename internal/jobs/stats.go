// Package jobs moves the per-user statistics refresh off the request path
// onto an asynq queue backed by Redis.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/domain"
)

const (
	TypeRecordScore = "stats:record_score"

	statsQueue     = "default"
	statsMaxRetry  = 5
	statsTaskLimit = 30 * time.Second
)

// RecordScorePayload is the body of a TypeRecordScore task.
type RecordScorePayload struct {
	UserID string `json:"user_id"`
	Score  int    `json:"score"`
}

// NewRecordScoreTask builds the task that folds score into userID's stats.
func NewRecordScoreTask(userID string, score int) (*asynq.Task, error) {
	payload, err := json.Marshal(RecordScorePayload{UserID: userID, Score: score})
	if err != nil {
		return nil, fmt.Errorf("marshal record score payload: %w", err)
	}
	return asynq.NewTask(TypeRecordScore, payload), nil
}

// Queue enqueues stats refreshes. It satisfies app.StatsRecorder so the
// result service can hand the update off instead of running it inline.
type Queue struct {
	client *asynq.Client
	logger *slog.Logger
}

func NewQueue(opt asynq.RedisClientOpt, logger *slog.Logger) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{client: asynq.NewClient(opt), logger: logger}
}

func (q *Queue) RecordScore(ctx context.Context, userID string, score int) error {
	task, err := NewRecordScoreTask(userID, score)
	if err != nil {
		return err
	}
	info, err := q.client.EnqueueContext(ctx, task,
		asynq.Queue(statsQueue),
		asynq.MaxRetry(statsMaxRetry),
		asynq.Timeout(statsTaskLimit),
	)
	if err != nil {
		return fmt.Errorf("enqueue record score: %w", err)
	}
	q.logger.Debug("queued stats refresh", "task", info.ID, "user", userID, "score", score)
	return nil
}

func (q *Queue) Close() error {
	return q.client.Close()
}

// HandleRecordScore applies a queued refresh through recorder. Tasks for
// accounts that no longer exist are dropped without retry.
func HandleRecordScore(recorder app.StatsRecorder, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var payload RecordScorePayload
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			return fmt.Errorf("unmarshal record score payload: %v: %w", err, asynq.SkipRetry)
		}
		if payload.UserID == "" {
			return fmt.Errorf("record score without user: %w", asynq.SkipRetry)
		}

		err := recorder.RecordScore(ctx, payload.UserID, payload.Score)
		if errors.Is(err, domain.ErrUserNotFound) {
			logger.Warn("dropping stats refresh for missing user", "user", payload.UserID)
			return fmt.Errorf("record score: %v: %w", err, asynq.SkipRetry)
		}
		if err != nil {
			return fmt.Errorf("record score for %s: %w", payload.UserID, err)
		}
		logger.Debug("stats refreshed", "user", payload.UserID, "score", payload.Score)
		return nil
	}
}

// Worker consumes stats tasks.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	logger *slog.Logger
}

func NewWorker(opt asynq.RedisClientOpt, concurrency int, recorder app.StatsRecorder, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	if concurrency <= 0 {
		concurrency = 5
	}
	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{statsQueue: 1},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			logger.Error("job failed", "type", task.Type(), "err", err)
		}),
		Logger: &asynqLogger{logger: logger.With("component", "asynq")},
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeRecordScore, HandleRecordScore(recorder, logger))

	return &Worker{server: server, mux: mux, logger: logger}
}

// Start processes tasks in the background until Shutdown.
func (w *Worker) Start() error {
	w.logger.Info("starting stats worker")
	return w.server.Start(w.mux)
}

// Run processes tasks until the process receives SIGTERM or SIGINT.
func (w *Worker) Run() error {
	w.logger.Info("starting stats worker")
	return w.server.Run(w.mux)
}

func (w *Worker) Shutdown() {
	w.logger.Info("stopping stats worker")
	w.server.Shutdown()
}

type asynqLogger struct {
	logger *slog.Logger
}

func (l *asynqLogger) Debug(args ...interface{}) { l.logger.Debug(fmt.Sprint(args...)) }
func (l *asynqLogger) Info(args ...interface{})  { l.logger.Info(fmt.Sprint(args...)) }
func (l *asynqLogger) Warn(args ...interface{})  { l.logger.Warn(fmt.Sprint(args...)) }
func (l *asynqLogger) Error(args ...interface{}) { l.logger.Error(fmt.Sprint(args...)) }
func (l *asynqLogger) Fatal(args ...interface{}) { l.logger.Error(fmt.Sprint(args...)) }
