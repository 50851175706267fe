package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"trivia-quiz-service/internal/domain"
	"trivia-quiz-service/internal/infra/memory"
)

func TestHandleRecordScoreUpdatesStats(t *testing.T) {
	ctx := context.Background()
	users := memory.NewUserStore()
	require.NoError(t, users.CreateUser(ctx, domain.User{ID: "u1", Email: "a@example.com"}))

	handler := HandleRecordScore(users, discardLogger())
	for _, score := range []int{40, 80} {
		task, err := NewRecordScoreTask("u1", score)
		require.NoError(t, err)
		require.Equal(t, TypeRecordScore, task.Type())
		require.NoError(t, handler(ctx, task))
	}

	user, err := users.UserByID(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, domain.RunningStats{TotalQuizzes: 2, BestScore: 80, AverageScore: 60}, user.Stats)
}

func TestHandleRecordScoreSkipsRetryForMissingUser(t *testing.T) {
	task, err := NewRecordScoreTask("ghost", 50)
	require.NoError(t, err)

	err = HandleRecordScore(memory.NewUserStore(), discardLogger())(context.Background(), task)
	require.Error(t, err)
	require.True(t, errors.Is(err, asynq.SkipRetry))
}

func TestHandleRecordScoreRejectsBadPayload(t *testing.T) {
	task := asynq.NewTask(TypeRecordScore, []byte("{not json"))
	err := HandleRecordScore(memory.NewUserStore(), discardLogger())(context.Background(), task)
	require.True(t, errors.Is(err, asynq.SkipRetry))
}

func TestHandleRecordScoreRetriesStorageErrors(t *testing.T) {
	task, err := NewRecordScoreTask("u1", 50)
	require.NoError(t, err)

	err = HandleRecordScore(failingRecorder{}, discardLogger())(context.Background(), task)
	require.Error(t, err)
	require.False(t, errors.Is(err, asynq.SkipRetry))
}

type failingRecorder struct{}

func (failingRecorder) RecordScore(context.Context, string, int) error {
	return errors.New("connection reset")
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
