package app

import (
	"context"
	"time"

	"trivia-quiz-service/internal/domain"
)

// ResultStore persists quiz results. Every read and delete is scoped to the
// owner; a record owned by someone else is reported as domain.ErrResultNotFound.
type ResultStore interface {
	CreateResult(ctx context.Context, result domain.QuizResult) error
	GetResult(ctx context.Context, owner, id string) (domain.QuizResult, error)
	// ListResults returns one page without per-question detail, plus the owner's total count.
	ListResults(ctx context.Context, owner string, q domain.ListQuery) ([]domain.QuizResult, int, error)
	DeleteResult(ctx context.Context, owner, id string) error
	// ScoreSamples returns samples in storage order. An empty owner selects every user.
	ScoreSamples(ctx context.Context, owner string) ([]domain.ScoreSample, error)
}

// UserStore persists accounts and their running statistics.
type UserStore interface {
	CreateUser(ctx context.Context, user domain.User) error
	UserByEmail(ctx context.Context, email string) (domain.User, error)
	UserByID(ctx context.Context, id string) (domain.User, error)
	UsersByID(ctx context.Context, ids []string) (map[string]domain.User, error)
	TouchLogin(ctx context.Context, id string, at time.Time) error
	StatsRecorder
}

// UserDirectory resolves result owners to accounts.
type UserDirectory interface {
	UsersByID(ctx context.Context, ids []string) (map[string]domain.User, error)
}

// StatsRecorder folds one new score into a user's running statistics. It is
// satisfied by the user stores directly and by the background job queue.
type StatsRecorder interface {
	RecordScore(ctx context.Context, userID string, score int) error
}

// QuestionProvider fetches question batches from the upstream trivia API.
type QuestionProvider interface {
	FetchQuestions(ctx context.Context, req domain.QuestionRequest) ([]domain.Question, error)
}

// CategoryRepository serves the provider's category list, usually from a cache.
type CategoryRepository interface {
	Categories(ctx context.Context) ([]domain.Category, error)
}

// RevocationStore remembers token ids that were logged out before expiry.
type RevocationStore interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
