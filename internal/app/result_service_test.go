package app_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/domain"
	"trivia-quiz-service/internal/infra/memory"
	"trivia-quiz-service/internal/trivia"
)

type fixture struct {
	service *app.ResultService
	results *memory.ResultStore
	users   *memory.UserStore
	feed    *app.LeaderboardFeed
	now     time.Time
}

func newFixture(t *testing.T, stats app.StatsRecorder) *fixture {
	t.Helper()
	f := &fixture{
		results: memory.NewResultStore(),
		users:   memory.NewUserStore(),
		feed:    app.NewLeaderboardFeed(),
		now:     time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	if stats == nil {
		stats = f.users
	}
	clock := func() time.Time {
		f.now = f.now.Add(time.Second)
		return f.now
	}
	f.service = app.NewResultService(f.results, f.users, stats, discardLogger(), app.WithClock(clock), app.WithFeed(f.feed))
	return f
}

func (f *fixture) addUser(t *testing.T, id, name string) {
	t.Helper()
	require.NoError(t, f.users.CreateUser(context.Background(), domain.User{ID: id, Name: name, Email: id + "@example.com"}))
}

// submission answers the fallback set with the first correct answers right.
func submission(owner string, correct, timeUsed int) domain.Submission {
	questions := trivia.FallbackQuestions()
	sub := domain.Submission{Owner: owner, Email: owner + "@example.com", TimeUsed: timeUsed, Completed: true}
	for i, q := range questions {
		answer := q.CorrectAnswer
		if i >= correct {
			answer = "wrong"
		}
		sub.Questions = append(sub.Questions, domain.SubmittedQuestion{
			Question:      q.Text,
			CorrectAnswer: q.CorrectAnswer,
			UserAnswer:    &answer,
			Options:       q.Options,
			Category:      q.Category,
			Difficulty:    q.Difficulty,
		})
	}
	return sub
}

func TestSaveScoresAndRoundTrips(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.addUser(t, "alice", "Alice")

	summary, err := f.service.Save(ctx, submission("alice", 12, 600))
	require.NoError(t, err)
	require.Equal(t, 80, summary.Score)
	require.Equal(t, 12, summary.CorrectAnswers)
	require.Equal(t, 15, summary.TotalQuestions)
	require.Equal(t, 600, summary.TimeUsed)

	stored, err := f.service.Get(ctx, "alice", summary.ID)
	require.NoError(t, err)
	require.Equal(t, summary.Score, stored.Score)
	require.Equal(t, summary.TotalQuestions, stored.TotalQuestions)
	require.Len(t, stored.Questions, 15)
	require.True(t, stored.Questions[0].IsCorrect)
	require.False(t, stored.Questions[14].IsCorrect)
	require.Equal(t, domain.DefaultTimeLimit, stored.TimeLimit)

	again, err := f.service.Get(ctx, "alice", summary.ID)
	require.NoError(t, err)
	require.Equal(t, stored.Questions, again.Questions)

	user, _ := f.users.UserByID(ctx, "alice")
	require.Equal(t, domain.RunningStats{TotalQuizzes: 1, BestScore: 80, AverageScore: 80}, user.Stats)
}

func TestSaveRejectsInvalidPayload(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.service.Save(context.Background(), domain.Submission{Owner: "alice", TimeUsed: -1})

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Fields, 2)
	require.Equal(t, "questions", verr.Fields[0].Field)
	require.Equal(t, "timeUsed", verr.Fields[1].Field)

	page, err := f.service.ListMine(context.Background(), "alice", domain.ListQuery{})
	require.NoError(t, err)
	require.Zero(t, page.Pagination.TotalResults)
}

func TestSaveSurvivesStatsFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, failingStats{})

	summary, err := f.service.Save(ctx, submission("alice", 15, 100))
	require.NoError(t, err)
	require.Equal(t, 100, summary.Score)

	_, err = f.service.Get(ctx, "alice", summary.ID)
	require.NoError(t, err)
}

func TestDuplicateSubmissionsAreIndependent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.addUser(t, "alice", "Alice")

	first, err := f.service.Save(ctx, submission("alice", 5, 60))
	require.NoError(t, err)
	second, err := f.service.Save(ctx, submission("alice", 5, 60))
	require.NoError(t, err)
	require.NotEqual(t, first.ID, second.ID)

	stats, err := f.service.Stats(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, 2, stats.Stats.TotalAttempts)
}

func TestGetAndDeleteAreOwnerScoped(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	summary, err := f.service.Save(ctx, submission("alice", 10, 60))
	require.NoError(t, err)

	_, err = f.service.Get(ctx, "mallory", summary.ID)
	require.True(t, errors.Is(err, domain.ErrResultNotFound))
	require.True(t, errors.Is(f.service.Delete(ctx, "mallory", summary.ID), domain.ErrResultNotFound))
	_, err = f.service.Get(ctx, "alice", "not-a-uuid")
	require.True(t, errors.Is(err, domain.ErrResultNotFound))

	require.NoError(t, f.service.Delete(ctx, "alice", summary.ID))
	_, err = f.service.Get(ctx, "alice", summary.ID)
	require.True(t, errors.Is(err, domain.ErrResultNotFound))
}

func TestListMinePaginates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	for i := 0; i < 5; i++ {
		_, err := f.service.Save(ctx, submission("alice", i*3, 60+i))
		require.NoError(t, err)
	}
	_, _ = f.service.Save(ctx, submission("bob", 15, 10))

	page, err := f.service.ListMine(ctx, "alice", domain.ListQuery{Page: 1, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Results, 2)
	require.Equal(t, domain.Pagination{CurrentPage: 1, TotalPages: 3, TotalResults: 5, HasNext: true, HasPrev: false}, page.Pagination)
	require.Equal(t, 64, page.Results[0].TimeUsed, "newest first by default")
	require.Nil(t, page.Results[0].Questions)

	page, err = f.service.ListMine(ctx, "alice", domain.ListQuery{Page: 3, Limit: 2, Sort: domain.SortScore})
	require.NoError(t, err)
	require.Len(t, page.Results, 1)
	require.Equal(t, 80, page.Results[0].Score)
	require.False(t, page.Pagination.HasNext)
	require.True(t, page.Pagination.HasPrev)
}

func TestParseSort(t *testing.T) {
	field, desc, err := app.ParseSort("-score")
	require.NoError(t, err)
	require.Equal(t, domain.SortScore, field)
	require.True(t, desc)

	field, desc, err = app.ParseSort("")
	require.NoError(t, err)
	require.Equal(t, domain.SortCreatedAt, field)
	require.True(t, desc)

	field, desc, err = app.ParseSort("timeUsed")
	require.NoError(t, err)
	require.Equal(t, domain.SortTimeUsed, field)
	require.False(t, desc)

	_, _, err = app.ParseSort("password")
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestStatsAggregates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	empty, err := f.service.Stats(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, domain.UserStats{}, empty.Stats)
	require.Empty(t, empty.RecentResults)

	for _, tc := range []struct{ correct, time int }{{15, 100}, {12, 200}, {6, 301}} {
		_, err := f.service.Save(ctx, submission("alice", tc.correct, tc.time))
		require.NoError(t, err)
	}
	for i := 0; i < 4; i++ {
		_, _ = f.service.Save(ctx, submission("alice", 0, 0))
	}

	report, err := f.service.Stats(ctx, "alice")
	require.NoError(t, err)
	s := report.Stats
	require.Equal(t, 7, s.TotalAttempts)
	require.Equal(t, 100, s.BestScore)
	require.InDelta(t, 220.0/7.0, s.AverageScore, 1e-9)
	require.Equal(t, 601, s.TotalTimeUsed)
	require.Equal(t, 601, s.TotalTimeSpent)
	require.Equal(t, 86, s.AverageTimePerQuiz)
	require.Len(t, report.RecentResults, 5)
	require.Equal(t, 0, report.RecentResults[0].Score)
}

func TestLeaderboardOrdering(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.addUser(t, "alice", "Alice")
	f.addUser(t, "bob", "Bob")
	f.addUser(t, "carol", "Carol")
	f.addUser(t, "dave", "Dave")

	// alice: best 100, avg 70; bob: best 100, avg 90; carol: best 80 avg 80; dave: best 100, avg 70
	saves := []struct {
		owner   string
		correct int
	}{
		{"alice", 15}, {"alice", 6},
		{"bob", 15}, {"bob", 12},
		{"carol", 12},
		{"dave", 6}, {"dave", 15},
	}
	for _, s := range saves {
		_, err := f.service.Save(ctx, submission(s.owner, s.correct, 60))
		require.NoError(t, err)
	}

	lb, err := f.service.Leaderboard(ctx, 10)
	require.NoError(t, err)
	require.Len(t, lb.Entries, 4)
	names := []string{}
	for _, e := range lb.Entries {
		names = append(names, e.Name)
	}
	require.Equal(t, []string{"Bob", "Alice", "Dave", "Carol"}, names, "ties keep storage order")
	require.Equal(t, 90.0, lb.Entries[0].AverageScore)
	require.Equal(t, 2, lb.Entries[0].TotalAttempts)
	require.Equal(t, "bob@example.com", lb.Entries[0].Email)

	for i := 1; i < len(lb.Entries); i++ {
		a, b := lb.Entries[i-1], lb.Entries[i]
		require.True(t, a.BestScore > b.BestScore || (a.BestScore == b.BestScore && a.AverageScore >= b.AverageScore))
	}

	top, err := f.service.Leaderboard(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top.Entries, 2)
}

func TestLeaderboardDropsMissingUsersBeforeLimit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.addUser(t, "alice", "Alice")
	f.addUser(t, "ghost", "Ghost")

	_, _ = f.service.Save(ctx, submission("ghost", 15, 60))
	_, _ = f.service.Save(ctx, submission("alice", 9, 60))
	f.users.DeleteUser(ctx, "ghost")

	lb, err := f.service.Leaderboard(ctx, 1)
	require.NoError(t, err)
	require.Len(t, lb.Entries, 1)
	require.Equal(t, "alice", lb.Entries[0].UserID)
}

func TestLeaderboardAverageRoundsToOneDecimal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.addUser(t, "alice", "Alice")
	// scores 100, 0, 0 -> 33.333
	_, _ = f.service.Save(ctx, submission("alice", 15, 1))
	_, _ = f.service.Save(ctx, submission("alice", 0, 1))
	_, _ = f.service.Save(ctx, submission("alice", 0, 1))

	lb, err := f.service.Leaderboard(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, 33.3, lb.Entries[0].AverageScore)
}

func TestLeaderboardFeedReceivesUpdates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.addUser(t, "alice", "Alice")

	ch, cancel, err := f.service.SubscribeLeaderboard(ctx)
	require.NoError(t, err)
	defer cancel()

	initial := <-ch
	require.Empty(t, initial.Entries)

	_, err = f.service.Save(ctx, submission("alice", 15, 30))
	require.NoError(t, err)

	select {
	case update := <-ch:
		require.Len(t, update.Entries, 1)
		require.Equal(t, 100, update.Entries[0].BestScore)
	case <-time.After(time.Second):
		t.Fatalf("no leaderboard update after save")
	}

	cancel()
	cancel()
	require.Zero(t, f.feed.Subscribers())
}

func TestLeaderboardFeedDropsStaleSnapshots(t *testing.T) {
	feed := app.NewLeaderboardFeed()
	service := app.NewResultService(memory.NewResultStore(), memory.NewUserStore(), nil, discardLogger(), app.WithFeed(feed))
	ch, cancel, err := service.SubscribeLeaderboard(context.Background())
	require.NoError(t, err)
	defer cancel()

	for i := 0; i < 20; i++ {
		feed.Publish(domain.Leaderboard{Entries: []domain.LeaderboardEntry{{BestScore: i}}})
	}

	var last domain.Leaderboard
	for len(ch) > 0 {
		last = <-ch
	}
	require.Equal(t, 19, last.Entries[0].BestScore)
}

type failingStats struct{}

func (failingStats) RecordScore(context.Context, string, int) error {
	return errors.New("stats store down")
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
