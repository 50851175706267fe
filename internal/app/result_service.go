package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"trivia-quiz-service/internal/domain"
)

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

var sortableFields = map[domain.SortField]struct{}{
	domain.SortCreatedAt:      {},
	domain.SortSubmittedAt:    {},
	domain.SortScore:          {},
	domain.SortTimeUsed:       {},
	domain.SortCorrectAnswers: {},
}

// ResultService scores and stores attempts and answers the history,
// statistics and leaderboard queries built on them.
type ResultService struct {
	results ResultStore
	users   UserDirectory
	stats   StatsRecorder
	feed    *LeaderboardFeed
	logger  *slog.Logger
	now     func() time.Time
}

// ResultServiceOption customises a ResultService.
type ResultServiceOption func(*ResultService)

// WithClock replaces time.Now, for deterministic timestamps in tests.
func WithClock(now func() time.Time) ResultServiceOption {
	return func(s *ResultService) { s.now = now }
}

// WithFeed publishes a fresh leaderboard to feed after every save and delete.
func WithFeed(feed *LeaderboardFeed) ResultServiceOption {
	return func(s *ResultService) { s.feed = feed }
}

func NewResultService(results ResultStore, users UserDirectory, stats StatsRecorder, logger *slog.Logger, opts ...ResultServiceOption) *ResultService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &ResultService{
		results: results,
		users:   users,
		stats:   stats,
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save scores a submission and stores it as a new record. The owner's running
// stats are refreshed afterwards; a failure there is logged and the saved
// record is still returned.
func (s *ResultService) Save(ctx context.Context, sub domain.Submission) (domain.ResultSummary, error) {
	if err := validateSubmission(sub); err != nil {
		return domain.ResultSummary{}, err
	}
	scored, err := ScoreSubmitted(sub.Questions)
	if err != nil {
		return domain.ResultSummary{}, err
	}

	now := s.now().UTC()
	result := domain.QuizResult{
		ID:             uuid.NewString(),
		Owner:          sub.Owner,
		Email:          sub.Email,
		Questions:      scored.Questions,
		Score:          scored.Score,
		CorrectAnswers: scored.CorrectAnswers,
		TotalQuestions: scored.TotalQuestions,
		TimeUsed:       sub.TimeUsed,
		TimeLimit:      domain.DefaultTimeLimit,
		Completed:      sub.Completed,
		IPAddress:      sub.IPAddress,
		UserAgent:      sub.UserAgent,
		SubmittedAt:    now,
		CreatedAt:      now,
	}
	if err := s.results.CreateResult(ctx, result); err != nil {
		return domain.ResultSummary{}, fmt.Errorf("save result: %w", err)
	}

	if s.stats != nil {
		if err := s.stats.RecordScore(ctx, sub.Owner, result.Score); err != nil {
			s.logger.Warn("update user stats failed", "user", sub.Owner, "result", result.ID, "err", err)
		}
	}
	s.publish(ctx)
	return result.Summary(), nil
}

func validateSubmission(sub domain.Submission) error {
	var fields []domain.FieldError
	if sub.Owner == "" {
		fields = append(fields, domain.FieldError{Field: "user", Message: "owner is required"})
	}
	if len(sub.Questions) == 0 {
		fields = append(fields, domain.FieldError{Field: "questions", Message: "Questions array is required"})
	}
	for i, q := range sub.Questions {
		if strings.TrimSpace(q.Question) == "" || q.CorrectAnswer == "" {
			fields = append(fields, domain.FieldError{
				Field:   fmt.Sprintf("questions[%d]", i),
				Message: "question and correct_answer are required",
			})
		}
	}
	if sub.TimeUsed < 0 {
		fields = append(fields, domain.FieldError{Field: "timeUsed", Message: "Time used must be a positive number"})
	}
	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}

// ParseSort reads a sort expression such as "-createdAt". A leading '-'
// selects descending order; an empty expression means newest first.
func ParseSort(raw string) (domain.SortField, bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return domain.SortCreatedAt, true, nil
	}
	desc := strings.HasPrefix(raw, "-")
	field := domain.SortField(strings.TrimLeft(raw, "-+"))
	if _, ok := sortableFields[field]; !ok {
		return "", false, &domain.ValidationError{Fields: []domain.FieldError{{
			Field:   "sort",
			Message: fmt.Sprintf("cannot sort by %q", field),
		}}}
	}
	return field, desc, nil
}

// ListMine returns one page of the owner's results without question detail.
func (s *ResultService) ListMine(ctx context.Context, owner string, q domain.ListQuery) (domain.ResultPage, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = DefaultPageLimit
	}
	if q.Limit > MaxPageLimit {
		q.Limit = MaxPageLimit
	}
	if q.Sort == "" {
		q.Sort, q.Desc = domain.SortCreatedAt, true
	}

	results, total, err := s.results.ListResults(ctx, owner, q)
	if err != nil {
		return domain.ResultPage{}, fmt.Errorf("list results: %w", err)
	}
	for i := range results {
		results[i].Questions = nil
	}
	if results == nil {
		results = []domain.QuizResult{}
	}

	return domain.ResultPage{
		Results: results,
		Pagination: domain.Pagination{
			CurrentPage:  q.Page,
			TotalPages:   (total + q.Limit - 1) / q.Limit,
			TotalResults: total,
			HasNext:      q.Offset()+len(results) < total,
			HasPrev:      q.Page > 1,
		},
	}, nil
}

// Get returns the full result if owner holds it.
func (s *ResultService) Get(ctx context.Context, owner, id string) (domain.QuizResult, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.QuizResult{}, domain.ErrResultNotFound
	}
	return s.results.GetResult(ctx, owner, id)
}

// Delete removes the result if owner holds it.
func (s *ResultService) Delete(ctx context.Context, owner, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrResultNotFound
	}
	if err := s.results.DeleteResult(ctx, owner, id); err != nil {
		return err
	}
	s.publish(ctx)
	return nil
}

// Stats aggregates every result of owner and lists the most recent ones.
func (s *ResultService) Stats(ctx context.Context, owner string) (domain.StatsReport, error) {
	samples, err := s.results.ScoreSamples(ctx, owner)
	if err != nil {
		return domain.StatsReport{}, fmt.Errorf("load samples: %w", err)
	}
	recent, _, err := s.results.ListResults(ctx, owner, domain.ListQuery{
		Page:  1,
		Limit: recentResultsLimit,
		Sort:  domain.SortCreatedAt,
		Desc:  true,
	})
	if err != nil {
		return domain.StatsReport{}, fmt.Errorf("load recent results: %w", err)
	}

	report := domain.StatsReport{
		Stats:         computeStats(samples),
		RecentResults: make([]domain.ResultSummary, 0, len(recent)),
	}
	for _, r := range recent {
		report.RecentResults = append(report.RecentResults, r.Summary())
	}
	return report, nil
}

// Leaderboard ranks every user with at least one result.
func (s *ResultService) Leaderboard(ctx context.Context, limit int) (domain.Leaderboard, error) {
	limit = clampLeaderboardLimit(limit)
	samples, err := s.results.ScoreSamples(ctx, "")
	if err != nil {
		return domain.Leaderboard{}, fmt.Errorf("load samples: %w", err)
	}
	users, err := s.users.UsersByID(ctx, ownersOf(samples))
	if err != nil {
		return domain.Leaderboard{}, fmt.Errorf("resolve users: %w", err)
	}
	return domain.Leaderboard{
		Entries:   rankLeaderboard(samples, users, limit),
		UpdatedAt: s.now().UTC(),
	}, nil
}

// SubscribeLeaderboard streams the default-sized leaderboard, starting with
// the current snapshot. The caller must invoke cancel to release the channel.
func (s *ResultService) SubscribeLeaderboard(ctx context.Context) (<-chan domain.Leaderboard, func(), error) {
	if s.feed == nil {
		return nil, nil, fmt.Errorf("leaderboard feed disabled: %w", domain.ErrInvalidInput)
	}
	initial, err := s.Leaderboard(ctx, DefaultLeaderboardLimit)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := s.feed.subscribe(initial)
	return ch, cancel, nil
}

func (s *ResultService) publish(ctx context.Context) {
	if s.feed == nil || s.feed.Subscribers() == 0 {
		return
	}
	lb, err := s.Leaderboard(ctx, DefaultLeaderboardLimit)
	if err != nil {
		s.logger.Warn("refresh leaderboard feed failed", "err", err)
		return
	}
	s.feed.Publish(lb)
}
