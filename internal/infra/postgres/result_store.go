package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"trivia-quiz-service/internal/domain"
)

type resultRow struct {
	bun.BaseModel `bun:"table:quiz_results,alias:qr"`

	ID             string                  `bun:"id,pk,type:uuid"`
	UserID         string                  `bun:"user_id,type:uuid,notnull"`
	Email          string                  `bun:"email,notnull"`
	Questions      []domain.QuestionResult `bun:"questions,type:jsonb"`
	Score          int                     `bun:"score,notnull"`
	CorrectAnswers int                     `bun:"correct_answers,notnull"`
	TotalQuestions int                     `bun:"total_questions,notnull"`
	TimeUsed       int                     `bun:"time_used,notnull"`
	TimeLimit      int                     `bun:"time_limit,notnull"`
	Completed      bool                    `bun:"completed,notnull"`
	IPAddress      string                  `bun:"ip_address,nullzero"`
	UserAgent      string                  `bun:"user_agent,nullzero"`
	SubmittedAt    time.Time               `bun:"submitted_at,notnull"`
	CreatedAt      time.Time               `bun:"created_at,notnull"`
}

type sampleRow struct {
	UserID      string    `bun:"user_id"`
	Score       int       `bun:"score"`
	TimeUsed    int       `bun:"time_used"`
	SubmittedAt time.Time `bun:"submitted_at"`
}

var sortColumns = map[domain.SortField]string{
	domain.SortCreatedAt:      "qr.created_at",
	domain.SortSubmittedAt:    "qr.submitted_at",
	domain.SortScore:          "qr.score",
	domain.SortTimeUsed:       "qr.time_used",
	domain.SortCorrectAnswers: "qr.correct_answers",
}

// ResultStore persists quiz results through bun.
type ResultStore struct {
	db *bun.DB
}

func NewResultStore(db *bun.DB) *ResultStore {
	return &ResultStore{db: db}
}

func (s *ResultStore) CreateResult(ctx context.Context, result domain.QuizResult) error {
	row := toResultRow(result)
	if row.Questions == nil {
		row.Questions = []domain.QuestionResult{}
	}
	if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	return nil
}

func (s *ResultStore) GetResult(ctx context.Context, owner, id string) (domain.QuizResult, error) {
	var row resultRow
	err := s.db.NewSelect().
		Model(&row).
		Where("qr.id = ?", id).
		Where("qr.user_id = ?", owner).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.QuizResult{}, domain.ErrResultNotFound
	}
	if err != nil {
		return domain.QuizResult{}, fmt.Errorf("select result: %w", err)
	}
	return row.toDomain(), nil
}

func (s *ResultStore) ListResults(ctx context.Context, owner string, q domain.ListQuery) ([]domain.QuizResult, int, error) {
	column, ok := sortColumns[q.Sort]
	if !ok {
		column = sortColumns[domain.SortCreatedAt]
	}
	direction := " ASC"
	if q.Desc {
		direction = " DESC"
	}

	var rows []resultRow
	query := s.db.NewSelect().
		Model(&rows).
		ExcludeColumn("questions").
		Where("qr.user_id = ?", owner).
		OrderExpr(column + direction).
		OrderExpr("qr.id" + direction).
		Offset(q.Offset())
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}
	total, err := query.ScanAndCount(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("list results: %w", err)
	}

	results := make([]domain.QuizResult, 0, len(rows))
	for _, row := range rows {
		results = append(results, row.toDomain())
	}
	return results, total, nil
}

func (s *ResultStore) DeleteResult(ctx context.Context, owner, id string) error {
	res, err := s.db.NewDelete().
		Model((*resultRow)(nil)).
		Where("id = ?", id).
		Where("user_id = ?", owner).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete result: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrResultNotFound
	}
	return nil
}

func (s *ResultStore) ScoreSamples(ctx context.Context, owner string) ([]domain.ScoreSample, error) {
	var rows []sampleRow
	query := s.db.NewSelect().
		Model((*resultRow)(nil)).
		Column("user_id", "score", "time_used", "submitted_at").
		OrderExpr("qr.created_at ASC, qr.id ASC")
	if owner != "" {
		query = query.Where("qr.user_id = ?", owner)
	}
	if err := query.Scan(ctx, &rows); err != nil {
		return nil, fmt.Errorf("select samples: %w", err)
	}

	samples := make([]domain.ScoreSample, 0, len(rows))
	for _, row := range rows {
		samples = append(samples, domain.ScoreSample{
			Owner:       row.UserID,
			Score:       row.Score,
			TimeUsed:    row.TimeUsed,
			SubmittedAt: row.SubmittedAt,
		})
	}
	return samples, nil
}

func toResultRow(r domain.QuizResult) resultRow {
	return resultRow{
		ID:             r.ID,
		UserID:         r.Owner,
		Email:          r.Email,
		Questions:      r.Questions,
		Score:          r.Score,
		CorrectAnswers: r.CorrectAnswers,
		TotalQuestions: r.TotalQuestions,
		TimeUsed:       r.TimeUsed,
		TimeLimit:      r.TimeLimit,
		Completed:      r.Completed,
		IPAddress:      r.IPAddress,
		UserAgent:      r.UserAgent,
		SubmittedAt:    r.SubmittedAt,
		CreatedAt:      r.CreatedAt,
	}
}

func (row resultRow) toDomain() domain.QuizResult {
	return domain.QuizResult{
		ID:             row.ID,
		Owner:          row.UserID,
		Email:          row.Email,
		Questions:      row.Questions,
		Score:          row.Score,
		CorrectAnswers: row.CorrectAnswers,
		TotalQuestions: row.TotalQuestions,
		TimeUsed:       row.TimeUsed,
		TimeLimit:      row.TimeLimit,
		Completed:      row.Completed,
		IPAddress:      row.IPAddress,
		UserAgent:      row.UserAgent,
		SubmittedAt:    row.SubmittedAt,
		CreatedAt:      row.CreatedAt,
	}
}
