package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"trivia-quiz-service/internal/domain"
)

const userColumns = `id::text, name, email, password_hash, total_quizzes, best_score, average_score, created_at, last_login`

// UserStore keeps accounts in Postgres through a pgx pool.
type UserStore struct {
	pool *pgxpool.Pool
}

func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

func (s *UserStore) CreateUser(ctx context.Context, user domain.User) error {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, name, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (email) DO NOTHING`,
		user.ID, user.Name, user.Email, user.PasswordHash, user.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEmailTaken
	}
	return nil
}

func (s *UserStore) UserByEmail(ctx context.Context, email string) (domain.User, error) {
	return s.queryOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (s *UserStore) UserByID(ctx context.Context, id string) (domain.User, error) {
	return s.queryOne(ctx, `SELECT `+userColumns+` FROM users WHERE id::text = $1`, id)
}

func (s *UserStore) UsersByID(ctx context.Context, ids []string) (map[string]domain.User, error) {
	out := make(map[string]domain.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := s.pool.Query(ctx, `SELECT `+userColumns+` FROM users WHERE id::text = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("select users: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out[user.ID] = user
	}
	return out, rows.Err()
}

func (s *UserStore) TouchLogin(ctx context.Context, id string, at time.Time) error {
	tag, err := s.pool.Exec(ctx, `UPDATE users SET last_login = $2 WHERE id::text = $1`, id, at)
	if err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// RecordScore folds score into the running counters in one statement. The
// right-hand side sees the row as it was before the update.
func (s *UserStore) RecordScore(ctx context.Context, id string, score int) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE users SET
			total_quizzes = total_quizzes + 1,
			best_score    = GREATEST(best_score, $2),
			average_score = (average_score * total_quizzes + $2) / (total_quizzes + 1)
		WHERE id::text = $1`, id, score)
	if err != nil {
		return fmt.Errorf("update user stats: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (s *UserStore) queryOne(ctx context.Context, query string, arg any) (domain.User, error) {
	user, err := scanUser(s.pool.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	return user, err
}

func scanUser(row pgx.Row) (domain.User, error) {
	var user domain.User
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Stats.TotalQuizzes,
		&user.Stats.BestScore,
		&user.Stats.AverageScore,
		&user.CreatedAt,
		&user.LastLogin,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, err
		}
		return domain.User{}, fmt.Errorf("scan user: %w", err)
	}
	return user, nil
}
