package memory

import (
	"context"
	"sort"
	"sync"

	"trivia-quiz-service/internal/domain"
)

// ResultStore keeps results in insertion order. It backs the server when no
// database is configured and the service tests.
type ResultStore struct {
	mu      sync.RWMutex
	results []domain.QuizResult
}

func NewResultStore() *ResultStore {
	return &ResultStore{}
}

func (s *ResultStore) CreateResult(_ context.Context, result domain.QuizResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	result.Questions = copyQuestionResults(result.Questions)
	s.results = append(s.results, result)
	return nil
}

func (s *ResultStore) GetResult(_ context.Context, owner, id string) (domain.QuizResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.results {
		if r.ID == id && r.Owner == owner {
			r.Questions = copyQuestionResults(r.Questions)
			return r, nil
		}
	}
	return domain.QuizResult{}, domain.ErrResultNotFound
}

func (s *ResultStore) ListResults(_ context.Context, owner string, q domain.ListQuery) ([]domain.QuizResult, int, error) {
	s.mu.RLock()
	var owned []domain.QuizResult
	for _, r := range s.results {
		if r.Owner == owner {
			r.Questions = nil
			owned = append(owned, r)
		}
	}
	s.mu.RUnlock()

	less := lessBy(q.Sort)
	sort.SliceStable(owned, func(i, j int) bool {
		if q.Desc {
			return less(owned[j], owned[i])
		}
		return less(owned[i], owned[j])
	})

	total := len(owned)
	start := q.Offset()
	if start >= total {
		return []domain.QuizResult{}, total, nil
	}
	end := total
	if q.Limit > 0 && start+q.Limit < end {
		end = start + q.Limit
	}
	return owned[start:end], total, nil
}

func (s *ResultStore) DeleteResult(_ context.Context, owner, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.results {
		if r.ID == id && r.Owner == owner {
			s.results = append(s.results[:i], s.results[i+1:]...)
			return nil
		}
	}
	return domain.ErrResultNotFound
}

func (s *ResultStore) ScoreSamples(_ context.Context, owner string) ([]domain.ScoreSample, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	samples := make([]domain.ScoreSample, 0, len(s.results))
	for _, r := range s.results {
		if owner != "" && r.Owner != owner {
			continue
		}
		samples = append(samples, domain.ScoreSample{
			Owner:       r.Owner,
			Score:       r.Score,
			TimeUsed:    r.TimeUsed,
			SubmittedAt: r.SubmittedAt,
		})
	}
	return samples, nil
}

func lessBy(field domain.SortField) func(a, b domain.QuizResult) bool {
	switch field {
	case domain.SortSubmittedAt:
		return func(a, b domain.QuizResult) bool { return a.SubmittedAt.Before(b.SubmittedAt) }
	case domain.SortScore:
		return func(a, b domain.QuizResult) bool { return a.Score < b.Score }
	case domain.SortTimeUsed:
		return func(a, b domain.QuizResult) bool { return a.TimeUsed < b.TimeUsed }
	case domain.SortCorrectAnswers:
		return func(a, b domain.QuizResult) bool { return a.CorrectAnswers < b.CorrectAnswers }
	default:
		return func(a, b domain.QuizResult) bool { return a.CreatedAt.Before(b.CreatedAt) }
	}
}

func copyQuestionResults(in []domain.QuestionResult) []domain.QuestionResult {
	if in == nil {
		return nil
	}
	out := make([]domain.QuestionResult, len(in))
	for i, q := range in {
		q.Options = append([]string(nil), q.Options...)
		out[i] = q
	}
	return out
}
