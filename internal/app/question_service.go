package app

import (
	"context"
	"log/slog"

	"trivia-quiz-service/internal/domain"
	"trivia-quiz-service/internal/trivia"
)

const MaxQuestionAmount = 50

// QuestionService serves question batches and categories. Upstream failures
// degrade to the built-in content instead of surfacing as errors.
type QuestionService struct {
	provider   QuestionProvider
	categories CategoryRepository
	logger     *slog.Logger
}

func NewQuestionService(provider QuestionProvider, categories CategoryRepository, logger *slog.Logger) *QuestionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &QuestionService{provider: provider, categories: categories, logger: logger}
}

// Questions fetches a batch. Amount defaults to the standard batch size and
// is clamped to [1, MaxQuestionAmount].
func (s *QuestionService) Questions(ctx context.Context, req domain.QuestionRequest) domain.QuestionBatch {
	switch {
	case req.Amount <= 0:
		req.Amount = domain.DefaultQuestionCount
	case req.Amount > MaxQuestionAmount:
		req.Amount = MaxQuestionAmount
	}

	questions, err := s.provider.FetchQuestions(ctx, req)
	if err != nil || len(questions) == 0 {
		s.logger.Warn("serving fallback questions", "amount", req.Amount, "category", req.Category, "difficulty", req.Difficulty, "err", err)
		return trivia.FallbackBatch()
	}
	return domain.QuestionBatch{Questions: questions}
}

// Categories returns the provider's categories, or the built-in list when
// they cannot be loaded.
func (s *QuestionService) Categories(ctx context.Context) []domain.Category {
	categories, err := s.categories.Categories(ctx)
	if err != nil || len(categories) == 0 {
		s.logger.Warn("serving fallback categories", "err", err)
		return trivia.FallbackCategories()
	}
	return categories
}
