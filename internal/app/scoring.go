package app

import (
	"fmt"

	"trivia-quiz-service/internal/domain"
)

// ScoreResult is the graded outcome of one attempt.
type ScoreResult struct {
	Questions      []domain.QuestionResult
	CorrectAnswers int
	TotalQuestions int
	Score          int
}

// Score grades answers against questions by position. Comparison is exact and
// case-sensitive; unanswered questions count as incorrect.
func Score(questions []domain.Question, answers domain.AnswerRecord) (ScoreResult, error) {
	submitted := make([]domain.SubmittedQuestion, len(questions))
	for i, q := range questions {
		sq := domain.SubmittedQuestion{
			Question:      q.Text,
			CorrectAnswer: q.CorrectAnswer,
			Options:       append([]string(nil), q.Options...),
			Category:      q.Category,
			Difficulty:    q.Difficulty,
		}
		if answer, ok := answers[i]; ok {
			answer := answer
			sq.UserAnswer = &answer
		}
		submitted[i] = sq
	}
	return ScoreSubmitted(submitted)
}

// ScoreSubmitted grades question/answer pairs as they arrive in a save request.
func ScoreSubmitted(questions []domain.SubmittedQuestion) (ScoreResult, error) {
	total := len(questions)
	if total == 0 {
		return ScoreResult{}, fmt.Errorf("score: no questions: %w", domain.ErrInvalidInput)
	}

	out := ScoreResult{
		Questions:      make([]domain.QuestionResult, total),
		TotalQuestions: total,
	}
	for i, q := range questions {
		correct := q.UserAnswer != nil && *q.UserAnswer == q.CorrectAnswer
		if correct {
			out.CorrectAnswers++
		}
		out.Questions[i] = domain.QuestionResult{
			Question:      q.Question,
			CorrectAnswer: q.CorrectAnswer,
			UserAnswer:    q.UserAnswer,
			Options:       q.Options,
			Category:      q.Category,
			Difficulty:    q.Difficulty,
			IsCorrect:     correct,
		}
	}
	out.Score = percentage(out.CorrectAnswers, total)
	return out, nil
}

// percentage rounds 100*part/total half up using integer arithmetic only.
func percentage(part, total int) int {
	return (200*part + total) / (2 * total)
}
