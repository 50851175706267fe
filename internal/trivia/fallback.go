// Package trivia holds the built-in content served when the question provider
// is unreachable, plus option shuffling shared by providers.
package trivia

import (
	_ "embed"
	"encoding/json"
	"math/rand"

	"trivia-quiz-service/internal/domain"
)

// FallbackMessage accompanies a batch served from the built-in set.
const FallbackMessage = "Using fallback questions due to API unavailability"

//go:embed fallback_questions.json
var fallbackQuestionsJSON []byte

//go:embed fallback_categories.json
var fallbackCategoriesJSON []byte

var (
	fallbackQuestions  []domain.Question
	fallbackCategories []domain.Category
)

func init() {
	if err := json.Unmarshal(fallbackQuestionsJSON, &fallbackQuestions); err != nil {
		panic("trivia: decode fallback questions: " + err.Error())
	}
	if err := json.Unmarshal(fallbackCategoriesJSON, &fallbackCategories); err != nil {
		panic("trivia: decode fallback categories: " + err.Error())
	}
}

// FallbackQuestions returns a copy of the fixed 15-question set.
func FallbackQuestions() []domain.Question {
	out := make([]domain.Question, len(fallbackQuestions))
	for i, q := range fallbackQuestions {
		q.Options = append([]string(nil), q.Options...)
		out[i] = q
	}
	return out
}

// FallbackBatch wraps the fixed set as a batch flagged as fallback.
func FallbackBatch() domain.QuestionBatch {
	return domain.QuestionBatch{
		Questions: FallbackQuestions(),
		Fallback:  true,
		Message:   FallbackMessage,
	}
}

// FallbackCategories returns a copy of the built-in category list.
func FallbackCategories() []domain.Category {
	return append([]domain.Category(nil), fallbackCategories...)
}

// ShuffleOptions returns the correct answer mixed uniformly among the distractors.
func ShuffleOptions(rnd *rand.Rand, correct string, incorrect []string) []string {
	options := make([]string, 0, len(incorrect)+1)
	options = append(options, incorrect...)
	options = append(options, correct)
	// Fisher-Yates
	for i := len(options) - 1; i > 0; i-- {
		j := rnd.Intn(i + 1)
		options[i], options[j] = options[j], options[i]
	}
	return options
}
