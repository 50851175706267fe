package http

import (
	"net/http"

	"trivia-quiz-service/internal/domain"
)

type questionsQuery struct {
	Amount     int    `query:"amount" validate:"omitempty,min=1,max=50"`
	Category   string `query:"category" validate:"omitempty,numeric"`
	Difficulty string `query:"difficulty" validate:"omitempty,oneof=easy medium hard"`
}

type questionsResponse struct {
	Success        bool              `json:"success"`
	Questions      []domain.Question `json:"questions"`
	TotalQuestions int               `json:"totalQuestions"`
	Fallback       bool              `json:"fallback"`
	Message        string            `json:"message,omitempty"`
}

func (h *Handler) getQuestions(w http.ResponseWriter, r *http.Request) {
	amount, err := queryInt(r, "amount", domain.DefaultQuestionCount)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	q := questionsQuery{
		Amount:     amount,
		Category:   r.URL.Query().Get("category"),
		Difficulty: r.URL.Query().Get("difficulty"),
	}
	if err := h.check(&q); err != nil {
		h.writeError(w, r, err)
		return
	}

	batch := h.questions.Questions(r.Context(), domain.QuestionRequest{
		Amount:     q.Amount,
		Category:   q.Category,
		Difficulty: q.Difficulty,
	})
	writeJSON(w, http.StatusOK, questionsResponse{
		Success:        true,
		Questions:      batch.Questions,
		TotalQuestions: len(batch.Questions),
		Fallback:       batch.Fallback,
		Message:        batch.Message,
	})
}

func (h *Handler) getCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"categories": h.questions.Categories(r.Context()),
	})
}

func (h *Handler) getStats(w http.ResponseWriter, r *http.Request) {
	report, err := h.results.Stats(r.Context(), identity(r).UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"stats":         report.Stats,
		"recentResults": report.RecentResults,
	})
}
