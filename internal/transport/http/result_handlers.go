package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/domain"
)

type saveRequest struct {
	Questions []submittedQuestion `json:"questions" validate:"required,min=1,dive"`
	TimeUsed  *int                `json:"timeUsed" validate:"required,min=0"`
	Completed *bool               `json:"completed" validate:"required"`
}

type submittedQuestion struct {
	Question      string   `json:"question" validate:"required"`
	CorrectAnswer string   `json:"correct_answer" validate:"required"`
	UserAnswer    *string  `json:"user_answer"`
	Options       []string `json:"options"`
	Category      string   `json:"category"`
	Difficulty    string   `json:"difficulty"`
}

func (req saveRequest) submission(id domain.Identity, r *http.Request) domain.Submission {
	sub := domain.Submission{
		Owner:     id.UserID,
		Email:     id.Email,
		Questions: make([]domain.SubmittedQuestion, 0, len(req.Questions)),
		TimeUsed:  *req.TimeUsed,
		Completed: *req.Completed,
		IPAddress: clientIP(r),
		UserAgent: r.UserAgent(),
	}
	for _, q := range req.Questions {
		answer := q.UserAnswer
		if answer != nil && *answer == "" {
			answer = nil
		}
		sub.Questions = append(sub.Questions, domain.SubmittedQuestion{
			Question:      q.Question,
			CorrectAnswer: q.CorrectAnswer,
			UserAnswer:    answer,
			Options:       q.Options,
			Category:      q.Category,
			Difficulty:    q.Difficulty,
		})
	}
	return sub
}

func (h *Handler) saveResult(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if err := h.decodeAndValidate(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	summary, err := h.results.Save(r.Context(), req.submission(identity(r), r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "Quiz result saved successfully",
		"result":  summary,
	})
}

func (h *Handler) listResults(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", 1)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit", app.DefaultPageLimit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	sort, desc, err := app.ParseSort(r.URL.Query().Get("sort"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resultPage, err := h.results.ListMine(r.Context(), identity(r).UserID, domain.ListQuery{
		Page:  page,
		Limit: limit,
		Sort:  sort,
		Desc:  desc,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"results":    resultPage.Results,
		"pagination": resultPage.Pagination,
	})
}

func (h *Handler) getResult(w http.ResponseWriter, r *http.Request) {
	result, err := h.results.Get(r.Context(), identity(r).UserID, mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "result": result})
}

func (h *Handler) deleteResult(w http.ResponseWriter, r *http.Request) {
	if err := h.results.Delete(r.Context(), identity(r).UserID, mux.Vars(r)["id"]); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Quiz result deleted successfully"})
}

func (h *Handler) getLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", app.DefaultLeaderboardLimit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	lb, err := h.results.Leaderboard(r.Context(), limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"leaderboard": lb.Entries,
		"updatedAt":   lb.UpdatedAt,
	})
}
