// Package http exposes the quiz services as a JSON REST API plus a websocket
// leaderboard stream.
package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/domain"
)

// Handler serves every REST route.
type Handler struct {
	auth       *app.AuthService
	questions  *app.QuestionService
	results    *app.ResultService
	ws         *WSHandler
	validate   *validator.Validate
	logger     *slog.Logger
	origins    []string
	production bool
}

// Options tune the router.
type Options struct {
	AllowedOrigins []string
	// Production hides internal error detail from responses.
	Production bool
}

func NewHandler(auth *app.AuthService, questions *app.QuestionService, results *app.ResultService, logger *slog.Logger, opts Options) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		auth:       auth,
		questions:  questions,
		results:    results,
		ws:         NewWSHandler(results, logger),
		validate:   newValidator(),
		logger:     logger,
		origins:    opts.AllowedOrigins,
		production: opts.Production,
	}
}

// NewRouter builds the route table around h. CORS and request logging wrap
// the whole router so preflights and unmatched paths pass through them too.
func NewRouter(h *Handler) http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	authRoutes := router.PathPrefix("/auth").Subrouter()
	authRoutes.HandleFunc("/register", h.register).Methods(http.MethodPost)
	authRoutes.HandleFunc("/login", h.login).Methods(http.MethodPost)
	authRoutes.Handle("/logout", h.requireAuth(http.HandlerFunc(h.logout))).Methods(http.MethodPost)
	authRoutes.Handle("/profile", h.requireAuth(http.HandlerFunc(h.profile))).Methods(http.MethodGet)

	quiz := router.PathPrefix("/quiz").Subrouter()
	quiz.Use(h.requireAuth)
	quiz.HandleFunc("/questions", h.getQuestions).Methods(http.MethodGet)
	quiz.HandleFunc("/categories", h.getCategories).Methods(http.MethodGet)
	quiz.HandleFunc("/stats", h.getStats).Methods(http.MethodGet)

	results := router.PathPrefix("/results").Subrouter()
	results.Use(h.requireAuth)
	results.HandleFunc("/save", h.saveResult).Methods(http.MethodPost)
	results.HandleFunc("/my-results", h.listResults).Methods(http.MethodGet)
	results.HandleFunc("/result/{id}", h.getResult).Methods(http.MethodGet)
	results.HandleFunc("/result/{id}", h.deleteResult).Methods(http.MethodDelete)
	results.HandleFunc("/stats", h.getStats).Methods(http.MethodGet)
	results.HandleFunc("/leaderboard", h.getLeaderboard).Methods(http.MethodGet)
	results.HandleFunc("/leaderboard/ws", h.ws.ServeWS).Methods(http.MethodGet)

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "Route not found"})
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "Method not allowed"})
	})
	return loggingMiddleware(h.logger)(corsMiddleware(h.origins)(router))
}

// identity is only called behind requireAuth.
func identity(r *http.Request) domain.Identity {
	id, _ := IdentityFrom(r.Context())
	return id
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &domain.ValidationError{Fields: []domain.FieldError{{Field: name, Message: "must be an integer"}}}
	}
	return v, nil
}
