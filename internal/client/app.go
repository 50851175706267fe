package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/domain"
	"trivia-quiz-service/internal/quiz"
	"trivia-quiz-service/internal/trivia"
)

// App is one player's client session: credentials, current screen and the
// quiz in progress.
type App struct {
	api     *API
	session *quiz.Session
	logger  *slog.Logger
	tick    time.Duration

	mu   sync.Mutex
	user *domain.User
	view View
}

// AppOption customises an App.
type AppOption func(*App)

// WithTick sets the countdown interval. One tick is one second of budget.
func WithTick(d time.Duration) AppOption {
	return func(a *App) { a.tick = d }
}

// WithTimeLimit sets the per-attempt budget in seconds.
func WithTimeLimit(seconds int) AppOption {
	return func(a *App) { a.session = quiz.NewSession(seconds) }
}

func NewApp(api *API, logger *slog.Logger, opts ...AppOption) *App {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{
		api:     api,
		session: quiz.NewSession(domain.DefaultTimeLimit),
		logger:  logger,
		tick:    time.Second,
		view:    View{Kind: ViewAuth},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *App) View() View {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.view
}

// User returns the signed-in player, if any.
func (a *App) User() (domain.User, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.user == nil {
		return domain.User{}, false
	}
	return *a.user, true
}

func (a *App) Session() *quiz.Session { return a.session }

func (a *App) API() *API { return a.api }

func (a *App) Login(ctx context.Context, email, password string) error {
	creds, err := a.api.Login(ctx, email, password)
	if err != nil {
		return err
	}
	return a.signedIn(creds)
}

func (a *App) Register(ctx context.Context, name, email, password string) error {
	creds, err := a.api.Register(ctx, name, email, password)
	if err != nil {
		return err
	}
	return a.signedIn(creds)
}

func (a *App) signedIn(creds Credentials) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	next, err := a.view.To(ViewStart)
	if err != nil {
		return err
	}
	user := creds.User
	a.user = &user
	a.view = next
	return nil
}

// StartQuiz fetches a batch and starts the countdown. Any fetch failure other
// than an expired session falls back to the built-in questions.
func (a *App) StartQuiz(ctx context.Context, req domain.QuestionRequest) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	next, err := a.view.To(ViewQuiz)
	if err != nil {
		return err
	}
	if err := a.session.Begin(); err != nil {
		return fmt.Errorf("start quiz: %w", err)
	}

	batch, err := a.api.Questions(ctx, req)
	if errors.Is(err, ErrUnauthorized) {
		a.signOutLocked()
		return err
	}
	if err != nil || len(batch.Questions) == 0 {
		a.logger.Warn("question fetch failed, using built-in set", "err", err)
		batch = trivia.FallbackBatch()
	}
	if err := a.session.Load(batch.Questions, batch.Fallback); err != nil {
		a.session.Teardown()
		return fmt.Errorf("load questions: %w", err)
	}
	if err := a.session.StartCountdown(ctx, a.tick); err != nil {
		return fmt.Errorf("start countdown: %w", err)
	}
	a.view = next
	return nil
}

// Submit freezes the session, scores it locally and posts it. The report
// screen is shown even when the save fails; the failure is kept on the report.
// An expired session instead signs the player out and returns ErrUnauthorized
// along with the unsaved report.
func (a *App) Submit(ctx context.Context) (Report, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.view.Kind == ViewReport && a.view.Report != nil {
		return *a.view.Report, nil
	}
	next, err := a.view.To(ViewReport)
	if err != nil {
		return Report{}, err
	}
	if err := a.session.Submit(); err != nil {
		return Report{}, fmt.Errorf("submit quiz: %w", err)
	}

	questions := a.session.Questions()
	answers := a.session.Answers()
	scored, err := app.Score(questions, answers)
	if err != nil {
		return Report{}, err
	}
	report := Report{
		ScoreResult: scored,
		TimeUsed:    a.session.TimeUsed(),
		Fallback:    a.session.UsedFallback(),
	}

	summary, err := a.api.SaveResult(ctx, saveRequest(questions, answers, report.TimeUsed))
	if errors.Is(err, ErrUnauthorized) {
		a.signOutLocked()
		return report, err
	}
	if err != nil {
		a.logger.Warn("saving result failed", "err", err)
		report.SaveError = err
	} else {
		report.Saved = &summary
	}

	next.Report = &report
	a.view = next
	return report, nil
}

func saveRequest(questions []domain.Question, answers domain.AnswerRecord, timeUsed int) SaveRequest {
	req := SaveRequest{
		Questions: make([]SaveQuestion, 0, len(questions)),
		TimeUsed:  timeUsed,
		Completed: len(answers) == len(questions),
	}
	for i, q := range questions {
		var answer *string
		if a, ok := answers[i]; ok {
			answer = &a
		}
		req.Questions = append(req.Questions, SaveQuestion{
			Question:      q.Text,
			CorrectAnswer: q.CorrectAnswer,
			UserAnswer:    answer,
			Options:       q.Options,
			Category:      q.Category,
			Difficulty:    q.Difficulty,
		})
	}
	return req
}

// Retake discards the finished attempt and returns to the start screen.
func (a *App) Retake() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	next, err := a.view.To(ViewStart)
	if err != nil {
		return err
	}
	a.session.Teardown()
	a.view = next
	return nil
}

// Logout revokes the token and clears every field of the client session.
func (a *App) Logout(ctx context.Context) error {
	err := a.api.Logout(ctx)
	a.mu.Lock()
	a.signOutLocked()
	a.mu.Unlock()
	if errors.Is(err, ErrUnauthorized) {
		return nil
	}
	return err
}

func (a *App) signOutLocked() {
	a.api.SetToken("")
	a.session.Teardown()
	a.user = nil
	a.view = View{Kind: ViewAuth}
}
