package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/auth"
	"trivia-quiz-service/internal/domain"
	"trivia-quiz-service/internal/infra/memory"
	"trivia-quiz-service/internal/quiz"
	"trivia-quiz-service/internal/trivia"
	transport "trivia-quiz-service/internal/transport/http"
)

type downProvider struct{}

func (downProvider) FetchQuestions(context.Context, domain.QuestionRequest) ([]domain.Question, error) {
	return nil, domain.ErrUpstreamUnavailable
}

func TestPlayRound(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	users := memory.NewUserStore()
	tokens, err := auth.NewTokens("play-test-secret-0123456789", time.Hour)
	require.NoError(t, err)
	categories := memory.NewCategoryRepository(memory.NewStaticCategoryLoader(nil, errors.New("down")), time.Minute)
	h := transport.NewHandler(
		app.NewAuthService(users, tokens, memory.NewRevocationStore(), logger),
		app.NewQuestionService(downProvider{}, categories, logger),
		app.NewResultService(memory.NewResultStore(), users, users, logger),
		logger,
		transport.Options{},
	)
	server := httptest.NewServer(transport.NewRouter(h))
	defer server.Close()

	first := trivia.FallbackQuestions()[0]
	choice := 0
	for i, opt := range first.Options {
		if opt == first.CorrectAnswer {
			choice = i + 1
		}
	}
	require.NotZero(t, choice)

	in := strings.NewReader(strings.Join([]string{
		"7",
		"bogus",
		string(rune('0' + choice)),
		"n",
		"g 15",
		"s",
	}, "\n") + "\n")
	var out bytes.Buffer

	err = runPlay(context.Background(), playOptions{
		server:    server.URL,
		name:      "Alice",
		email:     "alice@example.com",
		password:  "secret1",
		register:  true,
		amount:    15,
		timeLimit: 1800,
	}, in, &out)
	require.NoError(t, err)

	text := out.String()
	require.Contains(t, text, "Welcome, Alice!")
	require.Contains(t, text, "built-in questions")
	require.Contains(t, text, "pick an option between 1 and 4")
	require.Contains(t, text, `unknown command "bogus"`)
	require.Contains(t, text, "Score: 7%  (1/15 correct")
	require.Contains(t, text, "Result saved")
}

func TestHandleInputNavigation(t *testing.T) {
	s := quiz.NewSession(60)
	require.NoError(t, s.Begin())
	require.NoError(t, s.Load(trivia.FallbackQuestions(), true))

	require.NoError(t, handleInput(s, "n"))
	require.Equal(t, 1, s.Current())
	require.NoError(t, handleInput(s, "p"))
	require.Equal(t, 0, s.Current())
	require.ErrorIs(t, handleInput(s, "p"), quiz.ErrIndexOutOfRange)
	require.NoError(t, handleInput(s, "g 3"))
	require.Equal(t, 2, s.Current())
	require.Error(t, handleInput(s, "g x"))

	require.NoError(t, handleInput(s, "2"))
	answer, ok := s.Answer(2)
	require.True(t, ok)
	require.Equal(t, s.Questions()[2].Options[1], answer)

	require.NoError(t, handleInput(s, "s"))
	require.Equal(t, quiz.PhaseSubmitted, s.Phase())
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	require.Equal(t, slog.LevelWarn, parseLevel("warn"))
	require.Equal(t, slog.LevelInfo, parseLevel(""))
}
