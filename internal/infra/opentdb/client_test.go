package opentdb

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"trivia-quiz-service/internal/domain"
)

func TestFetchQuestionsDecodesAndShuffles(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotQuery = r.URL.Path, r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"response_code": 0,
			"results": [{
				"category": "Entertainment: Books",
				"type": "multiple",
				"difficulty": "medium",
				"question": "Who wrote &quot;Dune&quot;?",
				"correct_answer": "Frank Herbert",
				"incorrect_answers": ["Isaac Asimov", "Arthur C. Clarke", "Ursula K. Le Guin"]
			}]
		}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	questions, err := client.FetchQuestions(context.Background(), domain.QuestionRequest{Amount: 1, Category: "10", Difficulty: "medium"})
	require.NoError(t, err)
	require.Equal(t, "/api.php", gotPath)
	require.Equal(t, "amount=1&category=10&difficulty=medium&type=multiple", gotQuery)
	require.Len(t, questions, 1)

	q := questions[0]
	require.Equal(t, 0, q.ID)
	require.Equal(t, `Who wrote "Dune"?`, q.Text)
	require.Equal(t, "Frank Herbert", q.CorrectAnswer)
	require.Len(t, q.Options, 4)
	require.Contains(t, q.Options, "Frank Herbert")
	require.Contains(t, q.Options, "Ursula K. Le Guin")
}

func TestFetchQuestionsRejectsNonZeroResponseCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response_code": 1, "results": []}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).FetchQuestions(context.Background(), domain.QuestionRequest{Amount: 15})
	if !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
}

func TestFetchQuestionsReportsServerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).FetchQuestions(context.Background(), domain.QuestionRequest{Amount: 15})
	if !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
}

func TestFetchQuestionsUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	_, err := NewClient(addr, 200*time.Millisecond).FetchQuestions(context.Background(), domain.QuestionRequest{Amount: 15})
	if !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
}

func TestLoadCategories(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"trivia_categories":[{"id":9,"name":"General Knowledge"},{"id":22,"name":"Geography"}]}`))
	}))
	defer srv.Close()

	categories, err := NewClient(srv.URL, time.Second).LoadCategories(context.Background())
	require.NoError(t, err)
	require.Equal(t, "/api_category.php", gotPath)
	require.Equal(t, []domain.Category{{ID: 9, Name: "General Knowledge"}, {ID: 22, Name: "Geography"}}, categories)
}
