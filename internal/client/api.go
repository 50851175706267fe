// Package client drives the REST API the way the browser front end does: it
// holds the player's credentials, runs the quiz session locally and posts the
// finished attempt.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"trivia-quiz-service/internal/domain"
)

// ErrUnauthorized reports that the server rejected the stored token. The
// credentials have already been cleared when it is returned.
var ErrUnauthorized = errors.New("session expired, please log in again")

// APIError is a non-2xx response other than 401.
type APIError struct {
	Status  int
	Message string
	Fields  []domain.FieldError
}

func (e *APIError) Error() string {
	if len(e.Fields) > 0 {
		parts := make([]string, 0, len(e.Fields))
		for _, f := range e.Fields {
			parts = append(parts, f.Field+" "+f.Message)
		}
		return fmt.Sprintf("%s (%d): %s", e.Message, e.Status, strings.Join(parts, "; "))
	}
	return fmt.Sprintf("%s (%d)", e.Message, e.Status)
}

// API is a typed client for the quiz service.
type API struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

func NewAPI(baseURL string, timeout time.Duration) *API {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &API{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (a *API) Token() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.token
}

func (a *API) SetToken(token string) {
	a.mu.Lock()
	a.token = token
	a.mu.Unlock()
}

// Credentials is what register and login hand back.
type Credentials struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

func (a *API) Register(ctx context.Context, name, email, password string) (Credentials, error) {
	var out Credentials
	body := map[string]string{"name": name, "email": email, "password": password}
	if err := a.do(ctx, http.MethodPost, "/auth/register", nil, body, &out); err != nil {
		return Credentials{}, err
	}
	a.SetToken(out.Token)
	return out, nil
}

func (a *API) Login(ctx context.Context, email, password string) (Credentials, error) {
	var out Credentials
	body := map[string]string{"email": email, "password": password}
	if err := a.do(ctx, http.MethodPost, "/auth/login", nil, body, &out); err != nil {
		return Credentials{}, err
	}
	a.SetToken(out.Token)
	return out, nil
}

// Logout revokes the token server side. The local token is dropped either way.
func (a *API) Logout(ctx context.Context) error {
	defer a.SetToken("")
	if a.Token() == "" {
		return nil
	}
	return a.do(ctx, http.MethodPost, "/auth/logout", nil, nil, nil)
}

func (a *API) Profile(ctx context.Context) (domain.User, error) {
	var out struct {
		User domain.User `json:"user"`
	}
	err := a.do(ctx, http.MethodGet, "/auth/profile", nil, nil, &out)
	return out.User, err
}

func (a *API) Questions(ctx context.Context, req domain.QuestionRequest) (domain.QuestionBatch, error) {
	q := url.Values{}
	if req.Amount > 0 {
		q.Set("amount", strconv.Itoa(req.Amount))
	}
	if req.Category != "" {
		q.Set("category", req.Category)
	}
	if req.Difficulty != "" {
		q.Set("difficulty", req.Difficulty)
	}
	var out domain.QuestionBatch
	err := a.do(ctx, http.MethodGet, "/quiz/questions", q, nil, &out)
	return out, err
}

func (a *API) Categories(ctx context.Context) ([]domain.Category, error) {
	var out struct {
		Categories []domain.Category `json:"categories"`
	}
	err := a.do(ctx, http.MethodGet, "/quiz/categories", nil, nil, &out)
	return out.Categories, err
}

// SaveQuestion is one scored question in a save request.
type SaveQuestion struct {
	Question      string   `json:"question"`
	CorrectAnswer string   `json:"correct_answer"`
	UserAnswer    *string  `json:"user_answer"`
	Options       []string `json:"options,omitempty"`
	Category      string   `json:"category,omitempty"`
	Difficulty    string   `json:"difficulty,omitempty"`
}

type SaveRequest struct {
	Questions []SaveQuestion `json:"questions"`
	TimeUsed  int            `json:"timeUsed"`
	Completed bool           `json:"completed"`
}

func (a *API) SaveResult(ctx context.Context, req SaveRequest) (domain.ResultSummary, error) {
	var out struct {
		Result domain.ResultSummary `json:"result"`
	}
	err := a.do(ctx, http.MethodPost, "/results/save", nil, req, &out)
	return out.Result, err
}

func (a *API) MyResults(ctx context.Context, page, limit int, sort string) (domain.ResultPage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	if sort != "" {
		q.Set("sort", sort)
	}
	var out domain.ResultPage
	err := a.do(ctx, http.MethodGet, "/results/my-results", q, nil, &out)
	return out, err
}

func (a *API) Stats(ctx context.Context) (domain.StatsReport, error) {
	var out domain.StatsReport
	err := a.do(ctx, http.MethodGet, "/results/stats", nil, nil, &out)
	return out, err
}

func (a *API) Leaderboard(ctx context.Context, limit int) (domain.Leaderboard, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out domain.Leaderboard
	err := a.do(ctx, http.MethodGet, "/results/leaderboard", q, nil, &out)
	return out, err
}

type errorBody struct {
	Error  string              `json:"error"`
	Errors []domain.FieldError `json:"errors"`
}

func (a *API) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := a.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", path, err)
		}
		reader = bytes.NewReader(raw)
	}

	var req *http.Request
	var err error
	if reader != nil {
		req, err = http.NewRequestWithContext(ctx, method, endpoint, reader)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, endpoint, nil)
	}
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := a.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized && a.Token() != "" {
		a.SetToken("")
		return ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var eb errorBody
		_ = json.NewDecoder(resp.Body).Decode(&eb)
		if eb.Error == "" {
			eb.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: eb.Error, Fields: eb.Errors}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
