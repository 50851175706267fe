// Package opentdb talks to the Open Trivia Database HTTP API.
package opentdb

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"trivia-quiz-service/internal/domain"
	"trivia-quiz-service/internal/trivia"
)

const DefaultBaseURL = "https://opentdb.com"

type questionsResponse struct {
	ResponseCode int              `json:"response_code"`
	Results      []questionResult `json:"results"`
}

type questionResult struct {
	Category         string   `json:"category"`
	Type             string   `json:"type"`
	Difficulty       string   `json:"difficulty"`
	Question         string   `json:"question"`
	CorrectAnswer    string   `json:"correct_answer"`
	IncorrectAnswers []string `json:"incorrect_answers"`
}

type categoriesResponse struct {
	TriviaCategories []domain.Category `json:"trivia_categories"`
}

// Client fetches questions and categories from OpenTDB.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewClient returns a client with sane timeouts. An empty baseURL selects the public API.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   3 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConnsPerHost: 10,
			},
		},
		rnd: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// FetchQuestions requests a multiple-choice batch. Any transport failure or
// non-zero response code is reported as domain.ErrUpstreamUnavailable.
func (c *Client) FetchQuestions(ctx context.Context, req domain.QuestionRequest) ([]domain.Question, error) {
	params := url.Values{}
	params.Set("amount", strconv.Itoa(req.Amount))
	params.Set("type", "multiple")
	if req.Category != "" {
		params.Set("category", req.Category)
	}
	if req.Difficulty != "" {
		params.Set("difficulty", req.Difficulty)
	}

	var body questionsResponse
	if err := c.getJSON(ctx, "/api.php", params, &body); err != nil {
		return nil, err
	}
	if body.ResponseCode != 0 {
		return nil, fmt.Errorf("%w: response code %d", domain.ErrUpstreamUnavailable, body.ResponseCode)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	questions := make([]domain.Question, 0, len(body.Results))
	for i, r := range body.Results {
		incorrect := make([]string, len(r.IncorrectAnswers))
		for j, a := range r.IncorrectAnswers {
			incorrect[j] = html.UnescapeString(a)
		}
		correct := html.UnescapeString(r.CorrectAnswer)
		questions = append(questions, domain.Question{
			ID:            i,
			Text:          html.UnescapeString(r.Question),
			CorrectAnswer: correct,
			Options:       trivia.ShuffleOptions(c.rnd, correct, incorrect),
			Category:      html.UnescapeString(r.Category),
			Difficulty:    r.Difficulty,
		})
	}
	return questions, nil
}

// LoadCategories lists the provider's categories.
func (c *Client) LoadCategories(ctx context.Context) ([]domain.Category, error) {
	var body categoriesResponse
	if err := c.getJSON(ctx, "/api_category.php", nil, &body); err != nil {
		return nil, err
	}
	if len(body.TriviaCategories) == 0 {
		return nil, fmt.Errorf("%w: empty category list", domain.ErrUpstreamUnavailable)
	}
	return body.TriviaCategories, nil
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: status %d: %s", domain.ErrUpstreamUnavailable, resp.StatusCode, string(b))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", domain.ErrUpstreamUnavailable, err)
	}
	return nil
}
