package domain

import "time"

const (
	// DefaultQuestionCount is the batch size of one quiz attempt.
	DefaultQuestionCount = 15
	// DefaultTimeLimit is the per-attempt budget in seconds.
	DefaultTimeLimit = 30 * 60
)

// Question is one multiple-choice trivia question. Options hold the correct
// answer shuffled among the distractors.
type Question struct {
	ID            int      `json:"id"`
	Text          string   `json:"question"`
	CorrectAnswer string   `json:"correct_answer"`
	Options       []string `json:"options"`
	Category      string   `json:"category"`
	Difficulty    string   `json:"difficulty"`
}

// AnswerRecord maps a question index to the option the user selected.
type AnswerRecord map[int]string

// QuestionRequest describes the batch a client asks the trivia provider for.
type QuestionRequest struct {
	Amount     int
	Category   string
	Difficulty string
}

// QuestionBatch is the outcome of a question fetch. Fallback is set when the
// provider was unreachable and the built-in set was served instead.
type QuestionBatch struct {
	Questions []Question `json:"questions"`
	Fallback  bool       `json:"fallback"`
	Message   string     `json:"message,omitempty"`
}

// Category is a trivia provider category.
type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// QuestionResult is the scored outcome of a single question in an attempt.
type QuestionResult struct {
	Question      string   `json:"question"`
	CorrectAnswer string   `json:"correct_answer"`
	UserAnswer    *string  `json:"user_answer"`
	Options       []string `json:"options,omitempty"`
	Category      string   `json:"category,omitempty"`
	Difficulty    string   `json:"difficulty,omitempty"`
	IsCorrect     bool     `json:"isCorrect"`
}

// QuizResult is the persisted record of one submitted attempt. It is never
// mutated after creation.
type QuizResult struct {
	ID             string           `json:"id"`
	Owner          string           `json:"user"`
	Email          string           `json:"email"`
	Questions      []QuestionResult `json:"questions,omitempty"`
	Score          int              `json:"score"`
	CorrectAnswers int              `json:"correctAnswers"`
	TotalQuestions int              `json:"totalQuestions"`
	TimeUsed       int              `json:"timeUsed"`
	TimeLimit      int              `json:"timeLimit"`
	Completed      bool             `json:"completed"`
	IPAddress      string           `json:"ipAddress,omitempty"`
	UserAgent      string           `json:"userAgent,omitempty"`
	SubmittedAt    time.Time        `json:"submittedAt"`
	CreatedAt      time.Time        `json:"createdAt"`
}

// ResultSummary is the compact view returned right after a save.
type ResultSummary struct {
	ID             string    `json:"id"`
	Score          int       `json:"score"`
	CorrectAnswers int       `json:"correctAnswers"`
	TotalQuestions int       `json:"totalQuestions"`
	TimeUsed       int       `json:"timeUsed"`
	SubmittedAt    time.Time `json:"submittedAt"`
}

// Summary projects a result onto its summary.
func (r QuizResult) Summary() ResultSummary {
	return ResultSummary{
		ID:             r.ID,
		Score:          r.Score,
		CorrectAnswers: r.CorrectAnswers,
		TotalQuestions: r.TotalQuestions,
		TimeUsed:       r.TimeUsed,
		SubmittedAt:    r.SubmittedAt,
	}
}

// Submission is a validated save request coming from a client.
type Submission struct {
	Owner     string
	Email     string
	Questions []SubmittedQuestion
	TimeUsed  int
	Completed bool
	IPAddress string
	UserAgent string
}

// SubmittedQuestion pairs a question with the answer the user gave, if any.
type SubmittedQuestion struct {
	Question      string
	CorrectAnswer string
	UserAnswer    *string
	Options       []string
	Category      string
	Difficulty    string
}

// ScoreSample is the slice of a result the aggregations need.
type ScoreSample struct {
	Owner       string
	Score       int
	TimeUsed    int
	SubmittedAt time.Time
}

// SortField names a column results can be listed by.
type SortField string

const (
	SortCreatedAt      SortField = "createdAt"
	SortSubmittedAt    SortField = "submittedAt"
	SortScore          SortField = "score"
	SortTimeUsed       SortField = "timeUsed"
	SortCorrectAnswers SortField = "correctAnswers"
)

// ListQuery selects one page of a user's results.
type ListQuery struct {
	Page  int
	Limit int
	Sort  SortField
	Desc  bool
}

// Offset returns the number of rows to skip.
func (q ListQuery) Offset() int {
	if q.Page < 1 {
		return 0
	}
	return (q.Page - 1) * q.Limit
}

// Pagination describes where a page sits in the full listing.
type Pagination struct {
	CurrentPage  int  `json:"currentPage"`
	TotalPages   int  `json:"totalPages"`
	TotalResults int  `json:"totalResults"`
	HasNext      bool `json:"hasNext"`
	HasPrev      bool `json:"hasPrev"`
}

// ResultPage is one page of results with questions omitted.
type ResultPage struct {
	Results    []QuizResult `json:"results"`
	Pagination Pagination   `json:"pagination"`
}

// UserStats aggregates all of a user's results.
type UserStats struct {
	TotalAttempts      int     `json:"totalAttempts"`
	AverageScore       float64 `json:"averageScore"`
	BestScore          int     `json:"bestScore"`
	TotalTimeUsed      int     `json:"totalTimeUsed"`
	AverageTimeUsed    float64 `json:"averageTimeUsed"`
	AverageTimePerQuiz int     `json:"averageTimePerQuiz"`
	TotalTimeSpent     int     `json:"totalTimeSpent"`
}

// StatsReport is the stats view: aggregates plus the most recent attempts.
type StatsReport struct {
	Stats         UserStats       `json:"stats"`
	RecentResults []ResultSummary `json:"recentResults"`
}

// LeaderboardEntry is one ranked user.
type LeaderboardEntry struct {
	UserID        string    `json:"userId"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	BestScore     int       `json:"bestScore"`
	TotalAttempts int       `json:"totalAttempts"`
	AverageScore  float64   `json:"averageScore"`
	LastAttempt   time.Time `json:"lastAttempt"`
}

// Leaderboard captures the ordered ranking at a point in time.
type Leaderboard struct {
	Entries   []LeaderboardEntry `json:"leaderboard"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// RunningStats are the per-user counters refreshed after every save.
type RunningStats struct {
	TotalQuizzes int     `json:"totalQuizzes"`
	BestScore    int     `json:"bestScore"`
	AverageScore float64 `json:"averageScore"`
}

// With folds one more score into the running counters.
func (s RunningStats) With(score int) RunningStats {
	total := s.TotalQuizzes + 1
	best := s.BestScore
	if score > best {
		best = score
	}
	return RunningStats{
		TotalQuizzes: total,
		BestScore:    best,
		AverageScore: (s.AverageScore*float64(s.TotalQuizzes) + float64(score)) / float64(total),
	}
}

// User is a registered player.
type User struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Email        string       `json:"email"`
	PasswordHash string       `json:"-"`
	Stats        RunningStats `json:"stats"`
	CreatedAt    time.Time    `json:"createdAt"`
	LastLogin    *time.Time   `json:"lastLogin,omitempty"`
}

// Identity is the authenticated caller extracted from a token.
type Identity struct {
	UserID    string
	Email     string
	TokenID   string
	ExpiresAt time.Time
}
