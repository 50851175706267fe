// Package quiz models one player's in-progress attempt: the fetched questions,
// the answers given so far, navigation flags and the countdown.
package quiz

import (
	"context"
	"errors"
	"sync"
	"time"

	"trivia-quiz-service/internal/domain"
)

var (
	ErrIndexOutOfRange = errors.New("question index out of range")
	ErrNotActive       = errors.New("quiz is not active")
	ErrNotVisited      = errors.New("question has not been visited")
	ErrInvalidPhase    = errors.New("invalid phase transition")
	ErrNoQuestions     = errors.New("no questions to load")
)

// Phase is the lifecycle position of a session.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseActive
	PhaseSubmitted
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseActive:
		return "active"
	case PhaseSubmitted:
		return "submitted"
	}
	return "unknown"
}

// Status is the navigation badge of a single question.
type Status int

const (
	StatusUnvisited Status = iota
	StatusVisited
	StatusAttempted
	StatusCurrent
)

func (s Status) String() string {
	switch s {
	case StatusCurrent:
		return "current"
	case StatusAttempted:
		return "attempted"
	case StatusVisited:
		return "visited"
	}
	return "unvisited"
}

// Session holds the state of one attempt. All methods are safe for use by the
// countdown goroutine and the input loop at the same time.
type Session struct {
	mu        sync.Mutex
	phase     Phase
	questions []domain.Question
	answers   domain.AnswerRecord
	visited   map[int]struct{}
	attempted map[int]struct{}
	current   int
	budget    int
	remaining int
	fallback  bool
	done      chan struct{}
	stopTimer context.CancelFunc
}

// NewSession creates an idle session with the given time budget in seconds.
func NewSession(budgetSeconds int) *Session {
	if budgetSeconds <= 0 {
		budgetSeconds = domain.DefaultTimeLimit
	}
	s := &Session{budget: budgetSeconds}
	s.resetLocked()
	return s
}

func (s *Session) resetLocked() {
	s.phase = PhaseIdle
	s.questions = nil
	s.answers = make(domain.AnswerRecord)
	s.visited = make(map[int]struct{})
	s.attempted = make(map[int]struct{})
	s.current = 0
	s.remaining = s.budget
	s.fallback = false
	s.done = make(chan struct{})
}

// Begin moves an idle session into loading while questions are fetched.
func (s *Session) Begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseIdle {
		return ErrInvalidPhase
	}
	s.phase = PhaseLoading
	return nil
}

// Load installs the fetched questions and activates the session. The first
// question becomes current and is marked visited.
func (s *Session) Load(questions []domain.Question, fallback bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseLoading {
		return ErrInvalidPhase
	}
	if len(questions) == 0 {
		return ErrNoQuestions
	}
	s.questions = append([]domain.Question(nil), questions...)
	s.fallback = fallback
	s.phase = PhaseActive
	s.current = 0
	s.visited[0] = struct{}{}
	return nil
}

// SelectAnswer records option as the answer to question index.
func (s *Session) SelectAnswer(index int, option string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseActive {
		return ErrNotActive
	}
	if !s.inRangeLocked(index) {
		return ErrIndexOutOfRange
	}
	if _, ok := s.visited[index]; !ok {
		return ErrNotVisited
	}
	s.answers[index] = option
	s.attempted[index] = struct{}{}
	return nil
}

// Navigate makes index the current question and marks it visited.
func (s *Session) Navigate(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseActive {
		return ErrNotActive
	}
	if !s.inRangeLocked(index) {
		return ErrIndexOutOfRange
	}
	s.current = index
	s.visited[index] = struct{}{}
	return nil
}

// Tick consumes one second of the budget. It reports true when this tick
// forced the session into submitted.
func (s *Session) Tick() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseActive {
		return false
	}
	if s.remaining > 0 {
		s.remaining--
	}
	if s.remaining == 0 {
		s.submitLocked()
		return true
	}
	return false
}

// Submit freezes the answers. Repeated calls have no further effect.
func (s *Session) Submit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.phase {
	case PhaseSubmitted:
		return nil
	case PhaseActive:
		s.submitLocked()
		return nil
	}
	return ErrNotActive
}

func (s *Session) submitLocked() {
	s.phase = PhaseSubmitted
	s.stopTimerLocked()
	close(s.done)
}

func (s *Session) stopTimerLocked() {
	if s.stopTimer != nil {
		s.stopTimer()
		s.stopTimer = nil
	}
}

// Teardown stops the countdown and clears every field back to idle.
func (s *Session) Teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTimerLocked()
	if s.phase != PhaseSubmitted {
		close(s.done)
	}
	s.resetLocked()
}

// Done is closed when the session enters submitted, by Submit or by timeout,
// or when it is torn down. Teardown replaces the channel for the next attempt.
func (s *Session) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// StartCountdown ticks the session once per interval until it leaves active.
func (s *Session) StartCountdown(ctx context.Context, interval time.Duration) error {
	s.mu.Lock()
	if s.phase != PhaseActive {
		s.mu.Unlock()
		return ErrNotActive
	}
	s.stopTimerLocked()
	ctx, cancel := context.WithCancel(ctx)
	s.stopTimer = cancel
	s.mu.Unlock()

	go runCountdown(ctx, s, interval)
	return nil
}

func (s *Session) inRangeLocked(index int) bool {
	return index >= 0 && index < len(s.questions)
}

func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

func (s *Session) Questions() []domain.Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Question(nil), s.questions...)
}

// Answers returns a copy of the answers recorded so far.
func (s *Session) Answers() domain.AnswerRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(domain.AnswerRecord, len(s.answers))
	for k, v := range s.answers {
		out[k] = v
	}
	return out
}

func (s *Session) Answer(index int) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.answers[index]
	return v, ok
}

func (s *Session) Current() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *Session) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remaining
}

// TimeUsed is the number of budget seconds consumed.
func (s *Session) TimeUsed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.budget - s.remaining
}

func (s *Session) UsedFallback() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fallback
}

func (s *Session) TotalQuestions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.questions)
}

func (s *Session) AnsweredCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.attempted)
}

func (s *Session) VisitedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.visited)
}

func (s *Session) NotVisitedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.questions) - len(s.visited)
}

// Status reports the badge of question index: current beats attempted beats visited.
func (s *Session) Status(index int) Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index == s.current && s.inRangeLocked(index) {
		return StatusCurrent
	}
	if _, ok := s.attempted[index]; ok {
		return StatusAttempted
	}
	if _, ok := s.visited[index]; ok {
		return StatusVisited
	}
	return StatusUnvisited
}
