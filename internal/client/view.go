package client

import (
	"fmt"

	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/domain"
)

// ViewKind names the screen the player is on.
type ViewKind int

const (
	ViewAuth ViewKind = iota
	ViewStart
	ViewQuiz
	ViewReport
)

func (k ViewKind) String() string {
	switch k {
	case ViewAuth:
		return "auth"
	case ViewStart:
		return "start"
	case ViewQuiz:
		return "quiz"
	case ViewReport:
		return "report"
	}
	return "unknown"
}

// Report is what the report screen shows after a submit.
type Report struct {
	app.ScoreResult
	TimeUsed  int
	Fallback  bool
	Saved     *domain.ResultSummary
	SaveError error
}

// View is the current screen. Report is set only on the report screen.
type View struct {
	Kind   ViewKind
	Report *Report
}

var viewTransitions = map[ViewKind][]ViewKind{
	ViewAuth:   {ViewStart},
	ViewStart:  {ViewQuiz, ViewAuth},
	ViewQuiz:   {ViewReport, ViewAuth},
	ViewReport: {ViewStart, ViewAuth},
}

// To moves to next if the router allows it. Leaving the report screen drops the report.
func (v View) To(next ViewKind) (View, error) {
	for _, k := range viewTransitions[v.Kind] {
		if k == next {
			return View{Kind: next}, nil
		}
	}
	return v, fmt.Errorf("cannot go from %s to %s", v.Kind, next)
}
