package app

import (
	"math"
	"sort"
	"time"

	"trivia-quiz-service/internal/domain"
)

const (
	DefaultLeaderboardLimit = 10
	MaxLeaderboardLimit     = 100
	recentResultsLimit      = 5
)

// computeStats folds a user's samples into totals and averages. No samples
// yields the zero value.
func computeStats(samples []domain.ScoreSample) domain.UserStats {
	var stats domain.UserStats
	if len(samples) == 0 {
		return stats
	}
	totalScore := 0
	for _, s := range samples {
		stats.TotalAttempts++
		totalScore += s.Score
		stats.TotalTimeUsed += s.TimeUsed
		if s.Score > stats.BestScore {
			stats.BestScore = s.Score
		}
	}
	n := stats.TotalAttempts
	stats.AverageScore = float64(totalScore) / float64(n)
	stats.AverageTimeUsed = float64(stats.TotalTimeUsed) / float64(n)
	stats.AverageTimePerQuiz = (2*stats.TotalTimeUsed + n) / (2 * n)
	stats.TotalTimeSpent = stats.TotalTimeUsed
	return stats
}

type ownerTally struct {
	owner       string
	best        int
	attempts    int
	scoreSum    int
	lastAttempt time.Time
}

// groupByOwner tallies samples per owner, keeping owners in order of first appearance.
func groupByOwner(samples []domain.ScoreSample) []*ownerTally {
	index := make(map[string]*ownerTally)
	var order []*ownerTally
	for _, s := range samples {
		t, ok := index[s.Owner]
		if !ok {
			t = &ownerTally{owner: s.Owner, best: s.Score}
			index[s.Owner] = t
			order = append(order, t)
		}
		t.attempts++
		t.scoreSum += s.Score
		if s.Score > t.best {
			t.best = s.Score
		}
		if s.SubmittedAt.After(t.lastAttempt) {
			t.lastAttempt = s.SubmittedAt
		}
	}
	return order
}

// rankLeaderboard turns tallies into entries sorted by best score then
// average score, both descending. Owners missing from users are dropped
// before the list is cut to limit.
func rankLeaderboard(samples []domain.ScoreSample, users map[string]domain.User, limit int) []domain.LeaderboardEntry {
	tallies := groupByOwner(samples)
	entries := make([]domain.LeaderboardEntry, 0, len(tallies))
	for _, t := range tallies {
		user, ok := users[t.owner]
		if !ok {
			continue
		}
		entries = append(entries, domain.LeaderboardEntry{
			UserID:        t.owner,
			Name:          user.Name,
			Email:         user.Email,
			BestScore:     t.best,
			TotalAttempts: t.attempts,
			AverageScore:  roundTenth(float64(t.scoreSum) / float64(t.attempts)),
			LastAttempt:   t.lastAttempt,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].BestScore != entries[j].BestScore {
			return entries[i].BestScore > entries[j].BestScore
		}
		return entries[i].AverageScore > entries[j].AverageScore
	})

	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

func ownersOf(samples []domain.ScoreSample) []string {
	seen := make(map[string]struct{})
	var owners []string
	for _, s := range samples {
		if _, ok := seen[s.Owner]; ok {
			continue
		}
		seen[s.Owner] = struct{}{}
		owners = append(owners, s.Owner)
	}
	return owners
}

func clampLeaderboardLimit(limit int) int {
	if limit <= 0 {
		return DefaultLeaderboardLimit
	}
	if limit > MaxLeaderboardLimit {
		return MaxLeaderboardLimit
	}
	return limit
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
