package trivia

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFallbackQuestionsShape(t *testing.T) {
	qs := FallbackQuestions()
	require.Len(t, qs, 15)
	for i, q := range qs {
		require.Equal(t, i, q.ID)
		require.NotEmpty(t, q.Text)
		require.Len(t, q.Options, 4)
		require.Contains(t, q.Options, q.CorrectAnswer)
	}
}

func TestFallbackQuestionsAreCopies(t *testing.T) {
	first := FallbackQuestions()
	first[0].Options[0] = "mutated"
	first[0].Text = "mutated"

	second := FallbackQuestions()
	require.NotEqual(t, "mutated", second[0].Options[0])
	require.NotEqual(t, "mutated", second[0].Text)
}

func TestFallbackBatchIsFlagged(t *testing.T) {
	batch := FallbackBatch()
	require.True(t, batch.Fallback)
	require.Equal(t, FallbackMessage, batch.Message)
	require.Len(t, batch.Questions, 15)
	require.Len(t, FallbackCategories(), 20)
}

func TestShuffleOptionsKeepsEveryOption(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	got := ShuffleOptions(rnd, "Paris", []string{"London", "Berlin", "Madrid"})

	sorted := append([]string(nil), got...)
	sort.Strings(sorted)
	require.Equal(t, []string{"Berlin", "London", "Madrid", "Paris"}, sorted)
}

func TestShuffleOptionsIsRoughlyUniform(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	positions := make([]int, 4)
	const rounds = 8000
	for i := 0; i < rounds; i++ {
		opts := ShuffleOptions(rnd, "c", []string{"a", "b", "d"})
		for pos, o := range opts {
			if o == "c" {
				positions[pos]++
			}
		}
	}
	for pos, n := range positions {
		// expected 2000 per slot
		require.InDeltaf(t, rounds/4, n, 300, "slot %d got %d", pos, n)
	}
}
