package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchExercises(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"Bench Press", "Overhead Press", "Barbell Row", "Deadlift"} {
		_, err := s.AddExerciseForDay(ctx, 1, name, false, nil)
		require.NoError(t, err)
	}

	matches := s.SearchExercises("press")
	require.Len(t, matches, 2)
	names := []string{matches[0].Name, matches[1].Name}
	assert.Contains(t, names, "Bench Press")
	assert.Contains(t, names, "Overhead Press")

	assert.Empty(t, s.SearchExercises("zzz"))
}

func TestSearchExercisesEmptyQueryReturnsAll(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.AddExerciseForDay(ctx, 3, "Squat", false, nil)
	require.NoError(t, err)
	_, err = s.AddExerciseForDay(ctx, 0, "Curl", false, nil)
	require.NoError(t, err)

	all := s.SearchExercises("")
	require.Len(t, all, 2)
	assert.Equal(t, "Curl", all[0].Name, "day order wins for an empty query")
	assert.Equal(t, "Squat", all[1].Name)
}
