package state

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nmolargik/setdeck/internal/core"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "setdeck.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleSnapshot() *core.Snapshot {
	routine := core.NewRoutine(1)
	routine.LastUpdated = time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	exercise := core.NewExercise("Bench Press", 0)
	exercise.RoutineID = routine.ID
	note := "arch hard"
	exercise.Note = &note
	exercise.MuscleGroups = []core.MuscleGroup{core.MuscleChest, core.MuscleTriceps}
	routine.ExerciseIDs = []uuid.UUID{exercise.ID}

	set := core.DefaultSet(0)
	set.ExerciseID = exercise.ID
	exercise.SetIDs = []uuid.UUID{set.ID}

	reps := 8
	weight := 82.5
	history := core.NewSetHistory(set.ID, core.HistoryEntry{
		CompletedDate: time.Date(2026, 8, 2, 18, 30, 0, 0, time.UTC),
		ActualReps:    &reps,
		ActualWeight:  &weight,
	})
	set.HistoryIDs = []uuid.UUID{history.ID}

	return &core.Snapshot{
		Routines:  []*core.Routine{routine},
		Exercises: []*core.Exercise{exercise},
		Sets:      []*core.Set{set},
		History:   []*core.SetHistory{history},
	}
}

func TestFlushAndLoadRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	snap := sampleSnapshot()
	require.NoError(t, s.Flush(ctx, snap))

	loaded, err := s.Load(ctx)
	require.NoError(t, err)

	require.Len(t, loaded.Routines, 1)
	routine := loaded.Routines[0]
	assert.Equal(t, snap.Routines[0].ID, routine.ID)
	assert.Equal(t, 1, routine.Day)
	assert.Equal(t, snap.Exercises[0].ID, routine.ExerciseIDs[0], "child links rebuilt on load")

	require.Len(t, loaded.Exercises, 1)
	exercise := loaded.Exercises[0]
	assert.Equal(t, "Bench Press", exercise.Name)
	require.NotNil(t, exercise.Note)
	assert.Equal(t, "arch hard", *exercise.Note)
	assert.Equal(t, []core.MuscleGroup{core.MuscleChest, core.MuscleTriceps}, exercise.MuscleGroups)
	assert.Equal(t, snap.Sets[0].ID, exercise.SetIDs[0])

	require.Len(t, loaded.Sets, 1)
	set := loaded.Sets[0]
	assert.Equal(t, core.SetTypeReps, set.Type)
	assert.Equal(t, core.DefaultTargetReps, *set.TargetReps)
	assert.Equal(t, snap.History[0].ID, set.HistoryIDs[0])

	require.Len(t, loaded.History, 1)
	h := loaded.History[0]
	assert.Equal(t, 8, *h.ActualReps)
	assert.Equal(t, 82.5, *h.ActualWeight)
	assert.True(t, h.CompletedDate.Equal(snap.History[0].CompletedDate))
}

func TestFlushReplacesPreviousState(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Flush(ctx, sampleSnapshot()))
	require.NoError(t, s.Flush(ctx, &core.Snapshot{}))

	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded.Routines)
	assert.Empty(t, loaded.Exercises)
	assert.Empty(t, loaded.Sets)
	assert.Empty(t, loaded.History)
}

func TestDurationSetsRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	routine := core.NewRoutine(3)
	exercise := core.NewExercise("Plank", 0)
	exercise.RoutineID = routine.ID
	routine.ExerciseIDs = []uuid.UUID{exercise.ID}

	dur := 90 * time.Second
	set := core.NewSet(core.SetTypeDuration, 0)
	set.ExerciseID = exercise.ID
	set.TargetDuration = &dur
	exercise.SetIDs = []uuid.UUID{set.ID}

	require.NoError(t, s.Flush(ctx, &core.Snapshot{
		Routines:  []*core.Routine{routine},
		Exercises: []*core.Exercise{exercise},
		Sets:      []*core.Set{set},
	}))

	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded.Sets, 1)
	require.NotNil(t, loaded.Sets[0].TargetDuration)
	assert.Equal(t, dur, *loaded.Sets[0].TargetDuration)
}

func TestSiblingOrderPreserved(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	routine := core.NewRoutine(5)
	names := []string{"A", "B", "C"}
	snap := &core.Snapshot{Routines: []*core.Routine{routine}}
	for i, name := range names {
		e := core.NewExercise(name, i)
		e.RoutineID = routine.ID
		routine.ExerciseIDs = append(routine.ExerciseIDs, e.ID)
		snap.Exercises = append(snap.Exercises, e)
	}
	require.NoError(t, s.Flush(ctx, snap))

	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded.Exercises, 3)
	for i, name := range names {
		assert.Equal(t, name, loaded.Exercises[i].Name)
		assert.Equal(t, loaded.Exercises[i].ID, loaded.Routines[0].ExerciseIDs[i])
	}
}

func TestFlagsRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	v, err := s.Flag(ctx, core.FlagMigrationComplete)
	require.NoError(t, err)
	assert.False(t, v, "unset flag reads false")

	require.NoError(t, s.SetFlag(ctx, core.FlagMigrationComplete, true))
	v, err = s.Flag(ctx, core.FlagMigrationComplete)
	require.NoError(t, err)
	assert.True(t, v)

	require.NoError(t, s.SetFlag(ctx, core.FlagMigrationComplete, false))
	v, err = s.Flag(ctx, core.FlagMigrationComplete)
	require.NoError(t, err)
	assert.False(t, v)
}

func TestMigrateIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "setdeck.db")

	s1, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s1.Flush(context.Background(), sampleSnapshot()))
	require.NoError(t, s1.Close())

	// Reopening runs migrate again against the existing schema.
	s2, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer s2.Close()

	loaded, err := s2.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, loaded.Routines, 1)
}

func TestIntegrityCheck(t *testing.T) {
	s := newTestStore(t)

	result, err := s.IntegrityCheck(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
}
