package migration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nmolargik/setdeck/internal/core"
	"github.com/nmolargik/setdeck/internal/events"
	"github.com/nmolargik/setdeck/internal/store"
	"github.com/nmolargik/setdeck/internal/testutil"
)

type fakeSource struct {
	exercises []*core.LegacyExercise
	err       error
}

func (s *fakeSource) Exercises(_ context.Context) ([]*core.LegacyExercise, error) {
	return s.exercises, s.err
}

func (s *fakeSource) Close() error { return nil }

func legacyExercise(day, order int, name string, sets ...core.LegacySet) *core.LegacyExercise {
	return &core.LegacyExercise{
		ID:         uuid.New(),
		Weekday:    day,
		OrderIndex: order,
		Name:       name,
		Sets:       sets,
	}
}

func weightSet(reps, weight int) core.LegacySet {
	return core.LegacySet{
		ID:              uuid.New(),
		GoalType:        core.GoalWeight,
		RepetitionsToDo: reps,
		WeightToLift:    weight,
		Timestamp:       time.Now(),
	}
}

func durationSet(seconds int) core.LegacySet {
	return core.LegacySet{
		ID:           uuid.New(),
		GoalType:     core.GoalDuration,
		DurationToDo: seconds,
		Timestamp:    time.Now(),
	}
}

func newPipeline(t *testing.T, source core.LegacySource, opts ...Option) (*Pipeline, *store.Store, *testutil.MemPersister) {
	t.Helper()
	p := testutil.NewMemPersister()
	s, err := store.New(context.Background(), p)
	require.NoError(t, err)
	return New(s, source, p, opts...), s, p
}

func TestRunMigratesFullHierarchy(t *testing.T) {
	source := &fakeSource{exercises: []*core.LegacyExercise{
		legacyExercise(1, 0, "Bench Press", weightSet(8, 80), weightSet(6, 90)),
		legacyExercise(1, 1, "Plank", durationSet(60)),
		legacyExercise(4, 0, "Squat", weightSet(5, 120)),
	}}
	pipe, s, p := newPipeline(t, source)

	require.NoError(t, pipe.Run(context.Background()))

	st := pipe.Status()
	assert.Equal(t, PhaseCompleted, st.Phase)
	assert.Equal(t, 1.0, st.Progress)
	assert.Equal(t, 2, st.Routines)
	assert.Equal(t, 3, st.Exercises)
	assert.Equal(t, 4, st.Sets)

	routines := s.Routines()
	require.Len(t, routines, 2)
	assert.Equal(t, 1, routines[0].Day)
	assert.Equal(t, 4, routines[1].Day)

	day1 := s.ExercisesForDay(1)
	require.Len(t, day1, 2)
	assert.Equal(t, "Bench Press", day1[0].Name)
	assert.Equal(t, 0, day1[0].OrderIndex)
	assert.Equal(t, "Plank", day1[1].Name)
	assert.Equal(t, 1, day1[1].OrderIndex)

	bench, err := s.Sets(day1[0].ID)
	require.NoError(t, err)
	require.Len(t, bench, 2)
	assert.Equal(t, core.SetTypeReps, bench[0].Type)
	assert.Equal(t, 8, *bench[0].TargetReps)
	assert.Equal(t, 80.0, *bench[0].Weight)
	assert.Nil(t, bench[0].RPE, "migrated sets carry no rpe")
	assert.Equal(t, 6, *bench[1].TargetReps)
	assert.Equal(t, 90.0, *bench[1].Weight)

	plank, err := s.Sets(day1[1].ID)
	require.NoError(t, err)
	require.Len(t, plank, 1)
	assert.Equal(t, core.SetTypeDuration, plank[0].Type)
	assert.Equal(t, 60*time.Second, *plank[0].TargetDuration)
	assert.Nil(t, plank[0].TargetReps)

	assert.True(t, p.Flags[core.FlagMigrationComplete])
	assert.Len(t, p.Snap.Routines, 2, "imported tree must be flushed")
}

func TestRunReindexesGappyLegacyOrder(t *testing.T) {
	source := &fakeSource{exercises: []*core.LegacyExercise{
		legacyExercise(2, 3, "A"),
		legacyExercise(2, 7, "B"),
		legacyExercise(2, 9, "C"),
	}}
	pipe, s, _ := newPipeline(t, source)

	require.NoError(t, pipe.Run(context.Background()))

	exercises := s.ExercisesForDay(2)
	require.Len(t, exercises, 3)
	for i, name := range []string{"A", "B", "C"} {
		assert.Equal(t, name, exercises[i].Name)
		assert.Equal(t, i, exercises[i].OrderIndex)
	}
}

func TestRunShortCircuitsWhenFlagSet(t *testing.T) {
	source := &fakeSource{exercises: []*core.LegacyExercise{legacyExercise(0, 0, "Ghost")}}
	pipe, s, p := newPipeline(t, source)
	p.Flags[core.FlagMigrationComplete] = true

	require.NoError(t, pipe.Run(context.Background()))

	st := pipe.Status()
	assert.Equal(t, PhaseCompleted, st.Phase)
	assert.Equal(t, 0, st.Exercises)
	assert.Empty(t, s.Routines(), "nothing may be imported")
}

func TestRunShortCircuitsWhenStorePopulated(t *testing.T) {
	source := &fakeSource{exercises: []*core.LegacyExercise{legacyExercise(0, 0, "Ghost")}}
	pipe, s, p := newPipeline(t, source)

	_, err := s.GetOrCreateRoutine(context.Background(), 3)
	require.NoError(t, err)

	require.NoError(t, pipe.Run(context.Background()))

	assert.Equal(t, PhaseCompleted, pipe.Status().Phase)
	assert.True(t, p.Flags[core.FlagMigrationComplete], "flag must be set retroactively")
	assert.Empty(t, s.ExercisesForDay(0))
}

func TestRunShortCircuitsOnEmptyLegacy(t *testing.T) {
	pipe, s, p := newPipeline(t, &fakeSource{})

	require.NoError(t, pipe.Run(context.Background()))

	assert.Equal(t, PhaseCompleted, pipe.Status().Phase)
	assert.True(t, p.Flags[core.FlagMigrationComplete])
	assert.Empty(t, s.Routines())
}

func TestRunIsIdempotent(t *testing.T) {
	source := &fakeSource{exercises: []*core.LegacyExercise{
		legacyExercise(5, 0, "Row", weightSet(10, 60)),
	}}
	pipe, s, _ := newPipeline(t, source)

	require.NoError(t, pipe.Run(context.Background()))
	require.NoError(t, pipe.Run(context.Background()))

	routines, exercises, sets, _ := s.Counts()
	assert.Equal(t, 1, routines)
	assert.Equal(t, 1, exercises)
	assert.Equal(t, 1, sets)
}

func TestRunFailsOnSourceError(t *testing.T) {
	pipe, _, p := newPipeline(t, &fakeSource{err: errors.New("file locked")})

	err := pipe.Run(context.Background())
	require.Error(t, err)
	assert.True(t, core.IsCategory(err, core.ErrCatPersistence))

	st := pipe.Status()
	assert.Equal(t, PhaseFailed, st.Phase)
	assert.Contains(t, st.Error, "file locked")
	assert.False(t, p.Flags[core.FlagMigrationComplete])
}

func TestRunFailsOnFlushError(t *testing.T) {
	source := &fakeSource{exercises: []*core.LegacyExercise{
		legacyExercise(1, 0, "Press", weightSet(5, 50)),
	}}
	pipe, _, p := newPipeline(t, source)
	p.FailNext = errors.New("disk full")

	err := pipe.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, PhaseFailed, pipe.Status().Phase)
	assert.False(t, p.Flags[core.FlagMigrationComplete], "failed run must not set the flag")
}

func TestRunHonorsCancellation(t *testing.T) {
	source := &fakeSource{exercises: []*core.LegacyExercise{
		legacyExercise(0, 0, "A"), legacyExercise(1, 0, "B"),
	}}
	pipe, _, p := newPipeline(t, source)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := pipe.Run(ctx)
	require.Error(t, err)
	assert.Equal(t, PhaseFailed, pipe.Status().Phase)
	assert.False(t, p.Flags[core.FlagMigrationComplete])
}

func TestRunPublishesOrderedProgressAndCompletion(t *testing.T) {
	bus := events.New(256)
	defer bus.Close()
	progressCh := bus.Subscribe(events.TypeMigrationProgress)
	doneCh := bus.SubscribePriority()

	source := &fakeSource{exercises: []*core.LegacyExercise{
		legacyExercise(2, 0, "Deadlift", weightSet(3, 150), weightSet(3, 160)),
	}}
	pipe, _, _ := newPipeline(t, source, WithBus(bus))

	require.NoError(t, pipe.Run(context.Background()))

	var last float64
	drained := false
	for !drained {
		select {
		case ev := <-progressCh:
			progress := ev.(events.MigrationProgressEvent).Progress
			assert.GreaterOrEqual(t, progress, last, "progress must never decrease")
			last = progress
		default:
			drained = true
		}
	}
	assert.Equal(t, 1.0, last, "last progress report covers every unit")

	foundCompleted := false
	for !foundCompleted {
		select {
		case ev := <-doneCh:
			if completed, ok := ev.(events.MigrationCompletedEvent); ok {
				assert.Equal(t, 1, completed.Routines)
				assert.Equal(t, 1, completed.Exercises)
				assert.Equal(t, 2, completed.Sets)
				foundCompleted = true
			}
		case <-time.After(time.Second):
			t.Fatal("expected a completion event")
		}
	}
}

func TestRunPublishesFailureEvent(t *testing.T) {
	bus := events.New(16)
	defer bus.Close()
	ch := bus.SubscribePriority()

	pipe, _, _ := newPipeline(t, &fakeSource{err: errors.New("boom")}, WithBus(bus))
	require.Error(t, pipe.Run(context.Background()))

	select {
	case ev := <-ch:
		failed, ok := ev.(events.MigrationFailedEvent)
		require.True(t, ok)
		assert.Contains(t, failed.Reason, "boom")
	case <-time.After(time.Second):
		t.Fatal("expected a failure event")
	}
}
