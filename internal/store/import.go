package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/nmolargik/setdeck/internal/core"
	"github.com/nmolargik/setdeck/internal/events"
)

// Import primitives used by the one-time legacy migration. They build the
// hierarchy in memory without flushing or publishing per call; the pipeline
// calls FlushImported once after the whole tree is assembled, and treats a
// failure there as fatal, unlike the regular write path.

// HasRoutines reports whether the store holds any routine at all. The
// migration pipeline uses it to detect an already-populated store.
func (s *Store) HasRoutines() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.routines) > 0
}

// ImportRoutine creates a routine for day without flushing. It reuses an
// existing routine for the same day rather than creating a duplicate.
func (s *Store) ImportRoutine(day int) (*core.Routine, error) {
	if !core.ValidDay(day) {
		return nil, core.ErrInvalidDay(day)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byDay[day]; ok {
		return s.routines[id].Clone(), nil
	}
	r := core.NewRoutine(day)
	s.routines[r.ID] = r
	s.byDay[day] = r.ID
	return r.Clone(), nil
}

// ImportExercise creates an exercise under routineID at the given orderIndex
// without flushing and without the default set a user-created exercise gets.
func (s *Store) ImportExercise(routineID uuid.UUID, name string, orderIndex int) (*core.Exercise, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.routines[routineID]
	if !ok {
		return nil, core.ErrNotFound("routine", routineID.String())
	}
	e := core.NewExercise(name, orderIndex)
	e.RoutineID = r.ID
	s.exercise[e.ID] = e
	r.ExerciseIDs = append(r.ExerciseIDs, e.ID)
	return e.Clone(), nil
}

// ImportSet creates a set under exerciseID at the given orderIndex without
// flushing. The patch supplies the translated targets.
func (s *Store) ImportSet(exerciseID uuid.UUID, t core.SetType, patch core.SetPatch, orderIndex int) (*core.Set, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.exercise[exerciseID]
	if !ok {
		return nil, core.ErrNotFound("exercise", exerciseID.String())
	}
	set := core.NewSet(t, orderIndex)
	patch.Apply(set)
	set.ExerciseID = e.ID
	s.sets[set.ID] = set
	e.SetIDs = append(e.SetIDs, set.ID)
	return set.Clone(), nil
}

// FlushImported persists the imported hierarchy in one write. Unlike the
// regular write path the error is returned to the caller: a migration whose
// final flush fails must report failure, not pretend success.
func (s *Store) FlushImported(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.persister.Flush(ctx, s.snapshot()); err != nil {
		return core.ErrFlush(err)
	}
	count := s.changeCount.Add(1)
	if s.bus != nil {
		s.bus.Publish(events.NewStoreChanged(count, "import"))
	}
	return nil
}
