// Package store implements the workout hierarchy store: routines keyed by
// weekday, each owning ordered exercises, sets, and performance history.
// Entities live in an in-memory arena keyed by ID and every mutation writes
// through to the persister; a flush failure is logged and the in-memory
// mutation stands.
package store

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/nmolargik/setdeck/internal/core"
	"github.com/nmolargik/setdeck/internal/events"
	"github.com/nmolargik/setdeck/internal/logging"
)

// Store is the façade over the workout hierarchy. All mutation entry points
// serialize on one mutex; reads return deep copies so callers never alias
// arena entities.
type Store struct {
	mu        sync.Mutex
	persister core.Persister
	logger    *logging.Logger
	bus       *events.Bus

	changeCount atomic.Uint64

	routines map[uuid.UUID]*core.Routine
	byDay    map[int]uuid.UUID
	exercise map[uuid.UUID]*core.Exercise
	sets     map[uuid.UUID]*core.Set
	history  map[uuid.UUID]*core.SetHistory
}

// Option configures the store.
type Option func(*Store)

// WithBus publishes a StoreChangedEvent after each successful flush.
func WithBus(bus *events.Bus) Option {
	return func(s *Store) { s.bus = bus }
}

// WithLogger sets the logger.
func WithLogger(logger *logging.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// New loads the persisted hierarchy, reconciles duplicate routines, and
// returns the ready store. Reconciliation runs before any other access.
func New(ctx context.Context, persister core.Persister, opts ...Option) (*Store, error) {
	s := &Store{
		persister: persister,
		logger:    logging.NewNop(),
		routines:  make(map[uuid.UUID]*core.Routine),
		byDay:     make(map[int]uuid.UUID),
		exercise:  make(map[uuid.UUID]*core.Exercise),
		sets:      make(map[uuid.UUID]*core.Set),
		history:   make(map[uuid.UUID]*core.SetHistory),
	}
	for _, opt := range opts {
		opt(s)
	}

	snap, err := persister.Load(ctx)
	if err != nil {
		return nil, core.ErrFlush(err)
	}

	merged := reconcileRoutines(snap, s.logger)
	s.index(snap)
	if merged {
		s.flush(ctx, "reconcile_routines")
	}

	s.logger.Debug("store initialized",
		"routines", len(s.routines),
		"exercises", len(s.exercise),
		"history", len(s.history))
	return s, nil
}

// index builds the arena maps from a snapshot.
func (s *Store) index(snap *core.Snapshot) {
	for _, r := range snap.Routines {
		s.routines[r.ID] = r
		s.byDay[r.Day] = r.ID
	}
	for _, e := range snap.Exercises {
		s.exercise[e.ID] = e
	}
	for _, set := range snap.Sets {
		s.sets[set.ID] = set
	}
	for _, h := range snap.History {
		s.history[h.ID] = h
	}
}

// snapshot assembles the full entity set in a stable order: routines by day,
// children in sibling order.
func (s *Store) snapshot() *core.Snapshot {
	snap := &core.Snapshot{}
	for _, r := range s.sortedRoutines() {
		snap.Routines = append(snap.Routines, r)
		for _, eid := range r.ExerciseIDs {
			e, ok := s.exercise[eid]
			if !ok {
				continue
			}
			snap.Exercises = append(snap.Exercises, e)
			for _, sid := range e.SetIDs {
				set, ok := s.sets[sid]
				if !ok {
					continue
				}
				snap.Sets = append(snap.Sets, set)
				for _, hid := range set.HistoryIDs {
					if h, ok := s.history[hid]; ok {
						snap.History = append(snap.History, h)
					}
				}
			}
		}
	}
	return snap
}

// flush writes the current state through to the persister. Failure is
// logged and non-fatal: the in-memory mutation stands, the change counter
// does not advance, and no event is published.
func (s *Store) flush(ctx context.Context, operation string) {
	if err := s.persister.Flush(ctx, s.snapshot()); err != nil {
		s.logger.Error("flush failed; in-memory state retained",
			"operation", operation, "error", err)
		return
	}
	count := s.changeCount.Add(1)
	if s.bus != nil {
		s.bus.Publish(events.NewStoreChanged(count, operation))
	}
}

// ChangeCount returns the number of successful flushes since startup.
// Consumers poll it to detect "something changed" without diffing.
func (s *Store) ChangeCount() uint64 {
	return s.changeCount.Load()
}

func (s *Store) sortedRoutines() []*core.Routine {
	routines := make([]*core.Routine, 0, len(s.routines))
	for _, r := range s.routines {
		routines = append(routines, r)
	}
	sort.Slice(routines, func(i, j int) bool { return routines[i].Day < routines[j].Day })
	return routines
}

// Routines returns all routines ordered by day ascending.
func (s *Store) Routines() []*core.Routine {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*core.Routine, 0, len(s.routines))
	for _, r := range s.sortedRoutines() {
		out = append(out, r.Clone())
	}
	return out
}

// GetOrCreateRoutine returns the canonical routine for day, creating and
// persisting one if absent. Repeated calls with the same day return the same
// identity; it never fails with "not found".
func (s *Store) GetOrCreateRoutine(ctx context.Context, day int) (*core.Routine, error) {
	if !core.ValidDay(day) {
		return nil, core.ErrInvalidDay(day)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getOrCreateRoutineLocked(ctx, day).Clone(), nil
}

func (s *Store) getOrCreateRoutineLocked(ctx context.Context, day int) *core.Routine {
	if id, ok := s.byDay[day]; ok {
		return s.routines[id]
	}
	r := core.NewRoutine(day)
	s.routines[r.ID] = r
	s.byDay[day] = r.ID
	s.flush(ctx, "create_routine")
	return r
}

// ExercisesForDay returns the exercises of day's routine ordered by
// orderIndex. A day without a routine yields an empty slice; no routine is
// created.
func (s *Store) ExercisesForDay(day int) []*core.Exercise {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byDay[day]
	if !ok {
		return nil
	}
	return s.exercisesLocked(s.routines[id])
}

// Exercises returns the routine's exercises ordered by orderIndex.
func (s *Store) Exercises(routineID uuid.UUID) ([]*core.Exercise, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.routines[routineID]
	if !ok {
		return nil, core.ErrNotFound("routine", routineID.String())
	}
	return s.exercisesLocked(r), nil
}

func (s *Store) exercisesLocked(r *core.Routine) []*core.Exercise {
	out := make([]*core.Exercise, 0, len(r.ExerciseIDs))
	for _, id := range r.ExerciseIDs {
		if e, ok := s.exercise[id]; ok {
			out = append(out, e.Clone())
		}
	}
	// Defensive re-sort; the ID list is kept in sibling order but the index
	// is the contract.
	sort.SliceStable(out, func(i, j int) bool { return out[i].OrderIndex < out[j].OrderIndex })
	return out
}

// AddExerciseForDay appends a new exercise to the routine for day, creating
// the routine if needed.
func (s *Store) AddExerciseForDay(ctx context.Context, day int, name string, isWarmup bool, note *string) (*core.Exercise, error) {
	if !core.ValidDay(day) {
		return nil, core.ErrInvalidDay(day)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.getOrCreateRoutineLocked(ctx, day)
	return s.addExerciseLocked(ctx, r, name, isWarmup, note)
}

// AddExercise appends a new exercise to the routine at orderIndex
// max(existing)+1 and unconditionally creates its one default set
// (reps, targetReps=10, weight=0, rpe=6).
func (s *Store) AddExercise(ctx context.Context, routineID uuid.UUID, name string, isWarmup bool, note *string) (*core.Exercise, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.routines[routineID]
	if !ok {
		return nil, core.ErrNotFound("routine", routineID.String())
	}
	return s.addExerciseLocked(ctx, r, name, isWarmup, note)
}

func (s *Store) addExerciseLocked(ctx context.Context, r *core.Routine, name string, isWarmup bool, note *string) (*core.Exercise, error) {
	nextIndex := 0
	for _, id := range r.ExerciseIDs {
		if e, ok := s.exercise[id]; ok && e.OrderIndex >= nextIndex {
			nextIndex = e.OrderIndex + 1
		}
	}

	e := core.NewExercise(name, nextIndex)
	e.IsWarmup = isWarmup
	if note != nil {
		n := *note
		e.Note = &n
	}
	e.RoutineID = r.ID
	s.exercise[e.ID] = e
	r.ExerciseIDs = append(r.ExerciseIDs, e.ID)

	// Every new exercise starts with exactly one default set.
	def := core.DefaultSet(0)
	def.ExerciseID = e.ID
	s.sets[def.ID] = def
	e.SetIDs = append(e.SetIDs, def.ID)

	r.LastUpdated = time.Now()
	s.flush(ctx, "add_exercise")
	return e.Clone(), nil
}

// UpdateExercise applies the patch, touches the owning routine's
// lastUpdated, and flushes.
func (s *Store) UpdateExercise(ctx context.Context, id uuid.UUID, patch core.ExercisePatch) (*core.Exercise, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.exercise[id]
	if !ok {
		return nil, core.ErrNotFound("exercise", id.String())
	}
	patch.Apply(e)
	s.touchRoutine(e.RoutineID)
	s.flush(ctx, "update_exercise")
	return e.Clone(), nil
}

// RenameExercise renames an exercise.
func (s *Store) RenameExercise(ctx context.Context, id uuid.UUID, newName string) (*core.Exercise, error) {
	return s.UpdateExercise(ctx, id, core.ExercisePatch{Name: &newName})
}

// ReorderExercises assigns orderIndex = position-in-newOrder to each child.
// newOrder must be a permutation of the routine's current children;
// otherwise ErrInvalidReorder is returned and nothing changes.
func (s *Store) ReorderExercises(ctx context.Context, routineID uuid.UUID, newOrder []uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.routines[routineID]
	if !ok {
		return core.ErrNotFound("routine", routineID.String())
	}
	if err := checkPermutation(r.ExerciseIDs, newOrder); err != nil {
		return err
	}

	for idx, id := range newOrder {
		s.exercise[id].OrderIndex = idx
	}
	r.ExerciseIDs = append([]uuid.UUID(nil), newOrder...)
	r.LastUpdated = time.Now()
	s.flush(ctx, "reorder_exercises")
	return nil
}

// DeleteExercise removes the exercise, cascades to its sets and their
// history, and reindexes the remaining siblings to 0..n-1.
func (s *Store) DeleteExercise(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.exercise[id]
	if !ok {
		return core.ErrNotFound("exercise", id.String())
	}

	for _, sid := range e.SetIDs {
		s.deleteSetCascadeLocked(sid)
	}
	delete(s.exercise, id)

	if r, ok := s.routines[e.RoutineID]; ok {
		r.ExerciseIDs = removeID(r.ExerciseIDs, id)
		s.reindexExercisesLocked(r)
		r.LastUpdated = time.Now()
	}
	s.flush(ctx, "delete_exercise")
	return nil
}

// Sets returns the exercise's sets ordered by orderIndex.
func (s *Store) Sets(exerciseID uuid.UUID) ([]*core.Set, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.exercise[exerciseID]
	if !ok {
		return nil, core.ErrNotFound("exercise", exerciseID.String())
	}
	out := make([]*core.Set, 0, len(e.SetIDs))
	for _, id := range e.SetIDs {
		if set, ok := s.sets[id]; ok {
			out = append(out, set.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].OrderIndex < out[j].OrderIndex })
	return out, nil
}

// AddSet appends a new set to the exercise. The patch supplies initial
// targets; an absent type defaults to reps.
func (s *Store) AddSet(ctx context.Context, exerciseID uuid.UUID, patch core.SetPatch) (*core.Set, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.exercise[exerciseID]
	if !ok {
		return nil, core.ErrNotFound("exercise", exerciseID.String())
	}

	nextIndex := 0
	for _, id := range e.SetIDs {
		if set, ok := s.sets[id]; ok && set.OrderIndex >= nextIndex {
			nextIndex = set.OrderIndex + 1
		}
	}

	set := core.NewSet(core.SetTypeReps, nextIndex)
	patch.Apply(set)
	set.ExerciseID = e.ID
	s.sets[set.ID] = set
	e.SetIDs = append(e.SetIDs, set.ID)

	s.touchRoutine(e.RoutineID)
	s.flush(ctx, "add_set")
	return set.Clone(), nil
}

// UpdateSet applies the patch, touches the owning routine, and flushes.
func (s *Store) UpdateSet(ctx context.Context, id uuid.UUID, patch core.SetPatch) (*core.Set, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.sets[id]
	if !ok {
		return nil, core.ErrNotFound("set", id.String())
	}
	patch.Apply(set)
	s.touchSetRoutine(set)
	s.flush(ctx, "update_set")
	return set.Clone(), nil
}

// ReorderSets mirrors ReorderExercises for an exercise's sets.
func (s *Store) ReorderSets(ctx context.Context, exerciseID uuid.UUID, newOrder []uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.exercise[exerciseID]
	if !ok {
		return core.ErrNotFound("exercise", exerciseID.String())
	}
	if err := checkPermutation(e.SetIDs, newOrder); err != nil {
		return err
	}

	for idx, id := range newOrder {
		s.sets[id].OrderIndex = idx
	}
	e.SetIDs = append([]uuid.UUID(nil), newOrder...)
	s.touchRoutine(e.RoutineID)
	s.flush(ctx, "reorder_sets")
	return nil
}

// DeleteSet removes the set, cascades to its history, and reindexes the
// remaining siblings.
func (s *Store) DeleteSet(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.sets[id]
	if !ok {
		return core.ErrNotFound("set", id.String())
	}
	s.deleteSetCascadeLocked(id)

	if e, ok := s.exercise[set.ExerciseID]; ok {
		e.SetIDs = removeID(e.SetIDs, id)
		s.reindexSetsLocked(e)
		s.touchRoutine(e.RoutineID)
	}
	s.flush(ctx, "delete_set")
	return nil
}

// RecordHistory appends a history entry to the set and touches the owning
// routine's lastUpdated.
func (s *Store) RecordHistory(ctx context.Context, setID uuid.UUID, entry core.HistoryEntry) (*core.SetHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.sets[setID]
	if !ok {
		return nil, core.ErrNotFound("set", setID.String())
	}
	h := s.recordHistoryLocked(set, entry)
	s.flush(ctx, "record_history")
	return h.Clone(), nil
}

func (s *Store) recordHistoryLocked(set *core.Set, entry core.HistoryEntry) *core.SetHistory {
	h := core.NewSetHistory(set.ID, entry)
	s.history[h.ID] = h
	set.HistoryIDs = append(set.HistoryIDs, h.ID)
	s.touchSetRoutine(set)
	return h
}

// CommitPerformance is the combined write path used when a user finishes a
// set: it patches the set's targets from the non-nil arguments (rpe clamped
// to be non-negative), then records a history entry with the just-applied
// values. Duration sets take the set's current target duration as the
// actual duration, since they have no separate input for it.
func (s *Store) CommitPerformance(ctx context.Context, setID uuid.UUID, reps *int, weight *float64, rpe *int) (*core.SetHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.sets[setID]
	if !ok {
		return nil, core.ErrNotFound("set", setID.String())
	}

	core.SetPatch{TargetReps: reps, Weight: weight, RPE: rpe}.Apply(set)

	entry := core.HistoryEntry{
		ActualReps:   reps,
		ActualWeight: weight,
		ActualRPE:    rpe,
	}
	if set.Type == core.SetTypeDuration {
		entry.ActualDuration = set.TargetDuration
	}
	h := s.recordHistoryLocked(set, entry)
	s.flush(ctx, "commit_performance")
	return h.Clone(), nil
}

// AllHistory returns every history entry ordered by completedDate ascending.
func (s *Store) AllHistory() []*core.SetHistory {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*core.SetHistory, 0, len(s.history))
	for _, h := range s.history {
		out = append(out, h.Clone())
	}
	sortHistory(out)
	return out
}

// HistoryForExercise returns the entries of all sets belonging to the
// exercise, ordered by completedDate ascending.
func (s *Store) HistoryForExercise(exerciseID uuid.UUID) ([]*core.SetHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.exercise[exerciseID]
	if !ok {
		return nil, core.ErrNotFound("exercise", exerciseID.String())
	}

	var out []*core.SetHistory
	for _, sid := range e.SetIDs {
		set, ok := s.sets[sid]
		if !ok {
			continue
		}
		for _, hid := range set.HistoryIDs {
			if h, ok := s.history[hid]; ok {
				out = append(out, h.Clone())
			}
		}
	}
	sortHistory(out)
	return out, nil
}

// ClearAllHistory deletes every history entry store-wide and detaches them
// from their owning sets. Routine, exercise, and set counts are unchanged.
func (s *Store) ClearAllHistory(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.history) == 0 {
		return
	}
	s.history = make(map[uuid.UUID]*core.SetHistory)
	for _, set := range s.sets {
		set.HistoryIDs = nil
	}
	s.flush(ctx, "clear_all_history")
}

// Counts reports store-wide entity counts.
func (s *Store) Counts() (routines, exercises, sets, history int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.routines), len(s.exercise), len(s.sets), len(s.history)
}

// Private helpers. All assume the store mutex is held.

func (s *Store) touchRoutine(id uuid.UUID) {
	if r, ok := s.routines[id]; ok {
		r.LastUpdated = time.Now()
	}
}

func (s *Store) touchSetRoutine(set *core.Set) {
	if e, ok := s.exercise[set.ExerciseID]; ok {
		s.touchRoutine(e.RoutineID)
	}
}

// deleteSetCascadeLocked removes a set and its history from the arena. The
// caller detaches it from the parent exercise.
func (s *Store) deleteSetCascadeLocked(id uuid.UUID) {
	set, ok := s.sets[id]
	if !ok {
		return
	}
	for _, hid := range set.HistoryIDs {
		delete(s.history, hid)
	}
	delete(s.sets, id)
}

func (s *Store) reindexExercisesLocked(r *core.Routine) {
	idx := 0
	for _, id := range r.ExerciseIDs {
		if e, ok := s.exercise[id]; ok {
			e.OrderIndex = idx
			idx++
		}
	}
}

func (s *Store) reindexSetsLocked(e *core.Exercise) {
	idx := 0
	for _, id := range e.SetIDs {
		if set, ok := s.sets[id]; ok {
			set.OrderIndex = idx
			idx++
		}
	}
}

func removeID(ids []uuid.UUID, target uuid.UUID) []uuid.UUID {
	out := ids[:0]
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}

// checkPermutation verifies that newOrder contains exactly the IDs of
// current, each once.
func checkPermutation(current, newOrder []uuid.UUID) error {
	if len(current) != len(newOrder) {
		return core.ErrInvalidReorder("new order must contain every current sibling exactly once")
	}
	seen := make(map[uuid.UUID]bool, len(current))
	for _, id := range current {
		seen[id] = true
	}
	dup := make(map[uuid.UUID]bool, len(newOrder))
	for _, id := range newOrder {
		if !seen[id] || dup[id] {
			return core.ErrInvalidReorder("new order must be a permutation of the current siblings")
		}
		dup[id] = true
	}
	return nil
}

func sortHistory(entries []*core.SetHistory) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CompletedDate.Before(entries[j].CompletedDate)
	})
}
