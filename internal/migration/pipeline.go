// Package migration runs the one-time import from the flat legacy schema
// into the workout hierarchy store. A run moves through idle, preparing,
// running, and ends in completed or failed; progress within a run never
// decreases, and every terminal outcome is observable through both the
// status snapshot and the event bus.
package migration

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nmolargik/setdeck/internal/core"
	"github.com/nmolargik/setdeck/internal/events"
	"github.com/nmolargik/setdeck/internal/logging"
	"github.com/nmolargik/setdeck/internal/store"
)

// Phase is the pipeline's lifecycle state.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhasePreparing Phase = "preparing"
	PhaseRunning   Phase = "running"
	PhaseCompleted Phase = "completed"
	PhaseFailed    Phase = "failed"
)

// Status is a point-in-time snapshot of the pipeline.
type Status struct {
	Phase    Phase   `json:"phase"`
	Message  string  `json:"message,omitempty"`
	Progress float64 `json:"progress"`
	Error    string  `json:"error,omitempty"`

	// Entity counts of the last completed run. Zero on the short-circuit
	// paths that had nothing to import.
	Routines  int `json:"routines"`
	Exercises int `json:"exercises"`
	Sets      int `json:"sets"`
}

// Pipeline imports the legacy schema into the store exactly once.
type Pipeline struct {
	store     *store.Store
	source    core.LegacySource
	persister core.Persister
	bus       *events.Bus
	logger    *logging.Logger

	mu      sync.Mutex
	status  Status
	running bool
}

// Option configures the pipeline.
type Option func(*Pipeline)

// WithBus publishes progress and terminal events.
func WithBus(bus *events.Bus) Option {
	return func(p *Pipeline) { p.bus = bus }
}

// WithLogger sets the logger.
func WithLogger(logger *logging.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// New creates an idle pipeline. The persister holds the migration-complete
// flag; the source supplies the legacy data.
func New(st *store.Store, source core.LegacySource, persister core.Persister, opts ...Option) *Pipeline {
	p := &Pipeline{
		store:     st,
		source:    source,
		persister: persister,
		logger:    logging.NewNop(),
		status:    Status{Phase: PhaseIdle},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Status returns the current pipeline status.
func (p *Pipeline) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// ErrAlreadyRunning is returned when Run is called while a run is in flight.
var ErrAlreadyRunning = core.ErrMigration("migration already running", nil)

// Run executes the migration. It is idempotent: a completed earlier run, an
// already-populated store, or an empty legacy source all finish immediately
// as completed without importing anything. Only one run may be in flight at
// a time. Context cancellation between units aborts the run as failed.
func (p *Pipeline) Run(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return ErrAlreadyRunning
	}
	p.running = true
	p.status = Status{Phase: PhasePreparing, Message: "preparing migration"}
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
	}()

	start := time.Now()
	p.logger.Info("migration started")

	if err := p.run(ctx); err != nil {
		p.fail(err)
		return err
	}

	st := p.Status()
	p.logger.Info("migration completed",
		"routines", st.Routines,
		"exercises", st.Exercises,
		"sets", st.Sets,
		"duration", time.Since(start))
	return nil
}

func (p *Pipeline) run(ctx context.Context) error {
	done, err := p.persister.Flag(ctx, core.FlagMigrationComplete)
	if err != nil {
		return core.ErrMigration("reading migration flag", err)
	}
	if done {
		p.logger.Debug("migration flag already set; nothing to do")
		p.complete(0, 0, 0)
		return nil
	}

	// A store that already holds routines was either migrated before the
	// flag existed or populated fresh; either way the legacy data must not
	// be imported on top of it.
	if p.store.HasRoutines() {
		p.logger.Debug("store already populated; marking migration complete")
		if err := p.persister.SetFlag(ctx, core.FlagMigrationComplete, true); err != nil {
			return core.ErrMigration("writing migration flag", err)
		}
		p.complete(0, 0, 0)
		return nil
	}

	legacy, err := p.source.Exercises(ctx)
	if err != nil {
		return core.ErrMigration("reading legacy data", err)
	}
	if len(legacy) == 0 {
		p.logger.Debug("legacy source empty; marking migration complete")
		if err := p.persister.SetFlag(ctx, core.FlagMigrationComplete, true); err != nil {
			return core.ErrMigration("writing migration flag", err)
		}
		p.complete(0, 0, 0)
		return nil
	}

	byDay, days := groupByWeekday(legacy)

	totalSets := 0
	for _, ex := range legacy {
		totalSets += len(ex.Sets)
	}
	total := len(days) + len(legacy) + totalSets
	if total < 1 {
		total = 1
	}

	p.setRunning("importing legacy workouts", 0)

	processed := 0
	tick := func(message string) {
		processed++
		p.setRunning(message, float64(processed)/float64(total))
	}

	routineCount := 0
	exerciseCount := 0
	setCount := 0
	for _, day := range days {
		if err := ctx.Err(); err != nil {
			return core.ErrMigration("migration canceled", err)
		}

		routine, err := p.store.ImportRoutine(day)
		if err != nil {
			return core.ErrMigration(fmt.Sprintf("creating routine for day %d", day), err)
		}
		routineCount++
		tick(fmt.Sprintf("day %d", day))

		for position, ex := range byDay[day] {
			if err := ctx.Err(); err != nil {
				return core.ErrMigration("migration canceled", err)
			}

			// Sibling indices restart at 0 per day regardless of gaps in
			// the legacy numbering.
			imported, err := p.store.ImportExercise(routine.ID, ex.Name, position)
			if err != nil {
				return core.ErrMigration(fmt.Sprintf("importing exercise %q", ex.Name), err)
			}
			exerciseCount++
			tick(ex.Name)

			for setIdx, legacySet := range ex.Sets {
				if err := p.importSet(imported.ID, legacySet, setIdx); err != nil {
					return err
				}
				setCount++
				tick(ex.Name)
			}
		}
	}

	if err := p.store.FlushImported(ctx); err != nil {
		return core.ErrMigration("persisting migrated data", err)
	}
	if err := p.persister.SetFlag(ctx, core.FlagMigrationComplete, true); err != nil {
		return core.ErrMigration("writing migration flag", err)
	}
	p.complete(routineCount, exerciseCount, setCount)
	return nil
}

// importSet translates one legacy set. Weight goals become reps sets; time
// goals become duration sets.
func (p *Pipeline) importSet(exerciseID uuid.UUID, legacySet core.LegacySet, orderIndex int) error {
	var setType core.SetType
	var patch core.SetPatch
	switch legacySet.GoalType {
	case core.GoalWeight:
		setType = core.SetTypeReps
		reps := legacySet.RepetitionsToDo
		weight := float64(legacySet.WeightToLift)
		patch.TargetReps = &reps
		patch.Weight = &weight
	case core.GoalDuration:
		setType = core.SetTypeDuration
		duration := time.Duration(legacySet.DurationToDo) * time.Second
		patch.TargetDuration = &duration
	default:
		return core.ErrMigration(fmt.Sprintf("unknown legacy goal type %q", legacySet.GoalType), nil)
	}

	if _, err := p.store.ImportSet(exerciseID, setType, patch, orderIndex); err != nil {
		return core.ErrMigration("importing set", err)
	}
	return nil
}

// groupByWeekday buckets the already-ordered legacy exercises by weekday and
// returns the buckets plus the days in ascending order.
func groupByWeekday(legacy []*core.LegacyExercise) (map[int][]*core.LegacyExercise, []int) {
	byDay := make(map[int][]*core.LegacyExercise)
	var days []int
	for _, ex := range legacy {
		if _, seen := byDay[ex.Weekday]; !seen {
			days = append(days, ex.Weekday)
		}
		byDay[ex.Weekday] = append(byDay[ex.Weekday], ex)
	}
	return byDay, days
}

func (p *Pipeline) setRunning(message string, progress float64) {
	p.mu.Lock()
	if progress < p.status.Progress {
		progress = p.status.Progress
	}
	p.status = Status{Phase: PhaseRunning, Message: message, Progress: progress}
	p.mu.Unlock()

	if p.bus != nil {
		p.bus.Publish(events.NewMigrationProgress(message, progress))
	}
}

func (p *Pipeline) complete(routines, exercises, sets int) {
	p.mu.Lock()
	p.status = Status{
		Phase:     PhaseCompleted,
		Message:   "migration complete",
		Progress:  1,
		Routines:  routines,
		Exercises: exercises,
		Sets:      sets,
	}
	p.mu.Unlock()

	if p.bus != nil {
		p.bus.PublishPriority(events.NewMigrationCompleted(routines, exercises, sets))
	}
}

func (p *Pipeline) fail(err error) {
	p.logger.Error("migration failed", "error", err)

	p.mu.Lock()
	progress := p.status.Progress
	p.status = Status{Phase: PhaseFailed, Progress: progress, Error: err.Error()}
	p.mu.Unlock()

	if p.bus != nil {
		p.bus.PublishPriority(events.NewMigrationFailed(err.Error()))
	}
}
