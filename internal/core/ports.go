package core

import "context"

// Snapshot is the full persisted entity set, exchanged between the store and
// its persister on load and flush.
type Snapshot struct {
	Routines  []*Routine
	Exercises []*Exercise
	Sets      []*Set
	History   []*SetHistory
}

// Persister stores and reloads the workout hierarchy. Flush replaces the
// persisted state with the snapshot atomically; partial writes must not be
// observable by a later Load.
type Persister interface {
	Load(ctx context.Context) (*Snapshot, error)
	Flush(ctx context.Context, snap *Snapshot) error

	// SetFlag and Flag persist small boolean markers, such as the
	// migration-complete flag.
	SetFlag(ctx context.Context, key string, value bool) error
	Flag(ctx context.Context, key string) (bool, error)

	Close() error
}

// FlagMigrationComplete marks that the legacy schema has been migrated.
const FlagMigrationComplete = "has_migrated_from_ready_set"

// LegacySource reads the flat pre-migration schema. Implementations return
// exercises ordered by (weekday, orderIndex) with child sets in original
// order, and never mutate the underlying data.
type LegacySource interface {
	Exercises(ctx context.Context) ([]*LegacyExercise, error)
	Close() error
}
