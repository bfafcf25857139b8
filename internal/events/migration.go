package events

// Migration event types.
const (
	TypeMigrationProgress  = "migration_progress"
	TypeMigrationCompleted = "migration_completed"
	TypeMigrationFailed    = "migration_failed"
)

// MigrationProgressEvent reports one processed unit of the migration
// pipeline. Progress is non-decreasing within a run.
type MigrationProgressEvent struct {
	BaseEvent
	Message  string  `json:"message"`
	Progress float64 `json:"progress"`
}

// NewMigrationProgress creates a progress report.
func NewMigrationProgress(message string, progress float64) MigrationProgressEvent {
	return MigrationProgressEvent{
		BaseEvent: NewBaseEvent(TypeMigrationProgress),
		Message:   message,
		Progress:  progress,
	}
}

// MigrationCompletedEvent signals a finished run, including the idempotent
// short-circuit paths.
type MigrationCompletedEvent struct {
	BaseEvent
	Routines  int `json:"routines"`
	Exercises int `json:"exercises"`
	Sets      int `json:"sets"`
}

// NewMigrationCompleted creates a completion event.
func NewMigrationCompleted(routines, exercises, sets int) MigrationCompletedEvent {
	return MigrationCompletedEvent{
		BaseEvent: NewBaseEvent(TypeMigrationCompleted),
		Routines:  routines,
		Exercises: exercises,
		Sets:      sets,
	}
}

// MigrationFailedEvent signals a run halted by an error.
type MigrationFailedEvent struct {
	BaseEvent
	Reason string `json:"reason"`
}

// NewMigrationFailed creates a failure event.
func NewMigrationFailed(reason string) MigrationFailedEvent {
	return MigrationFailedEvent{
		BaseEvent: NewBaseEvent(TypeMigrationFailed),
		Reason:    reason,
	}
}
