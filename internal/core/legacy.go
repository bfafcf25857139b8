package core

import (
	"time"

	"github.com/google/uuid"
)

// GoalType classifies a legacy set's prescription.
type GoalType string

const (
	GoalWeight   GoalType = "weight"   // reps at a weight
	GoalDuration GoalType = "duration" // timed work
)

// LegacyExercise is a row of the flat pre-migration schema: exercises tagged
// directly with a weekday, no routine entity. Read-only input to the
// migration pipeline.
type LegacyExercise struct {
	ID         uuid.UUID
	Weekday    int
	OrderIndex int
	Name       string
	Sets       []LegacySet
}

// LegacySet is a child row of a legacy exercise.
type LegacySet struct {
	ID              uuid.UUID
	GoalType        GoalType
	RepetitionsToDo int
	DurationToDo    int // seconds
	WeightToLift    int
	Timestamp       time.Time
}
