// Package core defines the workout domain model: routines, exercises, sets,
// performance history, and the legacy schema consumed by the migration
// pipeline. Entities form an arena keyed by ID; parents carry ordered child-ID
// slices and children carry parent IDs, so all traversal goes through the
// owning store rather than live pointer cycles.
package core

import (
	"time"

	"github.com/google/uuid"
)

// DaysPerWeek is the number of weekday slots a program can hold.
const DaysPerWeek = 7

// Routine is the workout plan for one weekday (0 = Sunday through 6).
// At most one routine per day is canonical; duplicates are a transient
// corruption state repaired by the store's reconciler.
type Routine struct {
	ID          uuid.UUID   `json:"id"`
	Day         int         `json:"day"`
	LastUpdated time.Time   `json:"last_updated"`
	ExerciseIDs []uuid.UUID `json:"exercise_ids"`
}

// NewRoutine creates an empty routine for the given weekday.
func NewRoutine(day int) *Routine {
	return &Routine{
		ID:          uuid.New(),
		Day:         day,
		LastUpdated: time.Now(),
	}
}

// Clone returns a deep copy.
func (r *Routine) Clone() *Routine {
	cp := *r
	cp.ExerciseIDs = append([]uuid.UUID(nil), r.ExerciseIDs...)
	return &cp
}

// ValidDay reports whether day addresses a weekday slot.
func ValidDay(day int) bool {
	return day >= 0 && day < DaysPerWeek
}
