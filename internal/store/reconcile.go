package store

import (
	"github.com/google/uuid"

	"github.com/nmolargik/setdeck/internal/core"
	"github.com/nmolargik/setdeck/internal/logging"
)

// reconcileRoutines collapses duplicate routines sharing a day down to one
// canonical routine per day. It runs on the freshly loaded snapshot, before
// the arena is indexed, and only when the routine count exceeds one per
// weekday. For each day the first routine in load order is canonical; every
// duplicate's exercises are reparented onto it in the duplicate's own order,
// after the canonical's, and sibling indices are rewritten to 0..n-1. No
// exercise, set, or history entry is lost.
func reconcileRoutines(snap *core.Snapshot, logger *logging.Logger) bool {
	if len(snap.Routines) <= core.DaysPerWeek {
		return false
	}

	exercisesByID := make(map[uuid.UUID]*core.Exercise, len(snap.Exercises))
	for _, e := range snap.Exercises {
		exercisesByID[e.ID] = e
	}

	canonical := make(map[int]*core.Routine, core.DaysPerWeek)
	kept := snap.Routines[:0]
	merged := 0
	for _, r := range snap.Routines {
		keeper, ok := canonical[r.Day]
		if !ok {
			canonical[r.Day] = r
			kept = append(kept, r)
			continue
		}
		keeper.ExerciseIDs = append(keeper.ExerciseIDs, r.ExerciseIDs...)
		for _, eid := range r.ExerciseIDs {
			if e, ok := exercisesByID[eid]; ok {
				e.RoutineID = keeper.ID
			}
		}
		if r.LastUpdated.After(keeper.LastUpdated) {
			keeper.LastUpdated = r.LastUpdated
		}
		merged++
	}
	if merged == 0 {
		return false
	}
	snap.Routines = kept

	for _, r := range snap.Routines {
		idx := 0
		for _, eid := range r.ExerciseIDs {
			if e, ok := exercisesByID[eid]; ok {
				e.OrderIndex = idx
				idx++
			}
		}
	}

	logger.Warn("merged duplicate routines", "merged", merged, "remaining", len(snap.Routines))
	return true
}
