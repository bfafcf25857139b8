package core

import (
	"time"

	"github.com/google/uuid"
)

// SetHistory records one actually-performed set on a specific date. Entries
// are immutable once created; they are only ever removed, individually or by
// the store-wide clear.
type SetHistory struct {
	ID                uuid.UUID      `json:"id"`
	CompletedDate     time.Time      `json:"completed_date"`
	ActualReps        *int           `json:"actual_reps,omitempty"`
	ActualWeight      *float64       `json:"actual_weight,omitempty"`
	ActualWeightUnit  *string        `json:"actual_weight_unit,omitempty"`
	ActualDuration    *time.Duration `json:"actual_duration,omitempty"`
	ActualDescription *string        `json:"actual_description,omitempty"`
	ActualRPE         *int           `json:"actual_rpe,omitempty"`
	Note              *string        `json:"note,omitempty"`
	SetID             uuid.UUID      `json:"set_id"`
}

// HistoryEntry holds the optional "actual" values recorded when a set is
// performed. It is the argument bundle for the store's RecordHistory.
type HistoryEntry struct {
	CompletedDate     time.Time
	ActualReps        *int
	ActualWeight      *float64
	ActualWeightUnit  *string
	ActualDuration    *time.Duration
	ActualDescription *string
	ActualRPE         *int
	Note              *string
}

// NewSetHistory materializes an entry against a set.
func NewSetHistory(setID uuid.UUID, e HistoryEntry) *SetHistory {
	completed := e.CompletedDate
	if completed.IsZero() {
		completed = time.Now()
	}
	return &SetHistory{
		ID:                uuid.New(),
		CompletedDate:     completed,
		ActualReps:        clonePtr(e.ActualReps),
		ActualWeight:      clonePtr(e.ActualWeight),
		ActualWeightUnit:  clonePtr(e.ActualWeightUnit),
		ActualDuration:    clonePtr(e.ActualDuration),
		ActualDescription: clonePtr(e.ActualDescription),
		ActualRPE:         clonePtr(e.ActualRPE),
		Note:              clonePtr(e.Note),
		SetID:             setID,
	}
}

// Clone returns a deep copy.
func (h *SetHistory) Clone() *SetHistory {
	cp := *h
	cp.ActualReps = clonePtr(h.ActualReps)
	cp.ActualWeight = clonePtr(h.ActualWeight)
	cp.ActualWeightUnit = clonePtr(h.ActualWeightUnit)
	cp.ActualDuration = clonePtr(h.ActualDuration)
	cp.ActualDescription = clonePtr(h.ActualDescription)
	cp.ActualRPE = clonePtr(h.ActualRPE)
	cp.Note = clonePtr(h.Note)
	return &cp
}
