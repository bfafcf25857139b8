package core

import (
	"time"

	"github.com/google/uuid"
)

// SetType distinguishes how a set prescribes its work.
type SetType string

const (
	SetTypeReps     SetType = "reps"     // fixed rep target at a weight
	SetTypeAMAP     SetType = "amap"     // as many as possible
	SetTypeDuration SetType = "duration" // timed hold or carry
	SetTypeFreeform SetType = "freeform" // described in prose
)

// ValidSetType reports whether t is one of the known set types.
func ValidSetType(t SetType) bool {
	switch t {
	case SetTypeReps, SetTypeAMAP, SetTypeDuration, SetTypeFreeform:
		return true
	}
	return false
}

// Default target values applied to the set created with every new exercise.
const (
	DefaultTargetReps = 10
	DefaultWeight     = 0
	DefaultRPE        = 6
)

// Set is one prescribed unit of work within an exercise. Optional targets
// are pointers; which ones are populated depends on Type. Sibling
// OrderIndex values form the contiguous range 0..n-1 within the parent
// exercise.
type Set struct {
	ID             uuid.UUID      `json:"id"`
	Type           SetType        `json:"set_type"`
	TargetReps     *int           `json:"target_reps,omitempty"`
	Weight         *float64       `json:"weight,omitempty"`
	TargetDuration *time.Duration `json:"target_duration,omitempty"`
	Description    *string        `json:"description,omitempty"`
	RPE            *int           `json:"rpe,omitempty"` // perceived effort, 0-10
	OrderIndex     int            `json:"order_index"`
	ExerciseID     uuid.UUID      `json:"exercise_id"`
	HistoryIDs     []uuid.UUID    `json:"history_ids"`
}

// NewSet creates a set of the given type at orderIndex.
func NewSet(t SetType, orderIndex int) *Set {
	return &Set{
		ID:         uuid.New(),
		Type:       t,
		OrderIndex: orderIndex,
	}
}

// DefaultSet builds the reps set every new exercise starts with.
func DefaultSet(orderIndex int) *Set {
	s := NewSet(SetTypeReps, orderIndex)
	reps := DefaultTargetReps
	weight := float64(DefaultWeight)
	rpe := DefaultRPE
	s.TargetReps = &reps
	s.Weight = &weight
	s.RPE = &rpe
	return s
}

// Clone returns a deep copy.
func (s *Set) Clone() *Set {
	cp := *s
	cp.TargetReps = clonePtr(s.TargetReps)
	cp.Weight = clonePtr(s.Weight)
	cp.TargetDuration = clonePtr(s.TargetDuration)
	cp.Description = clonePtr(s.Description)
	cp.RPE = clonePtr(s.RPE)
	cp.HistoryIDs = append([]uuid.UUID(nil), s.HistoryIDs...)
	return &cp
}

// SetPatch carries the mutable set fields for an update. Nil pointers leave
// the corresponding field unchanged.
type SetPatch struct {
	Type           *SetType
	TargetReps     *int
	Weight         *float64
	TargetDuration *time.Duration
	Description    *string
	RPE            *int
}

// Apply writes the non-nil patch fields onto the set. RPE is clamped to be
// non-negative.
func (p SetPatch) Apply(s *Set) {
	if p.Type != nil {
		s.Type = *p.Type
	}
	if p.TargetReps != nil {
		s.TargetReps = clonePtr(p.TargetReps)
	}
	if p.Weight != nil {
		s.Weight = clonePtr(p.Weight)
	}
	if p.TargetDuration != nil {
		s.TargetDuration = clonePtr(p.TargetDuration)
	}
	if p.Description != nil {
		s.Description = clonePtr(p.Description)
	}
	if p.RPE != nil {
		rpe := *p.RPE
		if rpe < 0 {
			rpe = 0
		}
		s.RPE = &rpe
	}
}
