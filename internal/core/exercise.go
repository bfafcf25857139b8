package core

import "github.com/google/uuid"

// MuscleGroup tags an exercise with the musculature it trains.
type MuscleGroup string

const (
	MuscleChest       MuscleGroup = "chest"
	MuscleShoulders   MuscleGroup = "shoulders"
	MuscleTriceps     MuscleGroup = "triceps"
	MuscleBack        MuscleGroup = "back"
	MuscleLats        MuscleGroup = "lats"
	MuscleTraps       MuscleGroup = "traps"
	MuscleBiceps      MuscleGroup = "biceps"
	MuscleForearms    MuscleGroup = "forearms"
	MuscleQuads       MuscleGroup = "quads"
	MuscleHamstrings  MuscleGroup = "hamstrings"
	MuscleGlutes      MuscleGroup = "glutes"
	MuscleCalves      MuscleGroup = "calves"
	MuscleAbs         MuscleGroup = "abs"
	MuscleObliques    MuscleGroup = "obliques"
	MuscleLowerBack   MuscleGroup = "lower_back"
	MuscleNeck        MuscleGroup = "neck"
	MuscleSerratus    MuscleGroup = "serratus"
	MuscleRotatorCuff MuscleGroup = "rotator_cuff"
	MuscleFullBody    MuscleGroup = "full_body"
	MuscleCardio      MuscleGroup = "cardio"
)

// Exercise is a named movement within a routine, holding an ordered
// collection of sets. OrderIndex values of one routine's exercises always
// form the contiguous range 0..n-1 matching presentation order.
type Exercise struct {
	ID           uuid.UUID     `json:"id"`
	Name         string        `json:"name"`
	Note         *string       `json:"note,omitempty"`
	VideoURL     *string       `json:"video_url,omitempty"`
	IsWarmup     bool          `json:"is_warmup"`
	MuscleGroups []MuscleGroup `json:"muscle_groups,omitempty"`
	Equipment    *string       `json:"equipment,omitempty"`
	OrderIndex   int           `json:"order_index"`
	RoutineID    uuid.UUID     `json:"routine_id"`
	SetIDs       []uuid.UUID   `json:"set_ids"`
}

// NewExercise creates an exercise positioned at orderIndex. The caller is
// responsible for keeping sibling indices contiguous.
func NewExercise(name string, orderIndex int) *Exercise {
	return &Exercise{
		ID:         uuid.New(),
		Name:       name,
		OrderIndex: orderIndex,
	}
}

// Clone returns a deep copy.
func (e *Exercise) Clone() *Exercise {
	cp := *e
	cp.Note = clonePtr(e.Note)
	cp.VideoURL = clonePtr(e.VideoURL)
	cp.Equipment = clonePtr(e.Equipment)
	cp.MuscleGroups = append([]MuscleGroup(nil), e.MuscleGroups...)
	cp.SetIDs = append([]uuid.UUID(nil), e.SetIDs...)
	return &cp
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// ExercisePatch carries the mutable exercise fields for an update. Nil
// pointers leave the corresponding field unchanged.
type ExercisePatch struct {
	Name         *string
	Note         *string
	VideoURL     *string
	IsWarmup     *bool
	MuscleGroups []MuscleGroup
	Equipment    *string
}

// Apply writes the non-nil patch fields onto the exercise.
func (p ExercisePatch) Apply(e *Exercise) {
	if p.Name != nil {
		e.Name = *p.Name
	}
	if p.Note != nil {
		e.Note = clonePtr(p.Note)
	}
	if p.VideoURL != nil {
		e.VideoURL = clonePtr(p.VideoURL)
	}
	if p.IsWarmup != nil {
		e.IsWarmup = *p.IsWarmup
	}
	if p.MuscleGroups != nil {
		e.MuscleGroups = append([]MuscleGroup(nil), p.MuscleGroups...)
	}
	if p.Equipment != nil {
		e.Equipment = clonePtr(p.Equipment)
	}
}
