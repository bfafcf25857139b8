package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSet(t *testing.T) {
	s := DefaultSet(3)
	assert.Equal(t, SetTypeReps, s.Type)
	assert.Equal(t, 3, s.OrderIndex)
	require.NotNil(t, s.TargetReps)
	assert.Equal(t, DefaultTargetReps, *s.TargetReps)
	require.NotNil(t, s.Weight)
	assert.Zero(t, *s.Weight)
	require.NotNil(t, s.RPE)
	assert.Equal(t, DefaultRPE, *s.RPE)
}

func TestValidSetType(t *testing.T) {
	assert.True(t, ValidSetType(SetTypeReps))
	assert.True(t, ValidSetType(SetTypeAMAP))
	assert.True(t, ValidSetType(SetTypeDuration))
	assert.True(t, ValidSetType(SetTypeFreeform))
	assert.False(t, ValidSetType(SetType("yoga")))
}

func TestSetPatchApplyClampsRPE(t *testing.T) {
	s := NewSet(SetTypeReps, 0)
	rpe := -4
	SetPatch{RPE: &rpe}.Apply(s)
	require.NotNil(t, s.RPE)
	assert.Equal(t, 0, *s.RPE)
}

func TestSetPatchLeavesUnsetFieldsAlone(t *testing.T) {
	s := DefaultSet(0)
	weight := 85.5
	SetPatch{Weight: &weight}.Apply(s)

	assert.Equal(t, 85.5, *s.Weight)
	assert.Equal(t, DefaultTargetReps, *s.TargetReps)
	assert.Equal(t, SetTypeReps, s.Type)
}

func TestSetCloneIsDeep(t *testing.T) {
	dur := 45 * time.Second
	s := NewSet(SetTypeDuration, 0)
	s.TargetDuration = &dur

	cp := s.Clone()
	*cp.TargetDuration = 90 * time.Second
	cp.HistoryIDs = append(cp.HistoryIDs, s.ID)

	assert.Equal(t, 45*time.Second, *s.TargetDuration)
	assert.Empty(t, s.HistoryIDs)
}
