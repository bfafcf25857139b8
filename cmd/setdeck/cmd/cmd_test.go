package cmd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nmolargik/setdeck/internal/core"
)

func TestCommandsRegistered(t *testing.T) {
	expected := []string{"serve", "migrate", "routines", "history", "doctor", "version", "init"}
	registered := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		registered[c.Name()] = true
	}
	for _, name := range expected {
		assert.True(t, registered[name], "command %q not registered", name)
	}
}

func TestWeekdayName(t *testing.T) {
	assert.Equal(t, "Sunday", weekdayName(0))
	assert.Equal(t, "Saturday", weekdayName(6))
	assert.Equal(t, "day 9", weekdayName(9))
}

func TestDescribeSet(t *testing.T) {
	reps := 8
	weight := 100.0
	rpe := 7
	dur := 90 * time.Second
	desc := "farmer carry to failure"

	repsSet := core.NewSet(core.SetTypeReps, 0)
	repsSet.TargetReps = &reps
	repsSet.Weight = &weight
	repsSet.RPE = &rpe
	assert.Equal(t, "8 reps, 100.0 kg, rpe 7", describeSet(repsSet))

	durationSet := core.NewSet(core.SetTypeDuration, 0)
	durationSet.TargetDuration = &dur
	assert.Equal(t, "1m30s", describeSet(durationSet))

	freeform := core.NewSet(core.SetTypeFreeform, 0)
	freeform.Description = &desc
	assert.Equal(t, desc, describeSet(freeform))

	bare := core.NewSet(core.SetTypeAMAP, 0)
	assert.Equal(t, "as many as possible", describeSet(bare))
}

func TestVersionDefaults(t *testing.T) {
	SetVersion("1.2.3", "abc", "today")
	assert.Equal(t, "1.2.3", appVersion)
	assert.Equal(t, "abc", appCommit)
}
