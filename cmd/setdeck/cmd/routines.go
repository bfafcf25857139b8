package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nmolargik/setdeck/internal/core"
)

var routinesDay int

var routinesCmd = &cobra.Command{
	Use:   "routines",
	Short: "List the week's routines and their exercises",
	RunE:  runRoutines,
}

func init() {
	routinesCmd.Flags().IntVar(&routinesDay, "day", -1, "show a single weekday (0 = Sunday)")
	rootCmd.AddCommand(routinesCmd)
}

func runRoutines(cobraCmd *cobra.Command, _ []string) error {
	a, err := newApp(cobraCmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	if routinesDay >= 0 && !core.ValidDay(routinesDay) {
		return core.ErrInvalidDay(routinesDay)
	}

	routines := a.store.Routines()
	if len(routines) == 0 {
		fmt.Println("no routines yet")
		return nil
	}

	for _, routine := range routines {
		if routinesDay >= 0 && routine.Day != routinesDay {
			continue
		}
		fmt.Printf("%s (updated %s)\n",
			weekdayName(routine.Day), routine.LastUpdated.Format(time.DateOnly))

		exercises, err := a.store.Exercises(routine.ID)
		if err != nil {
			return err
		}
		for _, e := range exercises {
			marker := ""
			if e.IsWarmup {
				marker = " [warmup]"
			}
			fmt.Printf("  %d. %s%s\n", e.OrderIndex+1, e.Name, marker)

			sets, err := a.store.Sets(e.ID)
			if err != nil {
				return err
			}
			for _, set := range sets {
				fmt.Printf("     - %s\n", describeSet(set))
			}
		}
	}
	return nil
}

func describeSet(set *core.Set) string {
	var parts []string
	switch set.Type {
	case core.SetTypeReps, core.SetTypeAMAP:
		if set.TargetReps != nil {
			parts = append(parts, fmt.Sprintf("%d reps", *set.TargetReps))
		}
		if set.Type == core.SetTypeAMAP {
			parts = append(parts, "as many as possible")
		}
		if set.Weight != nil && *set.Weight > 0 {
			parts = append(parts, fmt.Sprintf("%.1f kg", *set.Weight))
		}
	case core.SetTypeDuration:
		if set.TargetDuration != nil {
			parts = append(parts, set.TargetDuration.String())
		}
	case core.SetTypeFreeform:
		if set.Description != nil {
			parts = append(parts, *set.Description)
		}
	}
	if set.RPE != nil {
		parts = append(parts, fmt.Sprintf("rpe %d", *set.RPE))
	}
	if len(parts) == 0 {
		return string(set.Type)
	}
	return strings.Join(parts, ", ")
}
