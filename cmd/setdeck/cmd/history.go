package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nmolargik/setdeck/internal/health"
)

var historyWeekly bool

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded set history",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().BoolVar(&historyWeekly, "weekly", false, "aggregate into weekly summaries")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cobraCmd *cobra.Command, _ []string) error {
	a, err := newApp(cobraCmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	if historyWeekly {
		summaries := health.NewReporter(a.store).WeeklySummaries()
		if len(summaries) == 0 {
			fmt.Println("no history yet")
			return nil
		}
		for _, week := range summaries {
			fmt.Printf("week of %s: %d sessions, %d sets, %d reps, %.1f volume",
				week.WeekStart.Format(time.DateOnly),
				week.Sessions, week.TotalSets, week.TotalReps, week.Volume)
			if week.TotalDuration > 0 {
				fmt.Printf(", %s timed", week.TotalDuration)
			}
			fmt.Println()
		}
		return nil
	}

	entries := a.store.AllHistory()
	if len(entries) == 0 {
		fmt.Println("no history yet")
		return nil
	}
	for _, h := range entries {
		line := h.CompletedDate.Format("2006-01-02 15:04")
		if h.ActualReps != nil {
			line += fmt.Sprintf("  %d reps", *h.ActualReps)
		}
		if h.ActualWeight != nil {
			line += fmt.Sprintf(" @ %.1f", *h.ActualWeight)
		}
		if h.ActualDuration != nil {
			line += fmt.Sprintf("  %s", *h.ActualDuration)
		}
		if h.ActualRPE != nil {
			line += fmt.Sprintf("  rpe %d", *h.ActualRPE)
		}
		fmt.Println(line)
	}
	return nil
}
