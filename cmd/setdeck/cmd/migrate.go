package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nmolargik/setdeck/internal/events"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Import workouts from the legacy ReadySet database",
	Long: `Run the one-time import of the old flat schema into the workout
hierarchy. The command is safe to repeat: once the migration flag is set, or
when the store already holds routines, it finishes without importing.`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cobraCmd *cobra.Command, _ []string) error {
	ctx := cobraCmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	pipe, closeSource, err := a.newPipeline()
	if err != nil {
		return err
	}
	defer closeSource()

	progressCh := a.bus.Subscribe(events.TypeMigrationProgress)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range progressCh {
			if progress, ok := ev.(events.MigrationProgressEvent); ok {
				fmt.Printf("\r%-40s %3.0f%%", progress.Message, progress.Progress*100)
			}
		}
	}()

	err = pipe.Run(ctx)
	a.bus.Unsubscribe(progressCh)
	<-done
	fmt.Println()
	if err != nil {
		return err
	}

	st := pipe.Status()
	fmt.Printf("migration complete: %d routines, %d exercises, %d sets\n",
		st.Routines, st.Exercises, st.Sets)
	return nil
}
