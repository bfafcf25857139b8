package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nmolargik/setdeck/internal/core"
	"github.com/nmolargik/setdeck/internal/diagnostics"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the database and report host diagnostics",
	RunE:  runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cobraCmd *cobra.Command, _ []string) error {
	ctx := cobraCmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	routines, exercises, sets, history := a.store.Counts()
	fmt.Printf("store: %d routines, %d exercises, %d sets, %d history entries\n",
		routines, exercises, sets, history)

	integrity, err := a.persister.IntegrityCheck(ctx)
	if err != nil {
		fmt.Printf("database integrity: FAILED (%v)\n", err)
	} else {
		fmt.Printf("database integrity: %s\n", integrity)
	}

	migrated, err := a.persister.Flag(ctx, core.FlagMigrationComplete)
	if err == nil {
		fmt.Printf("legacy migration done: %v\n", migrated)
	}

	r := diagnostics.Collect(a.cfg.State.Path)
	fmt.Printf("go: %s (%s/%s)\n", r.GoVersion, r.OS, r.Arch)
	if r.CPUModel != "" {
		fmt.Printf("cpu: %s (%d cores, %d threads)\n", r.CPUModel, r.CPUCores, r.CPUThreads)
	}
	fmt.Printf("memory: %.0f/%.0f MB (%.1f%%)\n", r.MemUsedMB, r.MemTotalMB, r.MemPercent)
	fmt.Printf("disk: %.1f GB free of %.1f GB (%.1f%% used)\n", r.DiskFreeGB, r.DiskTotalGB, r.DiskPercent)
	fmt.Printf("database: %s (%d bytes)\n", r.DatabasePath, r.DatabaseBytes)
	return nil
}
