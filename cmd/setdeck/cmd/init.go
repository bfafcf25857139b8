package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nmolargik/setdeck/internal/config"
)

var initPath string

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	Long:  `Write the default configuration to .setdeck.yaml. An existing file is left untouched.`,
	RunE: func(_ *cobra.Command, _ []string) error {
		if err := config.WriteDefault(initPath); err != nil {
			return err
		}
		fmt.Printf("config written to %s\n", initPath)
		return nil
	},
}

func init() {
	initCmd.Flags().StringVar(&initPath, "path", ".setdeck.yaml", "where to write the config")
	rootCmd.AddCommand(initCmd)
}
