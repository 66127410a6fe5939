package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "propsim",
	Short: "propsim plays interruptible property transitions on interactive scene objects",
	Long: `propsim loads a scene of doors, drawers, switches and appliances, drives their
transitions at a fixed tick rate and records the discrete state changes they produce.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("scene-dir", "", "Directory with scene overrides (default $PROPSIM_SCENE_DIR)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error (default $PROPSIM_LOG_LEVEL)")
}
