package main

import (
	"fmt"
	"log/slog"

	"github.com/milk9111/propsim/ecs"
	"github.com/milk9111/propsim/logging"
	"github.com/milk9111/propsim/scene"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [scene...]",
	Short: "Build scenes and report configuration errors",
	Long:  `Builds every named scene (all scenes when none are given) without ticking and reports configuration errors and skipped switches.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		src := sourceFor(cfg)
		names := args
		if len(names) == 0 {
			if names, err = src.List(); err != nil {
				return err
			}
		}
		level, _ := parseLevel(cfg.LogLevel)
		logger := logging.New(level)

		failed := 0
		for _, name := range names {
			if err := validateScene(src, name, cfg.TickRate, logger); err != nil {
				failed++
				fmt.Fprintf(cmd.OutOrStdout(), "%s: invalid\n%v\n", name, err)
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", name)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d scenes failed validation", failed, len(names))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func validateScene(src scene.Source, name string, tickRate float64, logger *slog.Logger) error {
	spec, err := src.LoadSpec(name)
	if err != nil {
		return err
	}
	_, err = scene.Build(ecs.NewWorld(tickRate), spec, scene.Options{
		Logger:    logger,
		Resources: scene.NewResources(src, logger),
	})
	return err
}
