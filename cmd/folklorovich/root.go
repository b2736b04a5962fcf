package main

import (
	"os"

	"github.com/spf13/cobra"

	"folklorovich/config"
)

var configPath string

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "folklorovich",
		Short:         "Daily folklore short-video generator",
		Long:          "Generates one short folklore video per invocation: selects the next catalog entry, fetches images, synthesizes narration, composes a collage, and renders the final video.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to config file")

	root.AddCommand(
		newRunCommand(),
		newStatusCommand(),
		newResetCycleCommand(),
		newUnmarkCommand(),
		newValidateCommand(),
	)
	return root
}

// loadConfig reads the configured YAML file, falling back to built-in
// defaults when the default path does not exist.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if os.IsNotExist(err) && configPath == "config.yaml" {
		return config.Default(), nil
	}
	return cfg, err
}
