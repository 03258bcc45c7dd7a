package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"taskmaster/internal/config"
)

var Version = "dev"

var (
	configDir string
	configEnv string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "taskmaster",
		Short:         "Taskmaster - project and task tracking API",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "config", "directory holding base.yaml and <env>.yaml")
	rootCmd.PersistentFlags().StringVar(&configEnv, "env", "", "config environment (default $CONFIG_ENV or local)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configEnv, configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}
