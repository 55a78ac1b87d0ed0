package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yegors/flightboard/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "flightboard",
	Short: "Flightboard tracks airport flights and notifies staff and passengers",
	Long: `Flightboard models the lifecycle of flights at an airport. Every status change
is announced to the airport staff and to the passengers registered on the flight.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return consoleCmd.RunE(cmd, args)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a TOML configuration file")
	rootCmd.PersistentFlags().String("log-level", "", "Override logging.level (debug, info, warn, error)")
}

// loadConfig reads the config file named by --config and applies flag overrides
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
