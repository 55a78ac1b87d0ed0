package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/yegors/flightboard/internal/config"
	"github.com/yegors/flightboard/internal/console"
	"github.com/yegors/flightboard/internal/notify"
	"github.com/yegors/flightboard/pkg/logger"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Run the interactive flight board menu",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		cfg = consoleConfig(cfg)

		styles := console.NoColorStyles()
		if cfg.Console.Color {
			styles = console.DefaultStyles(lipgloss.NewRenderer(os.Stdout))
		}
		render := console.NewRenderer(os.Stdout, styles)

		// logs go to stderr so they never interleave with the menu
		a, err := newApp(cfg, os.Stderr, func(*logger.Logger) notify.Sink { return render })
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return console.New(a.registry, render, os.Stdin, a.logger).Run(ctx)
	},
}

// consoleConfig disables what only the HTTP server exposes: nothing
// serves the metrics endpoint in console mode.
func consoleConfig(cfg *config.Config) *config.Config {
	c := *cfg
	c.Metrics.Enabled = false
	return &c
}

func init() {
	rootCmd.AddCommand(consoleCmd)
}
