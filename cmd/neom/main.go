// Package main provides the neom maintenance CLI.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"neom/internal/platform/config"
	"neom/internal/platform/logger"
)

var version = "0.1.0"

// app carries what every subcommand shares.
type app struct {
	cfg config.Config
	log *slog.Logger
}

func main() {
	a := &app{cfg: config.FromEnv()}

	rootCmd := &cobra.Command{
		Use:   "neom",
		Short: "Domain helper tooling: coverage gate, formatter, component preview",
		Long: `neom bundles the maintenance commands of the neom toolkit.

Configuration is read from NEOM_* environment variables; flags override them.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.log = logger.New(a.cfg.Log)
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.cfg.Log.Level, "log-level", a.cfg.Log.Level, "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&a.cfg.Log.Format, "log-format", a.cfg.Log.Format, "Log format (text or json)")

	rootCmd.AddGroup(
		&cobra.Group{ID: "maintenance", Title: "Maintenance:"},
		&cobra.Group{ID: "ui", Title: "Components:"},
	)

	gate := coverageCmd(a)
	gate.GroupID = "maintenance"
	rootCmd.AddCommand(gate)

	format := autoformatCmd(a)
	format.GroupID = "maintenance"
	rootCmd.AddCommand(format)

	preview := previewCmd(a)
	preview.GroupID = "ui"
	rootCmd.AddCommand(preview)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("✗ %v", err))
		os.Exit(1)
	}
}
