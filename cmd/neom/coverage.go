package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"neom/internal/coverage"
)

func coverageCmd(a *app) *cobra.Command {
	var root string

	cmd := &cobra.Command{
		Use:   "coverage-gate <packages> [rate]",
		Short: "Fail when total test coverage is below a threshold",
		Long: `Run go test with a cover profile and compare the total statement
coverage against rate (percent). Without rate, NEOM_COVERAGE_THRESHOLD applies.

Examples:
  neom coverage-gate ./... 80
  neom coverage-gate ./pkg/... --root ../neom`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			threshold := a.cfg.Coverage.Threshold
			if len(args) == 2 {
				v, err := strconv.ParseFloat(args[1], 64)
				if err != nil {
					return fmt.Errorf("invalid rate %q: %w", args[1], err)
				}
				threshold = v
			}

			gate, err := coverage.New(root, coverage.WithLogger(a.log))
			if err != nil {
				return err
			}
			res, err := gate.Run(cmd.Context(), args[0], threshold)
			if err == nil || errors.Is(err, coverage.ErrBelowThreshold) {
				mark := color.GreenString("✓")
				if !res.Passed() {
					mark = color.RedString("✗")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", mark, res)
			}
			return err
		},
	}

	cmd.Flags().StringVar(&root, "root", ".", "Module root (directory containing go.mod)")
	return cmd
}
