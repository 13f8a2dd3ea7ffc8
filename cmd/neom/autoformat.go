package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"neom/internal/autoformat"
)

func autoformatCmd(a *app) *cobra.Command {
	var (
		root  string
		file  string
		watch bool
	)

	cmd := &cobra.Command{
		Use:   "autoformat",
		Short: "Format Go sources in place",
		Long: `Format one file, or every **/*.go file under the root, with gofmt
rules. Vendored, hidden, underscore-prefixed and testdata trees are skipped.

Examples:
  neom autoformat
  neom autoformat -f pkg/ddd/equal.go
  neom autoformat --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			f, err := autoformat.New(root, autoformat.WithLogger(a.log))
			if err != nil {
				return err
			}

			if file != "" {
				changed, err := f.FormatFile(file)
				if err != nil {
					return err
				}
				if changed {
					fmt.Fprintf(out, "%s %s\n", color.YellowString("formatted"), file)
				} else {
					fmt.Fprintf(out, "%s %s\n", color.HiBlackString("unchanged"), file)
				}
				return nil
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			report, err := f.FormatAll(ctx)
			if err != nil {
				return err
			}
			for _, rel := range report.Changed {
				fmt.Fprintf(out, "%s %s\n", color.YellowString("formatted"), rel)
			}
			for rel, ferr := range report.Failed {
				fmt.Fprintf(out, "%s %s: %v\n", color.RedString("failed"), rel, ferr)
			}
			fmt.Fprintf(out, "%s %d checked, %d formatted, %d failed\n",
				color.GreenString("✓"), report.Checked, len(report.Changed), len(report.Failed))

			if !watch {
				if len(report.Failed) > 0 {
					return fmt.Errorf("%d files could not be formatted", len(report.Failed))
				}
				return nil
			}

			w, err := f.NewWatcher()
			if err != nil {
				return err
			}
			w.OnChange(func(rel string) {
				fmt.Fprintf(out, "%s %s\n", color.YellowString("formatted"), rel)
			})
			fmt.Fprintf(out, "%s %s\n", color.CyanString("watching"), f.Root())
			return w.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&root, "root", ".", "Directory to format")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Format a single file")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Keep running and format files as they change")
	return cmd
}
