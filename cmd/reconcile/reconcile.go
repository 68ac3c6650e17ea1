// Package reconcile provides the reconcile command repairing progress
// counters from the recording ledger.
package reconcile

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Ridwan414/shobdotori/internal/app"
	"github.com/Ridwan414/shobdotori/internal/conf"
	"github.com/Ridwan414/shobdotori/internal/tracker"
)

// Command creates and returns the reconcile command
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile [dialect]",
		Short: "Check progress against the recording ledger and repair differences",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lock, err := app.AcquireLock(settings.LockFilePath())
			if err != nil {
				return err
			}
			defer func() { _ = lock.Release() }()

			services, err := app.Open(cmd.Context(), settings)
			if err != nil {
				return err
			}
			defer func() { _ = services.Close() }()

			var reports []*tracker.ReconcileReport
			if len(args) == 1 {
				report, err := services.Tracker.Reconcile(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				reports = append(reports, report)
			} else if reports, err = services.Tracker.ReconcileAll(cmd.Context()); err != nil {
				return err
			}

			printReports(cmd.OutOrStdout(), reports)
			return nil
		},
	}

	return cmd
}

func printReports(out io.Writer, reports []*tracker.ReconcileReport) {
	repaired := 0
	for _, r := range reports {
		if r.Clean() {
			continue
		}
		fmt.Fprintf(out, "%s (%s):\n", r.Dialect, r.CorrelationID)
		for _, f := range r.Findings {
			mark := " "
			if f.Repaired {
				mark = "*"
			}
			fmt.Fprintf(out, "  %s %-24s %s\n", mark, f.Check, f.Details)
		}
		repaired += r.Repaired
	}
	fmt.Fprintf(out, "%d dialects checked, %d repairs\n", len(reports), repaired)
}
