// Package status provides the status command printing dialect progress.
package status

import (
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/Ridwan414/shobdotori/internal/app"
	"github.com/Ridwan414/shobdotori/internal/conf"
	"github.com/Ridwan414/shobdotori/internal/tracker"
)

// Command creates and returns the status command
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print recording progress per dialect",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			services, err := app.Open(cmd.Context(), settings)
			if err != nil {
				return err
			}
			defer func() { _ = services.Close() }()

			dialects, err := services.Tracker.ListDialects(cmd.Context())
			if err != nil {
				return err
			}
			summary, err := services.Tracker.Summary(cmd.Context())
			if err != nil {
				return err
			}

			writeStatus(cmd.OutOrStdout(), dialects, summary)
			return nil
		},
	}

	return cmd
}

func writeStatus(out io.Writer, dialects []tracker.DialectSummary, summary *tracker.Summary) {
	if len(dialects) == 0 {
		fmt.Fprintln(out, "No dialects seeded yet")
		return
	}
	fmt.Fprintln(out, renderTable(dialects))
	fmt.Fprintf(out, "%d/%d recordings (%s%%), %d of %d dialects completed\n",
		summary.TotalRecordings, summary.MaxPossibleRecordings, summary.OverallProgress,
		summary.CompletedDialects, summary.TotalDialects)
}

func renderTable(dialects []tracker.DialectSummary) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Code", "Name", "Status", "Recorded", "Total", "Progress"})

	for _, d := range dialects {
		tw.AppendRow(table.Row{
			d.Code,
			d.Name,
			string(d.Status),
			strconv.Itoa(d.Recorded),
			strconv.Itoa(d.Total),
			d.Percentage + "%",
		})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 5, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 6, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})

	return tw.Render()
}
