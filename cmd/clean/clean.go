// Package clean provides the clean command for database-wide cleanup.
package clean

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Ridwan414/shobdotori/internal/app"
	"github.com/Ridwan414/shobdotori/internal/conf"
)

const (
	targetAll        = "all"
	targetRecordings = "recordings"
)

// Command creates and returns the clean command
func Command(settings *conf.Settings) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:       "clean <all|recordings>",
		Short:     "Delete recordings or the whole progress database",
		Long:      `Clean "recordings" deletes every ledger row and resets each dialect. Clean "all" also drops dialects and sentences, so seed must run again. Stored audio files are left in place; use reset to remove them per dialect.`,
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{targetAll, targetRecordings},
		RunE: func(cmd *cobra.Command, args []string) error {
			recordingsOnly := args[0] == targetRecordings
			if !yes {
				return fmt.Errorf("clean %s is destructive, rerun with --yes to confirm", args[0])
			}

			lock, err := app.AcquireLock(settings.LockFilePath())
			if err != nil {
				return err
			}
			defer func() { _ = lock.Release() }()

			services, err := app.Open(cmd.Context(), settings, app.WithStorage())
			if err != nil {
				return err
			}
			defer func() { _ = services.Close() }()

			result, err := services.Admin.CleanAll(cmd.Context(), recordingsOnly)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if recordingsOnly {
				fmt.Fprintf(out, "Deleted %d recordings, every dialect reset\n", result.DeletedRecordings)
			} else {
				fmt.Fprintf(out, "Deleted %d recordings and %d dialects\n", result.DeletedRecordings, result.DeletedDialects)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm the cleanup")

	return cmd
}
