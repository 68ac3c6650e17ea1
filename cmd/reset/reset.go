// Package reset provides the reset command wiping one dialect.
package reset

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Ridwan414/shobdotori/internal/app"
	"github.com/Ridwan414/shobdotori/internal/conf"
)

// Command creates and returns the reset command
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset <dialect>",
		Short: "Delete a dialect's recordings from storage and reset its progress",
		Long: `Reset removes every stored recording of the dialect, then resets its
progress so all sentences are pending again. The reset runs even when some
files could not be deleted; those are listed in the output.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			result, err := services.Admin.WipeDialect(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Dialect %s reset: %d recordings cleared, %d files deleted from %s\n",
				result.DialectCode, result.DeletedRecordings, result.DeletedFiles, result.Folder)
			if result.FolderRemoved {
				fmt.Fprintf(out, "Removed empty folder %s\n", result.Folder)
			}
			if result.FailedFiles > 0 {
				fmt.Fprintf(out, "%d files could not be deleted:\n", result.FailedFiles)
				for _, msg := range result.Errors {
					fmt.Fprintf(out, "  %s\n", msg)
				}
			}
			return nil
		},
	}

	return cmd
}
