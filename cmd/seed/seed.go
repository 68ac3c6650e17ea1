// Package seed provides the seed command loading the sentence catalog and
// dialects into the progress database.
package seed

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Ridwan414/shobdotori/internal/app"
	"github.com/Ridwan414/shobdotori/internal/conf"
	"github.com/Ridwan414/shobdotori/internal/errors"
	"github.com/Ridwan414/shobdotori/internal/seed"
)

// Command creates and returns the seed command
func Command(settings *conf.Settings) *cobra.Command {
	var (
		sentencesPath string
		dialectsPath  string
		force         bool
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load sentences and dialects into the database",
		Long: `Seed replaces the sentence catalog and initializes every dialect with the
full sentence set. Files may be JSON, YAML or TOML. Without --dialects the
built-in dialect list is used. Seeding over recorded progress requires --force.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			sentences, err := seed.LoadSentences(sentencesPath)
			if err != nil {
				return err
			}

			var dialects []seed.Dialect
			if dialectsPath != "" {
				dialects, err = seed.LoadDialects(dialectsPath)
			} else {
				dialects, err = seed.DefaultDialects()
			}
			if err != nil {
				return err
			}

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

			result, err := seed.New(services.DB.DB(), services.Tracker).Seed(cmd.Context(), sentences, dialects, force)
			if errors.Is(err, seed.ErrRecordingsExist) {
				return fmt.Errorf("%w (use --force to discard them)", err)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Seeded %d sentences for %d dialects (%d recordings possible)\n",
				result.Sentences, result.Dialects, result.MaxRecordings)
			if result.Discarded > 0 {
				fmt.Fprintf(out, "Discarded %d existing recordings\n", result.Discarded)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&sentencesPath, "sentences", "s", "", "Sentence catalog file (.json, .yaml or .toml)")
	cmd.Flags().StringVar(&dialectsPath, "dialects", "", "Dialect list file (default: built-in list)")
	cmd.Flags().BoolVar(&force, "force", false, "Discard existing recordings")
	_ = cmd.MarkFlagRequired("sentences")

	return cmd
}
