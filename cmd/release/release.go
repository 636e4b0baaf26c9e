package release

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pnwcrab/lighttrap-go/internal/conf"
	"github.com/pnwcrab/lighttrap-go/internal/pipeline"
)

// Command creates the release command: the full release cycle producing all
// five output tables plus the optional SQLite archive.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "release",
		Short: "Run the full data-release cycle",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := pipeline.NewContext(settings)
			if err != nil {
				return err
			}
			summary, err := ctx.RunRelease()
			if err != nil {
				return err
			}

			fmt.Printf("release complete: %d counts (%d public, %d excluded), %d measurements (%d public) -> %s\n",
				summary.CountsLoaded, summary.CountsPublic, summary.CountsExcluded,
				summary.MeasurementsLoaded, summary.MeasurementsPublic, summary.OutputDir)
			return nil
		},
	}

	setupFlags(cmd, settings)

	return cmd
}

// setupFlags configures flags specific to the release command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) {
	cmd.Flags().BoolVar(&settings.Output.SQLite.Enabled, "archive", settings.Output.SQLite.Enabled, "Archive the master tables to the SQLite database")
}
