package counts

import (
	"github.com/spf13/cobra"

	"github.com/pnwcrab/lighttrap-go/internal/conf"
	"github.com/pnwcrab/lighttrap-go/internal/pipeline"
)

// Command creates the counts command, which runs the count side of the
// pipeline only: master, public and excluded count tables.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "counts",
		Short: "Merge and filter the trap count tables",
		Long: `Load the per-year count files, enrich them against the station table,
partition by QC code and write the master, public and excluded count tables.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := pipeline.NewContext(settings)
			if err != nil {
				return err
			}
			_, err = ctx.RunCounts()
			return err
		},
	}

	return cmd
}
