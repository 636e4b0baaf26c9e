package measurements

import (
	"github.com/spf13/cobra"

	"github.com/pnwcrab/lighttrap-go/internal/conf"
	"github.com/pnwcrab/lighttrap-go/internal/pipeline"
)

// Command creates the measurements command, which writes the master and
// public measurement tables. The count files are still read, because each
// measurement is linked back to a count visit.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "measurements",
		Short: "Merge and link the carapace-width measurement tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := pipeline.NewContext(settings)
			if err != nil {
				return err
			}
			_, err = ctx.RunMeasurements()
			return err
		},
	}

	return cmd
}
