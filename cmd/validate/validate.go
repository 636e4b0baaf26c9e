package validate

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pnwcrab/lighttrap-go/internal/conf"
	"github.com/pnwcrab/lighttrap-go/internal/pipeline"
	"github.com/pnwcrab/lighttrap-go/internal/trapdata"
)

// Command creates the validate command, which checks the configuration and
// input files without writing any output.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check configuration and input files without writing output",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := conf.ValidateSettings(settings); err != nil {
				return err
			}
			// NewContext re-checks the accepted-code set against the QC
			// enumeration.
			if _, err := pipeline.NewContext(settings); err != nil {
				return err
			}

			countPaths, err := trapdata.ExpandGlobs(settings.Input.Counts)
			if err != nil {
				return err
			}
			measurementPaths, err := trapdata.ExpandGlobs(settings.Input.Measurements)
			if err != nil {
				return err
			}

			fmt.Printf("configuration OK: %d count files, %d measurement files, QC revision %s (%s join)\n",
				len(countPaths), len(measurementPaths), settings.QC.Revision, settings.Enrich.JoinPolicy)
			return nil
		},
	}

	return cmd
}
