package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pnwcrab/lighttrap-go/cmd/counts"
	"github.com/pnwcrab/lighttrap-go/cmd/measurements"
	"github.com/pnwcrab/lighttrap-go/cmd/release"
	"github.com/pnwcrab/lighttrap-go/cmd/validate"
	"github.com/pnwcrab/lighttrap-go/internal/conf"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "lighttrap",
		Short: "Larval crab light-trap release pipeline",
		Long: `lighttrap merges the per-year light-trap count and carapace-width
measurement files into master tables, applies the QC and redaction policies
from the configuration, and writes the release tables.`,
	}

	setupFlags(rootCmd, settings)

	subcommands := []*cobra.Command{
		counts.Command(settings),
		measurements.Command(settings),
		release.Command(settings),
		validate.Command(settings),
	}
	rootCmd.AddCommand(subcommands...)

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) error {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	rootCmd.PersistentFlags().StringVarP(&settings.Output.Path, "output", "o", viper.GetString("output.path"), "Path to output directory")
	rootCmd.PersistentFlags().StringVar(&settings.Enrich.JoinPolicy, "joinpolicy", viper.GetString("enrich.joinpolicy"), "Station join policy: inner or left")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		return fmt.Errorf("error binding flags: %v", err)
	}

	return nil
}
