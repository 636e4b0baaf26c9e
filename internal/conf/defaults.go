// conf/defaults.go default values for settings
package conf

import (
	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "lighttrap")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "lighttrap.log")
	viper.SetDefault("main.log.maxsize", 10)
	viper.SetDefault("main.log.maxbackups", 5)

	viper.SetDefault("input.counts", []string{})
	viper.SetDefault("input.measurements", []string{})
	viper.SetDefault("input.stations", "stations.csv")
	viper.SetDefault("input.workers", 1)

	// Accepted QC code set, revision 2024. "none" stands for a blank code.
	// The accepted set has differed between published pipeline revisions;
	// operators changing it should bump the revision label.
	viper.SetDefault("qc.accepted", []string{"none", "HRS", "BAT", "SUB"})
	viper.SetDefault("qc.revision", "2024")

	viper.SetDefault("enrich.joinpolicy", JoinPolicyInner)

	viper.SetDefault("redact.sitecodes", []string{})
	viper.SetDefault("redact.sitenames", []string{})

	viper.SetDefault("output.path", "output")
	viper.SetDefault("output.sqlite.enabled", false)
	viper.SetDefault("output.sqlite.path", "lighttrap.db")
}
