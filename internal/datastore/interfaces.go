// Package datastore archives the master tables of a release run to a local
// database, so past releases stay queryable without re-running the
// pipeline. The archive is regenerated per run, mirroring the output files.
package datastore

import (
	"github.com/pnwcrab/lighttrap-go/internal/conf"
	"github.com/pnwcrab/lighttrap-go/internal/trapdata"
)

// Interface is the archive contract the pipeline depends on.
type Interface interface {
	Open() error
	Close() error
	// ReplaceRun replaces the archived tables with this run's master
	// tables. The archive holds exactly one run, like the output files.
	ReplaceRun(counts []trapdata.CountRecord, measurements []trapdata.MeasurementRecord, qcRevision string) error
	CountSummary() (counts, measurements int64, err error)
}

// New returns the archive store for the given settings, or nil when the
// archive is disabled.
func New(settings *conf.Settings) Interface {
	if !settings.Output.SQLite.Enabled {
		return nil
	}
	return &SQLiteStore{Settings: settings}
}
