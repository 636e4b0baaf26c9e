// Package pipeline wires the release run together: load, enrich, partition,
// redact, write. Control flow is strictly sequential and every run starts
// from a fresh Context, so nothing leaks between release cycles.
package pipeline

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pnwcrab/lighttrap-go/internal/conf"
	"github.com/pnwcrab/lighttrap-go/internal/datastore"
	"github.com/pnwcrab/lighttrap-go/internal/errors"
	"github.com/pnwcrab/lighttrap-go/internal/export"
	"github.com/pnwcrab/lighttrap-go/internal/logging"
	"github.com/pnwcrab/lighttrap-go/internal/station"
	"github.com/pnwcrab/lighttrap-go/internal/trapdata"
)

// Output file names inside output.path. Documented interface contract with
// the downstream standards transformation; do not rename casually.
const (
	CountsMasterFile       = "counts_master.csv"
	CountsPublicFile       = "counts_public.csv"
	MeasurementsMasterFile = "measurements_master.csv"
	MeasurementsPublicFile = "measurements_public.csv"
	ExcludedFile           = "excluded_records.csv"
)

// Context holds everything one run needs. Build a fresh one per run.
type Context struct {
	Settings *conf.Settings
	Log      *slog.Logger

	acceptedCodes []trapdata.QCCode
	loader        *trapdata.Loader
}

// Summary reports what a run produced.
type Summary struct {
	Stations              int
	CountsLoaded          int
	CountsAccepted        int
	CountsExcluded        int
	CountsPublic          int
	MeasurementsLoaded    int
	MeasurementsMatched   int
	MeasurementsUnmatched int
	MeasurementsPublic    int
	OutputDir             string
	Archived              bool
}

// NewContext validates the QC policy and builds a run context.
func NewContext(settings *conf.Settings) (*Context, error) {
	accepted, err := trapdata.ParseAcceptedCodes(settings.QC.Accepted)
	if err != nil {
		return nil, err
	}

	log := logging.ForService("pipeline").With("qc_revision", settings.QC.Revision)

	return &Context{
		Settings:      settings,
		Log:           log,
		acceptedCodes: accepted,
		loader:        &trapdata.Loader{Log: log, Workers: settings.Input.Workers},
	}, nil
}

// countTables is the intermediate product shared by the count and
// measurement runs.
type countTables struct {
	stations  *station.Table
	enriched  []trapdata.CountRecord
	partition trapdata.Partition
}

// prepareCounts runs Loader, Enricher and Classifier for the count table.
func (c *Context) prepareCounts() (*countTables, error) {
	stations, err := station.Load(c.Settings.Input.Stations)
	if err != nil {
		return nil, err
	}
	c.Log.Info("loaded station metadata", "stations", stations.Len())

	paths, err := trapdata.ExpandGlobs(c.Settings.Input.Counts)
	if err != nil {
		return nil, err
	}

	counts, err := c.loader.LoadCounts(paths)
	if err != nil {
		return nil, err
	}
	c.Log.Info("loaded count files", "files", len(paths), "records", len(counts))

	// Stable visit identity is assigned at ingestion, before any
	// filtering, so excluded and redacted rows keep their IDs too.
	trapdata.AssignVisitIDs(counts)

	enriched, err := trapdata.EnrichCounts(counts, stations, c.joinPolicy(), c.Log)
	if err != nil {
		return nil, err
	}

	partition, err := trapdata.PartitionByQC(enriched, c.acceptedCodes)
	if err != nil {
		return nil, err
	}
	c.Log.Info("partitioned by QC code",
		"accepted", len(partition.Accepted), "excluded", len(partition.Excluded))

	return &countTables{stations: stations, enriched: enriched, partition: partition}, nil
}

// RunCounts produces the three count outputs: master, public, excluded.
func (c *Context) RunCounts() (*Summary, error) {
	tables, err := c.prepareCounts()
	if err != nil {
		return nil, err
	}

	summary := &Summary{OutputDir: c.Settings.Output.Path}
	summary.Stations = tables.stations.Len()
	summary.CountsLoaded = len(tables.enriched)
	summary.CountsAccepted = len(tables.partition.Accepted)
	summary.CountsExcluded = len(tables.partition.Excluded)

	if err := c.writeCountOutputs(tables, summary); err != nil {
		return nil, err
	}
	return summary, nil
}

// RunMeasurements produces the two measurement outputs. The count table is
// still loaded, because measurements link to count visits.
func (c *Context) RunMeasurements() (*Summary, error) {
	tables, err := c.prepareCounts()
	if err != nil {
		return nil, err
	}

	summary := &Summary{OutputDir: c.Settings.Output.Path}
	summary.Stations = tables.stations.Len()
	summary.CountsLoaded = len(tables.enriched)

	if _, err := c.writeMeasurementOutputs(tables, summary); err != nil {
		return nil, err
	}
	return summary, nil
}

// RunRelease runs the whole release cycle: all five outputs plus the
// optional archive.
func (c *Context) RunRelease() (*Summary, error) {
	tables, err := c.prepareCounts()
	if err != nil {
		return nil, err
	}

	summary := &Summary{OutputDir: c.Settings.Output.Path}
	summary.Stations = tables.stations.Len()
	summary.CountsLoaded = len(tables.enriched)
	summary.CountsAccepted = len(tables.partition.Accepted)
	summary.CountsExcluded = len(tables.partition.Excluded)

	if err := c.writeCountOutputs(tables, summary); err != nil {
		return nil, err
	}

	measurements, err := c.writeMeasurementOutputs(tables, summary)
	if err != nil {
		return nil, err
	}

	if store := datastore.New(c.Settings); store != nil {
		if err := c.archive(store, tables.partition.Accepted, measurements); err != nil {
			return nil, err
		}
		summary.Archived = true
	}

	c.Log.Info("release run complete",
		"counts_public", summary.CountsPublic,
		"measurements_public", summary.MeasurementsPublic,
		"output", summary.OutputDir)
	return summary, nil
}

func (c *Context) writeCountOutputs(tables *countTables, summary *Summary) error {
	if err := c.ensureOutputDir(); err != nil {
		return err
	}

	public := trapdata.RedactCounts(tables.partition.Accepted, c.Settings.Redact.SiteCodes)
	summary.CountsPublic = len(public)

	out := c.Settings.Output.Path
	if err := export.WriteCounts(filepath.Join(out, CountsMasterFile), tables.partition.Accepted); err != nil {
		return err
	}
	if err := export.WriteCounts(filepath.Join(out, CountsPublicFile), public); err != nil {
		return err
	}
	if err := export.WriteExcluded(filepath.Join(out, ExcludedFile), tables.partition.Excluded); err != nil {
		return err
	}

	c.Log.Info("wrote count tables",
		"master", summary.CountsAccepted, "public", summary.CountsPublic,
		"excluded", summary.CountsExcluded)
	return nil
}

// writeMeasurementOutputs loads, links and writes the measurement tables,
// returning the master table for archiving.
func (c *Context) writeMeasurementOutputs(tables *countTables, summary *Summary) ([]trapdata.MeasurementRecord, error) {
	if err := c.ensureOutputDir(); err != nil {
		return nil, err
	}

	paths, err := trapdata.ExpandGlobs(c.Settings.Input.Measurements)
	if err != nil {
		return nil, err
	}

	measurements, err := c.loader.LoadMeasurements(paths)
	if err != nil {
		return nil, err
	}
	summary.MeasurementsLoaded = len(measurements)

	// Linkage runs against the full enriched table, not just the accepted
	// subset, so a measurement at an excluded visit still resolves its ID.
	matched, unmatched := trapdata.CrossReference(measurements, tables.enriched, tables.stations, c.Log)
	summary.MeasurementsMatched = matched
	summary.MeasurementsUnmatched = unmatched

	public := trapdata.RedactMeasurements(measurements, c.Settings.Redact.SiteNames)
	summary.MeasurementsPublic = len(public)

	out := c.Settings.Output.Path
	if err := export.WriteMeasurements(filepath.Join(out, MeasurementsMasterFile), measurements); err != nil {
		return nil, err
	}
	if err := export.WriteMeasurements(filepath.Join(out, MeasurementsPublicFile), public); err != nil {
		return nil, err
	}

	c.Log.Info("wrote measurement tables",
		"master", len(measurements), "public", summary.MeasurementsPublic,
		"unmatched", unmatched)
	return measurements, nil
}

func (c *Context) archive(store datastore.Interface, counts []trapdata.CountRecord, measurements []trapdata.MeasurementRecord) error {
	if err := store.Open(); err != nil {
		return err
	}
	defer store.Close()

	if err := store.ReplaceRun(counts, measurements, c.Settings.QC.Revision); err != nil {
		return err
	}
	c.Log.Info("archived master tables", "path", c.Settings.Output.SQLite.Path)
	return nil
}

func (c *Context) ensureOutputDir() error {
	if err := os.MkdirAll(c.Settings.Output.Path, 0o755); err != nil {
		return errors.New(err).
			Component("pipeline").
			Category(errors.CategoryFileIO).
			Context("path", c.Settings.Output.Path).
			Build()
	}
	return nil
}

func (c *Context) joinPolicy() trapdata.JoinPolicy {
	if c.Settings.Enrich.JoinPolicy == conf.JoinPolicyLeft {
		return trapdata.JoinLeft
	}
	return trapdata.JoinInner
}
