// Package export serializes the release tables to CSV. Writes go to a temp
// file in the destination directory and are renamed into place, so a failed
// run leaves either no file or a complete one, never a truncated one.
// Output carries no timestamp column: re-running on unchanged input
// produces byte-identical files.
package export

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pnwcrab/lighttrap-go/internal/errors"
	"github.com/pnwcrab/lighttrap-go/internal/trapdata"
)

// Column order of the count tables. Downstream consumers depend on this
// schema; append, do not reorder.
var countHeader = []string{
	"visit_id", "site_code", "site_name", "organization",
	"latitude", "longitude",
	"year", "month", "date",
	"nights_fished", "hours_fished", "weather", "subsample",
	"megalopae_count", "instar_count", "total_count",
	"cpue_per_night", "cpue_per_hour",
	"qc_code",
}

// Column order of the measurement tables.
var measurementHeader = []string{
	"visit_id", "site_name", "date",
	"species", "life_stage", "carapace_width_mm", "notes",
}

// WriteCounts writes a count table to path.
func WriteCounts(path string, recs []trapdata.CountRecord) error {
	return writeAtomic(path, func(w *csv.Writer) error {
		if err := w.Write(countHeader); err != nil {
			return err
		}
		for i := range recs {
			if err := w.Write(countRow(&recs[i])); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteMeasurements writes a measurement table to path.
func WriteMeasurements(path string, recs []trapdata.MeasurementRecord) error {
	return writeAtomic(path, func(w *csv.Writer) error {
		if err := w.Write(measurementHeader); err != nil {
			return err
		}
		for i := range recs {
			if err := w.Write(measurementRow(&recs[i])); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteExcluded writes the excluded-records audit table. Same schema as the
// count tables; the qc_code column is the exclusion reason.
func WriteExcluded(path string, recs []trapdata.CountRecord) error {
	return WriteCounts(path, recs)
}

func countRow(rec *trapdata.CountRecord) []string {
	lat, lon := "", ""
	if rec.HasStation {
		lat = formatFloat(rec.Latitude)
		lon = formatFloat(rec.Longitude)
	}
	subsample := "0"
	if rec.Subsample {
		subsample = "1"
	}
	return []string{
		rec.VisitID,
		rec.SiteCode,
		rec.SiteName,
		rec.Organization,
		lat,
		lon,
		strconv.Itoa(rec.Year),
		strconv.Itoa(rec.Month),
		rec.Date,
		formatFloat(rec.NightsFished),
		formatFloat(rec.HoursFished),
		rec.Weather,
		subsample,
		strconv.Itoa(rec.MegalopaeCount),
		strconv.Itoa(rec.InstarCount),
		strconv.Itoa(rec.TotalCount),
		formatFloat(rec.CPUEPerNight),
		formatFloat(rec.CPUEPerHour),
		rec.QCCode.String(),
	}
}

func measurementRow(rec *trapdata.MeasurementRecord) []string {
	return []string{
		rec.VisitID,
		rec.SiteName,
		rec.Date,
		rec.Species,
		rec.LifeStage,
		formatFloat(rec.CarapaceWidthMM),
		rec.Notes,
	}
}

// formatFloat renders the shortest representation that round-trips, so the
// same value always renders the same bytes.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// writeAtomic writes CSV rows to a temp file in path's directory, fsyncs,
// and renames into place.
func writeAtomic(path string, fill func(w *csv.Writer) error) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.New(err).
			Component("export").
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}
	tmpName := tmp.Name()

	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	w := csv.NewWriter(tmp)
	if err := fill(w); err != nil {
		cleanup()
		return writeFailure(err, path)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		cleanup()
		return writeFailure(err, path)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return writeFailure(err, path)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return writeFailure(err, path)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return writeFailure(err, path)
	}
	return nil
}

func writeFailure(err error, path string) error {
	return errors.New(err).
		Component("export").
		Category(errors.CategoryFileIO).
		Context("path", path).
		Build()
}
