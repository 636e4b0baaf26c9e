package trapdata

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pnwcrab/lighttrap-go/internal/errors"
)

// Loader reads the per-year source files for one release cycle. A year's
// file may carry extra columns or drop optional ones; only the required
// column set is fixed.
type Loader struct {
	Log     *slog.Logger
	Workers int // parallel file loads, 0 or 1 for sequential
}

// Columns every count file must carry. Year, month, total and CPUE columns
// are derived here, so files that carry them anyway are fine.
var requiredCountColumns = []string{
	"site_code", "date", "nights_fished", "hours_fished",
	"megalopae_count", "instar_count", "qc_code",
}

var requiredMeasurementColumns = []string{"site_name", "date", "carapace_width_mm"}

// Date layouts seen across survey years.
var dateLayouts = []string{"2006-01-02", "1/2/2006", "01/02/2006"}

// ExpandGlobs resolves literal paths and glob patterns to a sorted file
// list. A pattern matching nothing is an input defect and fails the run.
func ExpandGlobs(patterns []string) ([]string, error) {
	var paths []string
	for _, pattern := range patterns {
		if !strings.ContainsAny(pattern, "*?[") {
			paths = append(paths, pattern)
			continue
		}
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, errors.New(err).
				Component("loader").
				Category(errors.CategoryConfiguration).
				Context("pattern", pattern).
				Build()
		}
		if len(matches) == 0 {
			return nil, errors.Newf("input pattern %q matched no files", pattern).
				Component("loader").
				Category(errors.CategoryFileIO).
				Context("pattern", pattern).
				Build()
		}
		paths = append(paths, matches...)
	}
	sort.Strings(paths)
	return paths, nil
}

// LoadCounts reads and concatenates the per-year count files. Files are
// loaded in parallel when Workers > 1; results are merged in path order so
// the unified table is deterministic either way.
func (l *Loader) LoadCounts(paths []string) ([]CountRecord, error) {
	perFile := make([][]CountRecord, len(paths))
	err := l.eachFile(paths, func(i int, path string) error {
		recs, err := l.loadCountFile(path)
		if err != nil {
			return err
		}
		perFile[i] = recs
		return nil
	})
	if err != nil {
		return nil, err
	}

	var out []CountRecord
	for _, recs := range perFile {
		out = append(out, recs...)
	}
	return out, nil
}

// LoadMeasurements reads and concatenates the per-year measurement files.
func (l *Loader) LoadMeasurements(paths []string) ([]MeasurementRecord, error) {
	perFile := make([][]MeasurementRecord, len(paths))
	err := l.eachFile(paths, func(i int, path string) error {
		recs, err := l.loadMeasurementFile(path)
		if err != nil {
			return err
		}
		perFile[i] = recs
		return nil
	})
	if err != nil {
		return nil, err
	}

	var out []MeasurementRecord
	for _, recs := range perFile {
		out = append(out, recs...)
	}
	return out, nil
}

// eachFile runs fn for every path, bounded by the worker count. Loading is
// embarrassingly parallel; ordering is restored by the caller indexing into
// a per-file slice.
func (l *Loader) eachFile(paths []string, fn func(i int, path string) error) error {
	workers := l.Workers
	if workers <= 1 || len(paths) <= 1 {
		for i, path := range paths {
			if err := fn(i, path); err != nil {
				return err
			}
		}
		return nil
	}

	sem := make(chan struct{}, workers)
	errs := make([]error, len(paths))
	var wg sync.WaitGroup
	for i, path := range paths {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, path string) {
			defer wg.Done()
			defer func() { <-sem }()
			errs[i] = fn(i, path)
		}(i, path)
	}
	wg.Wait()

	return errors.Join(errs...)
}

// columnIndex maps normalized column names to their position in one file.
type columnIndex struct {
	path  string
	index map[string]int
}

func newColumnIndex(path string, header, required []string) (*columnIndex, error) {
	ci := &columnIndex{path: path, index: make(map[string]int, len(header))}
	for i, name := range header {
		ci.index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, col := range required {
		if _, ok := ci.index[col]; !ok {
			return nil, errors.Newf("required column %q missing", col).
				Component("loader").
				Category(errors.CategorySchemaMismatch).
				Context("file", filepath.Base(path)).
				Context("column", col).
				Build()
		}
	}
	return ci, nil
}

// get returns the trimmed cell value for a column, or "" when the year's
// file does not carry that optional column.
func (ci *columnIndex) get(row []string, col string) string {
	i, ok := ci.index[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (l *Loader) loadCountFile(path string) ([]CountRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.New(err).
			Component("loader").
			Category(errors.CategoryFileIO).
			Context("file", filepath.Base(path)).
			Build()
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1 // year files are ragged often enough

	header, err := reader.Read()
	if err != nil {
		return nil, parseError(err, path, 1)
	}
	ci, err := newColumnIndex(path, header, requiredCountColumns)
	if err != nil {
		return nil, err
	}

	var out []CountRecord
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, parseError(err, path, line)
		}

		rec, err := l.parseCountRow(ci, row, line)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (l *Loader) parseCountRow(ci *columnIndex, row []string, line int) (CountRecord, error) {
	var rec CountRecord
	var err error

	rec.SiteCode = strings.ToUpper(ci.get(row, "site_code"))
	if rec.SiteCode == "" {
		return rec, rowError(ci.path, line, "site_code", "empty value")
	}

	rec.Date, err = normalizeDate(ci.get(row, "date"))
	if err != nil {
		return rec, rowError(ci.path, line, "date", err.Error())
	}
	t, _ := time.Parse("2006-01-02", rec.Date)
	rec.Year = t.Year()
	rec.Month = int(t.Month())

	if rec.NightsFished, err = parseFloat(ci.get(row, "nights_fished")); err != nil {
		return rec, rowError(ci.path, line, "nights_fished", err.Error())
	}
	if rec.HoursFished, err = parseFloat(ci.get(row, "hours_fished")); err != nil {
		return rec, rowError(ci.path, line, "hours_fished", err.Error())
	}
	if rec.MegalopaeCount, err = parseCount(ci.get(row, "megalopae_count")); err != nil {
		return rec, rowError(ci.path, line, "megalopae_count", err.Error())
	}
	if rec.InstarCount, err = parseCount(ci.get(row, "instar_count")); err != nil {
		return rec, rowError(ci.path, line, "instar_count", err.Error())
	}

	rec.Weather = ci.get(row, "weather")
	rec.Subsample = parseFlag(ci.get(row, "subsample"))

	// total_count must stay consistent with its inputs; the derived value
	// wins over whatever the year's file carried.
	rec.TotalCount = rec.MegalopaeCount + rec.InstarCount
	if raw := ci.get(row, "total_count"); raw != "" {
		fileTotal, err := parseCount(raw)
		if err == nil && fileTotal != rec.TotalCount {
			l.Log.Warn("total_count inconsistent with megalopae+instar, recomputed",
				"file", filepath.Base(ci.path), "line", line,
				"file_total", fileTotal, "derived_total", rec.TotalCount)
		}
	}

	if rec.NightsFished > 0 {
		rec.CPUEPerNight = float64(rec.TotalCount) / rec.NightsFished
	}
	if rec.HoursFished > 0 {
		rec.CPUEPerHour = float64(rec.TotalCount) / rec.HoursFished
	}

	code, ok := ParseQCCode(ci.get(row, "qc_code"))
	if !ok {
		return rec, errors.Newf("unrecognized QC code %q", ci.get(row, "qc_code")).
			Component("loader").
			Category(errors.CategoryUnknownQCCode).
			Context("file", filepath.Base(ci.path)).
			Context("line", line).
			Context("site", rec.SiteCode).
			Build()
	}
	rec.QCCode = code

	return rec, nil
}

func (l *Loader) loadMeasurementFile(path string) ([]MeasurementRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.New(err).
			Component("loader").
			Category(errors.CategoryFileIO).
			Context("file", filepath.Base(path)).
			Build()
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, parseError(err, path, 1)
	}
	ci, err := newColumnIndex(path, header, requiredMeasurementColumns)
	if err != nil {
		return nil, err
	}

	var out []MeasurementRecord
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, parseError(err, path, line)
		}

		var rec MeasurementRecord
		rec.SiteName = ci.get(row, "site_name")
		if rec.SiteName == "" {
			return nil, rowError(path, line, "site_name", "empty value")
		}
		rec.Date, err = normalizeDate(ci.get(row, "date"))
		if err != nil {
			return nil, rowError(path, line, "date", err.Error())
		}
		rec.CarapaceWidthMM, err = parseFloat(ci.get(row, "carapace_width_mm"))
		if err != nil {
			return nil, rowError(path, line, "carapace_width_mm", err.Error())
		}
		rec.Species = ci.get(row, "species")
		rec.LifeStage = ci.get(row, "life_stage")
		rec.Notes = ci.get(row, "notes")

		out = append(out, rec)
	}
	return out, nil
}

// normalizeDate parses the date layouts seen across survey years and
// renders ISO 8601.
func normalizeDate(raw string) (string, error) {
	if raw == "" {
		return "", fmt.Errorf("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("2006-01-02"), nil
		}
	}
	return "", fmt.Errorf("unparseable date %q", raw)
}

func parseFloat(raw string) (float64, error) {
	if raw == "" || strings.EqualFold(raw, "NA") {
		return 0, nil
	}
	return strconv.ParseFloat(raw, 64)
}

func parseCount(raw string) (int, error) {
	if raw == "" || strings.EqualFold(raw, "NA") {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("negative count %d", n)
	}
	return n, nil
}

func parseFlag(raw string) bool {
	switch strings.ToLower(raw) {
	case "1", "y", "yes", "true", "t":
		return true
	default:
		return false
	}
}

func parseError(err error, path string, line int) error {
	return errors.New(err).
		Component("loader").
		Category(errors.CategoryFileParsing).
		Context("file", filepath.Base(path)).
		Context("line", line).
		Build()
}

func rowError(path string, line int, column, detail string) error {
	return errors.Newf("invalid %s: %s", column, detail).
		Component("loader").
		Category(errors.CategoryFileParsing).
		Context("file", filepath.Base(path)).
		Context("line", line).
		Context("column", column).
		Build()
}
