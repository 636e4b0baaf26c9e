// Package station loads the static station-metadata table that count
// records are enriched against. The table is read once per run and never
// mutated.
package station

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pnwcrab/lighttrap-go/internal/errors"
)

// Station is one monitoring site: a light trap operated by a community
// partner organization.
type Station struct {
	SiteCode     string  // unique short code, e.g. "KVI"
	SiteName     string  // descriptive name, e.g. "Kingston Marina"
	Organization string  // partner organization operating the trap
	Latitude     float64 // decimal degrees, WGS84
	Longitude    float64 // decimal degrees, WGS84
}

// Table is an immutable lookup of stations by site code.
type Table struct {
	byCode map[string]Station
	codes  []string
}

// requiredColumns are the columns the station file must carry.
var requiredColumns = []string{"site_code", "site_name", "organization", "latitude", "longitude"}

// Load reads the station metadata CSV at path. Duplicate site codes are a
// metadata defect and fail the load.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.New(err).
			Component("station").
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}
	defer f.Close()

	return parse(f, path)
}

func parse(r io.Reader, path string) (*Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, errors.New(err).
			Component("station").
			Category(errors.CategoryFileParsing).
			Context("path", path).
			Build()
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[normalizeHeader(name)] = i
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, errors.Newf("station file is missing required column %q", col).
				Component("station").
				Category(errors.CategorySchemaMismatch).
				Context("path", path).
				Context("column", col).
				Build()
		}
	}

	table := &Table{byCode: make(map[string]Station)}
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, errors.New(err).
				Component("station").
				Category(errors.CategoryFileParsing).
				Context("path", path).
				Context("line", line).
				Build()
		}

		st := Station{
			SiteCode:     strings.TrimSpace(row[index["site_code"]]),
			SiteName:     strings.TrimSpace(row[index["site_name"]]),
			Organization: strings.TrimSpace(row[index["organization"]]),
		}
		if st.SiteCode == "" {
			return nil, errors.Newf("station row has empty site_code").
				Component("station").
				Category(errors.CategoryValidation).
				Context("path", path).
				Context("line", line).
				Build()
		}
		if _, dup := table.byCode[st.SiteCode]; dup {
			return nil, errors.Newf("duplicate site_code %q in station table", st.SiteCode).
				Component("station").
				Category(errors.CategoryValidation).
				Context("path", path).
				Context("line", line).
				Build()
		}

		st.Latitude, err = strconv.ParseFloat(strings.TrimSpace(row[index["latitude"]]), 64)
		if err != nil {
			return nil, errors.Newf("invalid latitude for site %s: %v", st.SiteCode, err).
				Component("station").
				Category(errors.CategoryFileParsing).
				Context("path", path).
				Context("line", line).
				Build()
		}
		st.Longitude, err = strconv.ParseFloat(strings.TrimSpace(row[index["longitude"]]), 64)
		if err != nil {
			return nil, errors.Newf("invalid longitude for site %s: %v", st.SiteCode, err).
				Component("station").
				Category(errors.CategoryFileParsing).
				Context("path", path).
				Context("line", line).
				Build()
		}

		table.byCode[st.SiteCode] = st
		table.codes = append(table.codes, st.SiteCode)
	}

	return table, nil
}

func normalizeHeader(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Lookup returns the station for a site code.
func (t *Table) Lookup(siteCode string) (Station, bool) {
	st, ok := t.byCode[siteCode]
	return st, ok
}

// LookupByName returns the station whose site name matches after
// case-folding and whitespace normalization. Free-text names drift between
// years, so exact matching would silently lose measurements.
func (t *Table) LookupByName(siteName string) (Station, bool) {
	want := NormalizeName(siteName)
	for _, code := range t.codes {
		st := t.byCode[code]
		if NormalizeName(st.SiteName) == want {
			return st, true
		}
	}
	return Station{}, false
}

// Len returns the number of stations in the table.
func (t *Table) Len() int {
	return len(t.codes)
}

// Codes returns the site codes in file order.
func (t *Table) Codes() []string {
	out := make([]string, len(t.codes))
	copy(out, t.codes)
	return out
}

// NormalizeName folds case and collapses interior whitespace so free-text
// site names compare stably across years.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}
