package pipeline

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pnwcrab/lighttrap-go/internal/conf"
	"github.com/pnwcrab/lighttrap-go/internal/errors"
)

const stationsCSV = `site_code,site_name,organization,latitude,longitude
KVI,Kingston Marina,Kingston Cove Yacht Club,47.7987,-122.4972
CBM,Cornet Bay,Deception Pass Park Foundation,48.4021,-122.6269
PTW,Port Townsend WRC,Port Townsend Marine Science Center,48.1173,-122.7585
`

const countsCSV = `site_code,date,nights_fished,hours_fished,weather,megalopae_count,instar_count,qc_code
KVI,2021-05-03,1,9.5,calm,152,13,
CBM,2021-05-04,2,19,rain,40,2,HRS
PTW,2021-05-05,1,10,calm,75,0,BAT
KVI,2021-05-10,1,9,calm,0,0,MET
`

const measurementsCSV = `site_name,date,species,life_stage,carapace_width_mm,notes
Kingston Marina,2021-05-03,Metacarcinus magister,megalopae,7.8,
Kingston Marina,2021-05-03,Metacarcinus magister,megalopae,8.1,
Port Townsend WRC,2021-05-05,Metacarcinus magister,megalopae,7.2,
`

func testSettings(t *testing.T) *conf.Settings {
	t.Helper()
	dir := t.TempDir()

	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	settings := &conf.Settings{}
	settings.Input.Stations = write("stations.csv", stationsCSV)
	settings.Input.Counts = []string{write("counts_2021.csv", countsCSV)}
	settings.Input.Measurements = []string{write("measurements_2021.csv", measurementsCSV)}
	settings.Input.Workers = 1
	settings.QC.Accepted = []string{"none", "HRS", "BAT", "SUB"}
	settings.QC.Revision = "2024"
	settings.Enrich.JoinPolicy = conf.JoinPolicyInner
	settings.Output.Path = filepath.Join(dir, "output")
	return settings
}

func readTable(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestRunRelease(t *testing.T) {
	settings := testSettings(t)
	ctx, err := NewContext(settings)
	require.NoError(t, err)

	summary, err := ctx.RunRelease()
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Stations)
	assert.Equal(t, 4, summary.CountsLoaded)
	assert.Equal(t, 3, summary.CountsAccepted)
	assert.Equal(t, 1, summary.CountsExcluded)
	// No deny-lists configured: public equals master.
	assert.Equal(t, 3, summary.CountsPublic)
	assert.Equal(t, 3, summary.MeasurementsLoaded)
	assert.Equal(t, 3, summary.MeasurementsMatched)
	assert.Equal(t, 0, summary.MeasurementsUnmatched)
	assert.False(t, summary.Archived)

	for _, name := range []string{
		CountsMasterFile, CountsPublicFile,
		MeasurementsMasterFile, MeasurementsPublicFile, ExcludedFile,
	} {
		_, err := os.Stat(filepath.Join(settings.Output.Path, name))
		assert.NoError(t, err, "expected output %s", name)
	}

	// Accepted + excluded must equal the loaded set exactly.
	master := readTable(t, filepath.Join(settings.Output.Path, CountsMasterFile))
	excluded := readTable(t, filepath.Join(settings.Output.Path, ExcludedFile))
	assert.Equal(t, summary.CountsLoaded, (len(master)-1)+(len(excluded)-1))

	// The excluded table holds exactly the MET row.
	require.Len(t, excluded, 2)
	assert.Equal(t, "MET", excluded[1][len(excluded[1])-1])

	// Both measurements from the same visit share the count row's visit ID.
	measurements := readTable(t, filepath.Join(settings.Output.Path, MeasurementsMasterFile))
	require.Len(t, measurements, 4)
	assert.NotEmpty(t, measurements[1][0])
	assert.Equal(t, measurements[1][0], measurements[2][0])
	assert.Equal(t, master[1][0], measurements[1][0])
}

func TestRunReleaseRedaction(t *testing.T) {
	settings := testSettings(t)
	settings.Redact.SiteCodes = []string{"PTW"}
	settings.Redact.SiteNames = []string{"port townsend wrc"}

	ctx, err := NewContext(settings)
	require.NoError(t, err)
	summary, err := ctx.RunRelease()
	require.NoError(t, err)

	assert.Equal(t, 3, summary.CountsAccepted)
	assert.Equal(t, 2, summary.CountsPublic)
	assert.Equal(t, 2, summary.MeasurementsPublic)

	// Master still carries the redacted site; public must not.
	master := readTable(t, filepath.Join(settings.Output.Path, CountsMasterFile))
	public := readTable(t, filepath.Join(settings.Output.Path, CountsPublicFile))
	assert.True(t, tableContainsSite(master, "PTW"))
	assert.False(t, tableContainsSite(public, "PTW"))

	publicMeasurements := readTable(t, filepath.Join(settings.Output.Path, MeasurementsPublicFile))
	for _, row := range publicMeasurements[1:] {
		assert.NotContains(t, strings.ToLower(row[1]), "townsend")
	}
}

func TestRunReleaseRerunByteIdentical(t *testing.T) {
	settings := testSettings(t)

	ctx, err := NewContext(settings)
	require.NoError(t, err)
	_, err = ctx.RunRelease()
	require.NoError(t, err)

	outputs := []string{
		CountsMasterFile, CountsPublicFile,
		MeasurementsMasterFile, MeasurementsPublicFile, ExcludedFile,
	}
	first := make(map[string][]byte, len(outputs))
	for _, name := range outputs {
		data, err := os.ReadFile(filepath.Join(settings.Output.Path, name))
		require.NoError(t, err)
		first[name] = data
	}

	// A fresh context over unchanged inputs must reproduce every output
	// byte for byte; visit IDs are name-based, not random.
	ctx2, err := NewContext(settings)
	require.NoError(t, err)
	_, err = ctx2.RunRelease()
	require.NoError(t, err)

	for _, name := range outputs {
		data, err := os.ReadFile(filepath.Join(settings.Output.Path, name))
		require.NoError(t, err)
		assert.Equal(t, first[name], data, "output %s differs between reruns", name)
	}
}

func TestRunCountsJoinGapFailsFast(t *testing.T) {
	settings := testSettings(t)
	// A site code with no station record.
	path := settings.Input.Counts[0]
	require.NoError(t, os.WriteFile(path, []byte(`site_code,date,nights_fished,hours_fished,megalopae_count,instar_count,qc_code
ZZZ,2021-05-03,1,9,10,0,
`), 0o644))

	ctx, err := NewContext(settings)
	require.NoError(t, err)
	_, err = ctx.RunCounts()
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryJoinGap))
	assert.Contains(t, err.Error(), "ZZZ")
}

func TestRunCountsLeftJoinRetains(t *testing.T) {
	settings := testSettings(t)
	settings.Enrich.JoinPolicy = conf.JoinPolicyLeft
	path := settings.Input.Counts[0]
	require.NoError(t, os.WriteFile(path, []byte(`site_code,date,nights_fished,hours_fished,megalopae_count,instar_count,qc_code
ZZZ,2021-05-03,1,9,10,0,
`), 0o644))

	ctx, err := NewContext(settings)
	require.NoError(t, err)
	summary, err := ctx.RunCounts()
	require.NoError(t, err)
	assert.Equal(t, 1, summary.CountsAccepted)

	master := readTable(t, filepath.Join(settings.Output.Path, CountsMasterFile))
	require.Len(t, master, 2)
	// Retained with empty coordinates under the left-join policy.
	assert.Equal(t, "ZZZ", master[1][1])
	assert.Empty(t, master[1][4])
	assert.Empty(t, master[1][5])
}

func TestRunReleaseArchives(t *testing.T) {
	settings := testSettings(t)
	settings.Output.SQLite.Enabled = true
	settings.Output.SQLite.Path = filepath.Join(settings.Output.Path, "archive.db")
	require.NoError(t, os.MkdirAll(settings.Output.Path, 0o755))

	ctx, err := NewContext(settings)
	require.NoError(t, err)
	summary, err := ctx.RunRelease()
	require.NoError(t, err)
	assert.True(t, summary.Archived)

	_, err = os.Stat(settings.Output.SQLite.Path)
	assert.NoError(t, err)
}

func TestNewContextRejectsUnknownAcceptedCode(t *testing.T) {
	settings := testSettings(t)
	settings.QC.Accepted = []string{"none", "BOGUS"}

	_, err := NewContext(settings)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryUnknownQCCode))
}

func tableContainsSite(rows [][]string, siteCode string) bool {
	for _, row := range rows[1:] {
		if row[1] == siteCode {
			return true
		}
	}
	return false
}
