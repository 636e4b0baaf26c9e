package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pnwcrab/lighttrap-go/internal/errors"
	"github.com/pnwcrab/lighttrap-go/internal/trapdata"
)

func sampleCounts() []trapdata.CountRecord {
	return []trapdata.CountRecord{
		{
			VisitID: "0f8fad5b-d9cb-469f-a165-70867728950e", SiteCode: "KVI",
			SiteName: "Kingston Marina", Organization: "Kingston Cove Yacht Club",
			Latitude: 47.7987, Longitude: -122.4972, HasStation: true,
			Year: 2021, Month: 5, Date: "2021-05-03",
			NightsFished: 1, HoursFished: 9.5, Weather: "calm",
			MegalopaeCount: 152, InstarCount: 13, TotalCount: 165,
			CPUEPerNight: 165, CPUEPerHour: 17.368421052631579,
			QCCode: trapdata.QCNone,
		},
		{
			VisitID: "7c9e6679-7425-40de-944b-e07fc1f90ae7", SiteCode: "CBM",
			SiteName: "Cornet Bay", Organization: "Deception Pass Park Foundation",
			Latitude: 48.4021, Longitude: -122.6269, HasStation: true,
			Year: 2021, Month: 5, Date: "2021-05-04",
			NightsFished: 2, HoursFished: 19, Subsample: true,
			MegalopaeCount: 40, InstarCount: 2, TotalCount: 42,
			CPUEPerNight: 21, CPUEPerHour: 2.2105263157894739,
			QCCode: trapdata.QCOverHours,
		},
	}
}

func TestWriteCounts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "counts_master.csv")
	require.NoError(t, WriteCounts(path, sampleCounts()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 3)

	assert.Equal(t, strings.Join(countHeader, ","), lines[0])
	assert.Contains(t, lines[1], "KVI")
	assert.Contains(t, lines[1], "none")
	assert.Contains(t, lines[2], "HRS")
	// Subsample flag renders 0/1.
	assert.Contains(t, lines[1], ",0,")
	assert.Contains(t, lines[2], ",1,")
}

func TestWriteCountsEmptyCoordinatesWithoutStation(t *testing.T) {
	recs := []trapdata.CountRecord{
		{SiteCode: "ZZZ", Date: "2021-05-04", Year: 2021, Month: 5, HasStation: false,
			Latitude: 99, Longitude: 99}, // junk values must not leak
	}
	path := filepath.Join(t.TempDir(), "counts.csv")
	require.NoError(t, WriteCounts(path, recs))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "ZZZ,,,,,2021")
}

func TestWriteCountsRerunByteIdentical(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "counts.csv")
	recs := sampleCounts()

	require.NoError(t, WriteCounts(path, recs))
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	require.NoError(t, WriteCounts(path, recs))
	second, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestWriteMeasurements(t *testing.T) {
	recs := []trapdata.MeasurementRecord{
		{VisitID: "0f8fad5b-d9cb-469f-a165-70867728950e", SiteName: "Kingston Marina",
			Date: "2021-05-03", Species: "Metacarcinus magister", LifeStage: "megalopae",
			CarapaceWidthMM: 7.8},
		{SiteName: "Cornet Bay, inner float", Date: "2021-05-04",
			CarapaceWidthMM: 11.2, Notes: "damaged carapace"},
	}

	path := filepath.Join(t.TempDir(), "measurements.csv")
	require.NoError(t, WriteMeasurements(path, recs))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.True(t, strings.HasPrefix(content, strings.Join(measurementHeader, ",")+"\n"))
	// A comma in a free-text site name must be quoted, not split.
	assert.Contains(t, content, `"Cornet Bay, inner float"`)
}

func TestWriteFailureLeavesNoPartialFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "missing-subdir")
	path := filepath.Join(dir, "counts.csv")

	err := WriteCounts(path, sampleCounts())
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryFileIO))

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestWriteCleansUpTempFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "counts.csv")
	require.NoError(t, WriteCounts(path, sampleCounts()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "counts.csv", entries[0].Name())
}
