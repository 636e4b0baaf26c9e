package station

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pnwcrab/lighttrap-go/internal/errors"
)

func writeStationFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stations.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeStationFile(t, `site_code,site_name,organization,latitude,longitude
KVI,Kingston Marina,Kingston Cove Yacht Club,47.7987,-122.4972
CBM,Cornet Bay,Deception Pass Park Foundation,48.4021,-122.6269
`)

	table, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())

	st, ok := table.Lookup("KVI")
	require.True(t, ok)
	assert.Equal(t, "Kingston Marina", st.SiteName)
	assert.InDelta(t, 47.7987, st.Latitude, 1e-9)
	assert.InDelta(t, -122.4972, st.Longitude, 1e-9)

	_, ok = table.Lookup("XXX")
	assert.False(t, ok)
}

func TestLoadExtraColumnsIgnored(t *testing.T) {
	path := writeStationFile(t, `site_code,site_name,organization,latitude,longitude,notes
KVI,Kingston Marina,Kingston Cove Yacht Club,47.7987,-122.4972,installed 2019
`)

	table, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, table.Len())
}

func TestLoadMissingColumn(t *testing.T) {
	path := writeStationFile(t, `site_code,site_name,organization,latitude
KVI,Kingston Marina,Kingston Cove Yacht Club,47.7987
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategorySchemaMismatch))
	assert.Contains(t, err.Error(), "longitude")
}

func TestLoadDuplicateSiteCode(t *testing.T) {
	path := writeStationFile(t, `site_code,site_name,organization,latitude,longitude
KVI,Kingston Marina,Kingston Cove Yacht Club,47.7987,-122.4972
KVI,Kingston Marina copy,Kingston Cove Yacht Club,47.7987,-122.4972
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KVI")
}

func TestLookupByNameNormalizesDrift(t *testing.T) {
	path := writeStationFile(t, `site_code,site_name,organization,latitude,longitude
CBM,Cornet Bay,Deception Pass Park Foundation,48.4021,-122.6269
`)

	table, err := Load(path)
	require.NoError(t, err)

	// Wording drift observed between survey years: case and extra spaces.
	st, ok := table.LookupByName("  cornet   BAY ")
	require.True(t, ok)
	assert.Equal(t, "CBM", st.SiteCode)
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "cornet bay", NormalizeName("  Cornet   Bay "))
	assert.Equal(t, "", NormalizeName("   "))
}
