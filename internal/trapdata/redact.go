package trapdata

import (
	"strings"

	"github.com/pnwcrab/lighttrap-go/internal/station"
)

// RedactCounts removes records whose site code is on the deny-list of sites
// pending data-sharing agreements. Redaction is idempotent: redacting an
// already-redacted table is a no-op.
func RedactCounts(recs []CountRecord, denySiteCodes []string) []CountRecord {
	deny := make(map[string]bool, len(denySiteCodes))
	for _, code := range denySiteCodes {
		deny[strings.ToUpper(strings.TrimSpace(code))] = true
	}

	out := make([]CountRecord, 0, len(recs))
	for _, rec := range recs {
		if deny[rec.SiteCode] {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// RedactMeasurements removes records whose site name is on the deny-list.
// Names are matched case-insensitively with collapsed whitespace because
// free-text site names drift between survey years.
func RedactMeasurements(recs []MeasurementRecord, denySiteNames []string) []MeasurementRecord {
	deny := make(map[string]bool, len(denySiteNames))
	for _, name := range denySiteNames {
		deny[station.NormalizeName(name)] = true
	}

	out := make([]MeasurementRecord, 0, len(recs))
	for _, rec := range recs {
		if deny[station.NormalizeName(rec.SiteName)] {
			continue
		}
		out = append(out, rec)
	}
	return out
}
