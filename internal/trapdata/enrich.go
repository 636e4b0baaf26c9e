package trapdata

import (
	"log/slog"

	"github.com/pnwcrab/lighttrap-go/internal/errors"
	"github.com/pnwcrab/lighttrap-go/internal/station"
)

// JoinPolicy controls how a count record with no matching station is
// handled during enrichment.
type JoinPolicy string

const (
	// JoinInner fails the run on the first unmatched site code. A gap in
	// the station table is a metadata defect the operator must fix.
	JoinInner JoinPolicy = "inner"
	// JoinLeft retains unmatched records with empty coordinates and logs a
	// warning once per missing site.
	JoinLeft JoinPolicy = "left"
)

// EnrichCounts joins count records to the station table on site code,
// attaching site name, organization and coordinates. The input slice is not
// modified.
func EnrichCounts(recs []CountRecord, stations *station.Table, policy JoinPolicy, log *slog.Logger) ([]CountRecord, error) {
	out := make([]CountRecord, len(recs))
	warned := make(map[string]bool)

	for i, rec := range recs {
		st, ok := stations.Lookup(rec.SiteCode)
		if !ok {
			if policy == JoinInner {
				return nil, errors.Newf("site code %s has no station record", rec.SiteCode).
					Component("enrich").
					Category(errors.CategoryJoinGap).
					Context("site", rec.SiteCode).
					Context("date", rec.Date).
					Build()
			}
			if !warned[rec.SiteCode] {
				log.Warn("site code has no station record, retained with empty coordinates",
					"site", rec.SiteCode)
				warned[rec.SiteCode] = true
			}
			rec.HasStation = false
			out[i] = rec
			continue
		}

		rec.SiteName = st.SiteName
		rec.Organization = st.Organization
		rec.Latitude = st.Latitude
		rec.Longitude = st.Longitude
		rec.HasStation = true
		out[i] = rec
	}

	return out, nil
}
