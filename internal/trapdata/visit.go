package trapdata

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/pnwcrab/lighttrap-go/internal/station"
)

// VisitKey derives the composite visit key from site code and ISO date.
// Downstream consumers depend on this exact derivation rule; do not change
// it without versioning the output schema.
func VisitKey(siteCode, date string) string {
	return siteCode + "_" + date
}

// visitNamespace is the fixed UUIDv5 namespace for visit identifiers.
// Changing it changes every published VisitID; don't.
var visitNamespace = uuid.MustParse("5b1c4df2-8c37-4b62-9d1e-3a6f0c2d7e41")

// AssignVisitIDs assigns a UUID to every distinct visit in the count table,
// in place. Rows sharing a (site, date) pair share a VisitID. The ID is a
// name-based UUID over the visit key, so re-running the pipeline on
// unchanged inputs reproduces the same IDs byte for byte; a randomly
// assigned identifier would need persistent state, and this pipeline
// regenerates everything from source files on every run.
func AssignVisitIDs(recs []CountRecord) map[string]string {
	byKey := make(map[string]string)
	for i := range recs {
		key := VisitKey(recs[i].SiteCode, recs[i].Date)
		id, ok := byKey[key]
		if !ok {
			id = uuid.NewSHA1(visitNamespace, []byte(key)).String()
			byKey[key] = id
		}
		recs[i].VisitID = id
	}
	return byKey
}

// CrossReference links measurements to count visits, in place. A
// measurement's free-text site name is resolved to a site code through the
// station table, then matched on the visit key. Multiple measurements per
// visit all inherit the same VisitID; a visit with zero measurements simply
// has no takers here. Unmatched measurements keep an empty VisitID and are
// counted in the return value.
func CrossReference(measurements []MeasurementRecord, counts []CountRecord, stations *station.Table, log *slog.Logger) (matched, unmatched int) {
	visitByKey := make(map[string]string, len(counts))
	for _, rec := range counts {
		visitByKey[VisitKey(rec.SiteCode, rec.Date)] = rec.VisitID
	}

	for i := range measurements {
		st, ok := stations.LookupByName(measurements[i].SiteName)
		if !ok {
			log.Warn("measurement site name not found in station table",
				"site_name", measurements[i].SiteName, "date", measurements[i].Date)
			unmatched++
			continue
		}

		id, ok := visitByKey[VisitKey(st.SiteCode, measurements[i].Date)]
		if !ok {
			log.Warn("measurement has no matching count visit",
				"site", st.SiteCode, "date", measurements[i].Date)
			unmatched++
			continue
		}

		measurements[i].VisitID = id
		matched++
	}
	return matched, unmatched
}
