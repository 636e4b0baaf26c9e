package trapdata

import (
	"github.com/pnwcrab/lighttrap-go/internal/errors"
)

// Partition is a total, disjoint split of the enriched count table. Every
// input row lands in exactly one of the two subsets.
type Partition struct {
	Accepted []CountRecord // admitted to the published tables
	Excluded []CountRecord // kept in the audit table
}

// ParseAcceptedCodes converts the configured accepted-code list to QC codes.
// A configured code outside the known enumeration is a configuration error,
// reported before any data is touched.
func ParseAcceptedCodes(list []string) ([]QCCode, error) {
	codes := make([]QCCode, 0, len(list))
	for _, raw := range list {
		code, ok := ParseQCCode(raw)
		if !ok {
			return nil, errors.Newf("accepted-code list contains unknown QC code %q", raw).
				Component("qc").
				Category(errors.CategoryUnknownQCCode).
				Context("code", raw).
				Build()
		}
		codes = append(codes, code)
	}
	return codes, nil
}

// PartitionByQC splits records into accepted and excluded by QC code. A
// record carrying a code outside the known enumeration is a hard error,
// never silently accepted or dropped.
func PartitionByQC(recs []CountRecord, accepted []QCCode) (Partition, error) {
	acceptedSet := make(map[QCCode]bool, len(accepted))
	for _, code := range accepted {
		acceptedSet[code] = true
	}

	var p Partition
	for _, rec := range recs {
		if !knownQCCodes[rec.QCCode] {
			return Partition{}, errors.Newf("record carries unknown QC code %q", string(rec.QCCode)).
				Component("qc").
				Category(errors.CategoryUnknownQCCode).
				Context("site", rec.SiteCode).
				Context("date", rec.Date).
				Build()
		}
		if acceptedSet[rec.QCCode] {
			p.Accepted = append(p.Accepted, rec)
		} else {
			p.Excluded = append(p.Excluded, rec)
		}
	}
	return p, nil
}
