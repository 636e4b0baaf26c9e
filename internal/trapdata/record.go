// Package trapdata holds the light-trap record types and the transforms of
// the release pipeline: per-year loading, station enrichment, QC
// partitioning, redaction and visit cross-referencing.
package trapdata

import "strings"

// QCCode is the quality-control code assigned upstream to each trap-check
// record. This pipeline only consumes the code, it never assigns one.
type QCCode string

// The fixed QC enumeration. Which of the usable codes are actually admitted
// to the published tables is configuration, not code.
const (
	QCNone               QCCode = ""    // blank code: no known issue
	QCOverHours          QCCode = "HRS" // trap fished longer than the standard soak, counts usable
	QCTimerOffset        QCCode = "BAT" // battery or timer offset, duration estimated, usable
	QCSubsampled         QCCode = "SUB" // counts expanded from a subsample, usable
	QCMissingMetadata    QCCode = "MET" // required field metadata missing
	QCDidNotFish         QCCode = "DNF" // trap did not fish properly
	QCProtocolViolation  QCCode = "PRO" // sampling protocol violation
	QCInsufficientNights QCCode = "NTS" // not enough nights fished for a valid CPUE
)

var knownQCCodes = map[QCCode]bool{
	QCNone:               true,
	QCOverHours:          true,
	QCTimerOffset:        true,
	QCSubsampled:         true,
	QCMissingMetadata:    true,
	QCDidNotFish:         true,
	QCProtocolViolation:  true,
	QCInsufficientNights: true,
}

// ParseQCCode normalizes a raw code value. The literal "none" and a blank
// cell both mean QCNone. ok is false for codes outside the enumeration.
func ParseQCCode(raw string) (code QCCode, ok bool) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" || s == "NONE" {
		return QCNone, true
	}
	code = QCCode(s)
	return code, knownQCCodes[code]
}

// String renders QCNone as "none" so blank codes are visible in logs and
// the audit table.
func (c QCCode) String() string {
	if c == QCNone {
		return "none"
	}
	return string(c)
}

// CountRecord is one trap-check event: the counts from emptying one light
// trap after a soak of one or more nights.
type CountRecord struct {
	VisitID        string  // stable identifier assigned at ingestion
	SiteCode       string  // station short code
	SiteName       string  // attached by enrichment
	Organization   string  // attached by enrichment
	Latitude       float64 // attached by enrichment
	Longitude      float64 // attached by enrichment
	HasStation     bool    // false when the left-join policy retained an unmatched row
	Year           int
	Month          int
	Date           string // ISO 8601 date of the trap check
	NightsFished   float64
	HoursFished    float64
	Weather        string
	Subsample      bool // counts expanded from a subsample
	MegalopaeCount int
	InstarCount    int
	TotalCount     int // always megalopae + instar
	CPUEPerNight   float64
	CPUEPerHour    float64
	QCCode         QCCode
}

// MeasurementRecord is one individually measured specimen, linked to a
// trap-check visit through its site and date.
type MeasurementRecord struct {
	VisitID         string // inherited from the matching count visit, empty if unmatched
	SiteName        string // free-text site name as recorded in the field
	Date            string // ISO 8601
	Species         string
	LifeStage       string
	CarapaceWidthMM float64
	Notes           string
}
