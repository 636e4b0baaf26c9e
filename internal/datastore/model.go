// model.go defines the archive schema for the master tables
package datastore

import (
	"github.com/pnwcrab/lighttrap-go/internal/trapdata"
)

// CountRow is one archived trap-check record.
type CountRow struct {
	ID             uint   `gorm:"primaryKey"`
	VisitID        string `gorm:"index:idx_counts_visit"`
	SiteCode       string `gorm:"index:idx_counts_site"`
	SiteName       string
	Organization   string
	Latitude       float64
	Longitude      float64
	HasStation     bool
	Year           int `gorm:"index:idx_counts_year"`
	Month          int
	Date           string `gorm:"index:idx_counts_date"`
	NightsFished   float64
	HoursFished    float64
	Weather        string
	Subsample      bool
	MegalopaeCount int
	InstarCount    int
	TotalCount     int
	CPUEPerNight   float64
	CPUEPerHour    float64
	QCCode         string `gorm:"index:idx_counts_qc"`
	QCRevision     string // QC policy revision the run was filtered under
}

// MeasurementRow is one archived carapace-width measurement.
type MeasurementRow struct {
	ID              uint   `gorm:"primaryKey"`
	VisitID         string `gorm:"index:idx_measurements_visit"`
	SiteName        string
	Date            string `gorm:"index:idx_measurements_date"`
	Species         string
	LifeStage       string
	CarapaceWidthMM float64
	Notes           string
}

func countRowFrom(rec *trapdata.CountRecord, qcRevision string) CountRow {
	return CountRow{
		VisitID:        rec.VisitID,
		SiteCode:       rec.SiteCode,
		SiteName:       rec.SiteName,
		Organization:   rec.Organization,
		Latitude:       rec.Latitude,
		Longitude:      rec.Longitude,
		HasStation:     rec.HasStation,
		Year:           rec.Year,
		Month:          rec.Month,
		Date:           rec.Date,
		NightsFished:   rec.NightsFished,
		HoursFished:    rec.HoursFished,
		Weather:        rec.Weather,
		Subsample:      rec.Subsample,
		MegalopaeCount: rec.MegalopaeCount,
		InstarCount:    rec.InstarCount,
		TotalCount:     rec.TotalCount,
		CPUEPerNight:   rec.CPUEPerNight,
		CPUEPerHour:    rec.CPUEPerHour,
		QCCode:         rec.QCCode.String(),
		QCRevision:     qcRevision,
	}
}

func measurementRowFrom(rec *trapdata.MeasurementRecord) MeasurementRow {
	return MeasurementRow{
		VisitID:         rec.VisitID,
		SiteName:        rec.SiteName,
		Date:            rec.Date,
		Species:         rec.Species,
		LifeStage:       rec.LifeStage,
		CarapaceWidthMM: rec.CarapaceWidthMM,
		Notes:           rec.Notes,
	}
}
