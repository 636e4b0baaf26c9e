package datastore

import (
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pnwcrab/lighttrap-go/internal/conf"
	"github.com/pnwcrab/lighttrap-go/internal/errors"
	"github.com/pnwcrab/lighttrap-go/internal/trapdata"
)

const insertBatchSize = 500

// SQLiteStore implements Interface for SQLite
type SQLiteStore struct {
	Settings *conf.Settings
	DB       *gorm.DB
}

// Open sets up the SQLite database connection and migrates the schema.
func (store *SQLiteStore) Open() error {
	db, err := gorm.Open(sqlite.Open(store.Settings.Output.SQLite.Path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("path", store.Settings.Output.SQLite.Path).
			Build()
	}

	if err := db.AutoMigrate(&CountRow{}, &MeasurementRow{}); err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "auto-migrate").
			Build()
	}

	store.DB = db
	return nil
}

// Close closes the underlying database connection.
func (store *SQLiteStore) Close() error {
	if store.DB == nil {
		return nil
	}
	sqlDB, err := store.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ReplaceRun replaces the archived tables with this run's master tables,
// inside one transaction so a failed archive leaves the previous run intact.
func (store *SQLiteStore) ReplaceRun(counts []trapdata.CountRecord, measurements []trapdata.MeasurementRecord, qcRevision string) error {
	if store.DB == nil {
		return errors.Newf("database connection is not initialized").
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}

	countRows := make([]CountRow, 0, len(counts))
	for i := range counts {
		countRows = append(countRows, countRowFrom(&counts[i], qcRevision))
	}
	measurementRows := make([]MeasurementRow, 0, len(measurements))
	for i := range measurements {
		measurementRows = append(measurementRows, measurementRowFrom(&measurements[i]))
	}

	err := store.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&CountRow{}).Error; err != nil {
			return err
		}
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&MeasurementRow{}).Error; err != nil {
			return err
		}
		if len(countRows) > 0 {
			if err := tx.CreateInBatches(countRows, insertBatchSize).Error; err != nil {
				return err
			}
		}
		if len(measurementRows) > 0 {
			if err := tx.CreateInBatches(measurementRows, insertBatchSize).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "replace-run").
			Build()
	}
	return nil
}

// CountSummary returns the archived row counts.
func (store *SQLiteStore) CountSummary() (counts, measurements int64, err error) {
	if store.DB == nil {
		return 0, 0, errors.Newf("database connection is not initialized").
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}
	if err := store.DB.Model(&CountRow{}).Count(&counts).Error; err != nil {
		return 0, 0, err
	}
	if err := store.DB.Model(&MeasurementRow{}).Count(&measurements).Error; err != nil {
		return 0, 0, err
	}
	return counts, measurements, nil
}
