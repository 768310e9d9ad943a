package store

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"sedfit/internal/domain"
)

// fitRun is the runs table: one row per fit output header.
type fitRun struct {
	RunID       string `gorm:"primaryKey;size:64"`
	Grid        string
	Fingerprint string
	Filters     string // comma-joined band names
	Policy      string
	CreatedAt   time.Time
}

func (fitRun) TableName() string { return "fit_runs" }

// fitRow is the records table: one row per retained (source, model) fit.
type fitRow struct {
	ID         uint   `gorm:"primaryKey"`
	RunID      string `gorm:"index;size:64"`
	Source     string `gorm:"index"`
	Model      string
	Rank       int
	Chi2       float64
	DOF        int
	Normalized bool
	Scale      float64
	Av         float64
	Aperture   int
	Distance   float64
}

func (fitRow) TableName() string { return "fit_records" }

// SQLWriter mirrors fit output into Postgres. It implements the same stream
// contract as the file writer: header first, then one batch insert per
// source.
type SQLWriter struct {
	db    *gorm.DB
	runID string
}

var _ domain.FitWriter = (*SQLWriter)(nil)

// NewSQLWriter connects to Postgres and migrates the result tables.
func NewSQLWriter(dsn string) (*SQLWriter, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("store: connect database: %w", err)
	}
	if err := db.AutoMigrate(&fitRun{}, &fitRow{}); err != nil {
		return nil, fmt.Errorf("store: migrate result tables: %w", err)
	}
	return &SQLWriter{db: db}, nil
}

func (w *SQLWriter) WriteHeader(h domain.RunHeader) error {
	run := fitRun{
		RunID:       h.RunID,
		Grid:        h.Grid,
		Fingerprint: h.Fingerprint,
		Filters:     strings.Join(h.Filters, ","),
		Policy:      h.Policy,
		CreatedAt:   h.CreatedAt,
	}
	if err := w.db.Create(&run).Error; err != nil {
		return fmt.Errorf("store: insert run %s: %w", h.RunID, err)
	}
	w.runID = h.RunID
	return nil
}

func (w *SQLWriter) WriteSource(sf domain.SourceFits) error {
	if len(sf.Records) == 0 {
		return nil
	}
	rows := make([]fitRow, len(sf.Records))
	for i, r := range sf.Records {
		rows[i] = fitRow{
			RunID:      w.runID,
			Source:     r.Source,
			Model:      r.Model,
			Rank:       r.Rank,
			Chi2:       r.Chi2,
			DOF:        r.DOF,
			Normalized: r.Normalized,
			Scale:      r.Scale,
			Av:         r.Av,
			Aperture:   r.Aperture,
			Distance:   r.Distance,
		}
	}
	if err := w.db.Create(&rows).Error; err != nil {
		return fmt.Errorf("store: insert fits for %s: %w", sf.Source, err)
	}
	return nil
}

func (w *SQLWriter) Close() error {
	sqlDB, err := w.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
