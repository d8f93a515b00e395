// Package store persists the canonical accident table in PostgreSQL.
package store

import (
	"context"
	"fmt"
	"time"

	"accident-dashboard-api/accidents"
	"accident-dashboard-api/config"
	"accident-dashboard-api/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// AccidentStore reads the accidents table through gorm.
type AccidentStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

// Open connects and pings the database.
func Open(cfg config.DatabaseConfig, log *zap.Logger) (*AccidentStore, error) {
	db, err := gorm.Open(postgres.Open(cfg.GetDSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql db handle: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return NewAccidentStore(db, log), nil
}

func NewAccidentStore(db *gorm.DB, log *zap.Logger) *AccidentStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &AccidentStore{db: db, logger: log}
}

func (s *AccidentStore) Migrate() error {
	return s.db.AutoMigrate(&models.Accident{})
}

func (s *AccidentStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Accident{}).Count(&n).Error
	return n, err
}

// LoadTable reads every stored row in insertion order and rebuilds the
// canonical table, so rows violating the table invariant are dropped again.
func (s *AccidentStore) LoadTable(ctx context.Context) (*accidents.Table, accidents.LoadReport, error) {
	var rows []models.Accident
	if err := s.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, accidents.LoadReport{}, fmt.Errorf("query accidents: %w", err)
	}

	table, dropped := accidents.NewTable(rows)
	report := accidents.LoadReport{
		Path:     "postgres:accidents",
		RowsRead: len(rows),
		RowsKept: table.Len(),
		Dropped:  dropped,
		LoadedAt: time.Now().UTC(),
	}
	for _, r := range table.Rows() {
		if !r.HasHour() {
			report.UnknownHours++
		}
	}
	s.logger.Info("accidents loaded from database",
		zap.Int("rows_read", report.RowsRead),
		zap.Int("rows_kept", report.RowsKept))
	return table, report, nil
}

func (s *AccidentStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
