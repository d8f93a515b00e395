package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"accident-dashboard-api/accidents"
	"accident-dashboard-api/config"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DatasetChannel carries dataset lifecycle events to websocket clients.
const DatasetChannel = "accidents:dataset"

// ErrDatasetUnavailable is returned while no table has ever loaded.
var ErrDatasetUnavailable = errors.New("dataset not loaded")

// LoadFunc produces a fresh canonical table.
type LoadFunc func(ctx context.Context) (*accidents.Table, accidents.LoadReport, error)

// CSVSource loads the configured export file.
func CSVSource(cfg config.DatasetConfig, logger *zap.Logger) LoadFunc {
	return func(ctx context.Context) (*accidents.Table, accidents.LoadReport, error) {
		if err := ctx.Err(); err != nil {
			return nil, accidents.LoadReport{}, err
		}
		return accidents.Load(cfg.Path, accidents.Options{
			Delimiter: cfg.Delimiter,
			Encoding:  cfg.Encoding,
			Logger:    logger,
		})
	}
}

// Snapshot is a consistent view of the current table.
type Snapshot struct {
	Table   *accidents.Table
	Report  accidents.LoadReport
	Version int
}

type DatasetStatus struct {
	Loaded   bool                  `json:"loaded"`
	Version  int                   `json:"version"`
	Rows     int                   `json:"rows"`
	Error    string                `json:"error,omitempty"`
	Report   *accidents.LoadReport `json:"report,omitempty"`
	LoadedAt *time.Time            `json:"loaded_at,omitempty"`
}

type DatasetEvent struct {
	Type    string    `json:"type"`
	Version int       `json:"version"`
	Rows    int       `json:"rows"`
	Error   string    `json:"error,omitempty"`
	At      time.Time `json:"at"`
}

type DatasetService struct {
	load   LoadFunc
	cache  *CacheService
	logger *zap.Logger
	group  singleflight.Group

	mu       sync.RWMutex
	table    *accidents.Table
	report   accidents.LoadReport
	version  int
	loadErr  error
	loadedAt time.Time
}

func NewDatasetService(load LoadFunc, cache *CacheService, logger *zap.Logger) *DatasetService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DatasetService{load: load, cache: cache, logger: logger}
}

// Reload replaces the table with a fresh load. On failure the previous table
// stays in service. Concurrent callers share one load.
func (s *DatasetService) Reload(ctx context.Context) error {
	_, err, _ := s.group.Do("reload", func() (interface{}, error) {
		return nil, s.reload(ctx)
	})
	return err
}

func (s *DatasetService) reload(ctx context.Context) error {
	start := time.Now()
	table, report, err := s.load(ctx)
	datasetLoadDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		datasetLoadFailures.Inc()
		s.mu.Lock()
		s.loadErr = err
		version := s.version
		s.mu.Unlock()

		s.logger.Error("dataset load failed", zap.Error(err))
		s.publish(DatasetEvent{Type: "dataset_load_failed", Version: version, Error: err.Error(), At: time.Now().UTC()})
		return err
	}

	s.mu.Lock()
	s.table = table
	s.report = report
	s.version++
	s.loadErr = nil
	s.loadedAt = time.Now().UTC()
	version := s.version
	s.mu.Unlock()

	datasetRows.Set(float64(table.Len()))
	datasetVersion.Set(float64(version))
	datasetDropped.Reset()
	for reason, n := range report.Dropped {
		datasetDropped.WithLabelValues(string(reason)).Set(float64(n))
	}

	s.logger.Info("dataset loaded",
		zap.Int("version", version),
		zap.Int("rows", table.Len()),
		zap.Int("dropped", report.DroppedTotal()),
		zap.Duration("took", time.Since(start)))
	s.publish(DatasetEvent{Type: "dataset_reloaded", Version: version, Rows: table.Len(), At: time.Now().UTC()})
	return nil
}

func (s *DatasetService) publish(ev DatasetEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.cache.Publish(ctx, DatasetChannel, ev); err != nil {
		s.logger.Warn("dataset event publish failed", zap.Error(err))
	}
}

// Snapshot returns the current table, or ErrDatasetUnavailable wrapping the
// last load error.
func (s *DatasetService) Snapshot() (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.table == nil {
		if s.loadErr != nil {
			return Snapshot{}, fmt.Errorf("%w: %v", ErrDatasetUnavailable, s.loadErr)
		}
		return Snapshot{}, ErrDatasetUnavailable
	}
	return Snapshot{Table: s.table, Report: s.report, Version: s.version}, nil
}

func (s *DatasetService) Status() DatasetStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := DatasetStatus{Loaded: s.table != nil, Version: s.version}
	if s.loadErr != nil {
		st.Error = s.loadErr.Error()
	}
	if s.table != nil {
		report := s.report
		loadedAt := s.loadedAt
		st.Rows = s.table.Len()
		st.Report = &report
		st.LoadedAt = &loadedAt
	}
	return st
}
