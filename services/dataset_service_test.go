package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"accident-dashboard-api/accidents"
	"accident-dashboard-api/config"
	"accident-dashboard-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func oneRowTable(t *testing.T) *accidents.Table {
	t.Helper()
	table, dropped := accidents.NewTable([]models.Accident{{
		Date: time.Date(2019, 1, 7, 0, 0, 0, 0, time.UTC), Municipality: "Bello",
		District: "3", Class: "Choque", Severity: "Heridos",
	}})
	require.Empty(t, dropped)
	return table
}

func TestDatasetServiceUnavailableBeforeLoad(t *testing.T) {
	svc := NewDatasetService(nil, &CacheService{}, nil)

	_, err := svc.Snapshot()
	assert.ErrorIs(t, err, ErrDatasetUnavailable)
	assert.False(t, svc.Status().Loaded)
}

func TestDatasetServiceReloadKeepsLastGoodTable(t *testing.T) {
	fail := false
	table := oneRowTable(t)
	load := func(ctx context.Context) (*accidents.Table, accidents.LoadReport, error) {
		if fail {
			return nil, accidents.LoadReport{}, errors.New("disk on fire")
		}
		return table, accidents.LoadReport{RowsRead: 2, RowsKept: 1}, nil
	}
	svc := NewDatasetService(load, &CacheService{}, nil)

	require.NoError(t, svc.Reload(context.Background()))
	snap, err := svc.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Version)
	assert.Equal(t, 1, snap.Table.Len())

	fail = true
	assert.Error(t, svc.Reload(context.Background()))
	snap, err = svc.Snapshot()
	require.NoError(t, err, "a failed reload must not drop the served table")
	assert.Equal(t, 1, snap.Version)

	st := svc.Status()
	assert.True(t, st.Loaded)
	assert.Equal(t, "disk on fire", st.Error)

	fail = false
	require.NoError(t, svc.Reload(context.Background()))
	assert.Equal(t, 2, svc.Status().Version)
	assert.Empty(t, svc.Status().Error)
}

func TestDatasetServiceFirstLoadFailure(t *testing.T) {
	svc := NewDatasetService(CSVSource(config.DatasetConfig{
		Path: filepath.Join(t.TempDir(), "missing.csv"),
	}, nil), &CacheService{}, nil)

	err := svc.Reload(context.Background())
	assert.ErrorIs(t, err, accidents.ErrFileNotFound)

	_, err = svc.Snapshot()
	assert.ErrorIs(t, err, ErrDatasetUnavailable)
	assert.Contains(t, err.Error(), "missing.csv")
}

func TestCSVSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.csv")
	data := "FECHA;HORA;MUNICIPIO;COMUNA;CLASE;GRAVEDAD\n" +
		"07/01/2019;08:15:00 AM;Bello;3;Choque;Heridos\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	load := CSVSource(config.DatasetConfig{Path: path, Encoding: "utf-8", Delimiter: ';'}, nil)
	table, report, err := load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, table.Len())
	assert.Equal(t, 1, report.RowsKept)
	assert.Equal(t, 8, table.Rows()[0].Hour)
}
