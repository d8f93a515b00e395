package store

import (
	"context"
	"fmt"

	"accident-dashboard-api/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// copyColumns is the column order used by CopyFrom; it matches the gorm
// column tags on models.Accident.
var copyColumns = []string{
	"fecha", "hora", "hora_dia", "municipio", "comuna", "barrio",
	"clase", "gravedad", "dia_semana", "diseno", "direccion",
}

func copyRow(a models.Accident) []any {
	return []any{
		a.Date, a.TimeRaw, a.Hour, a.Municipality, a.District, a.Neighborhood,
		a.Class, a.Severity, a.Weekday, a.RoadDesign, a.Address,
	}
}

// Importer bulk-loads rows with COPY.
type Importer struct {
	pool *pgxpool.Pool
}

func NewImporter(ctx context.Context, url string) (*Importer, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("db pool init failed: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping failed: %w", err)
	}
	return &Importer{pool: pool}, nil
}

// Replace swaps the table contents for rows inside one transaction and
// returns the number of copied rows.
func (im *Importer) Replace(ctx context.Context, rows []models.Accident) (int64, error) {
	tx, err := im.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "TRUNCATE TABLE accidents RESTART IDENTITY"); err != nil {
		return 0, fmt.Errorf("truncate accidents: %w", err)
	}
	n, err := tx.CopyFrom(ctx,
		pgx.Identifier{"accidents"},
		copyColumns,
		pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			return copyRow(rows[i]), nil
		}),
	)
	if err != nil {
		return 0, fmt.Errorf("copy accidents: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return n, nil
}

func (im *Importer) Close() {
	im.pool.Close()
}
