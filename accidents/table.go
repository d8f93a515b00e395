package accidents

import (
	"sort"
	"time"

	"accident-dashboard-api/models"
)

// Table is an immutable, ordered set of accident records that all satisfy
// the required-field invariant. Filtering returns a new Table.
type Table struct {
	rows []models.Accident
	// hasDates is fixed when the canonical table is built and inherited by
	// every filtered table, so an empty intermediate still filters by date.
	hasDates bool
}

func newTable(rows []models.Accident) *Table {
	t := &Table{rows: rows}
	_, _, t.hasDates = t.DateBounds()
	return t
}

// NewTable builds a table from already-parsed records, such as rows read
// back from the database. Records that break the invariant are skipped and
// counted by reason.
func NewTable(records []models.Accident) (*Table, map[DropReason]int) {
	dropped := make(map[DropReason]int)
	rows := make([]models.Accident, 0, len(records))
	for _, rec := range records {
		if reason, ok := checkRequired(rec); !ok {
			dropped[reason]++
			continue
		}
		rows = append(rows, rec)
	}
	return newTable(rows), dropped
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

// Rows returns a copy of the records in table order.
func (t *Table) Rows() []models.Accident {
	if t == nil {
		return nil
	}
	out := make([]models.Accident, len(t.rows))
	copy(out, t.rows)
	return out
}

// Slice returns a copy of rows [offset, offset+limit), clamped to the table.
func (t *Table) Slice(offset, limit int) []models.Accident {
	n := t.Len()
	if offset < 0 {
		offset = 0
	}
	if offset >= n || limit <= 0 {
		return []models.Accident{}
	}
	end := offset + limit
	if end > n {
		end = n
	}
	out := make([]models.Accident, end-offset)
	copy(out, t.rows[offset:end])
	return out
}

// DateBounds returns the earliest and latest record dates. ok is false when
// the table holds no dates.
func (t *Table) DateBounds() (first, last time.Time, ok bool) {
	for _, r := range t.rowsOrNil() {
		if r.Date.IsZero() {
			continue
		}
		if !ok || r.Date.Before(first) {
			first = r.Date
		}
		if !ok || r.Date.After(last) {
			last = r.Date
		}
		ok = true
	}
	return first, last, ok
}

func (t *Table) rowsOrNil() []models.Accident {
	if t == nil {
		return nil
	}
	return t.rows
}

// FilterOptions lists the choices offered for each categorical filter, with
// ShowAll first, plus the selectable date bounds.
type FilterOptions struct {
	Municipalities []string   `json:"municipios"`
	Classes        []string   `json:"clases"`
	Severities     []string   `json:"gravedades"`
	Weekdays       []string   `json:"dias"`
	Districts      []string   `json:"comunas"`
	MinDate        *time.Time `json:"fecha_min,omitempty"`
	MaxDate        *time.Time `json:"fecha_max,omitempty"`
}

// Options derives the sidebar choices from the table contents.
func (t *Table) Options() FilterOptions {
	distinct := func(get func(models.Accident) string) []string {
		seen := make(map[string]struct{})
		var values []string
		for _, r := range t.rowsOrNil() {
			v := get(r)
			if v == "" {
				continue
			}
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			values = append(values, v)
		}
		sort.Strings(values)
		return append([]string{ShowAll}, values...)
	}

	opts := FilterOptions{
		Municipalities: distinct(func(a models.Accident) string { return a.Municipality }),
		Classes:        distinct(func(a models.Accident) string { return a.Class }),
		Severities:     distinct(func(a models.Accident) string { return a.Severity }),
		Weekdays:       distinct(func(a models.Accident) string { return a.Weekday }),
		Districts:      distinct(func(a models.Accident) string { return a.District }),
	}
	if first, last, ok := t.DateBounds(); ok {
		opts.MinDate, opts.MaxDate = &first, &last
	}
	return opts
}
