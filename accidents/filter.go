package accidents

import (
	"strings"
	"time"

	"accident-dashboard-api/models"
)

// DateRange is an inclusive calendar-date bound.
type DateRange struct {
	From time.Time `json:"desde"`
	To   time.Time `json:"hasta"`
}

// Selection is one session's filter state. Empty and ShowAll values impose
// no constraint; all active filters combine with AND.
type Selection struct {
	Municipality string     `json:"municipio,omitempty"`
	Class        string     `json:"clase,omitempty"`
	Severity     string     `json:"gravedad,omitempty"`
	Weekday      string     `json:"dia,omitempty"`
	District     string     `json:"comuna,omitempty"`
	Text         string     `json:"q,omitempty"`
	DateRange    *DateRange `json:"fechas,omitempty"`
}

// IsEmpty reports whether the selection imposes no constraint at all.
func (s Selection) IsEmpty() bool {
	for _, v := range []string{s.Municipality, s.Class, s.Severity, s.Weekday, s.District} {
		if active(v) != "" {
			return false
		}
	}
	return strings.TrimSpace(s.Text) == "" && s.DateRange == nil
}

// active returns the trimmed filter value, or "" when the filter is off.
func active(v string) string {
	v = strings.TrimSpace(v)
	if v == ShowAll {
		return ""
	}
	return v
}

type predicate func(models.Accident) bool

func (s Selection) predicates() []predicate {
	var preds []predicate

	exact := func(want string, get func(models.Accident) string) {
		if want = active(want); want != "" {
			preds = append(preds, func(a models.Accident) bool { return get(a) == want })
		}
	}
	exact(s.Municipality, func(a models.Accident) string { return a.Municipality })
	exact(s.Class, func(a models.Accident) string { return a.Class })
	exact(s.Severity, func(a models.Accident) string { return a.Severity })
	exact(s.District, func(a models.Accident) string { return a.District })
	if wd := active(s.Weekday); wd != "" {
		wd = NormalizeWeekday(wd)
		preds = append(preds, func(a models.Accident) bool { return a.Weekday == wd })
	}

	if text := strings.ToLower(strings.TrimSpace(s.Text)); text != "" {
		preds = append(preds, func(a models.Accident) bool {
			return containsFold(a.Address, text) || containsFold(a.Neighborhood, text)
		})
	}

	if s.DateRange != nil {
		from, to := truncateDay(s.DateRange.From), truncateDay(s.DateRange.To)
		preds = append(preds, func(a models.Accident) bool {
			d := truncateDay(a.Date)
			return !d.Before(from) && !d.After(to)
		})
	}

	return preds
}

// containsFold reports whether field contains the lower-cased needle,
// ignoring case. An empty field never matches.
func containsFold(field, lowerNeedle string) bool {
	if field == "" {
		return false
	}
	return strings.Contains(strings.ToLower(field), lowerNeedle)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Filter returns the rows matching every active filter of sel, in table
// order. A selection without constraints returns a table with the same rows.
// A date range needs both bounds, and fails with ErrNoDateData when the
// canonical table this one derives from has no dates to compare against. Start after end is not an error;
// it matches nothing.
func (t *Table) Filter(sel Selection) (*Table, error) {
	if sel.DateRange != nil {
		if sel.DateRange.From.IsZero() || sel.DateRange.To.IsZero() {
			return nil, ErrIncompleteDateRange
		}
		if t == nil || !t.hasDates {
			return nil, ErrNoDateData
		}
	}

	preds := sel.predicates()
	rows := t.rowsOrNil()
	out := make([]models.Accident, 0, len(rows))
	for _, r := range rows {
		if matchAll(r, preds) {
			out = append(out, r)
		}
	}
	filtered := &Table{rows: out}
	if t != nil {
		filtered.hasDates = t.hasDates
	}
	return filtered, nil
}

func matchAll(a models.Accident, preds []predicate) bool {
	for _, p := range preds {
		if !p(a) {
			return false
		}
	}
	return true
}
