package accidents

import (
	"context"
	"sort"
	"time"

	"accident-dashboard-api/models"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

// HoursInDay is the fixed domain of the hourly histogram.
const HoursInDay = 24

type CategoryCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

type ShareCount struct {
	Label string  `json:"label"`
	Count int     `json:"count"`
	Share float64 `json:"share"`
}

type ClassSeverityCount struct {
	Class    string `json:"clase"`
	Severity string `json:"gravedad"`
	Count    int    `json:"count"`
}

// SeverityByClassView is the stacked severity-within-class table.
type SeverityByClassView struct {
	Severities []string             `json:"gravedades"`
	Cells      []ClassSeverityCount `json:"cells"`
}

type HourBucket struct {
	Hour       int             `json:"hora"`
	Total      int             `json:"total"`
	BySeverity []CategoryCount `json:"por_gravedad"`
}

// HourlyView always holds HoursInDay buckets. Rows without a parsed hour
// are counted in Unknown only.
type HourlyView struct {
	Severities []string     `json:"gravedades"`
	Hours      []HourBucket `json:"horas"`
	Unknown    int          `json:"sin_hora"`
}

type TreemapView struct {
	Root     string          `json:"root"`
	Total    int             `json:"total"`
	Children []CategoryCount `json:"children"`
}

type MonthCount struct {
	Month string `json:"mes"`
	Count int    `json:"count"`
}

// TrendLine is the least-squares fit count = Intercept + Slope*m, where m is
// the number of months since the first month of the series.
type TrendLine struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
}

type MonthlyView struct {
	Months []MonthCount `json:"meses"`
	Trend  *TrendLine   `json:"tendencia,omitempty"`
}

// Summary bundles every chart view for one filtered table.
type Summary struct {
	Total           int                 `json:"total"`
	DateFrom        *time.Time          `json:"fecha_min,omitempty"`
	DateTo          *time.Time          `json:"fecha_max,omitempty"`
	ByClass         []CategoryCount     `json:"por_clase"`
	ByWeekday       []CategoryCount     `json:"por_dia"`
	SeverityByClass SeverityByClassView `json:"gravedad_por_clase"`
	Hourly          HourlyView          `json:"por_hora"`
	Districts       TreemapView         `json:"por_comuna"`
	RoadDesign      []ShareCount        `json:"por_diseno"`
	Monthly         MonthlyView         `json:"tendencia_mensual"`
}

// Summarize computes all views of t. The views share no state, so they are
// computed concurrently; the result does not depend on completion order.
func Summarize(ctx context.Context, t *Table, rootLabel string) (*Summary, error) {
	rows := t.rowsOrNil()
	s := &Summary{Total: len(rows)}
	if first, last, ok := t.DateBounds(); ok {
		s.DateFrom, s.DateTo = &first, &last
	}

	g, ctx := errgroup.WithContext(ctx)
	view := func(fn func()) {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			fn()
			return nil
		})
	}
	view(func() { s.ByClass = CountByClass(rows) })
	view(func() { s.ByWeekday = CountByWeekday(rows) })
	view(func() { s.SeverityByClass = SeverityByClass(rows) })
	view(func() { s.Hourly = HourlyHistogram(rows) })
	view(func() { s.Districts = DistrictTreemap(rows, rootLabel) })
	view(func() { s.RoadDesign = RoadDesignShare(rows) })
	view(func() { s.Monthly = MonthlyTrend(rows) })

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return s, nil
}

func countBy(rows []models.Accident, key func(models.Accident) string) map[string]int {
	counts := make(map[string]int)
	for _, r := range rows {
		if k := key(r); k != "" {
			counts[k]++
		}
	}
	return counts
}

// reindex lays counts over a fixed ordered domain. Domain values without
// rows get zero; keys outside the domain are dropped.
func reindex(domain []string, counts map[string]int) []CategoryCount {
	out := make([]CategoryCount, len(domain))
	for i, label := range domain {
		out[i] = CategoryCount{Label: label, Count: counts[label]}
	}
	return out
}

// byCountDesc orders by count descending, ties by label.
func byCountDesc(counts map[string]int) []CategoryCount {
	out := make([]CategoryCount, 0, len(counts))
	for label, n := range counts {
		out = append(out, CategoryCount{Label: label, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	return out
}

// CountByClass counts rows per accident class, ordered by class label.
func CountByClass(rows []models.Accident) []CategoryCount {
	counts := countBy(rows, func(a models.Accident) string { return a.Class })
	labels := make([]string, 0, len(counts))
	for label := range counts {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return reindex(labels, counts)
}

// CountByWeekday counts rows per weekday over the fixed Weekdays order.
func CountByWeekday(rows []models.Accident) []CategoryCount {
	counts := countBy(rows, func(a models.Accident) string { return a.Weekday })
	return reindex(Weekdays, counts)
}

func severitiesOf(rows []models.Accident) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, r := range rows {
		if _, ok := seen[r.Severity]; ok {
			continue
		}
		seen[r.Severity] = struct{}{}
		out = append(out, r.Severity)
	}
	sort.Slice(out, func(i, j int) bool { return SeverityLess(out[i], out[j]) })
	return out
}

// SeverityByClass counts each observed (class, severity) pair, ordered by
// class and then by the preferred severity order.
func SeverityByClass(rows []models.Accident) SeverityByClassView {
	type pair struct{ class, severity string }
	counts := make(map[pair]int)
	for _, r := range rows {
		counts[pair{r.Class, r.Severity}]++
	}

	cells := make([]ClassSeverityCount, 0, len(counts))
	for p, n := range counts {
		cells = append(cells, ClassSeverityCount{Class: p.class, Severity: p.severity, Count: n})
	}
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].Class != cells[j].Class {
			return cells[i].Class < cells[j].Class
		}
		return SeverityLess(cells[i].Severity, cells[j].Severity)
	})

	return SeverityByClassView{Severities: severitiesOf(rows), Cells: cells}
}

// HourlyHistogram counts rows per hour of day, split by severity. All 24
// hours are present even when the input is empty.
func HourlyHistogram(rows []models.Accident) HourlyView {
	severities := severitiesOf(rows)
	perHour := make([]map[string]int, HoursInDay)
	for h := range perHour {
		perHour[h] = make(map[string]int)
	}

	view := HourlyView{Severities: severities, Hours: make([]HourBucket, HoursInDay)}
	for _, r := range rows {
		if !r.HasHour() {
			view.Unknown++
			continue
		}
		perHour[r.Hour][r.Severity]++
	}

	for h := 0; h < HoursInDay; h++ {
		bucket := HourBucket{Hour: h, BySeverity: reindex(severities, perHour[h])}
		for _, c := range bucket.BySeverity {
			bucket.Total += c.Count
		}
		view.Hours[h] = bucket
	}
	return view
}

// DistrictTreemap counts rows per district under a single root label.
func DistrictTreemap(rows []models.Accident, rootLabel string) TreemapView {
	counts := countBy(rows, func(a models.Accident) string { return a.District })
	return TreemapView{Root: rootLabel, Total: len(rows), Children: byCountDesc(counts)}
}

// RoadDesignShare counts rows per road design with each count's share of the
// rows that have a design. Rows without a design are left out.
func RoadDesignShare(rows []models.Accident) []ShareCount {
	counts := countBy(rows, func(a models.Accident) string { return a.RoadDesign })
	total := 0
	for _, n := range counts {
		total += n
	}

	ordered := byCountDesc(counts)
	out := make([]ShareCount, len(ordered))
	for i, c := range ordered {
		out[i] = ShareCount{Label: c.Label, Count: c.Count, Share: float64(c.Count) / float64(total)}
	}
	return out
}

// MonthlyTrend counts rows per calendar month in chronological order and
// fits a linear trend when at least two months are present.
func MonthlyTrend(rows []models.Accident) MonthlyView {
	counts := make(map[time.Time]int)
	for _, r := range rows {
		month := time.Date(r.Date.Year(), r.Date.Month(), 1, 0, 0, 0, 0, time.UTC)
		counts[month]++
	}

	months := make([]time.Time, 0, len(counts))
	for m := range counts {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })

	view := MonthlyView{Months: make([]MonthCount, len(months))}
	xs := make([]float64, len(months))
	ys := make([]float64, len(months))
	for i, m := range months {
		view.Months[i] = MonthCount{Month: m.Format("2006-01"), Count: counts[m]}
		xs[i] = float64(monthsBetween(months[0], m))
		ys[i] = float64(counts[m])
	}

	if len(months) >= 2 {
		alpha, beta := stat.LinearRegression(xs, ys, nil, false)
		view.Trend = &TrendLine{Slope: beta, Intercept: alpha}
	}
	return view
}

func monthsBetween(a, b time.Time) int {
	return (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
}
