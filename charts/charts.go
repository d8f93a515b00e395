// Package charts renders accident summary views as PNG images.
package charts

import (
	"errors"
	"fmt"
	"io"
	"time"

	"accident-dashboard-api/accidents"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// View names accepted by Render.
const (
	ViewClass           = "class"
	ViewWeekday         = "weekday"
	ViewSeverityByClass = "severity-by-class"
	ViewHourly          = "hourly"
	ViewDistricts       = "districts"
	ViewRoadDesign      = "road-design"
	ViewMonthly         = "monthly"
)

var Views = []string{
	ViewClass, ViewWeekday, ViewSeverityByClass, ViewHourly, ViewDistricts, ViewRoadDesign, ViewMonthly,
}

var (
	// ErrNoData means the view has nothing to draw.
	ErrNoData      = errors.New("no data")
	ErrUnknownView = errors.New("unknown chart view")
)

const (
	defaultWidth  = 1024
	defaultHeight = 512
	barWidth      = 40
	barSpacing    = 12
)

var severityColors = []drawing.Color{chart.ColorGreen, chart.ColorOrange, chart.ColorRed, chart.ColorBlue, chart.ColorAlternateGray}

func colorAt(i int) drawing.Color {
	return severityColors[i%len(severityColors)]
}

// Render writes the named view of s as a PNG.
func Render(w io.Writer, view string, s *accidents.Summary) error {
	if s == nil {
		return ErrNoData
	}
	switch view {
	case ViewClass:
		return renderBars(w, "Accidentes por clase", s.ByClass)
	case ViewWeekday:
		return renderBars(w, "Accidentes por día de la semana", s.ByWeekday)
	case ViewSeverityByClass:
		return renderSeverityByClass(w, s.SeverityByClass)
	case ViewHourly:
		return renderHourly(w, s.Hourly)
	case ViewDistricts:
		return renderBars(w, fmt.Sprintf("%s por comuna (%d)", s.Districts.Root, s.Districts.Total), s.Districts.Children)
	case ViewRoadDesign:
		return renderRoadDesign(w, s.RoadDesign)
	case ViewMonthly:
		return renderMonthly(w, s.Monthly)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownView, view)
	}
}

func renderBars(w io.Writer, title string, counts []accidents.CategoryCount) error {
	maxCount := 0
	bars := make([]chart.Value, 0, len(counts))
	for _, c := range counts {
		bars = append(bars, chart.Value{Label: c.Label, Value: float64(c.Count)})
		if c.Count > maxCount {
			maxCount = c.Count
		}
	}
	if maxCount == 0 {
		return ErrNoData
	}

	width := defaultWidth
	if need := len(bars)*(barWidth+barSpacing) + 160; need > width {
		width = need
	}
	bc := chart.BarChart{
		Title:      title,
		Width:      width,
		Height:     defaultHeight,
		BarWidth:   barWidth,
		BarSpacing: barSpacing,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		YAxis:      chart.YAxis{Range: &chart.ContinuousRange{Min: 0, Max: float64(maxCount)}},
		Bars:       bars,
	}
	return bc.Render(chart.PNG, w)
}

// renderSeverityByClass draws one 100% stacked bar per class.
func renderSeverityByClass(w io.Writer, view accidents.SeverityByClassView) error {
	if len(view.Cells) == 0 {
		return ErrNoData
	}
	colorOf := make(map[string]drawing.Color, len(view.Severities))
	for i, sev := range view.Severities {
		colorOf[sev] = colorAt(i)
	}

	var bars []chart.StackedBar
	for _, cell := range view.Cells {
		if n := len(bars); n == 0 || bars[n-1].Name != cell.Class {
			bars = append(bars, chart.StackedBar{Name: cell.Class})
		}
		last := &bars[len(bars)-1]
		last.Values = append(last.Values, chart.Value{
			Label: cell.Severity,
			Value: float64(cell.Count),
			Style: chart.Style{FillColor: colorOf[cell.Severity], StrokeColor: colorOf[cell.Severity]},
		})
	}

	width := defaultWidth
	if need := len(bars)*(barWidth+barSpacing) + 160; need > width {
		width = need
	}
	sbc := chart.StackedBarChart{
		Title:      "Gravedad por clase de accidente",
		Width:      width,
		Height:     defaultHeight,
		BarSpacing: barSpacing,
		Background: chart.Style{Padding: chart.Box{Top: 40}},
		Bars:       bars,
	}
	return sbc.Render(chart.PNG, w)
}

// renderHourly draws one line per severity across the 24 hour slots.
func renderHourly(w io.Writer, view accidents.HourlyView) error {
	maxTotal := 0
	for _, b := range view.Hours {
		if b.Total > maxTotal {
			maxTotal = b.Total
		}
	}
	if maxTotal == 0 {
		return ErrNoData
	}

	xs := make([]float64, len(view.Hours))
	for i, b := range view.Hours {
		xs[i] = float64(b.Hour)
	}
	series := make([]chart.Series, 0, len(view.Severities))
	for i, sev := range view.Severities {
		ys := make([]float64, len(view.Hours))
		for j, b := range view.Hours {
			ys[j] = float64(b.BySeverity[i].Count)
		}
		series = append(series, chart.ContinuousSeries{
			Name:    sev,
			XValues: xs,
			YValues: ys,
			Style:   chart.Style{StrokeColor: colorAt(i), StrokeWidth: 2},
		})
	}

	ticks := make([]chart.Tick, 0, accidents.HoursInDay/2)
	for h := 0; h < accidents.HoursInDay; h += 2 {
		ticks = append(ticks, chart.Tick{Value: float64(h), Label: fmt.Sprintf("%02d", h)})
	}
	ch := chart.Chart{
		Title:      "Accidentes por hora del día",
		Width:      defaultWidth,
		Height:     defaultHeight,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 12, Bottom: 16}},
		XAxis:      chart.XAxis{Name: "Hora", Range: &chart.ContinuousRange{Min: 0, Max: accidents.HoursInDay - 1}, Ticks: ticks},
		YAxis:      chart.YAxis{Range: &chart.ContinuousRange{Min: 0, Max: float64(maxTotal)}},
		Series:     series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	return ch.Render(chart.PNG, w)
}

func renderRoadDesign(w io.Writer, shares []accidents.ShareCount) error {
	values := make([]chart.Value, 0, len(shares))
	for _, s := range shares {
		if s.Count == 0 {
			continue
		}
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s (%.1f%%)", s.Label, s.Share*100),
			Value: float64(s.Count),
		})
	}
	if len(values) == 0 {
		return ErrNoData
	}

	pc := chart.PieChart{
		Title:  "Distribución por diseño de vía",
		Width:  defaultHeight,
		Height: defaultHeight,
		Values: values,
	}
	return pc.Render(chart.PNG, w)
}

func renderMonthly(w io.Writer, view accidents.MonthlyView) error {
	if len(view.Months) == 0 {
		return ErrNoData
	}

	times := make([]time.Time, 0, len(view.Months))
	ys := make([]float64, 0, len(view.Months))
	maxCount := 0.0
	for _, m := range view.Months {
		t, err := time.Parse("2006-01", m.Month)
		if err != nil {
			return fmt.Errorf("bad month bucket %q: %w", m.Month, err)
		}
		times = append(times, t)
		ys = append(ys, float64(m.Count))
		if float64(m.Count) > maxCount {
			maxCount = float64(m.Count)
		}
	}
	// A single point has no x range; stretch it over one month.
	if len(times) == 1 {
		times = append(times, times[0].AddDate(0, 1, 0))
		ys = append(ys, ys[0])
	}

	series := []chart.Series{chart.TimeSeries{
		Name:    "Accidentes",
		XValues: times,
		YValues: ys,
		Style:   chart.Style{StrokeColor: chart.ColorBlue, StrokeWidth: 2},
	}}
	if view.Trend != nil {
		first, last := times[0], times[len(times)-1]
		span := float64(monthIndex(first, last))
		fitFirst := view.Trend.Intercept
		fitLast := view.Trend.Intercept + view.Trend.Slope*span
		series = append(series, chart.TimeSeries{
			Name:    "Tendencia",
			XValues: []time.Time{first, last},
			YValues: []float64{fitFirst, fitLast},
			Style:   chart.Style{StrokeColor: chart.ColorRed, StrokeWidth: 1, StrokeDashArray: []float64{5, 5}},
		})
		for _, v := range []float64{fitFirst, fitLast} {
			if v > maxCount {
				maxCount = v
			}
		}
	}

	ch := chart.Chart{
		Title:      "Evolución mensual de accidentes",
		Width:      defaultWidth,
		Height:     defaultHeight,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 12, Bottom: 16}},
		XAxis:      chart.XAxis{Name: "Mes", ValueFormatter: chart.TimeValueFormatterWithFormat("2006-01")},
		YAxis:      chart.YAxis{Range: &chart.ContinuousRange{Min: 0, Max: maxCount}},
		Series:     series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	return ch.Render(chart.PNG, w)
}

func monthIndex(from, to time.Time) int {
	return (to.Year()-from.Year())*12 + int(to.Month()-from.Month())
}
