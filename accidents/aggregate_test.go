package accidents

import (
	"context"
	"testing"

	"accident-dashboard-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestEndToEndExample(t *testing.T) {
	table := exampleTable(t)

	medellin, err := table.Filter(Selection{Municipality: "Medellín"})
	require.NoError(t, err)
	require.Equal(t, 2, medellin.Len())

	assert.Equal(t, []CategoryCount{{Label: "Choque", Count: 2}}, CountByClass(medellin.Rows()))

	hourly := HourlyHistogram(medellin.Rows())
	require.Len(t, hourly.Hours, HoursInDay)
	for _, b := range hourly.Hours {
		switch b.Hour {
		case 8, 20:
			assert.Equal(t, 1, b.Total, "hour %d", b.Hour)
		default:
			assert.Zero(t, b.Total, "hour %d", b.Hour)
		}
	}
}

func TestCountByWeekdayFillsMissingDays(t *testing.T) {
	rows := []models.Accident{
		{Weekday: "LUNES"}, {Weekday: "VIERNES"}, {Weekday: "VIERNES"}, {Weekday: "FERIADO"},
	}

	got := CountByWeekday(rows)
	require.Len(t, got, 7)
	want := map[string]int{"LUNES": 1, "MARTES": 0, "MIERCOLES": 0, "JUEVES": 0, "VIERNES": 2, "SABADO": 0, "DOMINGO": 0}
	for i, c := range got {
		assert.Equal(t, Weekdays[i], c.Label)
		assert.Equal(t, want[c.Label], c.Count, c.Label)
	}
}

func TestHourlyHistogramEmpty(t *testing.T) {
	view := HourlyHistogram(nil)

	require.Len(t, view.Hours, HoursInDay)
	for h, b := range view.Hours {
		assert.Equal(t, h, b.Hour)
		assert.Zero(t, b.Total)
	}
	assert.Zero(t, view.Unknown)
	assert.NotNil(t, view.Severities)
}

func TestHourlyHistogramSplitsBySeverity(t *testing.T) {
	rows := []models.Accident{
		{Hour: 8, Severity: "Heridos"},
		{Hour: 8, Severity: "Muertos"},
		{Hour: 8, Severity: "Heridos"},
		{Hour: models.HourUnknown, Severity: "Solo Daños"},
	}

	view := HourlyHistogram(rows)
	assert.Equal(t, []string{"Solo Daños", "Heridos", "Muertos"}, view.Severities)
	assert.Equal(t, 1, view.Unknown)
	assert.Equal(t, 3, view.Hours[8].Total)
	assert.Equal(t, []CategoryCount{{"Solo Daños", 0}, {"Heridos", 2}, {"Muertos", 1}}, view.Hours[8].BySeverity)
	assert.Equal(t, []CategoryCount{{"Solo Daños", 0}, {"Heridos", 0}, {"Muertos", 0}}, view.Hours[9].BySeverity)
}

func TestSeverityByClassOrdering(t *testing.T) {
	rows := []models.Accident{
		{Class: "Choque", Severity: "Muertos"},
		{Class: "Choque", Severity: "Solo Daños"},
		{Class: "Atropello", Severity: "Heridos"},
		{Class: "Choque", Severity: "Solo Daños"},
	}

	view := SeverityByClass(rows)
	assert.Equal(t, []string{"Solo Daños", "Heridos", "Muertos"}, view.Severities)
	assert.Equal(t, []ClassSeverityCount{
		{Class: "Atropello", Severity: "Heridos", Count: 1},
		{Class: "Choque", Severity: "Solo Daños", Count: 2},
		{Class: "Choque", Severity: "Muertos", Count: 1},
	}, view.Cells)
}

func TestDistrictTreemap(t *testing.T) {
	view := DistrictTreemap(exampleTable(t).Rows(), "Medellín")

	assert.Equal(t, "Medellín", view.Root)
	assert.Equal(t, 3, view.Total)
	assert.Equal(t, []CategoryCount{{"10", 2}, {"3", 1}}, view.Children)
}

func TestRoadDesignShare(t *testing.T) {
	rows := append(exampleTable(t).Rows(), models.Accident{RoadDesign: ""})

	got := RoadDesignShare(rows)
	require.Len(t, got, 2)
	assert.Equal(t, "Tramo de via", got[0].Label)
	assert.Equal(t, 2, got[0].Count)
	assert.InDelta(t, 2.0/3.0, got[0].Share, 1e-9)
	assert.InDelta(t, 1.0/3.0, got[1].Share, 1e-9)
}

func TestMonthlyTrend(t *testing.T) {
	rows := []models.Accident{
		{Date: day(2019, 3, 2)},
		{Date: day(2019, 1, 7)},
		{Date: day(2019, 1, 20)},
		{Date: day(2019, 2, 1)},
		{Date: day(2019, 3, 30)},
		{Date: day(2019, 3, 31)},
	}

	view := MonthlyTrend(rows)
	assert.Equal(t, []MonthCount{{"2019-01", 2}, {"2019-02", 1}, {"2019-03", 3}}, view.Months)
	require.NotNil(t, view.Trend)
	assert.InDelta(t, 0.5, view.Trend.Slope, 1e-9)
	assert.InDelta(t, 1.5, view.Trend.Intercept, 1e-9)

	single := MonthlyTrend(rows[:1])
	assert.Len(t, single.Months, 1)
	assert.Nil(t, single.Trend)
}

func TestSummarizeEmptyTable(t *testing.T) {
	empty, _ := NewTable(nil)

	s, err := Summarize(context.Background(), empty, "Medellín")
	require.NoError(t, err)
	assert.Zero(t, s.Total)
	assert.Nil(t, s.DateFrom)
	assert.Empty(t, s.ByClass)
	assert.Len(t, s.ByWeekday, 7)
	assert.Len(t, s.Hourly.Hours, HoursInDay)
	assert.Empty(t, s.Districts.Children)
	assert.Empty(t, s.RoadDesign)
	assert.Empty(t, s.Monthly.Months)
}

func TestSummarizeIsDeterministic(t *testing.T) {
	defer goleak.VerifyNone(t)
	table := exampleTable(t)

	first, err := Summarize(context.Background(), table, "Medellín")
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := Summarize(context.Background(), table, "Medellín")
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, 3, first.Total)
	assert.Equal(t, day(2019, 1, 7), *first.DateFrom)
}

func TestSummarizeCancelled(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Summarize(ctx, exampleTable(t), "Medellín")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReindex(t *testing.T) {
	got := reindex([]string{"a", "b", "c"}, map[string]int{"c": 3, "a": 1, "z": 9})
	assert.Equal(t, []CategoryCount{{"a", 1}, {"b", 0}, {"c", 3}}, got)
}
