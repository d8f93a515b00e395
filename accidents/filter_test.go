package accidents

import (
	"testing"
	"time"

	"accident-dashboard-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// exampleTable is the three-row table used across the filter and aggregate tests.
func exampleTable(t *testing.T) *Table {
	t.Helper()
	table, dropped := NewTable([]models.Accident{
		{Date: day(2019, 1, 7), Hour: 8, Municipality: "Medellín", District: "10", Class: "Choque",
			Severity: "Heridos", Weekday: "LUNES", Address: "CL 50 CR 49", Neighborhood: "La Candelaria", RoadDesign: "Tramo de via"},
		{Date: day(2019, 1, 14), Hour: 20, Municipality: "Medellín", District: "10", Class: "Choque",
			Severity: "Muertos", Weekday: "LUNES", Address: "CR 80 CL 30", RoadDesign: "Intersección"},
		{Date: day(2019, 2, 5), Hour: 8, Municipality: "Bello", District: "3", Class: "Atropello",
			Severity: "Heridos", Weekday: "MARTES", Neighborhood: "Niquía", RoadDesign: "Tramo de via"},
	})
	require.Empty(t, dropped)
	return table
}

func mustFilter(t *testing.T, table *Table, sel Selection) *Table {
	t.Helper()
	out, err := table.Filter(sel)
	require.NoError(t, err)
	return out
}

func TestFilterNoSelectionKeepsEverythingInOrder(t *testing.T) {
	table := exampleTable(t)

	for _, sel := range []Selection{
		{},
		{Municipality: ShowAll, Class: ShowAll, Severity: ShowAll, Weekday: ShowAll, District: ShowAll},
		{Text: "   "},
	} {
		assert.True(t, sel.IsEmpty())
		assert.Equal(t, table.Rows(), mustFilter(t, table, sel).Rows())
	}
}

func TestFilterCategorical(t *testing.T) {
	table := exampleTable(t)

	tests := []struct {
		name string
		sel  Selection
		want int
	}{
		{"municipality", Selection{Municipality: "Medellín"}, 2},
		{"municipality trimmed", Selection{Municipality: " Medellín "}, 2},
		{"class", Selection{Class: "Atropello"}, 1},
		{"severity", Selection{Severity: "Heridos"}, 2},
		{"weekday folded", Selection{Weekday: "lunes"}, 2},
		{"district", Selection{District: "3"}, 1},
		{"conjunction", Selection{Municipality: "Medellín", Severity: "Heridos"}, 1},
		{"no match", Selection{Municipality: "Envigado"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mustFilter(t, table, tt.sel).Len())
		})
	}
}

func TestFilterText(t *testing.T) {
	table := exampleTable(t)

	assert.Equal(t, 1, mustFilter(t, table, Selection{Text: "cr 80"}).Len(), "address match")
	assert.Equal(t, 1, mustFilter(t, table, Selection{Text: "NIQUÍA"}).Len(), "neighborhood match")
	assert.Equal(t, 2, mustFilter(t, table, Selection{Text: "c"}).Len(), "address OR neighborhood")
	assert.Zero(t, mustFilter(t, table, Selection{Text: "autopista sur"}).Len())
	assert.Equal(t, 1, mustFilter(t, table, Selection{Text: "cl", Municipality: "Medellín", Severity: "Heridos"}).Len())
}

func TestFilterDateRange(t *testing.T) {
	table := exampleTable(t)

	inclusive := Selection{DateRange: &DateRange{From: day(2019, 1, 7), To: day(2019, 1, 14)}}
	assert.Equal(t, 2, mustFilter(t, table, inclusive).Len())

	reversed := Selection{DateRange: &DateRange{From: day(2019, 2, 1), To: day(2019, 1, 1)}}
	out, err := table.Filter(reversed)
	require.NoError(t, err)
	assert.Zero(t, out.Len())

	_, err = table.Filter(Selection{DateRange: &DateRange{From: day(2019, 1, 1)}})
	assert.ErrorIs(t, err, ErrIncompleteDateRange)
}

func TestFilterDateRangeWithoutDates(t *testing.T) {
	empty, _ := NewTable(nil)

	_, err := empty.Filter(Selection{DateRange: &DateRange{From: day(2019, 1, 1), To: day(2019, 12, 31)}})
	assert.ErrorIs(t, err, ErrNoDateData)

	out, err := empty.Filter(Selection{Municipality: "Bello"})
	require.NoError(t, err)
	assert.Zero(t, out.Len())
}

func TestFilterComposesInAnyOrder(t *testing.T) {
	table := exampleTable(t)
	parts := []Selection{
		{Municipality: "Medellín"},
		{Severity: "Heridos"},
		{Text: "cl"},
		{DateRange: &DateRange{From: day(2019, 1, 1), To: day(2019, 1, 31)}},
	}
	combined := Selection{
		Municipality: "Medellín", Severity: "Heridos", Text: "cl",
		DateRange: &DateRange{From: day(2019, 1, 1), To: day(2019, 1, 31)},
	}
	want := mustFilter(t, table, combined).Rows()

	forward, backward := table, table
	for i := range parts {
		forward = mustFilter(t, forward, parts[i])
		backward = mustFilter(t, backward, parts[len(parts)-1-i])
	}
	assert.Equal(t, want, forward.Rows())
	assert.Equal(t, want, backward.Rows())
}

func TestFilterComposesThroughEmptyIntermediate(t *testing.T) {
	table := exampleTable(t)
	nowhere := Selection{Municipality: "Envigado"}
	year := Selection{DateRange: &DateRange{From: day(2019, 1, 1), To: day(2019, 12, 31)}}

	forward := mustFilter(t, mustFilter(t, table, nowhere), year)
	backward := mustFilter(t, mustFilter(t, table, year), nowhere)

	assert.Zero(t, forward.Len())
	assert.Zero(t, backward.Len())
	assert.Equal(t, backward.Rows(), forward.Rows())
}

func TestFilterDoesNotMutateSource(t *testing.T) {
	table := exampleTable(t)
	before := table.Rows()

	_ = mustFilter(t, table, Selection{Municipality: "Bello"})
	assert.Equal(t, before, table.Rows())
}

func TestNewTableEnforcesInvariant(t *testing.T) {
	table, dropped := NewTable([]models.Accident{
		{Date: day(2019, 1, 1), Municipality: "Bello", District: "3", Class: "Choque", Severity: "Heridos"},
		{Municipality: "Bello", District: "3", Class: "Choque", Severity: "Heridos"},
		{Date: day(2019, 1, 1), Municipality: "Bello", District: "SIN INFORMACIÓN", Class: "Choque", Severity: "Heridos"},
	})
	assert.Equal(t, 1, table.Len())
	assert.Equal(t, 1, dropped[DropMissingDate])
	assert.Equal(t, 1, dropped[DropNoInformation])
}

func TestTableOptions(t *testing.T) {
	opts := exampleTable(t).Options()

	assert.Equal(t, []string{ShowAll, "Bello", "Medellín"}, opts.Municipalities)
	assert.Equal(t, []string{ShowAll, "Atropello", "Choque"}, opts.Classes)
	assert.Equal(t, []string{ShowAll, "Heridos", "Muertos"}, opts.Severities)
	assert.Equal(t, []string{ShowAll, "LUNES", "MARTES"}, opts.Weekdays)
	assert.Equal(t, []string{ShowAll, "10", "3"}, opts.Districts)
	require.NotNil(t, opts.MinDate)
	assert.Equal(t, day(2019, 1, 7), *opts.MinDate)
	assert.Equal(t, day(2019, 2, 5), *opts.MaxDate)
}

func TestTableSlice(t *testing.T) {
	table := exampleTable(t)

	assert.Len(t, table.Slice(0, 2), 2)
	assert.Len(t, table.Slice(2, 10), 1)
	assert.Empty(t, table.Slice(5, 10))
	assert.Empty(t, table.Slice(0, 0))
}
