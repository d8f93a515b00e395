// Package accidents loads the AMVA accident export into an immutable table,
// filters it by the dashboard selections and derives the chart views.
package accidents

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Canonical column names after header normalization.
const (
	ColDate         = "FECHA"
	ColTime         = "HORA"
	ColMunicipality = "MUNICIPIO"
	ColDistrict     = "COMUNA"
	ColNeighborhood = "BARRIO"
	ColClass        = "CLASE"
	ColSeverity     = "GRAVEDAD"
	ColWeekday      = "DÍA DE LA SEMANA"
	ColRoadDesign   = "DISEÑO"
	ColAddress      = "DIRECCION"
)

// ShowAll is the selection value that disables a categorical filter.
const ShowAll = "Todos"

// Weekdays is the fixed display order of the weekday view.
var Weekdays = []string{"LUNES", "MARTES", "MIERCOLES", "JUEVES", "VIERNES", "SABADO", "DOMINGO"}

// SeverityOrder is the preferred ordering of severity categories.
var SeverityOrder = []string{"Solo Daños", "Heridos", "Muertos"}

var severityRank = func() map[string]int {
	m := make(map[string]int, len(SeverityOrder))
	for i, s := range SeverityOrder {
		m[fold(s)] = i
	}
	return m
}()

// SeverityLess orders severities by SeverityOrder, then unknown values
// alphabetically after the known ones.
func SeverityLess(a, b string) bool {
	ra, oka := severityRank[fold(a)]
	rb, okb := severityRank[fold(b)]
	switch {
	case oka && okb:
		if ra != rb {
			return ra < rb
		}
		return a < b
	case oka:
		return true
	case okb:
		return false
	default:
		return a < b
	}
}

// fold upper-cases s and strips combining marks, so "Miércoles " and
// "MIERCOLES" compare equal.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, strings.TrimSpace(s))
	if err != nil {
		out = strings.TrimSpace(s)
	}
	return strings.ToUpper(out)
}

// NormalizeWeekday returns the canonical weekday spelling used by Weekdays.
func NormalizeWeekday(s string) string {
	return fold(s)
}
