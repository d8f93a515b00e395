package accidents

import (
	"sort"
	"strings"
)

// HeaderVariants maps every known spelling of a header, after trimming, to
// its canonical column name. The export has been round-tripped through
// mismatched encodings more than once, so several mojibake forms exist for
// the same column. Canonical names map to themselves.
var HeaderVariants = map[string]string{
	// GRAVEDAD
	"GRAVEDAD":           ColSeverity,
	"GRAVEDAºOSSADAºOSS": ColSeverity,

	// DIRECCION
	"DIRECCION":        ColAddress,
	"DIRECCIÓN":        ColAddress,
	"DIRECCIÊN":        ColAddress,
	"DIRECCIÃ\u0093N": ColAddress,
	"DIRECCIÃ“N":       ColAddress,

	// DÍA DE LA SEMANA
	"DÍA DE LA SEMANA":        ColWeekday,
	"DIA DE LA SEMANA":        ColWeekday,
	"DÃ\u008dA DE LA SEMANA": ColWeekday,

	// DISEÑO
	"DISEÑO":        ColRoadDesign,
	"DISEÊO":        ColRoadDesign,
	"DISENO":        ColRoadDesign,
	"DISEÃ\u0091O": ColRoadDesign,
	"DISEÃ‘O":       ColRoadDesign,

	// MUNICIPIO
	"MUNICIPIO": ColMunicipality,
}

// severityTokens drive the containment fallback for the severity column.
var severityTokens = []string{"GRAVEDAD", "OSSADA"}

// noInformationDistricts are the spellings of the "SIN INFORMACIÓN" district.
var noInformationDistricts = map[string]struct{}{
	"SIN INFORMACIÓN":        {},
	"SIN INFORMACION":        {},
	"SIN INFORMACIÊN":        {},
	"SIN INFORMACIÃ\u0093N": {},
	"SIN INFORMACIÃ“N":       {},
}

// IsNoInformation reports whether a district value is the "no information"
// sentinel in any of its known spellings.
func IsNoInformation(district string) bool {
	_, ok := noInformationDistricts[strings.ToUpper(strings.TrimSpace(district))]
	return ok
}

// NormalizeHeader trims a header and maps a known variant to its canonical
// name. Unknown headers are returned trimmed.
func NormalizeHeader(h string) string {
	h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	if canonical, ok := HeaderVariants[h]; ok {
		return canonical
	}
	return h
}

// HeaderMapping is the result of normalizing a header row.
type HeaderMapping struct {
	Columns []string
	// SeverityFallback holds the original header adopted as GRAVEDAD by the
	// containment heuristic; empty when an exact variant matched.
	SeverityFallback string
}

// Index returns the position of the first column with the given canonical
// name, or -1.
func (m HeaderMapping) Index(name string) int {
	for i, c := range m.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Duplicates lists, sorted, the canonical names more than one column
// normalized to. Index uses the first such column.
func (m HeaderMapping) Duplicates() []string {
	seen := make(map[string]int, len(m.Columns))
	var out []string
	for _, c := range m.Columns {
		seen[c]++
		if seen[c] == 2 {
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out
}

// NormalizeHeaders applies the variant table to every header and, when no
// header resolved to GRAVEDAD, adopts the first header containing a
// severity token. It fails with ErrSeverityColumnMissing when neither step
// finds a severity column.
func NormalizeHeaders(headers []string) (HeaderMapping, error) {
	m := HeaderMapping{Columns: make([]string, len(headers))}
	for i, h := range headers {
		m.Columns[i] = NormalizeHeader(h)
	}

	if m.Index(ColSeverity) >= 0 {
		return m, nil
	}

	for i, c := range m.Columns {
		upper := strings.ToUpper(c)
		for _, token := range severityTokens {
			if strings.Contains(upper, token) {
				m.SeverityFallback = c
				m.Columns[i] = ColSeverity
				return m, nil
			}
		}
	}

	return m, ErrSeverityColumnMissing
}
