package accidents

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"accident-dashboard-api/models"

	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

const (
	dateLayout = "2/1/2006"
	timeLayout = "3:04:05 PM"
)

// DropReason names why a row was excluded from the canonical table.
type DropReason string

const (
	DropMissingDate         DropReason = "missing_date"
	DropMissingMunicipality DropReason = "missing_municipality"
	DropMissingDistrict     DropReason = "missing_district"
	DropMissingClass        DropReason = "missing_class"
	DropMissingSeverity     DropReason = "missing_severity"
	DropNoInformation       DropReason = "district_without_information"
	DropMalformed           DropReason = "malformed_row"
)

// Options controls how the export is decoded.
type Options struct {
	Delimiter rune
	Encoding  string
	Logger    *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.Delimiter == 0 {
		o.Delimiter = ';'
	}
	if o.Encoding == "" {
		o.Encoding = "latin1"
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// LoadReport summarizes a load for logging and metrics.
type LoadReport struct {
	Path             string             `json:"path,omitempty"`
	RowsRead         int                `json:"rows_read"`
	RowsKept         int                `json:"rows_kept"`
	Dropped          map[DropReason]int `json:"dropped"`
	UnknownHours     int                `json:"unknown_hours"`
	SeverityFallback string             `json:"severity_fallback,omitempty"`
	MissingColumns   []string           `json:"missing_columns,omitempty"`
	DuplicateColumns []string           `json:"duplicate_columns,omitempty"`
	LoadedAt         time.Time          `json:"loaded_at"`
}

// DroppedTotal is the number of rows excluded for any reason.
func (r LoadReport) DroppedTotal() int {
	n := 0
	for _, c := range r.Dropped {
		n += c
	}
	return n
}

func textEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "latin1", "latin-1", "iso-8859-1", "iso8859-1":
		return charmap.ISO8859_1, nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252, nil
	case "utf-8", "utf8":
		return unicode.UTF8, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedEncoding, name)
	}
}

// Load reads the export at path and builds the canonical table.
func Load(path string, opts Options) (*Table, LoadReport, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, LoadReport{Path: path}, &LoadError{Path: path, Err: ErrFileNotFound}
		}
		return nil, LoadReport{Path: path}, &LoadError{Path: path, Err: err}
	}
	defer f.Close()

	table, report, err := Read(f, opts)
	report.Path = path
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.Path = path
		}
		return nil, report, err
	}
	return table, report, nil
}

// Read decodes a delimited export from r. Rows missing a required field are
// dropped; unparsable times are kept with an unknown hour.
func Read(r io.Reader, opts Options) (*Table, LoadReport, error) {
	opts = opts.withDefaults()
	report := LoadReport{Dropped: make(map[DropReason]int)}

	enc, err := textEncoding(opts.Encoding)
	if err != nil {
		return nil, report, &LoadError{Err: err}
	}

	reader := csv.NewReader(enc.NewDecoder().Reader(r))
	reader.Comma = opts.Delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, report, &LoadError{Err: errors.New("file has no header row")}
		}
		return nil, report, &LoadError{Err: fmt.Errorf("read header: %w", err)}
	}

	mapping, err := NormalizeHeaders(header)
	if err != nil {
		return nil, report, &LoadError{Err: err}
	}
	if mapping.SeverityFallback != "" {
		report.SeverityFallback = mapping.SeverityFallback
		opts.Logger.Warn("severity column resolved by heuristic match",
			zap.String("column", mapping.SeverityFallback))
	}

	report.DuplicateColumns = mapping.Duplicates()
	if len(report.DuplicateColumns) > 0 {
		opts.Logger.Warn("accident export has duplicate columns, using the first of each",
			zap.Strings("columns", report.DuplicateColumns))
	}

	idx := columnIndex{
		date:         mapping.Index(ColDate),
		time:         mapping.Index(ColTime),
		municipality: mapping.Index(ColMunicipality),
		district:     mapping.Index(ColDistrict),
		neighborhood: mapping.Index(ColNeighborhood),
		class:        mapping.Index(ColClass),
		severity:     mapping.Index(ColSeverity),
		weekday:      mapping.Index(ColWeekday),
		roadDesign:   mapping.Index(ColRoadDesign),
		address:      mapping.Index(ColAddress),
	}
	report.MissingColumns = idx.missing()
	if len(report.MissingColumns) > 0 {
		opts.Logger.Warn("accident export is missing columns",
			zap.Strings("columns", report.MissingColumns))
	}

	var records []models.Accident
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			report.RowsRead++
			report.Dropped[DropMalformed]++
			continue
		}
		if err != nil {
			return nil, report, &LoadError{Err: fmt.Errorf("read row %d: %w", report.RowsRead+2, err)}
		}
		report.RowsRead++

		rec := idx.record(row)
		if reason, ok := checkRequired(rec); !ok {
			report.Dropped[reason]++
			continue
		}
		if !rec.HasHour() {
			report.UnknownHours++
		}
		records = append(records, rec)
	}

	report.RowsKept = len(records)
	report.LoadedAt = time.Now().UTC()

	opts.Logger.Info("accident export loaded",
		zap.Int("rows_read", report.RowsRead),
		zap.Int("rows_kept", report.RowsKept),
		zap.Int("rows_dropped", report.DroppedTotal()),
		zap.Int("unknown_hours", report.UnknownHours))

	return newTable(records), report, nil
}

type columnIndex struct {
	date, time, municipality, district, neighborhood int
	class, severity, weekday, roadDesign, address    int
}

func (c columnIndex) missing() []string {
	var out []string
	for name, i := range map[string]int{
		ColDate: c.date, ColTime: c.time, ColMunicipality: c.municipality,
		ColDistrict: c.district, ColNeighborhood: c.neighborhood, ColClass: c.class,
		ColWeekday: c.weekday, ColRoadDesign: c.roadDesign, ColAddress: c.address,
	} {
		if i < 0 {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func (c columnIndex) record(row []string) models.Accident {
	field := func(i int) string {
		if i < 0 || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	timeRaw := field(c.time)
	return models.Accident{
		Date:         ParseDate(field(c.date)),
		TimeRaw:      timeRaw,
		Hour:         ParseHour(timeRaw),
		Municipality: field(c.municipality),
		District:     field(c.district),
		Neighborhood: field(c.neighborhood),
		Class:        field(c.class),
		Severity:     field(c.severity),
		Weekday:      NormalizeWeekday(field(c.weekday)),
		RoadDesign:   field(c.roadDesign),
		Address:      field(c.address),
	}
}

// checkRequired applies the canonical table invariant to one record.
func checkRequired(rec models.Accident) (DropReason, bool) {
	switch {
	case rec.Date.IsZero():
		return DropMissingDate, false
	case rec.Municipality == "":
		return DropMissingMunicipality, false
	case rec.District == "":
		return DropMissingDistrict, false
	case rec.Class == "":
		return DropMissingClass, false
	case rec.Severity == "":
		return DropMissingSeverity, false
	case IsNoInformation(rec.District):
		return DropNoInformation, false
	}
	return "", true
}

// ParseDate parses a d/m/yyyy value. It returns the zero time on failure.
func ParseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	t, err := time.ParseInLocation(dateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}
	}
	return t
}

// ParseHour extracts the hour of day from a 12-hour clock value such as
// "08:30:00 PM" or "8:30:00 p. m.". It returns models.HourUnknown when the
// value does not parse.
func ParseHour(s string) int {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return models.HourUnknown
	}
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, "A M", "AM")
	s = strings.ReplaceAll(s, "P M", "PM")
	s = strings.Join(strings.Fields(s), " ")

	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return models.HourUnknown
	}
	return t.Hour()
}
