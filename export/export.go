// Package export writes filtered accident rows as spreadsheet or CSV files.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"accident-dashboard-api/models"

	"github.com/xuri/excelize/v2"
)

const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"

	SheetName  = "Datos Filtrados"
	dateLayout = "2006-01-02"
)

var ErrUnknownFormat = errors.New("unknown export format")

// Columns are the exported fields, in order.
var Columns = []string{"FECHA", "HORA", "MUNICIPIO", "COMUNA", "BARRIO", "CLASE", "GRAVEDAD", "DIRECCION"}

// ContentType returns the MIME type for a format.
func ContentType(format string) (string, error) {
	switch strings.ToLower(format) {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", nil
	case FormatCSV:
		return "text/csv; charset=utf-8", nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// Write encodes rows in the given format.
func Write(w io.Writer, format string, rows []models.Accident) error {
	switch strings.ToLower(format) {
	case FormatXLSX:
		return WriteXLSX(w, rows)
	case FormatCSV:
		return WriteCSV(w, rows)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

func record(a models.Accident) []string {
	return []string{
		a.Date.Format(dateLayout), a.TimeRaw, a.Municipality, a.District,
		a.Neighborhood, a.Class, a.Severity, a.Address,
	}
}

func WriteCSV(w io.Writer, rows []models.Accident) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(record(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX streams rows into a single-sheet workbook.
func WriteXLSX(w io.Writer, rows []models.Accident) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return err
	}
	dateFmt := "yyyy-mm-dd"
	dateStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &dateFmt})
	if err != nil {
		return err
	}
	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return err
	}
	header := make([]interface{}, len(Columns))
	for i, c := range Columns {
		header[i] = excelize.Cell{StyleID: headerStyle, Value: c}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []interface{}{
			excelize.Cell{StyleID: dateStyle, Value: r.Date},
			r.TimeRaw, r.Municipality, r.District, r.Neighborhood, r.Class, r.Severity, r.Address,
		}
		if err := sw.SetRow(cell, values); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return err
	}
	_, err = f.WriteTo(w)
	return err
}
