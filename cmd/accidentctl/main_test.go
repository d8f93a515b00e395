package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"accident-dashboard-api/accidents"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleExport = "FECHA;HORA;MUNICIPIO;COMUNA;BARRIO;CLASE;GRAVEDAD;DÍA DE LA SEMANA;DIRECCIÓN\n" +
	"07/01/2019;08:15:00 AM;Medellín;10;La Candelaria;Choque;Heridos;LUNES;CL 50 CR 49\n" +
	"14/01/2019;08:00:00 p. m.;Medellín;10;;Choque;Muertos;LUNES;CR 80\n" +
	"05/02/2019;08:30:00 AM;Bello;3;Niquía;Atropello;Heridos;MARTES;\n" +
	"06/02/2019;09:00:00 AM;Bello;SIN INFORMACIÓN;;Choque;Heridos;MIÉRCOLES;\n"

func writeExport(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "export.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleExport), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	filter = accidents.Selection{}
	dateFrom, dateTo, chartView = "", "", ""

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestInspect(t *testing.T) {
	out, err := execute(t, "inspect", "--encoding", "utf-8", writeExport(t))
	require.NoError(t, err)

	var got struct {
		Report  accidents.LoadReport    `json:"report"`
		Options accidents.FilterOptions `json:"options"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 4, got.Report.RowsRead)
	assert.Equal(t, 3, got.Report.RowsKept)
	assert.Equal(t, 1, got.Report.Dropped[accidents.DropNoInformation])
	assert.Equal(t, []string{accidents.ShowAll, "Bello", "Medellín"}, got.Options.Municipalities)
}

func TestSummaryWithFilter(t *testing.T) {
	out, err := execute(t, "summary", "--encoding", "utf-8", "--municipio", "Medellín", writeExport(t))
	require.NoError(t, err)

	var s accidents.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &s))
	assert.Equal(t, 2, s.Total)
	assert.Equal(t, 1, s.Hourly.Hours[8].Total)
	assert.Equal(t, 1, s.Hourly.Hours[20].Total)
}

func TestSummaryChart(t *testing.T) {
	png := filepath.Join(t.TempDir(), "weekday.png")
	_, err := execute(t, "summary", "--encoding", "utf-8", "--chart", "weekday", "-o", png, writeExport(t))
	require.NoError(t, err)

	data, err := os.ReadFile(png)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))
}

func TestSummaryRejectsHalfRange(t *testing.T) {
	_, err := execute(t, "summary", "--encoding", "utf-8", "--desde", "2019-01-01", writeExport(t))
	assert.ErrorIs(t, err, accidents.ErrIncompleteDateRange)
}

func TestInspectMissingFile(t *testing.T) {
	_, err := execute(t, "inspect", filepath.Join(t.TempDir(), "nope.csv"))
	assert.ErrorIs(t, err, accidents.ErrFileNotFound)
}
