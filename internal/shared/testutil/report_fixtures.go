package testutil

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Dokarii/TercerMomento/pkg/contracts/domain"
)

// Station names used by the sample dataset. Norte appears first in the file
// but has the lower PM2.5 levels.
const (
	StationNorte  = "Norte"
	StationCentro = "Centro"
)

// ReadingsHeader is the source column order of the sample workbook.
var ReadingsHeader = []string{"Fecha", "Estacion", "PM2.5", "PM10", "NO2", "O3"}

// SampleReading is one fixture row before it is written to a file.
type SampleReading struct {
	Timestamp time.Time
	Station   string
	PM25      float64
	PM10      float64
	NO2       float64
	O3        float64
}

// Values returns the pollutant columns in header order.
func (r SampleReading) Values() []float64 {
	return []float64{r.PM25, r.PM10, r.NO2, r.O3}
}

// PM2.5 per day for January and February 2024, Norte then Centro.
var samplePM25 = [2][5][2]float64{
	{{10, 40}, {30, 42}, {20, 50}, {12, 38}, {15, 60}},
	{{22, 44}, {18, 56}, {25, 35}, {36, 30}, {14, 48}},
}

// SampleReadings returns 20 readings: two stations, five days in each of
// January and February 2024, Norte at 08:00 and Centro at 14:30 each day.
func SampleReadings() []SampleReading {
	out := make([]SampleReading, 0, 20)
	for m := 0; m < 2; m++ {
		for d := 0; d < 5; d++ {
			day := time.Date(2024, time.Month(m+1), d+1, 0, 0, 0, 0, time.UTC)
			norte := samplePM25[m][d][0]
			centro := samplePM25[m][d][1]
			out = append(out,
				SampleReading{
					Timestamp: day.Add(8 * time.Hour),
					Station:   StationNorte,
					PM25:      norte,
					PM10:      norte*1.5 + float64(d),
					NO2:       20 + 3*float64(d) + 5*float64(m),
					O3:        50 - 2*float64(d),
				},
				SampleReading{
					Timestamp: day.Add(14*time.Hour + 30*time.Minute),
					Station:   StationCentro,
					PM25:      centro,
					PM10:      centro*1.25 + 0.5*float64(d),
					NO2:       35 + 2*float64(d) + 4*float64(m),
					O3:        40 + float64(d),
				},
			)
		}
	}
	return out
}

// SampleTable returns the sample readings as an underived table, as the
// loader would produce it from WriteSampleWorkbook.
func SampleTable() *domain.Table {
	t := &domain.Table{Columns: append([]string(nil), ReadingsHeader...)}
	for _, s := range SampleReadings() {
		t.Readings = append(t.Readings, domain.Reading{
			Timestamp: s.Timestamp,
			Station:   s.Station,
			PM25:      s.PM25,
			PM10:      s.PM10,
			NO2:       s.NO2,
			O3:        s.O3,
		})
	}
	return t
}

// DecimalComma formats v the way a Spanish-locale spreadsheet stores it.
func DecimalComma(v float64) string {
	return strings.Replace(strconv.FormatFloat(v, 'f', -1, 64), ".", ",", 1)
}

// SampleRows converts readings into workbook rows: a date-typed Fecha cell,
// the station name and decimal-comma text for each pollutant.
func SampleRows(readings []SampleReading) [][]any {
	rows := make([][]any, 0, len(readings))
	for _, r := range readings {
		row := []any{r.Timestamp, r.Station}
		for _, v := range r.Values() {
			row = append(row, DecimalComma(v))
		}
		rows = append(rows, row)
	}
	return rows
}

// WriteWorkbook writes header and rows to the default sheet of a new xlsx
// file at path.
func WriteWorkbook(t *testing.T, path string, header []string, rows [][]any) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	headerRow := make([]any, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	require.NoError(t, f.SetSheetRow(sheet, "A1", &headerRow))

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow(sheet, cell, &r))
	}

	require.NoError(t, f.SaveAs(path))
	return path
}

// WriteSampleWorkbook writes the sample dataset to dir/CALIDAD.xlsx.
func WriteSampleWorkbook(t *testing.T, dir string) string {
	t.Helper()
	return WriteWorkbook(t, filepath.Join(dir, "CALIDAD.xlsx"), ReadingsHeader, SampleRows(SampleReadings()))
}

// WriteSampleCSV writes the sample dataset as a semicolon separated file with
// decimal commas.
func WriteSampleCSV(t *testing.T, dir string) string {
	t.Helper()

	path := filepath.Join(dir, "CALIDAD.csv")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := csv.NewWriter(f)
	w.Comma = ';'
	require.NoError(t, w.Write(ReadingsHeader))
	for _, r := range SampleReadings() {
		record := []string{r.Timestamp.Format("2006-01-02 15:04:05"), r.Station}
		for _, v := range r.Values() {
			record = append(record, DecimalComma(v))
		}
		require.NoError(t, w.Write(record))
	}
	w.Flush()
	require.NoError(t, w.Error())
	return path
}

// ReportTemplate references every report placeholder once and carries CSS
// braces escaped as {{ and }}.
const ReportTemplate = `<!DOCTYPE html>
<html lang="es">
<head>
<meta charset="utf-8">
<title>Reporte de calidad del aire</title>
<style>body {{ font-family: sans-serif; }}</style>
</head>
<body>
<h1>Reporte de calidad del aire</h1>
<h2>Primeros registros</h2>
{head10_table}
<h2>Estaciones</h2>
<p>{estaciones}</p>
{conteo_table}
<h2>Promedios globales</h2>
{prom_table}
<h2>Máxima contaminación total</h2>
<p>Fecha: {max_fecha}</p>
<p>Estación: {max_estacion}</p>
<p>Valor: {max_valor}</p>
<img src="bar_promedio_pm25_mensual.png">
<img src="line_pm10_estacion_critica.png">
<img src="pie_alertas_estacion.png">
<img src="heatmap_correlacion.png">
</body>
</html>
`

// WriteReportTemplate writes ReportTemplate to dir/template.html.
func WriteReportTemplate(t *testing.T, dir string) string {
	t.Helper()

	path := filepath.Join(dir, "template.html")
	require.NoError(t, os.WriteFile(path, []byte(ReportTemplate), 0644))
	return path
}
