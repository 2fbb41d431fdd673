package exporter

import (
	"html"
	"strings"

	"github.com/Dokarii/TercerMomento/internal/config"
	"github.com/Dokarii/TercerMomento/internal/dataprocessing"
	"github.com/Dokarii/TercerMomento/pkg/contracts/domain"
)

// Column headers of the summary tables.
const (
	HeaderStation   = "Estacion"
	HeaderCount     = "Conteo"
	HeaderPollutant = "Contaminante"
	HeaderMean      = "Promedio"
)

// HTMLTable renders headers and rows as an HTML table fragment without an
// index column. The table always carries the "dataframe" class followed by
// classes, or config.DefaultTableClasses when none are given. Cell text is
// escaped; the output is byte-for-byte stable for the same input.
func HTMLTable(headers []string, rows [][]string, classes ...string) string {
	if len(classes) == 0 {
		classes = []string{config.DefaultTableClasses}
	}

	var b strings.Builder
	b.WriteString(`<table border="1" class="`)
	b.WriteString(html.EscapeString(strings.Join(append([]string{"dataframe"}, classes...), " ")))
	b.WriteString("\">\n")

	b.WriteString("  <thead>\n")
	b.WriteString("    <tr style=\"text-align: right;\">\n")
	for _, h := range headers {
		writeCell(&b, "th", h)
	}
	b.WriteString("    </tr>\n")
	b.WriteString("  </thead>\n")

	b.WriteString("  <tbody>\n")
	for _, row := range rows {
		b.WriteString("    <tr>\n")
		for i := range headers {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			writeCell(&b, "td", cell)
		}
		b.WriteString("    </tr>\n")
	}
	b.WriteString("  </tbody>\n")
	b.WriteString("</table>")

	return b.String()
}

func writeCell(b *strings.Builder, tag, text string) {
	b.WriteString("      <")
	b.WriteString(tag)
	b.WriteString(">")
	b.WriteString(html.EscapeString(text))
	b.WriteString("</")
	b.WriteString(tag)
	b.WriteString(">\n")
}

// Head renders the first n readings with every column of the table, in
// table column order.
func Head(t *domain.Table, n int, classes ...string) string {
	if n > t.Len() {
		n = t.Len()
	}
	if n < 0 {
		n = 0
	}

	rows := make([][]string, n)
	for i, r := range t.Readings[:n] {
		row := make([]string, len(t.Columns))
		for j, c := range t.Columns {
			row[j] = cellValue(r, c)
		}
		rows[i] = row
	}
	return HTMLTable(t.Columns, rows, classes...)
}

// StationCountsTable renders per-station row counts in the given order.
func StationCountsTable(counts []dataprocessing.StationCount, classes ...string) string {
	rows := make([][]string, len(counts))
	for i, c := range counts {
		rows[i] = []string{c.Station, formatInt(c.Count)}
	}
	return HTMLTable([]string{HeaderStation, HeaderCount}, rows, classes...)
}

// GlobalMeansTable renders the dataset-wide mean of each pollutant.
func GlobalMeansTable(means []dataprocessing.PollutantMean, classes ...string) string {
	rows := make([][]string, len(means))
	for i, m := range means {
		rows[i] = []string{string(m.Pollutant), formatFloat(m.Mean)}
	}
	return HTMLTable([]string{HeaderPollutant, HeaderMean}, rows, classes...)
}
