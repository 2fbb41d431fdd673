package exporter

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/Dokarii/TercerMomento/internal/config"
	"github.com/Dokarii/TercerMomento/pkg/contracts/domain"
)

// formatFloat writes the shortest representation that round-trips, so 13.40
// appears as 13.4 and 100.0 as 100. Missing values appear as NaN.
func formatFloat(f float64) string {
	if math.IsNaN(f) {
		return "NaN"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatDecimalComma is formatFloat with a comma decimal separator, the
// convention of the input spreadsheets. Missing values are empty.
func formatDecimalComma(f float64) string {
	if math.IsNaN(f) {
		return ""
	}
	return strings.Replace(formatFloat(f), ".", ",", 1)
}

// formatInt formats an integer count
func formatInt(i int) string {
	return strconv.Itoa(i)
}

func formatTimestamp(t time.Time) string {
	return t.Format(config.TimestampLayout)
}

func formatDate(t time.Time) string {
	return t.Format(config.DateLayout)
}

// cellValue renders one column of a reading the way it appears in the head
// table. Unknown columns fall back to the reading's extra values.
func cellValue(r domain.Reading, column string) string {
	switch column {
	case domain.ColumnTimestamp:
		return formatTimestamp(r.Timestamp)
	case domain.ColumnStation:
		return r.Station
	case string(domain.PM25):
		return formatFloat(r.PM25)
	case string(domain.PM10):
		return formatFloat(r.PM10)
	case string(domain.NO2):
		return formatFloat(r.NO2)
	case string(domain.O3):
		return formatFloat(r.O3)
	case domain.ColumnDate:
		return formatDate(r.Date)
	case domain.ColumnMonth:
		return r.Month.String()
	case domain.ColumnTotal:
		return formatFloat(r.Total())
	}
	return r.Extra[column]
}
