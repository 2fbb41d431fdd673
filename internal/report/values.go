package report

import (
	"fmt"
	"strings"

	"github.com/Dokarii/TercerMomento/internal/config"
	"github.com/Dokarii/TercerMomento/internal/dataprocessing"
	apperrors "github.com/Dokarii/TercerMomento/internal/errors"
	"github.com/Dokarii/TercerMomento/internal/exporter"
	"github.com/Dokarii/TercerMomento/pkg/contracts/domain"
)

// Report placeholders.
const (
	PlaceholderHead       = "head10_table"
	PlaceholderStations   = "estaciones"
	PlaceholderCounts     = "conteo_table"
	PlaceholderMeans      = "prom_table"
	PlaceholderMaxDate    = "max_fecha"
	PlaceholderMaxStation = "max_estacion"
	PlaceholderMaxValue   = "max_valor"
)

// Placeholders lists every name BuildValues provides.
func Placeholders() []string {
	return []string{
		PlaceholderHead,
		PlaceholderStations,
		PlaceholderCounts,
		PlaceholderMeans,
		PlaceholderMaxDate,
		PlaceholderMaxStation,
		PlaceholderMaxValue,
	}
}

// ValueOptions controls table formatting.
type ValueOptions struct {
	HeadRows int
	Classes  []string
}

// BuildValues maps each report placeholder to its text. table is the derived
// table shown in the head table; agg must come from the same table.
func BuildValues(table *domain.Table, agg *dataprocessing.Aggregates, opts ValueOptions) (map[string]string, error) {
	if table == nil || agg == nil {
		return nil, apperrors.NewTemplateError("no data for report values", apperrors.ErrNoData)
	}
	if opts.HeadRows <= 0 {
		opts.HeadRows = config.DefaultHeadRows
	}

	top := agg.MaxTotal
	return map[string]string{
		PlaceholderHead:       exporter.Head(table, opts.HeadRows, opts.Classes...),
		PlaceholderStations:   strings.Join(agg.Stations, ", "),
		PlaceholderCounts:     exporter.StationCountsTable(agg.StationCounts, opts.Classes...),
		PlaceholderMeans:      exporter.GlobalMeansTable(agg.GlobalMeans, opts.Classes...),
		PlaceholderMaxDate:    top.Reading.Timestamp.Format(config.TimestampLayout),
		PlaceholderMaxStation: top.Reading.Station,
		PlaceholderMaxValue:   fmt.Sprintf("%.2f", top.Total),
	}, nil
}
