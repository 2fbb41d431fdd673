package exporter

import (
	"log/slog"

	"github.com/Dokarii/TercerMomento/internal/config"
	"github.com/Dokarii/TercerMomento/internal/dataprocessing"
	"github.com/Dokarii/TercerMomento/pkg/contracts/domain"
)

// AggregateExporter writes the aggregates the HTML report leaves out, the
// daily PM means with their alert flag and the monthly NO2/O3 means, as
// spreadsheet-friendly CSV (';' separated, decimal comma).
type AggregateExporter struct {
	writer *CSVWriter
	logger *slog.Logger
}

// NewAggregateExporter creates an exporter writing into paths.OutputDir.
func NewAggregateExporter(paths *config.Paths, logger *slog.Logger) *AggregateExporter {
	w := NewCSVWriter(paths, logger)
	return &AggregateExporter{writer: w, logger: w.logger}
}

// ExportAll writes both aggregate files and returns their paths.
func (e *AggregateExporter) ExportAll(agg *dataprocessing.Aggregates) ([]string, error) {
	daily, err := e.ExportDailyMeans(agg.DailyMeans, agg.Threshold)
	if err != nil {
		return nil, err
	}
	monthly, err := e.ExportMonthlyMeans(agg.MonthlyByNO2)
	if err != nil {
		return []string{daily}, err
	}
	return []string{daily, monthly}, nil
}

// ExportDailyMeans writes one row per day with the PM2.5 and PM10 means and
// whether the PM2.5 mean exceeds threshold.
func (e *AggregateExporter) ExportDailyMeans(daily []dataprocessing.DailyMean, threshold float64) (string, error) {
	records := make([][]string, len(daily))
	for i, d := range daily {
		alert := "no"
		if d.PM25 > threshold {
			alert = "si"
		}
		records[i] = []string{
			formatDate(d.Date),
			formatDecimalComma(d.PM25),
			formatDecimalComma(d.PM10),
			alert,
		}
	}

	path, err := e.write(config.DailyMeansCSVName, []string{
		domain.ColumnDate, string(domain.PM25), string(domain.PM10), "Alerta",
	}, records)
	if err != nil {
		return "", err
	}
	e.logger.Info("Daily means exported", slog.String("path", path), slog.Int("days", len(daily)))
	return path, nil
}

// ExportMonthlyMeans writes the monthly NO2 and O3 means per station in the
// order given.
func (e *AggregateExporter) ExportMonthlyMeans(monthly []dataprocessing.MonthlyMean) (string, error) {
	records := make([][]string, len(monthly))
	for i, m := range monthly {
		records[i] = []string{
			m.Month.String(),
			m.Station,
			formatDecimalComma(m.NO2),
			formatDecimalComma(m.O3),
		}
	}

	path, err := e.write(config.MonthlyMeansCSVName, []string{
		domain.ColumnMonth, domain.ColumnStation, string(domain.NO2), string(domain.O3),
	}, records)
	if err != nil {
		return "", err
	}
	e.logger.Info("Monthly means exported", slog.String("path", path), slog.Int("groups", len(monthly)))
	return path, nil
}

func (e *AggregateExporter) write(name string, headers []string, records [][]string) (string, error) {
	return e.writer.WriteCSV(name, WriteOptions{
		Headers:   headers,
		Records:   records,
		Separator: ';',
		BOMPrefix: true,
	})
}
