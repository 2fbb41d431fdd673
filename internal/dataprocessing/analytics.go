package dataprocessing

import (
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	apperrors "github.com/Dokarii/TercerMomento/internal/errors"
	"github.com/Dokarii/TercerMomento/pkg/contracts/domain"
)

// Aggregator computes every aggregate view of a derived table.
type Aggregator struct {
	threshold float64
}

// NewAggregator creates an aggregator that flags PM2.5 values strictly above
// threshold.
func NewAggregator(threshold float64) *Aggregator {
	return &Aggregator{threshold: threshold}
}

// Threshold returns the PM2.5 alert threshold.
func (a *Aggregator) Threshold() float64 {
	return a.threshold
}

// Aggregate builds all views from t. The table must have been through
// DeriveFeatures. The input is never modified; filtered views are copies.
func (a *Aggregator) Aggregate(t *domain.Table) (*Aggregates, error) {
	if t.Len() == 0 {
		return nil, apperrors.NewAggregationError("no readings to aggregate", apperrors.ErrEmptyDataset)
	}
	if !t.Derived {
		return nil, apperrors.NewAggregationError("readings have no derived date columns", nil)
	}

	global, err := GlobalMeans(t)
	if err != nil {
		return nil, err
	}

	daily, err := DailyMeans(t)
	if err != nil {
		return nil, err
	}
	monthly, err := MonthlyMeans(t)
	if err != nil {
		return nil, err
	}
	monthlyPM25, err := MonthlyPM25(t)
	if err != nil {
		return nil, err
	}

	critical, err := CriticalStation(t)
	if err != nil {
		return nil, err
	}
	criticalRows := FilterStation(t, critical)
	criticalPM10, err := DailyPM10(criticalRows)
	if err != nil {
		return nil, err
	}

	maxTotal, err := MaxTotalRow(t)
	if err != nil {
		return nil, err
	}

	alerts := RowAlerts(t, a.threshold)

	return &Aggregates{
		Threshold:        a.threshold,
		Rows:             t.Len(),
		Stations:         DistinctStations(t),
		StationCounts:    StationCounts(t),
		DailyMeans:       daily,
		DailyAlerts:      DailyAlerts(daily, a.threshold),
		MonthlyMeans:     monthly,
		MonthlyByNO2:     SortByNO2Desc(monthly),
		MonthlyPM25:      monthlyPM25,
		CriticalStation:  critical,
		CriticalReadings: criticalRows,
		CriticalPM10:     criticalPM10,
		RowAlerts:        alerts,
		AlertCounts:      StationCounts(alerts),
		Correlation:      CorrelationMatrix(t),
		GlobalMeans:      global,
		MaxTotal:         maxTotal,
	}, nil
}

// DistinctStations returns station names in order of first appearance.
func DistinctStations(t *domain.Table) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range t.Readings {
		if !seen[r.Station] {
			seen[r.Station] = true
			out = append(out, r.Station)
		}
	}
	return out
}

// StationCounts counts rows per station, largest first. Ties keep the order
// of first appearance.
func StationCounts(t *domain.Table) []StationCount {
	counts := make(map[string]int)
	for _, r := range t.Readings {
		counts[r.Station]++
	}

	stations := DistinctStations(t)
	out := make([]StationCount, 0, len(stations))
	for _, s := range stations {
		out = append(out, StationCount{Station: s, Count: counts[s]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	return out
}

// DailyMeans averages PM2.5 and PM10 per calendar date, ascending.
func DailyMeans(t *domain.Table) ([]DailyMean, error) {
	if err := requireDerived(t, domain.ColumnDate); err != nil {
		return nil, err
	}

	groups := make(map[time.Time][]domain.Reading)
	for _, r := range t.Readings {
		groups[r.Date] = append(groups[r.Date], r)
	}

	out := make([]DailyMean, 0, len(groups))
	for _, day := range sortedDates(groups) {
		rows := groups[day]
		out = append(out, DailyMean{
			Date: day,
			PM25: nanMean(values(rows, domain.PM25)),
			PM10: nanMean(values(rows, domain.PM10)),
		})
	}
	return out, nil
}

// DailyAlerts returns the days whose mean PM2.5 is strictly above threshold.
func DailyAlerts(daily []DailyMean, threshold float64) []DailyMean {
	var out []DailyMean
	for _, d := range daily {
		if d.PM25 > threshold {
			out = append(out, d)
		}
	}
	return out
}

type monthStation struct {
	month   domain.Month
	station string
}

func groupByMonthStation(t *domain.Table) ([]monthStation, map[monthStation][]domain.Reading) {
	groups := make(map[monthStation][]domain.Reading)
	for _, r := range t.Readings {
		k := monthStation{month: r.Month, station: r.Station}
		groups[k] = append(groups[k], r)
	}

	keys := make([]monthStation, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].month != keys[j].month {
			return keys[i].month.Before(keys[j].month)
		}
		return keys[i].station < keys[j].station
	})
	return keys, groups
}

// MonthlyMeans averages NO2 and O3 per (month, station), ordered by month
// then station name.
func MonthlyMeans(t *domain.Table) ([]MonthlyMean, error) {
	if err := requireDerived(t, domain.ColumnMonth); err != nil {
		return nil, err
	}

	keys, groups := groupByMonthStation(t)
	out := make([]MonthlyMean, 0, len(keys))
	for _, k := range keys {
		rows := groups[k]
		out = append(out, MonthlyMean{
			Month:   k.month,
			Station: k.station,
			NO2:     nanMean(values(rows, domain.NO2)),
			O3:      nanMean(values(rows, domain.O3)),
		})
	}
	return out, nil
}

// SortByNO2Desc returns a copy of m ordered by NO2, highest first. Missing
// means sort last; equal values keep their relative order.
func SortByNO2Desc(m []MonthlyMean) []MonthlyMean {
	out := append([]MonthlyMean(nil), m...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].NO2, out[j].NO2
		if math.IsNaN(b) {
			return !math.IsNaN(a)
		}
		return a > b
	})
	return out
}

// MonthlyPM25 averages PM2.5 per (month, station).
func MonthlyPM25(t *domain.Table) ([]MonthlyStationMean, error) {
	if err := requireDerived(t, domain.ColumnMonth); err != nil {
		return nil, err
	}

	keys, groups := groupByMonthStation(t)
	out := make([]MonthlyStationMean, 0, len(keys))
	for _, k := range keys {
		out = append(out, MonthlyStationMean{
			Month:   k.month,
			Station: k.station,
			PM25:    nanMean(values(groups[k], domain.PM25)),
		})
	}
	return out, nil
}

// CriticalStation returns the station with the highest mean PM2.5. Stations
// are compared in name order and the first maximum wins.
func CriticalStation(t *domain.Table) (string, error) {
	byStation := make(map[string][]float64)
	for _, r := range t.Readings {
		if !math.IsNaN(r.PM25) {
			byStation[r.Station] = append(byStation[r.Station], r.PM25)
		}
	}
	if len(byStation) == 0 {
		return "", apperrors.NewAggregationError(
			fmt.Sprintf("no %s values to rank stations", domain.PM25), apperrors.ErrNoData)
	}

	names := make([]string, 0, len(byStation))
	for s := range byStation {
		names = append(names, s)
	}
	sort.Strings(names)

	means := make([]float64, len(names))
	for i, s := range names {
		means[i] = stat.Mean(byStation[s], nil)
	}
	return names[floats.MaxIdx(means)], nil
}

// FilterStation returns a copy of the rows recorded at station.
func FilterStation(t *domain.Table, station string) *domain.Table {
	return t.Filter(func(r domain.Reading) bool {
		return r.Station == station
	})
}

// DailyPM10 averages PM10 per calendar date, ascending.
func DailyPM10(t *domain.Table) ([]DailyValue, error) {
	daily, err := DailyMeans(t)
	if err != nil {
		return nil, err
	}
	out := make([]DailyValue, len(daily))
	for i, d := range daily {
		out[i] = DailyValue{Date: d.Date, Value: d.PM10}
	}
	return out, nil
}

// RowAlerts returns a copy of the rows whose PM2.5 is strictly above
// threshold.
func RowAlerts(t *domain.Table, threshold float64) *domain.Table {
	return t.Filter(func(r domain.Reading) bool {
		return r.PM25 > threshold
	})
}

// CorrelationMatrix computes Pearson coefficients between the four
// pollutants using, for each pair, only rows where both are present.
func CorrelationMatrix(t *domain.Table) Correlation {
	n := len(domain.Pollutants)
	m := Correlation{
		Labels: append([]domain.Pollutant(nil), domain.Pollutants...),
		Values: make([][]float64, n),
	}
	for i := range m.Values {
		m.Values[i] = make([]float64, n)
	}

	for i, a := range domain.Pollutants {
		for j := i; j < n; j++ {
			b := domain.Pollutants[j]
			var xs, ys []float64
			for _, r := range t.Readings {
				x, y := r.Value(a), r.Value(b)
				if math.IsNaN(x) || math.IsNaN(y) {
					continue
				}
				xs = append(xs, x)
				ys = append(ys, y)
			}
			c := pearson(xs, ys, i == j)
			m.Values[i][j] = c
			m.Values[j][i] = c
		}
	}
	return m
}

func pearson(xs, ys []float64, diagonal bool) float64 {
	if len(xs) < 2 {
		return math.NaN()
	}
	if diagonal {
		if stat.StdDev(xs, nil) > 0 {
			return 1
		}
		return math.NaN()
	}
	c := stat.Correlation(xs, ys, nil)
	if math.IsNaN(c) {
		return c
	}
	// Rounding can push a perfect correlation just past ±1.
	return math.Max(-1, math.Min(1, c))
}

// GlobalMeans averages each pollutant over the whole table. A column with no
// values at all is an error.
func GlobalMeans(t *domain.Table) ([]PollutantMean, error) {
	out := make([]PollutantMean, 0, len(domain.Pollutants))
	for _, p := range domain.Pollutants {
		mean := nanMean(values(t.Readings, p))
		if math.IsNaN(mean) {
			return nil, apperrors.NewAggregationError(
				fmt.Sprintf("column %s has no values", p), apperrors.ErrNoData).
				WithContext("column", string(p))
		}
		out = append(out, PollutantMean{Pollutant: p, Mean: mean})
	}
	return out, nil
}

// MaxTotalRow returns the first reading with the largest total.
func MaxTotalRow(t *domain.Table) (MaxTotal, error) {
	if t.Len() == 0 {
		return MaxTotal{}, apperrors.NewAggregationError("no readings to total", apperrors.ErrEmptyDataset)
	}
	totals := make([]float64, t.Len())
	for i, r := range t.Readings {
		totals[i] = r.Total()
	}
	idx := floats.MaxIdx(totals)
	return MaxTotal{Index: idx, Reading: t.Readings[idx], Total: totals[idx]}, nil
}

func requireDerived(t *domain.Table, column string) error {
	if !t.Derived {
		return apperrors.NewAggregationError(
			fmt.Sprintf("grouping column %s is absent", column), apperrors.ErrMissingColumn).
			WithContext("column", column)
	}
	return nil
}

func values(rows []domain.Reading, p domain.Pollutant) []float64 {
	out := make([]float64, 0, len(rows))
	for _, r := range rows {
		if v := r.Value(p); !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// nanMean is the mean of xs, NaN when xs is empty.
func nanMean(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	return stat.Mean(xs, nil)
}

func sortedDates(groups map[time.Time][]domain.Reading) []time.Time {
	days := make([]time.Time, 0, len(groups))
	for d := range groups {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}
