package charts

import (
	"math"
	"sort"

	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/Dokarii/TercerMomento/internal/config"
	"github.com/Dokarii/TercerMomento/internal/dataprocessing"
	apperrors "github.com/Dokarii/TercerMomento/internal/errors"
	"github.com/Dokarii/TercerMomento/pkg/contracts/domain"
)

// RenderMonthlyPM25Bar draws the grouped bar chart of monthly PM2.5 means,
// one bar per station in each month.
func (r *Renderer) RenderMonthlyPM25Bar(agg *dataprocessing.Aggregates) (string, error) {
	const chart = config.BarChartFileName
	if len(agg.MonthlyPM25) == 0 {
		return "", noData(chart, "no monthly PM2.5 means")
	}

	months, stations, grid := pivotMonthly(agg.MonthlyPM25)

	p := newPlot("Promedio mensual de PM2.5 por estación")
	p.X.Label.Text = "Mes"
	p.Y.Label.Text = "PM2.5 (µg/m³)"
	p.Legend.Top = true
	p.Legend.Left = false

	// Bars of one month share 80% of the slot width.
	slot := (barSize.w * 0.7) / vg.Length(len(months))
	width := slot * 0.8 / vg.Length(len(stations))
	for i, station := range stations {
		bars, err := plotter.NewBarChart(grid[i], width)
		if err != nil {
			return "", apperrors.NewRenderingError("failed to build bar series", err).
				WithContext("station", station)
		}
		bars.Color = plotutil.Color(i)
		bars.LineStyle.Width = 0
		bars.Offset = (vg.Length(i) - vg.Length(len(stations)-1)/2) * width
		p.Add(bars)
		p.Legend.Add(station, bars)
	}

	labels := make([]string, len(months))
	for i, m := range months {
		labels[i] = m.String()
	}
	p.NominalX(labels...)
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter
	p.Y.Min = 0
	p.Add(plotter.NewGrid())

	return r.write(chart, barSize, drawPlot(p))
}

// pivotMonthly arranges monthly means as one value slice per station,
// indexed by month. Months and stations are sorted; absent or missing means
// are drawn as empty bars.
func pivotMonthly(means []dataprocessing.MonthlyStationMean) ([]domain.Month, []string, []plotter.Values) {
	monthIdx := make(map[domain.Month]int)
	stationIdx := make(map[string]int)
	var months []domain.Month
	var stations []string
	for _, m := range means {
		if _, ok := monthIdx[m.Month]; !ok {
			monthIdx[m.Month] = -1
			months = append(months, m.Month)
		}
		if _, ok := stationIdx[m.Station]; !ok {
			stationIdx[m.Station] = -1
			stations = append(stations, m.Station)
		}
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })
	sort.Strings(stations)
	for i, m := range months {
		monthIdx[m] = i
	}
	for i, s := range stations {
		stationIdx[s] = i
	}

	grid := make([]plotter.Values, len(stations))
	for i := range grid {
		grid[i] = make(plotter.Values, len(months))
	}
	for _, m := range means {
		if math.IsNaN(m.PM25) {
			continue
		}
		grid[stationIdx[m.Station]][monthIdx[m.Month]] = m.PM25
	}
	return months, stations, grid
}
