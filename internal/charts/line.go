package charts

import (
	"fmt"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/Dokarii/TercerMomento/internal/config"
	"github.com/Dokarii/TercerMomento/internal/dataprocessing"
	apperrors "github.com/Dokarii/TercerMomento/internal/errors"
)

// RenderCriticalPM10Line draws the daily PM10 mean of the critical station.
// Days without a PM10 value are skipped.
func (r *Renderer) RenderCriticalPM10Line(agg *dataprocessing.Aggregates) (string, error) {
	p, err := pm10LinePlot(agg)
	if err != nil {
		return "", err
	}
	return r.write(config.LineChartFileName, lineSize, drawPlot(p))
}

// pm10LinePlot builds the line chart with dates slanted under the axis.
func pm10LinePlot(agg *dataprocessing.Aggregates) (*plot.Plot, error) {
	const chart = config.LineChartFileName

	pts := make(plotter.XYs, 0, len(agg.CriticalPM10))
	for _, d := range agg.CriticalPM10 {
		if math.IsNaN(d.Value) {
			continue
		}
		pts = append(pts, plotter.XY{X: float64(d.Date.Unix()), Y: d.Value})
	}
	if len(pts) == 0 {
		return nil, noData(chart, fmt.Sprintf("no PM10 series for station %q", agg.CriticalStation))
	}

	p := newPlot(fmt.Sprintf("Serie diaria de PM10 - Estación %s", agg.CriticalStation))
	p.X.Label.Text = "Fecha"
	p.Y.Label.Text = "PM10 (µg/m³)"
	p.X.Tick.Marker = plot.TimeTicks{Format: config.DateLayout}
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter

	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return nil, apperrors.NewRenderingError("failed to build PM10 series", err)
	}
	line.Color = plotutil.Color(0)
	line.Width = vg.Points(1.5)
	points.Color = plotutil.Color(0)
	points.Shape = plotutil.Shape(0)

	p.Add(plotter.NewGrid(), line, points)
	return p, nil
}
