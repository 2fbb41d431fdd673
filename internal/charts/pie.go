package charts

import (
	"fmt"
	"image/color"
	"math"
	"strconv"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/Dokarii/TercerMomento/internal/config"
	"github.com/Dokarii/TercerMomento/internal/dataprocessing"
)

// pieStartAngle is where the first slice begins, counter-clockwise from the
// positive x axis.
const pieStartAngle = 140 * math.Pi / 180

// RenderAlertPie draws the share of PM2.5 alert rows per station.
func (r *Renderer) RenderAlertPie(agg *dataprocessing.Aggregates) (string, error) {
	const chart = config.PieChartFileName

	pie := &pieChart{start: pieStartAngle}
	for _, c := range agg.AlertCounts {
		if c.Count <= 0 {
			continue
		}
		pie.labels = append(pie.labels, c.Station)
		pie.values = append(pie.values, float64(c.Count))
	}
	if len(pie.values) == 0 {
		return "", noData(chart, "no rows above the PM2.5 threshold")
	}

	threshold := strconv.FormatFloat(agg.Threshold, 'f', -1, 64)
	p := newPlot(fmt.Sprintf("Distribución de días de alerta PM2.5 > %s por estación", threshold))
	p.HideAxes()
	p.Add(pie)

	return r.write(chart, pieSize, drawPlot(p))
}

// pieChart is a plot.Plotter drawing labelled wedges around the centre of
// the data canvas. Slices follow each other counter-clockwise.
type pieChart struct {
	values []float64
	labels []string
	start  float64
}

// Plot implements plot.Plotter.
func (pc *pieChart) Plot(c draw.Canvas, _ *plot.Plot) {
	total := floats.Sum(pc.values)
	center := c.Center()
	radius := 0.4 * min(c.Max.X-c.Min.X, c.Max.Y-c.Min.Y)

	pctStyle := textStyle(12)
	pctStyle.Color = color.White
	outline := draw.LineStyle{Color: color.White, Width: vg.Points(1.5)}

	angle := pc.start
	for i, v := range pc.values {
		sweep := 2 * math.Pi * v / total

		var wedge vg.Path
		wedge.Move(center)
		wedge.Arc(center, radius, angle, sweep)
		wedge.Close()
		c.SetColor(plotutil.Color(i))
		c.Fill(wedge)
		c.SetLineStyle(outline)
		c.Stroke(wedge)

		mid := angle + sweep/2
		c.FillText(pctStyle, polar(center, 0.6*radius, mid), fmt.Sprintf("%.1f%%", 100*v/total))
		c.FillText(labelStyle(mid), polar(center, 1.1*radius, mid), pc.labels[i])

		angle += sweep
	}
}

// labelStyle anchors a station label on the side of the text facing the
// wedge.
func labelStyle(angle float64) text.Style {
	s := textStyle(13)
	switch cos := math.Cos(angle); {
	case cos > 0.1:
		s.XAlign = draw.XLeft
	case cos < -0.1:
		s.XAlign = draw.XRight
	}
	return s
}

func polar(center vg.Point, r vg.Length, angle float64) vg.Point {
	return vg.Point{
		X: center.X + r*vg.Length(math.Cos(angle)),
		Y: center.Y + r*vg.Length(math.Sin(angle)),
	}
}
