package charts

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/Dokarii/TercerMomento/internal/config"
	"github.com/Dokarii/TercerMomento/internal/dataprocessing"
	apperrors "github.com/Dokarii/TercerMomento/internal/errors"
)

const (
	correlationMin = -1.0
	correlationMax = 1.0
	paletteColors  = 255
	colorBarWidth  = 1.1 * vg.Inch
)

// RenderCorrelationHeatmap draws the annotated pollutant correlation matrix
// on a fixed -1..1 blue to red scale, with a colour bar on the right.
func (r *Renderer) RenderCorrelationHeatmap(agg *dataprocessing.Aggregates) (string, error) {
	const chart = config.HeatmapFileName

	corr := agg.Correlation
	n := len(corr.Labels)
	if n == 0 || len(corr.Values) != n {
		return "", noData(chart, "empty correlation matrix")
	}

	cmap := moreland.SmoothBlueRed()
	cmap.SetMin(correlationMin)
	cmap.SetMax(correlationMax)

	grid := correlationGrid{corr: corr}
	pal := cmap.Palette(paletteColors)
	heat := plotter.NewHeatMap(grid, pal)
	heat.Min = correlationMin
	heat.Max = correlationMax
	heat.NaN = color.Gray{Y: 200}
	colors := pal.Colors()
	heat.Underflow = colors[0]
	heat.Overflow = colors[len(colors)-1]

	labels, err := annotations(grid)
	if err != nil {
		return "", apperrors.NewRenderingError("failed to annotate correlation matrix", err)
	}

	names := make([]string, n)
	for i, l := range corr.Labels {
		names[i] = string(l)
	}
	rows := make([]string, n)
	for i := range names {
		rows[i] = names[n-1-i]
	}

	p := newPlot("Matriz de Correlación de Contaminantes")
	p.Add(heat, labels)
	p.NominalX(names...)
	p.NominalY(rows...)
	p.X.Padding = 0
	p.Y.Padding = 0

	bar := plot.New()
	bar.HideX()
	bar.Y.Padding = 0
	bar.Title.Text = " "
	bar.Title.Padding = p.Title.Padding
	bar.Title.TextStyle.Font.Size = p.Title.TextStyle.Font.Size
	bar.Add(&plotter.ColorBar{ColorMap: cmap, Vertical: true})

	return r.write(chart, heatmapSize, func(dc draw.Canvas) error {
		width := dc.Max.X - dc.Min.X
		p.Draw(draw.Crop(dc, 0, -colorBarWidth, 0, 0))
		bar.Draw(draw.Crop(dc, width-colorBarWidth+vg.Points(20), -vg.Points(10), vg.Points(30), 0))
		return nil
	})
}

// correlationGrid exposes a correlation matrix as a heat map grid with the
// first label in the top row.
type correlationGrid struct {
	corr dataprocessing.Correlation
}

func (g correlationGrid) Dims() (c, r int) {
	n := len(g.corr.Labels)
	return n, n
}

func (g correlationGrid) Z(c, r int) float64 {
	n := len(g.corr.Labels)
	return g.corr.Values[n-1-r][c]
}

func (g correlationGrid) X(c int) float64 { return float64(c) }
func (g correlationGrid) Y(r int) float64 { return float64(r) }

// annotations writes each coefficient with two decimals in its cell.
// Undefined coefficients are left blank.
func annotations(g correlationGrid) (*plotter.Labels, error) {
	c, r := g.Dims()
	xyl := plotter.XYLabels{
		XYs:    make(plotter.XYs, 0, c*r),
		Labels: make([]string, 0, c*r),
	}
	for i := 0; i < c; i++ {
		for j := 0; j < r; j++ {
			v := g.Z(i, j)
			label := ""
			if !math.IsNaN(v) {
				label = fmt.Sprintf("%.2f", v)
			}
			xyl.XYs = append(xyl.XYs, plotter.XY{X: g.X(i), Y: g.Y(j)})
			xyl.Labels = append(xyl.Labels, label)
		}
	}

	labels, err := plotter.NewLabels(xyl)
	if err != nil {
		return nil, err
	}
	for i := range labels.TextStyle {
		labels.TextStyle[i] = textStyle(12)
		if v := g.Z(i/r, i%r); !math.IsNaN(v) && math.Abs(v) > 0.6 {
			labels.TextStyle[i].Color = color.White
		}
	}
	return labels, nil
}
