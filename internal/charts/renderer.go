package charts

import (
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/font"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/Dokarii/TercerMomento/internal/dataprocessing"
	apperrors "github.com/Dokarii/TercerMomento/internal/errors"
)

// DPI is the resolution of every chart.
const DPI = 100

// Figure sizes in inches.
var (
	barSize     = size{12 * vg.Inch, 6 * vg.Inch}
	lineSize    = size{12 * vg.Inch, 6 * vg.Inch}
	pieSize     = size{8 * vg.Inch, 8 * vg.Inch}
	heatmapSize = size{8 * vg.Inch, 6 * vg.Inch}
)

type size struct {
	w, h vg.Length
}

// Renderer draws the report charts into a directory using fixed file names.
type Renderer struct {
	outputDir string
	logger    *slog.Logger
}

// NewRenderer creates a renderer writing into outputDir.
func NewRenderer(outputDir string, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{
		outputDir: outputDir,
		logger:    logger.With(slog.String("component", "charts")),
	}
}

// RenderAll draws the four charts in order and returns their paths. The
// first failure aborts the remaining charts.
func (r *Renderer) RenderAll(agg *dataprocessing.Aggregates) ([]string, error) {
	if agg == nil {
		return nil, apperrors.NewRenderingError("no aggregates to plot", apperrors.ErrNoData)
	}

	steps := []func(*dataprocessing.Aggregates) (string, error){
		r.RenderMonthlyPM25Bar,
		r.RenderCriticalPM10Line,
		r.RenderAlertPie,
		r.RenderCorrelationHeatmap,
	}

	paths := make([]string, 0, len(steps))
	for _, render := range steps {
		path, err := render(agg)
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// write draws onto a fresh image canvas and encodes it as PNG into name.
// The file handle is closed on every path, and a panic raised while
// drawing is returned as a rendering error.
func (r *Renderer) write(name string, sz size, drawFn func(draw.Canvas) error) (path string, err error) {
	start := time.Now()
	path = filepath.Join(r.outputDir, name)

	defer func() {
		if rec := recover(); rec != nil {
			path = ""
			err = apperrors.NewRenderingError(fmt.Sprintf("failed to draw %s", name), fmt.Errorf("%v", rec)).
				WithContext("chart", name)
		}
	}()

	canvas := vgimg.NewWith(vgimg.UseWH(sz.w, sz.h), vgimg.UseDPI(DPI))
	if err := drawFn(draw.New(canvas)); err != nil {
		return "", err
	}

	f, err := os.Create(path)
	if err != nil {
		return "", apperrors.NewRenderingError(fmt.Sprintf("failed to create %s", path), err).
			WithContext("chart", name)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = apperrors.NewRenderingError(fmt.Sprintf("failed to close %s", path), cerr)
		}
	}()

	if _, err := (vgimg.PngCanvas{Canvas: canvas}).WriteTo(f); err != nil {
		return "", apperrors.NewRenderingError(fmt.Sprintf("failed to encode %s", path), err).
			WithContext("chart", name)
	}

	r.logger.Info("Chart written",
		slog.String("file", path),
		slog.Duration("duration", time.Since(start)))
	return path, nil
}

// drawPlot is the drawFn for charts made of a single plot.
func drawPlot(p *plot.Plot) func(draw.Canvas) error {
	return func(dc draw.Canvas) error {
		p.Draw(dc)
		return nil
	}
}

func newPlot(title string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.Title.Padding = vg.Points(8)
	return p
}

func textStyle(pt float64) text.Style {
	return text.Style{
		Color:   color.Black,
		Font:    font.From(plot.DefaultFont, vg.Points(pt)),
		Handler: plot.DefaultTextHandler,
		XAlign:  draw.XCenter,
		YAlign:  draw.YCenter,
	}
}

func noData(chart, what string) error {
	return apperrors.NewRenderingError(fmt.Sprintf("%s: %s", chart, what), apperrors.ErrNoData).
		WithContext("chart", chart)
}

