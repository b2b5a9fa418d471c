// Package report renders training history and evaluation results as SVG plots.
package report

import (
	"bytes"
	"strconv"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/vicky722/headstart/nnet"
	"github.com/vicky722/headstart/stats"
)

// LossPlot renders the training and validation loss per epoch as an SVG image
// of w x h pixels.
func LossPlot(history []nnet.Stats, w, h int) ([]byte, error) {
	plt, err := newPlot("epoch", "loss")
	if err != nil {
		return nil, err
	}
	line := newLinePlot(history, 0, 1)
	plt.Add(line)
	plt.Legend.Add("training loss ", line)
	if len(history) > 0 && len(history[0].Values) > 1 {
		line = newLinePlot(history, 1, 1)
		plt.Add(line)
		plt.Legend.Add("validation loss ", line)
	}
	return writePlot(plt, w, h)
}

// ErrorPlot renders the validation error percentage per epoch.
func ErrorPlot(history []nnet.Stats, w, h int) ([]byte, error) {
	plt, err := newPlot("epoch", "error %")
	if err != nil {
		return nil, err
	}
	if len(history) > 0 && len(history[0].Values) > 2 {
		line := newLinePlot(history, 2, 100)
		plt.Add(line)
		plt.Legend.Add("validation error % ", line)
	}
	if len(history) > 0 && len(history[0].Values) > 3 {
		line := newLinePlot(history, 3, 100)
		plt.Add(line)
		plt.Legend.Add("avg error % ", line)
	}
	return writePlot(plt, w, h)
}

// ConfusionPlot renders the confusion matrix as a heat map with the class names
// as axis tick labels: rows are the actual class, columns the predicted class,
// and each cell is annotated with its count.
func ConfusionPlot(cm *stats.ConfusionMatrix, classes []string, w, h int) ([]byte, error) {
	if len(classes) != cm.NumClasses {
		return nil, errors.Errorf("report: %d class names for %d classes", len(classes), cm.NumClasses)
	}
	plt, err := newPlot("predicted", "actual")
	if err != nil {
		return nil, err
	}
	grid := confusionGrid{cm: cm}
	plt.Add(plotter.NewHeatMap(grid, palette.Heat(12, 1)))
	labels, err := cellLabels(cm)
	if err != nil {
		return nil, err
	}
	plt.Add(labels)
	plt.X.Tick.Marker = classTicks(classes)
	plt.Y.Tick.Marker = reverseTicks(classes)
	return writePlot(plt, w, h)
}

func newPlot(xlabel, ylabel string) (*plot.Plot, error) {
	p, err := plot.New()
	if err != nil {
		return nil, errors.Wrap(err, "report: creating plot")
	}
	fontSmall, err := vg.MakeFont("Helvetica", 10)
	if err != nil {
		return nil, errors.Wrap(err, "report: loading font")
	}
	fontMedium, err := vg.MakeFont("Helvetica", 12)
	if err != nil {
		return nil, errors.Wrap(err, "report: loading font")
	}
	p.X.Padding, p.Y.Padding = 0, 0
	p.X.Label.Text = xlabel
	p.Y.Label.Text = ylabel
	p.X.Tick.Label.Font = fontSmall
	p.Y.Tick.Label.Font = fontSmall
	p.Legend.Top = true
	p.Legend.Font = fontMedium
	p.Add(plotter.NewGrid())
	return p, nil
}

// dpi converts the pixel sizes passed by callers to the svg canvas size.
const dpi = 96

func writePlot(p *plot.Plot, w, h int) ([]byte, error) {
	var buf bytes.Buffer
	writer, err := p.WriterTo(vg.Inch*vg.Length(w)/dpi, vg.Inch*vg.Length(h)/dpi, "svg")
	if err != nil {
		return nil, errors.Wrap(err, "report: writing plot")
	}
	if _, err = writer.WriteTo(&buf); err != nil {
		return nil, errors.Wrap(err, "report: writing plot")
	}
	return buf.Bytes(), nil
}

func newLinePlot(history []nnet.Stats, ix int, scale float64) linePlot {
	var pt struct{ X, Y float64 }
	var pts plotter.XYs
	xmax, ymax := 1.0, 0.0
	for _, s := range history {
		pt.X, pt.Y = float64(s.Epoch), s.Values[ix]*scale
		pts = append(pts, pt)
		if pt.X > xmax {
			xmax = pt.X
		}
		if pt.Y > ymax {
			ymax = pt.Y
		}
	}
	l, _ := plotter.NewLine(pts)
	l.Width = 2
	l.Color = plotutil.Color(ix)
	return linePlot{Line: l, xmin: 1, xmax: xmax, ymin: 0, ymax: ymax}
}

// modified plotter.Line with a fixed scale
type linePlot struct {
	*plotter.Line
	xmin, xmax, ymin, ymax float64
}

func (l linePlot) DataRange() (xmin, xmax, ymin, ymax float64) {
	return l.xmin, l.xmax, l.ymin, l.ymax
}

// confusionGrid adapts a confusion matrix to the plotter.GridXYZ interface.
// Rows are drawn top down so that actual class 0 appears in the top row.
type confusionGrid struct {
	cm *stats.ConfusionMatrix
}

func (g confusionGrid) Dims() (c, r int) { return g.cm.NumClasses, g.cm.NumClasses }

func (g confusionGrid) X(c int) float64 { return float64(c) }

func (g confusionGrid) Y(r int) float64 { return float64(r) }

func (g confusionGrid) Z(c, r int) float64 {
	return float64(g.cm.Matrix[g.cm.NumClasses-1-r][c])
}

func cellLabels(cm *stats.ConfusionMatrix) (*plotter.Labels, error) {
	var l plotter.XYLabels
	n := cm.NumClasses
	for row := 0; row < n; row++ {
		for col := 0; col < n; col++ {
			l.XYs = append(l.XYs, plotter.XY{X: float64(col), Y: float64(n - 1 - row)})
			l.Labels = append(l.Labels, strconv.Itoa(cm.Matrix[row][col]))
		}
	}
	labels, err := plotter.NewLabels(l)
	if err != nil {
		return nil, errors.Wrap(err, "report: confusion labels")
	}
	return labels, nil
}

// classTicks labels integer axis positions with class names.
type classTicks []string

func (t classTicks) Ticks(min, max float64) []plot.Tick {
	ticks := make([]plot.Tick, len(t))
	for i, name := range t {
		ticks[i] = plot.Tick{Value: float64(i), Label: name}
	}
	return ticks
}

// reverseTicks labels the y axis with class names, first class on top.
type reverseTicks []string

func (t reverseTicks) Ticks(min, max float64) []plot.Tick {
	ticks := make([]plot.Tick, len(t))
	for i, name := range t {
		ticks[i] = plot.Tick{Value: float64(len(t) - 1 - i), Label: name}
	}
	return ticks
}
