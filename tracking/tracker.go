// Package tracking records the losses of a training run: the values of every step, their
// means over each epoch, a plot of those means, and a SQLite copy of everything.
package tracking

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Tracker collects named values. Step values are averaged at the end of each epoch; the
// averages form the series that are plotted.
type Tracker struct {
	// plotted series, in legend order
	plotted []string

	epochs  map[string][]float64
	pending map[string][]float64

	step  int
	epoch int
	store *Store
}

// New returns a tracker that plots the given series. 'store' may be nil.
func New(store *Store, plotted ...string) *Tracker {
	return &Tracker{
		plotted: plotted,
		epochs:  make(map[string][]float64),
		pending: make(map[string][]float64),
		store:   store,
	}
}

// Append records the values of one step
func (t *Tracker) Append(values map[string]float64) error {
	t.step++
	for name, v := range values {
		t.pending[name] = append(t.pending[name], v)
	}

	if t.store != nil {
		return t.store.RecordStep(t.step, values)
	}
	return nil
}

// Means returns the mean of every value appended since the last epoch ended
func (t *Tracker) Means() map[string]float64 {
	means := make(map[string]float64, len(t.pending))
	for name, vs := range t.pending {
		if len(vs) != 0 {
			means[name] = floats.Sum(vs) / float64(len(vs))
		}
	}
	return means
}

// EndEpoch appends the means of the epoch's values to their series and returns them.
// Values given in 'extra' (such as validation losses) are added to the series as they
// are.
func (t *Tracker) EndEpoch(extra map[string]float64) (map[string]float64, error) {
	t.epoch++

	means := t.Means()
	for name, v := range extra {
		means[name] = v
	}

	for name, v := range means {
		t.epochs[name] = append(t.epochs[name], v)
	}
	t.pending = make(map[string][]float64)

	if t.store != nil {
		if err := t.store.RecordEpoch(t.epoch, means); err != nil {
			return means, err
		}
	}
	return means, nil
}

// Series returns the per-epoch values of 'name'
func (t *Tracker) Series(name string) []float64 {
	return t.epochs[name]
}

// Steps returns the number of steps appended so far
func (t *Tracker) Steps() int {
	return t.step
}

// String gives the latest value of each series
func (t *Tracker) String() string {
	names := make([]string, 0, len(t.epochs))
	for name := range t.epochs {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		vs := t.epochs[name]
		parts[i] = fmt.Sprintf("%s: %.6g", name, vs[len(vs)-1])
	}
	return strings.Join(parts, ", ")
}

// Plot draws the plotted series against their epoch and writes the image to 'path'. The
// format is chosen by the file's extension.
func (t *Tracker) Plot(path string) error {
	p := plot.New()
	p.Title.Text = "Losses"
	p.X.Label.Text = "epoch"
	p.Y.Label.Text = "loss"
	p.Legend.Top = true

	for i, name := range t.plotted {
		vs := t.epochs[name]
		if len(vs) == 0 {
			continue
		}

		pts := make(plotter.XYs, 0, len(vs))
		for j, v := range vs {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			pts = append(pts, plotter.XY{X: float64(j + 1), Y: v})
		}
		if len(pts) == 0 {
			continue
		}

		line, err := plotter.NewLine(pts)
		if err != nil {
			return errors.Wrapf(err, "Can't plot %q", name)
		}
		line.Color = plotutil.Color(i)
		line.Dashes = plotutil.Dashes(i)

		p.Add(line)
		p.Legend.Add(name, line)
	}

	if err := p.Save(8*vg.Inch, 5*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "Can't save plot to %q", path)
	}
	return nil
}
