// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package analysis

import (
	"fmt"
	"image/color"
	"math"
	"strconv"

	"github.com/emer/etable/v2/etable"
	"github.com/emer/etable/v2/etensor"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// figure font size, matching the compact published-figure styling
var fontSize = vg.Points(7)

// standard trace / line colors
var (
	blueColor  = color.RGBA{R: 3, G: 67, B: 223, A: 255}  // xkcd blue
	greenColor = color.RGBA{R: 21, G: 176, B: 26, A: 255} // xkcd green
	grayColor  = color.RGBA{R: 128, G: 128, B: 128, A: 255}
	blackColor = color.RGBA{A: 255}
)

// applyStyle sets the compact font sizes on all plot text elements.
func applyStyle(p *plot.Plot) {
	p.Title.TextStyle.Font.Size = fontSize
	p.X.Label.TextStyle.Font.Size = fontSize
	p.Y.Label.TextStyle.Font.Size = fontSize
	p.X.Tick.Label.Font.Size = fontSize
	p.Y.Tick.Label.Font.Size = fontSize
	p.X.Tick.Length = vg.Points(2)
	p.Y.Tick.Length = vg.Points(2)
}

// noTicks removes all tick marks from an axis.
func noTicks(ax *plot.Axis) {
	ax.Tick.Marker = plot.ConstantTicks(nil)
}

// ticksAt places tick marks at exactly the given values, labeled with
// the given strings.
func ticksAt(ax *plot.Axis, vals []float64, labels []string) {
	tks := make([]plot.Tick, len(vals))
	for i, v := range vals {
		lb := ""
		if i < len(labels) {
			lb = labels[i]
		}
		tks[i] = plot.Tick{Value: v, Label: lb}
	}
	ax.Tick.Marker = plot.ConstantTicks(tks)
}

// timeTicks marks 0 and the floor of the maximum time in seconds,
// the x-axis convention of the trace figures.
func timeTicks(ax *plot.Axis, maxSec float64) {
	hi := math.Floor(maxSec + 0.01)
	ticksAt(ax, []float64{0, hi},
		[]string{"0", strconv.FormatFloat(hi, 'g', -1, 64)})
}

// degTicks labels a ring axis at 0 and 360 degrees (and optionally 180).
func degTicks(ax *plot.Axis, n int, mid bool) {
	m := ""
	if mid {
		m = "180°"
	}
	ticksAt(ax, []float64{0, float64(n-1) / 2, float64(n - 1)},
		[]string{"0°", m, "360°"})
}

// TraceTable builds a table of one unit's activity over time with one
// column per condition, for the trace figures: a Time column in seconds
// plus Cond0..CondN-1 columns.  t0 leading timesteps are discarded.
func TraceTable(h *etensor.Float32, t0, unit int, dtMS float32) *etable.Table {
	nt, nc := h.Dim(0), h.Dim(1)
	if t0 > nt {
		t0 = nt
	}
	sch := etable.Schema{
		{Name: "Time", Type: etensor.FLOAT64, CellShape: nil, DimNames: nil},
	}
	for c := 0; c < nc; c++ {
		sch = append(sch, etable.Column{Name: fmt.Sprintf("Cond%d", c), Type: etensor.FLOAT64, CellShape: nil, DimNames: nil})
	}
	dt := &etable.Table{}
	dt.SetFromSchema(sch, nt-t0)
	for t := t0; t < nt; t++ {
		row := t - t0
		dt.SetCellFloat("Time", row, float64(row)*float64(dtMS)/1000)
		for c := 0; c < nc; c++ {
			dt.SetCellFloat(fmt.Sprintf("Cond%d", c), row, float64(h.Value([]int{t, c, unit})))
		}
	}
	return dt
}

// tableXYs extracts an x / y column pair from a table as plot points.
func tableXYs(dt *etable.Table, xcol, ycol string) (plotter.XYs, error) {
	if _, err := dt.ColByNameTry(xcol); err != nil {
		return nil, err
	}
	if _, err := dt.ColByNameTry(ycol); err != nil {
		return nil, err
	}
	n := dt.Rows
	xys := make(plotter.XYs, n)
	for r := 0; r < n; r++ {
		xys[r].X = dt.CellFloat(xcol, r)
		xys[r].Y = dt.CellFloat(ycol, r)
	}
	return xys, nil
}

// addLine adds one line with given width and color to the plot.
func addLine(p *plot.Plot, xys plotter.XYs, w vg.Length, clr color.Color) error {
	ln, err := plotter.NewLine(xys)
	if err != nil {
		return err
	}
	ln.LineStyle.Width = w
	ln.LineStyle.Color = clr
	p.Add(ln)
	return nil
}

// seriesXYs builds plot points from a time base (seconds) and a value
// accessor.
func seriesXYs(n int, dtMS float32, val func(t int) float64) plotter.XYs {
	xys := make(plotter.XYs, n)
	for t := 0; t < n; t++ {
		xys[t].X = float64(t) * float64(dtMS) / 1000
		xys[t].Y = val(t)
	}
	return xys
}
