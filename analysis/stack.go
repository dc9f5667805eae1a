// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package analysis

import (
	"fmt"
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgpdf"
)

// writeStacked renders the given plots stacked vertically (first plot at
// the top) into a single PDF page.  heights are the relative panel
// heights; the remaining vertical space is spread as padding between
// panels.
func writeStacked(path string, plots []*plot.Plot, heights []float64, w, h vg.Length) error {
	if len(plots) != len(heights) {
		return fmt.Errorf("analysis.writeStacked: %d plots but %d heights", len(plots), len(heights))
	}
	var tot float64
	for _, ph := range heights {
		tot += ph
	}
	if tot > 1 {
		return fmt.Errorf("analysis.writeStacked: panel heights sum to %g > 1", tot)
	}
	pad := (1 - tot) / float64(len(plots)+1)

	c := vgpdf.New(w, h)
	dc := draw.New(c)
	r := dc.Rectangle
	top := 1.0
	for i, p := range plots {
		top -= pad
		y1 := top
		top -= heights[i]
		y0 := top
		sub := draw.Canvas{
			Canvas: dc.Canvas,
			Rectangle: vg.Rectangle{
				Min: vg.Point{X: r.Min.X, Y: r.Min.Y + vg.Length(y0)*(r.Max.Y-r.Min.Y)},
				Max: vg.Point{X: r.Max.X, Y: r.Min.Y + vg.Length(y1)*(r.Max.Y-r.Min.Y)},
			},
		}
		p.Draw(sub)
	}
	fp, err := os.Create(path)
	if err != nil {
		return err
	}
	defer fp.Close()
	if _, err := c.WriteTo(fp); err != nil {
		return err
	}
	return nil
}
