// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package analysis

import (
	"image/color"

	"github.com/emer/etable/v2/etensor"
	"github.com/emer/multitask/rnn"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
)

// ActGrid adapts one condition's time × unit slice of a 3D activity
// tensor to the heatmap grid interface, with time on the x axis and units
// on the y axis (origin at the bottom, matching the trained unit order).
// U0 / NU select a contiguous channel band (e.g., one stimulus ring).
type ActGrid struct {
	Tsr  *etensor.Float32
	Cond int
	U0   int // first channel
	NU   int // number of channels; 0 = all from U0
}

// NewActGrid returns a grid over all channels of given condition.
func NewActGrid(tsr *etensor.Float32, cond int) *ActGrid {
	return &ActGrid{Tsr: tsr, Cond: cond}
}

func (g *ActGrid) nu() int {
	if g.NU > 0 {
		return g.NU
	}
	return g.Tsr.Dim(2) - g.U0
}

func (g *ActGrid) Dims() (c, r int) { return g.Tsr.Dim(0), g.nu() }
func (g *ActGrid) X(c int) float64  { return float64(c) }
func (g *ActGrid) Y(r int) float64  { return float64(r) }
func (g *ActGrid) Z(c, r int) float64 {
	return float64(g.Tsr.Value([]int{c, g.Cond, g.U0 + r}))
}

// VarGrid adapts a two-dimensional parameter to the heatmap grid
// interface, transposed so the x axis reads "from" (first axis) and the
// y axis "to" (second axis).
type VarGrid struct {
	Var *rnn.Var
}

func (g *VarGrid) Dims() (c, r int) { return g.Var.Shape[0], g.Var.Shape[1] }
func (g *VarGrid) X(c int) float64  { return float64(c) }
func (g *VarGrid) Y(r int) float64  { return float64(r) }
func (g *VarGrid) Z(c, r int) float64 {
	return float64(g.Var.Values[c*g.Var.Shape[1]+r])
}

var (
	_ plotter.GridXYZ = (*ActGrid)(nil)
	_ plotter.GridXYZ = (*VarGrid)(nil)
)

// nPalette is the number of colors in the heatmap palettes.
const nPalette = 255

// heatMap returns a heatmap over g with the value range pinned to
// [min, max].  Out-of-range values take the palette's extreme colors;
// the plotter default leaves them unpainted.
func heatMap(g plotter.GridXYZ, pal palette.Palette, min, max float64) *plotter.HeatMap {
	hm := plotter.NewHeatMap(g, pal)
	hm.Min, hm.Max = min, max
	cs := pal.Colors()
	hm.Underflow = cs[0]
	hm.Overflow = cs[len(cs)-1]
	return hm
}

// HotPalette is the palette for the simple activity heatmaps.
func HotPalette() palette.Palette {
	return palette.Heat(nPalette, 1)
}

// DivergingPalette is the blue-white-red palette for connectivity
// matrices, used with a symmetric value range.
func DivergingPalette() palette.Palette {
	return moreland.SmoothBlueRed().Palette(nPalette)
}

// reversed reverses the color order of a palette.
type reversed struct {
	pal palette.Palette
}

func (r reversed) Colors() []color.Color {
	cs := r.pal.Colors()
	out := make([]color.Color, len(cs))
	for i, c := range cs {
		out[len(cs)-1-i] = c
	}
	return out
}

// SeqPalette is the light-to-dark sequential palette for the styled
// stimulus and response heatmaps (white at zero activity).
func SeqPalette() palette.Palette {
	return reversed{moreland.ExtendedBlackBody().Palette(nPalette)}
}
