// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package analysis

import (
	"fmt"

	"github.com/emer/etable/v2/etensor"
	"github.com/emer/etable/v2/minmax"
	"github.com/emer/multitask/rnn"
)

// TransientMS is the initial transient window discarded from activity
// before trace and histogram analyses, in msec.
const TransientMS = 500

// TransientStart returns the number of leading timesteps covered by the
// transient window at given timestep duration.
func TransientStart(dt float32) int {
	return int(TransientMS / dt)
}

// DiscardTransient returns a copy of the activity tensor with exactly t0
// leading timesteps dropped; later timesteps are unchanged.  t0 <= 0
// returns the tensor as-is.
func DiscardTransient(h *etensor.Float32, t0 int) *etensor.Float32 {
	if t0 <= 0 {
		return h
	}
	nt, nc, nu := h.Dim(0), h.Dim(1), h.Dim(2)
	if t0 > nt {
		t0 = nt
	}
	out := etensor.NewFloat32([]int{nt - t0, nc, nu}, nil, []string{"Time", "Cond", "Unit"})
	copy(out.Values, h.Values[t0*nc*nu:])
	return out
}

// ConcatConds concatenates activity tensors along the condition axis.
// All tensors must agree on the time and unit dimensions; the result's
// element count is the sum of the inputs'.
func ConcatConds(hs []*etensor.Float32) (*etensor.Float32, error) {
	if len(hs) == 0 {
		return nil, fmt.Errorf("analysis.ConcatConds: no tensors")
	}
	nt, nu := hs[0].Dim(0), hs[0].Dim(2)
	nc := 0
	for _, h := range hs {
		if h.Dim(0) != nt || h.Dim(2) != nu {
			return nil, fmt.Errorf("analysis.ConcatConds: tensor dims %v do not match %d time, %d units",
				h.Shapes(), nt, nu)
		}
		nc += h.Dim(1)
	}
	out := etensor.NewFloat32([]int{nt, nc, nu}, nil, []string{"Time", "Cond", "Unit"})
	for t := 0; t < nt; t++ {
		ci := 0
		for _, h := range hs {
			hnc := h.Dim(1)
			for c := 0; c < hnc; c++ {
				for u := 0; u < nu; u++ {
					out.Set([]int{t, ci, u}, h.Value([]int{t, c, u}))
				}
				ci++
			}
		}
	}
	return out, nil
}

// TwoDVars filters the parameter list down to the two-axis weight
// matrices, excluding one-dimensional biases, preserving order.
func TwoDVars(vars []rnn.Var) []rnn.Var {
	var out []rnn.Var
	for _, v := range vars {
		if v.NDim() == 2 {
			out = append(out, v)
		}
	}
	return out
}

// AbsMax returns the maximum absolute value over the parameter.
func AbsMax(v *rnn.Var) float32 {
	mm := minmax.F32{}
	mm.SetInfinity()
	for _, x := range v.Values {
		if x < 0 {
			x = -x
		}
		mm.FitValInRange(x)
	}
	return mm.Max
}

// UnitMax returns the maximum activity of given unit over all timesteps
// from t0 on and all conditions.
func UnitMax(h *etensor.Float32, t0, unit int) float32 {
	nt, nc := h.Dim(0), h.Dim(1)
	mm := minmax.F32{}
	mm.SetInfinity()
	for t := t0; t < nt; t++ {
		for c := 0; c < nc; c++ {
			mm.FitValInRange(h.Value([]int{t, c, unit}))
		}
	}
	return mm.Max
}

// SharedMax returns one shared maximum for given unit across the
// activity tensors of all rules, after discarding t0 leading steps --
// used so that the per-rule trace figures for one unit share a y axis.
func SharedMax(hs map[string]*etensor.Float32, rules []string, t0, unit int) float32 {
	mm := minmax.F32{}
	mm.SetInfinity()
	for _, r := range rules {
		if h, ok := hs[r]; ok {
			mm.FitValInRange(UnitMax(h, t0, unit))
		}
	}
	return mm.Max
}
