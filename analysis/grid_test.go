// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package analysis

import (
	"testing"

	"github.com/emer/multitask/rnn"
)

func TestHeatMapClamp(t *testing.T) {
	v := rnn.Var{Name: "rnn/w_in", Shape: []int{2, 2}, Values: []float32{-2, -0.1, 0.1, 2}}
	pal := DivergingPalette()
	hm := heatMap(&VarGrid{Var: &v}, pal, -1, 1)
	if hm.Min != -1 || hm.Max != 1 {
		t.Errorf("range [%g, %g], want [-1, 1]", hm.Min, hm.Max)
	}
	// values beyond the pinned range must render at the palette extremes,
	// not as unpainted cells
	cs := pal.Colors()
	if hm.Underflow == nil || hm.Underflow != cs[0] {
		t.Errorf("underflow color %v, want first palette color %v", hm.Underflow, cs[0])
	}
	if hm.Overflow == nil || hm.Overflow != cs[len(cs)-1] {
		t.Errorf("overflow color %v, want last palette color %v", hm.Overflow, cs[len(cs)-1])
	}
}

func TestVarGridTransposed(t *testing.T) {
	v := rnn.Var{Name: "rnn/w_in", Shape: []int{2, 3}, Values: []float32{0, 1, 2, 10, 11, 12}}
	g := &VarGrid{Var: &v}
	c, r := g.Dims()
	if c != 2 || r != 3 {
		t.Fatalf("dims (%d, %d), want (2, 3)", c, r)
	}
	if g.Z(1, 2) != 12 {
		t.Errorf("Z(1, 2) = %g, want row 1 col 2 of the parameter (12)", g.Z(1, 2))
	}
}
