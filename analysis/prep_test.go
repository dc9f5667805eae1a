// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package analysis

import (
	"path/filepath"
	"testing"

	"github.com/emer/etable/v2/etensor"
	"github.com/emer/multitask/rnn"
)

// seqTensor returns a time x cond x unit tensor filled with sequential
// values, so every element is identifiable after slicing.
func seqTensor(nt, nc, nu int) *etensor.Float32 {
	h := etensor.NewFloat32([]int{nt, nc, nu}, nil, []string{"Time", "Cond", "Unit"})
	for i := range h.Values {
		h.Values[i] = float32(i)
	}
	return h
}

func TestTransientStart(t *testing.T) {
	if got := TransientStart(20); got != 25 {
		t.Errorf("TransientStart(20) = %d, want 25", got)
	}
	if got := TransientStart(1); got != 500 {
		t.Errorf("TransientStart(1) = %d, want 500", got)
	}
}

func TestDiscardTransient(t *testing.T) {
	h := seqTensor(10, 3, 4)
	out := DiscardTransient(h, 4)
	if out.Dim(0) != 6 || out.Dim(1) != 3 || out.Dim(2) != 4 {
		t.Fatalf("shape after discard %v, want (6, 3, 4)", out.Shapes())
	}
	for t1 := 0; t1 < 6; t1++ {
		for c := 0; c < 3; c++ {
			for u := 0; u < 4; u++ {
				want := h.Value([]int{t1 + 4, c, u})
				if got := out.Value([]int{t1, c, u}); got != want {
					t.Fatalf("[%d %d %d] = %g, want %g", t1, c, u, got, want)
				}
			}
		}
	}
	if got := DiscardTransient(h, 0); got != h {
		t.Errorf("t0 = 0 should return the tensor unchanged")
	}
	if got := DiscardTransient(h, 99); got.Dim(0) != 0 {
		t.Errorf("t0 beyond trial left %d steps, want 0", got.Dim(0))
	}
}

func TestConcatConds(t *testing.T) {
	a := seqTensor(5, 2, 3)
	b := seqTensor(5, 4, 3)
	out, err := ConcatConds([]*etensor.Float32{a, b})
	if err != nil {
		t.Fatal(err)
	}
	if out.Dim(1) != 6 {
		t.Errorf("concat conds = %d, want 6", out.Dim(1))
	}
	if len(out.Values) != len(a.Values)+len(b.Values) {
		t.Errorf("concat element count %d, want %d", len(out.Values), len(a.Values)+len(b.Values))
	}
	if got, want := out.Value([]int{2, 1, 0}), a.Value([]int{2, 1, 0}); got != want {
		t.Errorf("first block [2 1 0] = %g, want %g", got, want)
	}
	if got, want := out.Value([]int{2, 2, 0}), b.Value([]int{2, 0, 0}); got != want {
		t.Errorf("second block [2 2 0] = %g, want %g", got, want)
	}

	if _, err := ConcatConds(nil); err == nil {
		t.Errorf("empty input accepted")
	}
	c := seqTensor(7, 2, 3)
	if _, err := ConcatConds([]*etensor.Float32{a, c}); err == nil {
		t.Errorf("mismatched time dimension accepted")
	}
}

func TestTwoDVars(t *testing.T) {
	vars := []rnn.Var{
		{Name: "rnn/b_rec", Shape: []int{8}},
		{Name: "rnn/w_in", Shape: []int{4, 8}},
		{Name: "rnn/b_out", Shape: []int{3}},
		{Name: "rnn/w_rec", Shape: []int{8, 8}},
	}
	out := TwoDVars(vars)
	if len(out) != 2 {
		t.Fatalf("got %d vars, want 2", len(out))
	}
	if out[0].Name != "rnn/w_in" || out[1].Name != "rnn/w_rec" {
		t.Errorf("got %s, %s: order not preserved", out[0].Name, out[1].Name)
	}
}

func TestAbsMax(t *testing.T) {
	v := rnn.Var{Name: "rnn/w_in", Shape: []int{2, 2}, Values: []float32{0.5, -3, 1, 2}}
	if got := AbsMax(&v); got != 3 {
		t.Errorf("AbsMax = %g, want 3", got)
	}
}

func TestSharedMax(t *testing.T) {
	h1 := seqTensor(6, 2, 4) // max for unit u at [5, 1, u]: 44 + u
	h2 := etensor.NewFloat32([]int{6, 2, 4}, nil, []string{"Time", "Cond", "Unit"})
	h2.Set([]int{3, 0, 0}, 100)
	h2.Set([]int{1, 0, 3}, 200) // inside the discarded window
	hs := map[string]*etensor.Float32{"dm1": h1, "dm2": h2}

	if got := SharedMax(hs, []string{"dm1", "dm2"}, 2, 0); got != 100 {
		t.Errorf("unit 0 shared max = %g, want 100", got)
	}
	if got := SharedMax(hs, []string{"dm1", "dm2"}, 2, 3); got != 47 {
		t.Errorf("unit 3 shared max = %g, want 47", got)
	}
	if got := SharedMax(hs, []string{"dm1"}, 2, 0); got != 44 {
		t.Errorf("single-rule unit 0 max = %g, want 44", got)
	}
}

func TestFigFiles(t *testing.T) {
	if got, want := SampleFile("fig", "contextdm1"), filepath.Join("fig", "sample_CtxDM1.pdf"); got != want {
		t.Errorf("SampleFile = %q, want %q", got, want)
	}
	if got, want := TraceFile("fig", "dm1", 3, "stim1", ""), filepath.Join("fig", "trace_DM1stim1.pdf"); got != want {
		t.Errorf("TraceFile with epoch = %q, want %q", got, want)
	}
	if got, want := TraceFile("fig", "dm1", 3, "", "_x"), filepath.Join("fig", "trace_unit3DM1_x.pdf"); got != want {
		t.Errorf("TraceFile without epoch = %q, want %q", got, want)
	}
	if got, want := ConnFile("fig", "rnn/w_rec"), filepath.Join("fig", "connectivity_rnn_w_rec.pdf"); got != want {
		t.Errorf("ConnFile = %q, want %q", got, want)
	}
	if got, want := HistFile("fig", "dm1_dm2"), filepath.Join("fig", "activity_hist_dm1_dm2.pdf"); got != want {
		t.Errorf("HistFile = %q, want %q", got, want)
	}
	if got, want := SchematicFile("fig", "input"), filepath.Join("fig", "schematic_input.pdf"); got != want {
		t.Errorf("SchematicFile = %q, want %q", got, want)
	}
	if got, want := ActivityFile("fig", "fdgo", "recurrent"), filepath.Join("fig", "activity_fdgo_recurrent.pdf"); got != want {
		t.Errorf("ActivityFile = %q, want %q", got, want)
	}
}
