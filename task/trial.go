// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package task generates trials for the battery of ring-coded cognitive
// tasks that the multitask networks are trained on.  Each trial is a batch
// of conditions over time: input tensors carry a fixation unit, one or two
// stimulus rings, and one-hot rule units; target tensors carry a fixation
// output and a response ring.
package task

import (
	"fmt"

	"github.com/emer/emergent/v2/etime"
	"github.com/emer/etable/v2/etensor"
	"github.com/goki/mat32"
)

// Open marks an epoch boundary that extends to the start or end of the
// trial (the generator's equivalent of a null boundary).
const Open = -1

// Range is a named epoch's time interval in timesteps.  Start == Open
// means the trial start, End == Open means the trial end.
type Range struct {
	Start int
	End   int
}

// Bounds returns the concrete [start, end) interval given the total
// number of timesteps, substituting the open boundaries.
func (rg Range) Bounds(nt int) (int, int) {
	s, e := rg.Start, rg.End
	if s == Open {
		s = 0
	}
	if e == Open {
		e = nt
	}
	return s, e
}

// Trial is one generated batch of task trials: input and target tensors
// over time × condition × channel, plus the epoch timing map.
// A Trial is immutable once generated.
type Trial struct {

	// the task rule this trial was generated from
	Rule string

	// input tensor: time × condition × n_input
	X *etensor.Float32

	// target output tensor: time × condition × n_output
	Y *etensor.Float32

	// named epoch time ranges, in timesteps
	Epochs map[string]Range

	// timestep duration in msec, copied from the hyperparameters
	DT float32
}

// NTime returns the number of timesteps in the trial.
func (tr *Trial) NTime() int { return tr.X.Dim(0) }

// NCond returns the number of conditions (batch size) in the trial.
func (tr *Trial) NCond() int { return tr.X.Dim(1) }

// stimulus bump amplitude and output baseline, matching training
const (
	stimAmp     = 0.8
	outBaseline = 0.05
	fixOutHigh  = 0.8
)

// ringAct is the ring-unit activation for a unit with preferred direction
// pref given a stimulus at theta: a circular gaussian bump.
func ringAct(theta, pref float32) float32 {
	d := circDist(theta, pref)
	return stimAmp * mat32.FastExp(-0.5*(8*d/mat32.Pi)*(8*d/mat32.Pi))
}

// circDist is the absolute circular distance between two angles.
func circDist(a, b float32) float32 {
	d := mat32.Mod(a-b, 2*mat32.Pi)
	if d < 0 {
		d += 2 * mat32.Pi
	}
	return mat32.Pi - mat32.Abs(d-mat32.Pi)
}

// Generate builds one trial batch for given rule and mode.  In test mode
// the conditions sweep stimulus directions deterministically around the
// ring; in train mode they are drawn at random.  ttotMS, when positive,
// rescales the rule's nominal epoch durations to a total trial length in
// msec (used by the schematic figures); 0 uses the rule's own timing.
func Generate(rule string, hp *HParams, mode etime.Modes, ttotMS float32) (*Trial, error) {
	rd, ok := ruleDefs[rule]
	if !ok {
		return nil, fmt.Errorf("task.Generate: unknown rule %q", rule)
	}
	ri, err := hp.RuleIndex(rule)
	if err != nil {
		return nil, err
	}

	var totMS float32
	for _, ed := range rd.Timing {
		totMS += ed.Ms
	}
	scale := float32(1)
	if ttotMS > 0 {
		scale = ttotMS / totMS
		totMS = ttotMS
	}
	nt := int(totMS / hp.DT)
	if nt < 2 {
		return nil, fmt.Errorf("task.Generate: trial of %g ms has too few steps at dt = %g", totMS, hp.DT)
	}

	epochs := make(map[string]Range, len(rd.Timing)+1)
	step := 0
	for i, ed := range rd.Timing {
		ns := int(ed.Ms * scale / hp.DT)
		rg := Range{Start: step, End: step + ns}
		if i == 0 {
			rg.Start = Open
		}
		if i == len(rd.Timing)-1 {
			rg.End = Open
		}
		epochs[ed.Name] = rg
		step += ns
	}
	goEpoch := rd.GoEpoch
	if goEpoch == "" {
		goEpoch = "go1"
	}
	grg, ok := epochs[goEpoch]
	if !ok {
		return nil, fmt.Errorf("task.Generate: rule %q has no %q epoch", rule, goEpoch)
	}
	epochs["go1"] = grg
	goStart, _ := grg.Bounds(nt)

	conds := rd.Conds(hp, mode)
	nc := len(conds)

	tr := &Trial{Rule: rule, Epochs: epochs, DT: hp.DT}
	tr.X = etensor.NewFloat32([]int{nt, nc, hp.NInput}, nil, []string{"Time", "Cond", "Unit"})
	tr.Y = etensor.NewFloat32([]int{nt, nc, hp.NOutput}, nil, []string{"Time", "Cond", "Unit"})

	for ci, cd := range conds {
		for t := 0; t < nt; t++ {
			// fixation input on until go onset, rule input on throughout
			if t < goStart {
				tr.X.Set([]int{t, ci, 0}, 1)
			}
			tr.X.Set([]int{t, ci, hp.RuleStart + ri}, 1)

			// fixation output high until go, then released only on go trials
			fy := float32(fixOutHigh)
			if t >= goStart && cd.Go {
				fy = outBaseline
			}
			tr.Y.Set([]int{t, ci, 0}, fy)
			for u := 0; u < hp.NEachRing; u++ {
				yv := float32(outBaseline)
				if t >= goStart && cd.Go {
					yv += ringAct(cd.RespDir, prefDir(u, hp.NEachRing))
				}
				tr.Y.Set([]int{t, ci, 1 + u}, yv)
			}
		}
		for _, st := range cd.Stims {
			if st.Mod < 1 || st.Mod > hp.NumRing {
				return nil, fmt.Errorf("task.Generate: rule %q stimulus modality %d out of range", rule, st.Mod)
			}
			erg, ok := epochs[st.Epoch]
			if !ok {
				return nil, fmt.Errorf("task.Generate: rule %q has no %q epoch", rule, st.Epoch)
			}
			es, ee := erg.Bounds(nt)
			off := 1 + (st.Mod-1)*hp.NEachRing
			for t := es; t < ee; t++ {
				for u := 0; u < hp.NEachRing; u++ {
					ix := []int{t, ci, off + u}
					v := tr.X.Value(ix)
					tr.X.Set(ix, v+st.Strength*ringAct(st.Theta, prefDir(u, hp.NEachRing)))
				}
			}
		}
	}
	return tr, nil
}

// prefDir is the preferred direction of ring unit u out of n.
func prefDir(u, n int) float32 {
	return 2 * mat32.Pi * float32(u) / float32(n)
}
