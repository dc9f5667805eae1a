// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package task

import (
	"testing"

	"github.com/emer/emergent/v2/env"
	"github.com/emer/emergent/v2/etime"
	"github.com/goki/mat32"
)

func testHP() *HParams {
	hp := &HParams{NEachRing: 8, NRNN: 16}
	hp.Defaults()
	return hp
}

func TestGenerateShapes(t *testing.T) {
	hp := testHP()
	for _, rule := range AllRules() {
		tr, err := Generate(rule, hp, etime.Test, 0)
		if err != nil {
			t.Fatalf("rule %s: %v", rule, err)
		}
		nt, nc := tr.NTime(), tr.NCond()
		if nt < 2 || nc < 1 {
			t.Errorf("rule %s: degenerate trial %d x %d", rule, nt, nc)
		}
		if tr.X.Dim(0) != nt || tr.X.Dim(1) != nc || tr.X.Dim(2) != hp.NInput {
			t.Errorf("rule %s: X shape %v, want (%d, %d, %d)", rule, tr.X.Shapes(), nt, nc, hp.NInput)
		}
		if tr.Y.Dim(0) != nt || tr.Y.Dim(1) != nc || tr.Y.Dim(2) != hp.NOutput {
			t.Errorf("rule %s: Y shape %v, want (%d, %d, %d)", rule, tr.Y.Shapes(), nt, nc, hp.NOutput)
		}
		for nm, rg := range tr.Epochs {
			s, e := rg.Bounds(nt)
			if s < 0 || e > nt || s > e {
				t.Errorf("rule %s: epoch %s bounds [%d, %d) outside trial of %d steps", rule, nm, s, e, nt)
			}
		}
		if tr.Epochs["fix1"].Start != Open {
			t.Errorf("rule %s: fix1 should start open, got %d", rule, tr.Epochs["fix1"].Start)
		}
		if tr.Epochs["go1"].End != Open {
			t.Errorf("rule %s: go1 should end open, got %d", rule, tr.Epochs["go1"].End)
		}
	}
}

func TestGenerateUnknownRule(t *testing.T) {
	hp := testHP()
	if _, err := Generate("nosuchrule", hp, etime.Test, 0); err == nil {
		t.Errorf("expected error for unknown rule")
	}
}

func TestRuleInputOneHot(t *testing.T) {
	hp := testHP()
	tr, err := Generate("contextdm1", hp, etime.Test, 0)
	if err != nil {
		t.Fatal(err)
	}
	ri, _ := hp.RuleIndex("contextdm1")
	nt := tr.NTime()
	for t1 := 0; t1 < nt; t1++ {
		sum := float32(0)
		for i := 0; i < len(hp.Rules); i++ {
			sum += tr.X.Value([]int{t1, 0, hp.RuleStart + i})
		}
		if sum != 1 {
			t.Fatalf("rule input sum at step %d = %g, want 1", t1, sum)
		}
		if tr.X.Value([]int{t1, 0, hp.RuleStart + ri}) != 1 {
			t.Fatalf("wrong rule unit active at step %d", t1)
		}
	}
}

func TestRingEncodingPeak(t *testing.T) {
	hp := testHP()
	tr, err := Generate("fdgo", hp, etime.Test, 0)
	if err != nil {
		t.Fatal(err)
	}
	s, _ := tr.Epochs["stim1"].Bounds(tr.NTime())
	// condition ci has stimulus direction 2*pi*ci/ncond; with ncond ==
	// n_eachring the peak input unit should be unit ci exactly
	for ci := 0; ci < tr.NCond(); ci++ {
		maxu, maxv := -1, float32(-1)
		for u := 0; u < hp.NEachRing; u++ {
			v := tr.X.Value([]int{s, ci, 1 + u})
			if v > maxv {
				maxu, maxv = u, v
			}
		}
		if maxu != ci {
			t.Errorf("cond %d: peak ring unit %d, want %d", ci, maxu, ci)
		}
	}
}

func TestFixationRelease(t *testing.T) {
	hp := testHP()
	tr, err := Generate("delaygo", hp, etime.Test, 0)
	if err != nil {
		t.Fatal(err)
	}
	nt := tr.NTime()
	gs, _ := tr.Epochs["go1"].Bounds(nt)
	if v := tr.X.Value([]int{gs - 1, 0, 0}); v != 1 {
		t.Errorf("fixation input off before go onset: %g", v)
	}
	if v := tr.X.Value([]int{gs, 0, 0}); v != 0 {
		t.Errorf("fixation input on after go onset: %g", v)
	}
	if v := tr.Y.Value([]int{gs - 1, 0, 0}); mat32.Abs(v-0.8) > 1e-6 {
		t.Errorf("fixation output target before go = %g, want 0.8", v)
	}
	if v := tr.Y.Value([]int{gs, 0, 0}); mat32.Abs(v-0.05) > 1e-6 {
		t.Errorf("fixation output target after go = %g, want 0.05", v)
	}
}

func TestNoGoKeepsFixation(t *testing.T) {
	hp := testHP()
	tr, err := Generate("dmsnogo", hp, etime.Test, 0)
	if err != nil {
		t.Fatal(err)
	}
	nt := tr.NTime()
	gs, _ := tr.Epochs["go1"].Bounds(nt)
	// even conditions are matches: for dmsnogo those are the nogo trials
	if v := tr.Y.Value([]int{gs, 0, 0}); mat32.Abs(v-0.8) > 1e-6 {
		t.Errorf("nogo fixation output target after go = %g, want 0.8", v)
	}
	if v := tr.Y.Value([]int{gs, 1, 0}); mat32.Abs(v-0.05) > 1e-6 {
		t.Errorf("go fixation output target after go = %g, want 0.05", v)
	}
}

func TestGenerateTotalTime(t *testing.T) {
	hp := testHP()
	hp.DT = 1
	hp.NInput = 0 // recompute derived
	hp.Defaults()
	tr, err := Generate("dm1", hp, etime.Test, 1000)
	if err != nil {
		t.Fatal(err)
	}
	if tr.NTime() != 1000 {
		t.Errorf("t_tot override: %d steps, want 1000", tr.NTime())
	}
}

func TestGenerateCoarseTimestep(t *testing.T) {
	hp := testHP()
	hp.DT = 2000 // passes Validate but exceeds every rule's trial length
	if err := hp.Validate(); err != nil {
		t.Fatalf("coarse dt rejected by Validate: %v", err)
	}
	if _, err := Generate("fdgo", hp, etime.Test, 0); err == nil {
		t.Errorf("trial with fewer than 2 steps accepted")
	}
}

func TestEnvInitGenFailure(t *testing.T) {
	hp := testHP()
	hp.DT = 2000
	ev := &TaskEnv{Nm: "test", Rule: "fdgo", Mode: etime.Test, HP: hp}
	if err := ev.Validate(); err != nil {
		t.Fatal(err)
	}
	ev.Init(0) // must not panic when generation fails
	if ev.Trial != nil {
		t.Errorf("trial set despite generation failure")
	}
	if ev.Step() {
		t.Errorf("Step succeeded without a trial")
	}
}

func TestRangeBounds(t *testing.T) {
	rg := Range{Start: Open, End: 10}
	if s, e := rg.Bounds(50); s != 0 || e != 10 {
		t.Errorf("open start bounds = [%d, %d), want [0, 10)", s, e)
	}
	rg = Range{Start: 20, End: Open}
	if s, e := rg.Bounds(50); s != 20 || e != 50 {
		t.Errorf("open end bounds = [%d, %d), want [20, 50)", s, e)
	}
}

func TestRuleNames(t *testing.T) {
	cases := map[string]string{
		"fdgo":       "Go",
		"contextdm1": "Ctx DM 1",
		"dmsgo":      "DMS Go",
		"unknown":    "unknown",
	}
	for rule, nm := range cases {
		if gn := RuleName(rule); gn != nm {
			t.Errorf("RuleName(%q) = %q, want %q", rule, gn, nm)
		}
	}
}

func TestHParamsValidate(t *testing.T) {
	hp := testHP()
	if err := hp.Validate(); err != nil {
		t.Errorf("valid hparams rejected: %v", err)
	}
	bad := *hp
	bad.NInput = 3
	if err := bad.Validate(); err == nil {
		t.Errorf("inconsistent n_input accepted")
	}
	bad = *hp
	bad.Rules = append([]string{"nosuchrule"}, hp.Rules...)
	bad.NInput++
	if err := bad.Validate(); err == nil {
		t.Errorf("unknown rule accepted")
	}
}

func TestHParamsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	hp := testHP()
	if err := hp.SaveHParams(dir); err != nil {
		t.Fatal(err)
	}
	hp2, err := OpenHParams(dir)
	if err != nil {
		t.Fatal(err)
	}
	if hp2.NEachRing != hp.NEachRing || hp2.NInput != hp.NInput || hp2.DT != hp.DT {
		t.Errorf("hparams did not round-trip: %+v vs %+v", hp2, hp)
	}
}

func TestEnvStep(t *testing.T) {
	hp := testHP()
	ev := &TaskEnv{Nm: "test", Rule: "dm1", Mode: etime.Test, HP: hp}
	if err := ev.Validate(); err != nil {
		t.Fatal(err)
	}
	ev.Init(0)
	tr := ev.Trial
	nt := tr.NTime()
	for tick := 0; tick < nt; tick++ {
		if !ev.Step() {
			t.Fatalf("Step failed at tick %d", tick)
		}
		cur, _, _ := ev.Counter(env.Tick)
		if cur != tick {
			t.Fatalf("tick counter = %d, want %d", cur, tick)
		}
		in := ev.State("Input")
		for u := 0; u < hp.NInput; u++ {
			if in.FloatVal([]int{0, u}) != float64(tr.X.Value([]int{tick, 0, u})) {
				t.Fatalf("env input mismatch at tick %d unit %d", tick, u)
			}
		}
	}
	// next step wraps into a fresh trial batch
	if !ev.Step() {
		t.Fatal("Step failed on wrap")
	}
	if cur, _, _ := ev.Counter(env.Epoch); cur != 1 {
		t.Errorf("epoch counter after wrap = %d, want 1", cur)
	}
}
