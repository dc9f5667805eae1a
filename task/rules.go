// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package task

import (
	"math/rand"

	"github.com/emer/emergent/v2/etime"
	"github.com/goki/mat32"
)

// stim is one stimulus presented on a ring during a named epoch.
type stim struct {
	Mod      int // ring modality, 1-based
	Theta    float32
	Strength float32
	Epoch    string
}

// cond is one trial condition: the stimuli shown and the required response.
// Go == false means the correct response is to maintain fixation.
type cond struct {
	Stims   []stim
	RespDir float32
	Go      bool
}

// epochDur is one named epoch and its nominal duration in msec.
// The last epoch of every rule runs to the end of the trial.
type epochDur struct {
	Name string
	Ms   float32
}

// ruleDef defines one task rule: display name, epoch timing, and the
// condition builder for a given mode.  GoEpoch names the epoch whose onset
// releases fixation; empty means the standard "go1" epoch (reaction-time
// rules respond at stimulus onset instead).
type ruleDef struct {
	Name    string
	Timing  []epochDur
	GoEpoch string
	Conds   func(hp *HParams, mode etime.Modes) []cond
}

// contrasts used for the decision-making families in test mode,
// cycled across conditions.  Sign selects which of the paired
// stimuli is stronger.
var gammaSet = []float32{0.08, 0.04, 0.02, 0.01, -0.01, -0.02, -0.04, -0.08}

// NTrainCond is the batch size for train-mode trials.
const NTrainCond = 64

var ruleDefs = map[string]*ruleDef{
	"fdgo": {Name: "Go", Timing: []epochDur{
		{"fix1", 500}, {"stim1", 500}, {"go1", 500}},
		Conds: goConds(1)},
	"reactgo": {Name: "RT Go", Timing: []epochDur{
		{"fix1", 500}, {"stim1", 1000}},
		GoEpoch: "stim1",
		Conds:   goConds(1)},
	"delaygo": {Name: "Dly Go", Timing: []epochDur{
		{"fix1", 500}, {"stim1", 500}, {"delay1", 500}, {"go1", 500}},
		Conds: goConds(1)},
	"dm1": {Name: "DM 1", Timing: dmTiming,
		Conds: dmConds(1)},
	"dm2": {Name: "DM 2", Timing: dmTiming,
		Conds: dmConds(2)},
	"contextdm1": {Name: "Ctx DM 1", Timing: dmTiming,
		Conds: ctxConds(1)},
	"contextdm2": {Name: "Ctx DM 2", Timing: dmTiming,
		Conds: ctxConds(2)},
	"multidm": {Name: "MultSen DM", Timing: dmTiming,
		Conds: multiConds},
	"dmsgo": {Name: "DMS Go", Timing: dmsTiming,
		Conds: dmsConds(true, false)},
	"dmsnogo": {Name: "DMS Anti", Timing: dmsTiming,
		Conds: dmsConds(false, false)},
	"dmcgo": {Name: "DMC Go", Timing: dmsTiming,
		Conds: dmsConds(true, true)},
	"dmcnogo": {Name: "DMC Anti", Timing: dmsTiming,
		Conds: dmsConds(false, true)},
}

var dmTiming = []epochDur{{"fix1", 500}, {"stim1", 1000}, {"go1", 500}}

var dmsTiming = []epochDur{
	{"fix1", 500}, {"stim1", 500}, {"delay1", 500}, {"stim2", 500}, {"go1", 500}}

// ruleOrder is the canonical ordering of rules for the rule input units.
var ruleOrder = []string{
	"fdgo", "reactgo", "delaygo",
	"dm1", "dm2", "contextdm1", "contextdm2", "multidm",
	"dmsgo", "dmsnogo", "dmcgo", "dmcnogo",
}

// AllRules returns the canonical rule list, in input-unit order.
func AllRules() []string {
	rs := make([]string, len(ruleOrder))
	copy(rs, ruleOrder)
	return rs
}

// ValidRule reports whether rule names a known task rule.
func ValidRule(rule string) bool {
	_, ok := ruleDefs[rule]
	return ok
}

// RuleName returns the display name for given rule (e.g., "contextdm1" ->
// "Ctx DM 1").  Unknown rules return the identifier unchanged.
func RuleName(rule string) string {
	if rd, ok := ruleDefs[rule]; ok {
		return rd.Name
	}
	return rule
}

// testDirs returns evenly spaced stimulus directions around the ring,
// one per ring unit in test mode, random in train mode.
func testDirs(hp *HParams, mode etime.Modes) []float32 {
	n := hp.NEachRing
	if mode == etime.Train {
		n = NTrainCond
	}
	dirs := make([]float32, n)
	for i := range dirs {
		if mode == etime.Train {
			dirs[i] = rand.Float32() * 2 * mat32.Pi
		} else {
			dirs[i] = 2 * mat32.Pi * float32(i) / float32(n)
		}
	}
	return dirs
}

// goConds builds conditions for the go family: a single stimulus on
// given modality, response to its direction.
func goConds(mod int) func(hp *HParams, mode etime.Modes) []cond {
	return func(hp *HParams, mode etime.Modes) []cond {
		dirs := testDirs(hp, mode)
		cs := make([]cond, len(dirs))
		for i, th := range dirs {
			cs[i] = cond{
				Stims:   []stim{{Mod: mod, Theta: th, Strength: 1, Epoch: "stim1"}},
				RespDir: th,
				Go:      true,
			}
		}
		return cs
	}
}

// dmPair returns the standard decision-making stimulus pair on given
// modality: two opposite directions with strengths 1±gamma.
func dmPair(mod int, th, gamma float32, epoch string) []stim {
	return []stim{
		{Mod: mod, Theta: th, Strength: 1 + gamma, Epoch: epoch},
		{Mod: mod, Theta: th + mat32.Pi, Strength: 1 - gamma, Epoch: epoch},
	}
}

func condGamma(i int, mode etime.Modes) float32 {
	if mode == etime.Train {
		return gammaSet[rand.Intn(len(gammaSet))]
	}
	return gammaSet[i%len(gammaSet)]
}

// dmConds builds single-modality decision-making conditions: paired
// opposite stimuli, respond to the stronger one.
func dmConds(mod int) func(hp *HParams, mode etime.Modes) []cond {
	return func(hp *HParams, mode etime.Modes) []cond {
		dirs := testDirs(hp, mode)
		cs := make([]cond, len(dirs))
		for i, th := range dirs {
			gamma := condGamma(i, mode)
			resp := th
			if gamma < 0 {
				resp = th + mat32.Pi
			}
			cs[i] = cond{Stims: dmPair(mod, th, gamma, "stim1"), RespDir: resp, Go: true}
		}
		return cs
	}
}

// ctxConds builds context-dependent decision-making conditions: both
// modalities carry independent stimulus pairs, only the attended one
// determines the response.
func ctxConds(attend int) func(hp *HParams, mode etime.Modes) []cond {
	return func(hp *HParams, mode etime.Modes) []cond {
		dirs := testDirs(hp, mode)
		cs := make([]cond, len(dirs))
		for i, th := range dirs {
			g1 := condGamma(i, mode)
			g2 := condGamma(i+3, mode) // offset so modalities decorrelate
			th2 := th + mat32.Pi/2
			stims := append(dmPair(1, th, g1, "stim1"), dmPair(2, th2, g2, "stim1")...)
			var resp float32
			if attend == 1 {
				resp = th
				if g1 < 0 {
					resp = th + mat32.Pi
				}
			} else {
				resp = th2
				if g2 < 0 {
					resp = th2 + mat32.Pi
				}
			}
			cs[i] = cond{Stims: stims, RespDir: resp, Go: true}
		}
		return cs
	}
}

// multiConds builds multi-sensory decision-making conditions: the same
// stimulus pair on both modalities, summed evidence determines the response.
func multiConds(hp *HParams, mode etime.Modes) []cond {
	dirs := testDirs(hp, mode)
	cs := make([]cond, len(dirs))
	for i, th := range dirs {
		g1 := condGamma(i, mode)
		g2 := condGamma(i+5, mode)
		stims := append(dmPair(1, th, g1, "stim1"), dmPair(2, th, g2, "stim1")...)
		resp := th
		if g1+g2 < 0 {
			resp = th + mat32.Pi
		}
		cs[i] = cond{Stims: stims, RespDir: resp, Go: true}
	}
	return cs
}

// dmsConds builds delayed match-to-sample (category) conditions.
// matchGo selects whether a match requires a response or fixation;
// category matches ring halves instead of exact directions.
func dmsConds(matchGo, category bool) func(hp *HParams, mode etime.Modes) []cond {
	return func(hp *HParams, mode etime.Modes) []cond {
		dirs := testDirs(hp, mode)
		cs := make([]cond, len(dirs))
		for i, th := range dirs {
			match := i%2 == 0
			if mode == etime.Train {
				match = rand.Intn(2) == 0
			}
			var th2 float32
			if category {
				// same or opposite ring half, jittered within the half
				th2 = catDir(th, match, float32(i)/float32(len(dirs)))
			} else if match {
				th2 = th
			} else {
				th2 = th + mat32.Pi
			}
			isGo := match == matchGo
			cs[i] = cond{
				Stims: []stim{
					{Mod: 1, Theta: th, Strength: 1, Epoch: "stim1"},
					{Mod: 1, Theta: th2, Strength: 1, Epoch: "stim2"},
				},
				RespDir: th2,
				Go:      isGo,
			}
		}
		return cs
	}
}

// catDir returns a second-stimulus direction in the same (match) or
// opposite (non-match) ring half as th, at fractional position frac
// within that half.
func catDir(th float32, match bool, frac float32) float32 {
	half := mat32.Mod(th, 2*mat32.Pi)
	base := float32(0)
	if half >= mat32.Pi {
		base = mat32.Pi
	}
	if !match {
		base = mat32.Mod(base+mat32.Pi, 2*mat32.Pi)
	}
	return base + frac*mat32.Pi
}
