// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package task

import (
	"fmt"
	"log"

	"github.com/emer/emergent/v2/env"
	"github.com/emer/emergent/v2/etime"
	"github.com/emer/etable/v2/etensor"
)

// TaskEnv presents generated trials as a standard environment: each Step
// advances one timestep through the current trial, exposing the input and
// target slices for that tick, and generates a fresh trial batch when the
// previous one is exhausted.
type TaskEnv struct {
	Nm   string      // name of this environment
	Dsc  string      // description
	Rule string      // task rule to generate trials for
	Mode etime.Modes // trial generation mode: Train or Test
	HP   *HParams    // input / output geometry and timestep

	// total trial length override in msec -- 0 uses the rule's timing
	TTotMS float32

	// current generated trial -- regenerated at the start of each pass
	Trial *Trial `view:"-"`

	// current-tick input state: cond × n_input
	Input etensor.Float32 `view:"no-inline"`

	// current-tick target state: cond × n_output
	Target etensor.Float32 `view:"no-inline"`

	Run   env.Ctr `view:"inline"` // run counter as provided during Init
	Epoch env.Ctr `view:"inline"` // number of passes through trials
	Tick  env.Ctr `view:"inline"` // timestep within current trial
}

func (ev *TaskEnv) Name() string { return ev.Nm }
func (ev *TaskEnv) Desc() string { return ev.Dsc }

func (ev *TaskEnv) Validate() error {
	if !ValidRule(ev.Rule) {
		return fmt.Errorf("TaskEnv: %v unknown rule %q", ev.Nm, ev.Rule)
	}
	if ev.HP == nil {
		return fmt.Errorf("TaskEnv: %v has no hyperparameters set", ev.Nm)
	}
	if _, err := ev.HP.RuleIndex(ev.Rule); err != nil {
		return err
	}
	return nil
}

func (ev *TaskEnv) Counters() []env.TimeScales {
	return []env.TimeScales{env.Run, env.Epoch, env.Tick}
}

func (ev *TaskEnv) States() env.Elements {
	return env.Elements{
		{Name: "Input", Shape: []int{ev.HP.NInput}, DimNames: []string{"Unit"}},
		{Name: "Target", Shape: []int{ev.HP.NOutput}, DimNames: []string{"Unit"}},
	}
}

func (ev *TaskEnv) State(element string) etensor.Tensor {
	switch element {
	case "Input":
		return &ev.Input
	case "Target":
		return &ev.Target
	}
	return nil
}

func (ev *TaskEnv) Actions() env.Elements { return nil }

func (ev *TaskEnv) Action(element string, input etensor.Tensor) {
	// nop
}

// Gen generates a fresh trial for the current rule and mode.
func (ev *TaskEnv) Gen() error {
	tr, err := Generate(ev.Rule, ev.HP, ev.Mode, ev.TTotMS)
	if err != nil {
		return err
	}
	ev.Trial = tr
	ev.Tick.Max = tr.NTime()
	ev.Input.SetShape([]int{tr.NCond(), ev.HP.NInput}, nil, []string{"Cond", "Unit"})
	ev.Target.SetShape([]int{tr.NCond(), ev.HP.NOutput}, nil, []string{"Cond", "Unit"})
	return nil
}

func (ev *TaskEnv) Init(run int) {
	ev.Run.Scale = env.Run
	ev.Epoch.Scale = env.Epoch
	ev.Tick.Scale = env.Tick
	ev.Run.Init()
	ev.Epoch.Init()
	ev.Tick.Init()
	ev.Run.Cur = run
	ev.Tick.Cur = -1 // init state -- key so that first Step() = 0
	ev.Trial = nil
	if err := ev.Gen(); err != nil {
		log.Println(err)
	}
}

// setTick copies the current timestep's input / target slices into the
// per-tick state tensors.
func (ev *TaskEnv) setTick(t int) {
	nc := ev.Trial.NCond()
	for ci := 0; ci < nc; ci++ {
		for u := 0; u < ev.HP.NInput; u++ {
			ev.Input.Set([]int{ci, u}, ev.Trial.X.Value([]int{t, ci, u}))
		}
		for u := 0; u < ev.HP.NOutput; u++ {
			ev.Target.Set([]int{ci, u}, ev.Trial.Y.Value([]int{t, ci, u}))
		}
	}
}

func (ev *TaskEnv) Step() bool {
	if ev.Trial == nil { // Init failed to generate
		return false
	}
	ev.Epoch.Same()
	if ev.Tick.Incr() { // wrapped around: new trial batch
		ev.Epoch.Incr()
		if err := ev.Gen(); err != nil {
			return false
		}
	}
	ev.setTick(ev.Tick.Cur)
	return true
}

func (ev *TaskEnv) Counter(scale env.TimeScales) (cur, prv int, chg bool) {
	switch scale {
	case env.Run:
		return ev.Run.Query()
	case env.Epoch:
		return ev.Epoch.Query()
	case env.Tick:
		return ev.Tick.Query()
	}
	return -1, -1, false
}

// Compile-time check that implements Env interface
var _ env.Env = (*TaskEnv)(nil)
