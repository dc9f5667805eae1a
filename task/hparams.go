// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package task

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// HParamsFilename is the name of the hyperparameter file saved alongside
// the checkpoint in each model directory.
const HParamsFilename = "hparams.json"

// HParams are the hyperparameters shared between the trial generator and
// the network: they fix the input / output geometry and the simulation
// timestep.  They are written once at training time and read back for
// analysis, so all fields round-trip through JSON.
type HParams struct {

	// simulation timestep in msec
	DT float32 `json:"dt"`

	// neuronal time constant in msec -- integration factor alpha = dt / tau
	Tau float32 `json:"tau"`

	// number of recurrent (hidden) units
	NRNN int `json:"n_rnn"`

	// number of units in each stimulus ring
	NEachRing int `json:"n_eachring"`

	// number of stimulus rings (modalities)
	NumRing int `json:"num_ring"`

	// task rules this model was trained on, in input-unit order
	Rules []string `json:"rules"`

	// activation function for recurrent units: softplus, relu, or tanh
	Activation string `json:"activation"`

	// recurrent noise std used in training -- ignored at inference
	SigmaRec float32 `json:"sigma_rec"`

	// total number of input units: 1 + NumRing*NEachRing + len(Rules)
	NInput int `json:"n_input"`

	// total number of output units: 1 + NEachRing
	NOutput int `json:"n_output"`

	// index of the first rule input unit
	RuleStart int `json:"rule_start"`
}

// Defaults sets default values for any unset fields and computes the
// derived geometry (NInput, NOutput, RuleStart).
func (hp *HParams) Defaults() {
	if hp.DT == 0 {
		hp.DT = 20
	}
	if hp.Tau == 0 {
		hp.Tau = 100
	}
	if hp.NRNN == 0 {
		hp.NRNN = 256
	}
	if hp.NEachRing == 0 {
		hp.NEachRing = 32
	}
	if hp.NumRing == 0 {
		hp.NumRing = 2
	}
	if len(hp.Rules) == 0 {
		hp.Rules = AllRules()
	}
	if hp.Activation == "" {
		hp.Activation = "softplus"
	}
	hp.RuleStart = 1 + hp.NumRing*hp.NEachRing
	hp.NInput = hp.RuleStart + len(hp.Rules)
	hp.NOutput = 1 + hp.NEachRing
}

// Validate returns an error if the geometry is inconsistent or any rule
// is unknown.
func (hp *HParams) Validate() error {
	if hp.DT <= 0 || hp.Tau <= 0 {
		return fmt.Errorf("task.HParams: dt (%g) and tau (%g) must be positive", hp.DT, hp.Tau)
	}
	if hp.NEachRing < 2 {
		return fmt.Errorf("task.HParams: n_eachring must be at least 2, got %d", hp.NEachRing)
	}
	if hp.NInput != 1+hp.NumRing*hp.NEachRing+len(hp.Rules) {
		return fmt.Errorf("task.HParams: n_input %d does not match geometry (1 + %d*%d + %d rules)",
			hp.NInput, hp.NumRing, hp.NEachRing, len(hp.Rules))
	}
	if hp.NOutput != 1+hp.NEachRing {
		return fmt.Errorf("task.HParams: n_output %d does not match 1 + n_eachring", hp.NOutput)
	}
	for _, r := range hp.Rules {
		if !ValidRule(r) {
			return fmt.Errorf("task.HParams: unknown rule %q", r)
		}
	}
	return nil
}

// RuleIndex returns the input-unit index for given rule, relative to
// RuleStart, or an error if the rule is not in this model's rule set.
func (hp *HParams) RuleIndex(rule string) (int, error) {
	for i, r := range hp.Rules {
		if r == rule {
			return i, nil
		}
	}
	return -1, fmt.Errorf("task.HParams: rule %q not in model rule set", rule)
}

// OpenHParams reads hparams.json from given model directory, applies
// defaults for the derived fields, and validates.
func OpenHParams(modelDir string) (*HParams, error) {
	fn := filepath.Join(modelDir, HParamsFilename)
	b, err := os.ReadFile(fn)
	if err != nil {
		return nil, fmt.Errorf("task.OpenHParams: %w", err)
	}
	hp := &HParams{}
	if err := json.Unmarshal(b, hp); err != nil {
		return nil, fmt.Errorf("task.OpenHParams: %s: %w", fn, err)
	}
	if hp.NInput == 0 { // older files omit derived geometry
		hp.Defaults()
	}
	if err := hp.Validate(); err != nil {
		return nil, err
	}
	return hp, nil
}

// SaveHParams writes hparams.json into given model directory.
func (hp *HParams) SaveHParams(modelDir string) error {
	b, err := json.MarshalIndent(hp, "", "\t")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(modelDir, HParamsFilename), b, 0666)
}
