// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// multitask runs the standard analyses on a trained multitask model
// directory, writing PDF figures.
//
// Usage:
//
//	multitask activity -dir models/debug -rules contextdm1
//	multitask connectivity -dir models/debug
//	multitask sample -dir models/debug -rules contextdm1 -ylabel
//	multitask trace -dir models/debug -rules dm1,dm2 -neurons 0,3 -epoch stim1
//	multitask hist -dir models/debug -rules contextdm1,contextdm2
//	multitask schematic -dir models/debug -rules dm1
//	multitask info -dir models/debug
//	multitask initmodel -dir models/debug
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/emer/multitask/analysis"
	"github.com/emer/multitask/rnn"
	"github.com/emer/multitask/task"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	cmd := os.Args[1]
	args := os.Args[2:]
	if err := run(cmd, args); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: multitask <activity|connectivity|sample|trace|hist|schematic|info|initmodel> [flags]")
}

// cmdFlags are the flags shared by all subcommands.  Rules and neurons
// accept either a single value or a comma-separated list; the list form
// is resolved here, once, at the call boundary.
type cmdFlags struct {
	fs        *flag.FlagSet
	dir       *string
	figDir    *string
	rules     *string
	neurons   *string
	epoch     *string
	save      *bool
	ylabel    *bool
	avg       *bool
	traceOnly *bool
	name      *string
}

func newFlags(cmd string) *cmdFlags {
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	cf := &cmdFlags{fs: fs}
	cf.dir = fs.String("dir", "", "model directory with hparams.json and checkpoint (required)")
	cf.figDir = fs.String("figdir", analysis.DefaultFigDir, "directory to write figures into")
	cf.rules = fs.String("rules", "", "task rule, or comma-separated list of rules")
	cf.neurons = fs.String("neurons", "0", "unit index, or comma-separated list of unit indexes")
	cf.epoch = fs.String("epoch", "", "epoch to mark on trace figures (e.g., stim1)")
	cf.save = fs.Bool("save", true, "write figure files")
	cf.ylabel = fs.Bool("ylabel", false, "label the y axes")
	cf.avg = fs.Bool("avg", false, "overlay cross-condition mean trace")
	cf.traceOnly = fs.Bool("traceonly", false, "strip all axes and labels from trace figures")
	cf.name = fs.String("name", "", "extra tag for figure filenames")
	return cf
}

func (cf *cmdFlags) parse(args []string) error {
	if err := cf.fs.Parse(args); err != nil {
		return err
	}
	if *cf.dir == "" {
		return fmt.Errorf("multitask: -dir is required")
	}
	return nil
}

func (cf *cmdFlags) ruleList() ([]string, error) {
	if *cf.rules == "" {
		return nil, fmt.Errorf("multitask: -rules is required")
	}
	rs := strings.Split(*cf.rules, ",")
	for _, r := range rs {
		if !task.ValidRule(r) {
			return nil, fmt.Errorf("multitask: unknown rule %q", r)
		}
	}
	return rs, nil
}

func (cf *cmdFlags) neuronList() ([]int, error) {
	var ns []int
	for _, s := range strings.Split(*cf.neurons, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("multitask: bad unit index %q: %w", s, err)
		}
		ns = append(ns, n)
	}
	return ns, nil
}

func run(cmd string, args []string) error {
	cf := newFlags(cmd)
	if err := cf.parse(args); err != nil {
		return err
	}
	opts := analysis.Opts{Dir: *cf.figDir}

	switch cmd {
	case "activity":
		rules, err := cf.ruleList()
		if err != nil {
			return err
		}
		nt, err := rnn.Open(*cf.dir)
		if err != nil {
			return err
		}
		for _, rule := range rules {
			if err := analysis.TrialActivity(nt, rule, &opts); err != nil {
				return err
			}
		}
		return nil
	case "connectivity":
		nt, err := rnn.Open(*cf.dir)
		if err != nil {
			return err
		}
		return analysis.Connectivity(nt, &opts)
	case "sample":
		rules, err := cf.ruleList()
		if err != nil {
			return err
		}
		nt, err := rnn.Open(*cf.dir)
		if err != nil {
			return err
		}
		for _, rule := range rules {
			io := analysis.IOOpts{Opts: opts, Save: *cf.save, YLabel: *cf.ylabel}
			if err := analysis.InputOutput(nt, rule, &io); err != nil {
				return err
			}
		}
		return nil
	case "trace":
		rules, err := cf.ruleList()
		if err != nil {
			return err
		}
		neurons, err := cf.neuronList()
		if err != nil {
			return err
		}
		nt, err := rnn.Open(*cf.dir)
		if err != nil {
			return err
		}
		to := analysis.TraceOpts{Opts: opts, Epoch: *cf.epoch, Save: *cf.save,
			YLabelFirstOnly: true, TraceOnly: *cf.traceOnly, StimAvg: *cf.avg,
			SaveName: *cf.name}
		return analysis.SingleNeuron(nt, rules, neurons, &to)
	case "hist":
		rules, err := cf.ruleList()
		if err != nil {
			return err
		}
		nt, err := rnn.Open(*cf.dir)
		if err != nil {
			return err
		}
		ho := analysis.HistOpts{Opts: opts, SaveName: *cf.name}
		return analysis.ActivityHistogram(nt, rules, &ho)
	case "schematic":
		rule := ""
		if *cf.rules != "" {
			rs, err := cf.ruleList()
			if err != nil {
				return err
			}
			rule = rs[0]
		}
		return analysis.Schematic(*cf.dir, rule, &opts)
	case "info":
		nt, err := rnn.Open(*cf.dir)
		if err != nil {
			return err
		}
		fmt.Println(nt.SizeReport())
		return nil
	case "initmodel":
		return initModel(*cf.dir)
	}
	usage()
	return fmt.Errorf("multitask: unknown command %q", cmd)
}

// initModel writes a fresh model directory with default hyperparameters
// and random weights, for trying the analyses without a trained model.
func initModel(dir string) error {
	if err := os.MkdirAll(dir, 0777); err != nil {
		return err
	}
	hp := &task.HParams{}
	hp.Defaults()
	if err := hp.SaveHParams(dir); err != nil {
		return err
	}
	nt := rnn.New(hp)
	nt.InitWeights(1)
	fn := dir + "/" + rnn.CheckpointFilename
	if err := nt.SaveWtsJSON(fn); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", fn)
	return nil
}
