// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package analysis implements the standard analyses that can be performed
// on any trained multitask network: activity and connectivity heatmaps,
// styled input / output figures, single-unit traces, activity histograms,
// and schematic figures.  Each analysis takes an explicit model handle,
// generates test trials, runs one forward pass, and renders PDF figures.
package analysis

import (
	"fmt"
	"os"
	"strings"

	"github.com/emer/emergent/v2/etime"
	"github.com/emer/etable/v2/etensor"
	"github.com/emer/etable/v2/norm"
	"github.com/emer/multitask/rnn"
	"github.com/emer/multitask/task"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Opts are the common figure options: the output directory for the
// rendered PDF files.
type Opts struct {

	// directory to write figures into; created if missing
	Dir string
}

// Defaults fills in the default figure directory.
func (op *Opts) Defaults() {
	if op.Dir == "" {
		op.Dir = DefaultFigDir
	}
}

func (op *Opts) ensureDir() error {
	op.Defaults()
	return os.MkdirAll(op.Dir, 0777)
}

// testTrial generates one test-mode trial batch for given rule using the
// standard environment.
func testTrial(hp *task.HParams, rule string, ttotMS float32) (*task.Trial, error) {
	ev := &task.TaskEnv{Nm: "test", Rule: rule, Mode: etime.Test, HP: hp, TTotMS: ttotMS}
	if err := ev.Validate(); err != nil {
		return nil, err
	}
	if err := ev.Gen(); err != nil {
		return nil, err
	}
	return ev.Trial, nil
}

// TrialActivity renders a simple view of neural activity from one task:
// heatmaps of the input, recurrent activity, and output for the first
// test condition, one PDF per panel.
func TrialActivity(nt *rnn.Network, rule string, opts *Opts) error {
	if opts == nil {
		opts = &Opts{}
	}
	if err := opts.ensureDir(); err != nil {
		return err
	}
	tr, err := testTrial(nt.HP, rule, 0)
	if err != nil {
		return err
	}
	h, yhat, err := nt.Forward(tr)
	if err != nil {
		return err
	}
	panels := []struct {
		tsr  *etensor.Float32
		part string
	}{
		{tr.X, "input"},
		{h, "recurrent"},
		{yhat, "output"},
	}
	for _, pn := range panels {
		p := plot.New()
		applyStyle(p)
		p.Title.Text = pn.part
		p.X.Label.Text = "Time step"
		p.Y.Label.Text = "Unit"
		p.Add(plotter.NewHeatMap(NewActGrid(pn.tsr, 0), HotPalette()))
		if err := p.Save(4*vg.Inch, 3*vg.Inch, ActivityFile(opts.Dir, rule, pn.part)); err != nil {
			return err
		}
	}
	return nil
}

// Connectivity renders each two-dimensional parameter of the network as a
// heatmap with a symmetric diverging color range at 70% of the maximum
// absolute weight.  One-dimensional biases are skipped.
func Connectivity(nt *rnn.Network, opts *Opts) error {
	if opts == nil {
		opts = &Opts{}
	}
	if err := opts.ensureDir(); err != nil {
		return err
	}
	for _, v := range TwoDVars(nt.VarList()) {
		v := v
		vmax := float64(0.7 * AbsMax(&v))
		hm := heatMap(&VarGrid{Var: &v}, DivergingPalette(), -vmax, vmax)
		p := plot.New()
		applyStyle(p)
		p.Title.Text = v.Name
		p.X.Label.Text = "From"
		p.Y.Label.Text = "To"
		p.Add(hm)
		if err := p.Save(4*vg.Inch, 3*vg.Inch, ConnFile(opts.Dir, v.Name)); err != nil {
			return err
		}
	}
	return nil
}

// IOOpts are the options for the styled input / output figure.
type IOOpts struct {
	Opts

	// write the figure file (otherwise only builds it)
	Save bool

	// label the y axes (off for all but the first column of a figure row)
	YLabel bool
}

// InputOutput renders the styled five-panel input / output figure for a
// sample trial of one task: fixation input, the two stimulus rings, the
// fixation output (target and prediction), and the response ring.
// The model must have exactly two stimulus rings.
func InputOutput(nt *rnn.Network, rule string, opts *IOOpts) error {
	if opts == nil {
		opts = &IOOpts{Save: true}
	}
	hp := nt.HP
	if hp.NumRing != 2 {
		return fmt.Errorf("analysis.InputOutput: requires exactly 2 stimulus rings, model has %d", hp.NumRing)
	}
	tr, err := testTrial(hp, rule, 0)
	if err != nil {
		return err
	}
	_, yhat, err := nt.Forward(tr)
	if err != nil {
		return err
	}
	ntime := tr.NTime()
	n := hp.NEachRing
	ylabels := []string{"fix. in", "stim. mod1", "stim. mod2", "fix. out", "out"}

	plots := make([]*plot.Plot, 5)
	for i := range plots {
		p := plot.New()
		applyStyle(p)
		noTicks(&p.X)
		if opts.YLabel {
			p.Y.Label.Text = ylabels[i]
		} else {
			noTicks(&p.Y)
		}
		plots[i] = p
	}

	// fixation input
	p := plots[0]
	p.Title.Text = task.RuleName(rule)
	if err := addLine(p, seriesXYs(ntime, tr.DT, func(t int) float64 {
		return float64(tr.X.Value([]int{t, 0, 0}))
	}), vg.Points(1), blueColor); err != nil {
		return err
	}
	p.Y.Min, p.Y.Max = -0.1, 1.5
	if opts.YLabel {
		ticksAt(&p.Y, []float64{0, 1}, []string{"", ""})
	}

	// the two stimulus rings
	for ri := 0; ri < 2; ri++ {
		p = plots[1+ri]
		p.Add(heatMap(&ActGrid{Tsr: tr.X, Cond: 0, U0: 1 + ri*n, NU: n}, SeqPalette(), 0, 1))
		if opts.YLabel {
			degTicks(&p.Y, n, true)
		}
	}

	// fixation output: target then prediction
	p = plots[3]
	if err := addLine(p, seriesXYs(ntime, tr.DT, func(t int) float64 {
		return float64(tr.Y.Value([]int{t, 0, 0}))
	}), vg.Points(1), greenColor); err != nil {
		return err
	}
	if err := addLine(p, seriesXYs(ntime, tr.DT, func(t int) float64 {
		return float64(yhat.Value([]int{t, 0, 0}))
	}), vg.Points(1), blueColor); err != nil {
		return err
	}
	p.Y.Min, p.Y.Max = -0.1, 1.1
	if opts.YLabel {
		ticksAt(&p.Y, []float64{0.05, 0.8}, []string{"", ""})
	}

	// response ring
	p = plots[4]
	p.Add(heatMap(&ActGrid{Tsr: yhat, Cond: 0, U0: 1, NU: n}, SeqPalette(), 0, 1))
	if opts.YLabel {
		degTicks(&p.Y, n, true)
	}
	ticksAt(&p.X, []float64{0, float64(ntime)}, []string{"0", "2"})
	p.X.Label.Text = "Time (s)"

	if !opts.Save {
		return nil
	}
	if err := opts.ensureDir(); err != nil {
		return err
	}
	heights := []float64{0.04, 0.21, 0.21, 0.04, 0.21}
	return writeStacked(SampleFile(opts.Dir, rule), plots, heights, 1.3*vg.Inch, 2*vg.Inch)
}

// TraceOpts are the options for the single-unit trace figures.
type TraceOpts struct {
	Opts

	// epoch to mark with a bar above the traces; empty for none
	Epoch string

	// write the figure files
	Save bool

	// only label the y axis for the first rule
	YLabelFirstOnly bool

	// strip all axes, ticks, labels, and title
	TraceOnly bool

	// overlay the cross-condition mean trace
	StimAvg bool

	// extra tag appended to the figure filenames
	SaveName string
}

// SingleNeuron renders the activity of single units in time across all
// test conditions, one figure per unit per rule.  The initial transient
// window is discarded, and each unit's figures share one y-axis maximum
// across all requested rules.
func SingleNeuron(nt *rnn.Network, rules []string, neurons []int, opts *TraceOpts) error {
	if opts == nil {
		opts = &TraceOpts{Save: true, YLabelFirstOnly: true}
	}
	hp := nt.HP
	t0 := TransientStart(hp.DT)

	hs := make(map[string]*etensor.Float32, len(rules))
	trials := make(map[string]*task.Trial, len(rules))
	for _, rule := range rules {
		tr, err := testTrial(hp, rule, 0)
		if err != nil {
			return err
		}
		h, _, err := nt.Forward(tr)
		if err != nil {
			return err
		}
		hs[rule] = h
		trials[rule] = tr
	}
	if opts.Save {
		if err := opts.ensureDir(); err != nil {
			return err
		}
	}

	for _, neuron := range neurons {
		if neuron < 0 || neuron >= hp.NRNN {
			return fmt.Errorf("analysis.SingleNeuron: unit %d out of range (n_rnn = %d)", neuron, hp.NRNN)
		}
		hmax := SharedMax(hs, rules, t0, neuron)
		for j, rule := range rules {
			h := hs[rule]
			tb := TraceTable(h, t0, neuron, hp.DT)
			p := plot.New()
			applyStyle(p)
			nc := h.Dim(1)
			for c := 0; c < nc; c++ {
				xys, err := tableXYs(tb, "Time", fmt.Sprintf("Cond%d", c))
				if err != nil {
					return err
				}
				if err := addLine(p, xys, vg.Points(0.5), grayColor); err != nil {
					return err
				}
			}
			if opts.StimAvg {
				row := make([]float32, nc)
				avg := seriesXYs(h.Dim(0)-t0, hp.DT, func(t int) float64 {
					for c := 0; c < nc; c++ {
						row[c] = h.Value([]int{t0 + t, c, neuron})
					}
					return float64(norm.Mean32(row))
				})
				if err := addLine(p, avg, vg.Points(1), blackColor); err != nil {
					return err
				}
			}
			if opts.Epoch != "" {
				rg, ok := trials[rule].Epochs[opts.Epoch]
				if !ok {
					return fmt.Errorf("analysis.SingleNeuron: rule %q has no epoch %q", rule, opts.Epoch)
				}
				e0, e1 := rg.Bounds(h.Dim(0))
				if e0 < t0 {
					e0 = t0
				}
				bar := plotter.XYs{
					{X: float64(e0-t0) * float64(hp.DT) / 1000, Y: float64(1.15 * hmax)},
					{X: float64(e1-t0) * float64(hp.DT) / 1000, Y: float64(1.15 * hmax)},
				}
				if err := addLine(p, bar, vg.Points(1.5), blackColor); err != nil {
					return err
				}
			}
			p.Y.Min = float64(-0.1 * hmax)
			p.Y.Max = float64(1.2 * hmax)
			maxSec := float64(h.Dim(0)-t0) * float64(hp.DT) / 1000
			timeTicks(&p.X, maxSec)
			p.X.Label.Text = "Time (s)"
			p.Title.Text = fmt.Sprintf("Unit %d %s", neuron, task.RuleName(rule))
			if j > 0 && opts.YLabelFirstOnly {
				// shared axis: range is already common, drop the label
			} else {
				p.Y.Label.Text = "Activity (a.u.)"
			}
			if opts.TraceOnly {
				p.HideAxes()
				p.Title.Text = ""
				p.X.Label.Text = ""
				p.Y.Label.Text = ""
			}
			if opts.Save {
				fn := TraceFile(opts.Dir, rule, neuron, opts.Epoch, opts.SaveName)
				if err := p.Save(1.0*vg.Inch, 0.8*vg.Inch, fn); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// HistOpts are the options for the activity histogram figure.
type HistOpts struct {
	Opts

	// figure title
	Title string

	// filename tag; defaults to the rules joined with underscores
	SaveName string
}

// ActivityHistogram renders a density histogram of all hidden activity
// across the given rules, pooled over time (after the transient window),
// conditions, and units.
func ActivityHistogram(nt *rnn.Network, rules []string, opts *HistOpts) error {
	if opts == nil {
		opts = &HistOpts{}
	}
	if err := opts.ensureDir(); err != nil {
		return err
	}
	hp := nt.HP
	t0 := TransientStart(hp.DT)

	var hall []*etensor.Float32
	for _, rule := range rules {
		tr, err := testTrial(hp, rule, 0)
		if err != nil {
			return err
		}
		h, _, err := nt.Forward(tr)
		if err != nil {
			return err
		}
		hall = append(hall, DiscardTransient(h, t0))
	}
	pooled, err := ConcatConds(hall)
	if err != nil {
		return err
	}
	vals := make(plotter.Values, len(pooled.Values))
	for i, v := range pooled.Values {
		vals[i] = float64(v)
	}
	hist, err := plotter.NewHist(vals, 20)
	if err != nil {
		return err
	}
	hist.Normalize(1)

	p := plot.New()
	applyStyle(p)
	p.Title.Text = opts.Title
	p.X.Label.Text = "Activity"
	noTicks(&p.Y)
	p.Add(hist)

	name := opts.SaveName
	if name == "" {
		name = strings.Join(rules, "_")
	}
	return p.Save(1.5*vg.Inch, 1.2*vg.Inch, HistFile(opts.Dir, name))
}

// Schematic renders the four schematic figures for one task (stimulus
// inputs, rule inputs, recurrent units, outputs), re-opening the model at
// dt = 1 msec and generating one long 1000 msec trial for smooth time
// axes.  rule defaults to dm1.
func Schematic(modelDir, rule string, opts *Opts) error {
	if opts == nil {
		opts = &Opts{}
	}
	if err := opts.ensureDir(); err != nil {
		return err
	}
	if rule == "" {
		rule = "dm1"
	}
	nt, err := rnn.OpenDT(modelDir, 1)
	if err != nil {
		return err
	}
	hp := nt.HP
	tr, err := testTrial(hp, rule, 1000)
	if err != nil {
		return err
	}
	h, yhat, err := nt.Forward(tr)
	if err != nil {
		return err
	}
	ntime := tr.NTime()
	n := hp.NEachRing

	// stimulus inputs: fixation plus the two rings
	fixp := plot.New()
	applyStyle(fixp)
	fixp.Title.Text = "Fixation input"
	if err := addLine(fixp, seriesXYs(ntime, tr.DT, func(t int) float64 {
		return float64(tr.X.Value([]int{t, 0, 0}))
	}), vg.Points(1), blueColor); err != nil {
		return err
	}
	fixp.Y.Min, fixp.Y.Max = -0.1, 1.5
	ticksAt(&fixp.Y, []float64{0, 1}, []string{"", ""})
	noTicks(&fixp.X)

	rings := make([]*plot.Plot, 2)
	for ri := range rings {
		p := plot.New()
		applyStyle(p)
		p.Title.Text = fmt.Sprintf("Stimulus mod %d", ri+1)
		p.Add(heatMap(&ActGrid{Tsr: tr.X, Cond: 0, U0: 1 + ri*n, NU: n}, SeqPalette(), 0, 1))
		degTicks(&p.Y, n, false)
		noTicks(&p.X)
		rings[ri] = p
	}
	err = writeStacked(SchematicFile(opts.Dir, "input"),
		[]*plot.Plot{fixp, rings[0], rings[1]},
		[]float64{0.1, 0.45, 0.45}, 1.0*vg.Inch, 1.2*vg.Inch)
	if err != nil {
		return err
	}

	// rule inputs
	nrule := hp.NInput - hp.RuleStart
	p := plot.New()
	applyStyle(p)
	p.Title.Text = "Rule inputs"
	p.Add(heatMap(&ActGrid{Tsr: tr.X, Cond: 0, U0: hp.RuleStart, NU: nrule}, SeqPalette(), 0, 1))
	ticksAt(&p.X, []float64{0, 1000}, []string{"0", "1000"})
	p.X.Label.Text = "Time (ms)"
	ticksAt(&p.Y, []float64{0, float64(nrule - 1)}, []string{"1", fmt.Sprintf("%d", nrule)})
	if err := p.Save(1.0*vg.Inch, 0.5*vg.Inch, SchematicFile(opts.Dir, "rule")); err != nil {
		return err
	}

	// recurrent units
	p = plot.New()
	applyStyle(p)
	p.Title.Text = "Recurrent units"
	p.Add(heatMap(NewActGrid(h, 0), SeqPalette(), 0, 1))
	noTicks(&p.X)
	ticksAt(&p.Y, []float64{0, float64(hp.NRNN - 1)}, []string{"1", fmt.Sprintf("%d", hp.NRNN)})
	if err := p.Save(1.0*vg.Inch, 0.8*vg.Inch, SchematicFile(opts.Dir, "units")); err != nil {
		return err
	}

	// outputs: fixation output plus the response ring
	fixo := plot.New()
	applyStyle(fixo)
	fixo.Title.Text = "Fixation output"
	if err := addLine(fixo, seriesXYs(ntime, tr.DT, func(t int) float64 {
		return float64(yhat.Value([]int{t, 0, 0}))
	}), vg.Points(1), blueColor); err != nil {
		return err
	}
	fixo.Y.Min, fixo.Y.Max = -0.1, 1.1
	ticksAt(&fixo.Y, []float64{0.05, 0.8}, []string{"", ""})
	noTicks(&fixo.X)

	resp := plot.New()
	applyStyle(resp)
	resp.Title.Text = "Response"
	resp.Add(heatMap(&ActGrid{Tsr: yhat, Cond: 0, U0: 1, NU: n}, SeqPalette(), 0, 1))
	degTicks(&resp.Y, n, false)
	noTicks(&resp.X)

	return writeStacked(SchematicFile(opts.Dir, "outputs"),
		[]*plot.Plot{fixo, resp},
		[]float64{0.2, 0.8}, 1.0*vg.Inch, 0.8*vg.Inch)
}
