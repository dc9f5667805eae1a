// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rnn is the model handle for trained multitask networks: a dense
// continuous-time rate RNN restored from a model directory (hparams.json +
// checkpoint weights), with a batched forward pass producing hidden
// activity and output tensors for a generated trial.
package rnn

import (
	"fmt"
	"math"
	"math/rand"
	"strings"

	"github.com/c2h5oh/datasize"
	"github.com/emer/multitask/task"
	"gonum.org/v1/gonum/mat"
)

// Var is one named trainable parameter: weights are 2D, biases 1D.
// Values are row-major.
type Var struct {
	Name   string
	Shape  []int
	Values []float32
}

// NDim returns the number of axes of the parameter.
func (v *Var) NDim() int { return len(v.Shape) }

// Len returns the total number of elements implied by Shape.
func (v *Var) Len() int {
	n := 1
	for _, d := range v.Shape {
		n *= d
	}
	return n
}

// Network is the restored model: dense input, recurrent, and output
// weights, plus the hyperparameters it was built from.  All matrices use
// the row-vector convention from training: activity row times weight
// matrix (inputs × outputs).
type Network struct {

	// name of the network, from the checkpoint
	Nm string

	// hyperparameters, from hparams.json in the model directory
	HP *task.HParams

	// input weights: n_input × n_rnn
	WIn *mat.Dense

	// recurrent weights: n_rnn × n_rnn
	WRec *mat.Dense

	// recurrent bias: n_rnn
	BRec *mat.VecDense

	// output weights: n_rnn × n_output
	WOut *mat.Dense

	// output bias: n_output
	BOut *mat.VecDense
}

// canonical parameter names, fixed order
const (
	VarWIn  = "rnn/w_in"
	VarWRec = "rnn/w_rec"
	VarBRec = "rnn/b_rec"
	VarWOut = "rnn/w_out"
	VarBOut = "rnn/b_out"
)

// New returns a new zero-weight network built for given hyperparameters.
func New(hp *task.HParams) *Network {
	nt := &Network{Nm: "multitask", HP: hp}
	nt.Build()
	return nt
}

// Build allocates the weight matrices per the current hyperparameters.
func (nt *Network) Build() {
	hp := nt.HP
	nt.WIn = mat.NewDense(hp.NInput, hp.NRNN, nil)
	nt.WRec = mat.NewDense(hp.NRNN, hp.NRNN, nil)
	nt.BRec = mat.NewVecDense(hp.NRNN, nil)
	nt.WOut = mat.NewDense(hp.NRNN, hp.NOutput, nil)
	nt.BOut = mat.NewVecDense(hp.NOutput, nil)
}

// InitWeights initializes random gaussian weights scaled by 1/sqrt(fan-in),
// for building test models; restored checkpoints overwrite these.
func (nt *Network) InitWeights(seed int64) {
	rnd := rand.New(rand.NewSource(seed))
	initDense := func(m *mat.Dense) {
		r, c := m.Dims()
		sc := 1 / math.Sqrt(float64(r))
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				m.Set(i, j, rnd.NormFloat64()*sc)
			}
		}
	}
	initDense(nt.WIn)
	initDense(nt.WRec)
	initDense(nt.WOut)
}

// VarList returns all trainable parameters with canonical names and
// shapes, in fixed order, copied out of the weight matrices.
func (nt *Network) VarList() []Var {
	return []Var{
		denseVar(VarWIn, nt.WIn),
		denseVar(VarWRec, nt.WRec),
		vecVar(VarBRec, nt.BRec),
		denseVar(VarWOut, nt.WOut),
		vecVar(VarBOut, nt.BOut),
	}
}

// SetVar sets one named parameter from a checkpoint Var, validating the
// shape against the built geometry.
func (nt *Network) SetVar(v *Var) error {
	switch v.Name {
	case VarWIn:
		return setDense(nt.WIn, v)
	case VarWRec:
		return setDense(nt.WRec, v)
	case VarBRec:
		return setVec(nt.BRec, v)
	case VarWOut:
		return setDense(nt.WOut, v)
	case VarBOut:
		return setVec(nt.BOut, v)
	}
	return fmt.Errorf("rnn: unknown parameter %q", v.Name)
}

func denseVar(name string, m *mat.Dense) Var {
	r, c := m.Dims()
	v := Var{Name: name, Shape: []int{r, c}, Values: make([]float32, r*c)}
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v.Values[i*c+j] = float32(m.At(i, j))
		}
	}
	return v
}

func vecVar(name string, b *mat.VecDense) Var {
	n := b.Len()
	v := Var{Name: name, Shape: []int{n}, Values: make([]float32, n)}
	for i := 0; i < n; i++ {
		v.Values[i] = float32(b.AtVec(i))
	}
	return v
}

func setDense(m *mat.Dense, v *Var) error {
	r, c := m.Dims()
	if len(v.Shape) != 2 || v.Shape[0] != r || v.Shape[1] != c || len(v.Values) != r*c {
		return fmt.Errorf("rnn: parameter %q shape %v does not match built %d x %d", v.Name, v.Shape, r, c)
	}
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			m.Set(i, j, float64(v.Values[i*c+j]))
		}
	}
	return nil
}

func setVec(b *mat.VecDense, v *Var) error {
	n := b.Len()
	if len(v.Shape) != 1 || v.Shape[0] != n || len(v.Values) != n {
		return fmt.Errorf("rnn: parameter %q shape %v does not match built length %d", v.Name, v.Shape, n)
	}
	for i := 0; i < n; i++ {
		b.SetVec(i, float64(v.Values[i]))
	}
	return nil
}

// SizeReport returns a string report of the number of parameters and
// their memory footprint.
func (nt *Network) SizeReport() string {
	var b strings.Builder
	tot := 0
	for _, v := range nt.VarList() {
		n := v.Len()
		tot += n
		fmt.Fprintf(&b, "%14s:\t Params: %d\t Mem: %v\n", v.Name, n, (datasize.ByteSize)(n*4).HumanReadable())
	}
	fmt.Fprintf(&b, "%14s:\t Params: %d\t Mem: %v\n", nt.Nm, tot, (datasize.ByteSize)(tot*4).HumanReadable())
	return b.String()
}
