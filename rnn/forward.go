// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rnn

import (
	"fmt"
	"math"

	"github.com/emer/etable/v2/etensor"
	"github.com/emer/multitask/task"
	"gonum.org/v1/gonum/mat"
)

// softplus with cutoff to avoid overflow in exp
func softplus(x float64) float64 {
	if x > 30 {
		return x
	}
	return math.Log1p(math.Exp(x))
}

func relu(x float64) float64 {
	if x < 0 {
		return 0
	}
	return x
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// actFun returns the recurrent activation function for the current
// hyperparameters.
func (nt *Network) actFun() (func(float64) float64, error) {
	switch nt.HP.Activation {
	case "softplus":
		return softplus, nil
	case "relu":
		return relu, nil
	case "tanh":
		return math.Tanh, nil
	}
	return nil, fmt.Errorf("rnn: unknown activation %q", nt.HP.Activation)
}

// Forward runs one batched forward pass over the full trial, returning the
// hidden activity tensor (time × cond × n_rnn) and the predicted output
// tensor (time × cond × n_output).  The trial is not modified.  Hidden
// state integrates with alpha = dt / tau from a zero initial state:
//
//	h[t] = (1-alpha)*h[t-1] + alpha*act(x[t]·WIn + h[t-1]·WRec + BRec)
//	y[t] = sigmoid(h[t]·WOut + BOut)
func (nt *Network) Forward(tr *task.Trial) (h, yhat *etensor.Float32, err error) {
	hp := nt.HP
	if tr.X.Dim(2) != hp.NInput || tr.Y.Dim(2) != hp.NOutput {
		return nil, nil, fmt.Errorf("rnn.Forward: trial geometry (%d in, %d out) does not match model (%d in, %d out)",
			tr.X.Dim(2), tr.Y.Dim(2), hp.NInput, hp.NOutput)
	}
	act, err := nt.actFun()
	if err != nil {
		return nil, nil, err
	}
	ntime := tr.NTime()
	nc := tr.NCond()
	alpha := float64(hp.DT / hp.Tau)

	h = etensor.NewFloat32([]int{ntime, nc, hp.NRNN}, nil, []string{"Time", "Cond", "Unit"})
	yhat = etensor.NewFloat32([]int{ntime, nc, hp.NOutput}, nil, []string{"Time", "Cond", "Unit"})

	xt := mat.NewDense(nc, hp.NInput, nil)
	hs := mat.NewDense(nc, hp.NRNN, nil)
	pre := mat.NewDense(nc, hp.NRNN, nil)
	rec := mat.NewDense(nc, hp.NRNN, nil)
	out := mat.NewDense(nc, hp.NOutput, nil)

	for t := 0; t < ntime; t++ {
		for ci := 0; ci < nc; ci++ {
			for u := 0; u < hp.NInput; u++ {
				xt.Set(ci, u, float64(tr.X.Value([]int{t, ci, u})))
			}
		}
		pre.Mul(xt, nt.WIn)
		rec.Mul(hs, nt.WRec)
		for ci := 0; ci < nc; ci++ {
			for u := 0; u < hp.NRNN; u++ {
				z := pre.At(ci, u) + rec.At(ci, u) + nt.BRec.AtVec(u)
				hv := (1-alpha)*hs.At(ci, u) + alpha*act(z)
				hs.Set(ci, u, hv)
				h.Set([]int{t, ci, u}, float32(hv))
			}
		}
		out.Mul(hs, nt.WOut)
		for ci := 0; ci < nc; ci++ {
			for u := 0; u < hp.NOutput; u++ {
				yhat.Set([]int{t, ci, u}, float32(sigmoid(out.At(ci, u)+nt.BOut.AtVec(u))))
			}
		}
	}
	return h, yhat, nil
}
