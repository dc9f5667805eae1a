// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rnn

import (
	"bufio"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/emer/multitask/task"
)

// CheckpointFilename is the weights file in each model directory;
// a .gz variant is accepted as well.
const CheckpointFilename = "checkpoint.json"

// checkpoint is the JSON structure of a saved model: the network name and
// the full list of trainable parameters.
type checkpoint struct {
	Network string `json:"network"`
	Vars    []Var  `json:"vars"`
}

// Open restores a trained network from given model directory: reads
// hparams.json, builds the network, and loads the checkpoint weights.
func Open(modelDir string) (*Network, error) {
	hp, err := task.OpenHParams(modelDir)
	if err != nil {
		return nil, err
	}
	return openWithHP(modelDir, hp)
}

// OpenDT is Open with the simulation timestep forced to given value in
// msec, keeping the trained weights (the schematic figures run at dt=1 for
// smooth time axes).
func OpenDT(modelDir string, dt float32) (*Network, error) {
	hp, err := task.OpenHParams(modelDir)
	if err != nil {
		return nil, err
	}
	hp.DT = dt
	return openWithHP(modelDir, hp)
}

func openWithHP(modelDir string, hp *task.HParams) (*Network, error) {
	nt := New(hp)
	fn := filepath.Join(modelDir, CheckpointFilename)
	if _, err := os.Stat(fn); err != nil {
		gz := fn + ".gz"
		if _, err2 := os.Stat(gz); err2 != nil {
			return nil, fmt.Errorf("rnn.Open: no checkpoint in %s: %w", modelDir, err)
		}
		fn = gz
	}
	if err := nt.OpenWtsJSON(fn); err != nil {
		return nil, err
	}
	return nt, nil
}

// SaveWtsJSON saves network weights to a JSON-formatted file.
// If filename has .gz extension, then file is gzip compressed.
func (nt *Network) SaveWtsJSON(filename string) error {
	fp, err := os.Create(filename)
	defer fp.Close()
	if err != nil {
		log.Println(err)
		return err
	}
	ext := filepath.Ext(filename)
	if ext == ".gz" {
		gzr := gzip.NewWriter(fp)
		err = nt.WriteWtsJSON(gzr)
		gzr.Close()
	} else {
		bw := bufio.NewWriter(fp)
		err = nt.WriteWtsJSON(bw)
		bw.Flush()
	}
	return err
}

// OpenWtsJSON opens network weights from a JSON-formatted file.
// If filename has .gz extension, then file is gzip uncompressed.
func (nt *Network) OpenWtsJSON(filename string) error {
	fp, err := os.Open(filename)
	defer fp.Close()
	if err != nil {
		log.Println(err)
		return err
	}
	ext := filepath.Ext(filename)
	if ext == ".gz" {
		gzr, err := gzip.NewReader(fp)
		if err != nil {
			log.Println(err)
			return err
		}
		defer gzr.Close()
		return nt.ReadWtsJSON(gzr)
	}
	return nt.ReadWtsJSON(bufio.NewReader(fp))
}

// WriteWtsJSON writes all network weights in the checkpoint JSON format.
func (nt *Network) WriteWtsJSON(w io.Writer) error {
	ck := checkpoint{Network: nt.Nm, Vars: nt.VarList()}
	enc := json.NewEncoder(w)
	return enc.Encode(&ck)
}

// ReadWtsJSON reads network weights from the checkpoint JSON format,
// setting each parameter after shape validation.
func (nt *Network) ReadWtsJSON(r io.Reader) error {
	ck := checkpoint{}
	dec := json.NewDecoder(r)
	if err := dec.Decode(&ck); err != nil {
		log.Println(err)
		return err
	}
	if ck.Network != "" {
		nt.Nm = ck.Network
	}
	seen := make(map[string]bool, len(ck.Vars))
	for i := range ck.Vars {
		v := &ck.Vars[i]
		if err := nt.SetVar(v); err != nil {
			log.Println(err)
			return err
		}
		seen[v.Name] = true
	}
	for _, nm := range []string{VarWIn, VarWRec, VarBRec, VarWOut, VarBOut} {
		if !seen[nm] {
			return fmt.Errorf("rnn: checkpoint missing parameter %q", nm)
		}
	}
	return nil
}
