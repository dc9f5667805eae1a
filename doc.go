// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package multitask is the repository for analysis of recurrent networks
trained on batteries of simple cognitive tasks (ring-coded decision making,
delayed match tasks, etc).

This top-level of the repository has no functional code -- everything is
organized into the following sub-packages:

* task: the trial generator -- builds input / target tensors and epoch
timing for each task rule, and wraps them in a standard environment.

* rnn: the model handle -- hyperparameters, checkpoint restore, and the
forward pass producing hidden activity and output tensors.

* analysis: the standard analyses that can be performed on any trained
model: activity and connectivity heatmaps, per-unit traces, activity
histograms, and schematic figures, all rendered to PDF files.

* cmd/multitask: command-line driver for running the analyses.
*/
package multitask
