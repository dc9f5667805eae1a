// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package analysis

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/emer/multitask/task"
)

// DefaultFigDir is the directory figures are written to when no other
// directory is configured.
const DefaultFigDir = "figure"

// ruleTag is the rule's display name with spaces removed, as embedded in
// figure filenames.
func ruleTag(rule string) string {
	return strings.ReplaceAll(task.RuleName(rule), " ", "")
}

// SampleFile is the path for the styled input / output sample figure
// for given rule.
func SampleFile(dir, rule string) string {
	return filepath.Join(dir, "sample_"+ruleTag(rule)+".pdf")
}

// TraceFile is the path for a single-unit trace figure.  With a non-empty
// epoch the name embeds the rule and epoch; otherwise it embeds the unit
// index and rule.  suffix is an optional extra tag appended before the
// extension.
func TraceFile(dir, rule string, neuron int, epoch, suffix string) string {
	if epoch != "" {
		return filepath.Join(dir, "trace_"+ruleTag(rule)+epoch+suffix+".pdf")
	}
	return filepath.Join(dir, fmt.Sprintf("trace_unit%d%s%s.pdf", neuron, ruleTag(rule), suffix))
}

// HistFile is the path for an activity histogram figure.
func HistFile(dir, name string) string {
	return filepath.Join(dir, "activity_hist_"+name+".pdf")
}

// SchematicFile is the path for one part of the schematic figure set
// (input, rule, units, outputs).
func SchematicFile(dir, part string) string {
	return filepath.Join(dir, "schematic_"+part+".pdf")
}

// ActivityFile is the path for one panel of the simple trial activity
// figure set (input, recurrent, output).
func ActivityFile(dir, rule, part string) string {
	return filepath.Join(dir, "activity_"+rule+"_"+part+".pdf")
}

// ConnFile is the path for one connectivity matrix figure; the parameter
// name's slashes become underscores.
func ConnFile(dir, varNm string) string {
	return filepath.Join(dir, "connectivity_"+strings.ReplaceAll(varNm, "/", "_")+".pdf")
}
