// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package opt

import (
	"strings"

	"github.com/mfc-lang/mfc/ir"
)

// RemoveUnusedLocalLabels deletes elidable definitions of local labels
// (names starting with '.') that no line in the function refers to. Global
// labels may be targeted from other functions and always survive.
func RemoveUnusedLocalLabels(lines []ir.AssemblyLine) []ir.AssemblyLine {
	names := labelNames(lines)
	used := make(map[string]bool)
	for _, l := range lines {
		if l.Op == ir.LABEL || l.Operand == nil {
			continue
		}
		for _, candidate := range names {
			if l.RefersToLabel(candidate) {
				used[candidate] = true
			}
		}
	}

	out := lines[:0:0]
	for _, l := range lines {
		name := l.LabelName()
		if name != "" && l.Elidable && strings.HasPrefix(name, ".") && !used[name] {
			continue
		}
		out = append(out, l)
	}
	return out
}

func labelNames(lines []ir.AssemblyLine) []string {
	var names []string
	for _, l := range lines {
		if n := l.LabelName(); n != "" {
			names = append(names, n)
		}
	}
	return names
}
