// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package flow

import "github.com/mfc-lang/mfc/ir"

// exitLive is the liveness assumed at every function exit: return values may
// sit in any register, but no caller observes the flags.
const exitLive = LiveA | LiveX | LiveY

// LivenessAnalysis computes, for every line, the set of registers and flags
// still consumed after that line executes. The analysis runs backward to a
// fixpoint; calls conservatively treat everything as live.
func LivenessAnalysis(lines []ir.AssemblyLine) []Liveness {
	n := len(lines)
	out := make([]Liveness, n)
	in := make([]Liveness, n)
	if n == 0 {
		return out
	}

	labelIndex := make(map[string]int)
	for i, l := range lines {
		if name := l.LabelName(); name != "" {
			labelIndex[name] = i
		}
	}

	for pass := 0; pass < n+2; pass++ {
		changed := false
		for i := n - 1; i >= 0; i-- {
			l := lines[i]

			var o Liveness
			if l.Op.IsTerminal() {
				o = exitLive
			} else if i+1 < n {
				o = in[i+1]
			} else {
				o = exitLive
			}
			if target, ok := branchTarget(l, labelIndex); ok {
				o |= in[target]
			}

			newIn := lineUses(l) | (o &^ lineDefs(l))
			if o != out[i] || newIn != in[i] {
				out[i], in[i] = o, newIn
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	return out
}

// lineUses returns the registers and flags the line observes.
func lineUses(l ir.AssemblyLine) Liveness {
	switch l.Op {
	case ir.LABEL:
		return 0
	case ir.BYTE:
		// Raw data may be executed or jumped over; assume everything.
		return liveAll
	case ir.JSR, ir.BSR, ir.JSL, ir.BRK:
		return liveAll
	case ir.PHP:
		return LiveN | LiveZ | LiveC | LiveV | LiveD
	case ir.BEQ, ir.BNE:
		return LiveZ
	case ir.BCC, ir.BCS:
		return LiveC
	case ir.BMI, ir.BPL:
		return LiveN
	case ir.BVC, ir.BVS:
		return LiveV
	}

	var u Liveness
	if ir.ReadsA.Contains(l.Op) {
		u |= LiveA
	}
	if ir.ReadsX.Contains(l.Op) || l.Mode.ReadsX() {
		u |= LiveX
	}
	if ir.ReadsY.Contains(l.Op) || l.Mode.ReadsY() {
		u |= LiveY
	}
	if ir.ReadsC.Contains(l.Op) {
		u |= LiveC
	}
	if ir.ReadsD.Contains(l.Op) {
		u |= LiveD
	}
	return u
}

// lineDefs returns the registers and flags the line unconditionally rewrites.
func lineDefs(l ir.AssemblyLine) Liveness {
	switch l.Op {
	case ir.LABEL, ir.BYTE:
		return 0
	case ir.PLP, ir.RTI:
		return LiveN | LiveZ | LiveC | LiveV | LiveD
	}

	var d Liveness
	if ir.ChangesA.Contains(l.Op) {
		d |= LiveA
	}
	if ir.ChangesX.Contains(l.Op) {
		d |= LiveX
	}
	if ir.ChangesY.Contains(l.Op) {
		d |= LiveY
	}
	if ir.ChangesNZ.Contains(l.Op) {
		d |= LiveN | LiveZ
	}
	if ir.ChangesC.Contains(l.Op) {
		d |= LiveC
	}
	if ir.ChangesV.Contains(l.Op) {
		d |= LiveV
	}
	switch l.Op {
	case ir.CLD, ir.SED:
		d |= LiveD
	}
	return d
}
