// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"fmt"

	"github.com/mfc-lang/mfc/ir"
)

var branchInverse = map[ir.Opcode]ir.Opcode{
	ir.BEQ: ir.BNE, ir.BNE: ir.BEQ,
	ir.BCC: ir.BCS, ir.BCS: ir.BCC,
	ir.BMI: ir.BPL, ir.BPL: ir.BMI,
	ir.BVC: ir.BVS, ir.BVS: ir.BVC,
}

// relax sizes a function's lines with every branch assumed short, then
// rewrites any branch whose target lands outside the ±127 byte window: a
// conditional branch becomes its inverse hopping over a JMP, and BRA/BSR
// become the absolute form. Rewrites can push other branches out of range,
// so the scan repeats until nothing moves.
func (a *assembler) relax(lines []ir.AssemblyLine) []ir.AssemblyLine {
	lines = ir.CloneLines(lines)
	for {
		offsets, labels := layout(lines)
		idx := -1
		for i, l := range lines {
			if l.Mode != ir.Relative {
				continue
			}
			target, ok := labelTarget(l, labels)
			if !ok {
				// Branches to symbols outside the function cannot be
				// range-checked here; emission will reject them.
				continue
			}
			disp := target - (offsets[i] + 2)
			if disp < -128 || disp > 127 {
				idx = i
				break
			}
		}
		if idx < 0 {
			return lines
		}
		lines = a.rewriteLongBranch(lines, idx)
	}
}

func layout(lines []ir.AssemblyLine) (offsets []int, labels map[string]int) {
	offsets = make([]int, len(lines))
	labels = map[string]int{}
	off := 0
	for i, l := range lines {
		offsets[i] = off
		if l.Op == ir.LABEL {
			labels[l.LabelName()] = off
		}
		off += l.SizeInBytes()
	}
	return offsets, labels
}

func labelTarget(l ir.AssemblyLine, labels map[string]int) (int, bool) {
	addr, ok := l.Operand.(ir.MemoryAddressConstant)
	if !ok {
		return 0, false
	}
	off, ok := labels[addr.Name]
	return off, ok
}

func (a *assembler) rewriteLongBranch(lines []ir.AssemblyLine, idx int) []ir.AssemblyLine {
	l := lines[idx]
	target := l.Operand.(ir.MemoryAddressConstant).Name

	var repl []ir.AssemblyLine
	if inv, ok := branchInverse[l.Op]; ok {
		a.detour++
		skip := fmt.Sprintf(".rb_%04d", a.detour)
		repl = []ir.AssemblyLine{
			ir.Rel(inv, skip),
			ir.Insn(ir.JMP, ir.Absolute, ir.Addr(target)),
			ir.LabelLine(skip),
		}
	} else {
		// BRA and BSR widen to their absolute forms.
		op := ir.JMP
		if l.Op == ir.BSR {
			op = ir.JSR
		}
		repl = []ir.AssemblyLine{ir.Insn(op, ir.Absolute, ir.Addr(target))}
	}
	if !l.Elidable {
		for i := range repl {
			repl[i] = repl[i].Pinned()
		}
	}

	out := make([]ir.AssemblyLine, 0, len(lines)+len(repl)-1)
	out = append(out, lines[:idx]...)
	out = append(out, repl...)
	out = append(out, lines[idx+1:]...)
	return out
}
