// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package opt

import (
	"github.com/mfc-lang/mfc/flow"
	"github.com/mfc-lang/mfc/ir"
	"github.com/mfc-lang/mfc/prog"
)

// Block length ceiling and per-block search budget. The search space grows
// with the vocabulary to a power of the candidate length, so the budget is
// the real time bound.
const (
	superBlockMax = 5
	superBudget   = 60000
)

// Superoptimize replaces short straight-line blocks with the cheapest
// equivalent sequence it can find within the budget. Equivalence is checked
// operationally: original and candidate must agree on registers, touched
// memory and (when live) flags over a battery of seeded start states.
func Superoptimize(lines []ir.AssemblyLine, opts prog.CompilationOptions, cfg Config) []ir.AssemblyLine {
	lines = ir.CloneLines(lines)
	live := flow.LivenessAnalysis(lines)

	i := 0
	for i < len(lines) {
		j := i
		for j < len(lines) && j-i < superBlockMax && straightLine(lines[j]) {
			j++
		}
		if j-i >= 2 {
			flagsLive := live[j-1].HasAny(
				flow.LiveN | flow.LiveZ | flow.LiveC | flow.LiveV | flow.LiveD)
			if repl, ok := improveBlock(lines[i:j], flagsLive, opts, cfg.Metric); ok {
				if cfg.Log != nil {
					cfg.Log.Debugf("superoptimizer: %d line(s) became %d",
						j-i, len(repl))
				}
				lines = splice(lines, i, j-i, repl)
				live = flow.LivenessAnalysis(lines)
				i += len(repl) + 1
				continue
			}
		}
		if j > i {
			i = j
		} else {
			i++
		}
	}
	return lines
}

// straightLine admits lines the executor can model and that neither leave
// the block nor may be entered from outside it.
func straightLine(l ir.AssemblyLine) bool {
	if !l.Elidable {
		return false
	}
	switch l.Op {
	case ir.LABEL, ir.BYTE, ir.JSR, ir.BSR, ir.JSL, ir.BRK:
		return false
	}
	if l.Op.IsTerminal() || ir.ConditionalBranches.Contains(l.Op) {
		return false
	}
	return true
}

func improveBlock(block []ir.AssemblyLine, flagsLive bool,
	opts prog.CompilationOptions, metric prog.OptimizationMetric) ([]ir.AssemblyLine, bool) {

	states := superStates()
	want := make([]*MachineState, len(states))
	for i, s := range states {
		end := s.Clone()
		if !Execute(block, end) {
			return nil, false
		}
		want[i] = end
	}

	origCost := cost(block, metric)
	vocab := vocabulary(block, opts)
	budget := superBudget

	equivalent := func(cand []ir.AssemblyLine) bool {
		for i, s := range states {
			end := s.Clone()
			if !Execute(cand, end) || !end.Equal(want[i], flagsLive) {
				return false
			}
		}
		return true
	}

	// Iterative deepening: the first hit at a given length is only taken
	// when it beats the original under the metric.
	for n := 0; n < len(block); n++ {
		cand := make([]ir.AssemblyLine, n)
		if found := search(cand, 0, vocab, &budget, equivalent); found != nil {
			if cost(found, metric) < origCost {
				return found, true
			}
		}
		if budget <= 0 {
			break
		}
	}
	return nil, false
}

func search(cand []ir.AssemblyLine, depth int, vocab []ir.AssemblyLine,
	budget *int, equivalent func([]ir.AssemblyLine) bool) []ir.AssemblyLine {

	if depth == len(cand) {
		*budget--
		if equivalent(cand) {
			return append([]ir.AssemblyLine(nil), cand...)
		}
		return nil
	}
	for _, l := range vocab {
		if *budget <= 0 {
			return nil
		}
		cand[depth] = l
		if found := search(cand, depth+1, vocab, budget, equivalent); found != nil {
			return found
		}
	}
	return nil
}

// vocabulary enumerates the candidate instructions for one block: the
// implied register operations, immediate ALU forms over the constants the
// block mentions, and loads/stores of the operands the block touches.
func vocabulary(block []ir.AssemblyLine, opts prog.CompilationOptions) []ir.AssemblyLine {
	var out []ir.AssemblyLine

	implied := []ir.Opcode{
		ir.TAX, ir.TAY, ir.TXA, ir.TYA,
		ir.INX, ir.INY, ir.DEX, ir.DEY,
		ir.ASL, ir.LSR, ir.ROL, ir.ROR,
		ir.CLC, ir.SEC,
	}
	if opts.Arch.HasCmosOps() {
		implied = append(implied, ir.INC, ir.DEC)
	}
	for _, op := range implied {
		out = append(out, ir.ImpliedInsn(op))
	}

	consts := map[byte]bool{0: true, 1: true}
	type memRef struct {
		mode ir.AddrMode
		op   ir.Constant
	}
	var refs []memRef
	seen := map[string]bool{}
	for _, l := range block {
		if l.Mode == ir.Immediate {
			if b, ok := operandByte(l); ok {
				consts[b] = true
			}
			continue
		}
		if l.Mode.AccessesMemory() && l.Operand != nil {
			key := l.Mode.String() + "/" + l.Operand.String()
			if !seen[key] {
				seen[key] = true
				refs = append(refs, memRef{l.Mode, l.Operand})
			}
		}
	}

	// Map iteration order would make the search result run-dependent.
	var sortedConsts []byte
	for b := 0; b < 256; b++ {
		if consts[byte(b)] {
			sortedConsts = append(sortedConsts, byte(b))
		}
	}

	immOps := []ir.Opcode{ir.LDA, ir.LDX, ir.LDY, ir.AND, ir.ORA, ir.EOR,
		ir.ADC, ir.SBC, ir.CMP}
	for _, b := range sortedConsts {
		for _, op := range immOps {
			out = append(out, ir.Imm(op, ir.Num(int64(b))))
		}
	}

	memOps := []ir.Opcode{ir.LDA, ir.LDX, ir.LDY, ir.STA, ir.STX, ir.STY}
	if opts.Illegals && opts.Arch == ir.NMOS {
		memOps = append(memOps, ir.LAX, ir.SAX)
	}
	if opts.Arch.HasCmosOps() {
		memOps = append(memOps, ir.STZ)
	}
	for _, r := range refs {
		for _, op := range memOps {
			if ir.Legal(op, r.mode) {
				out = append(out, ir.Insn(op, r.mode, r.op))
			}
		}
	}
	return out
}

// superStates builds the battery of start states. Nonzero nonces give each
// state distinct untouched-memory contents.
func superStates() []*MachineState {
	corners := []byte{0x00, 0x01, 0x7f, 0x80, 0xff}
	var states []*MachineState
	nonce := uint64(1)
	for _, a := range corners {
		for _, x := range corners {
			s := NewSeededState(nonce)
			nonce++
			s.A, s.X, s.Y = a, x, a^x
			s.C = a&1 != 0
			s.N = x&0x80 != 0
			s.Z = a == x
			states = append(states, s)
		}
	}
	// The corner grid ties Y and the flags to A and X. Mix in states where
	// they vary independently, so an accidental relation in the grid cannot
	// pass for an invariant.
	h := uint64(0x6502a55a6502a55a)
	for i := 0; i < 8; i++ {
		s := NewSeededState(nonce)
		nonce++
		h = h*0x100000001b3 + 0x9e3779b9
		s.A, s.X, s.Y = byte(h), byte(h>>8), byte(h>>16)
		s.C = h&1<<24 != 0
		s.N = h&1<<25 != 0
		s.Z = h&1<<26 != 0
		s.V = h&1<<27 != 0
		states = append(states, s)
	}
	return states
}
