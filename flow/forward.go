// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package flow

import "github.com/mfc-lang/mfc/ir"

// Analyze computes the abstract CPU state holding before every line of a
// function. The analysis is a forward fixpoint over a finite lattice, so it
// converges in at most O(lines) sweeps; branch targets join the states of
// all their predecessors.
func Analyze(lines []ir.AssemblyLine) []Status {
	n := len(lines)
	in := make([]Status, n)
	reached := make([]bool, n)
	if n == 0 {
		return in
	}

	labelIndex := make(map[string]int)
	for i, l := range lines {
		if name := l.LabelName(); name != "" {
			labelIndex[name] = i
		}
	}

	merge := func(idx int, s Status, changed *bool) {
		if idx < 0 || idx >= n {
			return
		}
		if !reached[idx] {
			in[idx] = s
			reached[idx] = true
			*changed = true
			return
		}
		j := in[idx].Join(s)
		if j != in[idx] {
			in[idx] = j
			*changed = true
		}
	}

	in[0] = UnknownStatus()
	reached[0] = true

	for pass := 0; pass < n+2; pass++ {
		changed := false
		for i := 0; i < n; i++ {
			if !reached[i] {
				continue
			}
			l := lines[i]
			out := Transfer(in[i], l)

			if target, ok := branchTarget(l, labelIndex); ok {
				taken, fallthrough_ := refineBranch(out, l.Op)
				merge(target, taken, &changed)
				if !l.Op.IsTerminal() {
					merge(i+1, fallthrough_, &changed)
				}
				continue
			}
			if !l.Op.IsTerminal() {
				merge(i+1, out, &changed)
			}
		}
		if !changed {
			break
		}
	}

	// Dead lines keep the conservative entry state so rule preconditions
	// never assume more than the analysis proved.
	for i := range in {
		if !reached[i] {
			in[i] = UnknownStatus()
		}
	}
	return in
}

func branchTarget(l ir.AssemblyLine, labels map[string]int) (int, bool) {
	if !ir.ConditionalBranches.Contains(l.Op) && !ir.AllDirectJumps.Contains(l.Op) {
		return 0, false
	}
	if l.Mode != ir.Relative && l.Mode != ir.Absolute {
		return 0, false
	}
	a, ok := l.Operand.(ir.MemoryAddressConstant)
	if !ok {
		return 0, false
	}
	idx, ok := labels[a.Name]
	return idx, ok
}

// refineBranch splits the post-state of a conditional branch into the
// taken and fall-through states, pinning the tested flag in each.
func refineBranch(s Status, op ir.Opcode) (taken, fall Status) {
	taken, fall = s, s
	switch op {
	case ir.BEQ:
		taken.Z, fall.Z = FlagSet, FlagClear
	case ir.BNE:
		taken.Z, fall.Z = FlagClear, FlagSet
	case ir.BCS:
		taken.C, fall.C = FlagSet, FlagClear
	case ir.BCC:
		taken.C, fall.C = FlagClear, FlagSet
	case ir.BMI:
		taken.N, fall.N = FlagSet, FlagClear
	case ir.BPL:
		taken.N, fall.N = FlagClear, FlagSet
	case ir.BVS:
		taken.V, fall.V = FlagSet, FlagClear
	case ir.BVC:
		taken.V, fall.V = FlagClear, FlagSet
	}
	return taken, fall
}

func immediateByte(l ir.AssemblyLine) (byte, bool) {
	if l.Mode != ir.Immediate || l.Operand == nil {
		return 0, false
	}
	v, ok := l.Operand.Eval(nil)
	if !ok {
		return 0, false
	}
	return byte(v), true
}

// Transfer applies one line's operational semantics to the abstract state.
// Anything it cannot model precisely degrades to Unknown; it never claims
// knowledge the concrete machine might contradict.
func Transfer(s Status, l ir.AssemblyLine) Status {
	imm, hasImm := immediateByte(l)

	switch l.Op {
	case ir.LABEL:
		return s

	case ir.BYTE:
		// Raw data in the instruction stream is an analysis barrier.
		return UnknownStatus()

	case ir.LDA:
		if hasImm {
			s.setReg(RegA, KnownValue(imm))
		} else {
			s.setReg(RegA, UnknownValue())
		}
		s.setNZ(s.A)
		return s

	case ir.LDX:
		if hasImm {
			s.setReg(RegX, KnownValue(imm))
		} else {
			s.setReg(RegX, UnknownValue())
		}
		s.setNZ(s.X)
		return s

	case ir.LDY:
		if hasImm {
			s.setReg(RegY, KnownValue(imm))
		} else {
			s.setReg(RegY, UnknownValue())
		}
		s.setNZ(s.Y)
		return s

	case ir.TAX:
		s.setReg(RegX, aliasOrKnown(s, RegA))
		s.setNZ(s.X)
		return s
	case ir.TAY:
		s.setReg(RegY, aliasOrKnown(s, RegA))
		s.setNZ(s.Y)
		return s
	case ir.TXA:
		s.setReg(RegA, aliasOrKnown(s, RegX))
		s.setNZ(s.A)
		return s
	case ir.TYA:
		s.setReg(RegA, aliasOrKnown(s, RegY))
		s.setNZ(s.A)
		return s
	case ir.TSX:
		s.setReg(RegX, UnknownValue())
		s.setNZ(s.X)
		return s
	case ir.TXS:
		return s

	case ir.INX:
		s.setReg(RegX, stepValue(s.X, 1))
		s.setNZ(s.X)
		return s
	case ir.DEX:
		s.setReg(RegX, stepValue(s.X, -1))
		s.setNZ(s.X)
		return s
	case ir.INY:
		s.setReg(RegY, stepValue(s.Y, 1))
		s.setNZ(s.Y)
		return s
	case ir.DEY:
		s.setReg(RegY, stepValue(s.Y, -1))
		s.setNZ(s.Y)
		return s

	case ir.INC, ir.DEC:
		if l.Mode == ir.Implied {
			delta := 1
			if l.Op == ir.DEC {
				delta = -1
			}
			s.setReg(RegA, stepValue(s.A, delta))
			s.setNZ(s.A)
			return s
		}
		s.N, s.Z = FlagUnknown, FlagUnknown
		return s

	case ir.CLC:
		s.C = FlagClear
		return s
	case ir.SEC:
		s.C = FlagSet
		return s
	case ir.CLD:
		s.D = FlagClear
		return s
	case ir.SED:
		s.D = FlagSet
		return s
	case ir.CLI:
		s.I = FlagClear
		return s
	case ir.SEI:
		s.I = FlagSet
		return s
	case ir.CLV:
		s.V = FlagClear
		return s

	case ir.AND:
		s.setReg(RegA, binOpValue(s.A, imm, hasImm, func(a, b byte) byte { return a & b }))
		if hasImm && imm == 0 {
			s.setReg(RegA, KnownValue(0))
		}
		s.setNZ(s.A)
		return s
	case ir.ORA:
		s.setReg(RegA, binOpValue(s.A, imm, hasImm, func(a, b byte) byte { return a | b }))
		if hasImm && imm == 0xff {
			s.setReg(RegA, KnownValue(0xff))
		}
		s.setNZ(s.A)
		return s
	case ir.EOR:
		s.setReg(RegA, binOpValue(s.A, imm, hasImm, func(a, b byte) byte { return a ^ b }))
		s.setNZ(s.A)
		return s

	case ir.ADC:
		s = transferADC(s, imm, hasImm)
		return s
	case ir.SBC:
		s = transferSBC(s, imm, hasImm)
		return s

	case ir.CMP:
		return transferCompare(s, s.A, imm, hasImm)
	case ir.CPX:
		return transferCompare(s, s.X, imm, hasImm)
	case ir.CPY:
		return transferCompare(s, s.Y, imm, hasImm)

	case ir.ASL:
		if l.Mode == ir.Implied {
			if a, ok := s.A.Known(); ok {
				s.C = flagOf(a&0x80 != 0)
				s.setReg(RegA, KnownValue(a<<1))
			} else {
				s.C = FlagUnknown
				s.setReg(RegA, UnknownValue())
			}
			s.setNZ(s.A)
			return s
		}
		s.N, s.Z, s.C = FlagUnknown, FlagUnknown, FlagUnknown
		return s
	case ir.LSR:
		if l.Mode == ir.Implied {
			if a, ok := s.A.Known(); ok {
				s.C = flagOf(a&1 != 0)
				s.setReg(RegA, KnownValue(a>>1))
			} else {
				s.C = FlagUnknown
				s.setReg(RegA, UnknownValue())
			}
			s.setNZ(s.A)
			return s
		}
		s.N, s.Z, s.C = FlagUnknown, FlagUnknown, FlagUnknown
		return s
	case ir.ROL, ir.ROR:
		if l.Mode == ir.Implied {
			s = transferRotate(s, l.Op == ir.ROL)
			return s
		}
		s.N, s.Z, s.C = FlagUnknown, FlagUnknown, FlagUnknown
		return s

	case ir.BIT:
		s.N, s.Z, s.V = FlagUnknown, FlagUnknown, FlagUnknown
		return s

	case ir.STA, ir.STX, ir.STY, ir.STZ, ir.SAX, ir.NOP,
		ir.PHA, ir.PHP, ir.PHX, ir.PHY:
		return s

	case ir.PLA:
		s.setReg(RegA, UnknownValue())
		s.setNZ(s.A)
		return s
	case ir.PLX:
		s.setReg(RegX, UnknownValue())
		s.setNZ(s.X)
		return s
	case ir.PLY:
		s.setReg(RegY, UnknownValue())
		s.setNZ(s.Y)
		return s
	case ir.PLP:
		s.N, s.Z, s.C, s.V, s.D, s.I = FlagUnknown, FlagUnknown,
			FlagUnknown, FlagUnknown, FlagUnknown, FlagUnknown
		return s

	case ir.JSR, ir.BRK:
		// Callee effects are not tracked.
		return UnknownStatus()
	}

	// Conservative fallback driven by the classification sets.
	if ir.ChangesA.Contains(l.Op) {
		s.setReg(RegA, UnknownValue())
	}
	if ir.ChangesX.Contains(l.Op) {
		s.setReg(RegX, UnknownValue())
	}
	if ir.ChangesY.Contains(l.Op) {
		s.setReg(RegY, UnknownValue())
	}
	if ir.ChangesNZ.Contains(l.Op) {
		s.N, s.Z = FlagUnknown, FlagUnknown
	}
	if ir.ChangesC.Contains(l.Op) {
		s.C = FlagUnknown
	}
	if ir.ChangesV.Contains(l.Op) {
		s.V = FlagUnknown
	}
	return s
}

func aliasOrKnown(s Status, r Register) Value {
	if b, ok := s.Reg(r).Known(); ok {
		return KnownValue(b)
	}
	return SameAsValue(r)
}

func stepValue(v Value, delta int) Value {
	if b, ok := v.Known(); ok {
		return KnownValue(byte(int(b) + delta))
	}
	return UnknownValue()
}

func binOpValue(v Value, imm byte, hasImm bool, f func(a, b byte) byte) Value {
	if b, ok := v.Known(); ok && hasImm {
		return KnownValue(f(b, imm))
	}
	return UnknownValue()
}

func transferADC(s Status, imm byte, hasImm bool) Status {
	a, aKnown := s.A.Known()
	carry, cKnown := s.C.Known()
	if aKnown && cKnown && hasImm && s.D == FlagClear {
		sum := int(a) + int(imm)
		if carry {
			sum++
		}
		r := byte(sum)
		s.V = flagOf((a^r)&(imm^r)&0x80 != 0)
		s.C = flagOf(sum > 0xff)
		s.setReg(RegA, KnownValue(r))
		s.setNZ(s.A)
		return s
	}
	s.setReg(RegA, UnknownValue())
	s.N, s.Z, s.C, s.V = FlagUnknown, FlagUnknown, FlagUnknown, FlagUnknown
	return s
}

func transferSBC(s Status, imm byte, hasImm bool) Status {
	a, aKnown := s.A.Known()
	carry, cKnown := s.C.Known()
	if aKnown && cKnown && hasImm && s.D == FlagClear {
		diff := int(a) - int(imm)
		if !carry {
			diff--
		}
		r := byte(diff)
		s.V = flagOf((a^imm)&(a^r)&0x80 != 0)
		s.C = flagOf(diff >= 0)
		s.setReg(RegA, KnownValue(r))
		s.setNZ(s.A)
		return s
	}
	s.setReg(RegA, UnknownValue())
	s.N, s.Z, s.C, s.V = FlagUnknown, FlagUnknown, FlagUnknown, FlagUnknown
	return s
}

func transferCompare(s Status, reg Value, imm byte, hasImm bool) Status {
	if b, ok := reg.Known(); ok && hasImm {
		diff := b - imm
		s.C = flagOf(b >= imm)
		s.Z = flagOf(diff == 0)
		s.N = flagOf(diff&0x80 != 0)
		return s
	}
	s.N, s.Z, s.C = FlagUnknown, FlagUnknown, FlagUnknown
	return s
}

func transferRotate(s Status, left bool) Status {
	a, aKnown := s.A.Known()
	carry, cKnown := s.C.Known()
	if aKnown && cKnown {
		var r byte
		if left {
			r = a << 1
			if carry {
				r |= 1
			}
			s.C = flagOf(a&0x80 != 0)
		} else {
			r = a >> 1
			if carry {
				r |= 0x80
			}
			s.C = flagOf(a&1 != 0)
		}
		s.setReg(RegA, KnownValue(r))
		s.setNZ(s.A)
		return s
	}
	s.setReg(RegA, UnknownValue())
	s.N, s.Z, s.C = FlagUnknown, FlagUnknown, FlagUnknown
	return s
}
