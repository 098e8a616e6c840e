// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package opt

import (
	"fmt"

	"github.com/mfc-lang/mfc/ir"
)

// A MachineState is a concrete machine configuration used for operational
// equivalence checks. Memory is addressed symbolically by rendered operand,
// so unresolved symbols still execute deterministically.
type MachineState struct {
	A, X, Y       byte
	N, Z, C, V, D bool
	Mem           map[string]byte
	Stack         []byte

	// nonce seeds the content of memory cells that were never written:
	// a cell first read yields a deterministic pseudo-random byte derived
	// from its address and the nonce. Two states sharing a nonce agree on
	// every untouched cell.
	nonce uint64
}

// NewMachineState returns an empty state with zero-seeded memory.
func NewMachineState() *MachineState {
	return &MachineState{Mem: make(map[string]byte)}
}

// NewSeededState returns a state whose untouched memory reads as a
// deterministic function of the nonce.
func NewSeededState(nonce uint64) *MachineState {
	return &MachineState{Mem: make(map[string]byte), nonce: nonce}
}

func seedByte(key string, nonce uint64) byte {
	if nonce == 0 {
		return 0
	}
	h := nonce ^ 0xcbf29ce484222325
	for i := 0; i < len(key); i++ {
		h ^= uint64(key[i])
		h *= 0x100000001b3
	}
	return byte(h ^ h>>32)
}

// read materializes a memory cell.
func (s *MachineState) read(k string) byte {
	v, ok := s.Mem[k]
	if !ok {
		v = seedByte(k, s.nonce)
		s.Mem[k] = v
	}
	return v
}

// Clone deep-copies the state.
func (s *MachineState) Clone() *MachineState {
	c := *s
	c.Mem = make(map[string]byte, len(s.Mem))
	for k, v := range s.Mem {
		c.Mem[k] = v
	}
	c.Stack = append([]byte(nil), s.Stack...)
	return &c
}

// Equal compares two states, ignoring flags not in the mask.
func (s *MachineState) Equal(t *MachineState, liveFlags bool) bool {
	if s.A != t.A || s.X != t.X || s.Y != t.Y {
		return false
	}
	if liveFlags {
		if s.N != t.N || s.Z != t.Z || s.C != t.C || s.V != t.V || s.D != t.D {
			return false
		}
	}
	if len(s.Stack) != len(t.Stack) {
		return false
	}
	for i := range s.Stack {
		if s.Stack[i] != t.Stack[i] {
			return false
		}
	}
	// Compare the union of touched cells. A cell one side never touched
	// still holds its seeded value there.
	for k, v := range s.Mem {
		if w, ok := t.Mem[k]; ok {
			if w != v {
				return false
			}
		} else if seedByte(k, t.nonce) != v {
			return false
		}
	}
	for k, v := range t.Mem {
		if _, ok := s.Mem[k]; !ok && seedByte(k, s.nonce) != v {
			return false
		}
	}
	return true
}

// addrKey renders the effective address of a memory operand. ok=false for
// modes the executor does not model (indirection through pointers).
func (s *MachineState) addrKey(l ir.AssemblyLine) (string, bool) {
	if l.Operand == nil {
		return "", false
	}
	base := l.Operand.String()
	switch l.Mode {
	case ir.ZeroPage, ir.Absolute:
		return base, true
	case ir.ZeroPageX, ir.AbsoluteX:
		return fmt.Sprintf("%s+%d", base, s.X), true
	case ir.ZeroPageY, ir.AbsoluteY:
		return fmt.Sprintf("%s+%d", base, s.Y), true
	}
	return "", false
}

func (s *MachineState) setNZ(b byte) {
	s.N = b&0x80 != 0
	s.Z = b == 0
}

// Execute runs a straight-line sequence against the state. It reports
// ok=false when the sequence contains control flow or an opcode it does not
// model; callers must then fall back to conservative behavior.
func Execute(lines []ir.AssemblyLine, s *MachineState) bool {
	for _, l := range lines {
		if !step(l, s) {
			return false
		}
	}
	return true
}

func step(l ir.AssemblyLine, s *MachineState) bool {
	// Memory operand helpers; imm covers immediate operands only.
	imm, hasImm := operandByte(l)
	load := func() (byte, bool) {
		if l.Mode == ir.Immediate {
			return imm, hasImm
		}
		k, ok := s.addrKey(l)
		if !ok {
			return 0, false
		}
		return s.read(k), true
	}
	store := func(b byte) bool {
		k, ok := s.addrKey(l)
		if !ok {
			return false
		}
		s.Mem[k] = b
		return true
	}
	push := func(b byte) { s.Stack = append(s.Stack, b) }
	pull := func() (byte, bool) {
		if len(s.Stack) == 0 {
			return 0, false
		}
		b := s.Stack[len(s.Stack)-1]
		s.Stack = s.Stack[:len(s.Stack)-1]
		return b, true
	}

	switch l.Op {
	case ir.NOP:
		return true

	case ir.LDA:
		v, ok := load()
		if !ok {
			return false
		}
		s.A = v
		s.setNZ(v)
	case ir.LDX:
		v, ok := load()
		if !ok {
			return false
		}
		s.X = v
		s.setNZ(v)
	case ir.LDY:
		v, ok := load()
		if !ok {
			return false
		}
		s.Y = v
		s.setNZ(v)
	case ir.LAX:
		v, ok := load()
		if !ok {
			return false
		}
		s.A, s.X = v, v
		s.setNZ(v)

	case ir.STA:
		return store(s.A)
	case ir.STX:
		return store(s.X)
	case ir.STY:
		return store(s.Y)
	case ir.STZ:
		return store(0)
	case ir.SAX:
		return store(s.A & s.X)

	case ir.TAX:
		s.X = s.A
		s.setNZ(s.X)
	case ir.TAY:
		s.Y = s.A
		s.setNZ(s.Y)
	case ir.TXA:
		s.A = s.X
		s.setNZ(s.A)
	case ir.TYA:
		s.A = s.Y
		s.setNZ(s.A)
	case ir.TXY:
		s.Y = s.X
		s.setNZ(s.Y)
	case ir.TYX:
		s.X = s.Y
		s.setNZ(s.X)

	case ir.INX:
		s.X++
		s.setNZ(s.X)
	case ir.DEX:
		s.X--
		s.setNZ(s.X)
	case ir.INY:
		s.Y++
		s.setNZ(s.Y)
	case ir.DEY:
		s.Y--
		s.setNZ(s.Y)

	case ir.INC, ir.DEC:
		delta := byte(1)
		if l.Op == ir.DEC {
			delta = 0xff
		}
		if l.Mode == ir.Implied {
			s.A += delta
			s.setNZ(s.A)
			return true
		}
		k, ok := s.addrKey(l)
		if !ok {
			return false
		}
		s.Mem[k] = s.read(k) + delta
		s.setNZ(s.Mem[k])

	case ir.CLC:
		s.C = false
	case ir.SEC:
		s.C = true
	case ir.CLD:
		s.D = false
	case ir.SED:
		s.D = true
	case ir.CLV:
		s.V = false
	case ir.CLA:
		s.A = 0
	case ir.CLX:
		s.X = 0
	case ir.CLY:
		s.Y = 0

	case ir.AND, ir.ORA, ir.EOR:
		v, ok := load()
		if !ok {
			return false
		}
		switch l.Op {
		case ir.AND:
			s.A &= v
		case ir.ORA:
			s.A |= v
		default:
			s.A ^= v
		}
		s.setNZ(s.A)

	case ir.ADC:
		if s.D {
			return false
		}
		v, ok := load()
		if !ok {
			return false
		}
		sum := int(s.A) + int(v)
		if s.C {
			sum++
		}
		r := byte(sum)
		s.V = (s.A^r)&(v^r)&0x80 != 0
		s.C = sum > 0xff
		s.A = r
		s.setNZ(r)
	case ir.SBC:
		if s.D {
			return false
		}
		v, ok := load()
		if !ok {
			return false
		}
		diff := int(s.A) - int(v)
		if !s.C {
			diff--
		}
		r := byte(diff)
		s.V = (s.A^v)&(s.A^r)&0x80 != 0
		s.C = diff >= 0
		s.A = r
		s.setNZ(r)
	case ir.NEG:
		s.A = -s.A
		s.setNZ(s.A)

	case ir.CMP, ir.CPX, ir.CPY:
		v, ok := load()
		if !ok {
			return false
		}
		var reg byte
		switch l.Op {
		case ir.CMP:
			reg = s.A
		case ir.CPX:
			reg = s.X
		default:
			reg = s.Y
		}
		s.C = reg >= v
		s.setNZ(reg - v)
	case ir.SBX:
		if l.Mode != ir.Immediate || !hasImm {
			return false
		}
		v := s.A & s.X
		s.C = v >= imm
		s.X = v - imm
		s.setNZ(s.X)

	case ir.ASL, ir.LSR, ir.ROL, ir.ROR:
		apply := func(b byte) byte {
			switch l.Op {
			case ir.ASL:
				s.C = b&0x80 != 0
				return b << 1
			case ir.LSR:
				s.C = b&1 != 0
				return b >> 1
			case ir.ROL:
				carry := s.C
				s.C = b&0x80 != 0
				b <<= 1
				if carry {
					b |= 1
				}
				return b
			default:
				carry := s.C
				s.C = b&1 != 0
				b >>= 1
				if carry {
					b |= 0x80
				}
				return b
			}
		}
		if l.Mode == ir.Implied {
			s.A = apply(s.A)
			s.setNZ(s.A)
			return true
		}
		k, ok := s.addrKey(l)
		if !ok {
			return false
		}
		s.Mem[k] = apply(s.read(k))
		s.setNZ(s.Mem[k])
	case ir.ALR:
		if !hasImm {
			return false
		}
		s.A &= imm
		s.C = s.A&1 != 0
		s.A >>= 1
		s.setNZ(s.A)
	case ir.ANC:
		if !hasImm {
			return false
		}
		s.A &= imm
		s.setNZ(s.A)
		s.C = s.N

	case ir.DCP, ir.ISC, ir.SLO, ir.SRE, ir.RLA, ir.RRA:
		k, ok := s.addrKey(l)
		if !ok {
			return false
		}
		switch l.Op {
		case ir.DCP:
			s.Mem[k] = s.read(k) - 1
			s.C = s.A >= s.Mem[k]
			s.setNZ(s.A - s.Mem[k])
		case ir.ISC:
			if s.D {
				return false
			}
			s.Mem[k] = s.read(k) + 1
			v := s.Mem[k]
			diff := int(s.A) - int(v)
			if !s.C {
				diff--
			}
			r := byte(diff)
			s.V = (s.A^v)&(s.A^r)&0x80 != 0
			s.C = diff >= 0
			s.A = r
			s.setNZ(r)
		case ir.SLO:
			v := s.read(k)
			s.C = v&0x80 != 0
			s.Mem[k] = v << 1
			s.A |= s.Mem[k]
			s.setNZ(s.A)
		case ir.SRE:
			v := s.read(k)
			s.C = v&1 != 0
			s.Mem[k] = v >> 1
			s.A ^= s.Mem[k]
			s.setNZ(s.A)
		case ir.RLA:
			carry := s.C
			v := s.read(k)
			s.C = v&0x80 != 0
			v <<= 1
			if carry {
				v |= 1
			}
			s.Mem[k] = v
			s.A &= v
			s.setNZ(s.A)
		case ir.RRA:
			if s.D {
				return false
			}
			carry := s.C
			v := s.read(k)
			s.C = v&1 != 0
			v >>= 1
			if carry {
				v |= 0x80
			}
			s.Mem[k] = v
			sum := int(s.A) + int(v)
			if s.C {
				sum++
			}
			r := byte(sum)
			s.V = (s.A^r)&(v^r)&0x80 != 0
			s.C = sum > 0xff
			s.A = r
			s.setNZ(r)
		}

	case ir.BIT:
		v, ok := load()
		if !ok {
			return false
		}
		s.Z = s.A&v == 0
		// BIT # (65C02) sets only Z; the memory forms copy bits 7/6.
		if l.Mode != ir.Immediate {
			s.N = v&0x80 != 0
			s.V = v&0x40 != 0
		}

	case ir.PHA:
		push(s.A)
	case ir.PHX:
		push(s.X)
	case ir.PHY:
		push(s.Y)
	case ir.PLA:
		v, ok := pull()
		if !ok {
			return false
		}
		s.A = v
		s.setNZ(v)
	case ir.PLX:
		v, ok := pull()
		if !ok {
			return false
		}
		s.X = v
		s.setNZ(v)
	case ir.PLY:
		v, ok := pull()
		if !ok {
			return false
		}
		s.Y = v
		s.setNZ(v)
	case ir.PHP:
		var p byte
		if s.N {
			p |= 0x80
		}
		if s.V {
			p |= 0x40
		}
		if s.D {
			p |= 0x08
		}
		if s.Z {
			p |= 0x02
		}
		if s.C {
			p |= 0x01
		}
		push(p)
	case ir.PLP:
		p, ok := pull()
		if !ok {
			return false
		}
		s.N = p&0x80 != 0
		s.V = p&0x40 != 0
		s.D = p&0x08 != 0
		s.Z = p&0x02 != 0
		s.C = p&0x01 != 0

	default:
		return false
	}
	return true
}
