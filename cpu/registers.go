// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpu

// Registers is the architectural state of a 6502-family core.
type Registers struct {
	A                byte   // accumulator
	X                byte   // X index register
	Y                byte   // Y index register
	SP               byte   // stack pointer ($100 + SP = stack address)
	PC               uint16 // program counter
	Carry            bool
	Zero             bool
	InterruptDisable bool
	Decimal          bool
	Overflow         bool
	Sign             bool
}

// Bits of the processor status byte.
const (
	CarryBit            = 1 << 0
	ZeroBit             = 1 << 1
	InterruptDisableBit = 1 << 2
	DecimalBit          = 1 << 3
	BreakBit            = 1 << 4
	ReservedBit         = 1 << 5
	OverflowBit         = 1 << 6
	SignBit             = 1 << 7
)

// SavePS packs the status flags into a byte. The break bit is set when
// requested; the reserved bit always reads as on.
func (r *Registers) SavePS(brk bool) byte {
	var ps byte = ReservedBit
	if r.Carry {
		ps |= CarryBit
	}
	if r.Zero {
		ps |= ZeroBit
	}
	if r.InterruptDisable {
		ps |= InterruptDisableBit
	}
	if r.Decimal {
		ps |= DecimalBit
	}
	if brk {
		ps |= BreakBit
	}
	if r.Overflow {
		ps |= OverflowBit
	}
	if r.Sign {
		ps |= SignBit
	}
	return ps
}

// RestorePS unpacks a status byte into the flags.
func (r *Registers) RestorePS(ps byte) {
	r.Carry = ps&CarryBit != 0
	r.Zero = ps&ZeroBit != 0
	r.InterruptDisable = ps&InterruptDisableBit != 0
	r.Decimal = ps&DecimalBit != 0
	r.Overflow = ps&OverflowBit != 0
	r.Sign = ps&SignBit != 0
}

// Init resets the register file: A, X, Y and PC zero, SP at $ff, flags
// clear.
func (r *Registers) Init() {
	r.A = 0
	r.X = 0
	r.Y = 0
	r.SP = 0xff
	r.PC = 0
	r.RestorePS(0)
}
