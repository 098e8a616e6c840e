// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package disasm turns memory back into assembly text. It decodes through
// the same instruction matrix the assembler encodes with, so every byte
// sequence the compiler can emit disassembles to the mnemonic it came from.
package disasm

import (
	"fmt"

	"github.com/mfc-lang/mfc/cpu"
	"github.com/mfc-lang/mfc/ir"
)

type entry struct {
	op    ir.Opcode
	mode  ir.AddrMode
	bytes byte
	valid bool
}

// A Disassembler decodes instructions for one architecture.
type Disassembler struct {
	table [256]entry
}

// New creates a disassembler for the architecture. Undocumented opcodes
// decode only when illegals is set.
func New(arch ir.Arch, illegals bool) *Disassembler {
	d := &Disassembler{}
	for _, e := range ir.DecodeTable(arch, illegals) {
		d.table[e.Enc] = entry{
			op:    e.Op,
			mode:  e.Mode,
			bytes: byte(ir.Bytes(e.Op, e.Mode)),
			valid: true,
		}
	}
	return d
}

// Disassemble decodes the instruction at addr and returns its text and the
// address of the next instruction. Undecodable bytes render as .DB
// directives so a dump never stalls.
func (d *Disassembler) Disassemble(m cpu.Memory, addr uint16) (text string, next uint16) {
	opcode := m.LoadByte(addr)
	e := d.table[opcode]
	if !e.valid {
		return fmt.Sprintf(".DB $%02X", opcode), addr + 1
	}

	var buf [2]byte
	operand := buf[:e.bytes-1]
	m.LoadBytes(addr+1, operand)

	return e.op.String() + operandText(e.mode, operand, addr+uint16(e.bytes)), addr + uint16(e.bytes)
}

// InstructionBytes returns the encoded bytes of the instruction at addr.
func (d *Disassembler) InstructionBytes(m cpu.Memory, addr uint16) []byte {
	e := d.table[m.LoadByte(addr)]
	n := byte(1)
	if e.valid {
		n = e.bytes
	}
	b := make([]byte, n)
	m.LoadBytes(addr, b)
	return b
}

func operandText(mode ir.AddrMode, operand []byte, next uint16) string {
	switch mode {
	case ir.Implied:
		return ""
	case ir.Immediate:
		return fmt.Sprintf(" #$%02X", operand[0])
	case ir.ZeroPage:
		return fmt.Sprintf(" $%02X", operand[0])
	case ir.ZeroPageX:
		return fmt.Sprintf(" $%02X,X", operand[0])
	case ir.ZeroPageY:
		return fmt.Sprintf(" $%02X,Y", operand[0])
	case ir.Absolute:
		return fmt.Sprintf(" $%04X", word(operand))
	case ir.AbsoluteX:
		return fmt.Sprintf(" $%04X,X", word(operand))
	case ir.AbsoluteY:
		return fmt.Sprintf(" $%04X,Y", word(operand))
	case ir.Indirect:
		return fmt.Sprintf(" ($%04X)", word(operand))
	case ir.IndexedX:
		return fmt.Sprintf(" ($%02X,X)", operand[0])
	case ir.IndexedY:
		return fmt.Sprintf(" ($%02X),Y", operand[0])
	case ir.IndexedZ:
		return fmt.Sprintf(" ($%02X)", operand[0])
	case ir.Relative:
		offset := uint16(operand[0])
		if offset < 0x80 {
			return fmt.Sprintf(" $%04X", next+offset)
		}
		return fmt.Sprintf(" $%04X", next-(0x100-offset))
	default:
		return fmt.Sprintf(" $%02X", operand[0])
	}
}

func word(operand []byte) uint16 {
	return uint16(operand[0]) | uint16(operand[1])<<8
}
