// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpu

import "github.com/mfc-lang/mfc/ir"

// exec dispatches one decoded instruction. BRK never reaches here.
func (c *CPU) exec(in instruction, operand []byte) {
	switch in.op {
	case ir.LDA:
		c.Reg.A = c.load(in.mode, operand)
		c.updateNZ(c.Reg.A)
	case ir.LDX:
		c.Reg.X = c.load(in.mode, operand)
		c.updateNZ(c.Reg.X)
	case ir.LDY:
		c.Reg.Y = c.load(in.mode, operand)
		c.updateNZ(c.Reg.Y)
	case ir.STA:
		c.store(in.mode, operand, c.Reg.A)
	case ir.STX:
		c.store(in.mode, operand, c.Reg.X)
	case ir.STY:
		c.store(in.mode, operand, c.Reg.Y)
	case ir.STZ:
		c.store(in.mode, operand, 0)

	case ir.ADC:
		c.adc(c.load(in.mode, operand))
	case ir.SBC:
		c.sbc(c.load(in.mode, operand))
	case ir.AND:
		c.Reg.A &= c.load(in.mode, operand)
		c.updateNZ(c.Reg.A)
	case ir.ORA:
		c.Reg.A |= c.load(in.mode, operand)
		c.updateNZ(c.Reg.A)
	case ir.EOR:
		c.Reg.A ^= c.load(in.mode, operand)
		c.updateNZ(c.Reg.A)

	case ir.CMP:
		c.compare(c.Reg.A, c.load(in.mode, operand))
	case ir.CPX:
		c.compare(c.Reg.X, c.load(in.mode, operand))
	case ir.CPY:
		c.compare(c.Reg.Y, c.load(in.mode, operand))
	case ir.BIT:
		v := c.load(in.mode, operand)
		c.Reg.Zero = v&c.Reg.A == 0
		if in.mode != ir.Immediate {
			c.Reg.Sign = v&0x80 != 0
			c.Reg.Overflow = v&0x40 != 0
		}

	case ir.ASL:
		v := c.load(in.mode, operand)
		c.Reg.Carry = v&0x80 != 0
		v <<= 1
		c.updateNZ(v)
		c.store(in.mode, operand, v)
	case ir.LSR:
		v := c.load(in.mode, operand)
		c.Reg.Carry = v&1 != 0
		v >>= 1
		c.updateNZ(v)
		c.store(in.mode, operand, v)
	case ir.ROL:
		tmp := c.load(in.mode, operand)
		v := tmp<<1 | carryByte(c.Reg.Carry)
		c.Reg.Carry = tmp&0x80 != 0
		c.updateNZ(v)
		c.store(in.mode, operand, v)
	case ir.ROR:
		tmp := c.load(in.mode, operand)
		v := tmp>>1 | carryByte(c.Reg.Carry)<<7
		c.Reg.Carry = tmp&1 != 0
		c.updateNZ(v)
		c.store(in.mode, operand, v)

	case ir.INC:
		v := c.load(in.mode, operand) + 1
		c.updateNZ(v)
		c.store(in.mode, operand, v)
	case ir.DEC:
		v := c.load(in.mode, operand) - 1
		c.updateNZ(v)
		c.store(in.mode, operand, v)
	case ir.INX:
		c.Reg.X++
		c.updateNZ(c.Reg.X)
	case ir.INY:
		c.Reg.Y++
		c.updateNZ(c.Reg.Y)
	case ir.DEX:
		c.Reg.X--
		c.updateNZ(c.Reg.X)
	case ir.DEY:
		c.Reg.Y--
		c.updateNZ(c.Reg.Y)

	case ir.TRB:
		v := c.load(in.mode, operand)
		c.Reg.Zero = v&c.Reg.A == 0
		c.store(in.mode, operand, v&^c.Reg.A)
	case ir.TSB:
		v := c.load(in.mode, operand)
		c.Reg.Zero = v&c.Reg.A == 0
		c.store(in.mode, operand, v|c.Reg.A)

	case ir.JMP:
		c.jmp(in.mode, operand)
	case ir.JSR:
		addr := operandToAddress(operand)
		c.pushAddress(c.Reg.PC - 1)
		c.Reg.PC = addr
	case ir.RTS:
		c.Reg.PC = c.popAddress() + 1
	case ir.RTI:
		c.Reg.RestorePS(c.pop())
		c.Reg.PC = c.popAddress()

	case ir.BCC:
		c.branchIf(!c.Reg.Carry, operand)
	case ir.BCS:
		c.branchIf(c.Reg.Carry, operand)
	case ir.BEQ:
		c.branchIf(c.Reg.Zero, operand)
	case ir.BNE:
		c.branchIf(!c.Reg.Zero, operand)
	case ir.BMI:
		c.branchIf(c.Reg.Sign, operand)
	case ir.BPL:
		c.branchIf(!c.Reg.Sign, operand)
	case ir.BVC:
		c.branchIf(!c.Reg.Overflow, operand)
	case ir.BVS:
		c.branchIf(c.Reg.Overflow, operand)
	case ir.BRA:
		c.branch(operand)

	case ir.CLC:
		c.Reg.Carry = false
	case ir.SEC:
		c.Reg.Carry = true
	case ir.CLD:
		c.Reg.Decimal = false
	case ir.SED:
		c.Reg.Decimal = true
	case ir.CLI:
		c.Reg.InterruptDisable = false
	case ir.SEI:
		c.Reg.InterruptDisable = true
	case ir.CLV:
		c.Reg.Overflow = false

	case ir.PHA:
		c.push(c.Reg.A)
	case ir.PLA:
		c.Reg.A = c.pop()
		c.updateNZ(c.Reg.A)
	case ir.PHP:
		c.push(c.Reg.SavePS(true))
	case ir.PLP:
		c.Reg.RestorePS(c.pop())
	case ir.PHX:
		c.push(c.Reg.X)
	case ir.PLX:
		c.Reg.X = c.pop()
		c.updateNZ(c.Reg.X)
	case ir.PHY:
		c.push(c.Reg.Y)
	case ir.PLY:
		c.Reg.Y = c.pop()
		c.updateNZ(c.Reg.Y)

	case ir.TAX:
		c.Reg.X = c.Reg.A
		c.updateNZ(c.Reg.X)
	case ir.TXA:
		c.Reg.A = c.Reg.X
		c.updateNZ(c.Reg.A)
	case ir.TAY:
		c.Reg.Y = c.Reg.A
		c.updateNZ(c.Reg.Y)
	case ir.TYA:
		c.Reg.A = c.Reg.Y
		c.updateNZ(c.Reg.A)
	case ir.TSX:
		c.Reg.X = c.Reg.SP
		c.updateNZ(c.Reg.X)
	case ir.TXS:
		c.Reg.SP = c.Reg.X

	case ir.NOP:
		// nothing

	default:
		c.execUndocumented(in, operand)
	}
}

// jmp handles the absolute, indirect and (65C02) indexed-indirect forms.
// The CMOS core fixes the NMOS page-wrap bug on JMP ($xxFF).
func (c *CPU) jmp(mode ir.AddrMode, operand []byte) {
	switch mode {
	case ir.Absolute:
		c.Reg.PC = operandToAddress(operand)
	case ir.Indirect:
		addr := operandToAddress(operand)
		if c.cmos && addr&0xff == 0xff {
			lo := c.Mem.LoadByte(addr)
			hi := c.Mem.LoadByte(addr + 1)
			c.Reg.PC = uint16(lo) | uint16(hi)<<8
			c.deltaCycles++
			return
		}
		c.Reg.PC = c.Mem.LoadAddress(addr)
	case ir.AbsoluteX:
		addr := operandToAddress(operand) + uint16(c.Reg.X)
		lo := c.Mem.LoadByte(addr)
		hi := c.Mem.LoadByte(addr + 1)
		c.Reg.PC = uint16(lo) | uint16(hi)<<8
	}
}

func (c *CPU) compare(reg, v byte) {
	c.Reg.Carry = reg >= v
	c.updateNZ(reg - v)
}

// adc implements add-with-carry, with the NMOS and CMOS decimal-mode
// behaviors diverging the way the silicon does: the CMOS core spends an
// extra cycle and produces valid NZ flags in decimal mode.
func (c *CPU) adc(add byte) {
	acc := uint32(c.Reg.A)
	addend := uint32(add)
	carry := carryUint32(c.Reg.Carry)
	var v uint32

	if c.Reg.Decimal {
		if c.cmos {
			c.deltaCycles++
		}
		lo := (acc & 0x0f) + (addend & 0x0f) + carry
		var carrylo uint32
		if lo >= 0x0a {
			carrylo = 0x10
			lo -= 0x0a
		}
		hi := (acc & 0xf0) + (addend & 0xf0) + carrylo
		if hi >= 0xa0 {
			c.Reg.Carry = true
			hi -= 0xa0
		} else {
			c.Reg.Carry = false
		}
		v = hi | lo
		c.Reg.Overflow = (acc^v)&0x80 != 0 && (acc^addend)&0x80 == 0
	} else {
		v = acc + addend + carry
		c.Reg.Carry = v >= 0x100
		c.Reg.Overflow = acc&0x80 == addend&0x80 && acc&0x80 != v&0x80
	}

	c.Reg.A = byte(v)
	c.updateNZ(c.Reg.A)
}

// sbc implements subtract-with-carry; decimal mode follows the same
// NMOS/CMOS split as adc.
func (c *CPU) sbc(sub byte) {
	acc := uint32(c.Reg.A)
	subtrahend := uint32(sub)
	carry := carryUint32(c.Reg.Carry)
	var v uint32

	if c.Reg.Decimal {
		if c.cmos {
			c.deltaCycles++
		}
		lo := 0x0f + (acc & 0x0f) - (subtrahend & 0x0f) + carry
		var carrylo uint32
		if lo < 0x10 {
			lo -= 0x06
		} else {
			lo -= 0x10
			carrylo = 0x10
		}
		hi := 0xf0 + (acc & 0xf0) - (subtrahend & 0xf0) + carrylo
		if hi < 0x100 {
			c.Reg.Carry = false
			hi -= 0x60
		} else {
			c.Reg.Carry = true
			hi -= 0x100
		}
		v = hi | lo
		c.Reg.Overflow = (acc^v)&0x80 != 0 && (acc^subtrahend)&0x80 != 0
	} else {
		v = 0xff + acc - subtrahend + carry
		c.Reg.Carry = v >= 0x100
		c.Reg.Overflow = acc&0x80 != subtrahend&0x80 && acc&0x80 != v&0x80
	}

	c.Reg.A = byte(v)
	c.updateNZ(c.Reg.A)
}

// execUndocumented runs the stable undocumented NMOS opcodes. Semantics
// follow the commonly observed hardware behavior; the unstable
// bus-conflict opcodes are not in the decode table.
func (c *CPU) execUndocumented(in instruction, operand []byte) {
	switch in.op {
	case ir.LAX:
		v := c.load(in.mode, operand)
		c.Reg.A = v
		c.Reg.X = v
		c.updateNZ(v)
	case ir.SAX:
		c.store(in.mode, operand, c.Reg.A&c.Reg.X)
	case ir.SBX:
		// X = (A AND X) - imm, carry set as in CMP.
		v := operand[0]
		ax := c.Reg.A & c.Reg.X
		c.Reg.Carry = ax >= v
		c.Reg.X = ax - v
		c.updateNZ(c.Reg.X)
	case ir.ANC:
		c.Reg.A &= operand[0]
		c.updateNZ(c.Reg.A)
		c.Reg.Carry = c.Reg.A&0x80 != 0
	case ir.ALR:
		v := c.Reg.A & operand[0]
		c.Reg.Carry = v&1 != 0
		c.Reg.A = v >> 1
		c.updateNZ(c.Reg.A)
	case ir.ARR:
		v := c.Reg.A & operand[0]
		c.Reg.A = v>>1 | carryByte(c.Reg.Carry)<<7
		c.updateNZ(c.Reg.A)
		c.Reg.Carry = c.Reg.A&0x40 != 0
		c.Reg.Overflow = (c.Reg.A>>6^c.Reg.A>>5)&1 != 0
	case ir.DCP:
		v := c.load(in.mode, operand) - 1
		c.store(in.mode, operand, v)
		c.compare(c.Reg.A, v)
	case ir.ISC:
		v := c.load(in.mode, operand) + 1
		c.store(in.mode, operand, v)
		c.sbc(v)
	case ir.SLO:
		v := c.load(in.mode, operand)
		c.Reg.Carry = v&0x80 != 0
		v <<= 1
		c.store(in.mode, operand, v)
		c.Reg.A |= v
		c.updateNZ(c.Reg.A)
	case ir.SRE:
		v := c.load(in.mode, operand)
		c.Reg.Carry = v&1 != 0
		v >>= 1
		c.store(in.mode, operand, v)
		c.Reg.A ^= v
		c.updateNZ(c.Reg.A)
	case ir.RLA:
		tmp := c.load(in.mode, operand)
		v := tmp<<1 | carryByte(c.Reg.Carry)
		c.Reg.Carry = tmp&0x80 != 0
		c.store(in.mode, operand, v)
		c.Reg.A &= v
		c.updateNZ(c.Reg.A)
	case ir.RRA:
		tmp := c.load(in.mode, operand)
		v := tmp>>1 | carryByte(c.Reg.Carry)<<7
		c.Reg.Carry = tmp&1 != 0
		c.store(in.mode, operand, v)
		c.adc(v)
	default:
		c.Halted = true
	}
}

func carryByte(v bool) byte {
	if v {
		return 1
	}
	return 0
}

func carryUint32(v bool) uint32 {
	if v {
		return 1
	}
	return 0
}
