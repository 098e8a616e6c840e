// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cpu emulates the 6502 and 65C02 cores the compiler targets,
// including the undocumented NMOS opcodes the optimizer can emit. Its
// dispatch table is built from the ir instruction matrix, so the emulator
// and the assembler can never disagree about an encoding.
package cpu

import (
	"github.com/mfc-lang/mfc/ir"
)

// Interrupt vectors.
const (
	vectorNMI   = 0xfffa
	vectorReset = 0xfffc
	vectorIRQ   = 0xfffe
)

// BrkHandler is notified when a BRK instruction is about to execute. With
// no handler attached, BRK halts the CPU.
type BrkHandler interface {
	OnBrk(c *CPU)
}

// An instruction is one decoded slot of the 256-entry dispatch table.
type instruction struct {
	op     ir.Opcode
	mode   ir.AddrMode
	length byte
	cycles byte
	valid  bool
}

// CPU is one emulated 6502-family core bound to a memory.
type CPU struct {
	Arch   ir.Arch
	Reg    Registers
	Mem    Memory
	Cycles uint64
	LastPC uint16

	// Halted is set by an invalid or unimplemented opcode, and by BRK
	// when no handler is attached.
	Halted bool

	table       [256]instruction
	cmos        bool
	pageCrossed bool
	deltaCycles int8
	brkHandler  BrkHandler
	debugger    *Debugger
	storeByte   func(c *CPU, addr uint16, v byte)
}

// New creates an emulated core. Undocumented opcodes decode only when
// illegals is set, mirroring the assembler's gate.
func New(arch ir.Arch, illegals bool, m Memory) *CPU {
	c := &CPU{
		Arch:      arch,
		Mem:       m,
		cmos:      arch.HasCmosOps(),
		storeByte: (*CPU).storeByteNormal,
	}
	for _, e := range ir.DecodeTable(arch, illegals) {
		if !executable(e.Op, e.Mode) {
			continue
		}
		c.table[e.Enc] = instruction{
			op:     e.Op,
			mode:   e.Mode,
			length: byte(ir.Bytes(e.Op, e.Mode)),
			cycles: byte(e.Cycles),
			valid:  true,
		}
	}
	c.Reg.Init()
	return c
}

// executable reports whether this emulator implements the pair. Coverage
// is the 6502 and 65C02 cores plus the undocumented NMOS opcodes the
// optimizer can introduce; the 65CE02, HuC6280 and 65816 extensions
// decode on their archs but are not emulated.
func executable(op ir.Opcode, mode ir.AddrMode) bool {
	switch mode {
	case ir.WordImmediate, ir.IndexedSY, ir.LongAbsolute, ir.LongAbsoluteX,
		ir.LongIndexedY, ir.LongIndexedZ, ir.Stack:
		return false
	}
	switch op {
	case ir.ADC, ir.AND, ir.ASL, ir.BCC, ir.BCS, ir.BEQ, ir.BIT, ir.BMI,
		ir.BNE, ir.BPL, ir.BRK, ir.BVC, ir.BVS, ir.CLC, ir.CLD, ir.CLI,
		ir.CLV, ir.CMP, ir.CPX, ir.CPY, ir.DEC, ir.DEX, ir.DEY, ir.EOR,
		ir.INC, ir.INX, ir.INY, ir.JMP, ir.JSR, ir.LDA, ir.LDX, ir.LDY,
		ir.LSR, ir.NOP, ir.ORA, ir.PHA, ir.PHP, ir.PLA, ir.PLP, ir.ROL,
		ir.ROR, ir.RTI, ir.RTS, ir.SBC, ir.SEC, ir.SED, ir.SEI, ir.STA,
		ir.STX, ir.STY, ir.TAX, ir.TAY, ir.TSX, ir.TXA, ir.TXS, ir.TYA,
		ir.ALR, ir.ANC, ir.ARR, ir.DCP, ir.ISC, ir.LAX, ir.RLA, ir.RRA,
		ir.SAX, ir.SBX, ir.SLO, ir.SRE,
		ir.BRA, ir.PHX, ir.PHY, ir.PLX, ir.PLY, ir.STZ, ir.TRB, ir.TSB:
		return true
	}
	return false
}

// SetPC updates the program counter.
func (c *CPU) SetPC(addr uint16) {
	c.Reg.PC = addr
}

// AttachBrkHandler installs the handler called when BRK executes.
func (c *CPU) AttachBrkHandler(h BrkHandler) {
	c.brkHandler = h
}

// AttachDebugger connects a debugger that sees every PC update and store.
func (c *CPU) AttachDebugger(d *Debugger) {
	c.debugger = d
	c.storeByte = (*CPU).storeByteDebugger
}

// DetachDebugger disconnects the current debugger.
func (c *CPU) DetachDebugger() {
	c.debugger = nil
	c.storeByte = (*CPU).storeByteNormal
}

// InstructionAt decodes the instruction at addr, returning its opcode,
// addressing mode and total length in bytes.
func (c *CPU) InstructionAt(addr uint16) (op ir.Opcode, mode ir.AddrMode, length int) {
	in := c.table[c.Mem.LoadByte(addr)]
	if !in.valid {
		return ir.NOP, ir.Implied, 1
	}
	return in.op, in.mode, int(in.length)
}

// Step executes one instruction.
func (c *CPU) Step() {
	if c.Halted {
		return
	}

	opcode := c.Mem.LoadByte(c.Reg.PC)
	in := c.table[opcode]
	if !in.valid {
		c.Halted = true
		return
	}
	if in.op == ir.BRK {
		if c.brkHandler != nil {
			c.brkHandler.OnBrk(c)
		} else {
			c.Halted = true
		}
		return
	}

	var buf [2]byte
	operand := buf[:in.length-1]
	c.Mem.LoadBytes(c.Reg.PC+1, operand)
	c.LastPC = c.Reg.PC
	c.Reg.PC += uint16(in.length)

	c.pageCrossed = false
	c.deltaCycles = 0
	c.exec(in, operand)

	c.Cycles += uint64(int8(in.cycles) + c.deltaCycles)
	if c.pageCrossed {
		c.Cycles++
	}

	if c.debugger != nil {
		c.debugger.onUpdatePC(c, c.Reg.PC)
	}
}

// IRQ raises a maskable hardware interrupt.
func (c *CPU) IRQ() {
	if !c.Reg.InterruptDisable {
		c.interrupt(false, vectorIRQ)
	}
}

// NMI raises a non-maskable interrupt.
func (c *CPU) NMI() {
	c.interrupt(false, vectorNMI)
}

// Reset loads the program counter from the reset vector.
func (c *CPU) Reset() {
	c.Halted = false
	c.Reg.PC = c.Mem.LoadAddress(vectorReset)
}

// RunSubroutine calls addr like a JSR and steps until the routine returns,
// the CPU halts, or the cycle budget runs out. It reports whether the
// routine returned normally.
func (c *CPU) RunSubroutine(addr uint16, maxCycles uint64) bool {
	const sentinel = 0xffff
	c.pushAddress(sentinel - 1)
	c.Reg.PC = addr
	start := c.Cycles
	for c.Reg.PC != sentinel && !c.Halted {
		if c.Cycles-start > maxCycles {
			return false
		}
		c.Step()
	}
	return !c.Halted
}

func (c *CPU) interrupt(brk bool, vector uint16) {
	c.pushAddress(c.Reg.PC)
	c.push(c.Reg.SavePS(brk))
	c.Reg.InterruptDisable = true
	if c.cmos {
		c.Reg.Decimal = false
	}
	c.Reg.PC = c.Mem.LoadAddress(vector)
}

// effectiveAddress resolves a memory-operand addressing mode.
func (c *CPU) effectiveAddress(mode ir.AddrMode, operand []byte) uint16 {
	switch mode {
	case ir.ZeroPage:
		return operandToAddress(operand)
	case ir.ZeroPageX:
		return offsetZeroPage(operandToAddress(operand), c.Reg.X)
	case ir.ZeroPageY:
		return offsetZeroPage(operandToAddress(operand), c.Reg.Y)
	case ir.Absolute:
		return operandToAddress(operand)
	case ir.AbsoluteX:
		addr, crossed := offsetAddress(operandToAddress(operand), c.Reg.X)
		c.pageCrossed = c.pageCrossed || crossed
		return addr
	case ir.AbsoluteY:
		addr, crossed := offsetAddress(operandToAddress(operand), c.Reg.Y)
		c.pageCrossed = c.pageCrossed || crossed
		return addr
	case ir.IndexedX:
		zp := offsetZeroPage(operandToAddress(operand), c.Reg.X)
		return c.Mem.LoadAddress(zp)
	case ir.IndexedY:
		addr, crossed := offsetAddress(c.Mem.LoadAddress(operandToAddress(operand)), c.Reg.Y)
		c.pageCrossed = c.pageCrossed || crossed
		return addr
	case ir.IndexedZ:
		// (zp) without an index, 65C02 form.
		return c.Mem.LoadAddress(operandToAddress(operand))
	default:
		panic("not a memory addressing mode")
	}
}

// load reads the operand value for a value-consuming instruction. Implied
// mode means the accumulator (the shift and CMOS INC/DEC forms).
func (c *CPU) load(mode ir.AddrMode, operand []byte) byte {
	switch mode {
	case ir.Immediate:
		return operand[0]
	case ir.Implied:
		return c.Reg.A
	default:
		return c.Mem.LoadByte(c.effectiveAddress(mode, operand))
	}
}

// store writes a value through the addressing mode.
func (c *CPU) store(mode ir.AddrMode, operand []byte, v byte) {
	if mode == ir.Implied {
		c.Reg.A = v
		return
	}
	c.storeByte(c, c.effectiveAddress(mode, operand), v)
}

func (c *CPU) storeByteNormal(addr uint16, v byte) {
	c.Mem.StoreByte(addr, v)
}

func (c *CPU) storeByteDebugger(addr uint16, v byte) {
	c.debugger.onDataStore(c, addr, v)
	c.Mem.StoreByte(addr, v)
}

func (c *CPU) push(v byte) {
	c.storeByte(c, 0x100+uint16(c.Reg.SP), v)
	c.Reg.SP--
}

func (c *CPU) pushAddress(addr uint16) {
	c.push(byte(addr >> 8))
	c.push(byte(addr))
}

func (c *CPU) pop() byte {
	c.Reg.SP++
	return c.Mem.LoadByte(0x100 + uint16(c.Reg.SP))
}

func (c *CPU) popAddress() uint16 {
	lo := c.pop()
	hi := c.pop()
	return uint16(lo) | uint16(hi)<<8
}

func (c *CPU) updateNZ(v byte) {
	c.Reg.Zero = v == 0
	c.Reg.Sign = v&0x80 != 0
}

// branch applies a taken branch's displacement and cycle cost.
func (c *CPU) branch(operand []byte) {
	offset := operandToAddress(operand)
	oldPC := c.Reg.PC
	if offset < 0x80 {
		c.Reg.PC += offset
	} else {
		c.Reg.PC -= 0x100 - offset
	}
	c.deltaCycles++
	if (c.Reg.PC^oldPC)&0xff00 != 0 {
		c.deltaCycles++
	}
}

func (c *CPU) branchIf(taken bool, operand []byte) {
	if taken {
		c.branch(operand)
	}
}
