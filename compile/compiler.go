// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package compile lowers the checked statement tree to pseudo-assembly. The
// output of Function is the raw line list the optimizer and assembler
// consume: a pinned entry label, the prologue establishing the stack frame,
// the lowered body, and an epilogue leaving the return value in A.
package compile

import (
	"github.com/mfc-lang/mfc/diag"
	"github.com/mfc-lang/mfc/ir"
	"github.com/mfc-lang/mfc/prog"
)

// BoundsFailHandler is the shared routine indexed stores and loads branch
// to when a bounds check fails.
const BoundsFailHandler = "__bounds_fail"

// sbxFrameThreshold is the frame size at which the SBX-based allocation
// beats a run of PHAs, when undocumented opcodes are available.
const sbxFrameThreshold = 5

type compiler struct {
	ctx prog.CompilationContext
	log *diag.Logger
	out []ir.AssemblyLine
}

// Function compiles one function to its full line list.
func Function(ctx prog.CompilationContext, log *diag.Logger) []ir.AssemblyLine {
	c := &compiler{ctx: ctx, log: log}
	f := ctx.Function

	c.emit(ir.LabelLine(f.Name).Pinned())

	// User-written asm bodies are emitted verbatim, prologue included.
	if f.Asm {
		for _, stmt := range f.Body {
			c.statement(stmt)
		}
		return c.out
	}

	c.prologue()
	for _, stmt := range f.Body {
		c.statement(stmt)
	}
	if n := len(f.Body); n == 0 || !isReturn(f.Body[n-1]) {
		c.epilogue(false)
	}
	return c.out
}

func isReturn(s prog.Statement) bool {
	_, ok := s.(prog.ReturnStatement)
	return ok
}

func (c *compiler) emit(lines ...ir.AssemblyLine) {
	c.out = append(c.out, lines...)
}

// emitPinned appends lines the optimizer must not touch.
func (c *compiler) emitPinned(lines ...ir.AssemblyLine) {
	for _, l := range lines {
		c.out = append(c.out, l.Pinned())
	}
}

func (c *compiler) errorf(pos *ir.Position, format string, args ...any) {
	c.log.Errorf(pos, format, args...)
}

func (c *compiler) nextLabel(prefix string) string {
	return c.ctx.NextLabel(prefix)
}

// prologue emits the interrupt save sequence and the stack frame.
func (c *compiler) prologue() {
	f := c.ctx.Function
	opts := c.ctx.Options

	if f.Interrupt && !f.KernalInterrupt {
		c.emitPinned(ir.ImpliedInsn(ir.PHA))
		if opts.Arch.HasCmosOps() {
			c.emitPinned(
				ir.ImpliedInsn(ir.PHX),
				ir.ImpliedInsn(ir.PHY),
			)
		} else {
			c.emitPinned(
				ir.ImpliedInsn(ir.TXA),
				ir.ImpliedInsn(ir.PHA),
				ir.ImpliedInsn(ir.TYA),
				ir.ImpliedInsn(ir.PHA),
			)
		}
		c.emitPinned(ir.ImpliedInsn(ir.CLD))
	}

	size := f.StackVarsSize
	if size <= 0 {
		return
	}
	if opts.Illegals && size >= sbxFrameThreshold {
		c.emitPinned(
			ir.ImpliedInsn(ir.TSX),
			ir.Imm(ir.LDA, ir.Num(0xff)),
			ir.Imm(ir.SBX, ir.Num(int64(size))),
			ir.ImpliedInsn(ir.TXS),
		)
		return
	}
	for i := 0; i < size; i++ {
		c.emitPinned(ir.ImpliedInsn(ir.PHA))
	}
}

// epilogue tears down the frame and returns. hasValue reports whether A
// carries a return value that must survive the teardown.
func (c *compiler) epilogue(hasValue bool) {
	f := c.ctx.Function
	opts := c.ctx.Options

	if size := f.StackVarsSize; size > 0 {
		if hasValue {
			c.emitPinned(ir.ImpliedInsn(ir.TAY))
		}
		if opts.Illegals && size >= sbxFrameThreshold {
			c.emitPinned(
				ir.ImpliedInsn(ir.TSX),
				ir.Imm(ir.LDA, ir.Num(0xff)),
				ir.Imm(ir.SBX, ir.Num(int64((256-size)&0xff))),
				ir.ImpliedInsn(ir.TXS),
			)
		} else {
			for i := 0; i < size; i++ {
				c.emitPinned(ir.ImpliedInsn(ir.PLA))
			}
		}
		if hasValue {
			c.emitPinned(ir.ImpliedInsn(ir.TYA))
		}
	}

	if f.Interrupt && !f.KernalInterrupt {
		if opts.Arch.HasCmosOps() {
			c.emitPinned(
				ir.ImpliedInsn(ir.PLY),
				ir.ImpliedInsn(ir.PLX),
			)
		} else {
			c.emitPinned(
				ir.ImpliedInsn(ir.PLA),
				ir.ImpliedInsn(ir.TAY),
				ir.ImpliedInsn(ir.PLA),
				ir.ImpliedInsn(ir.TAX),
			)
		}
		c.emitPinned(ir.ImpliedInsn(ir.PLA), ir.ImpliedInsn(ir.RTI))
		return
	}
	if f.Interrupt || f.KernalInterrupt {
		c.emitPinned(ir.ImpliedInsn(ir.RTI))
		return
	}
	c.emit(ir.ImpliedInsn(ir.RTS))
}

// varAccess builds the access line for a scalar variable, preferring the
// zero-page form when the variable is known to live there. Stack variables
// go through TSX plus indexed addressing off the hardware stack page.
func (c *compiler) varAccess(op ir.Opcode, v *prog.Variable) []ir.AssemblyLine {
	if v.Storage == prog.StackStorage {
		offset := int64(0x0101 + v.StackOffset + c.ctx.ExtraStackOffset)
		return []ir.AssemblyLine{
			ir.ImpliedInsn(ir.TSX),
			ir.Insn(op, ir.AbsoluteX, ir.NumSized(offset, 2)),
		}
	}
	addr := v.Toa()
	if v.ZeroPage() && ir.Legal(op, ir.ZeroPage) {
		return []ir.AssemblyLine{ir.Zp(op, addr)}
	}
	return []ir.AssemblyLine{ir.Abs(op, addr)}
}

// scratch returns the address of byte i of the zero-page pseudoregister,
// the compiler's spill space for nested expressions.
func (c *compiler) scratch(i int, pos *ir.Position) (ir.Constant, bool) {
	if i >= c.ctx.Options.ZpRegisterSize {
		c.errorf(pos, "expression too complex: zero-page pseudoregister exhausted (have %d bytes, -fzp-register to raise)",
			c.ctx.Options.ZpRegisterSize)
		return nil, false
	}
	return c.ctx.Env.ZpRegister(i), true
}
