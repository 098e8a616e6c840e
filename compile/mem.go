// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compile

import (
	"github.com/mfc-lang/mfc/ir"
	"github.com/mfc-lang/mfc/prog"
)

// indexToX places an index expression in X. Simple indices load directly;
// anything else computes through A.
func (c *compiler) indexToX(e prog.Expression, pos *ir.Position) {
	if ref, ok := c.simpleOperand(e); ok && ir.Legal(ir.LDX, ref.mode) {
		c.emit(ir.Insn(ir.LDX, ref.mode, ref.val))
		return
	}
	c.exprToA(e, pos)
	c.emit(ir.ImpliedInsn(ir.TAX))
}

func (c *compiler) indexToY(e prog.Expression, pos *ir.Position) {
	if ref, ok := c.simpleOperand(e); ok && ir.Legal(ir.LDY, ref.mode) {
		c.emit(ir.Insn(ir.LDY, ref.mode, ref.val))
		return
	}
	c.exprToA(e, pos)
	c.emit(ir.ImpliedInsn(ir.TAY))
}

// boundsCheck compares the index register against the array length and
// routes failures to the shared handler.
func (c *compiler) boundsCheck(cmp ir.Opcode, length int) {
	if !c.ctx.Options.BoundsChecking || c.ctx.NeverCheckArrayBounds {
		return
	}
	ok := c.nextLabel("bc")
	c.emit(
		ir.Imm(cmp, ir.Num(int64(length))),
		ir.Rel(ir.BCC, ok),
		ir.Insn(ir.JSR, ir.Absolute, ir.Addr(BoundsFailHandler)),
		ir.LabelLine(ok),
	)
}

// indexedLoad reads one byte of an array or through a pointer into A.
// Array accesses use abs,X; a zero-page pointer uses the (zp),Y form; a
// pointer elsewhere is first copied into the pseudoregister.
func (c *compiler) indexedLoad(e prog.IndexedExpression, pos *ir.Position) {
	if a, ok := c.ctx.Env.ArrayThing(e.Name); ok {
		if lit, ok := e.Index.(prog.LiteralExpression); ok {
			if lit.Value < 0 || int(lit.Value) >= a.Length {
				c.errorf(pos, "index %d out of range for %s[%d]", lit.Value, a.Name, a.Length)
				return
			}
			c.emit(ir.Abs(ir.LDA, ir.AddC(a.Toa(), ir.Num(lit.Value))))
			return
		}
		c.indexToX(e.Index, pos)
		c.boundsCheck(ir.CPX, a.Length)
		c.emit(ir.Insn(ir.LDA, ir.AbsoluteX, a.Toa()))
		return
	}
	if v, ok := c.ctx.Env.Variable(e.Name); ok && v.Type.Size() == 2 {
		base, ok := c.pointerBase(v, pos)
		if !ok {
			return
		}
		c.indexToY(e.Index, pos)
		c.emit(ir.Insn(ir.LDA, ir.IndexedY, base))
		return
	}
	c.errorf(pos, "%s is not indexable", e.Name)
}

// pointerBase yields a zero-page address holding the pointer, copying a
// non-zero-page pointer into the pseudoregister first.
func (c *compiler) pointerBase(v *prog.Variable, pos *ir.Position) (ir.Constant, bool) {
	if v.ZeroPage() {
		return v.Toa(), true
	}
	sc0, ok := c.scratch(0, pos)
	if !ok {
		return nil, false
	}
	sc1, ok := c.scratch(1, pos)
	if !ok {
		return nil, false
	}
	addr := v.Toa()
	c.emit(
		ir.Abs(ir.LDA, addr),
		ir.Zp(ir.STA, sc0),
		ir.Abs(ir.LDA, ir.AddC(addr, ir.Num(1))),
		ir.Zp(ir.STA, sc1),
	)
	return sc0, true
}

// indexedStore writes A into an array slot or through a pointer. The value
// is computed before the index, so a complex index briefly parks it on the
// hardware stack.
func (c *compiler) indexedStore(e prog.IndexedExpression, pos *ir.Position) {
	if a, ok := c.ctx.Env.ArrayThing(e.Name); ok {
		if lit, ok := e.Index.(prog.LiteralExpression); ok {
			if lit.Value < 0 || int(lit.Value) >= a.Length {
				c.errorf(pos, "index %d out of range for %s[%d]", lit.Value, a.Name, a.Length)
				return
			}
			c.emit(ir.Abs(ir.STA, ir.AddC(a.Toa(), ir.Num(lit.Value))))
			return
		}
		c.indexAroundA(e.Index, false, pos)
		c.boundsCheck(ir.CPX, a.Length)
		c.emit(ir.Insn(ir.STA, ir.AbsoluteX, a.Toa()))
		return
	}
	if v, ok := c.ctx.Env.Variable(e.Name); ok && v.Type.Size() == 2 {
		if !v.ZeroPage() {
			// The pointer copy would clobber A; park the value first.
			c.emit(ir.ImpliedInsn(ir.PHA))
			c.ctx = c.ctx.WithExtraStackOffset(1)
			base, ok := c.pointerBase(v, pos)
			if !ok {
				return
			}
			c.indexToY(e.Index, pos)
			c.emit(ir.ImpliedInsn(ir.PLA))
			c.ctx = c.ctx.WithExtraStackOffset(-1)
			c.emit(ir.Insn(ir.STA, ir.IndexedY, base))
			return
		}
		c.indexAroundA(e.Index, true, pos)
		c.emit(ir.Insn(ir.STA, ir.IndexedY, v.Toa()))
		return
	}
	c.errorf(pos, "%s is not indexable", e.Name)
}

// indexAroundA loads an index into X (or Y) without disturbing the value
// held in A.
func (c *compiler) indexAroundA(idx prog.Expression, intoY bool, pos *ir.Position) {
	load, transfer := ir.LDX, ir.TAX
	if intoY {
		load, transfer = ir.LDY, ir.TAY
	}
	if ref, ok := c.simpleOperand(idx); ok && ir.Legal(load, ref.mode) {
		c.emit(ir.Insn(load, ref.mode, ref.val))
		return
	}
	c.emit(ir.ImpliedInsn(ir.PHA))
	c.ctx = c.ctx.WithExtraStackOffset(1)
	c.exprToA(idx, pos)
	c.emit(ir.ImpliedInsn(transfer), ir.ImpliedInsn(ir.PLA))
	c.ctx = c.ctx.WithExtraStackOffset(-1)
}

// call compiles a function call, marshalling each argument per the
// callee's parameter convention. Register-passed arguments go last, with
// the A-passed one at the very end, since loading the others may route
// through A.
func (c *compiler) call(e prog.FunctionCallExpression, pos *ir.Position) {
	f, ok := c.ctx.Env.FunctionThing(e.Name)
	if !ok {
		c.errorf(pos, "call to undefined function %s", e.Name)
		return
	}
	if len(e.Args) != len(f.Params) {
		c.errorf(pos, "%s takes %d argument(s), got %d", f.Name, len(f.Params), len(e.Args))
		return
	}

	type regArg struct {
		conv prog.ParamConvention
		arg  prog.Expression
	}
	var regArgs []regArg
	stackBytes := 0

	for i, p := range f.Params {
		arg := e.Args[i]
		switch p.Convention {
		case prog.ByVariable, prog.ByReference:
			c.passByVariable(f, p, arg, pos)
		case prog.ByConstant:
			if _, ok := c.simpleOperand(arg); !ok {
				c.errorf(pos, "parameter %s of %s requires a constant argument", p.Name, f.Name)
			}
		case prog.ByStack:
			c.exprToA(arg, pos)
			c.emit(ir.ImpliedInsn(ir.PHA))
			c.ctx = c.ctx.WithExtraStackOffset(1)
			stackBytes++
		default:
			regArgs = append(regArgs, regArg{p.Convention, arg})
		}
	}

	// A last; X and Y loads may pass through A.
	for _, ra := range regArgs {
		switch ra.conv {
		case prog.ByRegisterX:
			c.indexToX(ra.arg, pos)
		case prog.ByRegisterY:
			c.indexToY(ra.arg, pos)
		case prog.ByRegisterAX, prog.ByRegisterXA, prog.ByRegisterAY,
			prog.ByRegisterYA, prog.ByRegisterXY, prog.ByRegisterYX:
			c.wordToRegs(ra.conv, ra.arg, pos)
		}
	}
	for _, ra := range regArgs {
		if ra.conv == prog.ByRegisterA {
			c.exprToA(ra.arg, pos)
		}
	}

	c.emit(ir.Insn(ir.JSR, ir.Absolute, f.Toa()))

	if stackBytes > 0 {
		save := f.ReturnType.Size() > 0
		if save {
			c.emitPinned(ir.ImpliedInsn(ir.TAY))
		}
		for i := 0; i < stackBytes; i++ {
			c.emit(ir.ImpliedInsn(ir.PLA))
		}
		c.ctx = c.ctx.WithExtraStackOffset(-stackBytes)
		if save {
			c.emitPinned(ir.ImpliedInsn(ir.TYA))
		}
	}
}

// passByVariable stores an argument into the callee's parameter slot,
// named callee.param by the front end. ByReference passes the address.
func (c *compiler) passByVariable(f *prog.Function, p prog.Param, arg prog.Expression, pos *ir.Position) {
	slot, ok := c.ctx.Env.Variable(f.Name + "." + p.Name)
	if !ok {
		c.errorf(pos, "internal: no parameter slot for %s.%s", f.Name, p.Name)
		return
	}
	if p.Convention == prog.ByReference {
		addr, ok := c.argumentAddress(arg, pos)
		if !ok {
			return
		}
		c.emit(ir.Imm(ir.LDA, ir.LoByte(addr)))
		c.emit(c.varAccess(ir.STA, slot)...)
		c.emit(ir.Imm(ir.LDA, ir.HiByte(addr)))
		c.emit(ir.Abs(ir.STA, ir.AddC(slot.Toa(), ir.Num(1))))
		return
	}
	c.exprToA(arg, pos)
	c.emit(c.varAccess(ir.STA, slot)...)
	if p.Type.Size() == 2 {
		// Byte-to-word widening zeroes the high half.
		c.emit(ir.Imm(ir.LDA, ir.Num(0)))
		c.emit(ir.Abs(ir.STA, ir.AddC(slot.Toa(), ir.Num(1))))
	}
}

func (c *compiler) argumentAddress(arg prog.Expression, pos *ir.Position) (ir.Constant, bool) {
	v, ok := arg.(prog.VariableExpression)
	if !ok {
		c.errorf(pos, "by-reference argument must name a variable or array")
		return nil, false
	}
	switch t := mustLookup(c.ctx.Env, v.Name).(type) {
	case *prog.Variable:
		return t.Toa(), true
	case *prog.Array:
		return t.Toa(), true
	default:
		c.errorf(pos, "cannot take the address of %s", v.Name)
		return nil, false
	}
}

func mustLookup(env *prog.Environment, name string) prog.Thing {
	t, _ := env.Lookup(name)
	return t
}

// wordToRegs splits a word argument between two registers per the pair
// convention. Supported shapes: a word literal, a word variable, or an
// explicit hi:lo join.
func (c *compiler) wordToRegs(conv prog.ParamConvention, arg prog.Expression, pos *ir.Position) {
	var loadLo, loadHi func()

	switch a := arg.(type) {
	case prog.LiteralExpression:
		lo, hi := a.Value&0xff, (a.Value>>8)&0xff
		loadLo = func() { c.emit(ir.Imm(ir.LDA, ir.Num(lo))) }
		loadHi = func() { c.emit(ir.Imm(ir.LDA, ir.Num(hi))) }
	case prog.VariableExpression:
		v, ok := c.ctx.Env.Variable(a.Name)
		if !ok || v.Type.Size() != 2 {
			c.errorf(pos, "word register argument needs a word variable, got %s", a.Name)
			return
		}
		loadLo = func() { c.emit(c.varAccess(ir.LDA, v)...) }
		loadHi = func() { c.emit(ir.Abs(ir.LDA, ir.AddC(v.Toa(), ir.Num(1)))) }
	case prog.SeparateBytesExpression:
		loadLo = func() { c.exprToA(a.Lo, pos) }
		loadHi = func() { c.exprToA(a.Hi, pos) }
	default:
		c.errorf(pos, "unsupported word argument for register pair passing")
		return
	}

	var xfer ir.Opcode
	loFirst := false
	switch conv {
	case prog.ByRegisterAX, prog.ByRegisterXA:
		xfer = ir.TAX
	default:
		xfer = ir.TAY
	}
	switch conv {
	case prog.ByRegisterXA, prog.ByRegisterYA:
		// High byte lands in A, low byte in the index register.
		loFirst = true
	case prog.ByRegisterXY:
		// lo in X, hi in Y.
		loadLo()
		c.emit(ir.ImpliedInsn(ir.TAX))
		loadHi()
		c.emit(ir.ImpliedInsn(ir.TAY))
		return
	case prog.ByRegisterYX:
		loadLo()
		c.emit(ir.ImpliedInsn(ir.TAY))
		loadHi()
		c.emit(ir.ImpliedInsn(ir.TAX))
		return
	}

	if loFirst {
		loadLo()
		c.emit(ir.ImpliedInsn(xfer))
		loadHi()
	} else {
		loadHi()
		c.emit(ir.ImpliedInsn(xfer))
		loadLo()
	}
}
