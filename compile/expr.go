// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compile

import (
	"math/bits"

	"github.com/mfc-lang/mfc/ir"
	"github.com/mfc-lang/mfc/prog"
)

// An operandRef is an operand a single ALU instruction can consume
// directly, with no setup code.
type operandRef struct {
	mode ir.AddrMode
	val  ir.Constant
}

// simpleOperand classifies e as a direct operand: a literal, a named
// constant, or a statically allocated variable. Zero-page allocation wins
// the shorter encoding.
func (c *compiler) simpleOperand(e prog.Expression) (operandRef, bool) {
	switch e := e.(type) {
	case prog.LiteralExpression:
		return operandRef{ir.Immediate, ir.Num(e.Value & 0xff)}, true
	case prog.VariableExpression:
		if v, ok := c.ctx.Env.Variable(e.Name); ok && v.Storage != prog.StackStorage {
			mode := ir.Absolute
			if v.ZeroPage() {
				mode = ir.ZeroPage
			}
			return operandRef{mode, v.Toa()}, true
		}
		if ct, ok := c.ctx.Env.Lookup(e.Name); ok {
			if ct, ok := ct.(*prog.ConstantThing); ok {
				return operandRef{ir.Immediate, ct.Value}, true
			}
		}
	}
	return operandRef{}, false
}

func (c *compiler) emitALU(op ir.Opcode, ref operandRef) {
	mode := ref.mode
	if mode == ir.ZeroPage && !ir.Legal(op, ir.ZeroPage) {
		mode = ir.Absolute
	}
	c.emit(ir.Insn(op, mode, ref.val))
}

// exprToA compiles e, leaving its byte value in the accumulator.
func (c *compiler) exprToA(e prog.Expression, pos *ir.Position) {
	switch e := e.(type) {
	case prog.LiteralExpression:
		c.emit(ir.Imm(ir.LDA, ir.Num(e.Value&0xff)))
	case prog.VariableExpression:
		c.loadNamed(e.Name, pos)
	case prog.IndexedExpression:
		c.indexedLoad(e, pos)
	case prog.FunctionCallExpression:
		c.call(e, pos)
	case prog.SeparateBytesExpression:
		// In byte context a word keeps only its low half.
		c.exprToA(e.Lo, pos)
	case prog.BinaryExpression:
		c.binaryToA(e, pos)
	default:
		c.errorf(pos, "internal: unhandled expression node %T", e)
	}
}

func (c *compiler) loadNamed(name string, pos *ir.Position) {
	if v, ok := c.ctx.Env.Variable(name); ok {
		c.emit(c.varAccess(ir.LDA, v)...)
		return
	}
	if t, ok := c.ctx.Env.Lookup(name); ok {
		if ct, ok := t.(*prog.ConstantThing); ok {
			c.emit(ir.Imm(ir.LDA, ct.Value))
			return
		}
	}
	c.errorf(pos, "undefined name %s", name)
}

// spillRHS evaluates r into the zero-page pseudoregister while preserving
// the value already in A, and returns the spill slot as an operand.
func (c *compiler) spillRHS(r prog.Expression, pos *ir.Position) (operandRef, bool) {
	sc, ok := c.scratch(0, pos)
	if !ok {
		return operandRef{}, false
	}
	c.emit(ir.ImpliedInsn(ir.PHA))
	c.ctx = c.ctx.WithExtraStackOffset(1)
	c.exprToA(r, pos)
	c.emit(ir.Zp(ir.STA, sc))
	c.emit(ir.ImpliedInsn(ir.PLA))
	c.ctx = c.ctx.WithExtraStackOffset(-1)
	return operandRef{ir.ZeroPage, sc}, true
}

// rhsOperand yields r as an ALU operand, spilling through the
// pseudoregister when it is not simple. A must already hold the left value.
func (c *compiler) rhsOperand(r prog.Expression, pos *ir.Position) (operandRef, bool) {
	if ref, ok := c.simpleOperand(r); ok {
		return ref, true
	}
	return c.spillRHS(r, pos)
}

func (c *compiler) binaryToA(e prog.BinaryExpression, pos *ir.Position) {
	if e.Op.IsComparison() || e.Op == prog.OpLogicalAnd || e.Op == prog.OpLogicalOr {
		c.condValue(e, pos)
		return
	}
	if lit, ok := foldDecimal(e); ok {
		c.emit(ir.Imm(ir.LDA, ir.Num(lit)))
		return
	}

	switch e.Op {
	case prog.OpAdd, prog.OpDecimalAdd:
		c.exprToA(e.L, pos)
		ref, ok := c.rhsOperand(e.R, pos)
		if !ok {
			return
		}
		c.decimalOp(e.Op == prog.OpDecimalAdd, func() {
			c.emit(ir.ImpliedInsn(ir.CLC))
			c.emitALU(ir.ADC, ref)
		})
	case prog.OpSub, prog.OpDecimalSub:
		c.exprToA(e.L, pos)
		ref, ok := c.rhsOperand(e.R, pos)
		if !ok {
			return
		}
		c.decimalOp(e.Op == prog.OpDecimalSub, func() {
			c.emit(ir.ImpliedInsn(ir.SEC))
			c.emitALU(ir.SBC, ref)
		})
	case prog.OpAnd:
		c.exprToA(e.L, pos)
		if ref, ok := c.rhsOperand(e.R, pos); ok {
			c.emitALU(ir.AND, ref)
		}
	case prog.OpOr:
		c.exprToA(e.L, pos)
		if ref, ok := c.rhsOperand(e.R, pos); ok {
			c.emitALU(ir.ORA, ref)
		}
	case prog.OpXor:
		c.exprToA(e.L, pos)
		if ref, ok := c.rhsOperand(e.R, pos); ok {
			c.emitALU(ir.EOR, ref)
		}
	case prog.OpMul:
		c.multiply(e, pos)
	case prog.OpShl:
		c.shift(e, ir.ASL, pos)
	case prog.OpShr:
		c.shift(e, ir.LSR, pos)
	case prog.OpDecimalShl:
		c.decimalShl(e, pos)
	case prog.OpDecimalMul, prog.OpDecimalShr:
		c.errorf(pos, "decimal %s with non-constant operands needs a runtime routine; none is configured", e.Op)
	default:
		c.errorf(pos, "internal: unhandled binary operator %s", e.Op)
	}
}

// decimalOp brackets body with SED/CLD when the operation is BCD.
func (c *compiler) decimalOp(decimal bool, body func()) {
	if decimal {
		c.emit(ir.ImpliedInsn(ir.SED))
		body()
		c.emit(ir.ImpliedInsn(ir.CLD))
		return
	}
	body()
}

// foldDecimal folds a decimal operator whose operands are both literals,
// using packed-BCD semantics.
func foldDecimal(e prog.BinaryExpression) (int64, bool) {
	if !e.Op.IsDecimal() {
		return 0, false
	}
	l, okL := e.L.(prog.LiteralExpression)
	r, okR := e.R.(prog.LiteralExpression)
	if !okL || !okR {
		return 0, false
	}
	a, b := bcdToInt(byte(l.Value)), bcdToInt(byte(r.Value))
	var v int
	switch e.Op {
	case prog.OpDecimalAdd:
		v = a + b
	case prog.OpDecimalSub:
		v = a - b
	case prog.OpDecimalMul:
		v = a * b
	case prog.OpDecimalShl:
		v = a << uint(b)
	case prog.OpDecimalShr:
		v = a >> uint(b)
	}
	return int64(intToBcd(v)), true
}

func bcdToInt(b byte) int { return int(b>>4)*10 + int(b&0x0f) }

func intToBcd(v int) byte {
	v = ((v % 100) + 100) % 100
	return byte(v/10<<4 | v%10)
}

// multiply lowers a byte product. A constant factor unrolls to a shift-add
// ladder through the pseudoregister; the general case runs an inline
// 8-round shift-add loop.
func (c *compiler) multiply(e prog.BinaryExpression, pos *ir.Position) {
	l, r := e.L, e.R
	// Put a literal factor on the right; multiplication commutes.
	if _, ok := l.(prog.LiteralExpression); ok {
		l, r = r, l
	}
	if lit, ok := r.(prog.LiteralExpression); ok {
		c.exprToA(l, pos)
		c.mulConst(byte(lit.Value), pos)
		return
	}

	sc0, ok := c.scratch(0, pos)
	if !ok {
		return
	}
	sc1, ok := c.scratch(1, pos)
	if !ok {
		return
	}
	c.exprToA(l, pos)
	c.emit(ir.ImpliedInsn(ir.PHA))
	c.ctx = c.ctx.WithExtraStackOffset(1)
	c.exprToA(r, pos)
	c.emit(ir.Zp(ir.STA, sc1))
	c.emit(ir.ImpliedInsn(ir.PLA))
	c.ctx = c.ctx.WithExtraStackOffset(-1)
	c.emit(ir.Zp(ir.STA, sc0))

	loop := c.nextLabel("ml")
	skip := c.nextLabel("ms")
	c.emit(
		ir.Imm(ir.LDA, ir.Num(0)),
		ir.Imm(ir.LDX, ir.Num(8)),
		ir.LabelLine(loop),
		ir.Zp(ir.LSR, sc1),
		ir.Rel(ir.BCC, skip),
		ir.ImpliedInsn(ir.CLC),
		ir.Zp(ir.ADC, sc0),
		ir.LabelLine(skip),
		ir.Zp(ir.ASL, sc0),
		ir.ImpliedInsn(ir.DEX),
		ir.Rel(ir.BNE, loop),
	)
}

// mulConst multiplies A by k with an unrolled shift-add ladder. Products of
// powers of two reduce to plain shifts.
func (c *compiler) mulConst(k byte, pos *ir.Position) {
	switch k {
	case 0:
		c.emit(ir.Imm(ir.LDA, ir.Num(0)))
		return
	case 1:
		return
	}
	if k&(k-1) == 0 {
		for n := bits.TrailingZeros8(k); n > 0; n-- {
			c.emit(ir.ImpliedInsn(ir.ASL))
		}
		return
	}
	sc, ok := c.scratch(0, pos)
	if !ok {
		return
	}
	c.emit(ir.Zp(ir.STA, sc), ir.Imm(ir.LDA, ir.Num(0)))
	for bit := 7 - bits.LeadingZeros8(k); bit >= 0; bit-- {
		if bit != 7-bits.LeadingZeros8(k) {
			c.emit(ir.ImpliedInsn(ir.ASL))
		}
		if k&(1<<uint(bit)) != 0 {
			c.emit(ir.ImpliedInsn(ir.CLC), ir.Zp(ir.ADC, sc))
		}
	}
}

// shift lowers << and >>. Literal counts unroll; a variable count runs a
// countdown loop in X.
func (c *compiler) shift(e prog.BinaryExpression, op ir.Opcode, pos *ir.Position) {
	c.exprToA(e.L, pos)
	if lit, ok := e.R.(prog.LiteralExpression); ok {
		n := int(lit.Value)
		if n >= 8 {
			c.emit(ir.Imm(ir.LDA, ir.Num(0)))
			return
		}
		for i := 0; i < n; i++ {
			c.emit(ir.ImpliedInsn(op))
		}
		return
	}
	c.shiftLoop(e.R, pos, func() {
		c.emit(ir.ImpliedInsn(op))
	})
}

// decimalShl doubles the accumulator in BCD once per shift count, since a
// decimal left shift is a decimal addition to itself.
func (c *compiler) decimalShl(e prog.BinaryExpression, pos *ir.Position) {
	sc, ok := c.scratch(0, pos)
	if !ok {
		return
	}
	double := func() {
		c.emit(
			ir.Zp(ir.STA, sc),
			ir.ImpliedInsn(ir.SED),
			ir.ImpliedInsn(ir.CLC),
			ir.Zp(ir.ADC, sc),
			ir.ImpliedInsn(ir.CLD),
		)
	}
	c.exprToA(e.L, pos)
	if lit, ok := e.R.(prog.LiteralExpression); ok {
		for i := int64(0); i < lit.Value; i++ {
			double()
		}
		return
	}
	c.shiftLoop(e.R, pos, double)
}

// shiftLoop runs body count times, count coming from the expression. The
// count lands in X and ticks down past zero, so a zero count runs nothing.
func (c *compiler) shiftLoop(count prog.Expression, pos *ir.Position, body func()) {
	c.emit(ir.ImpliedInsn(ir.PHA))
	c.ctx = c.ctx.WithExtraStackOffset(1)
	c.exprToA(count, pos)
	c.emit(ir.ImpliedInsn(ir.TAX), ir.ImpliedInsn(ir.PLA))
	c.ctx = c.ctx.WithExtraStackOffset(-1)

	loop := c.nextLabel("sh")
	done := c.nextLabel("sd")
	c.emit(
		ir.LabelLine(loop),
		ir.ImpliedInsn(ir.DEX),
		ir.Rel(ir.BMI, done),
	)
	body()
	c.jump(loop)
	c.emit(ir.LabelLine(done))
}

// jump emits an unconditional transfer, preferring the short BRA form when
// the target CPU has it. The assembler widens it back if the label lands
// out of range.
func (c *compiler) jump(label string) {
	if c.ctx.Options.Arch.HasCmosOps() {
		c.emit(ir.Rel(ir.BRA, label))
		return
	}
	c.emit(ir.Insn(ir.JMP, ir.Absolute, ir.Addr(label)))
}

// condValue materializes a condition as 0 or 1 in A.
func (c *compiler) condValue(e prog.Expression, pos *ir.Position) {
	yes := c.nextLabel("tr")
	done := c.nextLabel("td")
	c.condBranch(e, yes, true, pos)
	c.emit(ir.Imm(ir.LDA, ir.Num(0)))
	c.jump(done)
	c.emit(ir.LabelLine(yes), ir.Imm(ir.LDA, ir.Num(1)), ir.LabelLine(done))
}

// exprSigned reports whether e should compare as a signed byte.
func (c *compiler) exprSigned(e prog.Expression) bool {
	switch e := e.(type) {
	case prog.VariableExpression:
		if v, ok := c.ctx.Env.Variable(e.Name); ok {
			return v.Type.Signed
		}
	case prog.FunctionCallExpression:
		if f, ok := c.ctx.Env.FunctionThing(e.Name); ok {
			return f.ReturnType.Signed
		}
	case prog.BinaryExpression:
		return c.exprSigned(e.L) || c.exprSigned(e.R)
	}
	return false
}

// condBranch compiles e as a condition and branches to target when the
// condition's truth matches whenTrue, falling through otherwise.
func (c *compiler) condBranch(e prog.Expression, target string, whenTrue bool, pos *ir.Position) {
	if b, ok := e.(prog.BinaryExpression); ok {
		switch b.Op {
		case prog.OpLogicalAnd:
			if whenTrue {
				fail := c.nextLabel("la")
				c.condBranch(b.L, fail, false, pos)
				c.condBranch(b.R, target, true, pos)
				c.emit(ir.LabelLine(fail))
			} else {
				c.condBranch(b.L, target, false, pos)
				c.condBranch(b.R, target, false, pos)
			}
			return
		case prog.OpLogicalOr:
			if whenTrue {
				c.condBranch(b.L, target, true, pos)
				c.condBranch(b.R, target, true, pos)
			} else {
				ok := c.nextLabel("lo")
				c.condBranch(b.L, ok, true, pos)
				c.condBranch(b.R, target, false, pos)
				c.emit(ir.LabelLine(ok))
			}
			return
		}
		if b.Op.IsComparison() {
			c.compareBranch(b, target, whenTrue, pos)
			return
		}
	}
	// Any other expression is truthy when nonzero.
	c.exprToA(e, pos)
	if whenTrue {
		c.emit(ir.Rel(ir.BNE, target))
	} else {
		c.emit(ir.Rel(ir.BEQ, target))
	}
}

func (c *compiler) compareBranch(b prog.BinaryExpression, target string, whenTrue bool, pos *ir.Position) {
	op := b.Op
	if !whenTrue {
		op = negateComparison(op)
	}
	signed := c.exprSigned(b.L) || c.exprSigned(b.R)

	c.exprToA(b.L, pos)
	ref, ok := c.rhsOperand(b.R, pos)
	if !ok {
		return
	}

	if signed && op != prog.OpEq && op != prog.OpNe {
		c.signedCompareBranch(op, ref, target, pos)
		return
	}

	c.emitALU(ir.CMP, ref)
	switch op {
	case prog.OpEq:
		c.emit(ir.Rel(ir.BEQ, target))
	case prog.OpNe:
		c.emit(ir.Rel(ir.BNE, target))
	case prog.OpLt:
		c.emit(ir.Rel(ir.BCC, target))
	case prog.OpGe:
		c.emit(ir.Rel(ir.BCS, target))
	case prog.OpLe:
		c.emit(ir.Rel(ir.BCC, target), ir.Rel(ir.BEQ, target))
	case prog.OpGt:
		skip := c.nextLabel("gt")
		c.emit(ir.Rel(ir.BEQ, skip), ir.Rel(ir.BCS, target), ir.LabelLine(skip))
	}
}

func negateComparison(op prog.BinaryOp) prog.BinaryOp {
	switch op {
	case prog.OpEq:
		return prog.OpNe
	case prog.OpNe:
		return prog.OpEq
	case prog.OpLt:
		return prog.OpGe
	case prog.OpGe:
		return prog.OpLt
	case prog.OpLe:
		return prog.OpGt
	default:
		return prog.OpLe
	}
}

// signedCompareBranch orders two signed bytes. The subtraction leaves the
// sign of the difference in N once overflow is folded back in with the
// EOR #$80 correction. Equality must be decided before the correction,
// which rewrites Z.
func (c *compiler) signedCompareBranch(op prog.BinaryOp, ref operandRef, target string, pos *ir.Position) {
	c.emit(ir.ImpliedInsn(ir.SEC))
	c.emitALU(ir.SBC, ref)

	var skip string
	switch op {
	case prog.OpLe:
		c.emit(ir.Rel(ir.BEQ, target))
	case prog.OpGt:
		skip = c.nextLabel("sg")
		c.emit(ir.Rel(ir.BEQ, skip))
	}

	fix := c.nextLabel("sc")
	c.emit(
		ir.Rel(ir.BVC, fix),
		ir.Imm(ir.EOR, ir.Num(0x80)),
		ir.LabelLine(fix),
	)
	switch op {
	case prog.OpLt, prog.OpLe:
		c.emit(ir.Rel(ir.BMI, target))
	case prog.OpGe:
		c.emit(ir.Rel(ir.BPL, target))
	case prog.OpGt:
		c.emit(ir.Rel(ir.BPL, target), ir.LabelLine(skip))
	}
}
