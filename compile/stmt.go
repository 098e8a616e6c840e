// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compile

import (
	"github.com/mfc-lang/mfc/ir"
	"github.com/mfc-lang/mfc/prog"
)

func (c *compiler) statement(s prog.Statement) {
	switch s := s.(type) {
	case prog.Assignment:
		c.assignment(s)
	case prog.ExpressionStatement:
		c.exprToA(s.Expr, s.Pos)
	case prog.ReturnStatement:
		c.returnStatement(s)
	case prog.IfStatement:
		c.ifStatement(s)
	case prog.WhileStatement:
		c.whileStatement(s)
	case prog.DoWhileStatement:
		c.doWhileStatement(s)
	case prog.ForStatement:
		c.forStatement(s)
	case prog.BreakStatement:
		if target, ok := c.ctx.BreakLabel(s.Label); ok {
			c.jump(target)
		} else {
			c.errorf(s.Pos, "break outside of a matching loop")
		}
	case prog.ContinueStatement:
		if target, ok := c.ctx.ContinueLabel(s.Label); ok {
			c.jump(target)
		} else {
			c.errorf(s.Pos, "continue outside of a matching loop")
		}
	case prog.InlineAssemblyStatement:
		c.emitPinned(s.Lines...)
	default:
		c.errorf(nil, "internal: unhandled statement node %T", s)
	}
}

// block compiles a statement list under a derived context.
func (c *compiler) block(stmts []prog.Statement, ctx prog.CompilationContext) {
	saved := c.ctx
	c.ctx = ctx
	for _, s := range stmts {
		c.statement(s)
	}
	c.ctx = saved
}

func (c *compiler) assignment(s prog.Assignment) {
	switch target := s.Target.(type) {
	case prog.VariableExpression:
		v, ok := c.ctx.Env.Variable(target.Name)
		if !ok {
			c.errorf(s.Pos, "assignment to undefined variable %s", target.Name)
			return
		}
		if v.Type.Size() == 2 {
			c.wordAssignment(v, s.Value, s.Pos)
			return
		}
		c.exprToA(s.Value, s.Pos)
		c.emit(c.varAccess(ir.STA, v)...)
	case prog.IndexedExpression:
		c.exprToA(s.Value, s.Pos)
		c.indexedStore(target, s.Pos)
	default:
		c.errorf(s.Pos, "internal: assignment target is not an lvalue: %T", target)
	}
}

// wordAssignment stores a 16-bit value byte by byte. Supported sources:
// literals, word variables, and explicit hi:lo joins; anything else would
// need word-sized expression lowering.
func (c *compiler) wordAssignment(v *prog.Variable, value prog.Expression, pos *ir.Position) {
	hiSlot := ir.AddC(v.Toa(), ir.Num(1))
	switch value := value.(type) {
	case prog.LiteralExpression:
		c.emit(ir.Imm(ir.LDA, ir.Num(value.Value&0xff)))
		c.emit(c.varAccess(ir.STA, v)...)
		c.emit(ir.Imm(ir.LDA, ir.Num((value.Value>>8)&0xff)))
		c.emit(ir.Abs(ir.STA, hiSlot))
	case prog.SeparateBytesExpression:
		c.exprToA(value.Lo, pos)
		c.emit(c.varAccess(ir.STA, v)...)
		c.exprToA(value.Hi, pos)
		c.emit(ir.Abs(ir.STA, hiSlot))
	case prog.VariableExpression:
		src, ok := c.ctx.Env.Variable(value.Name)
		if ok && src.Type.Size() == 2 {
			c.emit(c.varAccess(ir.LDA, src)...)
			c.emit(c.varAccess(ir.STA, v)...)
			c.emit(ir.Abs(ir.LDA, ir.AddC(src.Toa(), ir.Num(1))))
			c.emit(ir.Abs(ir.STA, hiSlot))
			return
		}
		// Byte source widens with a zero high byte.
		c.exprToA(value, pos)
		c.emit(c.varAccess(ir.STA, v)...)
		c.emit(ir.Imm(ir.LDA, ir.Num(0)))
		c.emit(ir.Abs(ir.STA, hiSlot))
	default:
		c.exprToA(value, pos)
		c.emit(c.varAccess(ir.STA, v)...)
		c.emit(ir.Imm(ir.LDA, ir.Num(0)))
		c.emit(ir.Abs(ir.STA, hiSlot))
	}
}

func (c *compiler) returnStatement(s prog.ReturnStatement) {
	hasValue := s.Value != nil && c.ctx.Function.ReturnType.Size() > 0
	if s.Value != nil {
		c.exprToA(s.Value, s.Pos)
	}
	c.epilogue(hasValue)
}

func (c *compiler) ifStatement(s prog.IfStatement) {
	if len(s.Else) == 0 {
		end := c.nextLabel("fi")
		c.condBranch(s.Condition, end, false, s.Pos)
		c.block(s.Then, c.ctx)
		c.emit(ir.LabelLine(end))
		return
	}
	elseL := c.nextLabel("el")
	end := c.nextLabel("fi")
	c.condBranch(s.Condition, elseL, false, s.Pos)
	c.block(s.Then, c.ctx)
	c.jump(end)
	c.emit(ir.LabelLine(elseL))
	c.block(s.Else, c.ctx)
	c.emit(ir.LabelLine(end))
}

func (c *compiler) whileStatement(s prog.WhileStatement) {
	start := c.nextLabel("wh")
	end := c.nextLabel("ew")
	c.emit(ir.LabelLine(start))
	c.condBranch(s.Condition, end, false, s.Pos)
	c.block(s.Body, c.ctx.AddLabels(s.Label, end, start))
	c.jump(start)
	c.emit(ir.LabelLine(end))
}

func (c *compiler) doWhileStatement(s prog.DoWhileStatement) {
	start := c.nextLabel("do")
	cond := c.nextLabel("dc")
	end := c.nextLabel("ed")
	c.emit(ir.LabelLine(start))
	c.block(s.Body, c.ctx.AddLabels(s.Label, end, cond))
	c.emit(ir.LabelLine(cond))
	c.condBranch(s.Condition, start, true, s.Pos)
	c.emit(ir.LabelLine(end))
}

// forStatement lowers the counted loop forms. The parallel variants give
// the compiler freedom over iteration order; lowering them ascending is
// always valid.
func (c *compiler) forStatement(s prog.ForStatement) {
	v, ok := c.ctx.Env.Variable(s.Variable)
	if !ok {
		c.errorf(s.Pos, "for loop over undefined variable %s", s.Variable)
		return
	}

	// The limit is evaluated once, before the loop.
	limit, ok := c.simpleOperand(s.End)
	if !ok {
		c.exprToA(s.End, s.Pos)
		sc, scOK := c.scratch(0, s.Pos)
		if !scOK {
			return
		}
		c.emit(ir.Zp(ir.STA, sc))
		limit = operandRef{ir.ZeroPage, sc}
	}

	c.exprToA(s.Start, s.Pos)
	c.emit(c.varAccess(ir.STA, v)...)

	body := c.nextLabel("fo")
	cont := c.nextLabel("fc")
	end := c.nextLabel("fe")

	switch s.Direction {
	case prog.ForUntil, prog.ForParallelUntil:
		// Head-tested: exit as soon as the counter reaches the limit.
		c.emit(ir.LabelLine(body))
		c.emit(c.varAccess(ir.LDA, v)...)
		c.emitALU(ir.CMP, limit)
		c.emit(ir.Rel(ir.BCS, end))
		c.block(s.Body, c.ctx.AddLabels(s.Label, end, cont))
		c.emit(ir.LabelLine(cont))
		c.emit(c.varAccess(ir.INC, v)...)
		c.jump(body)
		c.emit(ir.LabelLine(end))

	case prog.ForTo, prog.ForParallelTo:
		// Tail-tested so the inclusive bound can be 255 without the
		// counter wrapping past it.
		c.emit(ir.LabelLine(body))
		c.block(s.Body, c.ctx.AddLabels(s.Label, end, cont))
		c.emit(ir.LabelLine(cont))
		c.emit(c.varAccess(ir.LDA, v)...)
		c.emitALU(ir.CMP, limit)
		c.emit(ir.Rel(ir.BEQ, end))
		c.emit(c.varAccess(ir.INC, v)...)
		c.jump(body)
		c.emit(ir.LabelLine(end))

	case prog.ForDownTo:
		c.emit(ir.LabelLine(body))
		c.block(s.Body, c.ctx.AddLabels(s.Label, end, cont))
		c.emit(ir.LabelLine(cont))
		c.emit(c.varAccess(ir.LDA, v)...)
		c.emitALU(ir.CMP, limit)
		c.emit(ir.Rel(ir.BEQ, end))
		c.emit(c.varAccess(ir.DEC, v)...)
		c.jump(body)
		c.emit(ir.LabelLine(end))
	}
}
