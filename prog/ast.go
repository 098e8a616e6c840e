// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package prog

import "github.com/mfc-lang/mfc/ir"

// An Expression is a checked expression tree node delivered by the front
// end. The set is closed; the code generator switches exhaustively.
type Expression interface {
	expression()
}

// A LiteralExpression is an integer literal.
type LiteralExpression struct {
	Value int64
	Size  int // 1 or 2 bytes
}

// A VariableExpression reads a named scalar.
type VariableExpression struct {
	Name string
}

// An IndexedExpression reads one byte of a named array.
type IndexedExpression struct {
	Name  string
	Index Expression
}

// A FunctionCallExpression calls a function and yields its return value.
type FunctionCallExpression struct {
	Name string
	Args []Expression
}

// A BinaryOp is a checked binary operator.
type BinaryOp byte

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpAnd
	OpOr
	OpXor
	OpShl
	OpShr
	OpDecimalAdd // +'
	OpDecimalSub // -'
	OpDecimalMul // *'
	OpDecimalShl // <<'
	OpDecimalShr // >>'
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpLogicalAnd
	OpLogicalOr
)

var binaryOpName = []string{
	"+", "-", "*", "&", "|", "^", "<<", ">>",
	"+'", "-'", "*'", "<<'", ">>'",
	"==", "!=", "<", "<=", ">", ">=", "&&", "||",
}

func (op BinaryOp) String() string { return binaryOpName[op] }

// IsComparison reports whether the operator yields a condition.
func (op BinaryOp) IsComparison() bool {
	return op >= OpEq && op <= OpGe
}

// IsDecimal reports whether the operator uses BCD arithmetic.
func (op BinaryOp) IsDecimal() bool {
	return op >= OpDecimalAdd && op <= OpDecimalShr
}

// A BinaryExpression combines two operands. Chains of the same additive
// operator arrive left-associated.
type BinaryExpression struct {
	Op   BinaryOp
	L, R Expression
}

// A SeparateBytesExpression joins a high and a low byte into a word (hi:lo).
type SeparateBytesExpression struct {
	Hi, Lo Expression
}

func (LiteralExpression) expression()       {}
func (VariableExpression) expression()      {}
func (IndexedExpression) expression()       {}
func (FunctionCallExpression) expression()  {}
func (BinaryExpression) expression()        {}
func (SeparateBytesExpression) expression() {}

// A Statement is a checked statement node.
type Statement interface {
	statement()
}

// An Assignment stores a value through an lvalue (variable or indexed).
type Assignment struct {
	Target Expression // VariableExpression or IndexedExpression
	Value  Expression
	Pos    *ir.Position
}

// An ExpressionStatement evaluates an expression for its side effects,
// typically a void function call.
type ExpressionStatement struct {
	Expr Expression
	Pos  *ir.Position
}

// A ReturnStatement leaves the current function, optionally with a value.
type ReturnStatement struct {
	Value Expression // nil for void returns
	Pos   *ir.Position
}

// An IfStatement lowers to a conditional-branch skeleton.
type IfStatement struct {
	Condition Expression
	Then      []Statement
	Else      []Statement
	Pos       *ir.Position
}

// A WhileStatement is a head-tested loop.
type WhileStatement struct {
	Label     string // user-visible loop label, "" if none
	Condition Expression
	Body      []Statement
	Pos       *ir.Position
}

// A DoWhileStatement is a tail-tested loop.
type DoWhileStatement struct {
	Label     string
	Body      []Statement
	Condition Expression
	Pos       *ir.Position
}

// ForDirection selects the loop form of a for statement.
type ForDirection byte

const (
	ForTo            ForDirection = iota // inclusive ascending
	ForUntil                             // exclusive ascending
	ForDownTo                            // inclusive descending
	ForParallelTo                        // ascending, order not observable
	ForParallelUntil                     // exclusive ascending, order not observable
)

// A ForStatement iterates a byte variable across a range.
type ForStatement struct {
	Label     string
	Variable  string
	Start     Expression
	End       Expression
	Direction ForDirection
	Body      []Statement
	Pos       *ir.Position
}

// A BreakStatement exits the named loop; "" means the innermost.
type BreakStatement struct {
	Label string
	Pos   *ir.Position
}

// A ContinueStatement restarts the named loop; "" means the innermost.
type ContinueStatement struct {
	Label string
	Pos   *ir.Position
}

// An InlineAssemblyStatement embeds user-written assembly. Its lines are
// pinned: the optimizer must preserve them verbatim.
type InlineAssemblyStatement struct {
	Lines []ir.AssemblyLine
	Pos   *ir.Position
}

func (Assignment) statement()              {}
func (ExpressionStatement) statement()     {}
func (ReturnStatement) statement()         {}
func (IfStatement) statement()             {}
func (WhileStatement) statement()          {}
func (DoWhileStatement) statement()        {}
func (ForStatement) statement()            {}
func (BreakStatement) statement()          {}
func (ContinueStatement) statement()       {}
func (InlineAssemblyStatement) statement() {}

// A Program is the front end's finished product: a resolved environment and
// the entry points reachability analysis starts from.
type Program struct {
	Env         *Environment
	EntryPoints []string
}

// Reachable computes the set of functions reachable from the entry points
// through static calls. Unreachable functions are omitted from placement.
func (p *Program) Reachable() map[string]bool {
	reached := make(map[string]bool)
	var visit func(name string)
	visit = func(name string) {
		if reached[name] {
			return
		}
		f, ok := p.Env.FunctionThing(name)
		if !ok {
			return
		}
		reached[name] = true
		for _, stmt := range f.Body {
			walkCalls(stmt, visit)
		}
	}
	for _, e := range p.EntryPoints {
		visit(e)
	}
	return reached
}

func walkCalls(s Statement, visit func(string)) {
	var walkExpr func(e Expression)
	walkExpr = func(e Expression) {
		switch e := e.(type) {
		case FunctionCallExpression:
			visit(e.Name)
			for _, a := range e.Args {
				walkExpr(a)
			}
		case BinaryExpression:
			walkExpr(e.L)
			walkExpr(e.R)
		case IndexedExpression:
			walkExpr(e.Index)
		case SeparateBytesExpression:
			walkExpr(e.Hi)
			walkExpr(e.Lo)
		}
	}
	switch s := s.(type) {
	case Assignment:
		walkExpr(s.Target)
		walkExpr(s.Value)
	case ExpressionStatement:
		walkExpr(s.Expr)
	case ReturnStatement:
		if s.Value != nil {
			walkExpr(s.Value)
		}
	case IfStatement:
		walkExpr(s.Condition)
		for _, t := range s.Then {
			walkCalls(t, visit)
		}
		for _, t := range s.Else {
			walkCalls(t, visit)
		}
	case WhileStatement:
		walkExpr(s.Condition)
		for _, t := range s.Body {
			walkCalls(t, visit)
		}
	case DoWhileStatement:
		walkExpr(s.Condition)
		for _, t := range s.Body {
			walkCalls(t, visit)
		}
	case ForStatement:
		walkExpr(s.Start)
		walkExpr(s.End)
		for _, t := range s.Body {
			walkCalls(t, visit)
		}
	case InlineAssemblyStatement:
		for _, l := range s.Lines {
			if l.Op == ir.JSR || l.Op == ir.JMP {
				if a, ok := l.Operand.(ir.MemoryAddressConstant); ok {
					visit(a.Name)
				}
			}
		}
	}
}
