// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package opt rewrites pseudo-assembly line lists. Rules are data: a window
// pattern, a set of dataflow preconditions and a replacement builder. The
// engine proves each rule's preconditions against the flow analyses before
// applying it, and never consumes a non-elidable line.
package opt

import (
	"github.com/mfc-lang/mfc/flow"
	"github.com/mfc-lang/mfc/ir"
)

// A Rule is one named peephole rewrite.
type Rule struct {
	Name    string
	Pattern []LinePattern

	// Rewrite builds the replacement for a matched window. Returning
	// ok=false withdraws the match.
	Rewrite func(m *Match) (repl []ir.AssemblyLine, ok bool)
}

// A LinePattern matches one line of a rule window.
type LinePattern struct {
	Ops     ir.OpcodeSet         // nil matches any opcode
	Modes   map[ir.AddrMode]bool // nil matches any mode
	Capture int                  // >0: unification variable for the operand
	Where   Cond                 // extra predicate, may be nil
}

// A Cond is a per-line precondition checked during matching. idx is the
// line's position within the window.
type Cond func(m *Match, idx int) bool

// HasOpcode starts a pattern line matching any of the given opcodes.
func HasOpcode(ops ...ir.Opcode) LinePattern {
	return LinePattern{Ops: ir.Opcodes(ops...)}
}

// InSet starts a pattern line matching a prebuilt opcode set.
func InSet(s ir.OpcodeSet) LinePattern {
	return LinePattern{Ops: s}
}

// WithMode restricts the pattern line to the given addressing modes.
func (p LinePattern) WithMode(modes ...ir.AddrMode) LinePattern {
	p.Modes = make(map[ir.AddrMode]bool, len(modes))
	for _, m := range modes {
		p.Modes[m] = true
	}
	return p
}

// Capturing binds the line's operand to unification variable v. A variable
// bound twice in one window must bind structurally equal constants.
func (p LinePattern) Capturing(v int) LinePattern {
	p.Capture = v
	return p
}

// When attaches a precondition to the pattern line.
func (p LinePattern) When(c Cond) LinePattern {
	if p.Where == nil {
		p.Where = c
		return p
	}
	prev := p.Where
	p.Where = func(m *Match, idx int) bool {
		return prev(m, idx) && c(m, idx)
	}
	return p
}

// A Match is one successful window match handed to a rule's Rewrite.
type Match struct {
	Lines  []ir.AssemblyLine // the matched window
	States []flow.Status     // abstract state before each line
	Live   []flow.Liveness   // liveness after each line
	vars   map[int]ir.Constant
}

// Operand returns the constant bound to a unification variable.
func (m *Match) Operand(v int) ir.Constant { return m.vars[v] }

// Line returns one matched line.
func (m *Match) Line(idx int) ir.AssemblyLine { return m.Lines[idx] }

func (r *Rule) match(lines []ir.AssemblyLine, start int,
	states []flow.Status, live []flow.Liveness) (*Match, bool) {

	if start+len(r.Pattern) > len(lines) {
		return nil, false
	}
	m := &Match{vars: make(map[int]ir.Constant)}
	for j, p := range r.Pattern {
		l := lines[start+j]
		if !l.Elidable {
			return nil, false
		}
		if p.Ops != nil && !p.Ops.Contains(l.Op) {
			return nil, false
		}
		if p.Modes != nil && !p.Modes[l.Mode] {
			return nil, false
		}
		if p.Capture > 0 {
			if bound, ok := m.vars[p.Capture]; ok {
				if !sameConstant(bound, l.Operand) {
					return nil, false
				}
			} else {
				m.vars[p.Capture] = l.Operand
			}
		}
		m.Lines = append(m.Lines, l)
		m.States = append(m.States, states[start+j])
		m.Live = append(m.Live, live[start+j])
		if p.Where != nil && !p.Where(m, j) {
			return nil, false
		}
	}
	return m, true
}

// sameConstant is structural equality over the closed constant variants.
func sameConstant(a, b ir.Constant) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a == b
}

// Preconditions shared by many rules.

// DeadAfter holds when none of the given registers or flags is consumed
// after the line.
func DeadAfter(bits flow.Liveness) Cond {
	return func(m *Match, idx int) bool {
		return !m.Live[idx].HasAny(bits)
	}
}

// RegKnown holds when the register provably equals b before the line.
func RegKnown(r flow.Register, b byte) Cond {
	return func(m *Match, idx int) bool {
		v, ok := m.States[idx].Reg(r).Known()
		return ok && v == b
	}
}

// CarryIs holds when the carry flag provably has the given value before
// the line.
func CarryIs(set bool) Cond {
	return func(m *Match, idx int) bool {
		v, ok := m.States[idx].C.Known()
		return ok && v == set
	}
}

// DecimalClear holds when the decimal flag is provably clear before the line.
func DecimalClear() Cond {
	return func(m *Match, idx int) bool {
		v, ok := m.States[idx].D.Known()
		return ok && !v
	}
}

// RegsEqual holds when the two registers provably hold the same byte before
// the line, either through known values or a tracked copy.
func RegsEqual(a, b flow.Register) Cond {
	return func(m *Match, idx int) bool {
		s := m.States[idx]
		if s.Reg(a).IsSameAs(b) || s.Reg(b).IsSameAs(a) {
			return true
		}
		va, oka := s.Reg(a).Known()
		vb, okb := s.Reg(b).Known()
		return oka && okb && va == vb
	}
}

// SameModeAs holds when the line uses the same addressing mode as an
// earlier window line. Operand unification alone does not imply the two
// lines touch the same address.
func SameModeAs(i int) Cond {
	return func(m *Match, idx int) bool {
		return m.Lines[idx].Mode == m.Lines[i].Mode
	}
}

// OperandUnrelated holds when the line's operand cannot alias the constant
// bound to variable v.
func OperandUnrelated(v int) Cond {
	return func(m *Match, idx int) bool {
		bound, ok := m.vars[v].(ir.MemoryAddressConstant)
		if !ok {
			return false
		}
		op := m.Lines[idx].Operand
		if op == nil {
			return true
		}
		return !op.IsRelatedTo(bound.Name)
	}
}

// OperandNamePrefix holds when the operand is a memory address whose name
// starts with the given prefix. Used by the pseudoregister rules.
func OperandNamePrefix(prefix string) Cond {
	return func(m *Match, idx int) bool {
		a, ok := m.Lines[idx].Operand.(ir.MemoryAddressConstant)
		return ok && len(a.Name) >= len(prefix) && a.Name[:len(prefix)] == prefix
	}
}

// Rewrite helpers.

// Drop deletes the whole window.
func Drop(m *Match) ([]ir.AssemblyLine, bool) {
	return nil, true
}

// KeepOnly keeps the given window lines, in order.
func KeepOnly(idx ...int) func(m *Match) ([]ir.AssemblyLine, bool) {
	return func(m *Match) ([]ir.AssemblyLine, bool) {
		out := make([]ir.AssemblyLine, 0, len(idx))
		for _, i := range idx {
			out = append(out, m.Lines[i])
		}
		return out, true
	}
}

// ReplaceWith emits fixed lines built from the match.
func ReplaceWith(build func(m *Match) []ir.AssemblyLine) func(m *Match) ([]ir.AssemblyLine, bool) {
	return func(m *Match) ([]ir.AssemblyLine, bool) {
		return build(m), true
	}
}
