// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ir

import (
	"fmt"
	"strings"
)

// A Position locates a line in the original source file.
type Position struct {
	File string
	Line int
}

// An AssemblyLine is one pseudo-assembly instruction. Lines are immutable
// once built; optimization passes produce new lists instead of mutating.
//
// Elidable lines may be deleted or rewritten by the optimizer. Non-elidable
// lines (user-written inline assembly, function entry labels, interrupt
// prologues) must survive every pass byte for byte.
type AssemblyLine struct {
	Op       Opcode
	Mode     AddrMode
	Operand  Constant
	Elidable bool
	Pos      *Position
}

// Insn builds an elidable instruction line. It panics if the (opcode, mode)
// pair is not part of the ISA; the compiler must never construct one.
func Insn(op Opcode, mode AddrMode, operand Constant) AssemblyLine {
	if !Legal(op, mode) {
		panic(fmt.Sprintf("illegal combination: %s %s", op, mode))
	}
	return AssemblyLine{Op: op, Mode: mode, Operand: operand, Elidable: true}
}

// ImpliedInsn builds an operand-less instruction line.
func ImpliedInsn(op Opcode) AssemblyLine {
	return Insn(op, Implied, nil)
}

// Imm builds an immediate-mode instruction line.
func Imm(op Opcode, operand Constant) AssemblyLine {
	return Insn(op, Immediate, operand)
}

// Abs builds an instruction line addressing memory absolutely, selecting the
// zero-page form when the operand is a known address below 256.
func Abs(op Opcode, operand Constant) AssemblyLine {
	if n, ok := operand.(NumericConstant); ok && n.Value >= 0 && n.Value < 0x100 {
		if Legal(op, ZeroPage) {
			return Insn(op, ZeroPage, operand)
		}
	}
	return Insn(op, Absolute, operand)
}

// Zp builds a zero-page instruction line.
func Zp(op Opcode, operand Constant) AssemblyLine {
	return Insn(op, ZeroPage, operand)
}

// Rel builds a relative branch to a label.
func Rel(op Opcode, label string) AssemblyLine {
	return Insn(op, Relative, Addr(label))
}

// LabelLine builds an elidable label definition.
func LabelLine(name string) AssemblyLine {
	return AssemblyLine{Op: LABEL, Mode: DoesNotExist, Operand: Addr(name), Elidable: true}
}

// RawByte builds a raw data byte line.
func RawByte(c Constant) AssemblyLine {
	return AssemblyLine{Op: BYTE, Mode: DoesNotExist, Operand: c, Elidable: true}
}

// Pinned returns a copy of the line with the elidable flag cleared.
func (l AssemblyLine) Pinned() AssemblyLine {
	l.Elidable = false
	return l
}

// At returns a copy of the line annotated with a source position.
func (l AssemblyLine) At(pos *Position) AssemblyLine {
	l.Pos = pos
	return l
}

// LabelName returns the defined label name of a LABEL line, or "".
func (l AssemblyLine) LabelName() string {
	if l.Op != LABEL {
		return ""
	}
	if a, ok := l.Operand.(MemoryAddressConstant); ok {
		return a.Name
	}
	return ""
}

// RefersToLabel reports whether the line's operand mentions the named label.
func (l AssemblyLine) RefersToLabel(name string) bool {
	if l.Op == LABEL || l.Operand == nil {
		return false
	}
	return l.Operand.IsRelatedTo(name)
}

// SizeInBytes returns the encoded width of the line.
func (l AssemblyLine) SizeInBytes() int {
	return Bytes(l.Op, l.Mode)
}

// Cost returns the line's cost in cycles.
func (l AssemblyLine) Cost() int {
	return Cycles(l.Op, l.Mode)
}

// listingOperand renders an operand for an assembly listing. Plain numbers
// always take the sized hex form, unlike Constant.String, which favors
// small decimals for constant-algebra debugging.
func listingOperand(c Constant) string {
	if n, ok := c.(NumericConstant); ok {
		return fmt.Sprintf("$%0*X", n.Sz*2, uint64(n.Value)&((1<<(uint(n.Sz)*8))-1))
	}
	return c.String()
}

func (l AssemblyLine) String() string {
	switch l.Op {
	case LABEL:
		return l.LabelName() + ":"
	case BYTE:
		return fmt.Sprintf("    !byte %s", listingOperand(l.Operand))
	}
	var b strings.Builder
	b.WriteString("    ")
	b.WriteString(l.Op.String())
	if l.Mode != Implied && l.Mode != DoesNotExist && l.Operand != nil {
		b.WriteByte(' ')
		fmt.Fprintf(&b, modeFormat[l.Mode], listingOperand(l.Operand))
	}
	if !l.Elidable {
		b.WriteString(" ; +")
	}
	return b.String()
}

// CloneLines copies a line list. Passes use it before local surgery so the
// input list is never mutated.
func CloneLines(lines []AssemblyLine) []AssemblyLine {
	out := make([]AssemblyLine, len(lines))
	copy(out, lines)
	return out
}
