// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package opt

import (
	"github.com/mfc-lang/mfc/flow"
	"github.com/mfc-lang/mfc/ir"
)

// AssOpt is the assembly-level rule set interleaved with Good at -O2 and
// above. Its rules work on instruction selection rather than dataflow:
// folding immediates, merging shifts, strength-reducing transfers.
var AssOpt = Pass{Name: "assopt", Rules: assOptRules()}

func assOptRules() []Rule {
	rules := []Rule{
		{
			Name: "ShiftUpDownToMask",
			Pattern: []LinePattern{
				HasOpcode(ir.ASL).WithMode(ir.Implied),
				HasOpcode(ir.LSR).WithMode(ir.Implied).When(DeadAfter(flow.LiveC)),
			},
			Rewrite: ReplaceWith(func(m *Match) []ir.AssemblyLine {
				return []ir.AssemblyLine{ir.Imm(ir.AND, ir.Num(0x7f))}
			}),
		},
		{
			Name: "ShiftDownUpToMask",
			Pattern: []LinePattern{
				HasOpcode(ir.LSR).WithMode(ir.Implied),
				HasOpcode(ir.ASL).WithMode(ir.Implied).When(DeadAfter(flow.LiveC)),
			},
			Rewrite: ReplaceWith(func(m *Match) []ir.AssemblyLine {
				return []ir.AssemblyLine{ir.Imm(ir.AND, ir.Num(0xfe))}
			}),
		},
		{
			Name: "PhpPlpCancel",
			Pattern: []LinePattern{
				HasOpcode(ir.PHP),
				HasOpcode(ir.PLP),
			},
			Rewrite: Drop,
		},
		{
			Name: "DeadFlagSetter",
			Pattern: []LinePattern{
				HasOpcode(ir.CLC, ir.SEC).When(DeadAfter(flow.LiveC)),
			},
			Rewrite: Drop,
		},
	}

	// CPX #0 / CPY #0 right after the corresponding load repeat its flags.
	for _, p := range []struct{ ld, cp ir.Opcode }{
		{ir.LDX, ir.CPX}, {ir.LDY, ir.CPY},
	} {
		rules = append(rules, Rule{
			Name: "CompareZeroAfter" + p.ld.String(),
			Pattern: []LinePattern{
				HasOpcode(p.ld),
				HasOpcode(p.cp).WithMode(ir.Immediate).
					When(OperandIs(0)).When(DeadAfter(flow.LiveC)),
			},
			Rewrite: KeepOnly(0),
		})
	}

	// A doubled transfer repeats both the copy and the flag update.
	for _, op := range []ir.Opcode{ir.TAX, ir.TAY, ir.TXA, ir.TYA} {
		rules = append(rules, Rule{
			Name:    "DoubleTransfer" + op.String(),
			Pattern: []LinePattern{HasOpcode(op), HasOpcode(op)},
			Rewrite: KeepOnly(0),
		})
	}

	// Fold chains of immediate logic into the load.
	for _, p := range []struct {
		op ir.Opcode
		f  func(a, b byte) byte
	}{
		{ir.ORA, func(a, b byte) byte { return a | b }},
		{ir.AND, func(a, b byte) byte { return a & b }},
		{ir.EOR, func(a, b byte) byte { return a ^ b }},
	} {
		f := p.f
		rules = append(rules, Rule{
			Name: "FoldImmediate" + p.op.String(),
			Pattern: []LinePattern{
				HasOpcode(ir.LDA).WithMode(ir.Immediate).When(OperandEvaluable()),
				HasOpcode(p.op).WithMode(ir.Immediate).When(OperandEvaluable()),
			},
			Rewrite: ReplaceWith(func(m *Match) []ir.AssemblyLine {
				a, _ := operandByte(m.Line(0))
				b, _ := operandByte(m.Line(1))
				return []ir.AssemblyLine{ir.Imm(ir.LDA, ir.Num(int64(f(a, b))))}
			}),
		})
	}

	return rules
}

// OperandEvaluable holds when the operand folds to a number without symbol
// resolution.
func OperandEvaluable() Cond {
	return func(m *Match, idx int) bool {
		_, ok := operandByte(m.Lines[idx])
		return ok
	}
}
