// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package opt

import (
	"github.com/mfc-lang/mfc/flow"
	"github.com/mfc-lang/mfc/ir"
)

// Good is the main -O2 rule set. It leans on the dataflow analyses: dead
// registers, dead flags and proven flag values unlock most of its rewrites.
var Good = Pass{Name: "good", Rules: goodRules()}

var branchInverse = map[ir.Opcode]ir.Opcode{
	ir.BCC: ir.BCS, ir.BCS: ir.BCC,
	ir.BEQ: ir.BNE, ir.BNE: ir.BEQ,
	ir.BMI: ir.BPL, ir.BPL: ir.BMI,
	ir.BVC: ir.BVS, ir.BVS: ir.BVC,
}

// branchCondition reports the flag a conditional branch tests and the value
// that takes the branch.
func branchCondition(s flow.Status, op ir.Opcode) (val flow.FlagValue, takenWhen bool) {
	switch op {
	case ir.BEQ:
		return s.Z, true
	case ir.BNE:
		return s.Z, false
	case ir.BCS:
		return s.C, true
	case ir.BCC:
		return s.C, false
	case ir.BMI:
		return s.N, true
	case ir.BPL:
		return s.N, false
	case ir.BVS:
		return s.V, true
	default:
		return s.V, false
	}
}

// BranchDecided holds when the dataflow proves the branch outcome.
func BranchDecided(taken bool) Cond {
	return func(m *Match, idx int) bool {
		f, when := branchCondition(m.States[idx], m.Lines[idx].Op)
		v, known := f.Known()
		if !known {
			return false
		}
		return (v == when) == taken
	}
}

// nzFromA holds the opcodes that leave N and Z mirroring the accumulator.
var nzFromA = ir.Opcodes(ir.LDA, ir.AND, ir.ORA, ir.EOR, ir.TXA, ir.TYA, ir.PLA)

func goodRules() []Rule {
	rules := []Rule{
		{
			Name: "TailCall",
			Pattern: []LinePattern{
				HasOpcode(ir.JSR).WithMode(ir.Absolute).Capturing(1),
				HasOpcode(ir.RTS),
			},
			Rewrite: ReplaceWith(func(m *Match) []ir.AssemblyLine {
				return []ir.AssemblyLine{ir.Insn(ir.JMP, ir.Absolute, m.Operand(1))}
			}),
		},
		{
			Name: "BranchOverJump",
			Pattern: []LinePattern{
				InSet(ir.ConditionalBranches).Capturing(1),
				HasOpcode(ir.JMP).WithMode(ir.Absolute).Capturing(2),
				HasOpcode(ir.LABEL).Capturing(1),
			},
			Rewrite: ReplaceWith(func(m *Match) []ir.AssemblyLine {
				inv := branchInverse[m.Line(0).Op]
				return []ir.AssemblyLine{
					ir.Insn(inv, ir.Relative, m.Operand(2)),
					m.Line(2),
				}
			}),
		},
		{
			Name: "BranchNeverTaken",
			Pattern: []LinePattern{
				InSet(ir.ConditionalBranches).When(BranchDecided(false)),
			},
			Rewrite: Drop,
		},
		{
			Name: "BranchAlwaysTaken",
			Pattern: []LinePattern{
				InSet(ir.ConditionalBranches).Capturing(1).When(BranchDecided(true)),
				{Where: NotLabelOrByte()},
			},
			Rewrite: ReplaceWith(func(m *Match) []ir.AssemblyLine {
				return []ir.AssemblyLine{ir.Insn(ir.JMP, ir.Absolute, m.Operand(1))}
			}),
		},
		{
			Name: "IdentityOra",
			Pattern: []LinePattern{
				HasOpcode(ir.ORA).WithMode(ir.Immediate).
					When(OperandIs(0)).When(DeadAfter(flow.LiveN | flow.LiveZ)),
			},
			Rewrite: Drop,
		},
		{
			Name: "IdentityEor",
			Pattern: []LinePattern{
				HasOpcode(ir.EOR).WithMode(ir.Immediate).
					When(OperandIs(0)).When(DeadAfter(flow.LiveN | flow.LiveZ)),
			},
			Rewrite: Drop,
		},
		{
			Name: "IdentityAnd",
			Pattern: []LinePattern{
				HasOpcode(ir.AND).WithMode(ir.Immediate).
					When(OperandIs(0xff)).When(DeadAfter(flow.LiveN | flow.LiveZ)),
			},
			Rewrite: Drop,
		},
		{
			Name: "AndWithZero",
			Pattern: []LinePattern{
				HasOpcode(ir.AND).WithMode(ir.Immediate).When(OperandIs(0)),
			},
			Rewrite: ReplaceWith(func(m *Match) []ir.AssemblyLine {
				return []ir.AssemblyLine{ir.Imm(ir.LDA, ir.Num(0))}
			}),
		},
		{
			Name: "AddZero",
			Pattern: []LinePattern{
				HasOpcode(ir.ADC).WithMode(ir.Immediate).
					When(OperandIs(0)).When(CarryIs(false)).When(DecimalClear()).
					When(DeadAfter(flow.LiveN | flow.LiveZ | flow.LiveC | flow.LiveV)),
			},
			Rewrite: Drop,
		},
		{
			Name: "SubZero",
			Pattern: []LinePattern{
				HasOpcode(ir.SBC).WithMode(ir.Immediate).
					When(OperandIs(0)).When(CarryIs(true)).When(DecimalClear()).
					When(DeadAfter(flow.LiveN | flow.LiveZ | flow.LiveC | flow.LiveV)),
			},
			Rewrite: Drop,
		},
		{
			Name: "CompareZeroAfterLogic",
			Pattern: []LinePattern{
				InSet(nzFromA),
				HasOpcode(ir.CMP).WithMode(ir.Immediate).
					When(OperandIs(0)).When(DeadAfter(flow.LiveC)),
			},
			Rewrite: KeepOnly(0),
		},
		{
			Name: "DeadCompare",
			Pattern: []LinePattern{
				HasOpcode(ir.CMP, ir.CPX, ir.CPY).
					When(DeadAfter(flow.LiveN | flow.LiveZ | flow.LiveC)),
			},
			Rewrite: Drop,
		},
		{
			Name: "PushAroundSafeLine",
			Pattern: []LinePattern{
				HasOpcode(ir.PHA),
				{Where: preservesAccumulatorAndStack()},
				HasOpcode(ir.PLA).When(DeadAfter(flow.LiveN | flow.LiveZ)),
			},
			Rewrite: KeepOnly(1),
		},
		{
			Name: "DoubleComplement",
			Pattern: []LinePattern{
				HasOpcode(ir.EOR).WithMode(ir.Immediate).When(OperandIs(0xff)),
				HasOpcode(ir.EOR).WithMode(ir.Immediate).
					When(OperandIs(0xff)).When(DeadAfter(flow.LiveN | flow.LiveZ)),
			},
			Rewrite: Drop,
		},
		{
			Name: "StoreThenLoadIntoX",
			Pattern: []LinePattern{
				HasOpcode(ir.STA).WithMode(ir.ZeroPage, ir.Absolute).Capturing(1),
				HasOpcode(ir.LDX).WithMode(ir.ZeroPage, ir.Absolute).Capturing(1),
			},
			Rewrite: ReplaceWith(func(m *Match) []ir.AssemblyLine {
				return []ir.AssemblyLine{m.Line(0), ir.ImpliedInsn(ir.TAX)}
			}),
		},
		{
			Name: "StoreThenLoadIntoY",
			Pattern: []LinePattern{
				HasOpcode(ir.STA).WithMode(ir.ZeroPage, ir.Absolute).Capturing(1),
				HasOpcode(ir.LDY).WithMode(ir.ZeroPage, ir.Absolute).Capturing(1),
			},
			Rewrite: ReplaceWith(func(m *Match) []ir.AssemblyLine {
				return []ir.AssemblyLine{m.Line(0), ir.ImpliedInsn(ir.TAY)}
			}),
		},
	}

	// Loads and transfers whose whole effect is dead.
	for _, p := range []struct {
		op   ir.Opcode
		dead flow.Liveness
	}{
		{ir.LDA, flow.LiveA}, {ir.LDX, flow.LiveX}, {ir.LDY, flow.LiveY},
		{ir.TAX, flow.LiveX}, {ir.TAY, flow.LiveY},
		{ir.TXA, flow.LiveA}, {ir.TYA, flow.LiveA},
	} {
		rules = append(rules, Rule{
			Name: "DeadWrite" + p.op.String(),
			Pattern: []LinePattern{
				HasOpcode(p.op).When(DeadAfter(p.dead | flow.LiveN | flow.LiveZ)).
					When(notIndirectRead()),
			},
			Rewrite: Drop,
		})
	}

	// A transfer between registers already proven equal.
	for _, p := range []struct {
		op   ir.Opcode
		a, b flow.Register
	}{
		{ir.TAX, flow.RegA, flow.RegX}, {ir.TXA, flow.RegX, flow.RegA},
		{ir.TAY, flow.RegA, flow.RegY}, {ir.TYA, flow.RegY, flow.RegA},
	} {
		rules = append(rules, Rule{
			Name: "TransferOfEqual" + p.op.String(),
			Pattern: []LinePattern{
				HasOpcode(p.op).When(RegsEqual(p.a, p.b)).
					When(DeadAfter(flow.LiveN | flow.LiveZ)),
			},
			Rewrite: Drop,
		})
	}

	return rules
}

// OperandIs holds when the operand evaluates to the given byte.
func OperandIs(b byte) Cond {
	return func(m *Match, idx int) bool {
		v, ok := operandByte(m.Lines[idx])
		return ok && v == b
	}
}

// preservesAccumulatorAndStack admits lines a PHA/PLA bracket can be
// hoisted over.
func preservesAccumulatorAndStack() Cond {
	return func(m *Match, idx int) bool {
		op := m.Lines[idx].Op
		if op == ir.LABEL || op == ir.BYTE || op.IsTerminal() {
			return false
		}
		return !ir.ChangesA.Contains(op) && !ir.ChangesStack.Contains(op) &&
			!ir.ConditionalBranches.Contains(op)
	}
}

// notIndirectRead refuses loads through a pointer, whose address cannot be
// reasoned about here.
func notIndirectRead() Cond {
	return func(m *Match, idx int) bool {
		switch m.Lines[idx].Mode {
		case ir.IndexedX, ir.IndexedY, ir.IndexedZ, ir.IndexedSY, ir.Indirect,
			ir.LongIndexedY, ir.LongIndexedZ:
			return false
		}
		return true
	}
}
