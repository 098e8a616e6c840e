// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package opt

import (
	"github.com/mfc-lang/mfc/flow"
	"github.com/mfc-lang/mfc/ir"
)

// QuickPreset is the cheap rule set used at -O1: small windows, no
// precondition deeper than adjacency and liveness.
var QuickPreset = Pass{Name: "quick", Rules: quickRules()}

func quickRules() []Rule {
	rules := []Rule{
		{
			Name:    "PointlessNop",
			Pattern: []LinePattern{HasOpcode(ir.NOP)},
			Rewrite: Drop,
		},
	}

	// A load immediately overwritten by another load of the same register
	// did nothing: its flags are rewritten before anyone reads them.
	for _, op := range []ir.Opcode{ir.LDA, ir.LDX, ir.LDY} {
		rules = append(rules, Rule{
			Name:    "LoadBeforeLoad" + op.String(),
			Pattern: []LinePattern{HasOpcode(op), HasOpcode(op)},
			Rewrite: KeepOnly(1),
		})
	}

	// Store followed by a reload of the same location.
	for _, p := range []struct{ st, ld ir.Opcode }{
		{ir.STA, ir.LDA}, {ir.STX, ir.LDX}, {ir.STY, ir.LDY},
	} {
		rules = append(rules, Rule{
			Name: "LoadAfterStore" + p.st.String(),
			Pattern: []LinePattern{
				HasOpcode(p.st).Capturing(1),
				HasOpcode(p.ld).Capturing(1).When(SameModeAs(0)).
					When(DeadAfter(flow.LiveN | flow.LiveZ)),
			},
			Rewrite: KeepOnly(0),
		})
	}

	// Load followed by a store of the same value back to its source.
	for _, p := range []struct{ ld, st ir.Opcode }{
		{ir.LDA, ir.STA}, {ir.LDX, ir.STX}, {ir.LDY, ir.STY},
	} {
		rules = append(rules, Rule{
			Name: "StoreAfterLoad" + p.ld.String(),
			Pattern: []LinePattern{
				HasOpcode(p.ld).Capturing(1),
				HasOpcode(p.st).Capturing(1).When(SameModeAs(0)),
			},
			Rewrite: KeepOnly(0),
		})
	}

	// Identical store twice in a row.
	for _, op := range []ir.Opcode{ir.STA, ir.STX, ir.STY, ir.STZ} {
		rules = append(rules, Rule{
			Name: "DoubleStore" + op.String(),
			Pattern: []LinePattern{
				HasOpcode(op).Capturing(1),
				HasOpcode(op).Capturing(1).When(SameModeAs(0)),
			},
			Rewrite: KeepOnly(1),
		})
	}

	// Increment/decrement pairs that cancel out.
	for _, p := range []struct{ a, b ir.Opcode }{
		{ir.INX, ir.DEX}, {ir.DEX, ir.INX}, {ir.INY, ir.DEY}, {ir.DEY, ir.INY},
	} {
		rules = append(rules, Rule{
			Name: "Cancel" + p.a.String() + p.b.String(),
			Pattern: []LinePattern{
				HasOpcode(p.a),
				HasOpcode(p.b).When(DeadAfter(flow.LiveN | flow.LiveZ)),
			},
			Rewrite: Drop,
		})
	}

	// A transfer immediately undone leaves every register and flag as the
	// first transfer left them.
	for _, p := range []struct{ a, b ir.Opcode }{
		{ir.TAX, ir.TXA}, {ir.TXA, ir.TAX}, {ir.TAY, ir.TYA}, {ir.TYA, ir.TAY},
	} {
		rules = append(rules, Rule{
			Name:    "TransferRoundTrip" + p.a.String(),
			Pattern: []LinePattern{HasOpcode(p.a), HasOpcode(p.b)},
			Rewrite: KeepOnly(0),
		})
	}

	rules = append(rules,
		Rule{
			Name: "PushPullCancel",
			Pattern: []LinePattern{
				HasOpcode(ir.PHA),
				HasOpcode(ir.PLA).When(DeadAfter(flow.LiveN | flow.LiveZ)),
			},
			Rewrite: Drop,
		},
		Rule{
			Name: "JumpToNextLine",
			Pattern: []LinePattern{
				HasOpcode(ir.JMP).WithMode(ir.Absolute).Capturing(1),
				HasOpcode(ir.LABEL).Capturing(1),
			},
			Rewrite: KeepOnly(1),
		},
		Rule{
			Name: "BranchToNextLine",
			Pattern: []LinePattern{
				InSet(ir.ConditionalBranches).Capturing(1),
				HasOpcode(ir.LABEL).Capturing(1),
			},
			Rewrite: KeepOnly(1),
		},
		Rule{
			Name: "UnreachableAfterTerminal",
			Pattern: []LinePattern{
				HasOpcode(ir.RTS, ir.RTI, ir.RTL, ir.RTN, ir.JMP, ir.BRA, ir.STP),
				{Where: NotLabelOrByte()},
			},
			Rewrite: KeepOnly(0),
		},
		Rule{
			Name:    "RedundantClc",
			Pattern: []LinePattern{HasOpcode(ir.CLC).When(CarryIs(false))},
			Rewrite: Drop,
		},
		Rule{
			Name:    "RedundantSec",
			Pattern: []LinePattern{HasOpcode(ir.SEC).When(CarryIs(true))},
			Rewrite: Drop,
		},
		Rule{
			Name:    "RedundantCld",
			Pattern: []LinePattern{HasOpcode(ir.CLD).When(DecimalClear())},
			Rewrite: Drop,
		},
	)

	// Reloading a value the register provably holds already.
	for _, p := range []struct {
		op  ir.Opcode
		reg flow.Register
	}{
		{ir.LDA, flow.RegA}, {ir.LDX, flow.RegX}, {ir.LDY, flow.RegY},
	} {
		reg := p.reg
		rules = append(rules, Rule{
			Name: "KnownValueReload" + p.op.String(),
			Pattern: []LinePattern{
				HasOpcode(p.op).WithMode(ir.Immediate).
					When(DeadAfter(flow.LiveN | flow.LiveZ)).
					When(operandMatchesRegister(reg)),
			},
			Rewrite: Drop,
		})
	}

	return rules
}

// NotLabelOrByte refuses label definitions and raw data, which may be
// reached by control flow the window cannot see.
func NotLabelOrByte() Cond {
	return func(m *Match, idx int) bool {
		op := m.Lines[idx].Op
		return op != ir.LABEL && op != ir.BYTE
	}
}

// operandMatchesRegister holds when the line's immediate operand equals the
// register's proven value.
func operandMatchesRegister(r flow.Register) Cond {
	return func(m *Match, idx int) bool {
		have, ok := m.States[idx].Reg(r).Known()
		if !ok {
			return false
		}
		want, ok := operandByte(m.Lines[idx])
		return ok && want == have
	}
}

func operandByte(l ir.AssemblyLine) (byte, bool) {
	if l.Operand == nil {
		return 0, false
	}
	v, ok := l.Operand.Eval(nil)
	if !ok {
		return 0, false
	}
	return byte(v), true
}
